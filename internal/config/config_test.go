package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetEnvHelpers(t *testing.T) {
	os.Setenv("TEST_STR", "value")
	os.Setenv("TEST_INT", "123")
	os.Setenv("TEST_BOOL_TRUE", "true")
	os.Setenv("TEST_BOOL_FALSE", "false")

	if v := getEnv("TEST_STR", ""); v != "value" {
		t.Fatalf("expected value, got %s", v)
	}
	if v := getEnvAsInt("TEST_INT", 0); v != 123 {
		t.Fatalf("expected 123, got %d", v)
	}
	if !getEnvAsBool("TEST_BOOL_TRUE", false) {
		t.Fatalf("expected true")
	}
	if getEnvAsBool("TEST_BOOL_FALSE", true) {
		t.Fatalf("expected false")
	}
}

func TestLoadDefaults(t *testing.T) {
	// ensure no interfering env vars
	_ = os.Unsetenv("SERVER_PORT")
	_ = os.Unsetenv("SESSION_TTL_SECONDS")
	cfg := Load()
	if cfg.Server.Port == "" {
		t.Fatalf("expected default server port set")
	}
	if cfg.Session.TTLSeconds != 1800 {
		t.Fatalf("expected default session ttl 1800, got %d", cfg.Session.TTLSeconds)
	}
	if cfg.Kafka.Topics.Negotiations == "" || cfg.Kafka.Topics.Offers == "" || cfg.Kafka.Topics.Codes == "" {
		t.Fatalf("expected default kafka topics set")
	}
}

func TestShopifyConfig_Configured(t *testing.T) {
	cfg := &ShopifyConfig{}
	if cfg.Configured() {
		t.Fatalf("empty shopify config should not be configured")
	}
	cfg.StoreDomain = "shop.myshopify.com"
	cfg.AccessToken = "token"
	if !cfg.Configured() {
		t.Fatalf("expected configured shopify config")
	}
}

func validMerchant() *MerchantConfig {
	return &MerchantConfig{
		StoreName:        "Test Store",
		MaxDiscountPct:   17,
		FloorMarginPct:   40,
		FirstOfferPct:    8,
		CounterStepPct:   3,
		MaxCounters:      3,
		OfferTTLMinutes:  10,
		MaxTraitBonusPct: 5,
	}
}

func TestMerchantConfig_ValidateOK(t *testing.T) {
	if err := validMerchant().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestMerchantConfig_ValidateFloorMargin(t *testing.T) {
	mc := validMerchant()
	// 70% скидки при марже 40% оставляют магазин в минусе
	mc.MaxDiscountPct = 70
	if err := mc.Validate(); err == nil {
		t.Fatalf("expected floor margin violation error")
	}
}

func TestMerchantConfig_ValidateFirstOfferAboveMax(t *testing.T) {
	mc := validMerchant()
	mc.FirstOfferPct = 25
	if err := mc.Validate(); err == nil {
		t.Fatalf("expected first offer validation error")
	}
}

func TestMerchantConfig_ValidateNegativeStep(t *testing.T) {
	mc := validMerchant()
	mc.CounterStepPct = 0
	if err := mc.Validate(); err == nil {
		t.Fatalf("expected counter step validation error")
	}
}

func TestMerchantConfig_ValidateDefaultsOfferTTL(t *testing.T) {
	mc := validMerchant()
	mc.OfferTTLMinutes = 0
	if err := mc.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	if mc.OfferTTLMinutes != 10 {
		t.Fatalf("expected offer ttl defaulted to 10, got %d", mc.OfferTTLMinutes)
	}
}

func TestLoadMerchantFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "merchant.json")
	content := `{
		"store_name": "Test Store",
		"max_discount_pct": 17,
		"floor_margin_pct": 40,
		"first_offer_pct": 8,
		"counter_step_pct": 3,
		"max_counters": 3,
		"offer_ttl_minutes": 10,
		"max_trait_bonus_pct": 5,
		"valuable_traits": {
			"student": {"keywords": ["student"], "discount_bonus_pct": 2}
		}
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	mc, err := LoadMerchantFromFile(path)
	if err != nil {
		t.Fatalf("expected config loaded, got %v", err)
	}
	if mc.StoreName != "Test Store" || mc.MaxDiscountPct != 17 {
		t.Fatalf("unexpected config values: %+v", mc)
	}
	if _, ok := mc.ValuableTraits["student"]; !ok {
		t.Fatalf("expected student trait parsed")
	}
}

func TestLoadMerchantFromFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "merchant.json")
	content := `{"max_discount_pct": 70, "floor_margin_pct": 40, "counter_step_pct": 3}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadMerchantFromFile(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadMerchantFromFile_Missing(t *testing.T) {
	if _, err := LoadMerchantFromFile("/nonexistent/merchant.json"); err == nil {
		t.Fatalf("expected read error")
	}
}
