package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	Kafka     KafkaConfig     `json:"kafka"`
	Logger    LoggerConfig    `json:"logger"`
	Shopify   ShopifyConfig   `json:"shopify"`
	Session   SessionConfig   `json:"session"`
	FactCheck FactCheckConfig `json:"fact_check"`
	RateLimit RateLimitConfig `json:"rate_limit"`
}

// ServerConfig представляет конфигурацию HTTP сервера
type ServerConfig struct {
	Port         string `json:"port"`
	Host         string `json:"host"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
}

// DatabaseConfig представляет конфигурацию базы данных
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

// RedisConfig представляет конфигурацию Redis
type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// KafkaConfig представляет конфигурацию Kafka
type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	GroupID string   `json:"group_id"`
	Topics  Topics   `json:"topics"`
}

// Topics представляет список топиков Kafka
type Topics struct {
	Negotiations string `json:"negotiations"`
	Offers       string `json:"offers"`
	Codes        string `json:"codes"`
}

// LoggerConfig представляет конфигурацию логгера
type LoggerConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	File   string `json:"file"`
}

// ShopifyConfig описывает доступ к Shopify Admin GraphQL API
type ShopifyConfig struct {
	StoreDomain    string `json:"store_domain"`    // mystore.myshopify.com
	AccessToken    string `json:"access_token"`    // X-Shopify-Access-Token
	APIVersion     string `json:"api_version"`     // 2024-01
	TimeoutSeconds int    `json:"timeout_seconds"` // таймаут http-запроса
}

// Configured сообщает, заданы ли учётные данные Shopify.
// Без них коды скидок симулируются локально.
func (c *ShopifyConfig) Configured() bool {
	return c.StoreDomain != "" && c.AccessToken != ""
}

// SessionConfig хранит настройки хранилища сессий.
type SessionConfig struct {
	TTLSeconds     int `json:"ttl_seconds"`     // окно неактивности
	HistoryContext int `json:"history_context"` // сколько реплик берём для детекции трейтов
}

// FactCheckConfig описывает настройки внешнего верификатора заявленных трейтов.
type FactCheckConfig struct {
	Enabled        bool   `json:"enabled"`
	BaseURL        string `json:"base_url"`
	APIKey         string `json:"api_key"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// RateLimitConfig описывает настройки rate limiting
type RateLimitConfig struct {
	Enabled       bool   `json:"enabled"`
	Requests      int    `json:"requests"`
	WindowSeconds int    `json:"window_seconds"`
	KeyPrefix     string `json:"key_prefix"`
}

// TraitConfig описывает один ценный трейт покупателя.
type TraitConfig struct {
	Keywords         []string `json:"keywords"`
	DiscountBonusPct float64  `json:"discount_bonus_pct"`
}

// MerchantConfig — неизменяемые настройки магазина, задающие коридор торга.
// Загружается один раз при старте; невалидные значения фатальны.
type MerchantConfig struct {
	StoreName        string                 `json:"store_name"`
	MaxDiscountPct   float64                `json:"max_discount_pct"`
	FloorMarginPct   float64                `json:"floor_margin_pct"`
	FirstOfferPct    float64                `json:"first_offer_pct"`
	CounterStepPct   float64                `json:"counter_step_pct"`
	MaxCounters      int                    `json:"max_counters"`
	OfferTTLMinutes  int                    `json:"offer_ttl_minutes"`
	MaxTraitBonusPct float64                `json:"max_trait_bonus_pct"`
	ValuableTraits   map[string]TraitConfig `json:"valuable_traits"`
}

// Load загружает конфигурацию из переменных окружения.
// Merchant-конфиг читается отдельно через LoadMerchant.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "bouncer_user"),
			Password: getEnv("DB_PASSWORD", "bouncer_pass"),
			DBName:   getEnv("DB_NAME", "bouncer_system"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			GroupID: getEnv("KAFKA_GROUP_ID", "bouncer-service"),
			Topics: Topics{
				Negotiations: getEnv("KAFKA_TOPIC_NEGOTIATIONS", "negotiations"),
				Offers:       getEnv("KAFKA_TOPIC_OFFERS", "offers"),
				Codes:        getEnv("KAFKA_TOPIC_CODES", "codes"),
			},
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
		Shopify: ShopifyConfig{
			StoreDomain:    getEnv("SHOPIFY_STORE_DOMAIN", ""),
			AccessToken:    getEnv("SHOPIFY_ACCESS_TOKEN", ""),
			APIVersion:     getEnv("SHOPIFY_API_VERSION", "2024-01"),
			TimeoutSeconds: getEnvAsInt("SHOPIFY_TIMEOUT_SECONDS", 10),
		},
		Session: SessionConfig{
			TTLSeconds:     getEnvAsInt("SESSION_TTL_SECONDS", 1800),
			HistoryContext: getEnvAsInt("SESSION_HISTORY_CONTEXT", 6),
		},
		FactCheck: FactCheckConfig{
			Enabled:        getEnvAsBool("FACTCHECK_ENABLED", false),
			BaseURL:        getEnv("FACTCHECK_BASE_URL", "https://api.search.brave.com/res/v1/web/search"),
			APIKey:         getEnv("FACTCHECK_API_KEY", ""),
			TimeoutSeconds: getEnvAsInt("FACTCHECK_TIMEOUT_SECONDS", 5),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", false),
			Requests:      getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			KeyPrefix:     getEnv("RATE_LIMIT_KEY_PREFIX", "ratelimit"),
		},
	}
}

// LoadMerchant читает merchant-конфиг из JSON-файла и валидирует его.
// Путь задаётся переменной MERCHANT_CONFIG_PATH.
func LoadMerchant() (*MerchantConfig, error) {
	return LoadMerchantFromFile(getEnv("MERCHANT_CONFIG_PATH", "config/merchant_config.json"))
}

// LoadMerchantFromFile читает и валидирует merchant-конфиг по пути.
func LoadMerchantFromFile(path string) (*MerchantConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read merchant config %s: %w", path, err)
	}

	mc := &MerchantConfig{}
	if err := json.Unmarshal(data, mc); err != nil {
		return nil, fmt.Errorf("failed to parse merchant config %s: %w", path, err)
	}

	if err := mc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid merchant config %s: %w", path, err)
	}

	return mc, nil
}

// Validate проверяет коридор торга. Нарушение — фатальная ошибка конфигурации:
// процесс не должен обслуживать трафик с невалидным конфигом.
func (m *MerchantConfig) Validate() error {
	if m.MaxDiscountPct < 0 || m.MaxDiscountPct > 100 {
		return fmt.Errorf("max_discount_pct must be between 0 and 100, got %.2f", m.MaxDiscountPct)
	}
	if m.FloorMarginPct < 0 || m.FloorMarginPct > 100 {
		return fmt.Errorf("floor_margin_pct must be between 0 and 100, got %.2f", m.FloorMarginPct)
	}
	// Ценовой пол соблюдается на этапе конфигурации, не в рантайме политики.
	if m.MaxDiscountPct > 100-m.FloorMarginPct {
		return fmt.Errorf("max_discount_pct %.2f violates floor margin %.2f (must be <= %.2f)",
			m.MaxDiscountPct, m.FloorMarginPct, 100-m.FloorMarginPct)
	}
	if m.FirstOfferPct < 0 || m.FirstOfferPct > m.MaxDiscountPct {
		return fmt.Errorf("first_offer_pct must be between 0 and max_discount_pct, got %.2f", m.FirstOfferPct)
	}
	if m.CounterStepPct <= 0 {
		return fmt.Errorf("counter_step_pct must be positive, got %.2f", m.CounterStepPct)
	}
	if m.MaxCounters < 0 {
		return fmt.Errorf("max_counters must be >= 0, got %d", m.MaxCounters)
	}
	if m.OfferTTLMinutes <= 0 {
		m.OfferTTLMinutes = 10
	}
	if m.MaxTraitBonusPct < 0 {
		return fmt.Errorf("max_trait_bonus_pct must be >= 0, got %.2f", m.MaxTraitBonusPct)
	}
	for name, trait := range m.ValuableTraits {
		if trait.DiscountBonusPct < 0 {
			return fmt.Errorf("valuable_traits.%s.discount_bonus_pct must be >= 0", name)
		}
	}
	return nil
}

// getEnv получает значение переменной окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt получает значение переменной окружения как int с значением по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool получает значение переменной окружения как bool с значением по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.ToLower(getEnv(key, ""))
	if valueStr == "true" || valueStr == "1" || valueStr == "yes" {
		return true
	}
	if valueStr == "false" || valueStr == "0" || valueStr == "no" {
		return false
	}
	return defaultValue
}
