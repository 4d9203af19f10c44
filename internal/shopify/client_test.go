package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bouncer-system/internal/config"
	"bouncer-system/internal/logger"
)

func testLog() *logger.Logger {
	return logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(&config.ShopifyConfig{StoreDomain: "shop.myshopify.com", AccessToken: "token"}, testLog())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.SetAPIURL(srv.URL)
	client.SetHTTPClient(srv.Client())
	return client
}

func TestNew_NotConfigured(t *testing.T) {
	if _, err := New(&config.ShopifyConfig{}, testLog()); err == nil {
		t.Fatalf("expected error without credentials")
	}
	if _, err := New(&config.ShopifyConfig{StoreDomain: "shop.myshopify.com"}, testLog()); err == nil {
		t.Fatalf("expected error without access token")
	}
}

func TestNew_NormalizesDomain(t *testing.T) {
	client, err := New(&config.ShopifyConfig{StoreDomain: "https://shop.myshopify.com/", AccessToken: "t", APIVersion: "2024-01"}, testLog())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	want := "https://shop.myshopify.com/admin/api/2024-01/graphql.json"
	if client.apiURL != want {
		t.Fatalf("unexpected api url: %s", client.apiURL)
	}
}

func TestCreateDiscountCode_OK(t *testing.T) {
	var gotToken string
	var gotPayload map[string]interface{}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Shopify-Access-Token")
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		_, _ = w.Write([]byte(`{
			"data": {
				"discountCodeBasicCreate": {
					"codeDiscountNode": {
						"id": "gid://shopify/DiscountCodeNode/42",
						"codeDiscount": {
							"codes": {"nodes": [{"code": "ABCD2345"}]},
							"status": "ACTIVE"
						}
					},
					"userErrors": []
				}
			}
		}`))
	})

	endsAt := time.Now().Add(10 * time.Minute)
	code, err := client.CreateDiscountCode(context.Background(), 11, "ABCD2345", time.Now(), endsAt, 1)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if code.Code != "ABCD2345" || code.DiscountID != "gid://shopify/DiscountCodeNode/42" {
		t.Fatalf("unexpected discount code: %+v", code)
	}
	if gotToken != "token" {
		t.Fatalf("expected access token header, got %q", gotToken)
	}

	// Процент передаётся долей единицы
	variables := gotPayload["variables"].(map[string]interface{})
	basic := variables["basicCodeDiscount"].(map[string]interface{})
	value := basic["customerGets"].(map[string]interface{})["value"].(map[string]interface{})
	if pct := value["percentage"].(float64); pct != 0.11 {
		t.Fatalf("expected percentage 0.11, got %v", pct)
	}
}

func TestCreateDiscountCode_UserErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"data": {
				"discountCodeBasicCreate": {
					"codeDiscountNode": {"id": "", "codeDiscount": {"codes": {"nodes": []}, "status": ""}},
					"userErrors": [{"field": ["code"], "message": "code taken"}]
				}
			}
		}`))
	})

	if _, err := client.CreateDiscountCode(context.Background(), 11, "X", time.Now(), time.Now().Add(time.Minute), 1); err == nil {
		t.Fatalf("expected user error")
	}
}

func TestCreateDiscountCode_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	if _, err := client.CreateDiscountCode(context.Background(), 11, "X", time.Now(), time.Now().Add(time.Minute), 1); err == nil {
		t.Fatalf("expected error for 401")
	}
}

func TestCreateDiscountCode_GraphQLError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors": [{"message": "throttled"}]}`))
	})

	if _, err := client.CreateDiscountCode(context.Background(), 11, "X", time.Now(), time.Now().Add(time.Minute), 1); err == nil {
		t.Fatalf("expected graphql error")
	}
}

func TestCreateDiscountCode_Timeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	client.SetHTTPClient(&http.Client{Timeout: 50 * time.Millisecond})

	if _, err := client.CreateDiscountCode(context.Background(), 11, "X", time.Now(), time.Now().Add(time.Minute), 1); err == nil {
		t.Fatalf("expected timeout error")
	}
}
