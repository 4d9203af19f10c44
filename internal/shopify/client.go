package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bouncer-system/internal/config"
	"bouncer-system/internal/logger"
)

// Client — клиент Shopify Admin GraphQL API.
type Client struct {
	apiURL      string
	accessToken string
	httpClient  *http.Client
	log         *logger.Logger
}

// DiscountCode описывает созданный в Shopify код скидки.
type DiscountCode struct {
	Code       string
	DiscountID string
	Status     string
	ExpiresAt  time.Time
}

// New создает клиент по конфигурации. Возвращает ошибку без учётных данных:
// вызывающий код трактует её как «Shopify не настроен» и симулирует коды.
func New(cfg *config.ShopifyConfig, log *logger.Logger) (*Client, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("shopify credentials are not configured")
	}

	domain := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(cfg.StoreDomain, "https://"), "http://"), "/")

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "2024-01"
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		apiURL:      fmt.Sprintf("https://%s/admin/api/%s/graphql.json", domain, apiVersion),
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: timeout},
		log:         log,
	}, nil
}

// SetHTTPClient подменяет http-клиент (для тестов).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// SetAPIURL подменяет адрес API (для тестов).
func (c *Client) SetAPIURL(url string) {
	c.apiURL = url
}

const discountCodeBasicCreateMutation = `
mutation discountCodeBasicCreate($basicCodeDiscount: DiscountCodeBasicInput!) {
    discountCodeBasicCreate(basicCodeDiscount: $basicCodeDiscount) {
        codeDiscountNode {
            id
            codeDiscount {
                ... on DiscountCodeBasic {
                    codes(first: 1) {
                        nodes {
                            code
                        }
                    }
                    status
                    usageLimit
                    appliesOncePerCustomer
                }
            }
        }
        userErrors {
            field
            message
        }
    }
}`

// CreateDiscountCode создает одноразовый процентный код скидки с ограниченным сроком.
func (c *Client) CreateDiscountCode(ctx context.Context, pct float64, code string, startsAt, endsAt time.Time, usageLimit int) (*DiscountCode, error) {
	if usageLimit <= 0 {
		usageLimit = 1
	}

	variables := map[string]interface{}{
		"basicCodeDiscount": map[string]interface{}{
			"title":                  fmt.Sprintf("Bouncer %s", code),
			"appliesOncePerCustomer": true,
			"code":                   code,
			"customerSelection": map[string]interface{}{
				"all": true,
			},
			"customerGets": map[string]interface{}{
				"value": map[string]interface{}{
					"percentage": pct / 100.0,
				},
				"items": map[string]interface{}{
					"all": true,
				},
			},
			"startsAt":   startsAt.Format(time.RFC3339),
			"endsAt":     endsAt.Format(time.RFC3339),
			"usageLimit": usageLimit,
		},
	}

	result, err := c.execute(ctx, discountCodeBasicCreateMutation, variables)
	if err != nil {
		return nil, err
	}

	create := result.Data.DiscountCodeBasicCreate
	if len(create.UserErrors) > 0 {
		return nil, fmt.Errorf("shopify rejected discount: %s", create.UserErrors[0].Message)
	}

	actualCode := code
	if nodes := create.CodeDiscountNode.CodeDiscount.Codes.Nodes; len(nodes) > 0 && nodes[0].Code != "" {
		actualCode = nodes[0].Code
	}

	return &DiscountCode{
		Code:       actualCode,
		DiscountID: create.CodeDiscountNode.ID,
		Status:     create.CodeDiscountNode.CodeDiscount.Status,
		ExpiresAt:  endsAt,
	}, nil
}

// graphqlResponse — структура ответа Shopify для discountCodeBasicCreate.
type graphqlResponse struct {
	Data struct {
		DiscountCodeBasicCreate struct {
			CodeDiscountNode struct {
				ID           string `json:"id"`
				CodeDiscount struct {
					Codes struct {
						Nodes []struct {
							Code string `json:"code"`
						} `json:"nodes"`
					} `json:"codes"`
					Status string `json:"status"`
				} `json:"codeDiscount"`
			} `json:"codeDiscountNode"`
			UserErrors []struct {
				Field   []string `json:"field"`
				Message string   `json:"message"`
			} `json:"userErrors"`
		} `json:"discountCodeBasicCreate"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// execute отправляет GraphQL-запрос и декодирует ответ.
func (c *Client) execute(ctx context.Context, query string, variables map[string]interface{}) (*graphqlResponse, error) {
	payload := map[string]interface{}{"query": query}
	if variables != nil {
		payload["variables"] = variables
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graphql payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("shopify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("shopify returned status %d: %s", resp.StatusCode, string(raw))
	}

	var result graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode shopify response: %w", err)
	}

	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("shopify graphql error: %s", result.Errors[0].Message)
	}

	return &result, nil
}
