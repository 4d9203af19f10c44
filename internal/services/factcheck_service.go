package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"bouncer-system/internal/config"
	"bouncer-system/internal/logger"
)

// VerificationResult — итог проверки заявленного трейта.
type VerificationResult struct {
	Verified bool   `json:"verified"`
	Summary  string `json:"summary"`
}

// FactCheckService проверяет заявленные трейты через внешний поисковый API.
// Проверка запускается только после явного согласия пользователя; недоступный
// верификатор деградирует в «не подтверждено», не блокируя торг.
type FactCheckService struct {
	cfg    *config.FactCheckConfig
	log    *logger.Logger
	client *http.Client
}

// NewFactCheckService создаёт сервис верификации.
func NewFactCheckService(cfg *config.FactCheckConfig, log *logger.Logger) *FactCheckService {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &FactCheckService{
		cfg:    cfg,
		log:    log,
		client: &http.Client{Timeout: timeout},
	}
}

// Enabled сообщает, настроен ли верификатор.
func (s *FactCheckService) Enabled() bool {
	return s.cfg.Enabled && s.cfg.APIKey != "" && s.cfg.BaseURL != ""
}

// Verify выполняет поисковый запрос по заявленному трейту.
func (s *FactCheckService) Verify(ctx context.Context, query string) (*VerificationResult, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("fact check is not configured")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", "3")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fact check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fact check returned status %d: %s", resp.StatusCode, string(raw))
	}

	var data searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode fact check response: %w", err)
	}

	results := data.Web.Results
	if len(results) == 0 {
		return &VerificationResult{
			Verified: false,
			Summary:  "No public results back that claim up.",
		}, nil
	}

	return &VerificationResult{
		Verified: true,
		Summary:  fmt.Sprintf("Found %d results, top: %s", len(results), results[0].Title),
	}, nil
}

// Структуры для парсинга ответа поискового API
type searchResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
		} `json:"results"`
	} `json:"web"`
}
