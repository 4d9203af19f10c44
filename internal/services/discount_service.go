package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bouncer-system/internal/apperror"
	"bouncer-system/internal/config"
	"bouncer-system/internal/database"
	"bouncer-system/internal/logger"
	"bouncer-system/internal/models"
	"bouncer-system/internal/shopify"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ShopifyAPI — контракт создания кода скидки во внешнем API.
type ShopifyAPI interface {
	CreateDiscountCode(ctx context.Context, pct float64, code string, startsAt, endsAt time.Time, usageLimit int) (*shopify.DiscountCode, error)
}

// DiscountService выпускает коды скидок: через Shopify, если он настроен,
// иначе (или при сбое/таймауте внешнего вызова) — симулированный код,
// помеченный как неподтверждённый. Выпущенные коды пишутся в Postgres
// для последующей сверки.
type DiscountService struct {
	db       *database.DB
	shopify  ShopifyAPI
	log      *logger.Logger
	merchant *config.MerchantConfig
}

// NewDiscountService создаёт сервис выпуска кодов.
// shopifyClient может быть nil — тогда все коды симулируются.
func NewDiscountService(db *database.DB, shopifyClient ShopifyAPI, log *logger.Logger, merchant *config.MerchantConfig) *DiscountService {
	return &DiscountService{
		db:       db,
		shopify:  shopifyClient,
		log:      log,
		merchant: merchant,
	}
}

// Issue выпускает код для предложения. Идемпотентно: предложение, уже
// несущее код, возвращается как есть, второй код не создаётся.
func (s *DiscountService) Issue(ctx context.Context, session *models.NegotiationSession, offer *models.Offer) (*models.IssuedCode, error) {
	if offer == nil {
		return nil, apperror.Validation("offer is required", nil)
	}

	if offer.Code != "" {
		return &models.IssuedCode{
			Code:        offer.Code,
			Pct:         offer.Pct,
			ExpiresAt:   offer.ExpiresAt,
			Unconfirmed: offer.Unconfirmed,
		}, nil
	}

	code := generateCode()
	startsAt := time.Now()
	endsAt := offer.ExpiresAt
	if endsAt.IsZero() || endsAt.Before(startsAt) {
		endsAt = startsAt.Add(time.Duration(s.merchant.OfferTTLMinutes) * time.Minute)
	}

	issued := &models.IssuedCode{
		Code:        code,
		Pct:         offer.Pct,
		ExpiresAt:   endsAt,
		Unconfirmed: true,
	}

	if s.shopify != nil {
		created, err := s.shopify.CreateDiscountCode(ctx, offer.Pct, code, startsAt, endsAt, 1)
		if err != nil {
			// Сбой или таймаут внешнего вызова — не отдаём ошибку пользователю,
			// код остаётся симулированным и неподтверждённым до сверки.
			s.log.WithError(err).WithField("session_id", session.ID).Warn("Shopify issuance failed, falling back to simulated code")
		} else {
			issued.Code = created.Code
			issued.ShopifyID = created.DiscountID
			issued.Unconfirmed = false
		}
	}

	offer.Code = issued.Code
	offer.Unconfirmed = issued.Unconfirmed

	if err := s.recordOffer(ctx, offer, issued.ShopifyID); err != nil {
		// Потеря строки аудита не отменяет уже выпущенный код.
		s.log.WithError(err).WithField("session_id", session.ID).Error("Failed to record issued code")
	}

	s.log.WithFields(map[string]interface{}{
		"session_id":  session.ID,
		"code":        issued.Code,
		"pct":         issued.Pct,
		"unconfirmed": issued.Unconfirmed,
	}).Info("Discount code issued")

	return issued, nil
}

// recordOffer пишет выпущенный код в таблицу offers.
func (s *DiscountService) recordOffer(ctx context.Context, offer *models.Offer, shopifyID string) error {
	if s.db == nil {
		return nil
	}

	query := `
		INSERT INTO offers (id, session_id, pct, base_pct, trait_bonus, code, shopify_id, unconfirmed, accepted, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.db.ExecContext(ctx, query,
		offer.ID, offer.SessionID, offer.Pct, offer.BasePct, offer.TraitBonus,
		offer.Code, nullString(shopifyID), offer.Unconfirmed, offer.Accepted,
		offer.ExpiresAt, offer.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			// Строка уже есть — повторный выпуск того же предложения.
			return nil
		}
		return fmt.Errorf("failed to insert offer: %w", err)
	}

	return nil
}

// MarkAccepted помечает выпущенный код принятым.
func (s *DiscountService) MarkAccepted(ctx context.Context, offerID uuid.UUID, at time.Time) error {
	if s.db == nil {
		return nil
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE offers SET accepted = true, accepted_at = $1 WHERE id = $2`, at, offerID)
	if err != nil {
		return fmt.Errorf("failed to mark offer accepted: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("offer not found", nil)
	}
	return nil
}

// ListOffers возвращает выпущенные коды, опционально только неподтверждённые.
func (s *DiscountService) ListOffers(ctx context.Context, unconfirmedOnly bool, limit, offset int) ([]*models.Offer, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, session_id, pct, base_pct, trait_bonus, code, unconfirmed, accepted, expires_at, created_at, accepted_at
		FROM offers
	`
	if unconfirmedOnly {
		query += " WHERE unconfirmed = true"
	}
	query += " ORDER BY created_at DESC LIMIT $1 OFFSET $2"

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	var offers []*models.Offer
	for rows.Next() {
		o := &models.Offer{}
		var acceptedAt sql.NullTime
		if err := rows.Scan(&o.ID, &o.SessionID, &o.Pct, &o.BasePct, &o.TraitBonus,
			&o.Code, &o.Unconfirmed, &o.Accepted, &o.ExpiresAt, &o.CreatedAt, &acceptedAt); err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		if acceptedAt.Valid {
			o.AcceptedAt = &acceptedAt.Time
		}
		offers = append(offers, o)
	}

	return offers, nil
}

// generateCode синтезирует код из случайного токена: 8 символов,
// без визуально похожих (I/L/O/0/1).
// Уникальность вероятностная, коллизии допускают редкий повторный выпуск.
func generateCode() string {
	const alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

	raw := uuid.New()
	var b strings.Builder
	for i := 0; i < 8; i++ {
		b.WriteByte(alphabet[int(raw[i])%len(alphabet)])
	}
	return b.String()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
