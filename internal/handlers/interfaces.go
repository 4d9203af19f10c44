package handlers

import (
	"context"

	"bouncer-system/internal/models"
)

// ----- Chat -----

type ChatService interface {
	HandleMessage(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error)
}

// ----- Negotiations -----

type SessionProvider interface {
	Get(ctx context.Context, sessionID string) (*models.NegotiationSession, error)
	Expire(ctx context.Context, sessionID string) error
}

type NegotiationSummarizer interface {
	Summary(session *models.NegotiationSession) *models.NegotiationSummary
}

type SessionEventPublisher interface {
	PublishSessionExpired(sessionID string) error
}

// ----- Offers -----

type OffersLister interface {
	ListOffers(ctx context.Context, unconfirmedOnly bool, limit, offset int) ([]*models.Offer, error)
}

// ----- Health -----

type DBHealth interface {
	Health() error
}

type RedisHealth interface {
	Health(ctx context.Context) error
}
