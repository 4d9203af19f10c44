package models

import (
	"time"

	"github.com/google/uuid"
)

// Offer представляет одно предложение скидки в рамках сессии.
type Offer struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	SessionID   string     `json:"session_id" db:"session_id"`
	Pct         float64    `json:"pct" db:"pct"`
	BasePct     float64    `json:"base_pct,omitempty" db:"base_pct"`
	TraitBonus  float64    `json:"trait_bonus,omitempty" db:"trait_bonus"`
	Code        string     `json:"code,omitempty" db:"code"`
	Unconfirmed bool       `json:"unconfirmed,omitempty" db:"unconfirmed"`
	Accepted    bool       `json:"accepted" db:"accepted"`
	ExpiresAt   time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty" db:"accepted_at"`
}

// IssuedCode описывает выпущенный код скидки.
type IssuedCode struct {
	Code        string    `json:"code"`
	Pct         float64   `json:"pct"`
	ExpiresAt   time.Time `json:"expires_at"`
	Unconfirmed bool      `json:"unconfirmed"`
	ShopifyID   string    `json:"shopify_id,omitempty"`
}

// NegotiationSummary агрегирует состояние торга для API.
type NegotiationSummary struct {
	SessionID         string        `json:"session_id"`
	Status            SessionStatus `json:"status"`
	TurnCount         int           `json:"turn_count"`
	Counters          int           `json:"counters"`
	MaxCounters       int           `json:"max_counters"`
	RemainingCounters int           `json:"remaining_counters"`
	CurrentPct        float64       `json:"current_pct"`
	CanContinue       bool          `json:"can_continue"`
	Offers            []Offer       `json:"offers"`
}
