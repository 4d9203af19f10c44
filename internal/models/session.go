package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus представляет статус переговорной сессии
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusFinalized SessionStatus = "finalized"
	SessionStatusExpired   SessionStatus = "expired"
)

// MessageRole описывает автора реплики в истории диалога.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// ChatMessage хранит одну реплику диалога.
type ChatMessage struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
	At      time.Time   `json:"at"`
}

// NegotiationSession хранит состояние одного торга.
// Мутируется только через решения NegotiationService под per-session блокировкой.
type NegotiationSession struct {
	ID           string        `json:"id"`
	Status       SessionStatus `json:"status"`
	TurnCount    int           `json:"turn_count"`
	Counters     int           `json:"counters"`
	LastOfferPct float64       `json:"last_offer_pct"`
	Offers       []Offer       `json:"offers"`
	History      []ChatMessage `json:"history"`

	// VerifiedTraits — трейты, подтверждённые факт-чеком; ClaimedTraits —
	// заявленные; DeclinedTraits — те, по которым покупатель отказал в проверке.
	ClaimedTraits  []string `json:"claimed_traits,omitempty"`
	VerifiedTraits []string `json:"verified_traits,omitempty"`
	DeclinedTraits []string `json:"declined_traits,omitempty"`

	// PendingConsent хранит отложенный запрос согласия на факт-чек.
	PendingConsent *ConsentRequest `json:"pending_consent,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConsentRequest описывает ожидающий подтверждения факт-чек.
type ConsentRequest struct {
	Trait   string    `json:"trait"`
	Query   string    `json:"query"`
	Prompt  string    `json:"prompt"`
	AskedAt time.Time `json:"asked_at"`
}

// NewNegotiationSession создаёт пустую активную сессию.
// Если id пуст, генерируется новый UUID.
func NewNegotiationSession(id string) *NegotiationSession {
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now()
	return &NegotiationSession{
		ID:        id,
		Status:    SessionStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// LiveOffer возвращает последнее предложение, если оно ещё не истекло.
func (s *NegotiationSession) LiveOffer() *Offer {
	if len(s.Offers) == 0 {
		return nil
	}
	last := &s.Offers[len(s.Offers)-1]
	if !last.ExpiresAt.IsZero() && last.ExpiresAt.Before(time.Now()) {
		return nil
	}
	return last
}

// HasOffer сообщает, было ли сделано хоть одно предложение.
func (s *NegotiationSession) HasOffer() bool {
	return len(s.Offers) > 0
}

// AppendMessage добавляет реплику в историю, ограничивая её длину.
func (s *NegotiationSession) AppendMessage(role MessageRole, content string) {
	s.History = append(s.History, ChatMessage{Role: role, Content: content, At: time.Now()})
	const maxHistory = 50
	if len(s.History) > maxHistory {
		s.History = s.History[len(s.History)-maxHistory:]
	}
}

// RecentContext возвращает последние реплики пользователя и ассистента одной строкой.
func (s *NegotiationSession) RecentContext(n int) string {
	if n <= 0 {
		n = 6
	}
	start := len(s.History) - n
	if start < 0 {
		start = 0
	}
	out := ""
	for _, m := range s.History[start:] {
		if m.Role == RoleSystem {
			continue
		}
		if out != "" {
			out += " "
		}
		out += m.Content
	}
	return out
}
