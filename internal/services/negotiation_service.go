package services

import (
	"fmt"
	"time"

	"bouncer-system/internal/apperror"
	"bouncer-system/internal/config"
	"bouncer-system/internal/logger"
	"bouncer-system/internal/models"

	"github.com/google/uuid"
)

// NegotiationService — политика торга. Решает, что ответить на очередную
// реплику: придержать цену, сделать контр-предложение или зафиксировать сделку.
// Коридор (потолок, первый шаг, число контр-предложений) задан merchant-конфигом.
type NegotiationService struct {
	merchant *config.MerchantConfig
	log      *logger.Logger
}

// NewNegotiationService создаёт политику с конфигом магазина.
func NewNegotiationService(merchant *config.MerchantConfig, log *logger.Logger) *NegotiationService {
	return &NegotiationService{
		merchant: merchant,
		log:      log,
	}
}

// Decide принимает классифицированное намерение и возвращает решение политики.
// Сессия мутируется на месте; вызывающий обязан держать per-session блокировку.
// traitBonusPct — добавка за подтверждённые трейты, применяется в пределах потолка.
//
// Инварианты: предложенный процент не убывает в рамках сессии и никогда не
// превышает max_discount_pct; число предложений не превышает max_counters + 1.
func (s *NegotiationService) Decide(session *models.NegotiationSession, intent models.Intent, traitBonusPct float64) (*models.Decision, error) {
	if session.Status != models.SessionStatusActive {
		return nil, apperror.InvalidState(
			fmt.Sprintf("session %s is %s", session.ID, session.Status), nil)
	}

	switch {
	case intent == models.IntentOther && session.TurnCount == 0:
		session.TurnCount++
		return &models.Decision{
			Action:  models.ActionConverse,
			Message: s.converseMessage(),
		}, nil

	case intent == models.IntentRequestDiscount && !session.HasOffer():
		pct := s.applyBonus(s.merchant.FirstOfferPct, traitBonusPct)
		offer := s.makeOffer(session, pct, s.merchant.FirstOfferPct, traitBonusPct)
		session.TurnCount++

		decision := &models.Decision{
			Action:  models.ActionOffer,
			Message: s.firstOfferMessage(offer.Pct),
			Offer:   offer,
		}
		// Первое же предложение упёрлось в потолок — дальше шагать некуда.
		if offer.Pct >= s.merchant.MaxDiscountPct {
			session.Status = models.SessionStatusFinalized
			decision.Finalized = true
			decision.Message = s.ceilingOfferMessage(offer.Pct)
		}
		return decision, nil

	case intent == models.IntentPushBack && session.HasOffer():
		if session.Counters >= s.merchant.MaxCounters {
			session.Status = models.SessionStatusFinalized
			return &models.Decision{
				Action:    models.ActionHoldFirm,
				Message:   s.holdFirmMessage(session.LastOfferPct),
				Finalized: true,
			}, nil
		}

		next := session.LastOfferPct + s.merchant.CounterStepPct
		if next > s.merchant.MaxDiscountPct {
			next = s.merchant.MaxDiscountPct
		}
		next = s.applyBonus(next, traitBonusPct)

		if next <= session.LastOfferPct {
			// Уже на потолке: держим цену и закрываем торг финальной ценой.
			session.Status = models.SessionStatusFinalized
			return &models.Decision{
				Action:    models.ActionHoldFirm,
				Message:   s.holdFirmMessage(session.LastOfferPct),
				Finalized: true,
			}, nil
		}

		offer := s.makeOffer(session, next, next-traitBonusPct, traitBonusPct)
		session.Counters++
		session.TurnCount++

		decision := &models.Decision{
			Action:  models.ActionOffer,
			Message: s.counterOfferMessage(offer.Pct),
			Offer:   offer,
		}
		// Шаг упёрся в потолок — финализируем сразу, фантомного шага не будет.
		if offer.Pct >= s.merchant.MaxDiscountPct {
			session.Status = models.SessionStatusFinalized
			decision.Finalized = true
			decision.Message = s.ceilingOfferMessage(offer.Pct)
		}
		return decision, nil

	case intent == models.IntentAccept:
		live := session.LiveOffer()
		if live == nil {
			return &models.Decision{
				Action:  models.ActionClarify,
				Message: s.noLiveOfferMessage(),
			}, nil
		}

		now := time.Now()
		live.Accepted = true
		live.AcceptedAt = &now
		session.Status = models.SessionStatusFinalized

		return &models.Decision{
			Action:    models.ActionFinalize,
			Message:   s.acceptMessage(live.Pct),
			Offer:     live,
			Finalized: true,
		}, nil

	default:
		return &models.Decision{
			Action:  models.ActionClarify,
			Message: s.clarifyMessage(session),
		}, nil
	}
}

// Summary возвращает агрегированное состояние торга для API.
func (s *NegotiationService) Summary(session *models.NegotiationSession) *models.NegotiationSummary {
	remaining := s.merchant.MaxCounters - session.Counters
	if remaining < 0 {
		remaining = 0
	}
	return &models.NegotiationSummary{
		SessionID:         session.ID,
		Status:            session.Status,
		TurnCount:         session.TurnCount,
		Counters:          session.Counters,
		MaxCounters:       s.merchant.MaxCounters,
		RemainingCounters: remaining,
		CurrentPct:        session.LastOfferPct,
		CanContinue:       session.Status == models.SessionStatusActive && session.Counters < s.merchant.MaxCounters,
		Offers:            session.Offers,
	}
}

// applyBonus поднимает процент на трейт-бонус, не выходя за потолок.
func (s *NegotiationService) applyBonus(pct, bonus float64) float64 {
	if bonus <= 0 {
		return pct
	}
	boosted := pct + bonus
	if boosted > s.merchant.MaxDiscountPct {
		boosted = s.merchant.MaxDiscountPct
	}
	return boosted
}

// makeOffer добавляет предложение в сессию и обновляет lastOfferPct.
func (s *NegotiationService) makeOffer(session *models.NegotiationSession, pct, basePct, bonus float64) *models.Offer {
	offer := models.Offer{
		ID:         uuid.New(),
		SessionID:  session.ID,
		Pct:        pct,
		BasePct:    basePct,
		TraitBonus: bonus,
		ExpiresAt:  time.Now().Add(time.Duration(s.merchant.OfferTTLMinutes) * time.Minute),
		CreatedAt:  time.Now(),
	}
	session.Offers = append(session.Offers, offer)
	session.LastOfferPct = pct

	s.log.WithFields(map[string]interface{}{
		"session_id": session.ID,
		"pct":        pct,
		"counter":    session.Counters,
	}).Info("Discount offer made")

	return &session.Offers[len(session.Offers)-1]
}

func (s *NegotiationService) converseMessage() string {
	return fmt.Sprintf("Welcome to %s. I'm the Bouncer — I mind the door and the prices. What brings you in?", s.merchant.StoreName)
}

func (s *NegotiationService) firstOfferMessage(pct float64) string {
	return fmt.Sprintf("Alright, you seem serious. %g%% off — but the offer walks out in %d minutes.", pct, s.merchant.OfferTTLMinutes)
}

func (s *NegotiationService) counterOfferMessage(pct float64) string {
	return fmt.Sprintf("You drive a hard bargain. %g%% — and that's me being generous.", pct)
}

func (s *NegotiationService) ceilingOfferMessage(pct float64) string {
	return fmt.Sprintf("Last call: %g%% — that's the ceiling. Take it or leave it.", pct)
}

func (s *NegotiationService) holdFirmMessage(pct float64) string {
	return fmt.Sprintf("I've stretched as far as I stretch. %g%% stands — final offer.", pct)
}

func (s *NegotiationService) acceptMessage(pct float64) string {
	return fmt.Sprintf("Deal. Locking in %g%% off — your code is on its way.", pct)
}

func (s *NegotiationService) noLiveOfferMessage() string {
	return "Nothing on the table to accept right now. Ask me about the price and we'll talk."
}

func (s *NegotiationService) clarifyMessage(session *models.NegotiationSession) string {
	if session.HasOffer() {
		return fmt.Sprintf("My offer of %g%% is still on the table. Take it, push back, or walk.", session.LastOfferPct)
	}
	return "Not sure what you're angling for. Ask me about the price and we'll talk."
}
