package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bouncer-system/internal/apperror"
	"bouncer-system/internal/config"
	"bouncer-system/internal/logger"
	"bouncer-system/internal/models"
)

// EventProducer — контракт публикации событий торга.
type EventProducer interface {
	PublishOfferMade(sessionID string, offer *models.Offer, counter int) error
	PublishNegotiationFinalized(sessionID string, finalPct float64, accepted bool) error
	PublishOfferAccepted(sessionID string, offer *models.Offer) error
	PublishCodeIssued(sessionID string, issued *models.IssuedCode) error
	PublishSessionExpired(sessionID string) error
}

// ChatService — оркестратор одного хода диалога: сессия, классификация,
// политика торга, выпуск кода, события.
type ChatService struct {
	sessions    *SessionStore
	negotiation *NegotiationService
	intents     IntentClassifier
	traits      *TraitDetector
	discounts   *DiscountService
	factCheck   *FactCheckService
	producer    EventProducer
	log         *logger.Logger
	cfg         *config.SessionConfig
}

// NewChatService создаёт оркестратор.
func NewChatService(
	sessions *SessionStore,
	negotiation *NegotiationService,
	intents IntentClassifier,
	traits *TraitDetector,
	discounts *DiscountService,
	factCheck *FactCheckService,
	producer EventProducer,
	log *logger.Logger,
	cfg *config.SessionConfig,
) *ChatService {
	return &ChatService{
		sessions:    sessions,
		negotiation: negotiation,
		intents:     intents,
		traits:      traits,
		discounts:   discounts,
		factCheck:   factCheck,
		producer:    producer,
		log:         log,
		cfg:         cfg,
	}
}

// HandleMessage обрабатывает входящее сообщение чата.
// Сессия, вытесненная по неактивности, пересоздаётся; явно завершённая
// отвечает вежливым отказом без ошибки процесса.
func (s *ChatService) HandleMessage(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, apperror.Validation("message is required", nil)
	}

	session, _, err := s.sessions.GetOrCreate(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	unlock := s.sessions.Lock(session.ID)
	defer unlock()

	// Перечитываем под блокировкой: параллельный ход мог изменить состояние.
	if fresh, err := s.sessions.Get(ctx, session.ID); err == nil {
		session = fresh
	}

	session.AppendMessage(models.RoleUser, message)

	// Отложенное согласие на факт-чек: явный ответ потребляет ход,
	// любая другая реплика снимает вопрос и торгуется как обычно.
	if pending := session.PendingConsent; pending != nil {
		session.PendingConsent = nil
		if isConsent(message) {
			return s.handleConsentGranted(ctx, session, pending)
		}
		session.DeclinedTraits = appendTrait(session.DeclinedTraits, pending.Trait)
		if isDecline(message) {
			return s.handleConsentDeclined(ctx, session)
		}
	}

	intent := s.intents.Classify(message, session)

	detected := s.traits.DetectTraits(session.RecentContext(s.cfg.HistoryContext))
	session.ClaimedTraits = traitNames(detected)
	bonus := s.traitBonus(session, detected)

	decision, err := s.negotiation.Decide(session, intent, bonus)
	if err != nil {
		if apperror.Is(err, apperror.KindInvalidState) {
			return s.endedResponse(ctx, session)
		}
		return nil, err
	}

	resp := &models.ChatResponse{
		Response:  decision.Message,
		SessionID: session.ID,
	}

	switch decision.Action {
	case models.ActionOffer:
		if err := s.producer.PublishOfferMade(session.ID, decision.Offer, session.Counters); err != nil {
			s.log.WithError(err).Warn("Failed to publish offer event")
		}
	case models.ActionFinalize:
		if err := s.producer.PublishOfferAccepted(session.ID, decision.Offer); err != nil {
			s.log.WithError(err).Warn("Failed to publish accept event")
		}
	}

	// Финализация с предложением на столе выпускает код: и при принятии,
	// и при финальной цене, которую покупатель ещё может использовать.
	if decision.Finalized && decision.Offer != nil {
		issued, err := s.discounts.Issue(ctx, session, decision.Offer)
		if err != nil {
			s.log.WithError(err).WithField("session_id", session.ID).Error("Failed to issue discount code")
		} else {
			resp.DiscountCode = issued.Code
			resp.DiscountPct = issued.Pct
			resp.Unconfirmed = issued.Unconfirmed
			resp.Response = fmt.Sprintf("%s Use code %s.", decision.Message, issued.Code)

			if decision.Offer.Accepted {
				if err := s.discounts.MarkAccepted(ctx, decision.Offer.ID, *decision.Offer.AcceptedAt); err != nil && !apperror.Is(err, apperror.KindNotFound) {
					s.log.WithError(err).Warn("Failed to mark offer accepted")
				}
			}
			if err := s.producer.PublishCodeIssued(session.ID, issued); err != nil {
				s.log.WithError(err).Warn("Failed to publish code issued event")
			}
		}
	}

	if decision.Finalized {
		accepted := decision.Offer != nil && decision.Offer.Accepted
		if err := s.producer.PublishNegotiationFinalized(session.ID, session.LastOfferPct, accepted); err != nil {
			s.log.WithError(err).Warn("Failed to publish finalize event")
		}
	}

	// Заявлен трейт, верификатор доступен, согласие ещё не спрашивали —
	// спрашиваем один раз; бонус применится после подтверждения.
	if s.factCheck.Enabled() && len(detected) > 0 && session.PendingConsent == nil && session.Status == models.SessionStatusActive {
		top := detected[0]
		if !containsTrait(session.VerifiedTraits, top.Trait) && !containsTrait(session.DeclinedTraits, top.Trait) {
			session.PendingConsent = &models.ConsentRequest{
				Trait:   top.Trait,
				Query:   fmt.Sprintf("%s %s", top.Trait, message),
				Prompt:  fmt.Sprintf("You claim to be a %s — mind if I verify that on the web? (yes/no)", top.Trait),
				AskedAt: time.Now(),
			}
			resp.ConsentRequest = session.PendingConsent.Prompt
		}
	}

	session.AppendMessage(models.RoleAssistant, resp.Response)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	return resp, nil
}

// handleConsentGranted запускает факт-чек по согласованному запросу.
func (s *ChatService) handleConsentGranted(ctx context.Context, session *models.NegotiationSession, pending *models.ConsentRequest) (*models.ChatResponse, error) {
	resp := &models.ChatResponse{SessionID: session.ID}

	result, err := s.factCheck.Verify(ctx, pending.Query)
	if err != nil {
		s.log.WithError(err).WithField("session_id", session.ID).Warn("Fact check failed")
		resp.Response = "Couldn't check that right now. I'll take your word for it — with a pinch of salt."
	} else if result.Verified {
		session.VerifiedTraits = append(session.VerifiedTraits, pending.Trait)
		session.AppendMessage(models.RoleSystem, fmt.Sprintf("verified trait: %s (%s)", pending.Trait, result.Summary))
		resp.Response = fmt.Sprintf("Checks out. A real %s gets a warmer welcome here — keep talking.", pending.Trait)
	} else {
		resp.Response = "Hm, couldn't back that up. Prices are what they are, then."
	}

	session.AppendMessage(models.RoleAssistant, resp.Response)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return resp, nil
}

// handleConsentDeclined отвечает на явный отказ от проверки.
func (s *ChatService) handleConsentDeclined(ctx context.Context, session *models.NegotiationSession) (*models.ChatResponse, error) {
	resp := &models.ChatResponse{
		Response:  "No problem, I won't look that up. Where were we?",
		SessionID: session.ID,
	}
	session.AppendMessage(models.RoleAssistant, resp.Response)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return resp, nil
}

// endedResponse — вежливый ответ по завершённой или истёкшей сессии.
func (s *ChatService) endedResponse(ctx context.Context, session *models.NegotiationSession) (*models.ChatResponse, error) {
	resp := &models.ChatResponse{
		Response:  "This negotiation has wrapped up. Start a fresh chat if you want another round.",
		SessionID: session.ID,
	}

	// Код из принятого предложения дублируем, чтобы покупатель его не потерял.
	for i := len(session.Offers) - 1; i >= 0; i-- {
		if session.Offers[i].Code != "" {
			resp.DiscountCode = session.Offers[i].Code
			resp.DiscountPct = session.Offers[i].Pct
			resp.Unconfirmed = session.Offers[i].Unconfirmed
			break
		}
	}

	session.AppendMessage(models.RoleAssistant, resp.Response)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return resp, nil
}

// traitBonus: с включённым верификатором бонус дают только подтверждённые
// трейты; без него — заявленные, взвешенные уверенностью.
func (s *ChatService) traitBonus(session *models.NegotiationSession, detected []TraitMatch) float64 {
	if s.factCheck.Enabled() {
		return s.traits.BonusFor(session.VerifiedTraits)
	}
	return s.traits.DiscountBonus(detected)
}

func appendTrait(traits []string, trait string) []string {
	if containsTrait(traits, trait) {
		return traits
	}
	return append(traits, trait)
}

func traitNames(matches []TraitMatch) []string {
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m.Trait)
	}
	return names
}

func containsTrait(traits []string, trait string) bool {
	for _, t := range traits {
		if t == trait {
			return true
		}
	}
	return false
}

var consentWords = []string{"yes", "y", "yeah", "yep", "sure", "ok", "okay", "go ahead"}

var declineWords = []string{"no", "n", "nope", "nah", "no thanks", "no thank you", "rather not"}

func isConsent(message string) bool {
	return matchesAnswer(message, consentWords)
}

func isDecline(message string) bool {
	return matchesAnswer(message, declineWords)
}

func matchesAnswer(message string, words []string) bool {
	text := strings.ToLower(strings.TrimSpace(message))
	for _, w := range words {
		if text == w {
			return true
		}
	}
	return false
}
