package handlers

import (
	"net/http"

	"bouncer-system/internal/logger"
)

// NegotiationsHandler обрабатывает просмотр и завершение сессий торга.
type NegotiationsHandler struct {
	sessions   SessionProvider
	summarizer NegotiationSummarizer
	producer   SessionEventPublisher
	log        *logger.Logger
}

// NewNegotiationsHandler создаёт новый обработчик сессий.
func NewNegotiationsHandler(sessions SessionProvider, summarizer NegotiationSummarizer, producer SessionEventPublisher, log *logger.Logger) *NegotiationsHandler {
	return &NegotiationsHandler{
		sessions:   sessions,
		summarizer: summarizer,
		producer:   producer,
		log:        log,
	}
}

// HandleNegotiation маршрутизирует GET и DELETE по /api/negotiations/{id}.
func (h *NegotiationsHandler) HandleNegotiation(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getNegotiation(w, r)
	case http.MethodDelete:
		h.endNegotiation(w, r)
	default:
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// getNegotiation возвращает сводку торга по сессии.
func (h *NegotiationsHandler) getNegotiation(w http.ResponseWriter, r *http.Request) {
	sessionID, err := extractSessionIDFromPath(r.URL.Path, "/api/negotiations/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get negotiation")
		return
	}

	writeJSONResponse(w, http.StatusOK, h.summarizer.Summary(session))
}

// endNegotiation досрочно завершает сессию.
func (h *NegotiationsHandler) endNegotiation(w http.ResponseWriter, r *http.Request) {
	sessionID, err := extractSessionIDFromPath(r.URL.Path, "/api/negotiations/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.sessions.Expire(r.Context(), sessionID); err != nil {
		writeServiceError(w, h.log, err, "Failed to end negotiation")
		return
	}

	if err := h.producer.PublishSessionExpired(sessionID); err != nil {
		h.log.WithError(err).Warn("Failed to publish session expired event")
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Negotiation ended"})
}
