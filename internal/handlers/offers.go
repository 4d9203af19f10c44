package handlers

import (
	"net/http"
	"strconv"

	"bouncer-system/internal/logger"
)

// OffersHandler обрабатывает просмотр выданных предложений.
type OffersHandler struct {
	offers OffersLister
	log    *logger.Logger
}

// NewOffersHandler создаёт новый обработчик предложений.
func NewOffersHandler(offers OffersLister, log *logger.Logger) *OffersHandler {
	return &OffersHandler{
		offers: offers,
		log:    log,
	}
}

// ListOffers возвращает выданные предложения, опционально только
// неподтверждённые в Shopify (?unconfirmed=true).
func (h *OffersHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	unconfirmedOnly := false
	if u := r.URL.Query().Get("unconfirmed"); u != "" {
		parsed, err := strconv.ParseBool(u)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "unconfirmed must be a boolean")
			return
		}
		unconfirmedOnly = parsed
	}

	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	offers, err := h.offers.ListOffers(r.Context(), unconfirmedOnly, limit, offset)
	if err != nil {
		h.log.WithError(err).Error("Failed to list offers")
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to list offers")
		return
	}

	writeJSONResponse(w, http.StatusOK, offers)
}
