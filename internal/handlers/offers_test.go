package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bouncer-system/internal/models"
)

type stubOffers struct {
	offers          []*models.Offer
	err             error
	unconfirmedOnly bool
	limit, offset   int
}

func (s *stubOffers) ListOffers(ctx context.Context, unconfirmedOnly bool, limit, offset int) ([]*models.Offer, error) {
	s.unconfirmedOnly = unconfirmedOnly
	s.limit = limit
	s.offset = offset
	return s.offers, s.err
}

func TestOffersHandler_List(t *testing.T) {
	stub := &stubOffers{offers: []*models.Offer{{Code: "ABCD2345", Pct: 11, Unconfirmed: true}}}
	h := NewOffersHandler(stub, testLog())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/offers?unconfirmed=true&limit=10&offset=5", nil)
	h.ListOffers(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !stub.unconfirmedOnly || stub.limit != 10 || stub.offset != 5 {
		t.Fatalf("query params not passed: %+v", stub)
	}

	var offers []*models.Offer
	if err := json.NewDecoder(rr.Body).Decode(&offers); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(offers) != 1 || offers[0].Code != "ABCD2345" {
		t.Fatalf("unexpected offers: %+v", offers)
	}
}

func TestOffersHandler_DefaultsPagination(t *testing.T) {
	stub := &stubOffers{}
	h := NewOffersHandler(stub, testLog())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/offers", nil)
	h.ListOffers(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if stub.unconfirmedOnly || stub.limit != 50 || stub.offset != 0 {
		t.Fatalf("unexpected defaults: %+v", stub)
	}
}

func TestOffersHandler_BadUnconfirmedParam(t *testing.T) {
	h := NewOffersHandler(&stubOffers{}, testLog())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/offers?unconfirmed=maybe", nil)
	h.ListOffers(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestOffersHandler_ServiceError(t *testing.T) {
	h := NewOffersHandler(&stubOffers{err: errors.New("db down")}, testLog())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/offers", nil)
	h.ListOffers(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestOffersHandler_MethodNotAllowed(t *testing.T) {
	h := NewOffersHandler(&stubOffers{}, testLog())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/offers", nil)
	h.ListOffers(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}
