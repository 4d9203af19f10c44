package models

import (
	"strings"
	"testing"
	"time"
)

func TestNewNegotiationSession_GeneratesID(t *testing.T) {
	s := NewNegotiationSession("")
	if s.ID == "" {
		t.Fatalf("expected generated id")
	}
	if s.Status != SessionStatusActive {
		t.Fatalf("expected active status, got %s", s.Status)
	}

	s = NewNegotiationSession("custom-id")
	if s.ID != "custom-id" {
		t.Fatalf("expected provided id kept, got %s", s.ID)
	}
}

func TestLiveOffer(t *testing.T) {
	s := NewNegotiationSession("")
	if s.LiveOffer() != nil {
		t.Fatalf("expected no live offer for empty session")
	}

	s.Offers = append(s.Offers, Offer{Pct: 8, ExpiresAt: time.Now().Add(time.Minute)})
	if live := s.LiveOffer(); live == nil || live.Pct != 8 {
		t.Fatalf("expected live offer 8, got %+v", live)
	}

	// Истёкшее предложение больше не принимается
	s.Offers = append(s.Offers, Offer{Pct: 11, ExpiresAt: time.Now().Add(-time.Minute)})
	if s.LiveOffer() != nil {
		t.Fatalf("expected expired offer to be dead")
	}
}

func TestAppendMessage_CapsHistory(t *testing.T) {
	s := NewNegotiationSession("")
	for i := 0; i < 60; i++ {
		s.AppendMessage(RoleUser, "msg")
	}
	if len(s.History) != 50 {
		t.Fatalf("expected history capped at 50, got %d", len(s.History))
	}
}

func TestRecentContext(t *testing.T) {
	s := NewNegotiationSession("")
	s.AppendMessage(RoleUser, "first")
	s.AppendMessage(RoleSystem, "internal note")
	s.AppendMessage(RoleAssistant, "second")
	s.AppendMessage(RoleUser, "third")

	ctx := s.RecentContext(10)
	if !strings.Contains(ctx, "first") || !strings.Contains(ctx, "third") {
		t.Fatalf("expected user messages in context: %q", ctx)
	}
	if strings.Contains(ctx, "internal note") {
		t.Fatalf("system messages must be excluded: %q", ctx)
	}

	ctx = s.RecentContext(1)
	if strings.Contains(ctx, "first") {
		t.Fatalf("expected only last message, got %q", ctx)
	}
}
