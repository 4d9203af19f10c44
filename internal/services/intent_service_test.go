package services

import (
	"testing"

	"bouncer-system/internal/models"
)

func sessionWithOffer() *models.NegotiationSession {
	session := models.NewNegotiationSession("")
	session.Offers = append(session.Offers, models.Offer{Pct: 8})
	session.LastOfferPct = 8
	return session
}

func TestClassify_NoOffer(t *testing.T) {
	c := NewKeywordIntentClassifier()
	session := models.NewNegotiationSession("")

	tests := []struct {
		message string
		want    models.Intent
	}{
		{"hi there", models.IntentOther},
		{"can I get a discount?", models.IntentRequestDiscount},
		{"this is too expensive for me", models.IntentRequestDiscount},
		{"any chance of a promo code?", models.IntentRequestDiscount},
		{"what are your opening hours", models.IntentOther},
	}

	for _, tt := range tests {
		if got := c.Classify(tt.message, session); got != tt.want {
			t.Fatalf("Classify(%q) = %s, want %s", tt.message, got, tt.want)
		}
	}
}

func TestClassify_WithOffer(t *testing.T) {
	c := NewKeywordIntentClassifier()

	tests := []struct {
		message string
		want    models.Intent
	}{
		{"deal, I'll take it", models.IntentAccept},
		{"sounds good", models.IntentAccept},
		{"that's low, can you do better?", models.IntentPushBack},
		{"still too expensive", models.IntentPushBack},
		{"what colors do you have", models.IntentOther},
	}

	for _, tt := range tests {
		if got := c.Classify(tt.message, sessionWithOffer()); got != tt.want {
			t.Fatalf("Classify(%q) = %s, want %s", tt.message, got, tt.want)
		}
	}
}

// «deal» меняет смысл в зависимости от наличия предложения на столе.
func TestClassify_DealIsContextual(t *testing.T) {
	c := NewKeywordIntentClassifier()

	if got := c.Classify("any deal for me?", models.NewNegotiationSession("")); got != models.IntentRequestDiscount {
		t.Fatalf("deal before offer: got %s", got)
	}
	if got := c.Classify("deal!", sessionWithOffer()); got != models.IntentAccept {
		t.Fatalf("deal after offer: got %s", got)
	}
}
