package services

import (
	"strings"

	"bouncer-system/internal/models"
)

// IntentClassifier классифицирует реплику пользователя в одно из четырёх
// намерений. Политика торга не зависит от способа классификации: сюда можно
// подставить LLM-классификатор с тем же контрактом.
type IntentClassifier interface {
	Classify(message string, session *models.NegotiationSession) models.Intent
}

// KeywordIntentClassifier — простой классификатор по ключевым словам.
type KeywordIntentClassifier struct{}

// NewKeywordIntentClassifier создаёт классификатор.
func NewKeywordIntentClassifier() *KeywordIntentClassifier {
	return &KeywordIntentClassifier{}
}

var acceptPhrases = []string{
	"i'll take", "ill take", "i will take", "i accept", "accept",
	"sounds good", "sold", "deal", "done", "take it", "yes",
}

var pushBackPhrases = []string{
	"too expensive", "still too", "not enough", "can you do better",
	"come on", "that's low", "thats low", "go higher", "more than that",
	"you can do better", "sweeten", "is that all", "no way", "nope",
}

var discountPhrases = []string{
	"discount", "deal", "cheaper", "lower price", "reduce", "haggle",
	"negotiate", "offer", "promo", "coupon", "code", "save money",
	"too expensive", "price", "cost", "afford",
}

// Classify учитывает состояние сессии: «deal» до первого предложения —
// запрос скидки, после — согласие.
func (c *KeywordIntentClassifier) Classify(message string, session *models.NegotiationSession) models.Intent {
	text := strings.ToLower(message)

	if session.HasOffer() {
		if containsAny(text, acceptPhrases) {
			return models.IntentAccept
		}
		if containsAny(text, pushBackPhrases) || containsAny(text, discountPhrases) {
			return models.IntentPushBack
		}
		return models.IntentOther
	}

	if containsAny(text, discountPhrases) {
		return models.IntentRequestDiscount
	}

	return models.IntentOther
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
