package services

import (
	"sort"
	"strings"

	"bouncer-system/internal/config"
)

// TraitMatch — один обнаруженный ценный трейт покупателя.
type TraitMatch struct {
	Trait      string  `json:"trait"`
	Confidence float64 `json:"confidence"`
	Matches    int     `json:"matches"`
}

// TraitDetector ищет в диалоге заявки на ценные трейты (инфлюенсер, владелец
// салона и т.п.) по ключевым словам из merchant-конфига.
type TraitDetector struct {
	merchant *config.MerchantConfig
}

// NewTraitDetector создаёт детектор трейтов.
func NewTraitDetector(merchant *config.MerchantConfig) *TraitDetector {
	return &TraitDetector{merchant: merchant}
}

// DetectTraits возвращает найденные трейты, отсортированные по уверенности.
func (d *TraitDetector) DetectTraits(conversationText string) []TraitMatch {
	text := strings.ToLower(conversationText)

	var detected []TraitMatch
	for name, trait := range d.merchant.ValuableTraits {
		if len(trait.Keywords) == 0 {
			continue
		}

		matches := 0
		for _, keyword := range trait.Keywords {
			if strings.Contains(text, strings.ToLower(keyword)) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}

		confidence := float64(matches) / float64(len(trait.Keywords)) * 2
		if confidence > 1.0 {
			confidence = 1.0
		}

		detected = append(detected, TraitMatch{
			Trait:      name,
			Confidence: confidence,
			Matches:    matches,
		})
	}

	sort.Slice(detected, func(i, j int) bool {
		if detected[i].Confidence != detected[j].Confidence {
			return detected[i].Confidence > detected[j].Confidence
		}
		return detected[i].Trait < detected[j].Trait
	})

	return detected
}

// DiscountBonus считает суммарную добавку к скидке за трейты,
// взвешенную уверенностью и ограниченную max_trait_bonus_pct.
func (d *TraitDetector) DiscountBonus(traits []TraitMatch) float64 {
	if len(traits) == 0 {
		return 0
	}

	total := 0.0
	for _, match := range traits {
		cfg, ok := d.merchant.ValuableTraits[match.Trait]
		if !ok {
			continue
		}
		total += cfg.DiscountBonusPct * match.Confidence
	}

	if d.merchant.MaxTraitBonusPct > 0 && total > d.merchant.MaxTraitBonusPct {
		total = d.merchant.MaxTraitBonusPct
	}
	return total
}

// BonusFor считает добавку только по перечисленным трейтам (например,
// подтверждённым факт-чеком) с полной уверенностью.
func (d *TraitDetector) BonusFor(traitNames []string) float64 {
	total := 0.0
	for _, name := range traitNames {
		if cfg, ok := d.merchant.ValuableTraits[name]; ok {
			total += cfg.DiscountBonusPct
		}
	}
	if d.merchant.MaxTraitBonusPct > 0 && total > d.merchant.MaxTraitBonusPct {
		total = d.merchant.MaxTraitBonusPct
	}
	return total
}
