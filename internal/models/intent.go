package models

// Intent представляет классифицированное намерение пользователя.
// Классификация — внешний для политики коллаборатор: политика принимает
// готовый Intent и не знает, как он был получен.
type Intent string

const (
	IntentRequestDiscount Intent = "request_discount"
	IntentPushBack        Intent = "push_back"
	IntentAccept          Intent = "accept"
	IntentOther           Intent = "other"
)

// DecisionAction описывает действие, выбранное политикой торга.
type DecisionAction string

const (
	ActionConverse DecisionAction = "converse"
	ActionOffer    DecisionAction = "offer"
	ActionHoldFirm DecisionAction = "hold_firm"
	ActionFinalize DecisionAction = "finalize"
	ActionClarify  DecisionAction = "clarify"
)

// Decision — результат одного решения политики торга.
type Decision struct {
	Action    DecisionAction `json:"action"`
	Message   string         `json:"message"`
	Offer     *Offer         `json:"offer,omitempty"`
	Finalized bool           `json:"finalized"`
}
