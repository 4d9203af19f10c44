package models

// ChatRequest представляет входящее сообщение чата.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse представляет ответ бота.
type ChatResponse struct {
	Response       string  `json:"response"`
	SessionID      string  `json:"session_id"`
	DiscountCode   string  `json:"discount_code,omitempty"`
	DiscountPct    float64 `json:"discount_pct,omitempty"`
	Unconfirmed    bool    `json:"unconfirmed,omitempty"`
	ConsentRequest string  `json:"consent_request,omitempty"`
}
