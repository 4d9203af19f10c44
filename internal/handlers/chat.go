package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"bouncer-system/internal/logger"
	"bouncer-system/internal/models"

	"github.com/google/uuid"
)

const maxMessageLength = 2000

// ChatHandler обрабатывает диалог торга.
type ChatHandler struct {
	chatService ChatService
	log         *logger.Logger
}

// NewChatHandler создаёт новый обработчик чата.
func NewChatHandler(chatService ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		log:         log,
	}
}

// Chat принимает сообщение покупателя и возвращает ответ баунсера.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validateChatRequest(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.chatService.HandleMessage(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to handle chat message")
		return
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

func validateChatRequest(req *models.ChatRequest) error {
	if strings.TrimSpace(req.Message) == "" {
		return fmt.Errorf("message is required")
	}
	if len(req.Message) > maxMessageLength {
		return fmt.Errorf("message must be at most %d characters", maxMessageLength)
	}
	if req.SessionID != "" {
		if _, err := uuid.Parse(req.SessionID); err != nil {
			return fmt.Errorf("session_id must be a valid UUID")
		}
	}
	return nil
}
