package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/rpineda/aichat-be/internal/auth"
	"github.com/rpineda/aichat-be/internal/services"
)

// ChatHandler handles HTTP requests for a user's chat log.
type ChatHandler struct {
	service services.ChatServiceProvider
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(service services.ChatServiceProvider) *ChatHandler {
	return &ChatHandler{service: service}
}

// ChatPayload defines the structure for new chat messages.
type ChatPayload struct {
	Message string `json:"message" validate:"required"`
}

// New appends the submitted message to the user's chat log, obtains the
// assistant's reply and returns the full updated history.
func (h *ChatHandler) New(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		writeErrorStatus(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	var payload ChatPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErrorStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(payload); err != nil {
		writeErrorStatus(w, http.StatusBadRequest, services.ErrValidation.Error())
		return
	}

	chats, err := h.service.AppendAndComplete(r.Context(), claims.UserID, payload.Message)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Chat completion failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"chats": chats})
}

// AllChats returns the stored chat history in conversation order.
func (h *ChatHandler) AllChats(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		writeErrorStatus(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	chats, err := h.service.ListChats(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "OK", "chats": chats})
}

// Delete clears the user's chat log.
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		writeErrorStatus(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	if err := h.service.ClearChats(r.Context(), claims.UserID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "OK"})
}
