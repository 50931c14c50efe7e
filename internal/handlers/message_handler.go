package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"support-desk/internal/services"
)

// MaxVoiceBytes caps uploaded voice clips. It matches the file field
// limit of the voice_clips collection.
const MaxVoiceBytes = 25 << 20

type MessageHandler struct {
	messageService *services.MessageService
	actor          ActorFunc
}

func NewMessageHandler(messageService *services.MessageService, actor ActorFunc) *MessageHandler {
	return &MessageHandler{messageService: messageService, actor: actor}
}

// ListMessages returns the chat of a ticket, oldest first.
func (h *MessageHandler) ListMessages(e *core.RequestEvent) error {
	actor, err := h.actor(e)
	if err != nil {
		return apiError(err)
	}

	msgs, err := h.messageService.List(e.Request.Context(), actor, e.Request.PathValue("id"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"items": msgs})
}

type postMessageRequest struct {
	Body string `json:"body"`
}

func (h *MessageHandler) PostMessage(e *core.RequestEvent) error {
	actor, err := h.actor(e)
	if err != nil {
		return apiError(err)
	}

	var req postMessageRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	msg, err := h.messageService.PostText(e.Request.Context(), actor, e.Request.PathValue("id"), req.Body)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusCreated, msg)
}

// PostVoice accepts a multipart form with the recorded clip in "audio"
// and an optional RFC 3339 "captured_at".
func (h *MessageHandler) PostVoice(e *core.RequestEvent) error {
	actor, err := h.actor(e)
	if err != nil {
		return apiError(err)
	}

	e.Request.Body = http.MaxBytesReader(e.Response, e.Request.Body, MaxVoiceBytes+1<<20)
	file, _, err := e.Request.FormFile("audio")
	if err != nil {
		return apis.NewBadRequestError("Missing audio file", err)
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, MaxVoiceBytes+1))
	if err != nil {
		return apis.NewBadRequestError("Failed to read audio file", err)
	}
	if len(audio) > MaxVoiceBytes {
		return apis.NewBadRequestError("Audio file is too large", nil)
	}

	capturedAt := time.Now()
	if raw := e.Request.FormValue("captured_at"); raw != "" {
		if capturedAt, err = time.Parse(time.RFC3339, raw); err != nil {
			return apis.NewBadRequestError("Invalid captured_at", err)
		}
	}

	msg, err := h.messageService.PostVoice(e.Request.Context(), actor, e.Request.PathValue("id"), capturedAt, audio)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusCreated, msg)
}
