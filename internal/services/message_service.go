package services

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"support-desk/internal/backend"
	"support-desk/internal/status"
	"support-desk/models"
	"support-desk/monitoring"
)

// MessageService writes chat messages. It is shared by the HTTP API and
// the in-process composer, so the participant and solved-ticket checks
// hold for every client.
type MessageService struct {
	store  backend.Store
	blobs  backend.BlobStore
	logger *slog.Logger
}

func NewMessageService(store backend.Store, blobs backend.BlobStore, logger *slog.Logger) *MessageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageService{store: store, blobs: blobs, logger: logger}
}

// writable returns the ticket if actor may post to it.
func (s *MessageService) writable(ctx context.Context, actor models.Actor, ticketID string) (models.Ticket, error) {
	if ticketID == "" {
		return models.Ticket{}, status.ErrNoTicketSelected
	}
	t, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return models.Ticket{}, err
	}
	if !actor.IsParticipant(t) {
		return models.Ticket{}, fmt.Errorf("ticket %s: %w", ticketID, status.ErrNotFound)
	}
	if t.Solved() {
		return models.Ticket{}, fmt.Errorf("ticket %s: %w", ticketID, status.ErrTicketSolved)
	}
	return t, nil
}

// PostText creates a text message. Whitespace-only bodies are rejected
// with status.ErrEmptyDraft.
func (s *MessageService) PostText(ctx context.Context, actor models.Actor, ticketID, body string) (models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return models.Message{}, status.ErrEmptyDraft
	}
	if _, err := s.writable(ctx, actor, ticketID); err != nil {
		return models.Message{}, err
	}

	m, err := s.store.CreateMessage(ctx, models.NewMessage{
		TicketID: ticketID,
		SenderID: actor.ID,
		Body:     body,
		Kind:     models.MessageText,
	})
	monitoring.TrackMessage(string(models.MessageText), err)
	if err != nil {
		return models.Message{}, fmt.Errorf("sending message: %w", err)
	}
	return m, nil
}

// VoiceClipName is the blob name of a clip captured at capturedAt.
func VoiceClipName(capturedAt time.Time, senderID string) string {
	return fmt.Sprintf("voice/%d_%s.webm", capturedAt.UnixMilli(), senderID)
}

// Checksum is the hex BLAKE2b-256 digest of a voice clip.
func Checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// PostVoice uploads a captured clip and creates a voice message whose
// body is the clip URL. Failed uploads are logged and returned; nothing
// is retried.
func (s *MessageService) PostVoice(ctx context.Context, actor models.Actor, ticketID string, capturedAt time.Time, audio []byte) (models.Message, error) {
	if len(audio) == 0 {
		return models.Message{}, status.ErrEmptyRecording
	}
	if _, err := s.writable(ctx, actor, ticketID); err != nil {
		return models.Message{}, err
	}

	m, err := s.postVoice(ctx, actor, ticketID, capturedAt, audio)
	monitoring.TrackMessage(string(models.MessageVoice), err)
	if err != nil {
		s.logger.Error("voice message failed", "ticket_id", ticketID, "sender_id", actor.ID, "error", err)
		return models.Message{}, err
	}
	return m, nil
}

func (s *MessageService) postVoice(ctx context.Context, actor models.Actor, ticketID string, capturedAt time.Time, audio []byte) (models.Message, error) {
	ref, err := s.blobs.Upload(ctx, VoiceClipName(capturedAt, actor.ID), audio)
	if err != nil {
		return models.Message{}, fmt.Errorf("uploading voice clip: %w", err)
	}
	url, err := s.blobs.URL(ctx, ref)
	if err != nil {
		return models.Message{}, fmt.Errorf("resolving voice clip: %w", err)
	}

	m, err := s.store.CreateMessage(ctx, models.NewMessage{
		TicketID: ticketID,
		SenderID: actor.ID,
		Body:     url,
		Kind:     models.MessageVoice,
		Checksum: Checksum(audio),
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("sending voice message: %w", err)
	}
	return m, nil
}

// List returns a ticket's messages oldest first.
func (s *MessageService) List(ctx context.Context, actor models.Actor, ticketID string) ([]models.Message, error) {
	t, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !actor.CanSee(t) {
		return nil, fmt.Errorf("ticket %s: %w", ticketID, status.ErrNotFound)
	}

	msgs, err := s.store.ListMessages(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	SortOldestFirst(msgs)
	return msgs, nil
}
