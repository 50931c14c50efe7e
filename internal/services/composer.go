package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"support-desk/internal/clock"
	"support-desk/internal/status"
	"support-desk/models"
)

// Recorder owns the capture device. Start acquires it; the returned
// Recording holds it until Stop.
type Recorder interface {
	Start(ctx context.Context) (Recording, error)
}

// Recording is an active capture. Stop releases the device and returns
// the captured audio as one blob. Discard releases the device and drops
// the audio.
type Recording interface {
	Stop() ([]byte, error)
	Discard()
}

// Composer holds the draft for the selected ticket and sends it. Sent
// messages are not inserted locally; they appear once the message
// subscription delivers the next snapshot.
type Composer struct {
	actor    models.Actor
	messages *MessageService
	recorder Recorder
	clock    clock.Clock
	logger   *slog.Logger

	mu         sync.Mutex
	ticketID   string
	draft      string
	recording  Recording
	capturedAt time.Time
}

func NewComposer(actor models.Actor, messages *MessageService, recorder Recorder, clk clock.Clock, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		actor:    actor,
		messages: messages,
		recorder: recorder,
		clock:    clk,
		logger:   logger,
	}
}

// SetTicket points the composer at a ticket. Changing the ticket resets
// the draft and drops an unfinished recording.
func (c *Composer) SetTicket(ticketID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ticketID == ticketID {
		return
	}
	c.ticketID = ticketID
	c.resetLocked()
}

// Reset clears the draft and releases the capture device.
func (c *Composer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Composer) resetLocked() {
	c.draft = ""
	if c.recording != nil {
		c.recording.Discard()
		c.recording = nil
	}
}

func (c *Composer) TicketID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticketID
}

func (c *Composer) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
}

func (c *Composer) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *Composer) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording != nil
}

// SendText sends the draft. A whitespace-only draft sends nothing and is
// left as typed. The draft is cleared only after the backend accepted
// the message, and only if it was not edited in the meantime.
func (c *Composer) SendText(ctx context.Context) (models.Message, error) {
	c.mu.Lock()
	ticketID, draft := c.ticketID, c.draft
	if strings.TrimSpace(draft) == "" {
		c.mu.Unlock()
		return models.Message{}, status.ErrEmptyDraft
	}
	c.mu.Unlock()

	m, err := c.messages.PostText(ctx, c.actor, ticketID, draft)
	if err != nil {
		return models.Message{}, err
	}

	c.mu.Lock()
	if c.ticketID == ticketID && c.draft == draft {
		c.draft = ""
	}
	c.mu.Unlock()
	return m, nil
}

// StartVoice acquires the capture device. If access is refused the
// composer stays idle.
func (c *Composer) StartVoice(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ticketID == "" {
		return status.ErrNoTicketSelected
	}
	if c.recording != nil {
		return status.ErrRecordingActive
	}
	if c.recorder == nil {
		return status.ErrMicrophoneDenied
	}

	rec, err := c.recorder.Start(ctx)
	if err != nil {
		c.logger.Warn("microphone unavailable", "error", err)
		if errors.Is(err, status.ErrMicrophoneDenied) {
			return err
		}
		return fmt.Errorf("%w: %w", status.ErrMicrophoneDenied, err)
	}
	c.recording = rec
	c.capturedAt = c.clock.Now()
	return nil
}

// StopVoice releases the device and sends what was captured.
func (c *Composer) StopVoice(ctx context.Context) (models.Message, error) {
	c.mu.Lock()
	rec, ticketID, capturedAt := c.recording, c.ticketID, c.capturedAt
	c.recording = nil
	c.mu.Unlock()

	if rec == nil {
		return models.Message{}, status.ErrNotRecording
	}

	audio, err := rec.Stop()
	if err != nil {
		c.logger.Error("stopping recording failed", "error", err)
		return models.Message{}, fmt.Errorf("stopping recording: %w", err)
	}
	return c.messages.PostVoice(ctx, c.actor, ticketID, capturedAt, audio)
}

// SendVoice sends audio captured outside the composer.
func (c *Composer) SendVoice(ctx context.Context, audio []byte) (models.Message, error) {
	return c.messages.PostVoice(ctx, c.actor, c.TicketID(), c.clock.Now(), audio)
}

// Close releases the capture device if a recording is still running.
func (c *Composer) Close() {
	c.Reset()
}
