package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-desk/internal/status"
	"support-desk/models"
)

func TestVoiceClipName(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, "voice/1772355600000_u1.webm", VoiceClipName(at, "u1"))
}

func TestChecksum(t *testing.T) {
	a := Checksum([]byte("clip"))

	assert.Len(t, a, 64)
	assert.Equal(t, a, Checksum([]byte("clip")))
	assert.NotEqual(t, a, Checksum([]byte("clip2")))
}

func TestMessageService_ListOldestFirstAndScoped(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tk := e.ticket(t, e.company, "VPN down")

	_, err := e.messages.PostText(ctx, e.company, tk.ID, "first")
	require.NoError(t, err)
	e.clock.Advance(time.Second)
	_, err = e.messages.PostText(ctx, e.admin, tk.ID, "second")
	require.NoError(t, err)

	msgs, err := e.messages.List(ctx, e.company, tk.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Body)
	assert.Equal(t, "second", msgs[1].Body)

	_, err = e.messages.List(ctx, e.other, tk.ID)
	assert.ErrorIs(t, err, status.ErrNotFound)
}

func TestMessageService_PostVoiceRejectsEmptyAudio(t *testing.T) {
	e := newEnv(t)
	tk := e.ticket(t, e.company, "VPN down")

	_, err := e.messages.PostVoice(context.Background(), e.company, tk.ID, epoch, nil)

	assert.ErrorIs(t, err, status.ErrEmptyRecording)
}

func TestMessageService_PostVoiceStoresChecksum(t *testing.T) {
	e := newEnv(t)
	tk := e.ticket(t, e.company, "VPN down")
	audio := []byte("webm-bytes")

	m, err := e.messages.PostVoice(context.Background(), e.company, tk.ID, epoch, audio)
	require.NoError(t, err)

	assert.Equal(t, models.MessageVoice, m.Kind)
	assert.Equal(t, Checksum(audio), m.Checksum)
	assert.Contains(t, m.Body, "https://files.test/")
}
