package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-desk/internal/backend"
	"support-desk/internal/clock"
	"support-desk/utils"
)

type published struct {
	channel string
	message map[string]any
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, message map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{channel: channel, message: message})
	return p.err
}

func (p *recordingPublisher) channels() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.sent))
	for _, s := range p.sent {
		out = append(out, s.channel)
	}
	return out
}

func TestChannels(t *testing.T) {
	tests := []struct {
		name string
		ev   backend.ChangeEvent
		want []string
	}{
		{
			name: "ticket change reaches admins and the owning company",
			ev:   backend.ChangeEvent{Collection: backend.CollectionTickets, TicketID: "T1", CompanyID: "c1"},
			want: []string{"admins", "user-c1"},
		},
		{
			name: "message change reaches the ticket channel",
			ev:   backend.ChangeEvent{Collection: backend.CollectionMessages, TicketID: "T1", CompanyID: "c1"},
			want: []string{"ticket-T1"},
		},
		{
			name: "unknown collection",
			ev:   backend.ChangeEvent{Collection: "users"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Channels(tt.ev))
		})
	}
}

func TestNotifier_Notify(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewNotifier(pub, nil)

	err := n.Notify(context.Background(), backend.ChangeEvent{Collection: backend.CollectionMessages, TicketID: "T1"})
	require.NoError(t, err)

	require.Len(t, pub.sent, 1)
	assert.Equal(t, "ticket-T1", pub.sent[0].channel)
	assert.Equal(t, map[string]any{"type": "messages_changed", "ticket_id": "T1"}, pub.sent[0].message)
}

func TestNotifier_NotifyJoinsErrors(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("403 forbidden")}
	n := NewNotifier(pub, nil)

	err := n.Notify(context.Background(), backend.ChangeEvent{Collection: backend.CollectionTickets, TicketID: "T1", CompanyID: "c1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publishing to admins")
	assert.Contains(t, err.Error(), "publishing to user-c1")
}

func TestPubNubPublisher_BreakerOpensOnOutage(t *testing.T) {
	fc := clock.Fake(time.Unix(0, 0))
	breaker := utils.NewCircuitBreaker("pubnub",
		utils.WithBreakerClock(fc),
		utils.WithTripAfter(3, 0.5),
		utils.WithOpenTimeout(time.Second),
	)

	calls := 0
	p := newPubNubPublisher(breaker, func(channel string, message map[string]any) error {
		calls++
		return errors.New("pubnub unreachable")
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		assert.Error(t, p.Publish(ctx, "admins", nil))
	}
	assert.ErrorIs(t, p.Publish(ctx, "admins", nil), utils.ErrCircuitOpen)
	assert.Equal(t, 3, calls)

	fc.Advance(2 * time.Second)
	assert.Error(t, p.Publish(ctx, "admins", nil))
	assert.Equal(t, 4, calls, "one probe after the open timeout")
}

func TestPubNubPublisher_CancelledContext(t *testing.T) {
	p := newPubNubPublisher(nil, func(string, map[string]any) error {
		t.Fatal("send must not run")
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, "admins", nil), context.Canceled)
}
