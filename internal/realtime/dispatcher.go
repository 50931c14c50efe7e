package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"support-desk/internal/backend"
	"support-desk/models"
	"support-desk/monitoring"
)

const (
	DefaultNotifyTimeout = 5 * time.Second
	DefaultRetryMin      = 500 * time.Millisecond
	DefaultRetryMax      = 30 * time.Second
)

// Dispatcher fans committed writes out to every server instance. Each
// instance refreshes the hub feeds an event touches; instances without
// Redis, or not currently subscribed to it, apply events locally.
type Dispatcher struct {
	tickets  *Hub[models.Ticket]
	messages *Hub[models.Message]

	redis    *redis.Client
	channel  string
	notifier *Notifier
	logger   *slog.Logger

	notifyTimeout time.Duration
	retryMin      time.Duration
	retryMax      time.Duration

	subscribed atomic.Bool
	pending    sync.WaitGroup
}

type DispatcherOption func(*Dispatcher)

// WithRedis routes events through the Redis pub/sub channel.
func WithRedis(client *redis.Client, channel string) DispatcherOption {
	return func(d *Dispatcher) {
		d.redis = client
		d.channel = channel
	}
}

func WithNotifier(n *Notifier) DispatcherOption {
	return func(d *Dispatcher) { d.notifier = n }
}

func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithNotifyTimeout bounds each background push notification.
func WithNotifyTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.notifyTimeout = timeout }
}

// WithRetryBackoff sets the wait between subscription attempts. It
// starts at initial and doubles up to limit.
func WithRetryBackoff(initial, limit time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.retryMin = initial
		d.retryMax = limit
	}
}

func NewDispatcher(tickets *Hub[models.Ticket], messages *Hub[models.Message], opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		tickets:  tickets,
		messages: messages,
		channel:  "support:changes",
		logger:   slog.Default(),

		notifyTimeout: DefaultNotifyTimeout,
		retryMin:      DefaultRetryMin,
		retryMax:      DefaultRetryMax,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Publish implements backend.ChangeSink.
func (d *Dispatcher) Publish(ctx context.Context, ev backend.ChangeEvent) error {
	if d.notifier != nil {
		d.notify(ctx, ev)
	}

	// Without a live subscription nothing delivers the event back to
	// this instance.
	local := d.redis == nil || !d.subscribed.Load()
	if local {
		d.Apply(ctx, ev)
	}
	if d.redis == nil {
		return nil
	}

	payload, err := EncodeEvent(ev)
	if err == nil {
		err = d.redis.Publish(ctx, d.channel, string(payload)).Err()
	}
	if err != nil {
		if !local {
			d.Apply(ctx, ev)
		}
		return fmt.Errorf("publishing change event: %w", err)
	}
	return nil
}

// notify sends push hints off the write path. Each send keeps the
// values of ctx but not its cancellation, and is bounded by the notify
// timeout.
func (d *Dispatcher) notify(ctx context.Context, ev backend.ChangeEvent) {
	d.pending.Add(1)
	go func() {
		defer d.pending.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.notifyTimeout)
		defer cancel()
		if err := d.notifier.Notify(ctx, ev); err != nil {
			d.logger.Warn("push hints not delivered", "collection", ev.Collection, "ticket_id", ev.TicketID, "error", err)
		}
	}()
}

// Wait blocks until every started push notification has finished.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

// Subscribed reports whether Run is currently receiving from Redis.
func (d *Dispatcher) Subscribed() bool {
	return d.subscribed.Load()
}

// Run consumes the Redis channel until ctx is done. A failed or lost
// subscription is retried with exponential backoff; meanwhile Publish
// applies events locally.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.redis == nil {
		<-ctx.Done()
		return nil
	}

	wait := d.retryMin
	for {
		received, err := d.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if received {
			wait = d.retryMin
		}
		d.logger.Warn("change event subscription down", "channel", d.channel, "error", err, "retry_in", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		wait = min(wait*2, d.retryMax)
	}
}

// listen runs one subscription. It reports whether the subscription was
// established before it ended.
func (d *Dispatcher) listen(ctx context.Context) (bool, error) {
	pubsub := d.redis.Subscribe(ctx, d.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return false, fmt.Errorf("subscribing to %s: %w", d.channel, err)
	}
	d.subscribed.Store(true)
	defer d.subscribed.Store(false)
	d.logger.Info("listening for change events", "channel", d.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return true, nil
		case msg, ok := <-ch:
			if !ok {
				return true, errors.New("subscription closed")
			}
			ev, err := DecodeEvent([]byte(msg.Payload))
			if err != nil {
				d.logger.Warn("dropping change event", "error", err)
				continue
			}
			d.Apply(ctx, ev)
		}
	}
}

// Apply refreshes the feeds affected by ev.
func (d *Dispatcher) Apply(ctx context.Context, ev backend.ChangeEvent) {
	var keys []string
	switch ev.Collection {
	case backend.CollectionTickets:
		keys = append(keys, backend.TicketQuery{}.Key())
		if ev.CompanyID != "" {
			keys = append(keys, backend.TicketQuery{CompanyID: ev.CompanyID}.Key())
		}
		for _, key := range keys {
			if err := d.tickets.Refresh(ctx, key); err != nil {
				d.logger.Error("refreshing tickets", "key", key, "error", err)
			}
		}
	case backend.CollectionMessages:
		if err := d.messages.Refresh(ctx, ev.TicketID); err != nil {
			d.logger.Error("refreshing messages", "ticket_id", ev.TicketID, "error", err)
		}
	default:
		d.logger.Warn("ignoring change event", "collection", ev.Collection)
		return
	}
	monitoring.TrackChangeEvent(ev.Collection)
}
