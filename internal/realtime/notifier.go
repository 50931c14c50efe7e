package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	pubnub "github.com/pubnub/go/v7"

	"support-desk/internal/backend"
	"support-desk/utils"
)

// Channel names browsers subscribe to for change hints.
const (
	ChannelAdmins = "admins"
)

func CompanyChannel(companyID string) string { return "user-" + companyID }
func TicketChannel(ticketID string) string   { return "ticket-" + ticketID }

// PushPublisher sends a message to a push channel.
type PushPublisher interface {
	Publish(ctx context.Context, channel string, message map[string]any) error
}

type PubNubConfig struct {
	PublishKey   string
	SubscribeKey string
	SecretKey    string
	UserID       string
}

// PubNubPublisher publishes through PubNub behind a circuit breaker so an
// outage of the push service does not slow down writes.
type PubNubPublisher struct {
	breaker *utils.CircuitBreaker
	send    func(channel string, message map[string]any) error
}

func NewPubNubPublisher(cfg PubNubConfig, breaker *utils.CircuitBreaker) (*PubNubPublisher, error) {
	userID := cfg.UserID
	if userID == "" {
		code, err := utils.GenerateCode(4)
		if err != nil {
			return nil, fmt.Errorf("generating pubnub user id: %w", err)
		}
		userID = "support-desk-" + code
	}

	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(userID))
	pnCfg.PublishKey = cfg.PublishKey
	pnCfg.SubscribeKey = cfg.SubscribeKey
	pnCfg.SecretKey = cfg.SecretKey
	pn := pubnub.NewPubNub(pnCfg)

	return newPubNubPublisher(breaker, func(channel string, message map[string]any) error {
		_, _, err := pn.Publish().
			Channel(channel).
			Message(message).
			Execute()
		return err
	}), nil
}

func newPubNubPublisher(breaker *utils.CircuitBreaker, send func(string, map[string]any) error) *PubNubPublisher {
	if breaker == nil {
		breaker = utils.NewCircuitBreaker("pubnub")
	}
	return &PubNubPublisher{breaker: breaker, send: send}
}

func (p *PubNubPublisher) Publish(ctx context.Context, channel string, message map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.breaker.Execute(func() error {
		return p.send(channel, message)
	})
}

// Notifier turns change events into push hints. Clients treat a hint as
// "re-read", the payload never carries document contents.
type Notifier struct {
	pub    PushPublisher
	logger *slog.Logger
}

func NewNotifier(pub PushPublisher, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{pub: pub, logger: logger}
}

// Channels returns the push channels interested in ev.
func Channels(ev backend.ChangeEvent) []string {
	switch ev.Collection {
	case backend.CollectionTickets:
		channels := []string{ChannelAdmins}
		if ev.CompanyID != "" {
			channels = append(channels, CompanyChannel(ev.CompanyID))
		}
		return channels
	case backend.CollectionMessages:
		return []string{TicketChannel(ev.TicketID)}
	default:
		return nil
	}
}

func (n *Notifier) Notify(ctx context.Context, ev backend.ChangeEvent) error {
	message := map[string]any{
		"type":      ev.Collection + "_changed",
		"ticket_id": ev.TicketID,
	}

	var errs []error
	for _, channel := range Channels(ev) {
		if err := n.pub.Publish(ctx, channel, message); err != nil {
			n.logger.Warn("push notification failed", "channel", channel, "error", err)
			errs = append(errs, fmt.Errorf("publishing to %s: %w", channel, err))
		}
	}
	return errors.Join(errs...)
}
