package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"support-desk/internal/backend/memory"
	"support-desk/internal/clock"
	"support-desk/internal/realtime"
	"support-desk/internal/services"
	"support-desk/internal/session"
	"support-desk/internal/tui"
	"support-desk/internal/workspace"
	"support-desk/models"
)

const (
	demoCompanyEmail = "demo@acme.test"
	demoAdminEmail   = "admin@desk.test"
	demoPassword     = "demo-pass-123"
)

type consoleOptions struct {
	email     string
	password  string
	demo      bool
	voiceClip string
}

// newConsoleCommand runs the terminal client, either against this
// instance's data or against an in-memory demo backend.
func newConsoleCommand(srv *server) *cobra.Command {
	var opts consoleOptions
	cmd := &cobra.Command{
		Use:          "console",
		Short:        "Open the terminal support desk",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var (
				deps workspace.Deps
				err  error
			)
			if opts.demo {
				deps, err = demoDeps(ctx, &opts)
			} else {
				deps, err = srv.consoleDeps(ctx)
			}
			if err != nil {
				return err
			}
			deps.Recorder = services.FileRecorder{Path: opts.voiceClip}
			return runConsole(ctx, deps, opts)
		},
	}
	cmd.Flags().StringVar(&opts.email, "email", "", "account email")
	cmd.Flags().StringVar(&opts.password, "password", "", "account password")
	cmd.Flags().BoolVar(&opts.demo, "demo", false, "use an in-memory backend seeded with demo data")
	cmd.Flags().StringVar(&opts.voiceClip, "voice-clip", "voice.webm", "audio file sent as the recording of a voice message")
	return cmd
}

func runConsole(ctx context.Context, deps workspace.Deps, opts consoleOptions) error {
	actor, err := deps.AuthService.SignIn(ctx, services.SignInInput{Email: opts.email, Password: opts.password})
	if err != nil {
		return err
	}

	sess := session.New(actor, deps.Logger)
	defer sess.End()

	updates, notify := tui.Updates()
	ws, err := workspace.Open(ctx, deps, sess, 0, notify)
	if err != nil {
		return err
	}
	return tui.Run(ctx, ws, updates)
}

// consoleDeps serves the console from this instance's database. Writes
// go through the same hooks as the HTTP API, so servers sharing the
// Redis channel see them.
func (srv *server) consoleDeps(ctx context.Context) (workspace.Deps, error) {
	if err := srv.app.RunAllMigrations(); err != nil {
		return workspace.Deps{}, fmt.Errorf("applying migrations: %w", err)
	}

	logger := srv.app.Logger()
	go func() {
		if err := srv.dispatcher.Run(ctx); err != nil {
			logger.Error("change dispatcher stopped", "error", err)
		}
	}()

	return workspace.Deps{
		Store:          srv.store,
		Tickets:        srv.tickets,
		Messages:       srv.messages,
		TicketService:  srv.ticketService,
		MessageService: srv.messageService,
		AuthService:    srv.authService,
		Clock:          clock.Real(),
		Logger:         logger,
		SearchDebounce: srv.cfg.SearchDebounce,
	}, nil
}

// demoDeps builds an in-memory backend with a company, an admin and a
// few tickets. Empty credentials sign in as the demo company.
func demoDeps(ctx context.Context, opts *consoleOptions) (workspace.Deps, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.Real()

	store, err := memory.New(1, memory.WithClock(clk), memory.WithBaseURL("memory://demo"))
	if err != nil {
		return workspace.Deps{}, err
	}
	tickets := realtime.NewHub[models.Ticket]("tickets", logger)
	messages := realtime.NewHub[models.Message]("messages", logger)
	store.SetChangeSink(realtime.NewDispatcher(tickets, messages, realtime.WithLogger(logger)))

	deps := workspace.Deps{
		Store:          store,
		Tickets:        tickets,
		Messages:       messages,
		TicketService:  services.NewTicketService(store, logger),
		MessageService: services.NewMessageService(store, store, logger),
		AuthService:    services.NewAuthService(store, logger),
		Clock:          clk,
		Logger:         logger,
	}
	if err := seedDemo(ctx, deps); err != nil {
		return workspace.Deps{}, fmt.Errorf("seeding demo data: %w", err)
	}

	if opts.email == "" {
		opts.email, opts.password = demoCompanyEmail, demoPassword
	}
	return deps, nil
}

func seedDemo(ctx context.Context, deps workspace.Deps) error {
	company, err := deps.AuthService.SignUp(ctx, services.SignUpInput{
		Email: demoCompanyEmail, Password: demoPassword, Name: "Dana Reyes", Organization: "Acme Logistics",
	})
	if err != nil {
		return err
	}
	admin, err := deps.AuthService.CreateAdmin(ctx, services.SignUpInput{
		Email: demoAdminEmail, Password: demoPassword, Name: "Sam Ortiz", Organization: "Support",
	})
	if err != nil {
		return err
	}

	problems := []string{
		"Invoices export as empty CSV files",
		"Driver app logs out every few minutes",
		"Cannot add a second warehouse address",
	}
	var created []models.Ticket
	for _, problem := range problems {
		t, err := deps.TicketService.Create(ctx, company, services.TicketInput{Problem: problem})
		if err != nil {
			return err
		}
		created = append(created, t)
	}

	if _, err := deps.MessageService.PostText(ctx, company, created[0].ID, "Started after Monday's update."); err != nil {
		return err
	}
	if _, err := deps.MessageService.PostText(ctx, admin, created[0].ID, "Thanks, we are looking into it."); err != nil {
		return err
	}
	_, err = deps.TicketService.MarkSolved(ctx, admin, created[2].ID)
	return err
}
