package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"support-desk/internal/backend"
	"support-desk/internal/status"
	"support-desk/models"
	"support-desk/monitoring"
)

type TicketService struct {
	store  backend.Store
	logger *slog.Logger
}

func NewTicketService(store backend.Store, logger *slog.Logger) *TicketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TicketService{store: store, logger: logger}
}

// TicketInput is the ticket form. Empty name and organization fall back
// to the submitting actor's profile.
type TicketInput struct {
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Problem      string `json:"problem"`
}

// Prefill returns the form as first shown to actor.
func Prefill(actor models.Actor) TicketInput {
	return TicketInput{Name: actor.Name, Organization: actor.Organization}
}

func (in TicketInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.RuneLength(2, 100)),
		validation.Field(&in.Organization, validation.Required, validation.RuneLength(2, 100)),
		validation.Field(&in.Problem, validation.Required, validation.RuneLength(1, 5000)),
	)
}

// Create files a ticket for a company actor.
func (s *TicketService) Create(ctx context.Context, actor models.Actor, in TicketInput) (models.Ticket, error) {
	if actor.Role != models.RoleCompany {
		return models.Ticket{}, fmt.Errorf("creating ticket: %w", status.ErrForbidden)
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Organization = strings.TrimSpace(in.Organization)
	in.Problem = strings.TrimSpace(in.Problem)
	if in.Name == "" {
		in.Name = actor.Name
	}
	if in.Organization == "" {
		in.Organization = actor.Organization
	}
	if err := in.Validate(); err != nil {
		return models.Ticket{}, fmt.Errorf("%w: %w", status.ErrInvalidInput, err)
	}

	t, err := s.store.CreateTicket(ctx, models.NewTicket{
		CompanyID:    actor.ID,
		Name:         in.Name,
		Organization: in.Organization,
		Problem:      in.Problem,
	})
	monitoring.TrackTicketOperation("create", err)
	if err != nil {
		return models.Ticket{}, fmt.Errorf("creating ticket: %w", err)
	}

	s.logger.Info("ticket created", "ticket_id", t.ID, "company_id", t.CompanyID)
	return t, nil
}

// MarkSolved closes a ticket. Only admins may solve, and a solved ticket
// stays solved.
func (s *TicketService) MarkSolved(ctx context.Context, actor models.Actor, id string) (models.Ticket, error) {
	if !actor.IsAdmin() {
		return models.Ticket{}, fmt.Errorf("solving ticket %s: %w", id, status.ErrForbidden)
	}

	current, err := s.store.GetTicket(ctx, id)
	if err != nil {
		return models.Ticket{}, err
	}
	if !current.Status.CanTransition(models.TicketSolved) {
		return models.Ticket{}, fmt.Errorf("solving ticket %s: %w", id, status.ErrInvalidTransition)
	}

	t, err := s.store.MarkSolved(ctx, id)
	monitoring.TrackTicketOperation("solve", err)
	if err != nil {
		return models.Ticket{}, fmt.Errorf("solving ticket %s: %w", id, err)
	}

	if !current.Solved() {
		s.logger.Info("ticket solved", "ticket_id", id, "admin_id", actor.ID)
	}
	return t, nil
}

// List returns the actor's tickets after applying f.
func (s *TicketService) List(ctx context.Context, actor models.Actor, f TicketFilter) ([]models.Ticket, error) {
	tickets, err := s.store.ListTickets(ctx, backend.ScopeFor(actor))
	if err != nil {
		return nil, fmt.Errorf("listing tickets: %w", err)
	}
	return FilterTickets(tickets, f), nil
}

// Get returns a ticket the actor may see. Tickets of other companies are
// reported as not found.
func (s *TicketService) Get(ctx context.Context, actor models.Actor, id string) (models.Ticket, error) {
	t, err := s.store.GetTicket(ctx, id)
	if err != nil {
		return models.Ticket{}, err
	}
	if !actor.CanSee(t) {
		return models.Ticket{}, fmt.Errorf("ticket %s: %w", id, status.ErrNotFound)
	}
	return t, nil
}
