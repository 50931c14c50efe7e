package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"support-desk/internal/backend"
	"support-desk/internal/status"
	"support-desk/models"
)

type AuthService struct {
	auth   backend.Auth
	logger *slog.Logger
}

func NewAuthService(auth backend.Auth, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{auth: auth, logger: logger}
}

type SignUpInput struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	Organization string `json:"organization"`
}

func (in *SignUpInput) normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	in.Organization = strings.TrimSpace(in.Organization)
}

func (in SignUpInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&in.Name, validation.Required, validation.RuneLength(2, 100)),
		validation.Field(&in.Organization, validation.Required, validation.RuneLength(2, 100)),
	)
}

type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in SignInInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Password, validation.Required),
	)
}

// ValidateProfile checks a trimmed profile.
func ValidateProfile(p models.Profile) error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.RuneLength(2, 100)),
		validation.Field(&p.Organization, validation.Required, validation.RuneLength(2, 100)),
	)
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", status.ErrInvalidInput, err)
}

// SignUp registers a company. The role is fixed; callers cannot choose it.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (models.Actor, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return models.Actor{}, invalid(err)
	}

	actor, err := s.auth.SignUp(ctx, in.Email, in.Password, models.Profile{Name: in.Name, Organization: in.Organization})
	if err != nil {
		return models.Actor{}, err
	}
	s.logger.Info("company signed up", "actor_id", actor.ID)
	return actor, nil
}

// CreateAdmin provisions an admin account from operator tooling.
func (s *AuthService) CreateAdmin(ctx context.Context, in SignUpInput) (models.Actor, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return models.Actor{}, invalid(err)
	}

	actor, err := s.auth.CreateAdmin(ctx, in.Email, in.Password, models.Profile{Name: in.Name, Organization: in.Organization})
	if err != nil {
		return models.Actor{}, err
	}
	s.logger.Info("admin created", "actor_id", actor.ID)
	return actor, nil
}

func (s *AuthService) SignIn(ctx context.Context, in SignInInput) (models.Actor, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := in.Validate(); err != nil {
		return models.Actor{}, invalid(err)
	}
	return s.auth.SignIn(ctx, in.Email, in.Password)
}

// UpdateProfile trims and validates p before saving it.
func (s *AuthService) UpdateProfile(ctx context.Context, actorID string, p models.Profile) (models.Actor, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Organization = strings.TrimSpace(p.Organization)
	if err := ValidateProfile(p); err != nil {
		return models.Actor{}, invalid(err)
	}
	return s.auth.UpdateProfile(ctx, actorID, p)
}

func (s *AuthService) Actor(ctx context.Context, id string) (models.Actor, error) {
	return s.auth.Actor(ctx, id)
}
