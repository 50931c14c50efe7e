package pbstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"support-desk/internal/backend"
	"support-desk/internal/status"
	"support-desk/models"
)

// Auth manages actors in the users auth collection.
type Auth struct {
	app core.App
}

func NewAuth(app core.App) *Auth {
	return &Auth{app: app}
}

func (a *Auth) SignUp(ctx context.Context, email, password string, profile models.Profile) (models.Actor, error) {
	return a.register(ctx, email, password, profile, models.RoleCompany)
}

func (a *Auth) CreateAdmin(ctx context.Context, email, password string, profile models.Profile) (models.Actor, error) {
	return a.register(ctx, email, password, profile, models.RoleAdmin)
}

func (a *Auth) register(ctx context.Context, email, password string, profile models.Profile, role models.Role) (models.Actor, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	_, err := a.app.FindAuthRecordByEmail(backend.CollectionUsers, email)
	if err == nil {
		return models.Actor{}, status.ErrEmailTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Actor{}, fmt.Errorf("looking up %s: %w", email, err)
	}

	users, err := a.app.FindCachedCollectionByNameOrId(backend.CollectionUsers)
	if err != nil {
		return models.Actor{}, fmt.Errorf("finding users collection: %w", err)
	}

	r := core.NewRecord(users)
	r.SetEmail(email)
	r.SetPassword(password)
	r.Set("role", string(role))
	applyProfile(r, profile)

	if err := a.app.SaveWithContext(ctx, r); err != nil {
		return models.Actor{}, fmt.Errorf("saving user: %w", err)
	}
	return ActorFromRecord(r), nil
}

func applyProfile(r *core.Record, p models.Profile) {
	r.Set("name", p.Name)
	r.Set("organization", p.Organization)
	r.Set("dark_mode", p.DarkMode)
}

func (a *Auth) SignIn(ctx context.Context, email, password string) (models.Actor, error) {
	r, err := a.Record(email)
	if err != nil || !r.ValidatePassword(password) {
		return models.Actor{}, status.ErrInvalidCredentials
	}
	return ActorFromRecord(r), nil
}

// Record returns the auth record of email for building token responses.
func (a *Auth) Record(email string) (*core.Record, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	r, err := a.app.FindAuthRecordByEmail(backend.CollectionUsers, email)
	if err != nil {
		return nil, notFound("user", email, err)
	}
	return r, nil
}

func (a *Auth) UpdateProfile(ctx context.Context, actorID string, profile models.Profile) (models.Actor, error) {
	r, err := a.app.FindRecordById(backend.CollectionUsers, actorID)
	if err != nil {
		return models.Actor{}, notFound("user", actorID, err)
	}

	applyProfile(r, profile)
	if err := a.app.SaveWithContext(ctx, r); err != nil {
		return models.Actor{}, fmt.Errorf("saving profile: %w", err)
	}
	return ActorFromRecord(r), nil
}

func (a *Auth) Actor(ctx context.Context, id string) (models.Actor, error) {
	r, err := a.app.FindRecordById(backend.CollectionUsers, id)
	if err != nil {
		return models.Actor{}, notFound("user", id, err)
	}
	return ActorFromRecord(r), nil
}
