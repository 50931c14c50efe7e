package memory

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"support-desk/internal/status"
	"support-desk/models"
)

func (b *Backend) SignUp(ctx context.Context, email, password string, profile models.Profile) (models.Actor, error) {
	return b.register(email, password, profile, models.RoleCompany)
}

func (b *Backend) CreateAdmin(ctx context.Context, email, password string, profile models.Profile) (models.Actor, error) {
	return b.register(email, password, profile, models.RoleAdmin)
}

func (b *Backend) register(email, password string, profile models.Profile, role models.Role) (models.Actor, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return models.Actor{}, fmt.Errorf("hashing password: %w", err)
	}

	email = strings.ToLower(strings.TrimSpace(email))

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, u := range b.users {
		if u.actor.Email == email {
			return models.Actor{}, status.ErrEmailTaken
		}
	}

	actor := models.Actor{
		ID:           b.newID(),
		Email:        email,
		Role:         role,
		Name:         profile.Name,
		Organization: profile.Organization,
		DarkMode:     profile.DarkMode,
	}
	b.users[actor.ID] = &user{actor: actor, passwordHash: hash}
	return actor, nil
}

func (b *Backend) SignIn(ctx context.Context, email, password string) (models.Actor, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, u := range b.users {
		if u.actor.Email != email {
			continue
		}
		if bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) != nil {
			return models.Actor{}, status.ErrInvalidCredentials
		}
		return u.actor, nil
	}
	return models.Actor{}, status.ErrInvalidCredentials
}

func (b *Backend) UpdateProfile(ctx context.Context, actorID string, profile models.Profile) (models.Actor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.users[actorID]
	if !ok {
		return models.Actor{}, fmt.Errorf("user %s: %w", actorID, status.ErrNotFound)
	}
	u.actor.Name = profile.Name
	u.actor.Organization = profile.Organization
	u.actor.DarkMode = profile.DarkMode
	return u.actor, nil
}

func (b *Backend) Actor(ctx context.Context, id string) (models.Actor, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	u, ok := b.users[id]
	if !ok {
		return models.Actor{}, fmt.Errorf("user %s: %w", id, status.ErrNotFound)
	}
	return u.actor, nil
}
