package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-desk/internal/status"
	"support-desk/models"
)

func TestAuthService_SignUpValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   SignUpInput
	}{
		{"bad email", SignUpInput{Email: "not-an-email", Password: "s3cret-pass", Name: "Ann", Organization: "Initech"}},
		{"short password", SignUpInput{Email: "ann@initech.test", Password: "short", Name: "Ann", Organization: "Initech"}},
		{"short name after trim", SignUpInput{Email: "ann@initech.test", Password: "s3cret-pass", Name: " A ", Organization: "Initech"}},
		{"missing organization", SignUpInput{Email: "ann@initech.test", Password: "s3cret-pass", Name: "Ann"}},
		{"single multibyte rune name", SignUpInput{Email: "li@initech.test", Password: "s3cret-pass", Name: "李", Organization: "Initech"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.auth.SignUp(ctx, tt.in)
			assert.ErrorIs(t, err, status.ErrInvalidInput)
		})
	}
}

func TestAuthService_NameLengthCountsCharacters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	actor, err := e.auth.SignUp(ctx, SignUpInput{Email: "li@initech.test", Password: "s3cret-pass", Name: "李明", Organization: "北京"})
	require.NoError(t, err)
	assert.Equal(t, "李明", actor.Name)

	long := strings.Repeat("李", 100)
	updated, err := e.auth.UpdateProfile(ctx, actor.ID, models.Profile{Name: long, Organization: long})
	require.NoError(t, err)
	assert.Equal(t, long, updated.Name)

	_, err = e.auth.UpdateProfile(ctx, actor.ID, models.Profile{Name: "李", Organization: "北京"})
	assert.ErrorIs(t, err, status.ErrInvalidInput)

	_, err = e.auth.UpdateProfile(ctx, actor.ID, models.Profile{Name: long + "李", Organization: "北京"})
	assert.ErrorIs(t, err, status.ErrInvalidInput)
}

func TestAuthService_SignUpAssignsCompanyRole(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, models.RoleCompany, e.company.Role)
	assert.Equal(t, models.RoleAdmin, e.admin.Role)

	_, err := e.auth.SignUp(context.Background(), SignUpInput{Email: "OPS@acme.test", Password: "s3cret-pass", Name: "Sam", Organization: "ACME"})
	assert.ErrorIs(t, err, status.ErrEmailTaken)
}

func TestAuthService_SignIn(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	actor, err := e.auth.SignIn(ctx, SignInInput{Email: " Ops@Acme.test ", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, e.company.ID, actor.ID)

	_, err = e.auth.SignIn(ctx, SignInInput{Email: "ops@acme.test", Password: "nope-nope"})
	assert.ErrorIs(t, err, status.ErrInvalidCredentials)

	_, err = e.auth.SignIn(ctx, SignInInput{Email: "ops@acme.test"})
	assert.ErrorIs(t, err, status.ErrInvalidInput)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	updated, err := e.auth.UpdateProfile(ctx, e.company.ID, models.Profile{Name: "  Sara K ", Organization: "ACME", DarkMode: true})
	require.NoError(t, err)
	assert.Equal(t, "Sara K", updated.Name)
	assert.True(t, updated.DarkMode)
	assert.Equal(t, models.RoleCompany, updated.Role)

	_, err = e.auth.UpdateProfile(ctx, e.company.ID, models.Profile{Name: "S", Organization: "ACME"})
	assert.ErrorIs(t, err, status.ErrInvalidInput)

	got, err := e.auth.Actor(ctx, e.company.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sara K", got.Name, "rejected update leaves the profile untouched")
}
