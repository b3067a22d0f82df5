package auth_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/amirasaad/walletledger/infra/repository/memory"
	"github.com/amirasaad/walletledger/pkg/domain"
	authsvc "github.com/amirasaad/walletledger/pkg/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *authsvc.Service {
	t.Helper()
	return authsvc.New(memory.NewStore(slog.Default()), slog.Default())
}

func TestRegister_Success(t *testing.T) {
	s := newService(t)

	acc, err := s.Register(context.Background(), "  alice ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", acc.Username)
	assert.True(t, acc.Balance.IsZero())
	assert.NotEqual(t, "s3cret", acc.PasswordHash)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "alice", "one")
	require.NoError(t, err)

	_, err = s.Register(ctx, "alice", "two")
	assert.ErrorIs(t, err, domain.ErrDuplicateUsername)
	assert.Equal(t, "username already exists", err.Error())
}

func TestRegister_Validation(t *testing.T) {
	s := newService(t)
	tests := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "   ", "pw"},
		{"empty password", "bob", ""},
		{"colon in username", "bo:b", "pw"},
		{"long username", strings.Repeat("x", 65), "pw"},
		{"long password", "bob", strings.Repeat("p", 73)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), tt.username, tt.password)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	registered, err := s.Register(ctx, "alice", "s3cret")
	require.NoError(t, err)

	acc, err := s.Authenticate(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, acc.ID)

	_, err = s.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = s.Authenticate(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
