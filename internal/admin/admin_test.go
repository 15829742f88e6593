package admin

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markb/bcon/internal/model"
	"github.com/markb/bcon/internal/store"
)

func TestHashPassword(t *testing.T) {
	h1, err := HashPassword("secret1")
	require.NoError(t, err)
	h2, err := HashPassword("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "hashes of the same password must differ")
	assert.True(t, strings.HasPrefix(h1, "$2a$"))
	assert.NotContains(t, h1, "secret1")
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{"match", "secret1", hash, true},
		{"wrong password", "secret2", hash, false},
		{"empty password", "", hash, false},
		{"malformed hash", "secret1", "not-a-hash", false},
		{"empty hash", "secret1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckPassword(tt.password, tt.hash))
		})
	}
}

func newService() (*Service, *store.Memory) {
	mem := store.NewMemory()
	return NewService(mem), mem
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	account, err := svc.Register(ctx, model.Registration{Email: " A@X.com ", Password: "secret1", Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", account.Email)
	assert.Equal(t, "Ana", account.Name)
	assert.NotEqual(t, "secret1", account.PasswordHash)

	got, err := svc.Authenticate(ctx, model.Credentials{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)

	_, err = svc.Authenticate(ctx, model.Credentials{Email: "a@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, model.Credentials{Email: "nobody@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	_, err := svc.Register(ctx, model.Registration{Email: "a@x.com", Password: "secret1", Name: "Ana"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, model.Registration{Email: "A@x.com", Password: "other12", Name: "Other"})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestDeleteAndChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	account, err := svc.Register(ctx, model.Registration{Email: "a@x.com", Password: "secret1", Name: "Ana"})
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(ctx, "a@x.com", "newpass"))
	_, err = svc.Authenticate(ctx, model.Credentials{Email: "a@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, model.Credentials{Email: "a@x.com", Password: "newpass"})
	require.NoError(t, err)

	assert.Error(t, svc.ChangePassword(ctx, "a@x.com", "123"))
	assert.ErrorIs(t, svc.ChangePassword(ctx, "nobody@x.com", "newpass"), store.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, "a@x.com"))
	_, err = svc.Get(ctx, account.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "a@x.com"), store.ErrNotFound)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
