package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/markb/bcon/internal/model"
	"github.com/markb/bcon/internal/store"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown email or a
// wrong password. The two cases are not distinguished.
var ErrInvalidCredentials = errors.New("admin: invalid credentials")

// Service manages administrator accounts on top of a credential store.
type Service struct {
	accounts store.Accounts
}

func NewService(accounts store.Accounts) *Service {
	return &Service{accounts: accounts}
}

// Register creates an account. A taken email yields store.ErrConflict,
// whether it is caught by the lookup or by the store's unique index.
func (s *Service) Register(ctx context.Context, r model.Registration) (*model.Account, error) {
	email := model.NormalizeEmail(r.Email)

	_, err := s.accounts.AccountByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, store.ErrConflict
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	hash, err := HashPassword(r.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := model.Account{
		ID:           model.NewID(),
		Email:        email,
		Name:         strings.TrimSpace(r.Name),
		PasswordHash: hash,
		CreatedAt:    model.Now(),
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return &account, nil
}

// Authenticate returns the account matching the credentials.
func (s *Service) Authenticate(ctx context.Context, c model.Credentials) (*model.Account, error) {
	account, err := s.accounts.AccountByEmail(ctx, model.NormalizeEmail(c.Email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if !CheckPassword(c.Password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.Account, error) {
	return s.accounts.AccountByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]model.Account, error) {
	return s.accounts.ListAccounts(ctx)
}

// Delete removes the account with the given email. Tokens already issued to
// it stop resolving on their next use.
func (s *Service) Delete(ctx context.Context, email string) error {
	account, err := s.accounts.AccountByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		return err
	}
	return s.accounts.DeleteAccount(ctx, account.ID)
}

// ChangePassword sets a new password for the account with the given email.
func (s *Service) ChangePassword(ctx context.Context, email, password string) error {
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	account, err := s.accounts.AccountByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		return err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.accounts.UpdatePasswordHash(ctx, account.ID, hash)
}
