package api

import (
	"errors"
	"net/http"

	"github.com/markb/bcon/internal/admin"
	"github.com/markb/bcon/internal/log"
	"github.com/markb/bcon/internal/model"
	"github.com/markb/bcon/internal/store"
)

// tokenResponse is returned by register and login.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type meResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// handleRegister creates an administrator and returns a token for it.
//
// POST /api/admin/register
//
// Request body:
//
//	{"email": "admin@bcon.ro", "password": "secret1", "name": "Admin"}
//
// Returns 400 "Email already registered" when the email is taken.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in model.Registration
	if !s.bind(w, r, &in) {
		return
	}

	account, err := s.accounts.Register(r.Context(), in)
	if errors.Is(err, store.ErrConflict) {
		writeError(w, http.StatusBadRequest, "Email already registered")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	log.Info("admin registered", "admin_id", account.ID, "email", account.Email)
	s.issueToken(w, r, account)
}

// handleLogin exchanges credentials for a token.
//
// POST /api/admin/login
//
// Returns 401 "Invalid credentials" for an unknown email or wrong password.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in model.Credentials
	if !s.bind(w, r, &in) {
		return
	}

	account, err := s.accounts.Authenticate(r.Context(), in)
	if errors.Is(err, admin.ErrInvalidCredentials) {
		s.metrics.AuthFailure("invalid_credentials")
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	log.Info("admin logged in", "admin_id", account.ID)
	s.issueToken(w, r, account)
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request, account *model.Account) {
	tok, err := s.tokens.Issue(account.ID, account.Email)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: tok, TokenType: "bearer"})
}

// GET /api/admin/me
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	account, _ := AccountFromContext(r.Context())
	writeJSON(w, http.StatusOK, meResponse{ID: account.ID, Email: account.Email, Name: account.Name})
}
