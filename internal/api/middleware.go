package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/markb/bcon/internal/log"
	"github.com/markb/bcon/internal/model"
	"github.com/markb/bcon/internal/store"
	"github.com/markb/bcon/internal/token"
)

type accountKey struct{}

// AccountFromContext returns the administrator attached by the identity
// middleware.
func AccountFromContext(ctx context.Context) (*model.Account, bool) {
	a, ok := ctx.Value(accountKey{}).(*model.Account)
	return a, ok && a != nil
}

// authenticate resolves the bearer token to an administrator account.
//
// Every rejection is a 401 with a WWW-Authenticate challenge. The account is
// loaded on each request, so deleting it revokes its outstanding tokens.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			s.reject(w, "missing_header", "Not authenticated")
			return
		}

		scheme, raw, ok := strings.Cut(header, " ")
		raw = strings.TrimSpace(raw)
		if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
			s.reject(w, "malformed_header", "Invalid authorization header")
			return
		}

		claims, err := s.tokens.Verify(raw)
		if errors.Is(err, token.ErrExpired) {
			s.reject(w, "expired", "Token expired")
			return
		}
		if err != nil {
			log.Debug("token rejected", "error", err, "request_id", middleware.GetReqID(r.Context()))
			s.reject(w, "invalid_token", "Invalid token")
			return
		}

		account, err := s.accounts.Get(r.Context(), claims.Subject)
		if errors.Is(err, store.ErrNotFound) {
			s.reject(w, "unknown_account", "User not found")
			return
		}
		if err != nil {
			s.internalError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), accountKey{}, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) reject(w http.ResponseWriter, reason, detail string) {
	s.metrics.AuthFailure(reason)
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, detail)
}

// accessLog logs one line per request and records request metrics.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			s.metrics.ObserveRequest(r.Method, route, status, elapsed)

			log.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", elapsed.Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
