// Package api serves the site's HTTP API under /api.
//
// Public routes read published content and accept contact messages. Routes
// under /api/admin, except register and login, pass through the identity
// middleware, which verifies the bearer token and loads the administrator
// account for every request.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/markb/bcon/internal/admin"
	"github.com/markb/bcon/internal/mailcapture"
	"github.com/markb/bcon/internal/metrics"
	"github.com/markb/bcon/internal/notify"
	"github.com/markb/bcon/internal/store"
	"github.com/markb/bcon/internal/token"
)

const (
	serviceName    = "B-CON Consulting API"
	serviceVersion = "1.0.0"

	maxBodyBytes = 1 << 20
)

// CapturedMail lists messages held by a local capture server.
type CapturedMail interface {
	Messages() []mailcapture.Message
}

// Config holds the collaborators the API needs. Store, Accounts and Tokens
// are required.
type Config struct {
	Store      store.Store
	Accounts   *admin.Service
	Tokens     *token.Manager
	Dispatcher *notify.Dispatcher
	Metrics    *metrics.Metrics
	Capture    CapturedMail

	// CORSOrigins lists allowed origins; "*" allows any.
	CORSOrigins []string
}

// Server routes API requests to handlers.
type Server struct {
	store      store.Store
	accounts   *admin.Service
	tokens     *token.Manager
	dispatcher *notify.Dispatcher
	metrics    *metrics.Metrics
	capture    CapturedMail
	origins    []string

	router *chi.Mux
}

func New(cfg Config) *Server {
	m := cfg.Metrics
	if m == nil {
		m = metrics.New()
	}
	s := &Server{
		store:      cfg.Store,
		accounts:   cfg.Accounts,
		tokens:     cfg.Tokens,
		dispatcher: cfg.Dispatcher,
		metrics:    m,
		capture:    cfg.Capture,
		origins:    cfg.CORSOrigins,
		router:     chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all routes.
//
// Public:
//   - GET  /api/, /api/health
//   - POST /api/contact
//   - GET  /api/blog, /api/blog/{slug}
//   - GET  /api/testimonials, /api/projects, /api/projects/featured
//   - POST /api/admin/register, /api/admin/login
//
// Everything else under /api/admin requires a bearer token.
func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(s.corsHandler().Handler)

	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/", s.handleRoot)
		r.Get("/health", s.handleHealth)

		r.Post("/contact", s.handleCreateContact)
		r.Get("/blog", s.handlePublicPosts)
		r.Get("/blog/{slug}", s.handlePublicPost)
		r.Get("/testimonials", s.handlePublicTestimonials)
		r.Get("/projects", s.handlePublicProjects)
		r.Get("/projects/featured", s.handleFeaturedProjects)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)

			r.Group(func(r chi.Router) {
				r.Use(s.authenticate)

				r.Get("/me", s.handleMe)

				r.Get("/blog", s.handleAdminPosts)
				r.Post("/blog", s.handleCreatePost)
				r.Get("/blog/{id}", s.handleAdminPost)
				r.Put("/blog/{id}", s.handleUpdatePost)
				r.Delete("/blog/{id}", s.handleDeletePost)

				r.Get("/contacts", s.handleContacts)
				r.Put("/contacts/{id}/read", s.handleMarkContactRead)
				r.Delete("/contacts/{id}", s.handleDeleteContact)

				r.Get("/testimonials", s.handleAdminTestimonials)
				r.Post("/testimonials", s.handleCreateTestimonial)
				r.Delete("/testimonials/{id}", s.handleDeleteTestimonial)

				r.Get("/projects", s.handleAdminProjects)
				r.Post("/projects", s.handleCreateProject)
				r.Delete("/projects/{id}", s.handleDeleteProject)

				if s.capture != nil {
					r.Get("/mail/captured", s.handleCapturedMail)
				}
			})
		})
	})
}

func (s *Server) corsHandler() *cors.Cors {
	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           int((10 * time.Minute).Seconds()),
	})
}
