package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/markb/bcon/internal/model"
	"github.com/markb/bcon/internal/store"
)

type bannerResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// GET /api/
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, bannerResponse{Message: serviceName, Version: serviceVersion})
}

// GET /api/health
//
// Reports "unhealthy" with 503 when the store does not answer a ping.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy"})
}

// handleCreateContact stores a contact form submission.
//
// POST /api/contact
//
// The notification email is sent in the background. Its outcome never
// changes the response: the stored message is returned with 200 either way.
func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var in model.ContactInput
	if !s.bind(w, r, &in) {
		return
	}

	msg := in.NewContact()
	if err := s.store.CreateContact(r.Context(), msg); err != nil {
		s.internalError(w, r, err)
		return
	}

	s.dispatcher.Dispatch(msg)
	writeJSON(w, http.StatusOK, msg)
}

// GET /api/blog
func (s *Server) handlePublicPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.ListPosts(r.Context(), store.PostFilter{PublishedOnly: true, Limit: store.LimitPublicPosts})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// GET /api/blog/{slug}
//
// Unpublished posts are reported as not found.
func (s *Server) handlePublicPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.store.PostBySlug(r.Context(), chi.URLParam(r, "slug"), true)
	if err != nil {
		s.storeError(w, r, err, "Post not found")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// GET /api/testimonials
func (s *Server) handlePublicTestimonials(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListTestimonials(r.Context(), store.TestimonialFilter{ActiveOnly: true, Limit: store.LimitPublicTestimonials})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// GET /api/projects
func (s *Server) handlePublicProjects(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListProjects(r.Context(), store.ProjectFilter{Limit: store.LimitPublicProjects})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// GET /api/projects/featured
func (s *Server) handleFeaturedProjects(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListProjects(r.Context(), store.ProjectFilter{FeaturedOnly: true, Limit: store.LimitFeaturedProjects})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
