package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/markb/bcon/internal/model"
	"github.com/markb/bcon/internal/store"
)

// Blog

// GET /api/admin/blog
func (s *Server) handleAdminPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.ListPosts(r.Context(), store.PostFilter{Limit: store.LimitAdminPosts})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// GET /api/admin/blog/{id}
func (s *Server) handleAdminPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.store.PostByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, r, err, "Post not found")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// handleCreatePost creates a post authored by the calling administrator.
//
// POST /api/admin/blog
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var in model.BlogPostInput
	if !s.bind(w, r, &in) {
		return
	}

	account, _ := AccountFromContext(r.Context())
	post := in.NewPost(account.Name)

	taken, err := s.slugTaken(r, post.Slug, post.ID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if taken {
		writeError(w, http.StatusBadRequest, "Slug already exists")
		return
	}

	if err := s.store.CreatePost(r.Context(), post); err != nil {
		s.writeSlugError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// handleUpdatePost applies a partial update.
//
// PUT /api/admin/blog/{id}
//
// Only fields present in the body change; updated_at is always bumped.
func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var patch model.BlogPostPatch
	if !s.bind(w, r, &patch) {
		return
	}

	current, err := s.store.PostByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, r, err, "Post not found")
		return
	}

	updated := patch.Apply(*current)
	if updated.Slug != current.Slug {
		taken, err := s.slugTaken(r, updated.Slug, updated.ID)
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		if taken {
			writeError(w, http.StatusBadRequest, "Slug already exists")
			return
		}
	}

	if err := s.store.UpdatePost(r.Context(), updated); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Post not found")
			return
		}
		s.writeSlugError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DELETE /api/admin/blog/{id}
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeletePost(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.storeError(w, r, err, "Post not found")
		return
	}
	writeMessage(w, "Post deleted")
}

// slugTaken reports whether a post other than id already uses slug.
func (s *Server) slugTaken(r *http.Request, slug, id string) (bool, error) {
	existing, err := s.store.PostBySlug(r.Context(), slug, false)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return existing.ID != id, nil
}

func (s *Server) writeSlugError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrConflict) {
		writeError(w, http.StatusBadRequest, "Slug already exists")
		return
	}
	s.internalError(w, r, err)
}

// Contacts

// GET /api/admin/contacts
func (s *Server) handleContacts(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListContacts(r.Context(), store.LimitContacts)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// PUT /api/admin/contacts/{id}/read
func (s *Server) handleMarkContactRead(w http.ResponseWriter, r *http.Request) {
	if err := s.store.MarkContactRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.storeError(w, r, err, "Contact not found")
		return
	}
	writeMessage(w, "Marked as read")
}

// DELETE /api/admin/contacts/{id}
func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteContact(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.storeError(w, r, err, "Contact not found")
		return
	}
	writeMessage(w, "Contact deleted")
}

// Testimonials

func (s *Server) handleAdminTestimonials(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListTestimonials(r.Context(), store.TestimonialFilter{Limit: store.LimitAdminTestimonials})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateTestimonial(w http.ResponseWriter, r *http.Request) {
	var in model.TestimonialInput
	if !s.bind(w, r, &in) {
		return
	}
	t := in.NewTestimonial()
	if err := s.store.CreateTestimonial(r.Context(), t); err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTestimonial(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTestimonial(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.storeError(w, r, err, "Testimonial not found")
		return
	}
	writeMessage(w, "Testimonial deleted")
}

// Projects

func (s *Server) handleAdminProjects(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListProjects(r.Context(), store.ProjectFilter{Limit: store.LimitAdminProjects})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var in model.ProjectInput
	if !s.bind(w, r, &in) {
		return
	}
	p := in.NewProject()
	if err := s.store.CreateProject(r.Context(), p); err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.storeError(w, r, err, "Project not found")
		return
	}
	writeMessage(w, "Project deleted")
}

// Mail capture

// GET /api/admin/mail/captured
func (s *Server) handleCapturedMail(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.capture.Messages())
}
