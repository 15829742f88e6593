// Package store persists administrator accounts and site content.
//
// Three backends implement Store:
//   - memory: process-local maps, used for development and tests
//   - postgres: pgx connection pool over one table per record type
//   - mongo: one collection per record type, documents keyed by "id"
//
// Every backend enforces email and slug uniqueness itself (unique index or
// locked check), so a duplicate insert that races past a caller's pre-check
// still fails with ErrConflict.
package store

import (
	"context"
	"errors"

	"github.com/markb/bcon/internal/model"
)

var (
	ErrNotFound = errors.New("store: record not found")
	ErrConflict = errors.New("store: unique constraint violated")
)

// Result caps for list queries.
const (
	LimitPublicPosts        = 100
	LimitAdminPosts         = 100
	LimitPublicTestimonials = 50
	LimitAdminTestimonials  = 100
	LimitPublicProjects     = 50
	LimitFeaturedProjects   = 10
	LimitAdminProjects      = 100
	LimitContacts           = 200
)

type PostFilter struct {
	PublishedOnly bool
	Limit         int
}

type TestimonialFilter struct {
	ActiveOnly bool
	Limit      int
}

type ProjectFilter struct {
	FeaturedOnly bool
	Limit        int
}

// Accounts is credential store access for administrators.
type Accounts interface {
	CreateAccount(ctx context.Context, a model.Account) error
	AccountByID(ctx context.Context, id string) (*model.Account, error)
	AccountByEmail(ctx context.Context, email string) (*model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	DeleteAccount(ctx context.Context, id string) error
}

type BlogPosts interface {
	CreatePost(ctx context.Context, p model.BlogPost) error
	PostByID(ctx context.Context, id string) (*model.BlogPost, error)
	PostBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.BlogPost, error)
	ListPosts(ctx context.Context, f PostFilter) ([]model.BlogPost, error)
	// UpdatePost replaces the stored post with the same ID.
	UpdatePost(ctx context.Context, p model.BlogPost) error
	DeletePost(ctx context.Context, id string) error
}

type Testimonials interface {
	CreateTestimonial(ctx context.Context, t model.Testimonial) error
	ListTestimonials(ctx context.Context, f TestimonialFilter) ([]model.Testimonial, error)
	DeleteTestimonial(ctx context.Context, id string) error
}

type Projects interface {
	CreateProject(ctx context.Context, p model.Project) error
	ListProjects(ctx context.Context, f ProjectFilter) ([]model.Project, error)
	DeleteProject(ctx context.Context, id string) error
}

type Contacts interface {
	CreateContact(ctx context.Context, c model.ContactMessage) error
	ListContacts(ctx context.Context, limit int) ([]model.ContactMessage, error)
	MarkContactRead(ctx context.Context, id string) error
	DeleteContact(ctx context.Context, id string) error
}

// Store is the full persistence surface used by the API.
type Store interface {
	Accounts
	BlogPosts
	Testimonials
	Projects
	Contacts

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

func limitOr(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}
