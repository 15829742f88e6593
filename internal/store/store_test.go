package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markb/bcon/internal/model"
)

// storeFactory returns an empty store for one test.
type storeFactory func(t *testing.T) Store

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store { return NewMemory() })
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	runStoreTests(t, func(t *testing.T) Store {
		ctx := context.Background()
		s, err := OpenPostgres(ctx, url)
		require.NoError(t, err)
		_, err = s.pool.Exec(ctx, `TRUNCATE admin_users, blog_posts, testimonials, projects, contact_messages`)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close(ctx) })
		return s
	})
}

func TestMongoStore(t *testing.T) {
	url := os.Getenv("TEST_MONGO_URL")
	if url == "" {
		t.Skip("TEST_MONGO_URL not set")
	}
	runStoreTests(t, func(t *testing.T) Store {
		ctx := context.Background()
		s, err := OpenMongo(ctx, url, "bcon_test_"+model.NewID()[:8])
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = s.db.Drop(ctx)
			_ = s.Close(ctx)
		})
		return s
	})
}

func runStoreTests(t *testing.T, newStore storeFactory) {
	t.Run("accounts", func(t *testing.T) { testAccounts(t, newStore(t)) })
	t.Run("posts", func(t *testing.T) { testPosts(t, newStore(t)) })
	t.Run("testimonials", func(t *testing.T) { testTestimonials(t, newStore(t)) })
	t.Run("projects", func(t *testing.T) { testProjects(t, newStore(t)) })
	t.Run("contacts", func(t *testing.T) { testContacts(t, newStore(t)) })
}

func at(minutes int) time.Time {
	return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
}

func testAccounts(t *testing.T, s Store) {
	ctx := context.Background()
	a := model.Account{ID: model.NewID(), Email: "admin@bcon.ro", Name: "Admin", PasswordHash: "hash", CreatedAt: at(0)}
	require.NoError(t, s.CreateAccount(ctx, a))

	dup := a
	dup.ID = model.NewID()
	assert.ErrorIs(t, s.CreateAccount(ctx, dup), ErrConflict)

	got, err := s.AccountByEmail(ctx, "admin@bcon.ro")
	require.NoError(t, err)
	assert.Equal(t, a, *got)

	got, err = s.AccountByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Email, got.Email)

	_, err = s.AccountByEmail(ctx, "nobody@bcon.ro")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.UpdatePasswordHash(ctx, a.ID, "new-hash"))
	got, err = s.AccountByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.ErrorIs(t, s.UpdatePasswordHash(ctx, "missing", "x"), ErrNotFound)

	b := model.Account{ID: model.NewID(), Email: "second@bcon.ro", Name: "Second", PasswordHash: "h", CreatedAt: at(5)}
	require.NoError(t, s.CreateAccount(ctx, b))
	list, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)

	require.NoError(t, s.DeleteAccount(ctx, a.ID))
	assert.ErrorIs(t, s.DeleteAccount(ctx, a.ID), ErrNotFound)
	_, err = s.AccountByID(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func post(slug string, published bool, minute int) model.BlogPost {
	return model.BlogPost{
		ID:        model.NewID(),
		Title:     "Title " + slug,
		Slug:      slug,
		Excerpt:   "excerpt for " + slug,
		Content:   "content for " + slug,
		Author:    model.DefaultAuthor,
		Published: published,
		CreatedAt: at(minute),
		UpdatedAt: at(minute),
	}
}

func testPosts(t *testing.T, s Store) {
	ctx := context.Background()
	draft := post("draft", false, 0)
	live := post("live", true, 1)
	newer := post("newer", true, 2)
	for _, p := range []model.BlogPost{draft, live, newer} {
		require.NoError(t, s.CreatePost(ctx, p))
	}

	dup := post("live", false, 3)
	assert.ErrorIs(t, s.CreatePost(ctx, dup), ErrConflict)

	public, err := s.ListPosts(ctx, PostFilter{PublishedOnly: true})
	require.NoError(t, err)
	require.Len(t, public, 2)
	assert.Equal(t, "newer", public[0].Slug)
	assert.Equal(t, "live", public[1].Slug)

	all, err := s.ListPosts(ctx, PostFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := s.ListPosts(ctx, PostFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = s.PostBySlug(ctx, "draft", true)
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := s.PostBySlug(ctx, "draft", false)
	require.NoError(t, err)
	assert.Equal(t, draft, *got)

	got.Published = true
	got.Title = "Updated title"
	got.UpdatedAt = at(10)
	require.NoError(t, s.UpdatePost(ctx, *got))
	reloaded, err := s.PostByID(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated title", reloaded.Title)
	assert.True(t, reloaded.Published)
	assert.Equal(t, draft.CreatedAt, reloaded.CreatedAt)
	assert.Equal(t, at(10), reloaded.UpdatedAt)

	clash := *reloaded
	clash.Slug = "live"
	assert.ErrorIs(t, s.UpdatePost(ctx, clash), ErrConflict)

	missing := post("missing", false, 0)
	assert.ErrorIs(t, s.UpdatePost(ctx, missing), ErrNotFound)

	require.NoError(t, s.DeletePost(ctx, live.ID))
	assert.ErrorIs(t, s.DeletePost(ctx, live.ID), ErrNotFound)
	_, err = s.PostByID(ctx, live.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testTestimonials(t *testing.T, s Store) {
	ctx := context.Background()
	active := model.Testimonial{ID: model.NewID(), ClientName: "Ion", Company: "Acme", Content: "Great", Rating: 5, IsActive: true, CreatedAt: at(0)}
	hidden := model.Testimonial{ID: model.NewID(), ClientName: "Ana", Company: "Beta", Content: "Fine", Rating: 3, IsActive: false, CreatedAt: at(1)}
	require.NoError(t, s.CreateTestimonial(ctx, active))
	require.NoError(t, s.CreateTestimonial(ctx, hidden))

	public, err := s.ListTestimonials(ctx, TestimonialFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, active, public[0])

	all, err := s.ListTestimonials(ctx, TestimonialFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, hidden.ID, all[0].ID)

	require.NoError(t, s.DeleteTestimonial(ctx, hidden.ID))
	assert.ErrorIs(t, s.DeleteTestimonial(ctx, hidden.ID), ErrNotFound)
}

func testProjects(t *testing.T, s Store) {
	ctx := context.Background()
	featured := model.Project{ID: model.NewID(), Title: "ERP", Description: "Rollout", Year: "2024", IsFeatured: true, CreatedAt: at(0)}
	plain := model.Project{ID: model.NewID(), Title: "Audit", Description: "Review", CreatedAt: at(1)}
	require.NoError(t, s.CreateProject(ctx, featured))
	require.NoError(t, s.CreateProject(ctx, plain))

	only, err := s.ListProjects(ctx, ProjectFilter{FeaturedOnly: true, Limit: LimitFeaturedProjects})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, featured, only[0])

	all, err := s.ListProjects(ctx, ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, plain.ID, all[0].ID)

	require.NoError(t, s.DeleteProject(ctx, plain.ID))
	assert.ErrorIs(t, s.DeleteProject(ctx, plain.ID), ErrNotFound)
}

func testContacts(t *testing.T, s Store) {
	ctx := context.Background()
	first := model.ContactMessage{ID: model.NewID(), Name: "Ana", Email: "ana@x.com", Message: "Hello there", CreatedAt: at(0)}
	second := model.ContactMessage{ID: model.NewID(), Name: "Ion", Email: "ion@x.com", Phone: "0722", Message: "Need an offer", CreatedAt: at(1)}
	require.NoError(t, s.CreateContact(ctx, first))
	require.NoError(t, s.CreateContact(ctx, second))

	list, err := s.ListContacts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0])

	require.NoError(t, s.MarkContactRead(ctx, first.ID))
	assert.ErrorIs(t, s.MarkContactRead(ctx, "missing"), ErrNotFound)
	list, err = s.ListContacts(ctx, 0)
	require.NoError(t, err)
	assert.True(t, list[1].IsRead)

	require.NoError(t, s.DeleteContact(ctx, first.ID))
	assert.ErrorIs(t, s.DeleteContact(ctx, first.ID), ErrNotFound)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	p := post("copy", true, 0)
	require.NoError(t, s.CreatePost(ctx, p))

	got, err := s.PostByID(ctx, p.ID)
	require.NoError(t, err)
	got.Title = "mutated"

	again, err := s.PostByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Title, again.Title)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "sqlite"})
	assert.Error(t, err)

	s, err := Open(context.Background(), Options{Driver: DriverMemory})
	require.NoError(t, err)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestDocumentTimestamps(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 123456000, time.UTC)
	assert.Equal(t, "2025-01-02T03:04:05.123456Z", formatTime(ts))
	assert.True(t, ts.Equal(parseTime(formatTime(ts))))

	// Values written with an explicit offset or without one.
	assert.True(t, ts.Equal(parseTime("2025-01-02T03:04:05.123456+00:00")))
	assert.True(t, ts.Equal(parseTime("2025-01-02T03:04:05.123456")))
	assert.True(t, parseTime("garbage").IsZero())

	p := post("doc", true, 0)
	assert.Equal(t, p, toPostDoc(p).model())
}
