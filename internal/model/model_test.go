package model

import (
	"strings"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldErrors(t *testing.T, err error) validation.Errors {
	t.Helper()
	require.Error(t, err)
	errs, ok := err.(validation.Errors)
	require.True(t, ok, "expected validation.Errors, got %T", err)
	return errs
}

func TestRegistrationValidate(t *testing.T) {
	tests := []struct {
		name       string
		in         Registration
		wantFields []string
	}{
		{"valid", Registration{Email: "a@x.com", Password: "secret1", Name: "Ana"}, nil},
		{"bad email", Registration{Email: "not-an-email", Password: "secret1", Name: "Ana"}, []string{"email"}},
		{"short password", Registration{Email: "a@x.com", Password: "12345", Name: "Ana"}, []string{"password"}},
		{"short name", Registration{Email: "a@x.com", Password: "secret1", Name: "A"}, []string{"name"}},
		{"all missing", Registration{}, []string{"email", "password", "name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			errs := fieldErrors(t, err)
			for _, f := range tt.wantFields {
				assert.Contains(t, errs, f)
			}
			assert.Len(t, errs, len(tt.wantFields))
		})
	}
}

func validPostInput() BlogPostInput {
	return BlogPostInput{
		Title:   "Introduction",
		Slug:    "intro",
		Excerpt: "A short excerpt here",
		Content: strings.Repeat("content ", 10),
	}
}

func TestBlogPostInputValidate(t *testing.T) {
	require.NoError(t, validPostInput().Validate())

	short := validPostInput()
	short.Title = "Hey"
	short.Content = "too short"
	errs := fieldErrors(t, short.Validate())
	assert.Contains(t, errs, "title")
	assert.Contains(t, errs, "content")

	badSlug := validPostInput()
	badSlug.Slug = "Not A Slug!"
	errs = fieldErrors(t, badSlug.Validate())
	assert.Contains(t, errs, "slug")
}

func TestBlogPostInputNewPost(t *testing.T) {
	in := validPostInput()
	in.Slug = "  intro  "

	post := in.NewPost("")
	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "intro", post.Slug)
	assert.Equal(t, DefaultAuthor, post.Author)
	assert.False(t, post.Published)
	assert.Equal(t, post.CreatedAt, post.UpdatedAt)

	named := in.NewPost("Maria")
	assert.Equal(t, "Maria", named.Author)
	assert.NotEqual(t, post.ID, named.ID)
}

func TestBlogPostPatch(t *testing.T) {
	post := validPostInput().NewPost("Maria")

	published := true
	title := "A brand new title"
	patch := BlogPostPatch{Title: &title, Published: &published}
	require.NoError(t, patch.Validate())

	updated := patch.Apply(post)
	assert.Equal(t, title, updated.Title)
	assert.True(t, updated.Published)
	assert.Equal(t, post.Slug, updated.Slug)
	assert.Equal(t, post.Content, updated.Content)
	assert.Equal(t, post.CreatedAt, updated.CreatedAt)
	assert.False(t, updated.UpdatedAt.Before(post.UpdatedAt))

	empty := ""
	errs := fieldErrors(t, BlogPostPatch{Title: &empty}.Validate())
	assert.Contains(t, errs, "title")

	require.NoError(t, BlogPostPatch{}.Validate())
}

func TestTestimonialDefaults(t *testing.T) {
	in := TestimonialInput{ClientName: "Ion", Company: "Acme", Content: "Great work"}
	require.NoError(t, in.Validate())

	tm := in.NewTestimonial()
	assert.Equal(t, DefaultRating, tm.Rating)
	assert.True(t, tm.IsActive)

	inactive := false
	rating := 3
	in.IsActive = &inactive
	in.Rating = &rating
	tm = in.NewTestimonial()
	assert.Equal(t, 3, tm.Rating)
	assert.False(t, tm.IsActive)
}

func TestTestimonialRatingRange(t *testing.T) {
	for _, r := range []int{0, 6, -1} {
		r := r
		in := TestimonialInput{ClientName: "Ion", Company: "Acme", Content: "Great work", Rating: &r}
		errs := fieldErrors(t, in.Validate())
		assert.Contains(t, errs, "rating", "rating %d", r)
	}
}

func TestContactInput(t *testing.T) {
	in := ContactInput{Name: "Ana", Email: "Ana@Example.COM", Message: "Hello, I need an offer."}
	require.NoError(t, in.Validate())

	msg := in.NewContact()
	assert.Equal(t, "ana@example.com", msg.Email)
	assert.False(t, msg.IsRead)
	assert.NotEmpty(t, msg.ID)

	errs := fieldErrors(t, ContactInput{Name: "A", Email: "x", Message: "short"}.Validate())
	assert.Len(t, errs, 3)
}

func TestProjectInput(t *testing.T) {
	errs := fieldErrors(t, ProjectInput{}.Validate())
	assert.Contains(t, errs, "title")
	assert.Contains(t, errs, "description")

	p := ProjectInput{Title: "ERP rollout", Description: "Migration", IsFeatured: true}.NewProject()
	assert.True(t, p.IsFeatured)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		require.Len(t, id, 36)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
