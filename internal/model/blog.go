package model

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-slug"
)

// DefaultAuthor is used when a post is created without an author name.
const DefaultAuthor = "B-CON Consulting"

var errSlugFormat = errors.New("must contain only lowercase letters, digits and hyphens")

// BlogPost is an article on the public blog. Slugs are unique.
type BlogPost struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Excerpt   string    `json:"excerpt"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url"`
	Category  string    `json:"category"`
	Author    string    `json:"author"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BlogPostInput creates a post.
type BlogPostInput struct {
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Excerpt   string `json:"excerpt"`
	Content   string `json:"content"`
	ImageURL  string `json:"image_url"`
	Category  string `json:"category"`
	Published bool   `json:"published"`
}

func (in BlogPostInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(5, 0)),
		validation.Field(&in.Slug, validation.Required, validation.Length(3, 0), validation.By(slugRule)),
		validation.Field(&in.Excerpt, validation.Required, validation.Length(10, 0)),
		validation.Field(&in.Content, validation.Required, validation.Length(50, 0)),
	)
}

// NewPost builds a post from a validated input.
func (in BlogPostInput) NewPost(author string) BlogPost {
	if strings.TrimSpace(author) == "" {
		author = DefaultAuthor
	}
	now := Now()
	return BlogPost{
		ID:        NewID(),
		Title:     in.Title,
		Slug:      strings.TrimSpace(in.Slug),
		Excerpt:   in.Excerpt,
		Content:   in.Content,
		ImageURL:  in.ImageURL,
		Category:  in.Category,
		Author:    author,
		Published: in.Published,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// BlogPostPatch is a partial update; nil fields are left unchanged.
type BlogPostPatch struct {
	Title     *string `json:"title"`
	Slug      *string `json:"slug"`
	Excerpt   *string `json:"excerpt"`
	Content   *string `json:"content"`
	ImageURL  *string `json:"image_url"`
	Category  *string `json:"category"`
	Published *bool   `json:"published"`
}

func (p BlogPostPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.NilOrNotEmpty, validation.Length(5, 0)),
		validation.Field(&p.Slug, validation.NilOrNotEmpty, validation.Length(3, 0), validation.By(slugRule)),
		validation.Field(&p.Excerpt, validation.NilOrNotEmpty, validation.Length(10, 0)),
		validation.Field(&p.Content, validation.NilOrNotEmpty, validation.Length(50, 0)),
	)
}

// Apply returns post with the patch applied and UpdatedAt bumped.
func (p BlogPostPatch) Apply(post BlogPost) BlogPost {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Slug != nil {
		post.Slug = strings.TrimSpace(*p.Slug)
	}
	if p.Excerpt != nil {
		post.Excerpt = *p.Excerpt
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.ImageURL != nil {
		post.ImageURL = *p.ImageURL
	}
	if p.Category != nil {
		post.Category = *p.Category
	}
	if p.Published != nil {
		post.Published = *p.Published
	}
	post.UpdatedAt = Now()
	return post
}

// slugRule accepts string and *string values.
func slugRule(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	default:
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if !slug.IsValid(s) {
		return errSlugFormat
	}
	return nil
}
