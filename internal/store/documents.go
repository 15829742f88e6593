package store

import (
	"time"

	"github.com/markb/bcon/internal/model"
)

// Timestamps are stored as fixed-width UTC ISO-8601 strings so that
// string order in an index matches time order. Parsing accepts any
// RFC 3339 value, including ones written by older deployments.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		// Naive timestamps without an offset are UTC.
		t, err = time.Parse("2006-01-02T15:04:05.999999999", s)
		if err != nil {
			return time.Time{}
		}
	}
	return t.UTC()
}

type accountDoc struct {
	ID           string `bson:"id"`
	Email        string `bson:"email"`
	Name         string `bson:"name"`
	PasswordHash string `bson:"password_hash"`
	CreatedAt    string `bson:"created_at"`
}

func toAccountDoc(a model.Account) accountDoc {
	return accountDoc{
		ID:           a.ID,
		Email:        a.Email,
		Name:         a.Name,
		PasswordHash: a.PasswordHash,
		CreatedAt:    formatTime(a.CreatedAt),
	}
}

func (d accountDoc) model() model.Account {
	return model.Account{
		ID:           d.ID,
		Email:        d.Email,
		Name:         d.Name,
		PasswordHash: d.PasswordHash,
		CreatedAt:    parseTime(d.CreatedAt),
	}
}

type postDoc struct {
	ID        string `bson:"id"`
	Title     string `bson:"title"`
	Slug      string `bson:"slug"`
	Excerpt   string `bson:"excerpt"`
	Content   string `bson:"content"`
	ImageURL  string `bson:"image_url"`
	Category  string `bson:"category"`
	Author    string `bson:"author"`
	Published bool   `bson:"published"`
	CreatedAt string `bson:"created_at"`
	UpdatedAt string `bson:"updated_at"`
}

func toPostDoc(p model.BlogPost) postDoc {
	return postDoc{
		ID:        p.ID,
		Title:     p.Title,
		Slug:      p.Slug,
		Excerpt:   p.Excerpt,
		Content:   p.Content,
		ImageURL:  p.ImageURL,
		Category:  p.Category,
		Author:    p.Author,
		Published: p.Published,
		CreatedAt: formatTime(p.CreatedAt),
		UpdatedAt: formatTime(p.UpdatedAt),
	}
}

func (d postDoc) model() model.BlogPost {
	return model.BlogPost{
		ID:        d.ID,
		Title:     d.Title,
		Slug:      d.Slug,
		Excerpt:   d.Excerpt,
		Content:   d.Content,
		ImageURL:  d.ImageURL,
		Category:  d.Category,
		Author:    d.Author,
		Published: d.Published,
		CreatedAt: parseTime(d.CreatedAt),
		UpdatedAt: parseTime(d.UpdatedAt),
	}
}

type testimonialDoc struct {
	ID         string `bson:"id"`
	ClientName string `bson:"client_name"`
	Company    string `bson:"company"`
	Role       string `bson:"role"`
	Content    string `bson:"content"`
	Rating     int    `bson:"rating"`
	LogoURL    string `bson:"logo_url"`
	IsActive   bool   `bson:"is_active"`
	CreatedAt  string `bson:"created_at"`
}

func toTestimonialDoc(t model.Testimonial) testimonialDoc {
	return testimonialDoc{
		ID:         t.ID,
		ClientName: t.ClientName,
		Company:    t.Company,
		Role:       t.Role,
		Content:    t.Content,
		Rating:     t.Rating,
		LogoURL:    t.LogoURL,
		IsActive:   t.IsActive,
		CreatedAt:  formatTime(t.CreatedAt),
	}
}

func (d testimonialDoc) model() model.Testimonial {
	return model.Testimonial{
		ID:         d.ID,
		ClientName: d.ClientName,
		Company:    d.Company,
		Role:       d.Role,
		Content:    d.Content,
		Rating:     d.Rating,
		LogoURL:    d.LogoURL,
		IsActive:   d.IsActive,
		CreatedAt:  parseTime(d.CreatedAt),
	}
}

type projectDoc struct {
	ID          string `bson:"id"`
	Title       string `bson:"title"`
	Description string `bson:"description"`
	Challenge   string `bson:"challenge"`
	Solution    string `bson:"solution"`
	Results     string `bson:"results"`
	Category    string `bson:"category"`
	ImageURL    string `bson:"image_url"`
	Year        string `bson:"year"`
	IsFeatured  bool   `bson:"is_featured"`
	CreatedAt   string `bson:"created_at"`
}

func toProjectDoc(p model.Project) projectDoc {
	return projectDoc{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Challenge:   p.Challenge,
		Solution:    p.Solution,
		Results:     p.Results,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Year:        p.Year,
		IsFeatured:  p.IsFeatured,
		CreatedAt:   formatTime(p.CreatedAt),
	}
}

func (d projectDoc) model() model.Project {
	return model.Project{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Challenge:   d.Challenge,
		Solution:    d.Solution,
		Results:     d.Results,
		Category:    d.Category,
		ImageURL:    d.ImageURL,
		Year:        d.Year,
		IsFeatured:  d.IsFeatured,
		CreatedAt:   parseTime(d.CreatedAt),
	}
}

type contactDoc struct {
	ID        string `bson:"id"`
	Name      string `bson:"name"`
	Email     string `bson:"email"`
	Phone     string `bson:"phone"`
	Company   string `bson:"company"`
	Message   string `bson:"message"`
	CreatedAt string `bson:"created_at"`
	IsRead    bool   `bson:"is_read"`
}

func toContactDoc(c model.ContactMessage) contactDoc {
	return contactDoc{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Company:   c.Company,
		Message:   c.Message,
		CreatedAt: formatTime(c.CreatedAt),
		IsRead:    c.IsRead,
	}
}

func (d contactDoc) model() model.ContactMessage {
	return model.ContactMessage{
		ID:        d.ID,
		Name:      d.Name,
		Email:     d.Email,
		Phone:     d.Phone,
		Company:   d.Company,
		Message:   d.Message,
		CreatedAt: parseTime(d.CreatedAt),
		IsRead:    d.IsRead,
	}
}
