package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/markb/bcon/internal/model"
)

// Memory is an in-process Store. Records are lost on restart.
type Memory struct {
	mu           sync.RWMutex
	accounts     []model.Account
	posts        []model.BlogPost
	testimonials []model.Testimonial
	projects     []model.Project
	contacts     []model.ContactMessage
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Ping(ctx context.Context) error  { return nil }
func (m *Memory) Close(ctx context.Context) error { return nil }

// newestFirst returns the indexes of items ordered by creation time
// descending, later insertions first on ties.
func newestFirst(n int, createdAt func(i int) time.Time) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = n - 1 - i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return createdAt(idx[a]).After(createdAt(idx[b]))
	})
	return idx
}

// Accounts

func (m *Memory) CreateAccount(ctx context.Context, a model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.Email == a.Email || existing.ID == a.ID {
			return ErrConflict
		}
	}
	m.accounts = append(m.accounts, a)
	return nil
}

func (m *Memory) AccountByID(ctx context.Context, id string) (*model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.accounts {
		if a.ID == id {
			a := a
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) AccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.accounts {
		if a.Email == email {
			a := a
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListAccounts(ctx context.Context) ([]model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Account, 0, len(m.accounts))
	for _, i := range newestFirst(len(m.accounts), func(i int) time.Time { return m.accounts[i].CreatedAt }) {
		out = append(out, m.accounts[i])
	}
	return out, nil
}

func (m *Memory) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.accounts {
		if m.accounts[i].ID == id {
			m.accounts[i].PasswordHash = hash
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) DeleteAccount(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.accounts {
		if m.accounts[i].ID == id {
			m.accounts = append(m.accounts[:i], m.accounts[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Blog posts

func (m *Memory) CreatePost(ctx context.Context, p model.BlogPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.posts {
		if existing.Slug == p.Slug || existing.ID == p.ID {
			return ErrConflict
		}
	}
	m.posts = append(m.posts, p)
	return nil
}

func (m *Memory) PostByID(ctx context.Context, id string) (*model.BlogPost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.posts {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) PostBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.BlogPost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.posts {
		if p.Slug == slug && (p.Published || !publishedOnly) {
			p := p
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListPosts(ctx context.Context, f PostFilter) ([]model.BlogPost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	limit := limitOr(f.Limit, LimitAdminPosts)
	out := make([]model.BlogPost, 0)
	for _, i := range newestFirst(len(m.posts), func(i int) time.Time { return m.posts[i].CreatedAt }) {
		if len(out) == limit {
			break
		}
		if f.PublishedOnly && !m.posts[i].Published {
			continue
		}
		out = append(out, m.posts[i])
	}
	return out, nil
}

func (m *Memory) UpdatePost(ctx context.Context, p model.BlogPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	at := -1
	for i := range m.posts {
		if m.posts[i].ID == p.ID {
			at = i
		} else if m.posts[i].Slug == p.Slug {
			return ErrConflict
		}
	}
	if at < 0 {
		return ErrNotFound
	}
	m.posts[at] = p
	return nil
}

func (m *Memory) DeletePost(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.posts {
		if m.posts[i].ID == id {
			m.posts = append(m.posts[:i], m.posts[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Testimonials

func (m *Memory) CreateTestimonial(ctx context.Context, t model.Testimonial) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.testimonials {
		if existing.ID == t.ID {
			return ErrConflict
		}
	}
	m.testimonials = append(m.testimonials, t)
	return nil
}

func (m *Memory) ListTestimonials(ctx context.Context, f TestimonialFilter) ([]model.Testimonial, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	limit := limitOr(f.Limit, LimitAdminTestimonials)
	out := make([]model.Testimonial, 0)
	for _, i := range newestFirst(len(m.testimonials), func(i int) time.Time { return m.testimonials[i].CreatedAt }) {
		if len(out) == limit {
			break
		}
		if f.ActiveOnly && !m.testimonials[i].IsActive {
			continue
		}
		out = append(out, m.testimonials[i])
	}
	return out, nil
}

func (m *Memory) DeleteTestimonial(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.testimonials {
		if m.testimonials[i].ID == id {
			m.testimonials = append(m.testimonials[:i], m.testimonials[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Projects

func (m *Memory) CreateProject(ctx context.Context, p model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.projects {
		if existing.ID == p.ID {
			return ErrConflict
		}
	}
	m.projects = append(m.projects, p)
	return nil
}

func (m *Memory) ListProjects(ctx context.Context, f ProjectFilter) ([]model.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	limit := limitOr(f.Limit, LimitAdminProjects)
	out := make([]model.Project, 0)
	for _, i := range newestFirst(len(m.projects), func(i int) time.Time { return m.projects[i].CreatedAt }) {
		if len(out) == limit {
			break
		}
		if f.FeaturedOnly && !m.projects[i].IsFeatured {
			continue
		}
		out = append(out, m.projects[i])
	}
	return out, nil
}

func (m *Memory) DeleteProject(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.projects {
		if m.projects[i].ID == id {
			m.projects = append(m.projects[:i], m.projects[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Contacts

func (m *Memory) CreateContact(ctx context.Context, c model.ContactMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.contacts {
		if existing.ID == c.ID {
			return ErrConflict
		}
	}
	m.contacts = append(m.contacts, c)
	return nil
}

func (m *Memory) ListContacts(ctx context.Context, limit int) ([]model.ContactMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	limit = limitOr(limit, LimitContacts)
	out := make([]model.ContactMessage, 0)
	for _, i := range newestFirst(len(m.contacts), func(i int) time.Time { return m.contacts[i].CreatedAt }) {
		if len(out) == limit {
			break
		}
		out = append(out, m.contacts[i])
	}
	return out, nil
}

func (m *Memory) MarkContactRead(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.contacts {
		if m.contacts[i].ID == id {
			m.contacts[i].IsRead = true
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) DeleteContact(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.contacts {
		if m.contacts[i].ID == id {
			m.contacts = append(m.contacts[:i], m.contacts[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
