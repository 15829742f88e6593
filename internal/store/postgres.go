package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/markb/bcon/internal/model"
)

// schema is applied on every open and is idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS admin_users (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    name          TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS blog_posts (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL,
    slug       TEXT NOT NULL UNIQUE,
    excerpt    TEXT NOT NULL,
    content    TEXT NOT NULL,
    image_url  TEXT NOT NULL DEFAULT '',
    category   TEXT NOT NULL DEFAULT '',
    author     TEXT NOT NULL,
    published  BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS blog_posts_created_at_idx ON blog_posts (created_at DESC);

CREATE TABLE IF NOT EXISTS testimonials (
    id          TEXT PRIMARY KEY,
    client_name TEXT NOT NULL,
    company     TEXT NOT NULL,
    role        TEXT NOT NULL DEFAULT '',
    content     TEXT NOT NULL,
    rating      INTEGER NOT NULL DEFAULT 5,
    logo_url    TEXT NOT NULL DEFAULT '',
    is_active   BOOLEAN NOT NULL DEFAULT TRUE,
    created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    description TEXT NOT NULL,
    challenge   TEXT NOT NULL DEFAULT '',
    solution    TEXT NOT NULL DEFAULT '',
    results     TEXT NOT NULL DEFAULT '',
    category    TEXT NOT NULL DEFAULT '',
    image_url   TEXT NOT NULL DEFAULT '',
    year        TEXT NOT NULL DEFAULT '',
    is_featured BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS contact_messages (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    email      TEXT NOT NULL,
    phone      TEXT NOT NULL DEFAULT '',
    company    TEXT NOT NULL DEFAULT '',
    message    TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    is_read    BOOLEAN NOT NULL DEFAULT FALSE
);
`

const uniqueViolation = "23505"

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to connString and applies the schema.
func OpenPostgres(ctx context.Context, connString string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	p := &Postgres{pool: pool}
	if err := p.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return p, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping postgres: %w", err)
	}
	return nil
}

func (p *Postgres) Close(ctx context.Context) error {
	p.pool.Close()
	return nil
}

func execErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrConflict
	}
	return err
}

func rowErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// execOne runs a statement that must touch exactly one row.
func (p *Postgres) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return execErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Accounts

const accountColumns = `id, email, name, password_hash, created_at`

func scanAccount(row pgx.Row) (model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt)
	a.CreatedAt = a.CreatedAt.UTC()
	return a, err
}

func (p *Postgres) CreateAccount(ctx context.Context, a model.Account) error {
	query := `INSERT INTO admin_users (` + accountColumns + `) VALUES ($1, $2, $3, $4, $5)`
	_, err := p.pool.Exec(ctx, query, a.ID, a.Email, a.Name, a.PasswordHash, a.CreatedAt)
	return execErr(err)
}

func (p *Postgres) AccountByID(ctx context.Context, id string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM admin_users WHERE id = $1`
	a, err := scanAccount(p.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, rowErr(err)
	}
	return &a, nil
}

func (p *Postgres) AccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM admin_users WHERE email = $1`
	a, err := scanAccount(p.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, rowErr(err)
	}
	return &a, nil
}

func (p *Postgres) ListAccounts(ctx context.Context) ([]model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM admin_users ORDER BY created_at DESC`
	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]model.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (p *Postgres) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return p.execOne(ctx, `UPDATE admin_users SET password_hash = $1 WHERE id = $2`, hash, id)
}

func (p *Postgres) DeleteAccount(ctx context.Context, id string) error {
	return p.execOne(ctx, `DELETE FROM admin_users WHERE id = $1`, id)
}

// Blog posts

const postColumns = `id, title, slug, excerpt, content, image_url, category, author, published, created_at, updated_at`

func scanPost(row pgx.Row) (model.BlogPost, error) {
	var b model.BlogPost
	err := row.Scan(&b.ID, &b.Title, &b.Slug, &b.Excerpt, &b.Content, &b.ImageURL,
		&b.Category, &b.Author, &b.Published, &b.CreatedAt, &b.UpdatedAt)
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return b, err
}

func (p *Postgres) CreatePost(ctx context.Context, b model.BlogPost) error {
	query := `INSERT INTO blog_posts (` + postColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := p.pool.Exec(ctx, query, b.ID, b.Title, b.Slug, b.Excerpt, b.Content, b.ImageURL,
		b.Category, b.Author, b.Published, b.CreatedAt, b.UpdatedAt)
	return execErr(err)
}

func (p *Postgres) PostByID(ctx context.Context, id string) (*model.BlogPost, error) {
	query := `SELECT ` + postColumns + ` FROM blog_posts WHERE id = $1`
	b, err := scanPost(p.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, rowErr(err)
	}
	return &b, nil
}

func (p *Postgres) PostBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.BlogPost, error) {
	query := `SELECT ` + postColumns + ` FROM blog_posts WHERE slug = $1 AND (published OR NOT $2)`
	b, err := scanPost(p.pool.QueryRow(ctx, query, slug, publishedOnly))
	if err != nil {
		return nil, rowErr(err)
	}
	return &b, nil
}

func (p *Postgres) ListPosts(ctx context.Context, f PostFilter) ([]model.BlogPost, error) {
	query := `SELECT ` + postColumns + ` FROM blog_posts
		WHERE published OR NOT $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := p.pool.Query(ctx, query, f.PublishedOnly, limitOr(f.Limit, LimitAdminPosts))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]model.BlogPost, 0)
	for rows.Next() {
		b, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, b)
	}
	return posts, rows.Err()
}

func (p *Postgres) UpdatePost(ctx context.Context, b model.BlogPost) error {
	query := `UPDATE blog_posts
		SET title = $2, slug = $3, excerpt = $4, content = $5, image_url = $6,
		    category = $7, author = $8, published = $9, updated_at = $10
		WHERE id = $1`
	return p.execOne(ctx, query, b.ID, b.Title, b.Slug, b.Excerpt, b.Content, b.ImageURL,
		b.Category, b.Author, b.Published, b.UpdatedAt)
}

func (p *Postgres) DeletePost(ctx context.Context, id string) error {
	return p.execOne(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
}

// Testimonials

const testimonialColumns = `id, client_name, company, role, content, rating, logo_url, is_active, created_at`

func scanTestimonial(row pgx.Row) (model.Testimonial, error) {
	var t model.Testimonial
	err := row.Scan(&t.ID, &t.ClientName, &t.Company, &t.Role, &t.Content, &t.Rating,
		&t.LogoURL, &t.IsActive, &t.CreatedAt)
	t.CreatedAt = t.CreatedAt.UTC()
	return t, err
}

func (p *Postgres) CreateTestimonial(ctx context.Context, t model.Testimonial) error {
	query := `INSERT INTO testimonials (` + testimonialColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := p.pool.Exec(ctx, query, t.ID, t.ClientName, t.Company, t.Role, t.Content, t.Rating,
		t.LogoURL, t.IsActive, t.CreatedAt)
	return execErr(err)
}

func (p *Postgres) ListTestimonials(ctx context.Context, f TestimonialFilter) ([]model.Testimonial, error) {
	query := `SELECT ` + testimonialColumns + ` FROM testimonials
		WHERE is_active OR NOT $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := p.pool.Query(ctx, query, f.ActiveOnly, limitOr(f.Limit, LimitAdminTestimonials))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Testimonial, 0)
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteTestimonial(ctx context.Context, id string) error {
	return p.execOne(ctx, `DELETE FROM testimonials WHERE id = $1`, id)
}

// Projects

const projectColumns = `id, title, description, challenge, solution, results, category, image_url, year, is_featured, created_at`

func scanProject(row pgx.Row) (model.Project, error) {
	var pr model.Project
	err := row.Scan(&pr.ID, &pr.Title, &pr.Description, &pr.Challenge, &pr.Solution, &pr.Results,
		&pr.Category, &pr.ImageURL, &pr.Year, &pr.IsFeatured, &pr.CreatedAt)
	pr.CreatedAt = pr.CreatedAt.UTC()
	return pr, err
}

func (p *Postgres) CreateProject(ctx context.Context, pr model.Project) error {
	query := `INSERT INTO projects (` + projectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := p.pool.Exec(ctx, query, pr.ID, pr.Title, pr.Description, pr.Challenge, pr.Solution,
		pr.Results, pr.Category, pr.ImageURL, pr.Year, pr.IsFeatured, pr.CreatedAt)
	return execErr(err)
}

func (p *Postgres) ListProjects(ctx context.Context, f ProjectFilter) ([]model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects
		WHERE is_featured OR NOT $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := p.pool.Query(ctx, query, f.FeaturedOnly, limitOr(f.Limit, LimitAdminProjects))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Project, 0)
	for rows.Next() {
		pr, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteProject(ctx context.Context, id string) error {
	return p.execOne(ctx, `DELETE FROM projects WHERE id = $1`, id)
}

// Contacts

const contactColumns = `id, name, email, phone, company, message, created_at, is_read`

func scanContact(row pgx.Row) (model.ContactMessage, error) {
	var c model.ContactMessage
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Message, &c.CreatedAt, &c.IsRead)
	c.CreatedAt = c.CreatedAt.UTC()
	return c, err
}

func (p *Postgres) CreateContact(ctx context.Context, c model.ContactMessage) error {
	query := `INSERT INTO contact_messages (` + contactColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := p.pool.Exec(ctx, query, c.ID, c.Name, c.Email, c.Phone, c.Company, c.Message,
		c.CreatedAt, c.IsRead)
	return execErr(err)
}

func (p *Postgres) ListContacts(ctx context.Context, limit int) ([]model.ContactMessage, error) {
	query := `SELECT ` + contactColumns + ` FROM contact_messages ORDER BY created_at DESC LIMIT $1`
	rows, err := p.pool.Query(ctx, query, limitOr(limit, LimitContacts))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.ContactMessage, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) MarkContactRead(ctx context.Context, id string) error {
	return p.execOne(ctx, `UPDATE contact_messages SET is_read = TRUE WHERE id = $1`, id)
}

func (p *Postgres) DeleteContact(ctx context.Context, id string) error {
	return p.execOne(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
}
