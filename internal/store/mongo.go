package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/markb/bcon/internal/model"
)

// Collection names. Existing databases created by earlier deployments use
// the same names and field layout.
const (
	collAccounts     = "admin_users"
	collPosts        = "blog_posts"
	collTestimonials = "testimonials"
	collProjects     = "projects"
	collContacts     = "contact_messages"
)

// newestSort orders by creation time, then insertion order, newest first.
var newestSort = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// Mongo is a Store backed by a MongoDB database.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo connects to uri, selects database and ensures indexes exist.
func OpenMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	m := &Mongo{client: client, db: client.Database(database)}
	if err := m.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	unique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
	}
	byCreated := mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: -1}}}

	indexes := map[string][]mongo.IndexModel{
		collAccounts:     {unique("id"), unique("email")},
		collPosts:        {unique("id"), unique("slug"), byCreated},
		collTestimonials: {unique("id"), byCreated},
		collProjects:     {unique("id"), byCreated},
		collContacts:     {unique("id"), byCreated},
	}
	for name, models := range indexes {
		if _, err := m.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func byID(id string) bson.D {
	return bson.D{{Key: "id", Value: id}}
}

func insertErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return err
}

func findErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (m *Mongo) insert(ctx context.Context, coll string, doc interface{}) error {
	_, err := m.db.Collection(coll).InsertOne(ctx, doc)
	return insertErr(err)
}

func (m *Mongo) deleteByID(ctx context.Context, coll, id string) error {
	res, err := m.db.Collection(coll).DeleteOne(ctx, byID(id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// findNewest decodes up to limit documents matching filter into T, newest first.
func findNewest[T any](ctx context.Context, coll *mongo.Collection, filter bson.D, limit int) ([]T, error) {
	opts := options.Find().SetSort(newestSort).SetLimit(int64(limit))
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []T
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Accounts

func (m *Mongo) CreateAccount(ctx context.Context, a model.Account) error {
	return m.insert(ctx, collAccounts, toAccountDoc(a))
}

func (m *Mongo) accountBy(ctx context.Context, filter bson.D) (*model.Account, error) {
	var d accountDoc
	if err := m.db.Collection(collAccounts).FindOne(ctx, filter).Decode(&d); err != nil {
		return nil, findErr(err)
	}
	a := d.model()
	return &a, nil
}

func (m *Mongo) AccountByID(ctx context.Context, id string) (*model.Account, error) {
	return m.accountBy(ctx, byID(id))
}

func (m *Mongo) AccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return m.accountBy(ctx, bson.D{{Key: "email", Value: email}})
}

func (m *Mongo) ListAccounts(ctx context.Context) ([]model.Account, error) {
	docs, err := findNewest[accountDoc](ctx, m.db.Collection(collAccounts), bson.D{}, 0)
	if err != nil {
		return nil, err
	}
	out := make([]model.Account, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (m *Mongo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "password_hash", Value: hash}}}}
	res, err := m.db.Collection(collAccounts).UpdateOne(ctx, byID(id), update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) DeleteAccount(ctx context.Context, id string) error {
	return m.deleteByID(ctx, collAccounts, id)
}

// Blog posts

func (m *Mongo) CreatePost(ctx context.Context, p model.BlogPost) error {
	return m.insert(ctx, collPosts, toPostDoc(p))
}

func (m *Mongo) postBy(ctx context.Context, filter bson.D) (*model.BlogPost, error) {
	var d postDoc
	if err := m.db.Collection(collPosts).FindOne(ctx, filter).Decode(&d); err != nil {
		return nil, findErr(err)
	}
	p := d.model()
	return &p, nil
}

func (m *Mongo) PostByID(ctx context.Context, id string) (*model.BlogPost, error) {
	return m.postBy(ctx, byID(id))
}

func (m *Mongo) PostBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.BlogPost, error) {
	filter := bson.D{{Key: "slug", Value: slug}}
	if publishedOnly {
		filter = append(filter, bson.E{Key: "published", Value: true})
	}
	return m.postBy(ctx, filter)
}

func (m *Mongo) ListPosts(ctx context.Context, f PostFilter) ([]model.BlogPost, error) {
	filter := bson.D{}
	if f.PublishedOnly {
		filter = append(filter, bson.E{Key: "published", Value: true})
	}
	docs, err := findNewest[postDoc](ctx, m.db.Collection(collPosts), filter, limitOr(f.Limit, LimitAdminPosts))
	if err != nil {
		return nil, err
	}
	out := make([]model.BlogPost, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (m *Mongo) UpdatePost(ctx context.Context, p model.BlogPost) error {
	res, err := m.db.Collection(collPosts).ReplaceOne(ctx, byID(p.ID), toPostDoc(p))
	if err != nil {
		return insertErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) DeletePost(ctx context.Context, id string) error {
	return m.deleteByID(ctx, collPosts, id)
}

// Testimonials

func (m *Mongo) CreateTestimonial(ctx context.Context, t model.Testimonial) error {
	return m.insert(ctx, collTestimonials, toTestimonialDoc(t))
}

func (m *Mongo) ListTestimonials(ctx context.Context, f TestimonialFilter) ([]model.Testimonial, error) {
	filter := bson.D{}
	if f.ActiveOnly {
		filter = append(filter, bson.E{Key: "is_active", Value: true})
	}
	docs, err := findNewest[testimonialDoc](ctx, m.db.Collection(collTestimonials), filter, limitOr(f.Limit, LimitAdminTestimonials))
	if err != nil {
		return nil, err
	}
	out := make([]model.Testimonial, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (m *Mongo) DeleteTestimonial(ctx context.Context, id string) error {
	return m.deleteByID(ctx, collTestimonials, id)
}

// Projects

func (m *Mongo) CreateProject(ctx context.Context, p model.Project) error {
	return m.insert(ctx, collProjects, toProjectDoc(p))
}

func (m *Mongo) ListProjects(ctx context.Context, f ProjectFilter) ([]model.Project, error) {
	filter := bson.D{}
	if f.FeaturedOnly {
		filter = append(filter, bson.E{Key: "is_featured", Value: true})
	}
	docs, err := findNewest[projectDoc](ctx, m.db.Collection(collProjects), filter, limitOr(f.Limit, LimitAdminProjects))
	if err != nil {
		return nil, err
	}
	out := make([]model.Project, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (m *Mongo) DeleteProject(ctx context.Context, id string) error {
	return m.deleteByID(ctx, collProjects, id)
}

// Contacts

func (m *Mongo) CreateContact(ctx context.Context, c model.ContactMessage) error {
	return m.insert(ctx, collContacts, toContactDoc(c))
}

func (m *Mongo) ListContacts(ctx context.Context, limit int) ([]model.ContactMessage, error) {
	docs, err := findNewest[contactDoc](ctx, m.db.Collection(collContacts), bson.D{}, limitOr(limit, LimitContacts))
	if err != nil {
		return nil, err
	}
	out := make([]model.ContactMessage, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (m *Mongo) MarkContactRead(ctx context.Context, id string) error {
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "is_read", Value: true}}}}
	res, err := m.db.Collection(collContacts).UpdateOne(ctx, byID(id), update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) DeleteContact(ctx context.Context, id string) error {
	return m.deleteByID(ctx, collContacts, id)
}
