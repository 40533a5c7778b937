package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourify/database/query"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound reports that no document matched the given id.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateKey reports a unique-index violation.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Document is implemented by models that receive server-assigned identity
// and timestamps on create.
type Document interface {
	SetID(id string)
	Touch(now time.Time)
}

// Collection is the capability surface an entity kind exposes to the CRUD
// factory. It is implemented once, generically, by Mongo.
type Collection[T any] interface {
	Find(ctx context.Context, opts *query.Options) ([]T, error)
	GetByID(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, doc *T) error
	UpdateByID(ctx context.Context, id string, patch bson.M) (*T, error)
	DeleteByID(ctx context.Context, id string) error
	Aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error
}

// Mongo is the generic MongoDB-backed Collection implementation.
type Mongo[T any] struct {
	coll      *mongo.Collection
	immutable map[string]bool
}

// NewMongo wraps a mongo collection. The id and createdAt fields are always
// immutable through UpdateByID; extra immutable fields (such as derived
// aggregates) can be listed per entity kind.
func NewMongo[T any](coll *mongo.Collection, immutable ...string) *Mongo[T] {
	im := map[string]bool{"_id": true, "id": true, "createdAt": true}
	for _, f := range immutable {
		im[f] = true
	}
	return &Mongo[T]{coll: coll, immutable: im}
}

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

// Find executes a parsed query. An empty result set is success, not error.
func (m *Mongo[T]) Find(ctx context.Context, opts *query.Options) ([]T, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	cursor, err := m.coll.Find(ctx, opts.Filter, opts.FindOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to execute find: %w", err)
	}
	defer cursor.Close(ctx)

	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}
	return docs, nil
}

// GetByID retrieves a single document by its id.
func (m *Mongo[T]) GetByID(ctx context.Context, id string) (*T, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var doc T
	if err := m.coll.FindOne(ctx, bson.M{"id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch document with id %s: %w", id, err)
	}
	return &doc, nil
}

// Create inserts a new document, assigning its id and timestamps.
func (m *Mongo[T]) Create(ctx context.Context, doc *T) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if d, ok := any(doc).(Document); ok {
		d.SetID(uuid.New().String())
		d.Touch(time.Now())
	}

	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// UpdateByID applies a partial patch and returns the updated document.
// Immutable fields are stripped from the patch before the write.
func (m *Mongo[T]) UpdateByID(ctx context.Context, id string, patch bson.M) (*T, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{}
	for k, v := range patch {
		if !m.immutable[k] {
			set[k] = v
		}
	}
	set["updatedAt"] = time.Now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc T
	err := m.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("failed to update document with id %s: %w", id, err)
	}
	return &doc, nil
}

// DeleteByID removes a document by its id.
func (m *Mongo[T]) DeleteByID(ctx context.Context, id string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	result, err := m.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete document with id %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Aggregate runs a server-side aggregation pipeline and decodes all results.
func (m *Mongo[T]) Aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	cursor, err := m.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("failed to run aggregation: %w", err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode aggregation results: %w", err)
	}
	return nil
}

// Patch converts a partial-update payload into the field map written by
// UpdateByID. Only fields present in the payload survive the conversion.
func Patch(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patch: %w", err)
	}
	patch := bson.M{}
	if err := bson.Unmarshal(raw, &patch); err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}
	return patch, nil
}
