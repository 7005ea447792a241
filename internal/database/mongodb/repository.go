package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidID    = errors.New("invalid document id")
	ErrClientClosed = errors.New("mongodb client is closed")
)

// Document is a decoded BSON document.
type Document map[string]interface{}

// Filter and Update alias bson.M so the adapters never import the driver
// directly.
type (
	Filter bson.M
	Update bson.M
)

// FindOptions narrows or orders a Find.
type FindOptions struct {
	Sort  bson.D
	Limit int64
	Skip  int64
}

// Repository gives the adapters document-level CRUD on one collection,
// with id translation and createdAt/updatedAt stamping handled here.
type Repository struct {
	client     *Client
	collection *mongo.Collection
	logger     *slog.Logger
}

func NewRepository(client *Client, collectionName string, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		client:     client,
		collection: client.Database().Collection(collectionName),
		logger:     logger.With(slog.String("collection", collectionName)),
	}
}

// FindOne returns the first document matching filter, or ErrNotFound.
func (r *Repository) FindOne(ctx context.Context, filter Filter) (Document, error) {
	if r.client.IsClosed() {
		return nil, ErrClientClosed
	}

	var doc Document
	if err := r.collection.FindOne(ctx, normalizeFilter(filter)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("findOne: %w", err)
	}
	return doc, nil
}

// FindByID looks the document up by string id, falling back to an
// ObjectID lookup when the id parses as hex.
func (r *Repository) FindByID(ctx context.Context, id string) (Document, error) {
	doc, err := r.FindOne(ctx, Filter{"_id": id})
	if errors.Is(err, ErrNotFound) {
		if oid, parseErr := primitive.ObjectIDFromHex(id); parseErr == nil {
			return r.FindOne(ctx, Filter{"_id": oid})
		}
	}
	return doc, err
}

// InsertOne stores doc, stamping timestamps and generating an _id when
// absent, and returns the id as a string.
func (r *Repository) InsertOne(ctx context.Context, doc Document) (string, error) {
	if r.client.IsClosed() {
		return "", ErrClientClosed
	}

	stampNew(doc, time.Now().UTC())
	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		}
		return "", fmt.Errorf("insertOne: %w", err)
	}
	return idString(result.InsertedID), nil
}

// InsertMany stores docs in one write and returns their ids in order.
func (r *Repository) InsertMany(ctx context.Context, docs []Document) ([]string, error) {
	if r.client.IsClosed() {
		return nil, ErrClientClosed
	}
	if len(docs) == 0 {
		return []string{}, nil
	}

	now := time.Now().UTC()
	rows := make([]interface{}, len(docs))
	for i, doc := range docs {
		stampNew(doc, now)
		rows[i] = doc
	}

	result, err := r.collection.InsertMany(ctx, rows)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		}
		return nil, fmt.Errorf("insertMany: %w", err)
	}

	ids := make([]string, len(result.InsertedIDs))
	for i, id := range result.InsertedIDs {
		ids[i] = idString(id)
	}
	return ids, nil
}

// UpdateOne applies update to the first match and returns the modified
// count. A $set document gets updatedAt refreshed; callers treat a zero
// count as not found.
func (r *Repository) UpdateOne(ctx context.Context, filter Filter, update Update) (int64, error) {
	if r.client.IsClosed() {
		return 0, ErrClientClosed
	}

	if set, ok := update["$set"].(bson.M); ok {
		set["updatedAt"] = time.Now().UTC()
	}

	result, err := r.collection.UpdateOne(ctx, normalizeFilter(filter), update)
	if err != nil {
		return 0, fmt.Errorf("updateOne: %w", err)
	}
	return result.ModifiedCount, nil
}

// Find returns all matches, never nil.
func (r *Repository) Find(ctx context.Context, filter Filter, opts *FindOptions) ([]Document, error) {
	if r.client.IsClosed() {
		return nil, ErrClientClosed
	}

	findOpts := options.Find()
	if opts != nil {
		if len(opts.Sort) > 0 {
			findOpts.SetSort(opts.Sort)
		}
		if opts.Limit > 0 {
			findOpts.SetLimit(opts.Limit)
		}
		if opts.Skip > 0 {
			findOpts.SetSkip(opts.Skip)
		}
	}

	cursor, err := r.collection.Find(ctx, normalizeFilter(filter), findOpts)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	defer cursor.Close(ctx)

	docs := []Document{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return docs, nil
}

// stampNew fills createdAt, updatedAt and _id on a document about to be
// inserted, leaving caller-provided values alone.
func stampNew(doc Document, now time.Time) {
	if _, ok := doc["createdAt"]; !ok {
		doc["createdAt"] = now
	}
	if _, ok := doc["updatedAt"]; !ok {
		doc["updatedAt"] = now
	}
	if _, ok := doc["_id"]; !ok {
		doc["_id"] = primitive.NewObjectID()
	}
}

// normalizeFilter converts a hex string _id into an ObjectID so both id
// styles match.
func normalizeFilter(filter Filter) bson.M {
	if filter == nil {
		return bson.M{}
	}
	out := bson.M(filter)
	if idStr, ok := out["_id"].(string); ok {
		if oid, err := primitive.ObjectIDFromHex(idStr); err == nil {
			copied := make(bson.M, len(out))
			for k, v := range out {
				copied[k] = v
			}
			copied["_id"] = oid
			return copied
		}
	}
	return out
}

func idString(id interface{}) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
