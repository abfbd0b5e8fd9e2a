package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fittrack/backend/internal/domain"
	"fittrack/backend/internal/repository"
)

const analysisCollectionName = "analyses"

type mongoAnalysisRepository struct {
	collection *mongo.Collection
}

// NewAnalysisRepository creates the document-store analysis repository.
func NewAnalysisRepository(db *mongo.Database) repository.AnalysisRepository {
	return &mongoAnalysisRepository{collection: db.Collection(analysisCollectionName)}
}

func (r *mongoAnalysisRepository) Create(ctx context.Context, a *domain.Analysis) (*domain.Analysis, error) {
	owner, ok := ownerFilter(a.Owner)
	if !ok {
		return nil, &domain.ValidationError{Field: "owner", Reason: "document-store user id is required"}
	}
	if a.Title == "" || !a.Kind.Valid() {
		return nil, &domain.ValidationError{Field: "analysis", Reason: "title and kind are required"}
	}

	doc := analysisToDoc(a, owner)
	doc.ID = primitive.NewObjectID()
	if doc.CreatedAt.IsZero() {
		now := time.Now().UTC()
		doc.CreatedAt = now
		doc.UpdatedAt = now
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *mongoAnalysisRepository) GetByID(ctx context.Context, owner domain.StoreRef, id string) (*domain.Analysis, error) {
	oid, err := parseHex(id)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": oid}
	if uid, ok := ownerFilter(owner); ok {
		filter["userId"] = uid
	}
	return r.findOne(ctx, filter)
}

func (r *mongoAnalysisRepository) GetByTitle(ctx context.Context, owner domain.StoreRef, kind domain.AnalysisKind, title string) (*domain.Analysis, error) {
	uid, ok := ownerFilter(owner)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"userId": uid, "kind": string(kind), "title": title})
}

func (r *mongoAnalysisRepository) findOne(ctx context.Context, filter bson.M) (*domain.Analysis, error) {
	var doc analysisDoc
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *mongoAnalysisRepository) List(ctx context.Context, owner domain.StoreRef, skip, limit int) ([]domain.Analysis, error) {
	uid, ok := ownerFilter(owner)
	if !ok {
		return []domain.Analysis{}, nil
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"userId": uid}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []analysisDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	analyses := make([]domain.Analysis, 0, len(docs))
	for i := range docs {
		analyses = append(analyses, *docs[i].toDomain())
	}
	return analyses, nil
}

func (r *mongoAnalysisRepository) Count(ctx context.Context, owner domain.StoreRef) (int64, error) {
	uid, ok := ownerFilter(owner)
	if !ok {
		return 0, nil
	}
	return r.collection.CountDocuments(ctx, bson.M{"userId": uid})
}

func (r *mongoAnalysisRepository) FindByCreatedAt(ctx context.Context, owner domain.StoreRef, createdAt time.Time) ([]domain.Analysis, error) {
	uid, ok := ownerFilter(owner)
	if !ok {
		return nil, domain.ErrNotFound
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": uid, "createdAt": createdAt}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []analysisDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	analyses := make([]domain.Analysis, 0, len(docs))
	for i := range docs {
		analyses = append(analyses, *docs[i].toDomain())
	}
	return analyses, nil
}

func (r *mongoAnalysisRepository) Update(ctx context.Context, a *domain.Analysis) (*domain.Analysis, error) {
	oid, err := parseHex(a.MongoID)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": oid}
	if uid, ok := ownerFilter(a.Owner); ok {
		filter["userId"] = uid
	}

	update := bson.M{"$set": bson.M{
		"title":       a.Title,
		"description": a.Description,
		"narrative":   a.Narrative,
		"updatedAt":   time.Now().UTC(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, a.Owner, a.MongoID)
}

func (r *mongoAnalysisRepository) Delete(ctx context.Context, owner domain.StoreRef, id string) error {
	oid, err := parseHex(id)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": oid}
	if uid, ok := ownerFilter(owner); ok {
		filter["userId"] = uid
	}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// EnsureAnalysisIndexes creates necessary indexes for the analyses collection.
func EnsureAnalysisIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Titles are unique per (user, kind) within this store.
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "kind", Value: 1}, {Key: "title", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
