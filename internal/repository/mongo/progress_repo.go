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

const progressCollectionName = "progress_entries"

type mongoProgressRepository struct {
	collection *mongo.Collection
}

// NewProgressRepository creates the document-store progress repository.
func NewProgressRepository(db *mongo.Database) repository.ProgressRepository {
	return &mongoProgressRepository{collection: db.Collection(progressCollectionName)}
}

func (r *mongoProgressRepository) Create(ctx context.Context, e *domain.ProgressEntry) (*domain.ProgressEntry, error) {
	owner, ok := ownerFilter(e.Owner)
	if !ok {
		return nil, &domain.ValidationError{Field: "owner", Reason: "document-store user id is required"}
	}

	doc := &progressDoc{
		ID:              primitive.NewObjectID(),
		UserID:          owner,
		WeightKG:        e.WeightKG,
		TrainingMinutes: e.TrainingMinutes,
		EffectiveDate:   e.EffectiveDate,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	if doc.CreatedAt.IsZero() {
		now := time.Now().UTC()
		doc.CreatedAt = now
		doc.UpdatedAt = now
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *mongoProgressRepository) GetByID(ctx context.Context, owner domain.StoreRef, id string) (*domain.ProgressEntry, error) {
	oid, err := parseHex(id)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": oid}
	if uid, ok := ownerFilter(owner); ok {
		filter["userId"] = uid
	}

	var doc progressDoc
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *mongoProgressRepository) List(ctx context.Context, owner domain.StoreRef, skip, limit int) ([]domain.ProgressEntry, error) {
	uid, ok := ownerFilter(owner)
	if !ok {
		return []domain.ProgressEntry{}, nil
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "effectiveDate", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"userId": uid}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []progressDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	entries := make([]domain.ProgressEntry, 0, len(docs))
	for i := range docs {
		entries = append(entries, *docs[i].toDomain())
	}
	return entries, nil
}

func (r *mongoProgressRepository) Count(ctx context.Context, owner domain.StoreRef) (int64, error) {
	uid, ok := ownerFilter(owner)
	if !ok {
		return 0, nil
	}
	return r.collection.CountDocuments(ctx, bson.M{"userId": uid})
}

// FindByCreatedAt is the correlation lookup: same owner, same creation
// timestamp, ascending _id so an ambiguous match resolves deterministically.
func (r *mongoProgressRepository) FindByCreatedAt(ctx context.Context, owner domain.StoreRef, createdAt time.Time) ([]domain.ProgressEntry, error) {
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

	var docs []progressDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	entries := make([]domain.ProgressEntry, 0, len(docs))
	for i := range docs {
		entries = append(entries, *docs[i].toDomain())
	}
	return entries, nil
}

func (r *mongoProgressRepository) Update(ctx context.Context, e *domain.ProgressEntry) (*domain.ProgressEntry, error) {
	oid, err := parseHex(e.MongoID)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": oid}
	if uid, ok := ownerFilter(e.Owner); ok {
		filter["userId"] = uid
	}

	// CreatedAt is immutable: it is the correlation key.
	update := bson.M{"$set": bson.M{
		"weightKg":        e.WeightKG,
		"trainingMinutes": e.TrainingMinutes,
		"effectiveDate":   e.EffectiveDate,
		"updatedAt":       time.Now().UTC(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, e.Owner, e.MongoID)
}

func (r *mongoProgressRepository) Delete(ctx context.Context, owner domain.StoreRef, id string) error {
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

// EnsureProgressIndexes creates necessary indexes for the progress collection.
func EnsureProgressIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "effectiveDate", Value: -1}},
			Options: options.Index(),
		},
		{
			// Correlation lookups match on (userId, createdAt).
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
