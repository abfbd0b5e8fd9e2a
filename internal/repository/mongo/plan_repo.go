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

const (
	trainingPlanCollectionName = "training_plans"
	dietPlanCollectionName     = "diet_plans"
)

// mongoPlanRepository implements repository.PlanRepository. Training and
// diet plans share the shape and the code; they differ only by collection.
// A plan document owns its days and items as nested sub-documents, so
// cascade-on-delete is a single document removal. Child mutations use
// atomic $push/$pull array updates scoped to the child element instead of
// a whole-document save, which removes the parent-overwrite race.
type mongoPlanRepository struct {
	db *mongo.Database
}

// NewPlanRepository creates the document-store plan repository.
func NewPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{db: db}
}

func collectionFor(kind domain.PlanKind) string {
	if kind == domain.PlanDiet {
		return dietPlanCollectionName
	}
	return trainingPlanCollectionName
}

func (r *mongoPlanRepository) collection(kind domain.PlanKind) *mongo.Collection {
	return r.db.Collection(collectionFor(kind))
}

func (r *mongoPlanRepository) Create(ctx context.Context, p *domain.Plan) (*domain.Plan, error) {
	owner, ok := ownerFilter(p.Owner)
	if !ok {
		return nil, &domain.ValidationError{Field: "owner", Reason: "document-store user id is required"}
	}
	if p.Name == "" || !p.Kind.Valid() {
		return nil, &domain.ValidationError{Field: "plan", Reason: "name and kind are required"}
	}

	doc := planToDoc(p, owner)
	doc.ID = primitive.NewObjectID()
	if doc.CreatedAt.IsZero() {
		now := time.Now().UTC()
		doc.CreatedAt = now
		doc.UpdatedAt = now
	}

	if _, err := r.collection(p.Kind).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return doc.toDomain(p.Kind), nil
}

func (r *mongoPlanRepository) GetByID(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, id string) (*domain.Plan, error) {
	oid, err := parseHex(id)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": oid}
	if uid, ok := ownerFilter(owner); ok {
		filter["userId"] = uid
	}
	return r.findOne(ctx, kind, filter)
}

func (r *mongoPlanRepository) GetByName(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, name string) (*domain.Plan, error) {
	uid, ok := ownerFilter(owner)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, kind, bson.M{"userId": uid, "name": name})
}

func (r *mongoPlanRepository) findOne(ctx context.Context, kind domain.PlanKind, filter bson.M) (*domain.Plan, error) {
	var doc planDoc
	err := r.collection(kind).FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(kind), nil
}

func (r *mongoPlanRepository) List(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, skip, limit int) ([]domain.Plan, error) {
	uid, ok := ownerFilter(owner)
	if !ok {
		return []domain.Plan{}, nil
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := r.collection(kind).Find(ctx, bson.M{"userId": uid}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []planDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	plans := make([]domain.Plan, 0, len(docs))
	for i := range docs {
		plans = append(plans, *docs[i].toDomain(kind))
	}
	return plans, nil
}

func (r *mongoPlanRepository) Count(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind) (int64, error) {
	uid, ok := ownerFilter(owner)
	if !ok {
		return 0, nil
	}
	return r.collection(kind).CountDocuments(ctx, bson.M{"userId": uid})
}

func (r *mongoPlanRepository) FindByCreatedAt(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, createdAt time.Time) ([]domain.Plan, error) {
	uid, ok := ownerFilter(owner)
	if !ok {
		return nil, domain.ErrNotFound
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection(kind).Find(ctx, bson.M{"userId": uid, "createdAt": createdAt}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []planDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	plans := make([]domain.Plan, 0, len(docs))
	for i := range docs {
		plans = append(plans, *docs[i].toDomain(kind))
	}
	return plans, nil
}

func (r *mongoPlanRepository) Update(ctx context.Context, p *domain.Plan) (*domain.Plan, error) {
	oid, err := parseHex(p.MongoID)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": oid}
	if uid, ok := ownerFilter(p.Owner); ok {
		filter["userId"] = uid
	}

	update := bson.M{"$set": bson.M{
		"name":        p.Name,
		"description": p.Description,
		"active":      p.Active,
		"updatedAt":   time.Now().UTC(),
	}}

	result, err := r.collection(p.Kind).UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, p.Owner, p.Kind, p.MongoID)
}

// Delete removes the plan document. Days and items live inside it, so the
// cascade is implicit and leaves no orphaned sub-documents.
func (r *mongoPlanRepository) Delete(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, id string) error {
	oid, err := parseHex(id)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": oid}
	if uid, ok := ownerFilter(owner); ok {
		filter["userId"] = uid
	}
	result, err := r.collection(kind).DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *mongoPlanRepository) AddDay(ctx context.Context, p *domain.Plan, day *domain.Day) (*domain.Day, error) {
	oid, err := parseHex(p.MongoID)
	if err != nil {
		return nil, err
	}

	doc := dayToDoc(day)
	update := bson.M{
		"$push": bson.M{"days": doc},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection(p.Kind).UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, domain.ErrNotFound
	}
	added := doc.toDomain()
	return &added, nil
}

func (r *mongoPlanRepository) RemoveDay(ctx context.Context, p *domain.Plan, dayID string) error {
	oid, err := parseHex(p.MongoID)
	if err != nil {
		return err
	}
	did, err := parseHex(dayID)
	if err != nil {
		return err
	}

	update := bson.M{
		"$pull": bson.M{"days": bson.M{"_id": did}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection(p.Kind).UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *mongoPlanRepository) AddItem(ctx context.Context, p *domain.Plan, dayID string, item *domain.Item) (*domain.Item, error) {
	oid, err := parseHex(p.MongoID)
	if err != nil {
		return nil, err
	}
	did, err := parseHex(dayID)
	if err != nil {
		return nil, err
	}

	doc := itemToDoc(item)
	// Positional update targets the matched day only; sibling days in the
	// same document are untouched.
	filter := bson.M{"_id": oid, "days._id": did}
	update := bson.M{
		"$push": bson.M{"days.$.items": doc},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection(p.Kind).UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, domain.ErrNotFound
	}
	added := doc.toDomain()
	return &added, nil
}

func (r *mongoPlanRepository) RemoveItem(ctx context.Context, p *domain.Plan, dayID, itemID string) error {
	oid, err := parseHex(p.MongoID)
	if err != nil {
		return err
	}
	did, err := parseHex(dayID)
	if err != nil {
		return err
	}
	iid, err := parseHex(itemID)
	if err != nil {
		return err
	}

	filter := bson.M{"_id": oid, "days._id": did}
	update := bson.M{
		"$pull": bson.M{"days.$.items": bson.M{"_id": iid}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection(p.Kind).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// EnsurePlanIndexes creates necessary indexes for a plan collection.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Plan names are unique per user within this store.
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
