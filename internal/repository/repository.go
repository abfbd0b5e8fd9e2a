package repository

import (
	"context"
	"time"

	"fittrack/backend/internal/domain"
)

// Every interface below is implemented twice: once by the document-store
// package (mongo) and once by the relational package (mysql). IDs cross the
// boundary as strings; each implementation parses its own shape (24-hex
// ObjectID vs decimal) and returns domain.ErrNotFound for the other.
//
// Create/Update return the stored record with the implementation's own
// store id filled in. FindByCreatedAt is the correlation lookup: it matches
// on (owning user, creation timestamp) and returns candidates in ascending
// key order.

// UserRepository manages user records in one store.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, skip, limit int) ([]domain.User, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, u *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// ProgressRepository manages progress entries of one user in one store.
type ProgressRepository interface {
	Create(ctx context.Context, e *domain.ProgressEntry) (*domain.ProgressEntry, error)
	GetByID(ctx context.Context, owner domain.StoreRef, id string) (*domain.ProgressEntry, error)
	List(ctx context.Context, owner domain.StoreRef, skip, limit int) ([]domain.ProgressEntry, error)
	Count(ctx context.Context, owner domain.StoreRef) (int64, error)
	FindByCreatedAt(ctx context.Context, owner domain.StoreRef, createdAt time.Time) ([]domain.ProgressEntry, error)
	Update(ctx context.Context, e *domain.ProgressEntry) (*domain.ProgressEntry, error)
	Delete(ctx context.Context, owner domain.StoreRef, id string) error
}

// PlanRepository manages training or diet plans with their nested days and
// items. Delete cascades through all owned children inside the store's own
// consistency unit (transaction or document update).
type PlanRepository interface {
	Create(ctx context.Context, p *domain.Plan) (*domain.Plan, error)
	GetByID(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, id string) (*domain.Plan, error)
	GetByName(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, name string) (*domain.Plan, error)
	List(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, skip, limit int) ([]domain.Plan, error)
	Count(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind) (int64, error)
	FindByCreatedAt(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, createdAt time.Time) ([]domain.Plan, error)
	Update(ctx context.Context, p *domain.Plan) (*domain.Plan, error)
	Delete(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, id string) error

	AddDay(ctx context.Context, p *domain.Plan, day *domain.Day) (*domain.Day, error)
	RemoveDay(ctx context.Context, p *domain.Plan, dayID string) error
	AddItem(ctx context.Context, p *domain.Plan, dayID string, item *domain.Item) (*domain.Item, error)
	RemoveItem(ctx context.Context, p *domain.Plan, dayID, itemID string) error
}

// AnalysisRepository manages stored correlation analyses in one store.
type AnalysisRepository interface {
	Create(ctx context.Context, a *domain.Analysis) (*domain.Analysis, error)
	GetByID(ctx context.Context, owner domain.StoreRef, id string) (*domain.Analysis, error)
	GetByTitle(ctx context.Context, owner domain.StoreRef, kind domain.AnalysisKind, title string) (*domain.Analysis, error)
	List(ctx context.Context, owner domain.StoreRef, skip, limit int) ([]domain.Analysis, error)
	Count(ctx context.Context, owner domain.StoreRef) (int64, error)
	FindByCreatedAt(ctx context.Context, owner domain.StoreRef, createdAt time.Time) ([]domain.Analysis, error)
	Update(ctx context.Context, a *domain.Analysis) (*domain.Analysis, error)
	Delete(ctx context.Context, owner domain.StoreRef, id string) error
}
