package service

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"fittrack/backend/internal/domain"
	"fittrack/backend/internal/dualstore"
	"fittrack/backend/internal/repository"
)

// ProgressInput carries the writable fields of a progress entry.
type ProgressInput struct {
	WeightKG        float64
	TrainingMinutes int
	EffectiveDate   time.Time
}

// ProgressService manages a user's measurement history across both stores.
type ProgressService interface {
	Create(ctx context.Context, p dualstore.Principal, in ProgressInput) (*domain.ProgressEntry, dualstore.Outcome, error)
	List(ctx context.Context, p dualstore.Principal, page dualstore.Pagination) ([]domain.ProgressEntry, dualstore.PageInfo, error)
	Get(ctx context.Context, p dualstore.Principal, id string) (*domain.ProgressEntry, error)
	Update(ctx context.Context, p dualstore.Principal, id string, in ProgressInput) (*domain.ProgressEntry, dualstore.Outcome, error)
	Delete(ctx context.Context, p dualstore.Principal, id string) (dualstore.Outcome, error)
}

type progressService struct {
	coordinator *dualstore.Coordinator
	mongoRepo   repository.ProgressRepository
	mysqlRepo   repository.ProgressRepository
	logger      zerolog.Logger
}

// NewProgressService creates a new instance of progressService.
func NewProgressService(coordinator *dualstore.Coordinator, mongoRepo, mysqlRepo repository.ProgressRepository, logger zerolog.Logger) ProgressService {
	return &progressService{
		coordinator: coordinator,
		mongoRepo:   mongoRepo,
		mysqlRepo:   mysqlRepo,
		logger:      logger.With().Str("component", "progress").Logger(),
	}
}

func entryPtrs(entries []domain.ProgressEntry) []*domain.ProgressEntry {
	out := make([]*domain.ProgressEntry, len(entries))
	for i := range entries {
		out[i] = &entries[i]
	}
	return out
}

// correlator builds the per-request identity correlator; the owner is
// captured because every progress lookup is scoped to the calling user.
func (s *progressService) correlator(owner domain.StoreRef) *dualstore.Correlator[*domain.ProgressEntry] {
	return dualstore.NewCorrelator(s.coordinator.Mode(), dualstore.Lookups[*domain.ProgressEntry]{
		MongoByID: func(ctx context.Context, hexID string) (*domain.ProgressEntry, error) {
			return s.mongoRepo.GetByID(ctx, owner, hexID)
		},
		MySQLByID: func(ctx context.Context, id uint) (*domain.ProgressEntry, error) {
			return s.mysqlRepo.GetByID(ctx, owner, strconv.FormatUint(uint64(id), 10))
		},
		MongoByCreatedAt: func(ctx context.Context, owner domain.StoreRef, createdAt time.Time) ([]*domain.ProgressEntry, error) {
			entries, err := s.mongoRepo.FindByCreatedAt(ctx, owner, createdAt)
			return entryPtrs(entries), err
		},
		MySQLByCreatedAt: func(ctx context.Context, owner domain.StoreRef, createdAt time.Time) ([]*domain.ProgressEntry, error) {
			entries, err := s.mysqlRepo.FindByCreatedAt(ctx, owner, createdAt)
			return entryPtrs(entries), err
		},
	}, s.logger)
}

func (s *progressService) Create(ctx context.Context, p dualstore.Principal, in ProgressInput) (*domain.ProgressEntry, dualstore.Outcome, error) {
	var none dualstore.Outcome
	owner, err := ownerFrom(s.coordinator.Mode(), p)
	if err != nil {
		return nil, none, err
	}
	if in.WeightKG <= 0 && in.TrainingMinutes <= 0 {
		return nil, none, &domain.ValidationError{Field: "entry", Reason: "weight or training minutes required"}
	}

	now := stampNew()
	entry := domain.ProgressEntry{
		Owner:           owner,
		WeightKG:        in.WeightKG,
		TrainingMinutes: in.TrainingMinutes,
		EffectiveDate:   in.EffectiveDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if entry.EffectiveDate.IsZero() {
		entry.EffectiveDate = now
	}

	dual, err := dualstore.Execute(ctx, s.coordinator, dualstore.Operation[*domain.ProgressEntry]{
		Name: "progress.create",
		Mongo: func(ctx context.Context) (*domain.ProgressEntry, error) {
			e := entry
			return s.mongoRepo.Create(ctx, &e)
		},
		MySQL: func(ctx context.Context) (*domain.ProgressEntry, error) {
			e := entry
			return s.mysqlRepo.Create(ctx, &e)
		},
	})
	if err != nil {
		return nil, dual.Outcome(), err
	}

	created := entry
	if dual.Mongo.OK() {
		created.MongoID = dual.Mongo.Value.MongoID
	}
	if dual.MySQL.OK() {
		created.MySQLID = dual.MySQL.Value.MySQLID
	}
	return &created, dual.Outcome(), nil
}

func (s *progressService) List(ctx context.Context, p dualstore.Principal, page dualstore.Pagination) ([]domain.ProgressEntry, dualstore.PageInfo, error) {
	owner, err := ownerFrom(s.coordinator.Mode(), p)
	if err != nil {
		return nil, dualstore.PageInfo{}, err
	}
	page = page.Normalize()

	repo := s.mongoRepo
	if s.coordinator.Mode().Authoritative() == dualstore.StoreMySQL {
		repo = s.mysqlRepo
	}
	entries, err := repo.List(ctx, owner, page.Skip(), page.Limit)
	if err != nil {
		return nil, dualstore.PageInfo{}, err
	}
	total, err := repo.Count(ctx, owner)
	if err != nil {
		return nil, dualstore.PageInfo{}, err
	}
	return entries, dualstore.NewPageInfo(page, total), nil
}

func (s *progressService) Get(ctx context.Context, p dualstore.Principal, id string) (*domain.ProgressEntry, error) {
	owner, err := ownerFrom(s.coordinator.Mode(), p)
	if err != nil {
		return nil, err
	}
	corr, err := s.correlator(owner).Resolve(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	merged, ok := dualstore.MergeSingle(s.coordinator.Mode(), corr)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return merged, nil
}

func (s *progressService) Update(ctx context.Context, p dualstore.Principal, id string, in ProgressInput) (*domain.ProgressEntry, dualstore.Outcome, error) {
	var none dualstore.Outcome
	owner, err := ownerFrom(s.coordinator.Mode(), p)
	if err != nil {
		return nil, none, err
	}
	corr, err := s.correlator(owner).Resolve(ctx, id, owner)
	if err != nil {
		return nil, none, err
	}
	if corr.Empty() {
		return nil, none, domain.ErrNotFound
	}

	apply := func(e *domain.ProgressEntry) {
		if in.WeightKG > 0 {
			e.WeightKG = in.WeightKG
		}
		if in.TrainingMinutes > 0 {
			e.TrainingMinutes = in.TrainingMinutes
		}
		if !in.EffectiveDate.IsZero() {
			e.EffectiveDate = in.EffectiveDate
		}
	}

	op := dualstore.Operation[*domain.ProgressEntry]{Name: "progress.update"}
	if corr.Mongo != nil {
		op.Mongo = func(ctx context.Context) (*domain.ProgressEntry, error) {
			e := *corr.Mongo
			apply(&e)
			return s.mongoRepo.Update(ctx, &e)
		}
	}
	if corr.MySQL != nil {
		op.MySQL = func(ctx context.Context) (*domain.ProgressEntry, error) {
			e := *corr.MySQL
			apply(&e)
			return s.mysqlRepo.Update(ctx, &e)
		}
	}

	dual, err := dualstore.Execute(ctx, s.coordinator, op)
	if err != nil {
		return nil, dual.Outcome(), err
	}

	result := dualstore.Correlation[*domain.ProgressEntry]{}
	if dual.Mongo.OK() {
		result.Mongo = dual.Mongo.Value
	}
	if dual.MySQL.OK() {
		result.MySQL = dual.MySQL.Value
	}
	merged, _ := dualstore.MergeSingle(s.coordinator.Mode(), result)
	return merged, dual.Outcome(), nil
}

// Delete removes the entry from every store that holds it. A side with no
// counterpart record is simply not attempted and reports false in the
// breakdown.
func (s *progressService) Delete(ctx context.Context, p dualstore.Principal, id string) (dualstore.Outcome, error) {
	var none dualstore.Outcome
	owner, err := ownerFrom(s.coordinator.Mode(), p)
	if err != nil {
		return none, err
	}
	corr, err := s.correlator(owner).Resolve(ctx, id, owner)
	if err != nil {
		return none, err
	}
	if corr.Empty() {
		return none, domain.ErrNotFound
	}

	op := dualstore.Operation[bool]{Name: "progress.delete"}
	if corr.Mongo != nil {
		mongoID := corr.Mongo.MongoID
		op.Mongo = func(ctx context.Context) (bool, error) {
			return true, s.mongoRepo.Delete(ctx, owner, mongoID)
		}
	}
	if corr.MySQL != nil {
		mysqlID := strconv.FormatUint(uint64(corr.MySQL.MySQLID), 10)
		op.MySQL = func(ctx context.Context) (bool, error) {
			return true, s.mysqlRepo.Delete(ctx, owner, mysqlID)
		}
	}

	dual, err := dualstore.Execute(ctx, s.coordinator, op)
	return dual.Outcome(), err
}
