package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fittrack/backend/internal/domain"
	"fittrack/backend/internal/dualstore"
	"fittrack/backend/internal/repository"
	"fittrack/backend/internal/storage"
	"fittrack/backend/internal/transfer"
)

// DuplicateStrategy selects what an import does when the plan name is taken.
type DuplicateStrategy string

const (
	StrategyReject DuplicateStrategy = "reject"
	StrategyPrefix DuplicateStrategy = "prefix"
)

// CopyPrefix marks plans created by a prefix-strategy import.
const CopyPrefix = "Kopia - "

// ParseStrategy normalizes a user-supplied duplicate strategy.
func ParseStrategy(s string) (DuplicateStrategy, error) {
	switch DuplicateStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyReject, "":
		return StrategyReject, nil
	case StrategyPrefix:
		return StrategyPrefix, nil
	}
	return "", &domain.ValidationError{Field: "duplicateStrategy", Reason: "must be reject or prefix"}
}

// PlanInput carries the writable header fields of a plan.
type PlanInput struct {
	Name        string
	Description string
	Active      *bool
}

// ExportResult is a serialized plan handed back on export. DownloadURL is
// set only when object storage is configured.
type ExportResult struct {
	Archive     *transfer.PlanArchive
	Format      transfer.Format
	ContentType string
	ObjectKey   string
	DownloadURL string
}

// PlanService manages training and diet plans, their nested days and items,
// and the import/export flows. One service instance covers both kinds.
type PlanService interface {
	Create(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, in PlanInput) (*domain.Plan, dualstore.Outcome, error)
	List(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, page dualstore.Pagination) ([]domain.Plan, dualstore.PageInfo, error)
	Get(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, id string) (*domain.Plan, error)
	Update(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, id string, in PlanInput) (*domain.Plan, dualstore.Outcome, error)
	Delete(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, id string) (dualstore.Outcome, error)
	Exists(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, name string) (bool, error)

	AddDay(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, planID string, day domain.Day) (*domain.Day, dualstore.Outcome, error)
	RemoveDay(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, planID, dayID string) (dualstore.Outcome, error)
	AddItem(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, planID, dayID string, item domain.Item) (*domain.Item, dualstore.Outcome, error)
	RemoveItem(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, planID, dayID, itemID string) (dualstore.Outcome, error)

	Import(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, archive *transfer.PlanArchive, strategy DuplicateStrategy) (*domain.Plan, dualstore.Outcome, error)
	Export(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, id string, format transfer.Format) (*ExportResult, error)
}

type planService struct {
	coordinator *dualstore.Coordinator
	mongoRepo   repository.PlanRepository
	mysqlRepo   repository.PlanRepository
	archives    storage.ArchiveStorage // optional
	logger      zerolog.Logger
}

// NewPlanService creates a new instance of planService. archives may be nil
// when object storage is disabled.
func NewPlanService(coordinator *dualstore.Coordinator, mongoRepo, mysqlRepo repository.PlanRepository, archives storage.ArchiveStorage, logger zerolog.Logger) PlanService {
	return &planService{
		coordinator: coordinator,
		mongoRepo:   mongoRepo,
		mysqlRepo:   mysqlRepo,
		archives:    archives,
		logger:      logger.With().Str("component", "plans").Logger(),
	}
}

func (s *planService) authoritative() repository.PlanRepository {
	if s.coordinator.Mode().Authoritative() == dualstore.StoreMySQL {
		return s.mysqlRepo
	}
	return s.mongoRepo
}

func planPtrs(plans []domain.Plan) []*domain.Plan {
	out := make([]*domain.Plan, len(plans))
	for i := range plans {
		out[i] = &plans[i]
	}
	return out
}

func (s *planService) correlator(owner domain.StoreRef, kind domain.PlanKind) *dualstore.Correlator[*domain.Plan] {
	return dualstore.NewCorrelator(s.coordinator.Mode(), dualstore.Lookups[*domain.Plan]{
		MongoByID: func(ctx context.Context, hexID string) (*domain.Plan, error) {
			return s.mongoRepo.GetByID(ctx, owner, kind, hexID)
		},
		MySQLByID: func(ctx context.Context, id uint) (*domain.Plan, error) {
			return s.mysqlRepo.GetByID(ctx, owner, kind, strconv.FormatUint(uint64(id), 10))
		},
		MongoByCreatedAt: func(ctx context.Context, owner domain.StoreRef, createdAt time.Time) ([]*domain.Plan, error) {
			plans, err := s.mongoRepo.FindByCreatedAt(ctx, owner, kind, createdAt)
			return planPtrs(plans), err
		},
		MySQLByCreatedAt: func(ctx context.Context, owner domain.StoreRef, createdAt time.Time) ([]*domain.Plan, error) {
			plans, err := s.mysqlRepo.FindByCreatedAt(ctx, owner, kind, createdAt)
			return planPtrs(plans), err
		},
	}, s.logger)
}

func (s *planService) resolve(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, id string) (dualstore.Correlation[*domain.Plan], error) {
	corr, err := s.correlator(owner, kind).Resolve(ctx, id, owner)
	if err != nil {
		return corr, err
	}
	if corr.Empty() {
		return corr, domain.ErrNotFound
	}
	return corr, nil
}

func (s *planService) Create(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, in PlanInput) (*domain.Plan, dualstore.Outcome, error) {
	var none dualstore.Outcome
	owner, err := ownerFrom(s.coordinator.Mode(), p)
	if err != nil {
		return nil, none, err
	}
	if in.Name == "" {
		return nil, none, &domain.ValidationError{Field: "name", Reason: "name is required"}
	}

	now := stampNew()
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	plan := domain.Plan{
		Kind:        kind,
		Owner:       owner,
		Name:        in.Name,
		Description: in.Description,
		Active:      active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.createPlan(ctx, plan)
}

// createPlan runs the coordinated dual create for an assembled plan.
func (s *planService) createPlan(ctx context.Context, plan domain.Plan) (*domain.Plan, dualstore.Outcome, error) {
	dual, err := dualstore.Execute(ctx, s.coordinator, dualstore.Operation[*domain.Plan]{
		Name: string(plan.Kind) + "-plan.create",
		Mongo: func(ctx context.Context) (*domain.Plan, error) {
			pl := plan
			return s.mongoRepo.Create(ctx, &pl)
		},
		MySQL: func(ctx context.Context) (*domain.Plan, error) {
			pl := plan
			return s.mysqlRepo.Create(ctx, &pl)
		},
	})
	if err != nil {
		if (dual.Mongo.Err != nil && errors.Is(dual.Mongo.Err, domain.ErrConflict)) ||
			(dual.MySQL.Err != nil && errors.Is(dual.MySQL.Err, domain.ErrConflict)) {
			return nil, dual.Outcome(), domain.ErrConflict
		}
		return nil, dual.Outcome(), err
	}

	created := plan
	if dual.Mongo.OK() {
		created = *dual.Mongo.Value
	} else if dual.MySQL.OK() {
		created = *dual.MySQL.Value
	}
	if dual.Mongo.OK() {
		created.MongoID = dual.Mongo.Value.MongoID
	}
	if dual.MySQL.OK() {
		created.MySQLID = dual.MySQL.Value.MySQLID
	}
	return &created, dual.Outcome(), nil
}

func (s *planService) List(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, page dualstore.Pagination) ([]domain.Plan, dualstore.PageInfo, error) {
	owner, err := ownerFrom(s.coordinator.Mode(), p)
	if err != nil {
		return nil, dualstore.PageInfo{}, err
	}
	page = page.Normalize()

	repo := s.authoritative()
	plans, err := repo.List(ctx, owner, kind, page.Skip(), page.Limit)
	if err != nil {
		return nil, dualstore.PageInfo{}, err
	}
	total, err := repo.Count(ctx, owner, kind)
	if err != nil {
		return nil, dualstore.PageInfo{}, err
	}
	return plans, dualstore.NewPageInfo(page, total), nil
}

func (s *planService) Get(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, id string) (*domain.Plan, error) {
	owner, err := ownerFrom(s.coordinator.Mode(), p)
	if err != nil {
		return nil, err
	}
	corr, err := s.resolve(ctx, owner, kind, id)
	if err != nil {
		return nil, err
	}
	merged, _ := dualstore.MergeSingle(s.coordinator.Mode(), corr)
	return merged, nil
}

func (s *planService) Update(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, id string, in PlanInput) (*domain.Plan, dualstore.Outcome, error) {
	var none dualstore.Outcome
	owner, err := ownerFrom(s.coordinator.Mode(), p)
	if err != nil {
		return nil, none, err
	}
	corr, err := s.resolve(ctx, owner, kind, id)
	if err != nil {
		return nil, none, err
	}

	apply := func(pl *domain.Plan) {
		if in.Name != "" {
			pl.Name = in.Name
		}
		if in.Description != "" {
			pl.Description = in.Description
		}
		if in.Active != nil {
			pl.Active = *in.Active
		}
	}

	op := dualstore.Operation[*domain.Plan]{Name: string(kind) + "-plan.update"}
	if corr.Mongo != nil {
		op.Mongo = func(ctx context.Context) (*domain.Plan, error) {
			pl := *corr.Mongo
			apply(&pl)
			return s.mongoRepo.Update(ctx, &pl)
		}
	}
	if corr.MySQL != nil {
		op.MySQL = func(ctx context.Context) (*domain.Plan, error) {
			pl := *corr.MySQL
			apply(&pl)
			return s.mysqlRepo.Update(ctx, &pl)
		}
	}

	dual, err := dualstore.Execute(ctx, s.coordinator, op)
	if err != nil {
		return nil, dual.Outcome(), err
	}

	result := dualstore.Correlation[*domain.Plan]{}
	if dual.Mongo.OK() {
		result.Mongo = dual.Mongo.Value
	}
	if dual.MySQL.OK() {
		result.MySQL = dual.MySQL.Value
	}
	merged, _ := dualstore.MergeSingle(s.coordinator.Mode(), result)
	return merged, dual.Outcome(), nil
}

// Delete removes the plan and all of its days and items; each store cascades
// inside its own consistency unit.
func (s *planService) Delete(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, id string) (dualstore.Outcome, error) {
	var none dualstore.Outcome
	owner, err := ownerFrom(s.coordinator.Mode(), p)
	if err != nil {
		return none, err
	}
	corr, err := s.resolve(ctx, owner, kind, id)
	if err != nil {
		return none, err
	}

	op := dualstore.Operation[bool]{Name: string(kind) + "-plan.delete"}
	if corr.Mongo != nil {
		mongoID := corr.Mongo.MongoID
		op.Mongo = func(ctx context.Context) (bool, error) {
			return true, s.mongoRepo.Delete(ctx, owner, kind, mongoID)
		}
	}
	if corr.MySQL != nil {
		mysqlID := strconv.FormatUint(uint64(corr.MySQL.MySQLID), 10)
		op.MySQL = func(ctx context.Context) (bool, error) {
			return true, s.mysqlRepo.Delete(ctx, owner, kind, mysqlID)
		}
	}

	dual, err := dualstore.Execute(ctx, s.coordinator, op)
	return dual.Outcome(), err
}

// nameTaken checks the raw name against the authoritative store.
func (s *planService) nameTaken(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, name string) (bool, error) {
	_, err := s.authoritative().GetByName(ctx, owner, kind, name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// Exists answers the public duplicate-name check. Names carrying the copy
// prefix are import artifacts and never count as taken, so re-checking right
// after a prefix import reports false for the copy and true for the
// original.
func (s *planService) Exists(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, name string) (bool, error) {
	owner, err := ownerFrom(s.coordinator.Mode(), p)
	if err != nil {
		return false, err
	}
	if name == "" {
		return false, &domain.ValidationError{Field: "name", Reason: "name is required"}
	}
	if strings.HasPrefix(name, CopyPrefix) {
		return false, nil
	}
	return s.nameTaken(ctx, owner, kind, name)
}

// findDay locates the day identified by rawID in a store-local plan, and its
// positional match in the counterpart plan. Days carry no correlation
// timestamp, so the counterpart is matched by (dayOfWeek, order).
func findDay(plan *domain.Plan, rawID string) *domain.Day {
	if plan == nil {
		return nil
	}
	numeric, _ := strconv.ParseUint(rawID, 10, 32)
	for i := range plan.Days {
		d := &plan.Days[i]
		if (d.MongoID != "" && d.MongoID == rawID) || (numeric != 0 && d.MySQLID == uint(numeric)) {
			return d
		}
	}
	return nil
}

func matchDay(plan *domain.Plan, ref *domain.Day) *domain.Day {
	if plan == nil || ref == nil {
		return nil
	}
	for i := range plan.Days {
		d := &plan.Days[i]
		if d.DayOfWeek == ref.DayOfWeek && d.Order == ref.Order {
			return d
		}
	}
	return nil
}

func (s *planService) AddDay(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, planID string, day domain.Day) (*domain.Day, dualstore.Outcome, error) {
	var none dualstore.Outcome
	owner, err := ownerFrom(s.coordinator.Mode(), p)
	if err != nil {
		return nil, none, err
	}
	if day.DayOfWeek == "" {
		return nil, none, &domain.ValidationError{Field: "dayOfWeek", Reason: "day of week is required"}
	}
	corr, err := s.resolve(ctx, owner, kind, planID)
	if err != nil {
		return nil, none, err
	}

	op := dualstore.Operation[*domain.Day]{Name: string(kind) + "-plan.day.add"}
	if corr.Mongo != nil {
		op.Mongo = func(ctx context.Context) (*domain.Day, error) {
			d := day
			return s.mongoRepo.AddDay(ctx, corr.Mongo, &d)
		}
	}
	if corr.MySQL != nil {
		op.MySQL = func(ctx context.Context) (*domain.Day, error) {
			d := day
			return s.mysqlRepo.AddDay(ctx, corr.MySQL, &d)
		}
	}

	dual, err := dualstore.Execute(ctx, s.coordinator, op)
	if err != nil {
		return nil, dual.Outcome(), err
	}

	created := day
	if dual.Mongo.OK() {
		created.MongoID = dual.Mongo.Value.MongoID
	}
	if dual.MySQL.OK() {
		created.MySQLID = dual.MySQL.Value.MySQLID
	}
	return &created, dual.Outcome(), nil
}

func (s *planService) RemoveDay(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, planID, dayID string) (dualstore.Outcome, error) {
	var none dualstore.Outcome
	owner, err := ownerFrom(s.coordinator.Mode(), p)
	if err != nil {
		return none, err
	}
	corr, err := s.resolve(ctx, owner, kind, planID)
	if err != nil {
		return none, err
	}

	mongoDay := findDay(corr.Mongo, dayID)
	mysqlDay := findDay(corr.MySQL, dayID)
	// The id names a day in one store; the counterpart store's day is the
	// positional match.
	if mongoDay == nil {
		mongoDay = matchDay(corr.Mongo, mysqlDay)
	}
	if mysqlDay == nil {
		mysqlDay = matchDay(corr.MySQL, mongoDay)
	}
	if mongoDay == nil && mysqlDay == nil {
		return none, domain.ErrNotFound
	}

	op := dualstore.Operation[bool]{Name: string(kind) + "-plan.day.remove"}
	if mongoDay != nil {
		id := mongoDay.MongoID
		op.Mongo = func(ctx context.Context) (bool, error) {
			return true, s.mongoRepo.RemoveDay(ctx, corr.Mongo, id)
		}
	}
	if mysqlDay != nil {
		id := strconv.FormatUint(uint64(mysqlDay.MySQLID), 10)
		op.MySQL = func(ctx context.Context) (bool, error) {
			return true, s.mysqlRepo.RemoveDay(ctx, corr.MySQL, id)
		}
	}

	dual, err := dualstore.Execute(ctx, s.coordinator, op)
	return dual.Outcome(), err
}

func (s *planService) AddItem(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, planID, dayID string, item domain.Item) (*domain.Item, dualstore.Outcome, error) {
	var none dualstore.Outcome
	owner, err := ownerFrom(s.coordinator.Mode(), p)
	if err != nil {
		return nil, none, err
	}
	if item.Exercise == nil && item.Meal == nil {
		return nil, none, &domain.ValidationError{Field: "item", Reason: "exercise or meal details required"}
	}
	corr, err := s.resolve(ctx, owner, kind, planID)
	if err != nil {
		return nil, none, err
	}

	mongoDay := findDay(corr.Mongo, dayID)
	mysqlDay := findDay(corr.MySQL, dayID)
	if mongoDay == nil {
		mongoDay = matchDay(corr.Mongo, mysqlDay)
	}
	if mysqlDay == nil {
		mysqlDay = matchDay(corr.MySQL, mongoDay)
	}
	if mongoDay == nil && mysqlDay == nil {
		return nil, none, domain.ErrNotFound
	}

	op := dualstore.Operation[*domain.Item]{Name: string(kind) + "-plan.item.add"}
	if mongoDay != nil {
		id := mongoDay.MongoID
		op.Mongo = func(ctx context.Context) (*domain.Item, error) {
			it := item
			return s.mongoRepo.AddItem(ctx, corr.Mongo, id, &it)
		}
	}
	if mysqlDay != nil {
		id := strconv.FormatUint(uint64(mysqlDay.MySQLID), 10)
		op.MySQL = func(ctx context.Context) (*domain.Item, error) {
			it := item
			return s.mysqlRepo.AddItem(ctx, corr.MySQL, id, &it)
		}
	}

	dual, err := dualstore.Execute(ctx, s.coordinator, op)
	if err != nil {
		return nil, dual.Outcome(), err
	}

	created := item
	if dual.Mongo.OK() {
		created.MongoID = dual.Mongo.Value.MongoID
	}
	if dual.MySQL.OK() {
		created.MySQLID = dual.MySQL.Value.MySQLID
	}
	return &created, dual.Outcome(), nil
}

func matchItem(day *domain.Day, ref *domain.Item) *domain.Item {
	if day == nil || ref == nil {
		return nil
	}
	for i := range day.Items {
		it := &day.Items[i]
		if it.Order != ref.Order {
			continue
		}
		if (it.Exercise != nil) != (ref.Exercise != nil) {
			continue
		}
		return it
	}
	return nil
}

func findItem(day *domain.Day, rawID string) *domain.Item {
	if day == nil {
		return nil
	}
	numeric, _ := strconv.ParseUint(rawID, 10, 32)
	for i := range day.Items {
		it := &day.Items[i]
		if (it.MongoID != "" && it.MongoID == rawID) || (numeric != 0 && it.MySQLID == uint(numeric)) {
			return it
		}
	}
	return nil
}

func (s *planService) RemoveItem(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, planID, dayID, itemID string) (dualstore.Outcome, error) {
	var none dualstore.Outcome
	owner, err := ownerFrom(s.coordinator.Mode(), p)
	if err != nil {
		return none, err
	}
	corr, err := s.resolve(ctx, owner, kind, planID)
	if err != nil {
		return none, err
	}

	mongoDay := findDay(corr.Mongo, dayID)
	mysqlDay := findDay(corr.MySQL, dayID)
	if mongoDay == nil {
		mongoDay = matchDay(corr.Mongo, mysqlDay)
	}
	if mysqlDay == nil {
		mysqlDay = matchDay(corr.MySQL, mongoDay)
	}

	mongoItem := findItem(mongoDay, itemID)
	mysqlItem := findItem(mysqlDay, itemID)
	if mongoItem == nil {
		mongoItem = matchItem(mongoDay, mysqlItem)
	}
	if mysqlItem == nil {
		mysqlItem = matchItem(mysqlDay, mongoItem)
	}
	if mongoItem == nil && mysqlItem == nil {
		return none, domain.ErrNotFound
	}

	op := dualstore.Operation[bool]{Name: string(kind) + "-plan.item.remove"}
	if mongoItem != nil && mongoDay != nil {
		dayRef, itemRef := mongoDay.MongoID, mongoItem.MongoID
		op.Mongo = func(ctx context.Context) (bool, error) {
			return true, s.mongoRepo.RemoveItem(ctx, corr.Mongo, dayRef, itemRef)
		}
	}
	if mysqlItem != nil && mysqlDay != nil {
		dayRef := strconv.FormatUint(uint64(mysqlDay.MySQLID), 10)
		itemRef := strconv.FormatUint(uint64(mysqlItem.MySQLID), 10)
		op.MySQL = func(ctx context.Context) (bool, error) {
			return true, s.mysqlRepo.RemoveItem(ctx, corr.MySQL, dayRef, itemRef)
		}
	}

	dual, err := dualstore.Execute(ctx, s.coordinator, op)
	return dual.Outcome(), err
}

// Import reconstructs a plan from a parsed archive and creates it under the
// configured duplicate strategy. With the prefix strategy the copy marker is
// prepended until the name is free.
func (s *planService) Import(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, archive *transfer.PlanArchive, strategy DuplicateStrategy) (*domain.Plan, dualstore.Outcome, error) {
	var none dualstore.Outcome
	owner, err := ownerFrom(s.coordinator.Mode(), p)
	if err != nil {
		return nil, none, err
	}

	plan, err := archive.BuildPlan(kind)
	if err != nil {
		return nil, none, err
	}

	name := plan.Name
	taken, err := s.nameTaken(ctx, owner, kind, name)
	if err != nil {
		return nil, none, err
	}
	if taken {
		switch strategy {
		case StrategyPrefix:
			for taken {
				name = CopyPrefix + name
				taken, err = s.nameTaken(ctx, owner, kind, name)
				if err != nil {
					return nil, none, err
				}
			}
		default:
			return nil, none, domain.ErrConflict
		}
	}

	now := stampNew()
	plan.Name = name
	plan.Owner = owner
	plan.CreatedAt = now
	plan.UpdatedAt = now
	return s.createPlan(ctx, *plan)
}

// Export serializes the plan and, when object storage is configured, parks
// the archive there and presigns a download link.
func (s *planService) Export(ctx context.Context, p dualstore.Principal, kind domain.PlanKind, id string, format transfer.Format) (*ExportResult, error) {
	plan, err := s.Get(ctx, p, kind, id)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{
		Archive:     transfer.PlanToArchive(plan),
		Format:      format,
		ContentType: format.ContentType(),
	}
	if s.archives == nil {
		return result, nil
	}

	var buf bytes.Buffer
	if err := transfer.EncodePlan(&buf, format, result.Archive); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("exports/plans/%s/%s.%s", kind, uuid.New().String(), format.Extension())
	if err := s.archives.PutArchive(ctx, key, result.ContentType, &buf); err != nil {
		// Storage is best-effort; the inline archive still serves the export.
		s.logger.Error().Err(err).Str("key", key).Msg("archive upload failed")
		return result, nil
	}
	url, err := s.archives.DownloadURL(ctx, key, storage.DefaultDownloadExpiry)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("presign failed")
		// The uploaded object is unreachable without a link; drop it.
		if delErr := s.archives.DeleteArchive(ctx, key); delErr != nil {
			s.logger.Error().Err(delErr).Str("key", key).Msg("orphaned archive cleanup failed")
		}
		return result, nil
	}
	result.ObjectKey = key
	result.DownloadURL = url
	return result, nil
}
