package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fittrack/backend/internal/domain"
	"fittrack/backend/internal/dualstore"
	"fittrack/backend/internal/repository"
	"fittrack/backend/internal/stats"
	"fittrack/backend/internal/storage"
	"fittrack/backend/internal/transfer"
)

// ErrInsufficientData is returned when the two indicator series overlap in
// fewer than two years, or one of them has no variance.
var ErrInsufficientData = errors.New("not enough overlapping data points to correlate")

// GenerateInput describes the correlation study to compute.
type GenerateInput struct {
	Kind        domain.AnalysisKind
	Country     string
	YearFrom    int
	YearTo      int
	Title       string
	Description string
}

// AnalysisExportResult is a serialized study handed back on export.
// DownloadURL is set only when object storage is configured.
type AnalysisExportResult struct {
	Archive     *transfer.AnalysisArchive
	Format      transfer.Format
	ContentType string
	ObjectKey   string
	DownloadURL string
}

// AnalysisService manages stored correlation studies, generates new ones
// from the external indicator providers and serves the archive
// import/export flows.
type AnalysisService interface {
	Generate(ctx context.Context, p dualstore.Principal, in GenerateInput) (*domain.Analysis, dualstore.Outcome, error)
	List(ctx context.Context, p dualstore.Principal, page dualstore.Pagination) ([]domain.Analysis, dualstore.PageInfo, error)
	Get(ctx context.Context, p dualstore.Principal, id string) (*domain.Analysis, error)
	Update(ctx context.Context, p dualstore.Principal, id string, title, description string) (*domain.Analysis, dualstore.Outcome, error)
	Delete(ctx context.Context, p dualstore.Principal, id string) (dualstore.Outcome, error)

	Import(ctx context.Context, p dualstore.Principal, archive *transfer.AnalysisArchive, strategy DuplicateStrategy) (*domain.Analysis, dualstore.Outcome, error)
	Export(ctx context.Context, p dualstore.Principal, id string, format transfer.Format) (*AnalysisExportResult, error)
}

type analysisService struct {
	coordinator *dualstore.Coordinator
	mongoRepo   repository.AnalysisRepository
	mysqlRepo   repository.AnalysisRepository
	health      stats.Provider
	economic    stats.Provider
	archives    storage.ArchiveStorage // optional
	logger      zerolog.Logger
}

// NewAnalysisService creates a new instance of analysisService. archives may
// be nil when object storage is disabled.
func NewAnalysisService(coordinator *dualstore.Coordinator, mongoRepo, mysqlRepo repository.AnalysisRepository, health, economic stats.Provider, archives storage.ArchiveStorage, logger zerolog.Logger) AnalysisService {
	return &analysisService{
		coordinator: coordinator,
		mongoRepo:   mongoRepo,
		mysqlRepo:   mysqlRepo,
		health:      health,
		economic:    economic,
		archives:    archives,
		logger:      logger.With().Str("component", "analyses").Logger(),
	}
}

func (s *analysisService) authoritative() repository.AnalysisRepository {
	if s.coordinator.Mode().Authoritative() == dualstore.StoreMySQL {
		return s.mysqlRepo
	}
	return s.mongoRepo
}

func analysisPtrs(analyses []domain.Analysis) []*domain.Analysis {
	out := make([]*domain.Analysis, len(analyses))
	for i := range analyses {
		out[i] = &analyses[i]
	}
	return out
}

func (s *analysisService) correlator(owner domain.StoreRef) *dualstore.Correlator[*domain.Analysis] {
	return dualstore.NewCorrelator(s.coordinator.Mode(), dualstore.Lookups[*domain.Analysis]{
		MongoByID: func(ctx context.Context, hexID string) (*domain.Analysis, error) {
			return s.mongoRepo.GetByID(ctx, owner, hexID)
		},
		MySQLByID: func(ctx context.Context, id uint) (*domain.Analysis, error) {
			return s.mysqlRepo.GetByID(ctx, owner, strconv.FormatUint(uint64(id), 10))
		},
		MongoByCreatedAt: func(ctx context.Context, owner domain.StoreRef, createdAt time.Time) ([]*domain.Analysis, error) {
			analyses, err := s.mongoRepo.FindByCreatedAt(ctx, owner, createdAt)
			return analysisPtrs(analyses), err
		},
		MySQLByCreatedAt: func(ctx context.Context, owner domain.StoreRef, createdAt time.Time) ([]*domain.Analysis, error) {
			analyses, err := s.mysqlRepo.FindByCreatedAt(ctx, owner, createdAt)
			return analysisPtrs(analyses), err
		},
	}, s.logger)
}

// Generate fetches both indicator series, aligns them by year, computes the
// Pearson coefficient and persists the study across the active stores.
func (s *analysisService) Generate(ctx context.Context, p dualstore.Principal, in GenerateInput) (*domain.Analysis, dualstore.Outcome, error) {
	var none dualstore.Outcome
	owner, err := ownerFrom(s.coordinator.Mode(), p)
	if err != nil {
		return nil, none, err
	}
	if !in.Kind.Valid() {
		return nil, none, &domain.ValidationError{Field: "kind", Reason: "unknown analysis kind"}
	}
	if in.Country == "" {
		return nil, none, &domain.ValidationError{Field: "country", Reason: "country is required"}
	}
	if in.YearFrom <= 0 || in.YearTo < in.YearFrom {
		return nil, none, &domain.ValidationError{Field: "period", Reason: "yearFrom/yearTo must form a valid range"}
	}
	if in.Title == "" {
		in.Title = fmt.Sprintf("%s %s %d-%d", in.Kind, in.Country, in.YearFrom, in.YearTo)
	}

	taken, err := s.titleTaken(ctx, owner, in.Kind, in.Title)
	if err != nil {
		return nil, none, err
	}
	if taken {
		return nil, none, domain.ErrConflict
	}

	healthCode, economicCode, _ := stats.IndicatorsFor(in.Kind)
	healthSeries, err := s.health.Series(ctx, healthCode, in.Country, in.YearFrom, in.YearTo)
	if err != nil {
		return nil, none, err
	}
	economicSeries, err := s.economic.Series(ctx, economicCode, in.Country, in.YearFrom, in.YearTo)
	if err != nil {
		return nil, none, err
	}

	dataset, pairs := alignSeries(healthSeries, economicSeries)
	coefficient, err := pearson(dataset.Health, dataset.Economic)
	if err != nil {
		return nil, none, err
	}
	interpretation := interpret(coefficient)

	now := stampNew()
	analysis := domain.Analysis{
		Owner:          owner,
		Kind:           in.Kind,
		Country:        in.Country,
		YearFrom:       in.YearFrom,
		YearTo:         in.YearTo,
		Coefficient:    coefficient,
		Interpretation: interpretation,
		Narrative:      narrative(in.Kind, in.Country, dataset, coefficient, interpretation),
		Title:          in.Title,
		Description:    in.Description,
		Dataset:        dataset,
		RawPairs:       pairs,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	return s.createAnalysis(ctx, analysis)
}

func (s *analysisService) createAnalysis(ctx context.Context, analysis domain.Analysis) (*domain.Analysis, dualstore.Outcome, error) {
	dual, err := dualstore.Execute(ctx, s.coordinator, dualstore.Operation[*domain.Analysis]{
		Name: "analysis.create",
		Mongo: func(ctx context.Context) (*domain.Analysis, error) {
			a := analysis
			return s.mongoRepo.Create(ctx, &a)
		},
		MySQL: func(ctx context.Context) (*domain.Analysis, error) {
			a := analysis
			return s.mysqlRepo.Create(ctx, &a)
		},
	})
	if err != nil {
		if (dual.Mongo.Err != nil && errors.Is(dual.Mongo.Err, domain.ErrConflict)) ||
			(dual.MySQL.Err != nil && errors.Is(dual.MySQL.Err, domain.ErrConflict)) {
			return nil, dual.Outcome(), domain.ErrConflict
		}
		return nil, dual.Outcome(), err
	}

	created := analysis
	if dual.Mongo.OK() {
		created.MongoID = dual.Mongo.Value.MongoID
	}
	if dual.MySQL.OK() {
		created.MySQLID = dual.MySQL.Value.MySQLID
	}
	return &created, dual.Outcome(), nil
}

func (s *analysisService) titleTaken(ctx context.Context, owner domain.StoreRef, kind domain.AnalysisKind, title string) (bool, error) {
	_, err := s.authoritative().GetByTitle(ctx, owner, kind, title)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// Import reconstructs a study from a parsed archive and stores it under the
// configured duplicate strategy. The coefficient and dataset come from the
// file; the indicator providers are never consulted on import.
func (s *analysisService) Import(ctx context.Context, p dualstore.Principal, archive *transfer.AnalysisArchive, strategy DuplicateStrategy) (*domain.Analysis, dualstore.Outcome, error) {
	var none dualstore.Outcome
	owner, err := ownerFrom(s.coordinator.Mode(), p)
	if err != nil {
		return nil, none, err
	}

	analysis, err := archive.BuildAnalysis()
	if err != nil {
		return nil, none, err
	}

	title := analysis.Title
	taken, err := s.titleTaken(ctx, owner, analysis.Kind, title)
	if err != nil {
		return nil, none, err
	}
	if taken {
		switch strategy {
		case StrategyPrefix:
			for taken {
				title = CopyPrefix + title
				taken, err = s.titleTaken(ctx, owner, analysis.Kind, title)
				if err != nil {
					return nil, none, err
				}
			}
		default:
			return nil, none, domain.ErrConflict
		}
	}

	now := stampNew()
	analysis.Title = title
	analysis.Owner = owner
	analysis.CreatedAt = now
	analysis.UpdatedAt = now
	return s.createAnalysis(ctx, *analysis)
}

// Export serializes the study and, when object storage is configured, parks
// the archive there and presigns a download link.
func (s *analysisService) Export(ctx context.Context, p dualstore.Principal, id string, format transfer.Format) (*AnalysisExportResult, error) {
	analysis, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	result := &AnalysisExportResult{
		Archive:     transfer.AnalysisToArchive(analysis),
		Format:      format,
		ContentType: format.ContentType(),
	}
	if s.archives == nil {
		return result, nil
	}

	var buf bytes.Buffer
	if err := transfer.EncodeAnalysis(&buf, format, result.Archive); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("exports/analyses/%s/%s.%s", analysis.Kind, uuid.New().String(), format.Extension())
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

func (s *analysisService) List(ctx context.Context, p dualstore.Principal, page dualstore.Pagination) ([]domain.Analysis, dualstore.PageInfo, error) {
	owner, err := ownerFrom(s.coordinator.Mode(), p)
	if err != nil {
		return nil, dualstore.PageInfo{}, err
	}
	page = page.Normalize()

	repo := s.authoritative()
	analyses, err := repo.List(ctx, owner, page.Skip(), page.Limit)
	if err != nil {
		return nil, dualstore.PageInfo{}, err
	}
	total, err := repo.Count(ctx, owner)
	if err != nil {
		return nil, dualstore.PageInfo{}, err
	}
	return analyses, dualstore.NewPageInfo(page, total), nil
}

func (s *analysisService) Get(ctx context.Context, p dualstore.Principal, id string) (*domain.Analysis, error) {
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

func (s *analysisService) Update(ctx context.Context, p dualstore.Principal, id string, title, description string) (*domain.Analysis, dualstore.Outcome, error) {
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

	apply := func(a *domain.Analysis) {
		if title != "" {
			a.Title = title
		}
		if description != "" {
			a.Description = description
		}
	}

	op := dualstore.Operation[*domain.Analysis]{Name: "analysis.update"}
	if corr.Mongo != nil {
		op.Mongo = func(ctx context.Context) (*domain.Analysis, error) {
			a := *corr.Mongo
			apply(&a)
			return s.mongoRepo.Update(ctx, &a)
		}
	}
	if corr.MySQL != nil {
		op.MySQL = func(ctx context.Context) (*domain.Analysis, error) {
			a := *corr.MySQL
			apply(&a)
			return s.mysqlRepo.Update(ctx, &a)
		}
	}

	dual, err := dualstore.Execute(ctx, s.coordinator, op)
	if err != nil {
		return nil, dual.Outcome(), err
	}

	result := dualstore.Correlation[*domain.Analysis]{}
	if dual.Mongo.OK() {
		result.Mongo = dual.Mongo.Value
	}
	if dual.MySQL.OK() {
		result.MySQL = dual.MySQL.Value
	}
	merged, _ := dualstore.MergeSingle(s.coordinator.Mode(), result)
	return merged, dual.Outcome(), nil
}

func (s *analysisService) Delete(ctx context.Context, p dualstore.Principal, id string) (dualstore.Outcome, error) {
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

	op := dualstore.Operation[bool]{Name: "analysis.delete"}
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

// --- correlation math ---

// alignSeries intersects the two series on year and returns the parallel
// arrays together with the raw paired records, years ascending.
func alignSeries(health, economic stats.Series) (domain.AnalysisDataset, []domain.AnalysisPair) {
	years := make([]int, 0, len(health))
	for year := range health {
		if _, ok := economic[year]; ok {
			years = append(years, year)
		}
	}
	sort.Ints(years)

	dataset := domain.AnalysisDataset{
		Years:    years,
		Health:   make([]float64, len(years)),
		Economic: make([]float64, len(years)),
	}
	pairs := make([]domain.AnalysisPair, len(years))
	for i, year := range years {
		dataset.Health[i] = health[year]
		dataset.Economic[i] = economic[year]
		pairs[i] = domain.AnalysisPair{Year: year, Health: health[year], Economic: economic[year]}
	}
	return dataset, pairs
}

// pearson computes the sample correlation coefficient of two equal-length
// series.
func pearson(xs, ys []float64) (float64, error) {
	n := float64(len(xs))
	if len(xs) < 2 || len(xs) != len(ys) {
		return 0, ErrInsufficientData
	}

	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, ErrInsufficientData
	}
	return cov / math.Sqrt(varX*varY), nil
}

// interpret maps a coefficient to its qualitative label.
func interpret(r float64) string {
	direction := "positive"
	if r < 0 {
		direction = "negative"
	}
	abs := math.Abs(r)
	switch {
	case abs >= 0.9:
		return "very strong " + direction
	case abs >= 0.7:
		return "strong " + direction
	case abs >= 0.4:
		return "moderate " + direction
	case abs >= 0.2:
		return "weak " + direction
	}
	return "negligible"
}

func narrative(kind domain.AnalysisKind, country string, dataset domain.AnalysisDataset, r float64, interpretation string) string {
	return fmt.Sprintf(
		"Across %d overlapping years for %s, the %s study shows a %s correlation (r = %.3f).",
		len(dataset.Years), country, kind, interpretation, r,
	)
}
