package service

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fittrack/backend/internal/domain"
	"fittrack/backend/internal/dualstore"
	"fittrack/backend/internal/transfer"
)

func newPlanFixture(mode dualstore.Mode) (PlanService, *fakePlanRepo, *fakePlanRepo) {
	mongoRepo := newFakePlanRepo(sideMongo)
	mysqlRepo := newFakePlanRepo(sideMySQL)
	coordinator := dualstore.NewCoordinator(mode, zerolog.Nop())
	svc := NewPlanService(coordinator, mongoRepo, mysqlRepo, nil, zerolog.Nop())
	return svc, mongoRepo, mysqlRepo
}

func pushArchive() *transfer.PlanArchive {
	return &transfer.PlanArchive{
		Plan: transfer.PlanHeader{Name: "Push"},
		Days: []transfer.DayRecord{{DayOfWeek: "Mon", Order: 0}},
		Items: []transfer.ItemRecord{
			{DayIndex: 0, ExerciseRef: "1", Sets: 3, Reps: 10, Order: 0},
		},
	}
}

func TestPlanCreateWritesBothStores(t *testing.T) {
	svc, _, _ := newPlanFixture(dualstore.ModeDual)

	plan, outcome, err := svc.Create(context.Background(), testPrincipal(), domain.PlanTraining, PlanInput{Name: "Push"})
	require.NoError(t, err)

	assert.True(t, outcome.Mongo)
	assert.True(t, outcome.MySQL)
	assert.NotEmpty(t, plan.MongoID)
	assert.NotZero(t, plan.MySQLID)
	assert.True(t, plan.Active, "plans default to active")
}

func TestPlanCreateDuplicateNameConflicts(t *testing.T) {
	svc, _, _ := newPlanFixture(dualstore.ModeDual)

	_, _, err := svc.Create(context.Background(), testPrincipal(), domain.PlanTraining, PlanInput{Name: "Push"})
	require.NoError(t, err)

	_, _, err = svc.Create(context.Background(), testPrincipal(), domain.PlanTraining, PlanInput{Name: "Push"})
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestPlanKindsAreSeparateNamespaces(t *testing.T) {
	svc, _, _ := newPlanFixture(dualstore.ModeDual)

	_, _, err := svc.Create(context.Background(), testPrincipal(), domain.PlanTraining, PlanInput{Name: "Push"})
	require.NoError(t, err)

	_, _, err = svc.Create(context.Background(), testPrincipal(), domain.PlanDiet, PlanInput{Name: "Push"})
	require.NoError(t, err, "same name under a different kind is not a duplicate")
}

func TestPlanImportRejectStrategy(t *testing.T) {
	svc, _, _ := newPlanFixture(dualstore.ModeDual)

	_, _, err := svc.Create(context.Background(), testPrincipal(), domain.PlanTraining, PlanInput{Name: "Push"})
	require.NoError(t, err)

	_, _, err = svc.Import(context.Background(), testPrincipal(), domain.PlanTraining, pushArchive(), StrategyReject)
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestPlanImportPrefixStrategyRenamesCopy(t *testing.T) {
	svc, _, _ := newPlanFixture(dualstore.ModeDual)
	ctx := context.Background()

	_, _, err := svc.Create(ctx, testPrincipal(), domain.PlanTraining, PlanInput{Name: "Push"})
	require.NoError(t, err)

	imported, outcome, err := svc.Import(ctx, testPrincipal(), domain.PlanTraining, pushArchive(), StrategyPrefix)
	require.NoError(t, err)

	assert.Equal(t, "Kopia - Push", imported.Name)
	assert.True(t, outcome.Mongo)
	assert.True(t, outcome.MySQL)
	require.Len(t, imported.Days, 1)
	require.Len(t, imported.Days[0].Items, 1)
	require.NotNil(t, imported.Days[0].Items[0].Exercise)
	assert.Equal(t, 3, imported.Days[0].Items[0].Exercise.Sets)

	// A second import of the same archive stacks the prefix instead of
	// colliding with the first copy.
	again, _, err := svc.Import(ctx, testPrincipal(), domain.PlanTraining, pushArchive(), StrategyPrefix)
	require.NoError(t, err)
	assert.Equal(t, "Kopia - Kopia - Push", again.Name)
}

func TestPlanExistsIgnoresCopies(t *testing.T) {
	svc, _, _ := newPlanFixture(dualstore.ModeDual)
	ctx := context.Background()

	_, _, err := svc.Create(ctx, testPrincipal(), domain.PlanTraining, PlanInput{Name: "Push"})
	require.NoError(t, err)
	_, _, err = svc.Import(ctx, testPrincipal(), domain.PlanTraining, pushArchive(), StrategyPrefix)
	require.NoError(t, err)

	exists, err := svc.Exists(ctx, testPrincipal(), domain.PlanTraining, "Push")
	require.NoError(t, err)
	assert.True(t, exists, "the original keeps reading as taken")

	exists, err = svc.Exists(ctx, testPrincipal(), domain.PlanTraining, "Kopia - Push")
	require.NoError(t, err)
	assert.False(t, exists, "copies never count as taken")
}

func TestPlanImportIntoEmptyLibrary(t *testing.T) {
	svc, _, _ := newPlanFixture(dualstore.ModeDual)

	imported, _, err := svc.Import(context.Background(), testPrincipal(), domain.PlanTraining, pushArchive(), StrategyPrefix)
	require.NoError(t, err)
	assert.Equal(t, "Push", imported.Name, "no conflict, no prefix")
}

func TestPlanImportValidatesArchive(t *testing.T) {
	svc, _, _ := newPlanFixture(dualstore.ModeDual)

	archive := pushArchive()
	archive.Items[0].DayIndex = 5 // dangling reference
	_, _, err := svc.Import(context.Background(), testPrincipal(), domain.PlanTraining, archive, StrategyReject)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestPlanGetResolvesEitherIDShape(t *testing.T) {
	svc, _, _ := newPlanFixture(dualstore.ModeDual)

	created, _, err := svc.Create(context.Background(), testPrincipal(), domain.PlanTraining, PlanInput{Name: "Cut"})
	require.NoError(t, err)

	plan, err := svc.Get(context.Background(), testPrincipal(), domain.PlanTraining, created.MongoID)
	require.NoError(t, err)
	assert.Equal(t, created.MySQLID, plan.MySQLID)

	_, err = svc.Get(context.Background(), testPrincipal(), domain.PlanDiet, created.MongoID)
	require.ErrorIs(t, err, domain.ErrNotFound, "kinds do not leak into each other")
}

func TestPlanDayAndItemLifecycle(t *testing.T) {
	svc, mongoRepo, mysqlRepo := newPlanFixture(dualstore.ModeDual)
	ctx := context.Background()

	plan, _, err := svc.Create(ctx, testPrincipal(), domain.PlanTraining, PlanInput{Name: "Split"})
	require.NoError(t, err)

	day, outcome, err := svc.AddDay(ctx, testPrincipal(), domain.PlanTraining, plan.MongoID, domain.Day{DayOfWeek: "Mon", Order: 0})
	require.NoError(t, err)
	assert.True(t, outcome.Mongo)
	assert.True(t, outcome.MySQL)
	assert.NotEmpty(t, day.MongoID)
	assert.NotZero(t, day.MySQLID)

	item, outcome, err := svc.AddItem(ctx, testPrincipal(), domain.PlanTraining, plan.MongoID, day.MongoID, domain.Item{
		Order:    0,
		Exercise: &domain.ExerciseDetails{ExerciseRef: "squat", Sets: 5, Reps: 5},
	})
	require.NoError(t, err)
	assert.True(t, outcome.Mongo)
	assert.True(t, outcome.MySQL, "document-store day id maps to the relational day positionally")
	assert.NotEmpty(t, item.MongoID)
	assert.NotZero(t, item.MySQLID)

	// Removing the day by its relational id must also remove the
	// positional match in the document store.
	outcome, err = svc.RemoveDay(ctx, testPrincipal(), domain.PlanTraining, plan.MongoID, formatUint(day.MySQLID))
	require.NoError(t, err)
	assert.True(t, outcome.Mongo)
	assert.True(t, outcome.MySQL)

	assert.Empty(t, mongoRepo.plans[0].Days)
	assert.Empty(t, mysqlRepo.plans[0].Days)
}

func TestPlanAddItemRequiresDetails(t *testing.T) {
	svc, _, _ := newPlanFixture(dualstore.ModeDual)
	ctx := context.Background()

	plan, _, err := svc.Create(ctx, testPrincipal(), domain.PlanTraining, PlanInput{Name: "Bulk"})
	require.NoError(t, err)
	day, _, err := svc.AddDay(ctx, testPrincipal(), domain.PlanTraining, plan.MongoID, domain.Day{DayOfWeek: "Tue"})
	require.NoError(t, err)

	_, _, err = svc.AddItem(ctx, testPrincipal(), domain.PlanTraining, plan.MongoID, day.MongoID, domain.Item{Order: 0})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestPlanDeleteRemovesFromBothStores(t *testing.T) {
	svc, mongoRepo, mysqlRepo := newPlanFixture(dualstore.ModeDual)
	ctx := context.Background()

	plan, _, err := svc.Create(ctx, testPrincipal(), domain.PlanTraining, PlanInput{Name: "Old"})
	require.NoError(t, err)
	_, _, err = svc.AddDay(ctx, testPrincipal(), domain.PlanTraining, plan.MongoID, domain.Day{DayOfWeek: "Fri"})
	require.NoError(t, err)

	outcome, err := svc.Delete(ctx, testPrincipal(), domain.PlanTraining, plan.MongoID)
	require.NoError(t, err)
	assert.True(t, outcome.Mongo)
	assert.True(t, outcome.MySQL)
	assert.Empty(t, mongoRepo.plans)
	assert.Empty(t, mysqlRepo.plans)
}

func TestPlanUpdateSurvivesSingleStoreFailure(t *testing.T) {
	svc, _, mysqlRepo := newPlanFixture(dualstore.ModeDual)
	ctx := context.Background()

	plan, _, err := svc.Create(ctx, testPrincipal(), domain.PlanTraining, PlanInput{Name: "Push"})
	require.NoError(t, err)

	// Drop the relational record so only the document side holds the plan.
	require.NoError(t, mysqlRepo.Delete(ctx, domain.StoreRef{}, domain.PlanTraining, formatUint(plan.MySQLID)))

	updated, outcome, err := svc.Update(ctx, testPrincipal(), domain.PlanTraining, plan.MongoID, PlanInput{Description: "heavy triples"})
	require.NoError(t, err)
	assert.True(t, outcome.Mongo)
	assert.False(t, outcome.MySQL)
	assert.Equal(t, "heavy triples", updated.Description)
}

func TestPlanExportInline(t *testing.T) {
	svc, _, _ := newPlanFixture(dualstore.ModeDual)
	ctx := context.Background()

	plan, _, err := svc.Create(ctx, testPrincipal(), domain.PlanTraining, PlanInput{Name: "Push"})
	require.NoError(t, err)
	day, _, err := svc.AddDay(ctx, testPrincipal(), domain.PlanTraining, plan.MongoID, domain.Day{DayOfWeek: "Mon", Order: 0})
	require.NoError(t, err)
	_, _, err = svc.AddItem(ctx, testPrincipal(), domain.PlanTraining, plan.MongoID, day.MongoID, domain.Item{
		Exercise: &domain.ExerciseDetails{ExerciseRef: "bench", Sets: 3, Reps: 10},
	})
	require.NoError(t, err)

	result, err := svc.Export(ctx, testPrincipal(), domain.PlanTraining, plan.MongoID, transfer.FormatYAML)
	require.NoError(t, err)

	assert.Empty(t, result.DownloadURL, "no object storage configured")
	assert.Equal(t, "application/yaml", result.ContentType)
	require.NotNil(t, result.Archive)
	assert.Equal(t, "Push", result.Archive.Plan.Name)
	require.Len(t, result.Archive.Days, 1)
	require.Len(t, result.Archive.Items, 1)
	assert.Equal(t, 0, result.Archive.Items[0].DayIndex)
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		raw     string
		want    DuplicateStrategy
		wantErr bool
	}{
		{raw: "", want: StrategyReject},
		{raw: "reject", want: StrategyReject},
		{raw: "prefix", want: StrategyPrefix},
		{raw: "PREFIX", want: StrategyPrefix},
		{raw: "overwrite", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.raw)
		if tt.wantErr {
			assert.Error(t, err, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func formatUint(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func TestPlanExportPresignFailureDropsOrphan(t *testing.T) {
	mongoRepo := newFakePlanRepo(sideMongo)
	mysqlRepo := newFakePlanRepo(sideMySQL)
	archives := newFakeArchiveStorage()
	archives.presignErr = errors.New("presign refused")
	coordinator := dualstore.NewCoordinator(dualstore.ModeDual, zerolog.Nop())
	svc := NewPlanService(coordinator, mongoRepo, mysqlRepo, archives, zerolog.Nop())
	ctx := context.Background()

	plan, _, err := svc.Create(ctx, testPrincipal(), domain.PlanTraining, PlanInput{Name: "Push"})
	require.NoError(t, err)

	result, err := svc.Export(ctx, testPrincipal(), domain.PlanTraining, plan.MongoID, transfer.FormatJSON)
	require.NoError(t, err, "export still serves the inline archive")

	assert.Empty(t, result.DownloadURL)
	require.NotNil(t, result.Archive)
	assert.Empty(t, archives.objects, "unreachable upload is removed")
}
