package transfer

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fittrack/backend/internal/domain"
)

const pushPlanJSON = `{
	"plan": {"name": "Push", "active": true},
	"days": [{"dayOfWeek": "Mon", "order": 0}],
	"items": [{"dayIndex": 0, "exerciseId": "1", "sets": 3, "reps": 10, "order": 0}]
}`

func TestDecodePlanJSON(t *testing.T) {
	a, err := DecodePlan(strings.NewReader(pushPlanJSON), FormatJSON)
	require.NoError(t, err)

	plan, err := a.BuildPlan(domain.PlanTraining)
	require.NoError(t, err)

	assert.Equal(t, "Push", plan.Name)
	require.Len(t, plan.Days, 1)
	assert.Equal(t, "Mon", plan.Days[0].DayOfWeek)
	require.Len(t, plan.Days[0].Items, 1)
	item := plan.Days[0].Items[0]
	require.NotNil(t, item.Exercise)
	assert.Equal(t, "1", item.Exercise.ExerciseRef)
	assert.Equal(t, 3, item.Exercise.Sets)
	assert.Equal(t, 10, item.Exercise.Reps)
	assert.Nil(t, item.Meal)
}

func TestDecodePlanYAML(t *testing.T) {
	in := `
plan:
  name: Cut
  active: true
days:
  - dayOfWeek: Tue
    order: 0
items:
  - dayIndex: 0
    recipeId: r-42
    calories: 450
    protein: 32
    order: 0
`
	a, err := DecodePlan(strings.NewReader(in), FormatYAML)
	require.NoError(t, err)

	plan, err := a.BuildPlan(domain.PlanDiet)
	require.NoError(t, err)
	require.Len(t, plan.Days, 1)
	require.Len(t, plan.Days[0].Items, 1)
	meal := plan.Days[0].Items[0].Meal
	require.NotNil(t, meal)
	assert.Equal(t, "r-42", meal.RecipeRef)
	assert.Equal(t, 450.0, meal.Calories)
}

func TestPlanRoundTripAllFormats(t *testing.T) {
	plan := &domain.Plan{
		Kind:   domain.PlanTraining,
		Name:   "Full Body",
		Active: true,
		Days: []domain.Day{
			{DayOfWeek: "Mon", Order: 0, Items: []domain.Item{
				{Order: 0, Exercise: &domain.ExerciseDetails{ExerciseRef: "squat", Sets: 5, Reps: 5}},
			}},
			{DayOfWeek: "Thu", Order: 1},
		},
	}

	for _, f := range []Format{FormatJSON, FormatXML, FormatYAML} {
		var buf bytes.Buffer
		require.NoError(t, EncodePlan(&buf, f, PlanToArchive(plan)), string(f))

		decoded, err := DecodePlan(&buf, f)
		require.NoError(t, err, string(f))
		rebuilt, err := decoded.BuildPlan(domain.PlanTraining)
		require.NoError(t, err, string(f))

		assert.Equal(t, plan.Name, rebuilt.Name, string(f))
		require.Len(t, rebuilt.Days, 2, string(f))
		require.Len(t, rebuilt.Days[0].Items, 1, string(f))
		assert.Equal(t, "squat", rebuilt.Days[0].Items[0].Exercise.ExerciseRef, string(f))
		assert.Empty(t, rebuilt.Days[1].Items, string(f))
	}
}

func TestBuildPlanRejectsDanglingDayIndex(t *testing.T) {
	a := &PlanArchive{
		Plan:  PlanHeader{Name: "Push"},
		Days:  []DayRecord{{DayOfWeek: "Mon"}},
		Items: []ItemRecord{{DayIndex: 3, ExerciseRef: "1"}},
	}
	_, err := a.BuildPlan(domain.PlanTraining)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestBuildPlanRequiresName(t *testing.T) {
	_, err := (&PlanArchive{}).BuildPlan(domain.PlanTraining)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestDecodeMalformedInput(t *testing.T) {
	_, err := DecodePlan(strings.NewReader("{not json"), FormatJSON)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestAnalysisRoundTrip(t *testing.T) {
	an := &domain.Analysis{
		Kind:           domain.AnalysisObesityGDP,
		Title:          "Obesity vs GDP PL",
		Country:        "PL",
		YearFrom:       2010,
		YearTo:         2012,
		Coefficient:    0.87,
		Interpretation: "strong positive",
		Dataset: domain.AnalysisDataset{
			Years:    []int{2010, 2011, 2012},
			Health:   []float64{19.2, 20.3, 21.5},
			Economic: []float64{12600, 13900, 13100},
		},
		RawPairs: []domain.AnalysisPair{{Year: 2010, Health: 19.2, Economic: 12600}},
	}

	for _, f := range []Format{FormatJSON, FormatYAML} {
		var buf bytes.Buffer
		require.NoError(t, EncodeAnalysis(&buf, f, AnalysisToArchive(an)), string(f))

		decoded, err := DecodeAnalysis(&buf, f)
		require.NoError(t, err, string(f))
		rebuilt, err := decoded.BuildAnalysis()
		require.NoError(t, err, string(f))

		assert.Equal(t, an.Kind, rebuilt.Kind, string(f))
		assert.Equal(t, an.Coefficient, rebuilt.Coefficient, string(f))
		assert.Equal(t, an.Dataset.Years, rebuilt.Dataset.Years, string(f))
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"", FormatJSON, false},
		{"XML", FormatXML, false},
		{"yml", FormatYAML, false},
		{"yaml", FormatYAML, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	f, err := FormatFromFilename("plan.Yml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
}

func TestSpoolUploadCleanup(t *testing.T) {
	dir := t.TempDir()
	path, cleanup, err := SpoolUpload(dir, strings.NewReader(pushPlanJSON), FormatJSON)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pushPlanJSON, string(data))
	assert.True(t, strings.HasSuffix(path, ".json"))

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
