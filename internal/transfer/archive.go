package transfer

import (
	"fittrack/backend/internal/domain"
)

// Archives are the flat interchange shape for import/export files. Days and
// items are carried as separate lists with positional references so the same
// structure round-trips through JSON, XML and YAML without nesting tricks.

// PlanArchive is one exported or imported plan file.
type PlanArchive struct {
	Plan  PlanHeader   `json:"plan" xml:"plan" yaml:"plan"`
	Days  []DayRecord  `json:"days" xml:"days>day" yaml:"days"`
	Items []ItemRecord `json:"items" xml:"items>item" yaml:"items"`
}

// PlanHeader carries the plan-level fields.
type PlanHeader struct {
	Name        string `json:"name" xml:"name" yaml:"name"`
	Description string `json:"description,omitempty" xml:"description,omitempty" yaml:"description,omitempty"`
	Active      bool   `json:"active" xml:"active" yaml:"active"`
}

// DayRecord is one day of the plan; its position in the list is what item
// records point at.
type DayRecord struct {
	DayOfWeek   string `json:"dayOfWeek" xml:"dayOfWeek" yaml:"dayOfWeek"`
	DisplayName string `json:"displayName,omitempty" xml:"displayName,omitempty" yaml:"displayName,omitempty"`
	Order       int    `json:"order" xml:"order" yaml:"order"`
}

// ItemRecord is one exercise or meal. DayIndex references a position in the
// Days list. Exercise fields and meal fields are flattened side by side; an
// empty RecipeRef with zero calories marks an exercise record.
type ItemRecord struct {
	DayIndex int `json:"dayIndex" xml:"dayIndex" yaml:"dayIndex"`
	Order    int `json:"order" xml:"order" yaml:"order"`

	ExerciseRef string  `json:"exerciseId,omitempty" xml:"exerciseId,omitempty" yaml:"exerciseId,omitempty"`
	Sets        int     `json:"sets,omitempty" xml:"sets,omitempty" yaml:"sets,omitempty"`
	Reps        int     `json:"reps,omitempty" xml:"reps,omitempty" yaml:"reps,omitempty"`
	WeightKG    float64 `json:"weightKg,omitempty" xml:"weightKg,omitempty" yaml:"weightKg,omitempty"`
	RestSeconds int     `json:"restSeconds,omitempty" xml:"restSeconds,omitempty" yaml:"restSeconds,omitempty"`

	RecipeRef string  `json:"recipeId,omitempty" xml:"recipeId,omitempty" yaml:"recipeId,omitempty"`
	Calories  float64 `json:"calories,omitempty" xml:"calories,omitempty" yaml:"calories,omitempty"`
	Protein   float64 `json:"protein,omitempty" xml:"protein,omitempty" yaml:"protein,omitempty"`
	Carbs     float64 `json:"carbs,omitempty" xml:"carbs,omitempty" yaml:"carbs,omitempty"`
	Fat       float64 `json:"fat,omitempty" xml:"fat,omitempty" yaml:"fat,omitempty"`
}

// AnalysisArchive is one exported or imported analysis file.
type AnalysisArchive struct {
	Analysis AnalysisHeader        `json:"analysis" xml:"analysis" yaml:"analysis"`
	Dataset  DatasetRecord         `json:"dataset" xml:"dataset" yaml:"dataset"`
	RawData  []domain.AnalysisPair `json:"rawData,omitempty" xml:"rawData>pair,omitempty" yaml:"rawData,omitempty"`
}

// AnalysisHeader carries the analysis-level fields.
type AnalysisHeader struct {
	Kind           string  `json:"kind" xml:"kind" yaml:"kind"`
	Title          string  `json:"title" xml:"title" yaml:"title"`
	Description    string  `json:"description,omitempty" xml:"description,omitempty" yaml:"description,omitempty"`
	Country        string  `json:"country" xml:"country" yaml:"country"`
	YearFrom       int     `json:"yearFrom" xml:"yearFrom" yaml:"yearFrom"`
	YearTo         int     `json:"yearTo" xml:"yearTo" yaml:"yearTo"`
	Coefficient    float64 `json:"coefficient" xml:"coefficient" yaml:"coefficient"`
	Interpretation string  `json:"interpretation" xml:"interpretation" yaml:"interpretation"`
	Narrative      string  `json:"narrative,omitempty" xml:"narrative,omitempty" yaml:"narrative,omitempty"`
}

// DatasetRecord mirrors the aligned parallel arrays.
type DatasetRecord struct {
	Years    []int     `json:"years" xml:"years>year" yaml:"years"`
	Health   []float64 `json:"health" xml:"health>value" yaml:"health"`
	Economic []float64 `json:"economic" xml:"economic>value" yaml:"economic"`
}

// BuildPlan reconstructs a domain plan from an archive. Item records whose
// day index points outside the day list are rejected.
func (a *PlanArchive) BuildPlan(kind domain.PlanKind) (*domain.Plan, error) {
	if a.Plan.Name == "" {
		return nil, &domain.ValidationError{Field: "plan.name", Reason: "name is required"}
	}

	plan := &domain.Plan{
		Kind:        kind,
		Name:        a.Plan.Name,
		Description: a.Plan.Description,
		Active:      a.Plan.Active,
		Days:        make([]domain.Day, len(a.Days)),
	}
	for i, d := range a.Days {
		plan.Days[i] = domain.Day{
			DayOfWeek:   d.DayOfWeek,
			DisplayName: d.DisplayName,
			Order:       d.Order,
		}
	}
	for _, it := range a.Items {
		if it.DayIndex < 0 || it.DayIndex >= len(plan.Days) {
			return nil, &domain.ValidationError{Field: "items.dayIndex", Reason: "does not reference a listed day"}
		}
		item := domain.Item{Order: it.Order}
		if it.RecipeRef != "" || it.Calories > 0 {
			item.Meal = &domain.MealDetails{
				RecipeRef: it.RecipeRef,
				Calories:  it.Calories,
				Protein:   it.Protein,
				Carbs:     it.Carbs,
				Fat:       it.Fat,
			}
		} else {
			item.Exercise = &domain.ExerciseDetails{
				ExerciseRef: it.ExerciseRef,
				Sets:        it.Sets,
				Reps:        it.Reps,
				WeightKG:    it.WeightKG,
				RestSeconds: it.RestSeconds,
			}
		}
		day := &plan.Days[it.DayIndex]
		day.Items = append(day.Items, item)
	}
	return plan, nil
}

// PlanToArchive flattens a domain plan into the interchange shape.
func PlanToArchive(p *domain.Plan) *PlanArchive {
	a := &PlanArchive{
		Plan: PlanHeader{
			Name:        p.Name,
			Description: p.Description,
			Active:      p.Active,
		},
	}
	for i := range p.Days {
		day := &p.Days[i]
		a.Days = append(a.Days, DayRecord{
			DayOfWeek:   day.DayOfWeek,
			DisplayName: day.DisplayName,
			Order:       day.Order,
		})
		for j := range day.Items {
			it := &day.Items[j]
			rec := ItemRecord{DayIndex: i, Order: it.Order}
			if it.Meal != nil {
				rec.RecipeRef = it.Meal.RecipeRef
				rec.Calories = it.Meal.Calories
				rec.Protein = it.Meal.Protein
				rec.Carbs = it.Meal.Carbs
				rec.Fat = it.Meal.Fat
			} else if it.Exercise != nil {
				rec.ExerciseRef = it.Exercise.ExerciseRef
				rec.Sets = it.Exercise.Sets
				rec.Reps = it.Exercise.Reps
				rec.WeightKG = it.Exercise.WeightKG
				rec.RestSeconds = it.Exercise.RestSeconds
			}
			a.Items = append(a.Items, rec)
		}
	}
	return a
}

// BuildAnalysis reconstructs a domain analysis from an archive.
func (a *AnalysisArchive) BuildAnalysis() (*domain.Analysis, error) {
	kind := domain.AnalysisKind(a.Analysis.Kind)
	if !kind.Valid() {
		return nil, &domain.ValidationError{Field: "analysis.kind", Reason: "unknown analysis kind"}
	}
	if a.Analysis.Title == "" {
		return nil, &domain.ValidationError{Field: "analysis.title", Reason: "title is required"}
	}
	return &domain.Analysis{
		Kind:           kind,
		Title:          a.Analysis.Title,
		Description:    a.Analysis.Description,
		Country:        a.Analysis.Country,
		YearFrom:       a.Analysis.YearFrom,
		YearTo:         a.Analysis.YearTo,
		Coefficient:    a.Analysis.Coefficient,
		Interpretation: a.Analysis.Interpretation,
		Narrative:      a.Analysis.Narrative,
		Dataset: domain.AnalysisDataset{
			Years:    a.Dataset.Years,
			Health:   a.Dataset.Health,
			Economic: a.Dataset.Economic,
		},
		RawPairs: a.RawData,
	}, nil
}

// AnalysisToArchive flattens a domain analysis into the interchange shape.
func AnalysisToArchive(an *domain.Analysis) *AnalysisArchive {
	return &AnalysisArchive{
		Analysis: AnalysisHeader{
			Kind:           string(an.Kind),
			Title:          an.Title,
			Description:    an.Description,
			Country:        an.Country,
			YearFrom:       an.YearFrom,
			YearTo:         an.YearTo,
			Coefficient:    an.Coefficient,
			Interpretation: an.Interpretation,
			Narrative:      an.Narrative,
		},
		Dataset: DatasetRecord{
			Years:    an.Dataset.Years,
			Health:   an.Dataset.Health,
			Economic: an.Dataset.Economic,
		},
		RawData: an.RawPairs,
	}
}
