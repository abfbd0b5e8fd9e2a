package domain

import "time"

// AnalysisKind enumerates the four supported correlation studies.
type AnalysisKind string

const (
	AnalysisObesityGDP           AnalysisKind = "obesity-gdp"
	AnalysisLifeExpectancyGDP    AnalysisKind = "life-expectancy-gdp"
	AnalysisActivityUnemployment AnalysisKind = "activity-unemployment"
	AnalysisNutritionIncome      AnalysisKind = "nutrition-income"
)

// Valid reports whether k is a known analysis kind.
func (k AnalysisKind) Valid() bool {
	switch k {
	case AnalysisObesityGDP, AnalysisLifeExpectancyGDP,
		AnalysisActivityUnemployment, AnalysisNutritionIncome:
		return true
	}
	return false
}

// AnalysisDataset holds the aligned year-keyed series the coefficient was
// computed from. The three slices are parallel arrays.
type AnalysisDataset struct {
	Years    []int     `json:"years"`
	Health   []float64 `json:"health"`
	Economic []float64 `json:"economic"`
}

// AnalysisPair is one raw paired record before alignment.
type AnalysisPair struct {
	Year     int     `json:"year"`
	Health   float64 `json:"health"`
	Economic float64 `json:"economic"`
}

// Analysis is a stored correlation study owned by one user. Its title is
// unique per (user, kind) within each store independently.
type Analysis struct {
	StoreIDs

	Owner          StoreRef        `json:"-"`
	Kind           AnalysisKind    `json:"kind"`
	Country        string          `json:"country"`
	YearFrom       int             `json:"yearFrom"`
	YearTo         int             `json:"yearTo"`
	Coefficient    float64         `json:"coefficient"`
	Interpretation string          `json:"interpretation"`
	Narrative      string          `json:"narrative,omitempty"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	Dataset        AnalysisDataset `json:"dataset"`
	RawPairs       []AnalysisPair  `json:"rawData,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (a *Analysis) CreatedTime() time.Time { return a.CreatedAt }
