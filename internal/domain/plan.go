package domain

import "time"

// PlanKind distinguishes the two structurally identical plan families.
type PlanKind string

const (
	PlanTraining PlanKind = "training"
	PlanDiet     PlanKind = "diet"
)

// Valid reports whether k is a known plan kind.
func (k PlanKind) Valid() bool {
	return k == PlanTraining || k == PlanDiet
}

// Plan is a training or diet plan owned by one user. Its name is unique per
// (user, kind) within each store independently; uniqueness is not enforced
// across stores.
type Plan struct {
	StoreIDs

	Kind        PlanKind  `json:"kind"`
	Owner       StoreRef  `json:"-"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	Days        []Day     `json:"days"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p *Plan) CreatedTime() time.Time { return p.CreatedAt }

// Day is one ordered section of a plan. Reachable only through its plan;
// deleting the plan removes it in both stores independently.
type Day struct {
	MongoID     string `json:"mongoId,omitempty"`
	MySQLID     uint   `json:"mysqlId,omitempty"`
	DayOfWeek   string `json:"dayOfWeek"`
	DisplayName string `json:"displayName,omitempty"`
	Order       int    `json:"order"`
	Items       []Item `json:"items"`
}

// Item is a single exercise or meal inside a day. Exactly one of Exercise
// and Meal is set. Order indices define sort order only; they are not
// required to be unique or gap-free.
type Item struct {
	MongoID  string           `json:"mongoId,omitempty"`
	MySQLID  uint             `json:"mysqlId,omitempty"`
	Order    int              `json:"order"`
	Exercise *ExerciseDetails `json:"exercise,omitempty"`
	Meal     *MealDetails     `json:"meal,omitempty"`
}

// ExerciseDetails are the domain fields of a training item.
type ExerciseDetails struct {
	ExerciseRef string  `json:"exerciseId"`
	Sets        int     `json:"sets"`
	Reps        int     `json:"reps"`
	WeightKG    float64 `json:"weightKg,omitempty"`
	RestSeconds int     `json:"restSeconds,omitempty"`
}

// MealDetails are the domain fields of a diet item.
type MealDetails struct {
	RecipeRef string  `json:"recipeId,omitempty"`
	Calories  float64 `json:"calories"`
	Protein   float64 `json:"protein,omitempty"`
	Carbs     float64 `json:"carbs,omitempty"`
	Fat       float64 `json:"fat,omitempty"`
}
