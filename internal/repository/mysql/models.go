package mysql

import (
	"time"

	"fittrack/backend/internal/domain"
)

// Relational schema: normalized tables, integer auto-increment keys,
// explicit foreign keys with cascade constraints between plan, day and item.
// The analysis series are stored as serialized text columns; only the
// scalar study fields are queried relationally.

type userRow struct {
	ID           uint        `gorm:"primaryKey"`
	Username     string      `gorm:"size:64;uniqueIndex"`
	Email        string      `gorm:"size:255;uniqueIndex"`
	PasswordHash string      `gorm:"size:255"`
	Role         string      `gorm:"size:16"`
	Profile      *profileRow `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time   `gorm:"type:datetime(3)"`
	UpdatedAt    time.Time   `gorm:"type:datetime(3)"`
}

func (userRow) TableName() string { return "users" }

type profileRow struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"uniqueIndex"`
	FirstName string `gorm:"size:64"`
	LastName  string `gorm:"size:64"`
	BirthDate *time.Time
	Gender    string `gorm:"size:16"`
	WeightKG  float64
	HeightCM  float64
}

func (profileRow) TableName() string { return "user_profiles" }

type progressRow struct {
	ID              uint `gorm:"primaryKey"`
	UserID          uint `gorm:"index:idx_progress_owner_created"`
	WeightKG        float64
	TrainingMinutes int
	EffectiveDate   time.Time `gorm:"type:datetime(3)"`
	CreatedAt       time.Time `gorm:"type:datetime(3);index:idx_progress_owner_created"`
	UpdatedAt       time.Time `gorm:"type:datetime(3)"`
}

func (progressRow) TableName() string { return "progress_entries" }

type planRow struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"uniqueIndex:idx_plan_owner_kind_name"`
	Kind        string `gorm:"size:16;uniqueIndex:idx_plan_owner_kind_name"`
	Name        string `gorm:"size:255;uniqueIndex:idx_plan_owner_kind_name"`
	Description string `gorm:"size:1024"`
	Active      bool
	Days        []planDayRow `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time    `gorm:"type:datetime(3);index"`
	UpdatedAt   time.Time    `gorm:"type:datetime(3)"`
}

func (planRow) TableName() string { return "plans" }

type planDayRow struct {
	ID          uint   `gorm:"primaryKey"`
	PlanID      uint   `gorm:"index"`
	DayOfWeek   string `gorm:"size:16"`
	DisplayName string `gorm:"size:255"`
	SortOrder   int
	Items       []dayItemRow `gorm:"foreignKey:DayID;constraint:OnDelete:CASCADE"`
}

func (planDayRow) TableName() string { return "plan_days" }

type dayItemRow struct {
	ID          uint `gorm:"primaryKey"`
	DayID       uint `gorm:"index"`
	SortOrder   int
	ItemType    string `gorm:"size:16"` // exercise | meal
	ExerciseRef string `gorm:"size:64"`
	Sets        int
	Reps        int
	WeightKG    float64
	RestSeconds int
	RecipeRef   string `gorm:"size:64"`
	Calories    float64
	Protein     float64
	Carbs       float64
	Fat         float64
}

func (dayItemRow) TableName() string { return "day_items" }

type analysisRow struct {
	ID             uint   `gorm:"primaryKey"`
	UserID         uint   `gorm:"uniqueIndex:idx_analysis_owner_kind_title"`
	Kind           string `gorm:"size:32;uniqueIndex:idx_analysis_owner_kind_title"`
	Title          string `gorm:"size:255;uniqueIndex:idx_analysis_owner_kind_title"`
	Country        string `gorm:"size:8"`
	YearFrom       int
	YearTo         int
	Coefficient    float64
	Interpretation string    `gorm:"size:64"`
	Narrative      string    `gorm:"type:text"`
	Description    string    `gorm:"size:1024"`
	Dataset        string    `gorm:"type:text"` // serialized parallel arrays
	RawData        string    `gorm:"type:text"` // serialized raw paired records
	CreatedAt      time.Time `gorm:"type:datetime(3);index:idx_analysis_owner_created"`
	UpdatedAt      time.Time `gorm:"type:datetime(3)"`
}

func (analysisRow) TableName() string { return "analyses" }

// --- converters ---

func (r *userRow) toDomain() *domain.User {
	u := &domain.User{
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         domain.Role(r.Role),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	u.MySQLID = r.ID
	if r.Profile != nil {
		u.Profile = &domain.Profile{
			FirstName: r.Profile.FirstName,
			LastName:  r.Profile.LastName,
			BirthDate: r.Profile.BirthDate,
			Gender:    r.Profile.Gender,
			WeightKG:  r.Profile.WeightKG,
			HeightCM:  r.Profile.HeightCM,
		}
	}
	return u
}

func (r *progressRow) toDomain() *domain.ProgressEntry {
	e := &domain.ProgressEntry{
		Owner:           domain.StoreRef{MySQLID: r.UserID},
		WeightKG:        r.WeightKG,
		TrainingMinutes: r.TrainingMinutes,
		EffectiveDate:   r.EffectiveDate,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	e.MySQLID = r.ID
	return e
}

func (r *dayItemRow) toDomain() domain.Item {
	it := domain.Item{MySQLID: r.ID, Order: r.SortOrder}
	switch r.ItemType {
	case "meal":
		it.Meal = &domain.MealDetails{
			RecipeRef: r.RecipeRef,
			Calories:  r.Calories,
			Protein:   r.Protein,
			Carbs:     r.Carbs,
			Fat:       r.Fat,
		}
	default:
		it.Exercise = &domain.ExerciseDetails{
			ExerciseRef: r.ExerciseRef,
			Sets:        r.Sets,
			Reps:        r.Reps,
			WeightKG:    r.WeightKG,
			RestSeconds: r.RestSeconds,
		}
	}
	return it
}

func itemToRow(dayID uint, it *domain.Item) dayItemRow {
	row := dayItemRow{DayID: dayID, SortOrder: it.Order}
	if it.Meal != nil {
		row.ItemType = "meal"
		row.RecipeRef = it.Meal.RecipeRef
		row.Calories = it.Meal.Calories
		row.Protein = it.Meal.Protein
		row.Carbs = it.Meal.Carbs
		row.Fat = it.Meal.Fat
		return row
	}
	row.ItemType = "exercise"
	if it.Exercise != nil {
		row.ExerciseRef = it.Exercise.ExerciseRef
		row.Sets = it.Exercise.Sets
		row.Reps = it.Exercise.Reps
		row.WeightKG = it.Exercise.WeightKG
		row.RestSeconds = it.Exercise.RestSeconds
	}
	return row
}

func (r *planDayRow) toDomain() domain.Day {
	day := domain.Day{
		MySQLID:     r.ID,
		DayOfWeek:   r.DayOfWeek,
		DisplayName: r.DisplayName,
		Order:       r.SortOrder,
		Items:       make([]domain.Item, 0, len(r.Items)),
	}
	for i := range r.Items {
		day.Items = append(day.Items, r.Items[i].toDomain())
	}
	return day
}

func (r *planRow) toDomain() *domain.Plan {
	p := &domain.Plan{
		Kind:        domain.PlanKind(r.Kind),
		Owner:       domain.StoreRef{MySQLID: r.UserID},
		Name:        r.Name,
		Description: r.Description,
		Active:      r.Active,
		Days:        make([]domain.Day, 0, len(r.Days)),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	p.MySQLID = r.ID
	for i := range r.Days {
		p.Days = append(p.Days, r.Days[i].toDomain())
	}
	return p
}
