package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fittrack/backend/internal/domain"
)

// Document shapes. Nested days/items live inside their parent plan document
// with locally-unique sub-ids; there is no foreign-key enforcement in this
// store, so cascades are application-enforced.

type profileDoc struct {
	FirstName string     `bson:"firstName,omitempty"`
	LastName  string     `bson:"lastName,omitempty"`
	BirthDate *time.Time `bson:"birthDate,omitempty"`
	Gender    string     `bson:"gender,omitempty"`
	WeightKG  float64    `bson:"weightKg,omitempty"`
	HeightCM  float64    `bson:"heightCm,omitempty"`
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"passwordHash"`
	Role         string             `bson:"role"`
	Profile      *profileDoc        `bson:"profile,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

type progressDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	UserID          primitive.ObjectID `bson:"userId"`
	WeightKG        float64            `bson:"weightKg"`
	TrainingMinutes int                `bson:"trainingMinutes"`
	EffectiveDate   time.Time          `bson:"effectiveDate"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

type exerciseDoc struct {
	ExerciseRef string  `bson:"exerciseId"`
	Sets        int     `bson:"sets"`
	Reps        int     `bson:"reps"`
	WeightKG    float64 `bson:"weightKg,omitempty"`
	RestSeconds int     `bson:"restSeconds,omitempty"`
}

type mealDoc struct {
	RecipeRef string  `bson:"recipeId,omitempty"`
	Calories  float64 `bson:"calories"`
	Protein   float64 `bson:"protein,omitempty"`
	Carbs     float64 `bson:"carbs,omitempty"`
	Fat       float64 `bson:"fat,omitempty"`
}

type itemDoc struct {
	ID       primitive.ObjectID `bson:"_id"`
	Order    int                `bson:"order"`
	Exercise *exerciseDoc       `bson:"exercise,omitempty"`
	Meal     *mealDoc           `bson:"meal,omitempty"`
}

type dayDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	DayOfWeek   string             `bson:"dayOfWeek"`
	DisplayName string             `bson:"displayName,omitempty"`
	Order       int                `bson:"order"`
	Items       []itemDoc          `bson:"items"`
}

type planDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      primitive.ObjectID `bson:"userId"`
	Name        string             `bson:"name"`
	Description string             `bson:"description,omitempty"`
	Active      bool               `bson:"active"`
	Days        []dayDoc           `bson:"days"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type analysisDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	UserID         primitive.ObjectID `bson:"userId"`
	Kind           string             `bson:"kind"`
	Country        string             `bson:"country"`
	YearFrom       int                `bson:"yearFrom"`
	YearTo         int                `bson:"yearTo"`
	Coefficient    float64            `bson:"coefficient"`
	Interpretation string             `bson:"interpretation"`
	Narrative      string             `bson:"narrative,omitempty"`
	Title          string             `bson:"title"`
	Description    string             `bson:"description,omitempty"`
	Years          []int              `bson:"years"`
	Health         []float64          `bson:"health"`
	Economic       []float64          `bson:"economic"`
	RawPairs       []analysisPairDoc  `bson:"rawData,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

type analysisPairDoc struct {
	Year     int     `bson:"year"`
	Health   float64 `bson:"health"`
	Economic float64 `bson:"economic"`
}

// --- converters ---

func (d *userDoc) toDomain() *domain.User {
	u := &domain.User{
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         domain.Role(d.Role),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	u.MongoID = d.ID.Hex()
	if d.Profile != nil {
		u.Profile = &domain.Profile{
			FirstName: d.Profile.FirstName,
			LastName:  d.Profile.LastName,
			BirthDate: d.Profile.BirthDate,
			Gender:    d.Profile.Gender,
			WeightKG:  d.Profile.WeightKG,
			HeightCM:  d.Profile.HeightCM,
		}
	}
	return u
}

func userToDoc(u *domain.User) *userDoc {
	d := &userDoc{
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.Profile != nil {
		d.Profile = &profileDoc{
			FirstName: u.Profile.FirstName,
			LastName:  u.Profile.LastName,
			BirthDate: u.Profile.BirthDate,
			Gender:    u.Profile.Gender,
			WeightKG:  u.Profile.WeightKG,
			HeightCM:  u.Profile.HeightCM,
		}
	}
	return d
}

func (d *progressDoc) toDomain() *domain.ProgressEntry {
	e := &domain.ProgressEntry{
		Owner:           domain.StoreRef{MongoID: d.UserID.Hex()},
		WeightKG:        d.WeightKG,
		TrainingMinutes: d.TrainingMinutes,
		EffectiveDate:   d.EffectiveDate,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	e.MongoID = d.ID.Hex()
	return e
}

func (d *itemDoc) toDomain() domain.Item {
	it := domain.Item{MongoID: d.ID.Hex(), Order: d.Order}
	if d.Exercise != nil {
		it.Exercise = &domain.ExerciseDetails{
			ExerciseRef: d.Exercise.ExerciseRef,
			Sets:        d.Exercise.Sets,
			Reps:        d.Exercise.Reps,
			WeightKG:    d.Exercise.WeightKG,
			RestSeconds: d.Exercise.RestSeconds,
		}
	}
	if d.Meal != nil {
		it.Meal = &domain.MealDetails{
			RecipeRef: d.Meal.RecipeRef,
			Calories:  d.Meal.Calories,
			Protein:   d.Meal.Protein,
			Carbs:     d.Meal.Carbs,
			Fat:       d.Meal.Fat,
		}
	}
	return it
}

func itemToDoc(it *domain.Item) itemDoc {
	d := itemDoc{ID: primitive.NewObjectID(), Order: it.Order}
	if it.MongoID != "" {
		if oid, err := primitive.ObjectIDFromHex(it.MongoID); err == nil {
			d.ID = oid
		}
	}
	if it.Exercise != nil {
		d.Exercise = &exerciseDoc{
			ExerciseRef: it.Exercise.ExerciseRef,
			Sets:        it.Exercise.Sets,
			Reps:        it.Exercise.Reps,
			WeightKG:    it.Exercise.WeightKG,
			RestSeconds: it.Exercise.RestSeconds,
		}
	}
	if it.Meal != nil {
		d.Meal = &mealDoc{
			RecipeRef: it.Meal.RecipeRef,
			Calories:  it.Meal.Calories,
			Protein:   it.Meal.Protein,
			Carbs:     it.Meal.Carbs,
			Fat:       it.Meal.Fat,
		}
	}
	return d
}

func (d *dayDoc) toDomain() domain.Day {
	day := domain.Day{
		MongoID:     d.ID.Hex(),
		DayOfWeek:   d.DayOfWeek,
		DisplayName: d.DisplayName,
		Order:       d.Order,
		Items:       make([]domain.Item, 0, len(d.Items)),
	}
	for i := range d.Items {
		day.Items = append(day.Items, d.Items[i].toDomain())
	}
	return day
}

func dayToDoc(day *domain.Day) dayDoc {
	d := dayDoc{
		ID:          primitive.NewObjectID(),
		DayOfWeek:   day.DayOfWeek,
		DisplayName: day.DisplayName,
		Order:       day.Order,
		Items:       make([]itemDoc, 0, len(day.Items)),
	}
	if day.MongoID != "" {
		if oid, err := primitive.ObjectIDFromHex(day.MongoID); err == nil {
			d.ID = oid
		}
	}
	for i := range day.Items {
		d.Items = append(d.Items, itemToDoc(&day.Items[i]))
	}
	return d
}

func (d *planDoc) toDomain(kind domain.PlanKind) *domain.Plan {
	p := &domain.Plan{
		Kind:        kind,
		Owner:       domain.StoreRef{MongoID: d.UserID.Hex()},
		Name:        d.Name,
		Description: d.Description,
		Active:      d.Active,
		Days:        make([]domain.Day, 0, len(d.Days)),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	p.MongoID = d.ID.Hex()
	for i := range d.Days {
		p.Days = append(p.Days, d.Days[i].toDomain())
	}
	return p
}

func planToDoc(p *domain.Plan, owner primitive.ObjectID) *planDoc {
	d := &planDoc{
		UserID:      owner,
		Name:        p.Name,
		Description: p.Description,
		Active:      p.Active,
		Days:        make([]dayDoc, 0, len(p.Days)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for i := range p.Days {
		d.Days = append(d.Days, dayToDoc(&p.Days[i]))
	}
	return d
}

func (d *analysisDoc) toDomain() *domain.Analysis {
	a := &domain.Analysis{
		Owner:          domain.StoreRef{MongoID: d.UserID.Hex()},
		Kind:           domain.AnalysisKind(d.Kind),
		Country:        d.Country,
		YearFrom:       d.YearFrom,
		YearTo:         d.YearTo,
		Coefficient:    d.Coefficient,
		Interpretation: d.Interpretation,
		Narrative:      d.Narrative,
		Title:          d.Title,
		Description:    d.Description,
		Dataset: domain.AnalysisDataset{
			Years:    d.Years,
			Health:   d.Health,
			Economic: d.Economic,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	a.MongoID = d.ID.Hex()
	for _, p := range d.RawPairs {
		a.RawPairs = append(a.RawPairs, domain.AnalysisPair(p))
	}
	return a
}

func analysisToDoc(a *domain.Analysis, owner primitive.ObjectID) *analysisDoc {
	d := &analysisDoc{
		UserID:         owner,
		Kind:           string(a.Kind),
		Country:        a.Country,
		YearFrom:       a.YearFrom,
		YearTo:         a.YearTo,
		Coefficient:    a.Coefficient,
		Interpretation: a.Interpretation,
		Narrative:      a.Narrative,
		Title:          a.Title,
		Description:    a.Description,
		Years:          a.Dataset.Years,
		Health:         a.Dataset.Health,
		Economic:       a.Dataset.Economic,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
	for _, p := range a.RawPairs {
		d.RawPairs = append(d.RawPairs, analysisPairDoc(p))
	}
	return d
}
