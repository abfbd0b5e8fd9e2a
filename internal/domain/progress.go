package domain

import "time"

// ProgressEntry is one measurement row belonging to exactly one user.
// CreatedAt is immutable after the first write; it doubles as the
// cross-store correlation key for the owning user.
type ProgressEntry struct {
	StoreIDs

	Owner           StoreRef  `json:"-"`
	WeightKG        float64   `json:"weightKg"`
	TrainingMinutes int       `json:"trainingMinutes"`
	EffectiveDate   time.Time `json:"effectiveDate"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (p *ProgressEntry) CreatedTime() time.Time { return p.CreatedAt }
