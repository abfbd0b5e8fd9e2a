package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"fittrack/backend/internal/domain"
	"fittrack/backend/internal/repository"
)

type mysqlProgressRepository struct {
	store
}

// NewProgressRepository creates the relational progress repository.
func NewProgressRepository(db *gorm.DB) repository.ProgressRepository {
	return &mysqlProgressRepository{store{db: db}}
}

func (r *mysqlProgressRepository) Create(ctx context.Context, e *domain.ProgressEntry) (*domain.ProgressEntry, error) {
	if e.Owner.MySQLID == 0 {
		return nil, &domain.ValidationError{Field: "userId", Reason: "owner is required"}
	}

	row := &progressRow{
		UserID:          e.Owner.MySQLID,
		WeightKG:        e.WeightKG,
		TrainingMinutes: e.TrainingMinutes,
		EffectiveDate:   e.EffectiveDate,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	if row.CreatedAt.IsZero() {
		now := time.Now().UTC()
		row.CreatedAt = now
		row.UpdatedAt = now
	}
	if row.EffectiveDate.IsZero() {
		row.EffectiveDate = row.CreatedAt
	}

	err := r.inTx(ctx, isoSimple, func(tx *gorm.DB) error {
		return tx.Create(row).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return row.toDomain(), nil
}

func (r *mysqlProgressRepository) GetByID(ctx context.Context, owner domain.StoreRef, id string) (*domain.ProgressEntry, error) {
	eid, err := parseNumeric(id)
	if err != nil {
		return nil, err
	}
	var row progressRow
	err = r.inTx(ctx, isoRead, func(tx *gorm.DB) error {
		return tx.Where("id = ? AND user_id = ?", eid, owner.MySQLID).First(&row).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return row.toDomain(), nil
}

func (r *mysqlProgressRepository) List(ctx context.Context, owner domain.StoreRef, skip, limit int) ([]domain.ProgressEntry, error) {
	var rows []progressRow
	err := r.inTx(ctx, isoRead, func(tx *gorm.DB) error {
		return tx.Where("user_id = ?", owner.MySQLID).
			Order("created_at DESC, id ASC").
			Offset(skip).Limit(limit).
			Find(&rows).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	entries := make([]domain.ProgressEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, *rows[i].toDomain())
	}
	return entries, nil
}

func (r *mysqlProgressRepository) Count(ctx context.Context, owner domain.StoreRef) (int64, error) {
	var total int64
	err := r.inTx(ctx, isoRead, func(tx *gorm.DB) error {
		return tx.Model(&progressRow{}).Where("user_id = ?", owner.MySQLID).Count(&total).Error
	})
	if err != nil {
		return 0, translate(err)
	}
	return total, nil
}

func (r *mysqlProgressRepository) FindByCreatedAt(ctx context.Context, owner domain.StoreRef, createdAt time.Time) ([]domain.ProgressEntry, error) {
	var rows []progressRow
	err := r.inTx(ctx, isoRead, func(tx *gorm.DB) error {
		return tx.Where("user_id = ? AND created_at = ?", owner.MySQLID, createdAt).
			Order("id ASC").
			Find(&rows).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	entries := make([]domain.ProgressEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, *rows[i].toDomain())
	}
	return entries, nil
}

func (r *mysqlProgressRepository) Update(ctx context.Context, e *domain.ProgressEntry) (*domain.ProgressEntry, error) {
	if e.MySQLID == 0 {
		return nil, domain.ErrNotFound
	}

	// created_at is never part of the update set: it is the correlation key.
	err := r.inTx(ctx, isoSimple, func(tx *gorm.DB) error {
		result := tx.Model(&progressRow{}).
			Where("id = ? AND user_id = ?", e.MySQLID, e.Owner.MySQLID).
			Updates(map[string]interface{}{
				"weight_kg":        e.WeightKG,
				"training_minutes": e.TrainingMinutes,
				"effective_date":   e.EffectiveDate,
				"updated_at":       time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	var row progressRow
	err = r.inTx(ctx, isoRead, func(tx *gorm.DB) error {
		return tx.First(&row, e.MySQLID).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return row.toDomain(), nil
}

func (r *mysqlProgressRepository) Delete(ctx context.Context, owner domain.StoreRef, id string) error {
	eid, err := parseNumeric(id)
	if err != nil {
		return err
	}
	err = r.inTx(ctx, isoDelete, func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", eid, owner.MySQLID).Delete(&progressRow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate(err)
}
