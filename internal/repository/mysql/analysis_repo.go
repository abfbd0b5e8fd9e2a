package mysql

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"fittrack/backend/internal/domain"
	"fittrack/backend/internal/repository"
)

type mysqlAnalysisRepository struct {
	store
}

// NewAnalysisRepository creates the relational analysis repository.
func NewAnalysisRepository(db *gorm.DB) repository.AnalysisRepository {
	return &mysqlAnalysisRepository{store{db: db}}
}

// The parallel-array dataset and raw pairs are serialized into text columns;
// only the scalar study fields participate in relational filtering.

func analysisToRow(a *domain.Analysis) (*analysisRow, error) {
	dataset, err := json.Marshal(a.Dataset)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(a.RawPairs)
	if err != nil {
		return nil, err
	}
	return &analysisRow{
		UserID:         a.Owner.MySQLID,
		Kind:           string(a.Kind),
		Title:          a.Title,
		Country:        a.Country,
		YearFrom:       a.YearFrom,
		YearTo:         a.YearTo,
		Coefficient:    a.Coefficient,
		Interpretation: a.Interpretation,
		Narrative:      a.Narrative,
		Description:    a.Description,
		Dataset:        string(dataset),
		RawData:        string(raw),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}, nil
}

func (r *analysisRow) toDomain() *domain.Analysis {
	a := &domain.Analysis{
		Owner:          domain.StoreRef{MySQLID: r.UserID},
		Kind:           domain.AnalysisKind(r.Kind),
		Country:        r.Country,
		YearFrom:       r.YearFrom,
		YearTo:         r.YearTo,
		Coefficient:    r.Coefficient,
		Interpretation: r.Interpretation,
		Narrative:      r.Narrative,
		Title:          r.Title,
		Description:    r.Description,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	a.MySQLID = r.ID
	if r.Dataset != "" {
		_ = json.Unmarshal([]byte(r.Dataset), &a.Dataset)
	}
	if r.RawData != "" {
		_ = json.Unmarshal([]byte(r.RawData), &a.RawPairs)
	}
	return a
}

func (r *mysqlAnalysisRepository) Create(ctx context.Context, a *domain.Analysis) (*domain.Analysis, error) {
	if !a.Kind.Valid() {
		return nil, &domain.ValidationError{Field: "kind", Reason: "unknown analysis kind"}
	}
	if a.Owner.MySQLID == 0 {
		return nil, &domain.ValidationError{Field: "userId", Reason: "owner is required"}
	}
	if a.Title == "" {
		return nil, &domain.ValidationError{Field: "title", Reason: "title is required"}
	}

	row, err := analysisToRow(a)
	if err != nil {
		return nil, err
	}
	if row.CreatedAt.IsZero() {
		now := time.Now().UTC()
		row.CreatedAt = now
		row.UpdatedAt = now
	}

	err = r.inTx(ctx, isoCreate, func(tx *gorm.DB) error {
		return tx.Create(row).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return row.toDomain(), nil
}

func (r *mysqlAnalysisRepository) GetByID(ctx context.Context, owner domain.StoreRef, id string) (*domain.Analysis, error) {
	aid, err := parseNumeric(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, "id = ? AND user_id = ?", aid, owner.MySQLID)
}

func (r *mysqlAnalysisRepository) GetByTitle(ctx context.Context, owner domain.StoreRef, kind domain.AnalysisKind, title string) (*domain.Analysis, error) {
	return r.findOne(ctx, "user_id = ? AND kind = ? AND title = ?", owner.MySQLID, string(kind), title)
}

func (r *mysqlAnalysisRepository) findOne(ctx context.Context, query string, args ...interface{}) (*domain.Analysis, error) {
	var row analysisRow
	err := r.inTx(ctx, isoRead, func(tx *gorm.DB) error {
		return tx.Where(query, args...).First(&row).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return row.toDomain(), nil
}

func (r *mysqlAnalysisRepository) List(ctx context.Context, owner domain.StoreRef, skip, limit int) ([]domain.Analysis, error) {
	var rows []analysisRow
	err := r.inTx(ctx, isoRead, func(tx *gorm.DB) error {
		return tx.Where("user_id = ?", owner.MySQLID).
			Order("created_at DESC, id ASC").
			Offset(skip).Limit(limit).
			Find(&rows).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	analyses := make([]domain.Analysis, 0, len(rows))
	for i := range rows {
		analyses = append(analyses, *rows[i].toDomain())
	}
	return analyses, nil
}

func (r *mysqlAnalysisRepository) Count(ctx context.Context, owner domain.StoreRef) (int64, error) {
	var total int64
	err := r.inTx(ctx, isoRead, func(tx *gorm.DB) error {
		return tx.Model(&analysisRow{}).Where("user_id = ?", owner.MySQLID).Count(&total).Error
	})
	if err != nil {
		return 0, translate(err)
	}
	return total, nil
}

func (r *mysqlAnalysisRepository) FindByCreatedAt(ctx context.Context, owner domain.StoreRef, createdAt time.Time) ([]domain.Analysis, error) {
	var rows []analysisRow
	err := r.inTx(ctx, isoRead, func(tx *gorm.DB) error {
		return tx.Where("user_id = ? AND created_at = ?", owner.MySQLID, createdAt).
			Order("id ASC").
			Find(&rows).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	analyses := make([]domain.Analysis, 0, len(rows))
	for i := range rows {
		analyses = append(analyses, *rows[i].toDomain())
	}
	return analyses, nil
}

func (r *mysqlAnalysisRepository) Update(ctx context.Context, a *domain.Analysis) (*domain.Analysis, error) {
	if a.MySQLID == 0 {
		return nil, domain.ErrNotFound
	}

	err := r.inTx(ctx, isoCreate, func(tx *gorm.DB) error {
		result := tx.Model(&analysisRow{}).
			Where("id = ? AND user_id = ?", a.MySQLID, a.Owner.MySQLID).
			Updates(map[string]interface{}{
				"title":       a.Title,
				"description": a.Description,
				"narrative":   a.Narrative,
				"updated_at":  time.Now().UTC(),
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
	return r.findOne(ctx, "id = ?", a.MySQLID)
}

func (r *mysqlAnalysisRepository) Delete(ctx context.Context, owner domain.StoreRef, id string) error {
	aid, err := parseNumeric(id)
	if err != nil {
		return err
	}
	err = r.inTx(ctx, isoDelete, func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", aid, owner.MySQLID).Delete(&analysisRow{})
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
