package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"fittrack/backend/internal/domain"
	"fittrack/backend/internal/repository"
)

type mysqlPlanRepository struct {
	store
}

// NewPlanRepository creates the relational plan repository. A single set
// of tables carries training and diet plans; the kind column partitions
// them.
func NewPlanRepository(db *gorm.DB) repository.PlanRepository {
	return &mysqlPlanRepository{store{db: db}}
}

func planToRow(p *domain.Plan) *planRow {
	row := &planRow{
		UserID:      p.Owner.MySQLID,
		Kind:        string(p.Kind),
		Name:        p.Name,
		Description: p.Description,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for i := range p.Days {
		day := &p.Days[i]
		dayRow := planDayRow{
			DayOfWeek:   day.DayOfWeek,
			DisplayName: day.DisplayName,
			SortOrder:   day.Order,
		}
		for j := range day.Items {
			dayRow.Items = append(dayRow.Items, itemToRow(0, &day.Items[j]))
		}
		row.Days = append(row.Days, dayRow)
	}
	return row
}

func (r *mysqlPlanRepository) Create(ctx context.Context, p *domain.Plan) (*domain.Plan, error) {
	if !p.Kind.Valid() {
		return nil, &domain.ValidationError{Field: "kind", Reason: "unknown plan kind"}
	}
	if p.Owner.MySQLID == 0 {
		return nil, &domain.ValidationError{Field: "userId", Reason: "owner is required"}
	}
	if p.Name == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "name is required"}
	}

	row := planToRow(p)
	if row.CreatedAt.IsZero() {
		now := time.Now().UTC()
		row.CreatedAt = now
		row.UpdatedAt = now
	}

	// Serializable: the unique (owner, kind, name) check and the insert
	// must not race a concurrent create of the same name.
	err := r.inTx(ctx, isoCreate, func(tx *gorm.DB) error {
		return tx.Create(row).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return row.toDomain(), nil
}

func (r *mysqlPlanRepository) GetByID(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, id string) (*domain.Plan, error) {
	pid, err := parseNumeric(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, "id = ? AND user_id = ? AND kind = ?", pid, owner.MySQLID, string(kind))
}

func (r *mysqlPlanRepository) GetByName(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, name string) (*domain.Plan, error) {
	return r.findOne(ctx, "user_id = ? AND kind = ? AND name = ?", owner.MySQLID, string(kind), name)
}

func (r *mysqlPlanRepository) findOne(ctx context.Context, query string, args ...interface{}) (*domain.Plan, error) {
	var row planRow
	err := r.inTx(ctx, isoRead, func(tx *gorm.DB) error {
		return tx.Preload("Days", func(db *gorm.DB) *gorm.DB {
			return db.Order("plan_days.sort_order ASC, plan_days.id ASC")
		}).Preload("Days.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_items.sort_order ASC, day_items.id ASC")
		}).Where(query, args...).First(&row).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return row.toDomain(), nil
}

func (r *mysqlPlanRepository) List(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, skip, limit int) ([]domain.Plan, error) {
	var rows []planRow
	err := r.inTx(ctx, isoRead, func(tx *gorm.DB) error {
		return tx.Preload("Days", func(db *gorm.DB) *gorm.DB {
			return db.Order("plan_days.sort_order ASC, plan_days.id ASC")
		}).Preload("Days.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_items.sort_order ASC, day_items.id ASC")
		}).
			Where("user_id = ? AND kind = ?", owner.MySQLID, string(kind)).
			Order("created_at DESC, id ASC").
			Offset(skip).Limit(limit).
			Find(&rows).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	plans := make([]domain.Plan, 0, len(rows))
	for i := range rows {
		plans = append(plans, *rows[i].toDomain())
	}
	return plans, nil
}

func (r *mysqlPlanRepository) Count(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind) (int64, error) {
	var total int64
	err := r.inTx(ctx, isoRead, func(tx *gorm.DB) error {
		return tx.Model(&planRow{}).
			Where("user_id = ? AND kind = ?", owner.MySQLID, string(kind)).
			Count(&total).Error
	})
	if err != nil {
		return 0, translate(err)
	}
	return total, nil
}

func (r *mysqlPlanRepository) FindByCreatedAt(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, createdAt time.Time) ([]domain.Plan, error) {
	var rows []planRow
	err := r.inTx(ctx, isoRead, func(tx *gorm.DB) error {
		return tx.Where("user_id = ? AND kind = ? AND created_at = ?", owner.MySQLID, string(kind), createdAt).
			Order("id ASC").
			Find(&rows).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	plans := make([]domain.Plan, 0, len(rows))
	for i := range rows {
		plans = append(plans, *rows[i].toDomain())
	}
	return plans, nil
}

func (r *mysqlPlanRepository) Update(ctx context.Context, p *domain.Plan) (*domain.Plan, error) {
	if p.MySQLID == 0 {
		return nil, domain.ErrNotFound
	}

	// Only the plan header is updated here; days and items move through
	// AddDay/RemoveDay/AddItem/RemoveItem.
	err := r.inTx(ctx, isoCreate, func(tx *gorm.DB) error {
		result := tx.Model(&planRow{}).
			Where("id = ? AND user_id = ? AND kind = ?", p.MySQLID, p.Owner.MySQLID, string(p.Kind)).
			Updates(map[string]interface{}{
				"name":        p.Name,
				"description": p.Description,
				"active":      p.Active,
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
	return r.findOne(ctx, "id = ?", p.MySQLID)
}

func (r *mysqlPlanRepository) Delete(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, id string) error {
	pid, err := parseNumeric(id)
	if err != nil {
		return err
	}
	// Children go first, inside the same serializable transaction, so no
	// read ever observes a plan with dangling days or items.
	err = r.inTx(ctx, isoDelete, func(tx *gorm.DB) error {
		var plan planRow
		if err := tx.Where("id = ? AND user_id = ? AND kind = ?", pid, owner.MySQLID, string(kind)).First(&plan).Error; err != nil {
			return err
		}
		var dayIDs []uint
		if err := tx.Model(&planDayRow{}).Where("plan_id = ?", pid).Pluck("id", &dayIDs).Error; err != nil {
			return err
		}
		if len(dayIDs) > 0 {
			if err := tx.Where("day_id IN ?", dayIDs).Delete(&dayItemRow{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("plan_id = ?", pid).Delete(&planDayRow{}).Error; err != nil {
			return err
		}
		return tx.Delete(&planRow{}, pid).Error
	})
	return translate(err)
}

func (r *mysqlPlanRepository) AddDay(ctx context.Context, p *domain.Plan, day *domain.Day) (*domain.Day, error) {
	if p.MySQLID == 0 {
		return nil, domain.ErrNotFound
	}
	row := planDayRow{
		PlanID:      p.MySQLID,
		DayOfWeek:   day.DayOfWeek,
		DisplayName: day.DisplayName,
		SortOrder:   day.Order,
	}
	err := r.inTx(ctx, isoSimple, func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&planRow{}, p.MySQLID).Error; err != nil {
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return tx.Model(&planRow{}).Where("id = ?", p.MySQLID).
			Update("updated_at", time.Now().UTC()).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	stored := row.toDomain()
	return &stored, nil
}

func (r *mysqlPlanRepository) RemoveDay(ctx context.Context, p *domain.Plan, dayID string) error {
	if p.MySQLID == 0 {
		return domain.ErrNotFound
	}
	did, err := parseNumeric(dayID)
	if err != nil {
		return err
	}
	err = r.inTx(ctx, isoDelete, func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND plan_id = ?", did, p.MySQLID).Delete(&planDayRow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("day_id = ?", did).Delete(&dayItemRow{}).Error; err != nil {
			return err
		}
		return tx.Model(&planRow{}).Where("id = ?", p.MySQLID).
			Update("updated_at", time.Now().UTC()).Error
	})
	return translate(err)
}

func (r *mysqlPlanRepository) AddItem(ctx context.Context, p *domain.Plan, dayID string, item *domain.Item) (*domain.Item, error) {
	if p.MySQLID == 0 {
		return nil, domain.ErrNotFound
	}
	did, err := parseNumeric(dayID)
	if err != nil {
		return nil, err
	}
	row := itemToRow(did, item)
	err = r.inTx(ctx, isoSimple, func(tx *gorm.DB) error {
		var day planDayRow
		if err := tx.Where("id = ? AND plan_id = ?", did, p.MySQLID).First(&day).Error; err != nil {
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return tx.Model(&planRow{}).Where("id = ?", p.MySQLID).
			Update("updated_at", time.Now().UTC()).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	stored := row.toDomain()
	return &stored, nil
}

func (r *mysqlPlanRepository) RemoveItem(ctx context.Context, p *domain.Plan, dayID, itemID string) error {
	if p.MySQLID == 0 {
		return domain.ErrNotFound
	}
	did, err := parseNumeric(dayID)
	if err != nil {
		return err
	}
	iid, err := parseNumeric(itemID)
	if err != nil {
		return err
	}
	err = r.inTx(ctx, isoDelete, func(tx *gorm.DB) error {
		var day planDayRow
		if err := tx.Where("id = ? AND plan_id = ?", did, p.MySQLID).First(&day).Error; err != nil {
			return err
		}
		result := tx.Where("id = ? AND day_id = ?", iid, did).Delete(&dayItemRow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&planRow{}).Where("id = ?", p.MySQLID).
			Update("updated_at", time.Now().UTC()).Error
	})
	return translate(err)
}
