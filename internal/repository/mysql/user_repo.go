package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"fittrack/backend/internal/domain"
	"fittrack/backend/internal/repository"
)

type mysqlUserRepository struct {
	store
}

// NewUserRepository creates the relational user repository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &mysqlUserRepository{store{db: db}}
}

func (r *mysqlUserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u.Username == "" || u.Email == "" || u.PasswordHash == "" || !u.Role.Valid() {
		return nil, &domain.ValidationError{Field: "user", Reason: "username, email, password hash and role are required"}
	}

	row := &userRow{
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if row.CreatedAt.IsZero() {
		now := time.Now().UTC()
		row.CreatedAt = now
		row.UpdatedAt = now
	}
	if u.Profile != nil {
		row.Profile = &profileRow{
			FirstName: u.Profile.FirstName,
			LastName:  u.Profile.LastName,
			BirthDate: u.Profile.BirthDate,
			Gender:    u.Profile.Gender,
			WeightKG:  u.Profile.WeightKG,
			HeightCM:  u.Profile.HeightCM,
		}
	}

	// Serializable: the unique-username check and the insert must not race
	// a concurrent duplicate.
	err := r.inTx(ctx, isoCreate, func(tx *gorm.DB) error {
		return tx.Create(row).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return row.toDomain(), nil
}

func (r *mysqlUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	uid, err := parseNumeric(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, "id = ?", uid)
}

func (r *mysqlUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *mysqlUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *mysqlUserRepository) findOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var row userRow
	err := r.inTx(ctx, isoRead, func(tx *gorm.DB) error {
		return tx.Preload("Profile").Where(query, arg).First(&row).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return row.toDomain(), nil
}

func (r *mysqlUserRepository) List(ctx context.Context, skip, limit int) ([]domain.User, error) {
	var rows []userRow
	err := r.inTx(ctx, isoRead, func(tx *gorm.DB) error {
		return tx.Preload("Profile").
			Order("created_at DESC, id ASC").
			Offset(skip).Limit(limit).
			Find(&rows).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	users := make([]domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, *rows[i].toDomain())
	}
	return users, nil
}

func (r *mysqlUserRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.inTx(ctx, isoRead, func(tx *gorm.DB) error {
		return tx.Model(&userRow{}).Count(&total).Error
	})
	if err != nil {
		return 0, translate(err)
	}
	return total, nil
}

func (r *mysqlUserRepository) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u.MySQLID == 0 {
		return nil, domain.ErrNotFound
	}

	err := r.inTx(ctx, isoCreate, func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"username":   u.Username,
			"email":      u.Email,
			"updated_at": time.Now().UTC(),
		}
		if u.PasswordHash != "" {
			updates["password_hash"] = u.PasswordHash
		}
		result := tx.Model(&userRow{}).Where("id = ?", u.MySQLID).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if u.Profile != nil {
			profile := profileRow{
				UserID:    u.MySQLID,
				FirstName: u.Profile.FirstName,
				LastName:  u.Profile.LastName,
				BirthDate: u.Profile.BirthDate,
				Gender:    u.Profile.Gender,
				WeightKG:  u.Profile.WeightKG,
				HeightCM:  u.Profile.HeightCM,
			}
			var existing profileRow
			err := tx.Where("user_id = ?", u.MySQLID).First(&existing).Error
			switch {
			case err == nil:
				profile.ID = existing.ID
				return tx.Save(&profile).Error
			case errors.Is(err, gorm.ErrRecordNotFound):
				return tx.Create(&profile).Error
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return r.findOne(ctx, "id = ?", u.MySQLID)
}

func (r *mysqlUserRepository) Delete(ctx context.Context, id string) error {
	uid, err := parseNumeric(id)
	if err != nil {
		return err
	}
	// Child cleanup is explicit even though the FK carries a cascade; the
	// serializable transaction keeps a concurrent read from observing a
	// half-deleted user.
	err = r.inTx(ctx, isoDelete, func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", uid).Delete(&profileRow{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&userRow{}, uid)
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
