package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"fittrack/backend/internal/domain"
	"fittrack/backend/internal/dualstore"
	"fittrack/backend/internal/repository"
)

// UserService serves account reads and profile updates. Users are the one
// entity family correlated by username/email rather than by creation
// timestamp, so the cross-store lookup here is a plain unique-field fetch.
type UserService interface {
	Current(ctx context.Context, p dualstore.Principal) (*domain.User, error)
	UpdateProfile(ctx context.Context, p dualstore.Principal, update ProfileUpdate) (*domain.User, dualstore.Outcome, error)
	List(ctx context.Context, page dualstore.Pagination) ([]domain.User, dualstore.PageInfo, error)
	Delete(ctx context.Context, id string) (dualstore.Outcome, error)
}

// ProfileUpdate carries the mutable account fields.
type ProfileUpdate struct {
	Username string
	Email    string
	Profile  *domain.Profile
}

type userService struct {
	coordinator *dualstore.Coordinator
	mongoUsers  repository.UserRepository
	mysqlUsers  repository.UserRepository
	logger      zerolog.Logger
}

// NewUserService creates a new instance of userService.
func NewUserService(coordinator *dualstore.Coordinator, mongoUsers, mysqlUsers repository.UserRepository, logger zerolog.Logger) UserService {
	return &userService{
		coordinator: coordinator,
		mongoUsers:  mongoUsers,
		mysqlUsers:  mysqlUsers,
		logger:      logger.With().Str("component", "users").Logger(),
	}
}

func (s *userService) authoritative() repository.UserRepository {
	if s.coordinator.Mode().Authoritative() == dualstore.StoreMySQL {
		return s.mysqlUsers
	}
	return s.mongoUsers
}

func (s *userService) secondary() repository.UserRepository {
	if s.coordinator.Mode() != dualstore.ModeDual {
		return nil
	}
	if s.coordinator.Mode().Authoritative() == dualstore.StoreMySQL {
		return s.mongoUsers
	}
	return s.mysqlUsers
}

// resolve loads the caller's records from every active store, correlated by
// username. The secondary side only contributes its store id.
func (s *userService) resolve(ctx context.Context, p dualstore.Principal) (*domain.User, error) {
	var id string
	switch {
	case p.MongoID != "" && s.coordinator.Mode().Authoritative() == dualstore.StoreMongo:
		id = p.MongoID
	case p.MySQLID != 0 && s.coordinator.Mode().Authoritative() == dualstore.StoreMySQL:
		id = strconv.FormatUint(uint64(p.MySQLID), 10)
	default:
		id = p.ID
	}

	user, err := s.authoritative().GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) && p.Username != "" {
		user, err = s.authoritative().GetByUsername(ctx, p.Username)
	}
	if err != nil {
		return nil, err
	}

	if secondary := s.secondary(); secondary != nil {
		counterpart, err := secondary.GetByUsername(ctx, user.Username)
		switch {
		case err == nil:
			if user.MongoID == "" {
				user.MongoID = counterpart.MongoID
			}
			if user.MySQLID == 0 {
				user.MySQLID = counterpart.MySQLID
			}
		case !errors.Is(err, domain.ErrNotFound):
			s.logger.Error().Err(err).Str("username", user.Username).Msg("secondary user lookup failed")
		}
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) Current(ctx context.Context, p dualstore.Principal) (*domain.User, error) {
	return s.resolve(ctx, p)
}

// UpdateProfile applies the update to every store that holds the account.
// Partial persistence is reported, not rolled back.
func (s *userService) UpdateProfile(ctx context.Context, p dualstore.Principal, update ProfileUpdate) (*domain.User, dualstore.Outcome, error) {
	var none dualstore.Outcome

	current, err := s.resolve(ctx, p)
	if err != nil {
		return nil, none, err
	}

	apply := func(u *domain.User) {
		if update.Username != "" {
			u.Username = update.Username
		}
		if update.Email != "" {
			u.Email = update.Email
		}
		if update.Profile != nil {
			u.Profile = update.Profile
		}
		u.UpdatedAt = time.Now().UTC()
	}

	dual, err := dualstore.Execute(ctx, s.coordinator, dualstore.Operation[*domain.User]{
		Name: "user.update",
		Mongo: func(ctx context.Context) (*domain.User, error) {
			if current.MongoID == "" {
				return nil, domain.ErrNotFound
			}
			u := *current
			apply(&u)
			return s.mongoUsers.Update(ctx, &u)
		},
		MySQL: func(ctx context.Context) (*domain.User, error) {
			if current.MySQLID == 0 {
				return nil, domain.ErrNotFound
			}
			u := *current
			apply(&u)
			return s.mysqlUsers.Update(ctx, &u)
		},
	})
	if err != nil {
		return nil, dual.Outcome(), err
	}

	updated := *current
	apply(&updated)
	if dual.Mongo.OK() {
		updated.MongoID = dual.Mongo.Value.MongoID
	}
	if dual.MySQL.OK() {
		updated.MySQLID = dual.MySQL.Value.MySQLID
	}
	updated.PasswordHash = ""
	return &updated, dual.Outcome(), nil
}

// List serves the admin account listing from the authoritative store only.
func (s *userService) List(ctx context.Context, page dualstore.Pagination) ([]domain.User, dualstore.PageInfo, error) {
	page = page.Normalize()
	repo := s.authoritative()

	users, err := repo.List(ctx, page.Skip(), page.Limit)
	if err != nil {
		return nil, dualstore.PageInfo{}, err
	}
	total, err := repo.Count(ctx)
	if err != nil {
		return nil, dualstore.PageInfo{}, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, dualstore.NewPageInfo(page, total), nil
}

// Delete removes an account from every store that holds it, correlating the
// two records by username. Admin accounts are not deletable through the API.
func (s *userService) Delete(ctx context.Context, id string) (dualstore.Outcome, error) {
	var none dualstore.Outcome

	target, err := s.authoritative().GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		if secondary := s.secondary(); secondary != nil {
			target, err = secondary.GetByID(ctx, id)
		}
	}
	if err != nil {
		return none, err
	}
	if target.IsAdmin() {
		return none, &domain.ValidationError{Field: "id", Reason: "admin accounts cannot be deleted"}
	}

	if s.coordinator.Mode().UsesMongo() && target.MongoID == "" {
		counterpart, err := s.mongoUsers.GetByUsername(ctx, target.Username)
		switch {
		case err == nil:
			target.MongoID = counterpart.MongoID
		case !errors.Is(err, domain.ErrNotFound):
			s.logger.Error().Err(err).Str("username", target.Username).Msg("counterpart user lookup failed")
		}
	}
	if s.coordinator.Mode().UsesMySQL() && target.MySQLID == 0 {
		counterpart, err := s.mysqlUsers.GetByUsername(ctx, target.Username)
		switch {
		case err == nil:
			target.MySQLID = counterpart.MySQLID
		case !errors.Is(err, domain.ErrNotFound):
			s.logger.Error().Err(err).Str("username", target.Username).Msg("counterpart user lookup failed")
		}
	}

	op := dualstore.Operation[bool]{Name: "user.delete"}
	if target.MongoID != "" {
		mongoID := target.MongoID
		op.Mongo = func(ctx context.Context) (bool, error) {
			return true, s.mongoUsers.Delete(ctx, mongoID)
		}
	}
	if target.MySQLID != 0 {
		mysqlID := strconv.FormatUint(uint64(target.MySQLID), 10)
		op.MySQL = func(ctx context.Context) (bool, error) {
			return true, s.mysqlUsers.Delete(ctx, mysqlID)
		}
	}

	dual, err := dualstore.Execute(ctx, s.coordinator, op)
	return dual.Outcome(), err
}
