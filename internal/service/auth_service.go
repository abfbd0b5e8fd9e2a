package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"fittrack/backend/internal/domain"
	"fittrack/backend/internal/dualstore"
	"fittrack/backend/internal/repository"
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.New("user with this username or email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid credentials")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
)

// AuthService registers users across the active stores and authenticates
// them against the authoritative one.
type AuthService interface {
	Register(ctx context.Context, username, email, password string, role domain.Role, profile *domain.Profile) (*domain.User, dualstore.Outcome, error)
	Login(ctx context.Context, login, password string) (token string, user *domain.User, err error)
	ParseToken(tokenString string) (dualstore.Principal, error)
}

type authService struct {
	coordinator   *dualstore.Coordinator
	mongoUsers    repository.UserRepository
	mysqlUsers    repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
	logger        zerolog.Logger
}

// NewAuthService creates a new instance of authService.
func NewAuthService(coordinator *dualstore.Coordinator, mongoUsers, mysqlUsers repository.UserRepository, jwtSecret string, jwtExpiration time.Duration, logger zerolog.Logger) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	return &authService{
		coordinator:   coordinator,
		mongoUsers:    mongoUsers,
		mysqlUsers:    mysqlUsers,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		logger:        logger.With().Str("component", "auth").Logger(),
	}
}

// authoritativeUsers returns the user repository reads are served from.
func (s *authService) authoritativeUsers() repository.UserRepository {
	if s.coordinator.Mode().Authoritative() == dualstore.StoreMySQL {
		return s.mysqlUsers
	}
	return s.mongoUsers
}

// secondaryUsers returns the non-authoritative repository in dual mode, nil
// otherwise.
func (s *authService) secondaryUsers() repository.UserRepository {
	if s.coordinator.Mode() != dualstore.ModeDual {
		return nil
	}
	if s.coordinator.Mode().Authoritative() == dualstore.StoreMySQL {
		return s.mongoUsers
	}
	return s.mysqlUsers
}

// Register creates the user in every active store. The two store-local
// records share username and email, which is how they stay correlated; no
// cross-store key is persisted.
func (s *authService) Register(ctx context.Context, username, email, password string, role domain.Role, profile *domain.Profile) (*domain.User, dualstore.Outcome, error) {
	var none dualstore.Outcome
	if username == "" || email == "" || password == "" {
		return nil, none, &domain.ValidationError{Field: "credentials", Reason: "username, email and password are required"}
	}
	if role == "" {
		role = domain.RoleClient
	}
	if !role.Valid() {
		return nil, none, &domain.ValidationError{Field: "role", Reason: "unknown role"}
	}

	// Duplicate check against the authoritative store; the unique indexes
	// in each store backstop the race.
	if _, err := s.authoritativeUsers().GetByUsername(ctx, username); err == nil {
		return nil, none, ErrUserAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, none, err
	}
	if _, err := s.authoritativeUsers().GetByEmail(ctx, email); err == nil {
		return nil, none, ErrUserAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, none, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, none, ErrHashingFailed
	}

	now := stampNew()
	user := domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         role,
		Profile:      profile,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	dual, err := dualstore.Execute(ctx, s.coordinator, dualstore.Operation[*domain.User]{
		Name: "user.create",
		Mongo: func(ctx context.Context) (*domain.User, error) {
			u := user
			return s.mongoUsers.Create(ctx, &u)
		},
		MySQL: func(ctx context.Context) (*domain.User, error) {
			u := user
			return s.mysqlUsers.Create(ctx, &u)
		},
	})
	if err != nil {
		// Both stores refused; a duplicate slipping past the pre-check is
		// the common cause.
		if dual.Mongo.Err != nil && errors.Is(dual.Mongo.Err, domain.ErrConflict) {
			return nil, dual.Outcome(), ErrUserAlreadyExists
		}
		if dual.MySQL.Err != nil && errors.Is(dual.MySQL.Err, domain.ErrConflict) {
			return nil, dual.Outcome(), ErrUserAlreadyExists
		}
		return nil, dual.Outcome(), err
	}

	created := user
	created.PasswordHash = ""
	if dual.Mongo.OK() {
		created.MongoID = dual.Mongo.Value.MongoID
	}
	if dual.MySQL.OK() {
		created.MySQLID = dual.MySQL.Value.MySQLID
	}
	return &created, dual.Outcome(), nil
}

// Login authenticates against the authoritative store by username, falling
// back to email, and issues a signed token. In dual mode the secondary
// store's user id is carried in the claims when the counterpart record is
// found; a secondary lookup failure only costs that id, never the login.
func (s *authService) Login(ctx context.Context, login, password string) (string, *domain.User, error) {
	if login == "" || password == "" {
		return "", nil, &domain.ValidationError{Field: "credentials", Reason: "login and password are required"}
	}

	repo := s.authoritativeUsers()
	user, err := repo.GetByUsername(ctx, login)
	if errors.Is(err, domain.ErrNotFound) {
		user, err = repo.GetByEmail(ctx, login)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	if secondary := s.secondaryUsers(); secondary != nil {
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

	token, err := s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return token, user, nil
}

// --- JWT Helper ---

// jwtClaims defines the structure of the JWT payload. The subject is the
// authoritative store's user id; the relational id rides along explicitly
// because the subject alone cannot encode both key shapes.
type jwtClaims struct {
	UserID   string      `json:"uid"`
	MySQLID  uint        `json:"mysqlId,omitempty"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *authService) generateJWT(user *domain.User) (string, error) {
	subject := user.MongoID
	if subject == "" && user.MySQLID != 0 {
		subject = strconv.FormatUint(uint64(user.MySQLID), 10)
	}
	now := time.Now()
	claims := &jwtClaims{
		UserID:   subject,
		MySQLID:  user.MySQLID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "fittrack",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ParseToken validates a bearer token and reconstructs the principal the
// middleware hands to every handler.
func (s *authService) ParseToken(tokenString string) (dualstore.Principal, error) {
	var claims jwtClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return dualstore.Principal{}, ErrAuthenticationFailed
	}

	p := dualstore.Principal{
		ID:       claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
		MySQLID:  claims.MySQLID,
	}
	if dualstore.IsDocumentID(claims.UserID) {
		p.MongoID = claims.UserID
	}
	return p, nil
}
