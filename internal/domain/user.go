package domain

import "time"

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleClient  Role = "client"
	RoleTrainer Role = "trainer"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleTrainer || r == RoleAdmin
}

// Profile is the optional personal sub-record of a user.
type Profile struct {
	FirstName string     `json:"firstName,omitempty"`
	LastName  string     `json:"lastName,omitempty"`
	BirthDate *time.Time `json:"birthDate,omitempty"`
	Gender    string     `json:"gender,omitempty"`
	WeightKG  float64    `json:"weightKg,omitempty"`
	HeightCM  float64    `json:"heightCm,omitempty"`
}

// User represents an account holder. The two store-local records of a user
// are correlated by username/email, never by a shared key.
type User struct {
	StoreIDs

	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose this via JSON
	Role         Role      `json:"role"`
	Profile      *Profile  `json:"profile,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) CreatedTime() time.Time { return u.CreatedAt }

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Ref returns the user's identity as an owner reference for child entities.
func (u *User) Ref() StoreRef {
	return StoreRef{MongoID: u.MongoID, MySQLID: u.MySQLID}
}
