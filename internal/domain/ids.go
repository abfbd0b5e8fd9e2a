package domain

import "time"

// StoreIDs carries the per-store identifiers of one logical record. A record
// may exist in zero, one or both stores, so either field can be empty.
type StoreIDs struct {
	MongoID string `json:"mongoId,omitempty" bson:"-" gorm:"-"`
	MySQLID uint   `json:"mysqlId,omitempty" bson:"-" gorm:"-"`
}

func (s *StoreIDs) DocumentID() string      { return s.MongoID }
func (s *StoreIDs) RelationalID() uint      { return s.MySQLID }
func (s *StoreIDs) SetDocumentID(id string) { s.MongoID = id }
func (s *StoreIDs) SetRelationalID(id uint) { s.MySQLID = id }

// StoreRef points at a record (typically the owning user) in each store.
// The zero value means "unknown in that store".
type StoreRef struct {
	MongoID string `json:"mongoId,omitempty"`
	MySQLID uint   `json:"mysqlId,omitempty"`
}

// Correlated is implemented by every entity that can live in both stores.
// CreatedTime is the cross-store correlation key: it is written once on
// create, never updated, and matched against the counterpart store when no
// explicit cross-reference exists.
type Correlated interface {
	DocumentID() string
	RelationalID() uint
	SetDocumentID(string)
	SetRelationalID(uint)
	CreatedTime() time.Time
}
