package dualstore

import (
	"fmt"
	"strings"
)

// Store names one of the two backing stores.
type Store string

const (
	StoreMongo Store = "mongo"
	StoreMySQL Store = "mysql"
)

// Mode selects which store(s) receive writes. It is parsed once from
// configuration at startup and injected into every component that needs it;
// nothing re-reads process-wide state afterwards.
type Mode string

const (
	ModeMongo Mode = "mongo"
	ModeMySQL Mode = "mysql"
	ModeDual  Mode = "dual"
)

// ParseMode validates a configured storage mode string.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeMongo, ModeMySQL, ModeDual:
		return m, nil
	default:
		return "", fmt.Errorf("unknown storage mode %q (expected mongo, mysql or dual)", s)
	}
}

// UsesMongo reports whether the document store is active under m.
func (m Mode) UsesMongo() bool { return m == ModeMongo || m == ModeDual }

// UsesMySQL reports whether the relational store is active under m.
func (m Mode) UsesMySQL() bool { return m == ModeMySQL || m == ModeDual }

// Authoritative returns the store list and aggregate reads are served from.
// Dual mode is document-store-authoritative; the relational results are only
// used for single-entity correlation, never merged into list views.
func (m Mode) Authoritative() Store {
	if m == ModeMySQL {
		return StoreMySQL
	}
	return StoreMongo
}
