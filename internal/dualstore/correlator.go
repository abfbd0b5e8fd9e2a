package dualstore

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"fittrack/backend/internal/domain"
)

// hexIDPattern matches a document-store ObjectID in its 24-character
// hexadecimal form.
var hexIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// IsDocumentID reports whether raw has document-store key shape.
func IsDocumentID(raw string) bool { return hexIDPattern.MatchString(raw) }

// Entity constrains correlator type parameters to pointer-shaped records
// exposing both store identities and the creation-timestamp join key.
type Entity interface {
	comparable
	domain.Correlated
}

// Lookups supplies the per-entity query functions the correlator needs.
// The counterpart lookups match on (owning user, creation timestamp), the
// only reliable join key, since neither store persists the other's ID.
type Lookups[T Entity] struct {
	MongoByID        func(ctx context.Context, hexID string) (T, error)
	MySQLByID        func(ctx context.Context, id uint) (T, error)
	MongoByCreatedAt func(ctx context.Context, owner domain.StoreRef, createdAt time.Time) ([]T, error)
	MySQLByCreatedAt func(ctx context.Context, owner domain.StoreRef, createdAt time.Time) ([]T, error)
}

// Correlation is the pair of store-local records for one logical entity.
// Either side may be absent; callers must tolerate partial existence.
type Correlation[T Entity] struct {
	Mongo T
	MySQL T
}

// Empty reports whether no active store had a record for the resolved ID.
func (c Correlation[T]) Empty() bool {
	var zero T
	return c.Mongo == zero && c.MySQL == zero
}

// Correlator maps an entity ID of unknown origin to the corresponding
// record(s) in both stores.
type Correlator[T Entity] struct {
	mode    Mode
	lookups Lookups[T]
	logger  zerolog.Logger
}

// NewCorrelator builds a correlator for one entity family.
func NewCorrelator[T Entity](mode Mode, lookups Lookups[T], logger zerolog.Logger) *Correlator[T] {
	return &Correlator[T]{
		mode:    mode,
		lookups: lookups,
		logger:  logger.With().Str("component", "correlator").Logger(),
	}
}

// Resolve dispatches on the shape of raw: a 24-hex string is treated as a
// document-store key and looked up there first, anything that parses as an
// integer as a relational key. The cross-store lookup runs only in dual
// mode, once the owning store's record is found. A side with no record is
// left at its zero value. Only an ID matching neither shape is an error.
func (c *Correlator[T]) Resolve(ctx context.Context, raw string, owner domain.StoreRef) (Correlation[T], error) {
	if IsDocumentID(raw) {
		return c.resolveFromMongo(ctx, raw, owner), nil
	}
	if n, err := strconv.ParseUint(raw, 10, 32); err == nil {
		return c.resolveFromMySQL(ctx, uint(n), owner), nil
	}
	return Correlation[T]{}, &domain.ValidationError{
		Field:  "id",
		Reason: "neither a 24-character hex document id nor a numeric relational id",
	}
}

func (c *Correlator[T]) resolveFromMongo(ctx context.Context, hexID string, owner domain.StoreRef) Correlation[T] {
	var out Correlation[T]
	if !c.mode.UsesMongo() {
		return out
	}
	rec, err := c.lookups.MongoByID(ctx, hexID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.Error().Str("store", "mongo").Str("id", hexID).Err(err).Msg("primary lookup failed")
		}
		return out
	}
	out.Mongo = rec
	if c.mode == ModeDual {
		out.MySQL = c.counterpart(ctx, StoreMySQL, owner, rec.CreatedTime())
	}
	return out
}

func (c *Correlator[T]) resolveFromMySQL(ctx context.Context, id uint, owner domain.StoreRef) Correlation[T] {
	var out Correlation[T]
	if !c.mode.UsesMySQL() {
		return out
	}
	rec, err := c.lookups.MySQLByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.Error().Str("store", "mysql").Uint("id", id).Err(err).Msg("primary lookup failed")
		}
		return out
	}
	out.MySQL = rec
	if c.mode == ModeDual {
		out.Mongo = c.counterpart(ctx, StoreMongo, owner, rec.CreatedTime())
	}
	return out
}

// counterpart finds the same logical record in the other store by matching
// (owner, creation timestamp). Zero matches yields the zero value. Multiple
// matches are ambiguous: the record with the lowest store key wins, which
// keeps the pick deterministic, and the ambiguity is logged. Two records
// created in the same instant for the same user remain indistinguishable.
func (c *Correlator[T]) counterpart(ctx context.Context, store Store, owner domain.StoreRef, createdAt time.Time) T {
	var zero T
	var (
		matches []T
		err     error
	)
	switch store {
	case StoreMongo:
		matches, err = c.lookups.MongoByCreatedAt(ctx, owner, createdAt)
	case StoreMySQL:
		matches, err = c.lookups.MySQLByCreatedAt(ctx, owner, createdAt)
	}
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.Error().Str("store", string(store)).Err(err).Msg("counterpart lookup failed")
		}
		return zero
	}
	if len(matches) == 0 {
		return zero
	}
	if len(matches) > 1 {
		sort.Slice(matches, func(i, j int) bool {
			if store == StoreMySQL {
				return matches[i].RelationalID() < matches[j].RelationalID()
			}
			return matches[i].DocumentID() < matches[j].DocumentID()
		})
		c.logger.Warn().
			Str("store", string(store)).
			Time("createdAt", createdAt).
			Int("candidates", len(matches)).
			Msg("ambiguous counterpart correlation, picking lowest key")
	}
	return matches[0]
}
