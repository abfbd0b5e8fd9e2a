package dualstore

import (
	"context"

	"github.com/rs/zerolog"

	"fittrack/backend/internal/domain"
)

// Coordinator routes a logical write to the store(s) selected by the
// configured mode and collects per-store results. The two stores are never
// treated as a single atomic unit: there is no cross-store rollback, no
// retry, and a single attempt per store per call.
type Coordinator struct {
	mode   Mode
	logger zerolog.Logger
}

// NewCoordinator builds a coordinator for the given mode. The mode is fixed
// for the life of the process.
func NewCoordinator(mode Mode, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		mode:   mode,
		logger: logger.With().Str("component", "dualstore").Logger(),
	}
}

// Mode returns the injected storage mode.
func (c *Coordinator) Mode() Mode { return c.mode }

// Operation describes one logical write as a closure per store. A nil
// closure means the entity has no representation in that store.
type Operation[T any] struct {
	Name  string
	Mongo func(ctx context.Context) (T, error)
	MySQL func(ctx context.Context) (T, error)
}

// Dual holds the per-store results of one coordinated operation.
type Dual[T any] struct {
	Mongo Result[T]
	MySQL Result[T]
}

// Succeeded reports whether at least one store accepted the operation.
func (d Dual[T]) Succeeded() bool { return d.Mongo.OK() || d.MySQL.OK() }

// Outcome flattens the result into the per-store breakdown returned to
// callers.
func (d Dual[T]) Outcome() Outcome {
	return Outcome{Mongo: d.Mongo.OK(), MySQL: d.MySQL.OK()}
}

// Execute runs op against every store the mode selects. In dual mode the
// document store is invoked first and the relational store second, strictly
// sequentially; total latency is the sum of both. A failure in one store is
// captured and logged without aborting the other. The operation as a whole
// succeeds if at least one store succeeded; otherwise ErrPersistenceFailed
// is returned together with the per-store detail.
func Execute[T any](ctx context.Context, c *Coordinator, op Operation[T]) (Dual[T], error) {
	var out Dual[T]
	if c.mode.UsesMongo() && op.Mongo != nil {
		out.Mongo = attempt(ctx, c.logger, StoreMongo, op.Name, op.Mongo)
	}
	if c.mode.UsesMySQL() && op.MySQL != nil {
		out.MySQL = attempt(ctx, c.logger, StoreMySQL, op.Name, op.MySQL)
	}
	if !out.Succeeded() {
		return out, domain.ErrPersistenceFailed
	}
	return out, nil
}

func attempt[T any](ctx context.Context, logger zerolog.Logger, store Store, name string, fn func(context.Context) (T, error)) Result[T] {
	value, err := fn(ctx)
	if err != nil {
		logger.Error().
			Str("store", string(store)).
			Str("op", name).
			Err(err).
			Msg("store operation failed")
		return Result[T]{Attempted: true, Err: &StoreError{Store: store, Op: name, Err: err}}
	}
	return Result[T]{Attempted: true, Value: value}
}
