package dualstore

import "fmt"

// StoreError carries the cause of one failed adapter call. The coordinator
// logs it and folds it into a per-store outcome; it never reaches an API
// caller, who only learns which store(s) accepted the operation.
type StoreError struct {
	Store Store
	Op    string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Store, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Result is the explicit outcome of one adapter call. Attempted is false
// when the configured mode skipped the store entirely, which is not a
// failure.
type Result[T any] struct {
	Value     T
	Err       *StoreError
	Attempted bool
}

// OK reports whether the store was invoked and produced a usable result.
func (r Result[T]) OK() bool { return r.Attempted && r.Err == nil }

// Outcome summarises a coordinated write per store for API callers, so that
// partial persistence is detectable rather than hidden.
type Outcome struct {
	Mongo bool `json:"mongo"`
	MySQL bool `json:"mysql"`
}
