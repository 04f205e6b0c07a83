// Package store is the document-store port the synchronizer runs against: a
// hierarchical JSON tree addressed by "/"-delimited paths with per-path read,
// write and observe operations. The realtime database owns all persisted
// state; callers hold only transient copies.
package store

import (
	"context"
	"encoding/json"
)

// Store reads and writes JSON-like values at tree paths.
//
// Get decodes the value at path into v; a missing node decodes as JSON null
// and leaves a pointer target at its zero value, which is how callers detect
// absence. Set overwrites the whole subtree at path (there is no append
// primitive; last writer wins). Observe delivers the raw JSON snapshot at
// path immediately and then after every change, until ctx is done; it blocks
// for the lifetime of the subscription.
type Store interface {
	Get(ctx context.Context, path string, v any) error
	Set(ctx context.Context, path string, v any) error
	Observe(ctx context.Context, path string, onChange func(data json.RawMessage)) error
}
