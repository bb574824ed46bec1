// Package tx provides transaction management abstractions.
// Domain code depends on these interfaces; the implementation lives in
// infrastructure/storage/postgres.
package tx

import (
	"context"
)

// ReadOnlyManager runs work inside a read-only transaction.
//
// Search uses it so that custom-field resolution and the entity query
// observe one snapshot. Attempts to modify data inside fn will fail.
type ReadOnlyManager interface {
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
