// Package adapter defines the connection abstractions shared by the storage and database adapters.
package adapter

import (
	"context"
)

// ResourceConnection represents a named connection to an external resource (database, object storage).
type ResourceConnection interface {
	// Close closes the resource connection.
	Close() error
	// Type returns the type of the resource (e.g., "sqlite", "gcs").
	Type() string
	// Name returns the connection name as configured (e.g., "reports", "exports").
	Name() string
}

// ResourceConnectionResolver resolves a named connection, re-establishing it when necessary.
type ResourceConnectionResolver interface {
	ResolveConnection(ctx context.Context, name string) (ResourceConnection, error)
}
