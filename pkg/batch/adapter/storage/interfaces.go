// Package storage defines the object storage abstraction used to read test exports and publish reports.
// Backends (local file system, GCS) implement StorageConnection and are selected by the "type" of a
// named entry under the top-level "storage" configuration key.
package storage

import (
	"context"
	"io"

	coreAdapter "github.com/tigerroll/vsatsla/pkg/batch/core/adapter"
)

// StorageExecutor defines generic storage operations.
type StorageExecutor interface {
	// Upload writes data to bucket/objectName. contentType is the MIME type of the data.
	Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error
	// Download opens bucket/objectName. The caller closes the returned reader.
	Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error)
	// ListObjects calls fn for each object under prefix, in backend order.
	ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error
	// DeleteObject removes bucket/objectName. Deleting a missing object is not an error.
	DeleteObject(ctx context.Context, bucket, objectName string) error
}

// StorageConnection is a named, open storage backend.
type StorageConnection interface {
	coreAdapter.ResourceConnection
	StorageExecutor
}

// StorageProvider creates and caches connections of one backend type.
type StorageProvider interface {
	// GetConnection returns the connection configured under name, creating it on first use.
	GetConnection(name string) (StorageConnection, error)
	// CloseAll closes every connection created by this provider.
	CloseAll() error
	// Type returns the backend type handled by this provider (e.g., "local", "gcs").
	Type() string
}

// StorageConnectionResolver resolves a named storage connection across all registered providers.
type StorageConnectionResolver interface {
	coreAdapter.ResourceConnectionResolver

	// ResolveStorageConnection returns the connection configured under name.
	ResolveStorageConnection(ctx context.Context, name string) (StorageConnection, error)
}

// ProviderGroup is the fx value group collecting every StorageProvider.
const ProviderGroup = `group:"storage_providers"`
