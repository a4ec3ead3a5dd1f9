// Package gcs provides a Google Cloud Storage implementation of the storage adapter interfaces.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/hashicorp/go-multierror"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	storageAdapter "github.com/tigerroll/vsatsla/pkg/batch/adapter/storage"
	storageConfig "github.com/tigerroll/vsatsla/pkg/batch/adapter/storage/config"
	coreConfig "github.com/tigerroll/vsatsla/pkg/batch/core/config"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/logger"
)

// ProviderType is the "type" value selecting this backend.
const ProviderType = "gcs"

type gcsAdapter struct {
	client *storage.Client
	cfg    storageConfig.StorageConfig
	name   string
}

var _ storageAdapter.StorageConnection = (*gcsAdapter)(nil)

// NewGCSAdapter opens a GCS client. A configured endpoint (an emulator) disables authentication;
// otherwise the credentials file or the application default credentials are used.
func NewGCSAdapter(ctx context.Context, cfg storageConfig.StorageConfig, name string) (storageAdapter.StorageConnection, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("gcs storage adapter '%s': bucket_name must be specified", name)
	}
	var opts []option.ClientOption
	switch {
	case cfg.Endpoint != "":
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs storage adapter '%s': failed to create client: %w", name, err)
	}
	return &gcsAdapter{client: client, cfg: cfg, name: name}, nil
}

func (a *gcsAdapter) Close() error {
	logger.Debugf("GCS storage adapter '%s' closed.", a.name)
	return a.client.Close()
}

func (a *gcsAdapter) Type() string { return ProviderType }

func (a *gcsAdapter) Name() string { return a.name }

func (a *gcsAdapter) bucket(name string) *storage.BucketHandle {
	if name == "" {
		name = a.cfg.BucketName
	}
	return a.client.Bucket(name)
}

// Upload streams data into a new object version.
func (a *gcsAdapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	w := a.bucket(bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to upload gs://%s/%s: %w", w.Bucket, objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize gs://%s/%s: %w", w.Bucket, objectName, err)
	}
	logger.Debugf("Uploaded gs://%s/%s (gcs adapter '%s').", w.Bucket, objectName, a.name)
	return nil
}

// Download opens a reader on the object.
func (a *gcsAdapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	rc, err := a.bucket(bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open gs object '%s': %w", objectName, err)
	}
	return rc, nil
}

// ListObjects iterates the objects under prefix.
func (a *gcsAdapter) ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	it := a.bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to list objects with prefix '%s': %w", prefix, err)
		}
		if err := fn(attrs.Name); err != nil {
			return err
		}
	}
}

// DeleteObject removes the object. A missing object only logs a warning.
func (a *gcsAdapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	err := a.bucket(bucket).Object(objectName).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		logger.Warnf("Attempted to delete non-existent object '%s' (gcs adapter '%s').", objectName, a.name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete gs object '%s': %w", objectName, err)
	}
	return nil
}

// GCSProvider creates and caches GCS connections.
type GCSProvider struct {
	cfg         *coreConfig.Config
	connections map[string]storageAdapter.StorageConnection
	mu          sync.Mutex
}

// NewGCSProvider creates a new GCSProvider.
func NewGCSProvider(cfg *coreConfig.Config) *GCSProvider {
	return &GCSProvider{cfg: cfg, connections: make(map[string]storageAdapter.StorageConnection)}
}

// GetConnection returns the connection configured under name, creating it on first use.
func (p *GCSProvider) GetConnection(name string) (storageAdapter.StorageConnection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if conn, ok := p.connections[name]; ok {
		return conn, nil
	}
	storageCfg, err := storageConfig.Lookup(p.cfg.Storage, name)
	if err != nil {
		return nil, err
	}
	if storageCfg.Type != ProviderType {
		return nil, fmt.Errorf("storage config type mismatch for '%s': expected '%s', got '%s'", name, ProviderType, storageCfg.Type)
	}
	conn, err := NewGCSAdapter(context.Background(), storageCfg, name)
	if err != nil {
		return nil, err
	}
	p.connections[name] = conn
	logger.Debugf("Created new GCS storage connection '%s' (bucket %s).", name, storageCfg.BucketName)
	return conn, nil
}

// CloseAll closes all connections managed by this provider.
func (p *GCSProvider) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs *multierror.Error
	for name, conn := range p.connections {
		if err := conn.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to close gcs connection '%s': %w", name, err))
		}
		delete(p.connections, name)
	}
	return errs.ErrorOrNil()
}

// Type returns "gcs".
func (p *GCSProvider) Type() string { return ProviderType }

var _ storageAdapter.StorageProvider = (*GCSProvider)(nil)
