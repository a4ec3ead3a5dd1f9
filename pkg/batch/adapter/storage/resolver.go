package storage

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	storageConfig "github.com/tigerroll/vsatsla/pkg/batch/adapter/storage/config"
	coreAdapter "github.com/tigerroll/vsatsla/pkg/batch/core/adapter"
	coreConfig "github.com/tigerroll/vsatsla/pkg/batch/core/config"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/logger"
)

// ConnectionResolver dispatches named connections to the provider registered for their type.
type ConnectionResolver struct {
	providers map[string]StorageProvider
	cfg       *coreConfig.Config
}

// ConnectionResolverParams collects every provider of the storage provider group.
type ConnectionResolverParams struct {
	fx.In
	Providers []StorageProvider `group:"storage_providers"`
	Cfg       *coreConfig.Config
}

// NewConnectionResolver creates a resolver over the given providers.
func NewConnectionResolver(p ConnectionResolverParams) *ConnectionResolver {
	providers := make(map[string]StorageProvider, len(p.Providers))
	for _, provider := range p.Providers {
		providers[provider.Type()] = provider
	}
	return &ConnectionResolver{providers: providers, cfg: p.Cfg}
}

// ResolveConnection implements coreAdapter.ResourceConnectionResolver.
func (r *ConnectionResolver) ResolveConnection(ctx context.Context, name string) (coreAdapter.ResourceConnection, error) {
	return r.ResolveStorageConnection(ctx, name)
}

// ResolveStorageConnection looks up the type configured for name and asks its provider for the connection.
func (r *ConnectionResolver) ResolveStorageConnection(ctx context.Context, name string) (StorageConnection, error) {
	cfg, err := storageConfig.Lookup(r.cfg.Storage, name)
	if err != nil {
		return nil, err
	}
	provider, ok := r.providers[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("no storage provider found for type '%s' (connection '%s')", cfg.Type, name)
	}
	conn, err := provider.GetConnection(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get storage connection '%s' from provider '%s': %w", name, cfg.Type, err)
	}
	logger.Debugf("Resolved storage connection '%s' (%s).", name, cfg.Type)
	return conn, nil
}

// CloseAll closes the connections of every provider.
func (r *ConnectionResolver) CloseAll() error {
	var firstErr error
	for t, p := range r.providers {
		if err := p.CloseAll(); err != nil {
			logger.Errorf("Failed to close %s storage connections: %v", t, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

var _ StorageConnectionResolver = (*ConnectionResolver)(nil)

// NewResolverProvider exposes the resolver and closes its connections on stop.
func NewResolverProvider(lc fx.Lifecycle, p ConnectionResolverParams) StorageConnectionResolver {
	r := NewConnectionResolver(p)
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return r.CloseAll() }})
	return r
}

// Module provides the StorageConnectionResolver. Backend modules contribute the providers.
var Module = fx.Options(
	fx.Provide(NewResolverProvider),
)
