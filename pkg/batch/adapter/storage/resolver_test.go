package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/vsatsla/pkg/batch/adapter/storage"
	"github.com/tigerroll/vsatsla/pkg/batch/adapter/storage/local"
	coreConfig "github.com/tigerroll/vsatsla/pkg/batch/core/config"
)

func TestConnectionResolver(t *testing.T) {
	cfg := coreConfig.NewConfig()
	cfg.Storage = map[string]interface{}{
		"exports": map[string]interface{}{"type": "local", "base_dir": t.TempDir()},
		"archive": map[string]interface{}{"type": "s3"},
	}
	r := storage.NewConnectionResolver(storage.ConnectionResolverParams{
		Providers: []storage.StorageProvider{local.NewLocalProvider(cfg)},
		Cfg:       cfg,
	})

	conn, err := r.ResolveStorageConnection(context.Background(), "exports")
	require.NoError(t, err)
	assert.Equal(t, "local", conn.Type())

	generic, err := r.ResolveConnection(context.Background(), "exports")
	require.NoError(t, err)
	assert.Equal(t, "exports", generic.Name())

	_, err = r.ResolveStorageConnection(context.Background(), "archive")
	assert.ErrorContains(t, err, "no storage provider found for type 's3'")

	assert.NoError(t, r.CloseAll())
}
