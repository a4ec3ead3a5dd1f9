package gcs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storageConfig "github.com/tigerroll/vsatsla/pkg/batch/adapter/storage/config"
	"github.com/tigerroll/vsatsla/pkg/batch/adapter/storage/gcs"
	coreConfig "github.com/tigerroll/vsatsla/pkg/batch/core/config"
)

func TestNewGCSAdapter_RequiresBucket(t *testing.T) {
	_, err := gcs.NewGCSAdapter(context.Background(), storageConfig.StorageConfig{Type: "gcs"}, "cloud")
	assert.ErrorContains(t, err, "bucket_name")
}

func TestGCSProvider_EmulatorEndpoint(t *testing.T) {
	cfg := coreConfig.NewConfig()
	cfg.Storage = map[string]interface{}{
		"cloud": map[string]interface{}{"type": "gcs", "bucket_name": "vsat-reports", "endpoint": "http://127.0.0.1:4443/storage/v1/"},
		"disk":  map[string]interface{}{"type": "local", "base_dir": t.TempDir()},
	}
	p := gcs.NewGCSProvider(cfg)
	assert.Equal(t, "gcs", p.Type())

	conn, err := p.GetConnection("cloud")
	require.NoError(t, err)
	assert.Equal(t, "gcs", conn.Type())
	assert.Equal(t, "cloud", conn.Name())

	_, err = p.GetConnection("disk")
	assert.ErrorContains(t, err, "type mismatch")
	assert.NoError(t, p.CloseAll())
}
