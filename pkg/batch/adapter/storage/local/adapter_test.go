package local_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storageConfig "github.com/tigerroll/vsatsla/pkg/batch/adapter/storage/config"
	"github.com/tigerroll/vsatsla/pkg/batch/adapter/storage/local"
	coreConfig "github.com/tigerroll/vsatsla/pkg/batch/core/config"
)

func TestLocalAdapter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	base := filepath.Join(t.TempDir(), "store")
	conn, err := local.NewLocalAdapter(storageConfig.StorageConfig{Type: "local", BaseDir: base, BucketName: "exports"}, "exports")
	require.NoError(t, err)
	assert.Equal(t, "local", conn.Type())
	assert.Equal(t, "exports", conn.Name())

	require.NoError(t, conn.Upload(ctx, "", "run-1/report.xlsx", strings.NewReader("xlsx"), "application/octet-stream"))
	require.NoError(t, conn.Upload(ctx, "", "run-1/summary.parquet", strings.NewReader("pq"), "application/octet-stream"))
	require.NoError(t, conn.Upload(ctx, "", "run-2/report.xlsx", strings.NewReader("other"), "application/octet-stream"))
	_, err = os.Stat(filepath.Join(base, "exports", "run-1", "report.xlsx"))
	require.NoError(t, err)

	rc, err := conn.Download(ctx, "", "run-1/report.xlsx")
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "xlsx", string(b))

	var names []string
	require.NoError(t, conn.ListObjects(ctx, "", "run-1/", func(name string) error {
		names = append(names, name)
		return nil
	}))
	assert.Equal(t, []string{"run-1/report.xlsx", "run-1/summary.parquet"}, names)

	require.NoError(t, conn.DeleteObject(ctx, "", "run-1/report.xlsx"))
	require.NoError(t, conn.DeleteObject(ctx, "", "run-1/report.xlsx"), "deleting twice is not an error")
	_, err = conn.Download(ctx, "", "run-1/report.xlsx")
	assert.Error(t, err)
}

func TestLocalAdapter_RejectsEscapingPaths(t *testing.T) {
	conn, err := local.NewLocalAdapter(storageConfig.StorageConfig{BaseDir: t.TempDir()}, "x")
	require.NoError(t, err)
	err = conn.Upload(context.Background(), "", "../outside.txt", strings.NewReader("x"), "text/plain")
	assert.ErrorContains(t, err, "outside of base_dir")
}

func TestLocalAdapter_RequiresBaseDir(t *testing.T) {
	_, err := local.NewLocalAdapter(storageConfig.StorageConfig{}, "x")
	assert.Error(t, err)
}

func TestLocalProvider(t *testing.T) {
	cfg := coreConfig.NewConfig()
	cfg.Storage = map[string]interface{}{
		"exports": map[string]interface{}{"type": "local", "base_dir": t.TempDir()},
		"cloud":   map[string]interface{}{"type": "gcs", "bucket_name": "b"},
	}
	p := local.NewLocalProvider(cfg)

	c1, err := p.GetConnection("exports")
	require.NoError(t, err)
	c2, err := p.GetConnection("exports")
	require.NoError(t, err)
	assert.Same(t, c1, c2)

	_, err = p.GetConnection("cloud")
	assert.ErrorContains(t, err, "type mismatch")
	_, err = p.GetConnection("missing")
	assert.ErrorContains(t, err, "not found")

	assert.NoError(t, p.CloseAll())
}
