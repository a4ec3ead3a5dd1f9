package configbinder_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/vsatsla/pkg/batch/support/util/configbinder"
)

type sinkProps struct {
	Bucket   string        `yaml:"bucket"`
	Workers  int           `yaml:"workers"`
	Enabled  bool          `yaml:"enabled"`
	Timeout  time.Duration `yaml:"timeout"`
	Untagged string
}

func TestBindProperties(t *testing.T) {
	var got sinkProps
	err := configbinder.BindProperties(map[string]interface{}{
		"bucket":  "reports",
		"workers": "8",
		"enabled": "true",
		"timeout": "30s",
	}, &got)
	require.NoError(t, err)

	assert.Equal(t, sinkProps{Bucket: "reports", Workers: 8, Enabled: true, Timeout: 30 * time.Second}, got)
}

func TestBindProperties_Empty(t *testing.T) {
	got := sinkProps{Bucket: "keep"}
	require.NoError(t, configbinder.BindProperties(nil, &got))
	assert.Equal(t, "keep", got.Bucket)
}

func TestBindProperties_TypeError(t *testing.T) {
	var got sinkProps
	err := configbinder.BindProperties(map[string]interface{}{"workers": "many"}, &got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sinkProps")
}

func TestBindStringProperties(t *testing.T) {
	var got sinkProps
	require.NoError(t, configbinder.BindStringProperties(map[string]string{"workers": "3"}, &got))
	assert.Equal(t, 3, got.Workers)
}
