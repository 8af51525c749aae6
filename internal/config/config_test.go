package config

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/rgbmond/internal/colormap"
	"codeberg.org/mutker/rgbmond/internal/errors"
	"codeberg.org/mutker/rgbmond/internal/openrgb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rgbmond.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("RGBMOND_CONFIG", path)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RGBMOND_CONFIG", os.DevNull)

	cfg, err := loadFrom(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultAddress, cfg.Connect)
	assert.Equal(t, DefaultInterval, cfg.Interval)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultLoadDiff, cfg.LoadDiff)
	assert.False(t, cfg.Metrics)
	assert.False(t, cfg.Verbose)

	// all five device types are operated by default
	assert.Len(t, cfg.Enabled, 5)

	// no default color spec means the gradient covers the full range
	assert.Equal(t, colormap.Spec{}, cfg.Spec)
}

func TestLoadFromFile(t *testing.T) {
	writeConfigFile(t, `
connect = "10.0.0.5:6742"
interval = 5
timeout = 2
load_diff = 3
default_color = "20:99CCFF"
device_types = "2"
verbose = true
metrics = true
metrics_db = "/tmp/rgbmond-metrics.db"
`)

	cfg, err := loadFrom(nil)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5:6742", cfg.Connect)
	assert.Equal(t, 5, cfg.Interval)
	assert.Equal(t, 2, cfg.Timeout)
	assert.Equal(t, 3, cfg.LoadDiff)
	assert.True(t, cfg.Verbose)
	assert.True(t, cfg.Metrics)
	assert.Equal(t, "/tmp/rgbmond-metrics.db", cfg.MetricsDB)

	assert.Equal(t, []openrgb.DeviceType{openrgb.DeviceGPU}, cfg.Enabled)
	assert.InDelta(t, 0.2, cfg.Spec.Threshold, 1e-9)
	assert.Equal(t, colormap.Color{R: 0x99, G: 0xCC, B: 0xFF}, cfg.Spec.Default)
}

func TestFlagsOverrideFile(t *testing.T) {
	writeConfigFile(t, `
interval = 5
device_types = "0"
`)

	cfg, err := loadFrom([]string{"--interval", "4", "--device-types", "2,3"})
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Interval)
	assert.Equal(t, []openrgb.DeviceType{openrgb.DeviceGPU, openrgb.DeviceCooler}, cfg.Enabled)
}

func TestLoadDerivedDurations(t *testing.T) {
	t.Setenv("RGBMOND_CONFIG", os.DevNull)

	cfg, err := loadFrom([]string{"--interval", "3", "--timeout", "2", "--load-diff", "5"})
	require.NoError(t, err)

	assert.Equal(t, "3s", cfg.IntervalDuration().String())
	assert.Equal(t, "2s", cfg.TimeoutDuration().String())
	assert.InDelta(t, 0.05, cfg.LoadDiffFraction(), 1e-9)
}

func TestInvalidDeviceType(t *testing.T) {
	t.Setenv("RGBMOND_CONFIG", os.DevNull)

	for _, arg := range []string{"9", "abc", "-1", ","} {
		_, err := loadFrom([]string{"--device-types=" + arg})
		require.Error(t, err, arg)
		assert.True(t, errors.HasCode(err, errors.ErrInvalidDeviceType), arg)
	}
}

func TestInvalidColorSpec(t *testing.T) {
	t.Setenv("RGBMOND_CONFIG", os.DevNull)

	for _, arg := range []string{"abc", "20", "101:FF0000", "-1:FF0000", "20:GGHHII", "20:FFF"} {
		_, err := loadFrom([]string{"--default-color=" + arg})
		require.Error(t, err, arg)
	}
}

func TestInvalidInterval(t *testing.T) {
	t.Setenv("RGBMOND_CONFIG", os.DevNull)

	_, err := loadFrom([]string{"--interval", "0"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidInterval))
}

func TestTimeoutMustFitInterval(t *testing.T) {
	t.Setenv("RGBMOND_CONFIG", os.DevNull)

	_, err := loadFrom([]string{"--interval", "2", "--timeout", "5"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidTimeout))

	_, err = loadFrom([]string{"--timeout", "0"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidTimeout))
}

func TestUnreadableConfigFile(t *testing.T) {
	t.Setenv("RGBMOND_CONFIG", filepath.Join(t.TempDir(), "missing.conf"))

	_, err := loadFrom(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestMalformedConfigFile(t *testing.T) {
	writeConfigFile(t, `interval = [not toml`)

	_, err := loadFrom(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}
