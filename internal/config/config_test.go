package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/delaneyj/metal/internal/config"
	"github.com/delaneyj/metal/metal"
	"github.com/delaneyj/metal/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.False(t, cfg.TrackedProperties)
	assert.True(t, cfg.ClobberSet)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := writeConfig(t, "tracked_properties: true\nclobber_set: true\nlog_level: debug\n")
	t.Setenv("METAL_CLOBBER_SET", "false")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.TrackedProperties)
	assert.False(t, cfg.ClobberSet)
	assert.Equal(t, "debug", cfg.LogLevel)

	rs := metal.NewRuntime(cfg.Options()...)
	assert.True(t, rs.TrackedProperties())

	cp, err := rs.Computed(metal.Getter(func(*object.Object, string) any { return 1 }))
	require.NoError(t, err)
	obj := object.New(nil)
	require.NoError(t, rs.DefineProperty(obj, "c", cp, nil))
	_, err = rs.Set(obj, "c", 2)
	require.ErrorIs(t, err, metal.ErrInvalidOperation)
}

func TestLoadRejectsBadInput(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = config.Load(writeConfig(t, "log_level: loud\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}

func TestLoggerUsesLevel(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "log_level: error\n"))
	require.NoError(t, err)
	logger, err := cfg.Logger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
}
