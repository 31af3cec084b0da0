package louvain

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	config := NewConfig()

	assert.Equal(t, 1e-6, config.Precision())
	assert.Equal(t, 400, config.MaxClauseSize())
	assert.Equal(t, 6, config.MaxX())
	assert.Equal(t, 10, config.MaxXmin())
	assert.Equal(t, 15, config.MaxRadius())
	assert.False(t, config.HasRandomSource())
}

func TestConfigEnvironmentOverride(t *testing.T) {
	t.Setenv("SATFEAT_ALGORITHM_PRECISION", "0.01")
	t.Setenv("SATFEAT_FEATURES_MAX_CLAUSE_SIZE", "12")

	config := NewConfig()
	assert.Equal(t, 0.01, config.Precision())
	assert.Equal(t, 12, config.MaxClauseSize())
}

func TestConfigLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "satfeat.yaml")
	content := "algorithm:\n  random_seed: 7\nlogging:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config := NewConfig()
	require.NoError(t, config.LoadFromFile(path))
	assert.Equal(t, int64(7), config.RandomSeed())
	assert.Equal(t, "debug", config.LogLevel())

	assert.Error(t, config.LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestConfigRandomSourceStreams(t *testing.T) {
	config := newTestConfig(5)

	a, b := config.RandomSource(0), config.RandomSource(0)
	assert.Equal(t, a.Intn(1000000), b.Intn(1000000), "same stream, same sequence")

	injected := &scriptedSource{}
	config.SetRandomSource(injected)
	assert.Same(t, injected, config.RandomSource(3))
}

func TestCreateLoggerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	config := NewConfig()
	config.SetOutput(&buf)
	config.Set("logging.level", "warn")

	logger := config.CreateLogger()
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestMoveTrackerNilSafe(t *testing.T) {
	var mt *MoveTracker
	mt.SetLevel(2)
	mt.LogMove(1, 2, 3, 4, 0.5)
	assert.Zero(t, mt.Moves())
	assert.NoError(t, mt.Close())

	var buf bytes.Buffer
	mt = NewMoveTracker(&buf)
	mt.SetLevel(1)
	mt.LogMove(1, 7, 7, 3, 0.25)
	require.NoError(t, mt.Close())
	assert.Equal(t, 1, mt.Moves())
	assert.Contains(t, buf.String(), `"level":1`)
	assert.Contains(t, buf.String(), `"to_comm":3`)
}
