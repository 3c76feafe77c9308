package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/userdesk/internal/core"
)

// unsetenv removes key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"ENVIRONMENT", "INDEX_BACKEND", "INDEX_SOURCE", "INDEX_TOP_K", "PIPELINE_MAX_PASSES", "PIPELINE_CLASSIFIER", "SCHEMA_CONFIG", "MIRROR_URL"} {
		unsetenv(t, k)
	}
	t.Setenv("STORE_URL", "memory://")

	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, core.Development, cfg.Environment)
	assert.Equal(t, "memory://", cfg.StoreURL)
	assert.Equal(t, "text", cfg.Index.Backend)
	assert.Equal(t, "store", cfg.Index.Source)
	assert.Equal(t, 2, cfg.Index.TopK)
	assert.Equal(t, 2, cfg.Pipeline.MaxPasses)
	assert.Equal(t, "llm", cfg.Pipeline.Classifier)
	assert.Equal(t, "config.json", cfg.SchemaConfig)
	assert.Equal(t, "data/user.json", cfg.MirrorURL)
}

func TestLoadConfigRequiresStoreURL(t *testing.T) {
	unsetenv(t, "STORE_URL")

	_, err := loadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigReadsDotenv(t *testing.T) {
	unsetenv(t, "STORE_URL")
	unsetenv(t, "PIPELINE_CLASSIFIER")
	t.Setenv("ENVIRONMENT", "production")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STORE_URL=memory://\nPIPELINE_CLASSIFIER=keyword\nENVIRONMENT=development\n"), 0o600))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "memory://", cfg.StoreURL)
	assert.Equal(t, "keyword", cfg.Pipeline.Classifier)
	assert.Equal(t, core.Production, cfg.Environment, "process environment wins over the dotenv file")
}

func TestLoadConfigMissingDotenvIsFine(t *testing.T) {
	t.Setenv("STORE_URL", "memory://")
	_, err := loadConfig(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoadConfigRejectsUnknownStrategies(t *testing.T) {
	t.Setenv("STORE_URL", "memory://")

	t.Run("backend", func(t *testing.T) {
		t.Setenv("INDEX_BACKEND", "vector-db")
		_, err := loadConfig("")
		assert.ErrorContains(t, err, "INDEX_BACKEND")
	})
	t.Run("classifier", func(t *testing.T) {
		t.Setenv("PIPELINE_CLASSIFIER", "oracle")
		_, err := loadConfig("")
		assert.ErrorContains(t, err, "PIPELINE_CLASSIFIER")
	})
	t.Run("source", func(t *testing.T) {
		t.Setenv("INDEX_SOURCE", "s3")
		_, err := loadConfig("")
		assert.ErrorContains(t, err, "INDEX_SOURCE")
	})
}

func TestNeedsGenAI(t *testing.T) {
	cfg := AppConfig{}
	cfg.Index.Backend = "text"
	assert.False(t, cfg.needsGenAI(false))
	assert.True(t, cfg.needsGenAI(true))

	cfg.Index.Backend = "embedding"
	assert.True(t, cfg.needsGenAI(false))
}
