package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, k := range []string{"RESULT_STORE", "TEST_DIR", "TEST_BASE_URL", "AUTO_SUBMIT_DELAY_SECONDS", "CSRF_ENFORCED"} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	assert.Equal(t, StoreMemory, cfg.ResultStore)
	assert.Equal(t, "web", cfg.TestDir)
	assert.Equal(t, 3*time.Second, cfg.AutoSubmitDelay())
	assert.False(t, cfg.CSRFEnforced)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RESULT_STORE=sqlite\nSESSION_IDLE_MINUTES=45\n"), 0o644))
	chdir(t, dir)
	t.Setenv("RESULT_STORE", "")
	os.Unsetenv("RESULT_STORE")
	t.Setenv("SESSION_IDLE_MINUTES", "")
	os.Unsetenv("SESSION_IDLE_MINUTES")
	t.Setenv("TEST_BASE_URL", "https://cdn.example.org/site/")

	cfg := LoadConfig()
	assert.Equal(t, StoreSQLite, cfg.ResultStore)
	assert.Equal(t, 45*time.Minute, cfg.SessionIdle())
	assert.Equal(t, "https://cdn.example.org/site", cfg.TestBaseURL)
}

func TestConfigValidate(t *testing.T) {
	base := Config{ResultStore: StoreMemory, TestDir: "web"}
	require.NoError(t, base.Validate())

	bad := base
	bad.ResultStore = "redis"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	noDSN := base
	noDSN.ResultStore = StorePostgres
	assert.ErrorIs(t, noDSN.Validate(), ErrInvalidConfig)

	noTests := base
	noTests.TestDir = ""
	assert.ErrorIs(t, noTests.Validate(), ErrInvalidConfig)
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	start, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(start) })
}
