package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retention-dgp/internal/dgp"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
generation:
  n_users: 500
params:
  tau_e: 3.5
databases:
  postgres: postgres://localhost/dgp
output:
  parquet: true
  sinks: [sqlite, postgres]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Generation.NUsers)
	assert.Equal(t, int64(7), cfg.Generation.Seed)
	assert.Equal(t, 8, cfg.Generation.NWeeks)
	assert.Equal(t, 3.5, cfg.Params.TauE)
	assert.Equal(t, 1.0, cfg.Params.KappaR)
	assert.Equal(t, "postgres://localhost/dgp", cfg.Databases.Postgres)
	assert.True(t, cfg.Output.Parquet)
	assert.Equal(t, []string{"sqlite", "postgres"}, cfg.Output.Sinks)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "generation:\n  seed: 3\n")
	t.Setenv("DGP_SEED", "11")
	t.Setenv("DGP_PARAM_KAPPA_R", "2.5")
	t.Setenv("DGP_SINKS", "sqlite,mongo")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(11), cfg.Generation.Seed)
	assert.Equal(t, 2.5, cfg.Params.KappaR)
	assert.Equal(t, []string{"sqlite", "mongo"}, cfg.Output.Sinks)
}

func TestLoadConfig_NoPath(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, dgp.DefaultOptions(), cfg.Options())
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeFile(t, t.TempDir(), "bad.yaml", "generation: [1, 2")
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	cfg := Default()
	dsn, err := cfg.DSN("sqlite")
	require.NoError(t, err)
	assert.Equal(t, "file:dgp.db", dsn)

	_, err = cfg.DSN("postgres")
	assert.ErrorContains(t, err, "no DSN configured")

	_, err = cfg.DSN("oracle")
	assert.ErrorContains(t, err, "unsupported sink")
}

func TestPaths(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, EnsureDir(nested))
	writeFile(t, root, "go.mod", "module x\n")

	assert.Equal(t, root, FindRoot(nested))

	p := NewPaths(root)
	assert.Equal(t, filepath.Join(root, "data"), p.DataDir)
	assert.Equal(t, filepath.Join(root, "reports"), p.ReportsDir)
	assert.Equal(t, filepath.Join(root, "reports", "figures"), p.FiguresDir)
}
