package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/proj", 9999)
	assert.Equal(t, "/tmp/proj", cfg.Project.Root)
	assert.Equal(t, 9999, cfg.Project.Port)
	assert.Equal(t, 5000, cfg.Index.IntervalMs)
	assert.NotEmpty(t, cfg.Exclude)
}

func TestLoadOverlaysKDLFile(t *testing.T) {
	dir := t.TempDir()
	kdl := `index {
    interval_ms 1234
}
pool {
    workers 3
}
exclude {
    "**/*.bin"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".searchd.kdl"), []byte(kdl), 0644))

	cfg, err := Load(dir, 4000)
	require.NoError(t, err)
	assert.Equal(t, 1234, cfg.Index.IntervalMs)
	assert.Equal(t, 3, cfg.Pool.Workers)
	assert.Contains(t, cfg.Exclude, "**/*.bin")
}

func TestValidatorFillsWorkerCount(t *testing.T) {
	cfg := Default("/tmp/proj", 8080)
	v := NewValidator()
	require.NoError(t, v.ValidateAndSetDefaults(cfg))
	assert.GreaterOrEqual(t, cfg.Pool.Workers, 1)
}

func TestValidatorRejectsBadPort(t *testing.T) {
	cfg := Default("/tmp/proj", 0)
	v := NewValidator()
	assert.Error(t, v.ValidateAndSetDefaults(cfg))
}

func TestMatcherExcludesGitDir(t *testing.T) {
	cfg := Default("/proj", 1234)
	m := NewMatcher(cfg)
	assert.False(t, m.Allowed("/proj/.git/HEAD"))
	assert.True(t, m.Allowed("/proj/main.go"))
}

func TestMatcherIncludeAllowlist(t *testing.T) {
	cfg := Default("/proj", 1234)
	cfg.Include = []string{"**/*.go"}
	m := NewMatcher(cfg)
	assert.True(t, m.Allowed("/proj/main.go"))
	assert.False(t, m.Allowed("/proj/readme.md"))
}
