package akumuli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/expenses/akumuli-go/errs"
)

func TestDefaultDBConfig(t *testing.T) {
	cfg := DefaultDBConfig()

	require.Equal(t, int32(1), cfg.NumVolumes)
	require.True(t, cfg.Allocate)
	require.Equal(t, uint64(4096), cfg.PageSize)
	require.Equal(t, "db", cfg.Suffix)
	require.NoError(t, cfg.Validate())
}

func TestDBConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*DBConfig)
	}{
		{"nul in suffix", func(c *DBConfig) { c.Suffix = "d\x00b" }},
		{"empty suffix", func(c *DBConfig) { c.Suffix = "" }},
		{"no volumes", func(c *DBConfig) { c.NumVolumes = 0 }},
		{"negative volumes", func(c *DBConfig) { c.NumVolumes = -2 }},
		{"zero page size", func(c *DBConfig) { c.PageSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultDBConfig()
			tt.modify(&cfg)
			require.ErrorIs(t, cfg.Validate(), errs.ErrConfig)
		})
	}
}

func TestLoadDBConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.yaml")
	require.NoError(t, os.WriteFile(path, []byte("num_volumes: 4\nsuffix: metrics\n"), 0o644))

	cfg, err := LoadDBConfig(path)
	require.NoError(t, err)
	require.Equal(t, DBConfig{NumVolumes: 4, Allocate: true, PageSize: 4096, Suffix: "metrics"}, cfg)
}

func TestLoadDBConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadDBConfig(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, errs.ErrConfig)
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("num_volumes: [1, 2]\n"), 0o644))
	_, err = LoadDBConfig(bad)
	require.ErrorIs(t, err, errs.ErrConfig)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("page_size: 0\n"), 0o644))
	_, err = LoadDBConfig(invalid)
	require.ErrorIs(t, err, errs.ErrConfig)
}
