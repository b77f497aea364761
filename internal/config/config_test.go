package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperpolymath/betlang/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefault(t *testing.T) {
	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestLoadConfigParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "betlang.yaml")
	contents := "target: llvm\nseed: fixed-seed\ninfer:\n  defaultSamples: 500\n  method: mcmc\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "llvm", cfg.Target)
	require.Equal(t, "fixed-seed", cfg.Seed)
	require.Equal(t, 500, cfg.Infer.DefaultSamples)
	require.Equal(t, "mcmc", cfg.Infer.Method)
}

func TestLoadConfigMalformedYAMLErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "betlang.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target: [unterminated"), 0o644))

	_, err := config.LoadConfig(path)
	require.Error(t, err)
}
