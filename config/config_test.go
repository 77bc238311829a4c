package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/config"
)

const sampleTOML = `
max_workload_length = 2048
fs_name = "ext4"
dash_enabled = true
heartbeat_interval = 5
timeout = 10

[greybox]
max_mutations = 4
save_corpus = true

[[operation_weights.weights]]
kind = "Write"
weight = 40

[[mutation_weights.weights]]
kind = "Remove"
weight = 1
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0o644))
	return path
}

func TestLoadParsesRequiredFields(t *testing.T) {
	cfg, err := config.Load(writeSample(t))
	require.NoError(t, err)
	assert.Equal(t, "ext4", cfg.FSName)
	assert.EqualValues(t, 2048, cfg.MaxWorkloadLength)
	assert.True(t, cfg.DashEnabled)
	assert.EqualValues(t, 4, cfg.Greybox.MaxMutations)
}

func TestLoadRejectsMissingFSName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("max_workload_length = 1\ntimeout = 1\n"), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestGeneratorWeightsOverridesDefault(t *testing.T) {
	cfg, err := config.Load(writeSample(t))
	require.NoError(t, err)
	weights := cfg.GeneratorWeights()
	assert.EqualValues(t, 40, weights[abstractfs.OpWrite])
	assert.EqualValues(t, 10, weights[abstractfs.OpMkDir])
}

func TestMutatorConfigAppliesOverrides(t *testing.T) {
	cfg, err := config.Load(writeSample(t))
	require.NoError(t, err)
	mc := cfg.MutatorConfig()
	assert.Equal(t, 4, mc.MaxMutations)
	assert.Equal(t, 2048, mc.MaxWorkloadLength)
	assert.EqualValues(t, 1, mc.RemoveWeight)
}
