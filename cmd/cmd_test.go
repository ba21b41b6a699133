package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCommand_EmbeddedEngine(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENGINE_MODE", "embedded")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_OUTPUT", "stderr")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"seed"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "indexed 4 orders into kibana_sample_data_ecommerce (0 failed)")
}

func TestWorkerCommand_RequiresBrokers(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENGINE_MODE", "embedded")
	t.Setenv("KAFKA_BROKERS", "")

	rootCmd.SetArgs([]string{"worker"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestRootCommand_MissingConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	rootCmd.SetArgs([]string{"api", "--config", "missing.yaml"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		configPath = ""
	})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config")
}
