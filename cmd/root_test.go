package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	cfgFile = ""
	t.Cleanup(func() {
		viper.Reset()
		cfgFile = ""
	})
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandStructure(t *testing.T) {
	root := NewRootCmd()

	assert.Equal(t, "idlepress", root.Use)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))

	want := []string{"run", "press", "keys", "config"}
	for _, name := range want {
		t.Run(name, func(t *testing.T) {
			sub, _, err := root.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestRunCommandFlags(t *testing.T) {
	cmd := newRunCmd()

	for _, name := range []string{"threshold", "poll", "key", "backend", "dll"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s", name)
	}
	assert.Equal(t, "0s", cmd.Flags().Lookup("threshold").DefValue)
}

func TestConfigSubcommands(t *testing.T) {
	cmd := newConfigCmd()

	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"get", "set", "init", "show"}, names)
}

func TestKeysCommand(t *testing.T) {
	out, err := execute(t, "keys")
	require.NoError(t, err)
	assert.Contains(t, out, "F1               0x3B")
	assert.Contains(t, out, "Escape           0x01")
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idlepress", "config.yaml")

	out, err := execute(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	out, err = execute(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Config already exists")

	out, err = execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "threshold: 800ms")
	assert.Contains(t, out, "key: F1")
}

func TestConfigSetRejectsInvalidValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	_, err := execute(t, "--config", path, "config", "init")
	require.NoError(t, err)

	_, err = execute(t, "--config", path, "config", "set", "log_level", "verbose")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")

	out, err := execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "log_level: info")
}

func TestConfigRepairsBadLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: verbose\n"), 0644))

	_, err := execute(t, "--config", path, "keys")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")

	out, err := execute(t, "--config", path, "config", "set", "log_level", "warn")
	require.NoError(t, err)
	assert.Contains(t, out, "logging disabled")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "warn")

	_, err = execute(t, "--config", path, "keys")
	assert.NoError(t, err)
}

func TestConfigGet(t *testing.T) {
	out, err := execute(t, "config", "get", "replay.key")
	require.NoError(t, err)
	assert.Equal(t, "F1\n", out)

	_, err = execute(t, "config", "get", "no.such.key")
	assert.Error(t, err)
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("IDLEPRESS_REPLAY_KEY", "F2")

	out, err := execute(t, "config", "get", "replay.key")
	require.NoError(t, err)
	assert.Equal(t, "F2\n", out)
}

func TestPressRejectsUnknownKey(t *testing.T) {
	_, err := execute(t, "press", "--backend", "dryrun", "--key", "NoSuchKey")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown key")
}

func TestPressDryRun(t *testing.T) {
	_, err := execute(t, "press", "--backend", "dryrun")
	assert.NoError(t, err)
}
