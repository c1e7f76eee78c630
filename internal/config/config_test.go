package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	SetDefaults()
	t.Cleanup(viper.Reset)
}

func TestLoad_Defaults(t *testing.T) {
	resetViper(t)

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 800*time.Millisecond, s.Idle.Threshold)
	assert.Equal(t, 100*time.Millisecond, s.Idle.PollInterval)
	assert.Equal(t, "F1", s.Replay.Key)
	assert.Equal(t, uint16(0x3B), s.Replay.KeyCode)
	assert.Equal(t, 1, s.Replay.Device)
	assert.Equal(t, 50*time.Millisecond, s.Replay.PressHold)
	assert.Equal(t, 100*time.Millisecond, s.Replay.PressGap)
	assert.Equal(t, 2, s.Replay.Presses)
	assert.Equal(t, "interception", s.Driver.Backend)
	assert.Equal(t, "interception.dll", s.Driver.DLL)
	assert.Equal(t, 100*time.Millisecond, s.Driver.WaitTimeout)
	assert.Equal(t, 0, s.Passthrough.MaxRestarts)
	assert.Equal(t, time.Second, s.Passthrough.RestartDelay)
	assert.Equal(t, 100*time.Millisecond, s.Console.EOFBackoff)
	assert.Equal(t, "info", s.Log.Level)
	assert.Equal(t, "console", s.Log.Format)
}

func TestLoad_FromFile(t *testing.T) {
	resetViper(t)

	configFile := filepath.Join(t.TempDir(), "config.yaml")
	content := `
idle:
  threshold: 2s
replay:
  key: space
  presses: 1
driver:
  backend: dryrun
log_level: debug
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))
	viper.SetConfigFile(configFile)
	require.NoError(t, viper.ReadInConfig())

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, s.Idle.Threshold)
	assert.Equal(t, 100*time.Millisecond, s.Idle.PollInterval, "unset keys keep defaults")
	assert.Equal(t, uint16(0x39), s.Replay.KeyCode)
	assert.Equal(t, 1, s.Replay.Presses)
	assert.Equal(t, "dryrun", s.Driver.Backend)
	assert.Equal(t, "debug", s.Log.Level)
}

func TestLoad_FromEnvironment(t *testing.T) {
	resetViper(t)
	viper.SetEnvPrefix("IDLEPRESS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	t.Setenv("IDLEPRESS_IDLE_THRESHOLD", "1500ms")
	t.Setenv("IDLEPRESS_REPLAY_KEY", "F5")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, s.Idle.Threshold)
	assert.Equal(t, uint16(0x3F), s.Replay.KeyCode)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{name: "valid", mutate: func(s *Settings) {}},
		{name: "zero threshold", mutate: func(s *Settings) { s.Idle.Threshold = 0 }, wantErr: KeyIdleThreshold},
		{name: "negative poll", mutate: func(s *Settings) { s.Idle.PollInterval = -time.Second }, wantErr: KeyIdlePollInterval},
		{name: "zero hold", mutate: func(s *Settings) { s.Replay.PressHold = 0 }, wantErr: KeyReplayPressHold},
		{name: "unknown key", mutate: func(s *Settings) { s.Replay.Key = "Hyper" }, wantErr: KeyReplayKey},
		{name: "mouse device", mutate: func(s *Settings) { s.Replay.Device = 11 }, wantErr: KeyReplayDevice},
		{name: "no presses", mutate: func(s *Settings) { s.Replay.Presses = 0 }, wantErr: KeyReplayPresses},
		{name: "negative restarts", mutate: func(s *Settings) { s.Passthrough.MaxRestarts = -1 }, wantErr: KeyPassthroughRestarts},
		{name: "empty backend", mutate: func(s *Settings) { s.Driver.Backend = "" }, wantErr: KeyDriverBackend},
		{name: "bad log format", mutate: func(s *Settings) { s.Log.Format = "xml" }, wantErr: KeyLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			s, err := Load()
			require.NoError(t, err)

			tt.mutate(s)
			err = s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyOverrides(t *testing.T) {
	tests := []struct {
		name          string
		overrides     Overrides
		wantThreshold time.Duration
		wantKey       uint16
		wantBackend   string
		wantErr       bool
	}{
		{
			name:          "empty overrides keep config",
			wantThreshold: 800 * time.Millisecond,
			wantKey:       0x3B,
			wantBackend:   "interception",
		},
		{
			name:          "all overrides apply",
			overrides:     Overrides{Threshold: 2 * time.Second, Key: "F2", Backend: "dryrun", DLL: `C:\tools\interception.dll`},
			wantThreshold: 2 * time.Second,
			wantKey:       0x3C,
			wantBackend:   "dryrun",
		},
		{
			name:      "invalid key is rejected",
			overrides: Overrides{Key: "nope"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			s, err := Load()
			require.NoError(t, err)

			err = s.ApplyOverrides(tt.overrides)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantThreshold, s.Idle.Threshold)
			assert.Equal(t, tt.wantKey, s.Replay.KeyCode)
			assert.Equal(t, tt.wantBackend, s.Driver.Backend)
			if tt.overrides.DLL != "" {
				assert.Equal(t, tt.overrides.DLL, s.Driver.DLL)
			}
		})
	}
}

func TestSettingsYAML(t *testing.T) {
	resetViper(t)
	s, err := Load()
	require.NoError(t, err)

	out, err := s.YAML()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(out, &doc))
	idle := doc["idle"].(map[string]any)
	assert.Equal(t, "800ms", idle["threshold"])
	replay := doc["replay"].(map[string]any)
	assert.Equal(t, "F1", replay["key"])
	assert.Equal(t, 2, replay["presses"])
	assert.Equal(t, "info", doc["log_level"])
}

func TestGetSetValue(t *testing.T) {
	resetViper(t)

	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("replay:\n  key: F1\n"), 0644))
	viper.SetConfigFile(configFile)
	require.NoError(t, viper.ReadInConfig())

	v, err := GetValue(KeyReplayKey)
	require.NoError(t, err)
	assert.Equal(t, "F1", v)

	_, err = GetValue("no.such.key")
	assert.Error(t, err)

	require.NoError(t, SetValue(KeyReplayKey, "F9"))
	data, err := os.ReadFile(configFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "F9")
}

func TestSetValue_RejectsInvalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: KeyLogLevel, value: "verbose"},
		{key: KeyLogFormat, value: "xml"},
		{key: KeyReplayKey, value: "NoSuchKey"},
		{key: KeyIdleThreshold, value: "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			resetViper(t)
			configFile := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(configFile, []byte("replay:\n  key: F1\n"), 0644))
			viper.SetConfigFile(configFile)
			require.NoError(t, viper.ReadInConfig())

			err := SetValue(tt.key, tt.value)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)

			data, err := os.ReadFile(configFile)
			require.NoError(t, err)
			assert.NotContains(t, string(data), tt.value)

			_, err = Load()
			assert.NoError(t, err)
		})
	}
}

func TestValidate_LogLevel(t *testing.T) {
	resetViper(t)
	viper.Set(KeyLogLevel, "loud")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyLogLevel)
}
