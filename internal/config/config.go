// Package config provides configuration management functionality for the idlepress application.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/connorhough/idlepress/internal/driver"
)

// Configuration keys
const (
	KeyIdleThreshold       = "idle.threshold"
	KeyIdlePollInterval    = "idle.poll_interval"
	KeyReplayKey           = "replay.key"
	KeyReplayDevice        = "replay.device"
	KeyReplayPressHold     = "replay.press_hold"
	KeyReplayPressGap      = "replay.press_gap"
	KeyReplayPresses       = "replay.presses"
	KeyDriverBackend       = "driver.backend"
	KeyDriverDLL           = "driver.dll"
	KeyDriverWaitTimeout   = "driver.wait_timeout"
	KeyPassthroughRestarts = "passthrough.max_restarts"
	KeyPassthroughDelay    = "passthrough.restart_delay"
	KeyConsoleEOFBackoff   = "console.eof_backoff"
	KeyLogLevel            = "log_level"
	KeyLogFile             = "log_file"
	KeyLogFormat           = "log_format"
)

// SetDefaults registers the built-in defaults with viper.
func SetDefaults() {
	viper.SetDefault(KeyIdleThreshold, 800*time.Millisecond)
	viper.SetDefault(KeyIdlePollInterval, 100*time.Millisecond)
	viper.SetDefault(KeyReplayKey, "F1")
	viper.SetDefault(KeyReplayDevice, 1)
	viper.SetDefault(KeyReplayPressHold, 50*time.Millisecond)
	viper.SetDefault(KeyReplayPressGap, 100*time.Millisecond)
	viper.SetDefault(KeyReplayPresses, 2)
	viper.SetDefault(KeyDriverBackend, driver.BackendInterception)
	viper.SetDefault(KeyDriverDLL, "interception.dll")
	viper.SetDefault(KeyDriverWaitTimeout, 100*time.Millisecond)
	viper.SetDefault(KeyPassthroughRestarts, 0)
	viper.SetDefault(KeyPassthroughDelay, time.Second)
	viper.SetDefault(KeyConsoleEOFBackoff, 100*time.Millisecond)
	viper.SetDefault(KeyLogLevel, "info")
	viper.SetDefault(KeyLogFile, "")
	viper.SetDefault(KeyLogFormat, "console")
}

// Settings is the validated, typed view of the configuration.
type Settings struct {
	Idle        IdleSettings
	Replay      ReplaySettings
	Driver      DriverSettings
	Passthrough PassthroughSettings
	Console     ConsoleSettings
	Log         LogSettings
}

type IdleSettings struct {
	Threshold    time.Duration
	PollInterval time.Duration
}

type ReplaySettings struct {
	Key       string
	KeyCode   uint16 // resolved from Key by Validate
	Device    int
	PressHold time.Duration
	PressGap  time.Duration
	Presses   int
}

type DriverSettings struct {
	Backend     string
	DLL         string
	WaitTimeout time.Duration
}

type PassthroughSettings struct {
	MaxRestarts  int
	RestartDelay time.Duration
}

type ConsoleSettings struct {
	EOFBackoff time.Duration
}

type LogSettings struct {
	Level  string
	File   string
	Format string
}

// Load reads the current viper state into Settings and validates it.
func Load() (*Settings, error) {
	s := &Settings{
		Idle: IdleSettings{
			Threshold:    viper.GetDuration(KeyIdleThreshold),
			PollInterval: viper.GetDuration(KeyIdlePollInterval),
		},
		Replay: ReplaySettings{
			Key:       viper.GetString(KeyReplayKey),
			Device:    viper.GetInt(KeyReplayDevice),
			PressHold: viper.GetDuration(KeyReplayPressHold),
			PressGap:  viper.GetDuration(KeyReplayPressGap),
			Presses:   viper.GetInt(KeyReplayPresses),
		},
		Driver: DriverSettings{
			Backend:     viper.GetString(KeyDriverBackend),
			DLL:         viper.GetString(KeyDriverDLL),
			WaitTimeout: viper.GetDuration(KeyDriverWaitTimeout),
		},
		Passthrough: PassthroughSettings{
			MaxRestarts:  viper.GetInt(KeyPassthroughRestarts),
			RestartDelay: viper.GetDuration(KeyPassthroughDelay),
		},
		Console: ConsoleSettings{
			EOFBackoff: viper.GetDuration(KeyConsoleEOFBackoff),
		},
		Log: LogSettings{
			Level:  viper.GetString(KeyLogLevel),
			File:   viper.GetString(KeyLogFile),
			Format: viper.GetString(KeyLogFormat),
		},
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks every field and resolves the replay key name.
func (s *Settings) Validate() error {
	durations := []struct {
		key string
		val time.Duration
	}{
		{KeyIdleThreshold, s.Idle.Threshold},
		{KeyIdlePollInterval, s.Idle.PollInterval},
		{KeyReplayPressHold, s.Replay.PressHold},
		{KeyReplayPressGap, s.Replay.PressGap},
		{KeyDriverWaitTimeout, s.Driver.WaitTimeout},
		{KeyPassthroughDelay, s.Passthrough.RestartDelay},
		{KeyConsoleEOFBackoff, s.Console.EOFBackoff},
	}
	for _, d := range durations {
		if d.val <= 0 {
			return fmt.Errorf("%s must be a positive duration, got %v", d.key, d.val)
		}
	}

	code, ok := driver.ScanCode(s.Replay.Key)
	if !ok {
		return fmt.Errorf("%s: unknown key %q (run 'idlepress keys' for the list)", KeyReplayKey, s.Replay.Key)
	}
	s.Replay.KeyCode = code

	if !driver.IsKeyboard(driver.Device(s.Replay.Device)) {
		return fmt.Errorf("%s must be a keyboard device between 1 and %d, got %d", KeyReplayDevice, driver.MaxKeyboard, s.Replay.Device)
	}
	if s.Replay.Presses < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", KeyReplayPresses, s.Replay.Presses)
	}
	if s.Passthrough.MaxRestarts < 0 {
		return fmt.Errorf("%s must not be negative, got %d", KeyPassthroughRestarts, s.Passthrough.MaxRestarts)
	}
	if s.Driver.Backend == "" {
		return fmt.Errorf("%s must not be empty", KeyDriverBackend)
	}
	if s.Log.Level != "" {
		if _, err := zapcore.ParseLevel(s.Log.Level); err != nil {
			return fmt.Errorf("%s: %w", KeyLogLevel, err)
		}
	}
	switch s.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%s must be console or json, got %q", KeyLogFormat, s.Log.Format)
	}
	return nil
}

// Overrides holds command-line overrides. Zero values leave the setting unchanged.
type Overrides struct {
	Threshold time.Duration
	Poll      time.Duration
	Key       string
	Backend   string
	DLL       string
}

// ApplyOverrides applies flag overrides and re-validates.
// Precedence: flags -> environment -> config file -> defaults
func (s *Settings) ApplyOverrides(o Overrides) error {
	if o.Threshold != 0 {
		s.Idle.Threshold = o.Threshold
	}
	if o.Poll != 0 {
		s.Idle.PollInterval = o.Poll
	}
	if o.Key != "" {
		s.Replay.Key = o.Key
	}
	if o.Backend != "" {
		s.Driver.Backend = o.Backend
	}
	if o.DLL != "" {
		s.Driver.DLL = o.DLL
	}
	return s.Validate()
}

// YAML renders the settings in the same shape as the config file.
func (s *Settings) YAML() ([]byte, error) {
	doc := map[string]any{
		"idle": map[string]any{
			"threshold":     s.Idle.Threshold.String(),
			"poll_interval": s.Idle.PollInterval.String(),
		},
		"replay": map[string]any{
			"key":        s.Replay.Key,
			"device":     s.Replay.Device,
			"press_hold": s.Replay.PressHold.String(),
			"press_gap":  s.Replay.PressGap.String(),
			"presses":    s.Replay.Presses,
		},
		"driver": map[string]any{
			"backend":      s.Driver.Backend,
			"dll":          s.Driver.DLL,
			"wait_timeout": s.Driver.WaitTimeout.String(),
		},
		"passthrough": map[string]any{
			"max_restarts":  s.Passthrough.MaxRestarts,
			"restart_delay": s.Passthrough.RestartDelay.String(),
		},
		"console": map[string]any{
			"eof_backoff": s.Console.EOFBackoff.String(),
		},
		KeyLogLevel:  s.Log.Level,
		KeyLogFile:   s.Log.File,
		KeyLogFormat: s.Log.Format,
	}
	return yaml.Marshal(doc)
}

// GetValue retrieves a configuration value by key
func GetValue(key string) (string, error) {
	if !viper.IsSet(key) {
		return "", fmt.Errorf("key '%s' not found in configuration", key)
	}
	return viper.GetString(key), nil
}

// SetValue sets a configuration value by key and persists it to the config file.
// The value is validated together with the rest of the configuration first,
// so a bad value never reaches the file.
func SetValue(key string, value string) error {
	previous, wasSet := viper.Get(key), viper.IsSet(key)
	viper.Set(key, value)
	if _, err := Load(); err != nil {
		if wasSet {
			viper.Set(key, previous)
		}
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return viper.WriteConfig()
}
