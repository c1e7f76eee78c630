// Package cmd provides the command-line interface for the idlepress application.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/connorhough/idlepress/internal/config"
	"github.com/connorhough/idlepress/internal/logging"
	"github.com/connorhough/idlepress/internal/version"
)

var (
	cfgFile string
	rootCmd *cobra.Command

	// logger is built from the loaded configuration before any command runs.
	logger = zap.NewNop()
)

// Execute adds all child commands to the root command and runs it with ctx.
// This is called by main.go. It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	if rootCmd == nil {
		rootCmd = NewRootCmd()
	}
	defer func() { _ = logger.Sync() }()
	return rootCmd.ExecuteContext(ctx)
}

// NewRootCmd creates and returns the root command for idlepress
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "idlepress",
		Short: "Replay a key press whenever the keyboard goes idle",
		Long: `idlepress captures the keyboard through the Interception driver, forwards
every keystroke unchanged, and replays a scripted key press (F1 twice by
default) once no key has been pressed for the idle threshold.

Running idlepress without a subcommand starts an interactive session.
Requires the Interception driver, a reboot after installing it, and
Administrator rights.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.String(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, config.Overrides{})
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default locations: $XDG_CONFIG_HOME/idlepress/config.yaml, ~/.config/idlepress/config.yaml, or ~/config.yaml)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newPressCmd())
	rootCmd.AddCommand(newKeysCmd())
	rootCmd.AddCommand(newConfigCmd())

	// PersistentPreRun handles configuration and logger initialization
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		if err := initLogger(); err != nil {
			// The config commands must keep working so a bad logging
			// setting can be repaired.
			if !isConfigCommand(cmd) {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v (logging disabled)\n", err)
		}
		return nil
	}

	return rootCmd
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	config.SetDefaults()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find config file in standard locations
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "idlepress"))
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get user home directory: %w", err)
			}
			viper.AddConfigPath(filepath.Join(home, ".config", "idlepress"))
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match, e.g. IDLEPRESS_IDLE_THRESHOLD
	viper.SetEnvPrefix("IDLEPRESS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// 'config init' runs before the file named by --config exists.
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	return nil
}

func initLogger() error {
	l, err := logging.New(logging.Options{
		Level:  viper.GetString(config.KeyLogLevel),
		Format: viper.GetString(config.KeyLogFormat),
		File:   viper.GetString(config.KeyLogFile),
	})
	if err != nil {
		return err
	}
	logger = l
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("loaded config", zap.String("path", used))
	}
	return nil
}

func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" && c.HasParent() && !c.Parent().HasParent() {
			return true
		}
	}
	return false
}
