package cmd

import (
	"github.com/spf13/cobra"

	"github.com/connorhough/idlepress/internal/config"
	"github.com/connorhough/idlepress/internal/console"
	"github.com/connorhough/idlepress/internal/session"
)

func newRunCmd() *cobra.Command {
	var o config.Overrides

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start an interactive idle-replay session",
		Long: `Open the capture context, forward the keyboard, and replay the key press
after every idle period.

Commands while running:
  t  send the key press now
  s  show idle time and counters
  h  show help
  q  quit (Ctrl+C works too)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, o)
		},
	}

	cmd.Flags().DurationVar(&o.Threshold, "threshold", 0, "idle time before the replay fires (e.g. 800ms)")
	cmd.Flags().DurationVar(&o.Poll, "poll", 0, "how often the idle time is checked")
	cmd.Flags().StringVar(&o.Key, "key", "", "key to replay (name or scan code, see 'idlepress keys')")
	cmd.Flags().StringVar(&o.Backend, "backend", "", "driver backend: interception or dryrun")
	cmd.Flags().StringVar(&o.DLL, "dll", "", "path to interception.dll")

	return cmd
}

func runSession(cmd *cobra.Command, o config.Overrides) error {
	s, err := loadSettings(o)
	if err != nil {
		return err
	}

	streams := console.NewIOStreams()
	streams.Out = cmd.OutOrStdout()
	streams.ErrOut = cmd.ErrOrStderr()
	return session.Run(cmd.Context(), s, streams, logger)
}

func loadSettings(o config.Overrides) (*config.Settings, error) {
	s, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := s.ApplyOverrides(o); err != nil {
		return nil, err
	}
	return s, nil
}
