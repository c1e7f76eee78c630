package cmd

import (
	"github.com/spf13/cobra"

	"github.com/connorhough/idlepress/internal/config"
	"github.com/connorhough/idlepress/internal/session"
)

func newPressCmd() *cobra.Command {
	var o config.Overrides

	cmd := &cobra.Command{
		Use:   "press",
		Short: "Send the replay sequence once and exit",
		Long:  `Open the driver, send the configured key press sequence one time, and close the driver. Useful to check the driver setup before starting a session.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(o)
			if err != nil {
				return err
			}
			return session.PressOnce(cmd.Context(), s, cmd.OutOrStdout(), logger)
		},
	}

	cmd.Flags().StringVar(&o.Key, "key", "", "key to replay (name or scan code, see 'idlepress keys')")
	cmd.Flags().StringVar(&o.Backend, "backend", "", "driver backend: interception or dryrun")
	cmd.Flags().StringVar(&o.DLL, "dll", "", "path to interception.dll")

	return cmd
}
