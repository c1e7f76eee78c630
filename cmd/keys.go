package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/connorhough/idlepress/internal/driver"
)

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List key names accepted by --key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range driver.KeyNames() {
				code, _ := driver.ScanCode(name)
				fmt.Fprintf(out, "%-16s 0x%02X\n", name, code)
			}
			return nil
		},
	}
}
