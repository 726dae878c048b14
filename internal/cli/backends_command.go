package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// newBackendsCommand creates the backends subcommand
func newBackendsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List available conversion backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := cliFromContext(cmd.Context())
			if cli == nil {
				slog.Error("CLI instance not found in context")
				return fmt.Errorf("CLI instance not found in context")
			}

			for _, name := range cli.backendFactory.GetSupportedBackends() {
				cmd.Printf("%s\n", name)
			}
			return nil
		},
	}
}
