package main

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for opentip.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "opentip",
		Short: "Check files and indicators against Kaspersky OpenTIP",
		Long: `opentip checks files and indicators of compromise against the Kaspersky
OpenTIP threat intelligence portal.

Files are identified by their SHA-256 digest. Files unknown to the service
are uploaded for analysis unless --no-upload is given.

An API key is required. Get one at https://opentip.kaspersky.com/token and
pass it with --apikey or the OPENTIP_APIKEY environment variable.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write diagnostics as JSON")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .opentip in current or home directory)")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits with the code of its outcome.
func Execute() {
	err := NewRootCmd().Execute()
	os.Exit(handleError(os.Stderr, err))
}
