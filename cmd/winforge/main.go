// cmd/winforge/main.go

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/windowsadmins/winforge/pkg/logging"
	"github.com/windowsadmins/winforge/pkg/version"
)

func main() {
	enableANSIConsole()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := buildRoot()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		logging.CloseLogger()
		os.Exit(1)
	}
	logging.CloseLogger()
}

// GlobalFlags holds the persistent flags shared by every subcommand.
type GlobalFlags struct {
	ConfigPath string
	Catalog    string
	Verbose    bool
	Debug      bool
}

func buildRoot() *cobra.Command {
	flags := &GlobalFlags{}

	root := &cobra.Command{
		Use:   "winforge",
		Short: "Windows provisioning console",
		Long: `Winforge reconciles a machine against declarative task catalogs:
registry tweaks, service configuration, cleanup actions and package installs.

Examples:
  winforge status --catalog tweaks.json
  winforge apply --catalog tweaks.json
  winforge packages status
  winforge menu`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to YAML config file (optional)")
	root.PersistentFlags().StringVar(&flags.Catalog, "catalog", "", "catalog file name or path")
	root.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "debug logging")

	root.AddCommand(
		createStatusCommand(flags),
		createApplyCommand(flags),
		createRevertCommand(flags),
		createMenuCommand(flags),
		createPackagesCommand(flags),
		createVersionCommand(),
	)
	return root
}

func createVersionCommand() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if full {
				version.PrintFull()
				return
			}
			version.Print()
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "print build details")
	return cmd
}
