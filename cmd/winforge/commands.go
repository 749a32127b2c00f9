// cmd/winforge/commands.go - status, apply and revert subcommands.

package main

import (
	"github.com/spf13/cobra"
)

func createStatusCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Reconcile a catalog and print each task's state",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(flags)
			if err != nil {
				return err
			}
			defer app.finish()

			cat, err := app.loadCatalog(flags.Catalog)
			if err != nil {
				return err
			}
			states := app.Engine.Reconcile(cmd.Context(), cat.Tasks)
			app.Session.RecordStates(states)
			app.printStates(states)
			return nil
		},
	}
}

func createApplyCommand(flags *GlobalFlags) *cobra.Command {
	var stopOnFailure bool
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply every pending task in a catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(flags)
			if err != nil {
				return err
			}
			defer app.finish()

			cat, err := app.loadCatalog(flags.Catalog)
			if err != nil {
				return err
			}
			res := app.applyAll(cmd.Context(), cat, stopOnFailure)
			app.printBatch(res)
			return exitCode(res)
		},
	}
	cmd.Flags().BoolVar(&stopOnFailure, "stop-on-failure", false, "stop the batch at the first failed task")
	return cmd
}

func createRevertCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "revert",
		Short: "Revert every applied task in a catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(flags)
			if err != nil {
				return err
			}
			defer app.finish()

			cat, err := app.loadCatalog(flags.Catalog)
			if err != nil {
				return err
			}
			res := app.revertAll(cmd.Context(), cat)
			app.printBatch(res)
			return exitCode(res)
		},
	}
}
