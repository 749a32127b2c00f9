// cmd/winforge/menu.go - interactive menu front end.
//
// The menu re-reconciles the catalog before every render so the displayed
// states always reflect the live machine, never a cached pass.

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/windowsadmins/winforge/pkg/catalog"
	"github.com/windowsadmins/winforge/pkg/console"
	"github.com/windowsadmins/winforge/pkg/engine"
)

func createMenuCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Interactive catalog menu",
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
			return app.runMenu(cmd.Context(), cat)
		},
	}
}

func (a *App) runMenu(ctx context.Context, cat *catalog.Catalog) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		states := a.Engine.Reconcile(ctx, cat.Tasks)
		a.Session.RecordStates(states)

		items := make([]string, 0, len(states)+2)
		for _, st := range states {
			items = append(items, fmt.Sprintf("[%-22s] %s", st.Status, st.Task.Label()))
		}
		items = append(items, "Apply all pending", "Revert all applied")

		choice, err := a.Console.ShowMenu("WinForge - "+cat.Path, items)
		if errors.Is(err, console.ErrMenuQuit) {
			return nil
		}
		if err != nil {
			return err
		}

		switch choice {
		case len(states): // apply all pending
			a.printBatch(a.applyAll(ctx, cat, false))
		case len(states) + 1: // revert all applied
			a.printBatch(a.revertAll(ctx, cat))
		default:
			a.runMenuTask(ctx, states[choice])
		}
	}
}

// runMenuTask offers the sensible action for one task's current state.
func (a *App) runMenuTask(ctx context.Context, st engine.TaskState) {
	switch st.Status {
	case engine.StatusPending:
		if err := a.Engine.Apply(ctx, st.Task); err != nil {
			a.Console.Notify(console.LevelError, fmt.Sprintf("apply %s: %v", st.Task.Key(), err))
			return
		}
		a.Console.Notify(console.LevelInfo, st.Task.Label()+" applied.")
	case engine.StatusApplied:
		reverted, err := a.Engine.RevertOne(ctx, st.Task, a.Console)
		if err != nil {
			a.Console.Notify(console.LevelError, fmt.Sprintf("revert %s: %v", st.Task.Key(), err))
			return
		}
		if reverted {
			a.Console.Notify(console.LevelInfo, st.Task.Label()+" reverted.")
		}
	case engine.StatusAppliedNotRevertible:
		a.Console.Notify(console.LevelWarning, st.Task.Label()+" is applied and cannot be reverted.")
	default:
		if st.Err != nil {
			a.Console.Notify(console.LevelError, fmt.Sprintf("%s: %v", st.Task.Label(), st.Err))
		}
	}
}
