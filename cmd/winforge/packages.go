// cmd/winforge/packages.go - package catalog subcommands.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/windowsadmins/winforge/pkg/console"
	"github.com/windowsadmins/winforge/pkg/pkgmgr"
)

func createPackagesCommand(flags *GlobalFlags) *cobra.Command {
	var only string

	cmd := &cobra.Command{
		Use:   "packages",
		Short: "Manage the package catalog",
	}
	cmd.PersistentFlags().StringVar(&only, "id", "", "limit to one installId")

	run := func(action string) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			app, err := newApp(flags)
			if err != nil {
				return err
			}
			defer app.finish()
			return app.runPackages(cmd.Context(), flags.Catalog, action, only)
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "status", Short: "Show installed state per package", RunE: run("status")},
		&cobra.Command{Use: "install", Short: "Install missing packages", RunE: run("install")},
		&cobra.Command{Use: "uninstall", Short: "Uninstall catalog packages", RunE: run("uninstall")},
		&cobra.Command{Use: "upgrade", Short: "Upgrade upgradable packages", RunE: run("upgrade")},
	)
	return cmd
}

func (a *App) runPackages(ctx context.Context, catalogName, action, only string) error {
	if catalogName == "" {
		catalogName = "packages.json"
	}
	cat, err := a.loadCatalog(catalogName)
	if err != nil {
		return err
	}

	var failed int
	for _, t := range cat.Tasks {
		if ctx.Err() != nil {
			break
		}
		entry, err := pkgmgr.EntryFromTask(t)
		if err != nil {
			a.Console.Notify(console.LevelError, err.Error())
			failed++
			continue
		}
		if only != "" && entry.InstallID != only {
			continue
		}
		if err := a.runPackageAction(ctx, entry, action); err != nil {
			a.Console.Notify(console.LevelError, fmt.Sprintf("%s %s: %v", action, entry.InstallID, err))
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d package(s) failed", failed)
	}
	return nil
}

func (a *App) runPackageAction(ctx context.Context, entry pkgmgr.Entry, action string) error {
	mgr, err := a.Managers.For(entry)
	if err != nil {
		return err
	}
	state, err := mgr.GetInstalledStatus(ctx, entry)
	if err != nil {
		return err
	}

	switch action {
	case "status":
		line := fmt.Sprintf("%-36s %-8s %-14s %s", entry.InstallID, entry.Manager, state.Status, state.Version)
		if state.Upgradable {
			line += " -> " + state.Available
		}
		a.Console.Notify(console.LevelInfo, line)
		return nil
	case "install":
		if state.Status == pkgmgr.StatusInstalled {
			return nil
		}
		err := mgr.Install(ctx, entry)
		a.Session.RecordAction(entry.InstallID, "Apply", err)
		return err
	case "uninstall":
		if state.Status == pkgmgr.StatusNotInstalled {
			return nil
		}
		err := mgr.Uninstall(ctx, entry)
		a.Session.RecordAction(entry.InstallID, "Revert", err)
		return err
	case "upgrade":
		if !state.Upgradable {
			return nil
		}
		err := mgr.Upgrade(ctx, entry)
		a.Session.RecordAction(entry.InstallID, "Apply", err)
		return err
	default:
		return fmt.Errorf("unknown package action %q", action)
	}
}
