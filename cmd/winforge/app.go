// cmd/winforge/app.go - wiring between the CLI and the engine.

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/windowsadmins/winforge/pkg/catalog"
	"github.com/windowsadmins/winforge/pkg/command"
	"github.com/windowsadmins/winforge/pkg/config"
	"github.com/windowsadmins/winforge/pkg/console"
	"github.com/windowsadmins/winforge/pkg/engine"
	"github.com/windowsadmins/winforge/pkg/logging"
	"github.com/windowsadmins/winforge/pkg/pkgmgr"
	"github.com/windowsadmins/winforge/pkg/report"
	"github.com/windowsadmins/winforge/pkg/tasks"
	"github.com/windowsadmins/winforge/pkg/winreg"
	"github.com/windowsadmins/winforge/pkg/winsec"
)

// App holds the wired collaborators for one CLI invocation.
type App struct {
	Config   *config.Configuration
	Console  *console.Console
	Engine   *engine.Engine
	Managers pkgmgr.Managers
	Session  *report.Session
}

// newApp loads configuration, starts logging and wires the engine.
func newApp(flags *GlobalFlags) (*App, error) {
	cfg, err := config.LoadConfig(flags.ConfigPath)
	if err != nil {
		return nil, err
	}
	if flags.Debug {
		cfg.Debug = true
		cfg.LogLevel = "DEBUG"
	}
	if flags.Verbose {
		cfg.Verbose = true
	}
	if err := logging.Init(cfg); err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}

	ui := console.Default(console.NewTheme(cfg.Theme, true))

	env := &engine.Env{
		Config:   cfg,
		Store:    winreg.Default(),
		Elevator: winsec.Default(),
		Runner:   command.SuperviseRunner{},
		Notifier: ui,
		Services: tasks.DefaultServiceQuerier(),
	}

	reg := engine.NewRegistry()
	tasks.RegisterAll(reg)

	session := report.NewSession()
	eng := engine.New(reg, env)
	eng.OnAction(session.RecordAction)

	return &App{
		Config:   cfg,
		Console:  ui,
		Engine:   eng,
		Managers: pkgmgr.NewManagers(env.RunNative),
		Session:  session,
	}, nil
}

// finish writes the session report and surfaces a queued reboot request.
func (a *App) finish() {
	if err := a.Session.Write(a.Config.ReportPath); err != nil {
		logging.Warn("Could not write session report", "error", err)
	}
	if a.Engine.Env().ConsumeRebootRequest() {
		a.Console.Notify(console.LevelWarning, "A reboot is required to finish applying changes.")
	}
}

// resolveCatalog turns a catalog name into a path under CatalogsPath; an
// absolute or relative path with a separator is used as given.
func (a *App) resolveCatalog(name string) string {
	if name == "" {
		name = "tweaks.json"
	}
	if strings.ContainsAny(name, `/\`) {
		return name
	}
	return filepath.Join(a.Config.CatalogsPath, name)
}

// catalogFlavor infers the identifier flavor from the file name. Package
// catalogs key items by installId, everything else by id.
func catalogFlavor(path string) catalog.Flavor {
	base := strings.ToLower(filepath.Base(path))
	if strings.Contains(base, "package") {
		return catalog.FlavorPackages
	}
	return catalog.FlavorTweaks
}

// loadCatalog resolves, loads and validates a catalog.
func (a *App) loadCatalog(name string) (*catalog.Catalog, error) {
	path := a.resolveCatalog(name)
	cat, err := catalog.Load(path, catalogFlavor(path))
	if err != nil {
		return nil, err
	}
	logging.Info("Catalog loaded", "path", path, "tasks", len(cat.Tasks))
	return cat, nil
}

// printStates renders one reconciliation pass as a table.
func (a *App) printStates(states []engine.TaskState) {
	for _, st := range states {
		line := fmt.Sprintf("%-28s %-24s %s", st.Task.Key(), st.Task.Type, st.Status)
		switch st.Status {
		case engine.StatusError, engine.StatusEngineError:
			a.Console.Notify(console.LevelError, line)
			if st.Err != nil {
				a.Console.Notify(console.LevelError, "    "+st.Err.Error())
			}
		case engine.StatusPending:
			a.Console.Notify(console.LevelWarning, line)
		default:
			a.Console.Notify(console.LevelInfo, line)
		}
	}
}

// applyAll reconciles and applies every pending task. Action recording
// happens inside the engine through the session observer.
func (a *App) applyAll(ctx context.Context, cat *catalog.Catalog, stopOnFailure bool) engine.BatchResult {
	states := a.Engine.Reconcile(ctx, cat.Tasks)
	a.Session.RecordStates(states)
	return a.Engine.ApplyAllPending(ctx, states, stopOnFailure)
}

// revertAll reconciles and reverts every applied-and-revertible task after
// the engine's confirmation prompt.
func (a *App) revertAll(ctx context.Context, cat *catalog.Catalog) engine.BatchResult {
	states := a.Engine.Reconcile(ctx, cat.Tasks)
	a.Session.RecordStates(states)
	res := a.Engine.RevertAllApplied(ctx, states, a.Console)
	if !res.Aborted && res.Succeeded == 0 && res.Failed == 0 {
		a.Console.Notify(console.LevelInfo, "Nothing to revert.")
	}
	return res
}

func (a *App) printBatch(res engine.BatchResult) {
	msg := fmt.Sprintf("%d succeeded, %d failed", res.Succeeded, res.Failed)
	if res.Aborted {
		msg += " (aborted)"
	}
	level := console.LevelInfo
	if res.Failed > 0 {
		level = console.LevelWarning
	}
	a.Console.Notify(level, msg)
	for _, id := range res.FailedIDs {
		a.Console.Notify(console.LevelError, "  failed: "+id)
	}
}

// exitCode maps a batch result to the process exit code.
func exitCode(res engine.BatchResult) error {
	if res.Failed > 0 {
		return fmt.Errorf("%d task(s) failed", res.Failed)
	}
	return nil
}
