// pkg/tasks/registry.go - registry value tweaks, plain and ACL-protected.

package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/windowsadmins/winforge/pkg/catalog"
	"github.com/windowsadmins/winforge/pkg/command"
	"github.com/windowsadmins/winforge/pkg/engine"
	"github.com/windowsadmins/winforge/pkg/logging"
	"github.com/windowsadmins/winforge/pkg/winreg"
)

type registryDetails struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Value     string `json:"value"`
	ValueType string `json:"valueType"`
	// Delete is honored in revert payloads: remove the value instead of
	// writing one.
	Delete bool `json:"delete,omitempty"`
}

func (d registryDetails) registryValue() winreg.Value {
	vt := winreg.ValueType(d.ValueType)
	if d.ValueType == "" {
		vt = winreg.TypeString
	}
	return winreg.Value{Type: vt, Data: d.Value}
}

func verifyRegistry(ctx context.Context, env *engine.Env, t catalog.Task) (engine.Status, error) {
	var d registryDetails
	if err := decodeDetails(t.Details, &d); err != nil {
		return engine.StatusError, err
	}

	got, err := env.Store.GetValue(d.Path, d.Name)
	if errors.Is(err, winreg.ErrNotExist) {
		// The value not existing yet is the expected pre-state.
		return engine.StatusPending, nil
	}
	if err != nil {
		// Inaccessible is not the same as absent; surface it.
		return engine.StatusError, fmt.Errorf("reading %s\\%s: %w", d.Path, d.Name, err)
	}
	if winreg.Equal(got, d.registryValue()) {
		return engine.StatusApplied, nil
	}
	return engine.StatusPending, nil
}

func applyRegistry(ctx context.Context, env *engine.Env, t catalog.Task) error {
	var d registryDetails
	if err := decodeDetails(t.Details, &d); err != nil {
		return err
	}
	return env.Store.SetValue(d.Path, d.Name, d.registryValue())
}

func revertRegistry(ctx context.Context, env *engine.Env, t catalog.Task) error {
	var rd registryDetails
	if err := decodeDetails(t.RevertDetails, &rd); err != nil {
		return err
	}
	// Revert payloads may omit path/name when they match the apply target.
	var d registryDetails
	if err := decodeDetails(t.Details, &d); err == nil {
		if rd.Path == "" {
			rd.Path = d.Path
		}
		if rd.Name == "" {
			rd.Name = d.Name
		}
	}
	if rd.Delete {
		return env.Store.DeleteValue(rd.Path, rd.Name)
	}
	return env.Store.SetValue(rd.Path, rd.Name, rd.registryValue())
}

func registryHandlers() engine.Handlers {
	return engine.Handlers{
		Verify: verifyRegistry,
		Apply:  applyRegistry,
		Revert: revertRegistry,
	}
}

// protectedRegistryHandlers routes every mutation through the scoped ACL
// elevation helper. Verify stays the plain read.
func protectedRegistryHandlers() engine.Handlers {
	elevated := func(f engine.ApplyFunc) engine.ApplyFunc {
		return func(ctx context.Context, env *engine.Env, t catalog.Task) error {
			var d registryDetails
			if err := decodeDetails(t.Details, &d); err != nil {
				return err
			}
			return env.Elevator.WithElevatedAccess(d.Path, func() error {
				return f(ctx, env, t)
			})
		}
	}
	return engine.Handlers{
		Verify: verifyRegistry,
		Apply:  elevated(applyRegistry),
		Revert: elevated(revertRegistry),
	}
}

// withExplorerRestart wraps a handler triple's mutations with a shell
// stop/restart so changes to Explorer-owned settings take effect.
func withExplorerRestart(base engine.Handlers) engine.Handlers {
	wrap := func(f engine.ApplyFunc) engine.ApplyFunc {
		if f == nil {
			return nil
		}
		return func(ctx context.Context, env *engine.Env, t catalog.Task) error {
			stopShell(ctx, env)
			defer restartShell()
			return f(ctx, env, t)
		}
	}
	return engine.Handlers{
		Verify: base.Verify,
		Apply:  wrap(base.Apply),
		Revert: wrap(base.Revert),
	}
}

func stopShell(ctx context.Context, env *engine.Env) {
	res := env.RunNative(ctx, "taskkill.exe", []string{"/f", "/im", "explorer.exe"}, nil,
		"Stopping Explorer", command.Options{DisableIdleTimeout: true, OverallTimeout: time.Minute})
	if !res.Success {
		logging.Warn("Could not stop Explorer", "error", res.Err)
	}
}
