// pkg/tasks/service.go - Windows service startup type management.

package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/windowsadmins/winforge/pkg/catalog"
	"github.com/windowsadmins/winforge/pkg/command"
	"github.com/windowsadmins/winforge/pkg/engine"
)

type serviceDetails struct {
	Name        string `json:"name"`
	StartupType string `json:"startupType"` // Automatic, Manual, Disabled
}

// normalizeStartMode folds the WMI StartMode spellings and the catalog
// spellings into one vocabulary.
func normalizeStartMode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "auto", "automatic":
		return "automatic"
	case "manual", "demand":
		return "manual"
	case "disabled":
		return "disabled"
	default:
		return strings.ToLower(strings.TrimSpace(mode))
	}
}

// scStartValue maps a catalog startup type to the sc.exe argument.
func scStartValue(startupType string) (string, error) {
	switch normalizeStartMode(startupType) {
	case "automatic":
		return "auto", nil
	case "manual":
		return "demand", nil
	case "disabled":
		return "disabled", nil
	default:
		return "", fmt.Errorf("unsupported service startup type %q", startupType)
	}
}

func verifyService(ctx context.Context, env *engine.Env, t catalog.Task) (engine.Status, error) {
	var d serviceDetails
	if err := decodeDetails(t.Details, &d); err != nil {
		return engine.StatusError, err
	}
	if env.Services == nil {
		return engine.StatusError, fmt.Errorf("no service querier configured")
	}

	info, err := env.Services.Query(d.Name)
	if err != nil {
		// The catalog assumes the service exists; a missing name is a
		// genuinely unexpected condition, not ordinary absence.
		if errors.Is(err, engine.ErrServiceNotFound) {
			return engine.StatusError, fmt.Errorf("service %s not found in service manager: %w", d.Name, err)
		}
		return engine.StatusError, fmt.Errorf("querying service %s: %w", d.Name, err)
	}
	if normalizeStartMode(info.StartMode) == normalizeStartMode(d.StartupType) {
		return engine.StatusApplied, nil
	}
	return engine.StatusPending, nil
}

func configureService(ctx context.Context, env *engine.Env, d serviceDetails) error {
	startValue, err := scStartValue(d.StartupType)
	if err != nil {
		return err
	}

	// sc.exe wants the space after "start=" exactly like this.
	res := env.RunNative(ctx, "sc.exe", []string{"config", d.Name, "start=", startValue},
		[]string{"FAILED"}, "Configuring service "+d.Name,
		command.Options{DisableIdleTimeout: true, OverallTimeout: time.Minute})
	if !res.Success {
		return fmt.Errorf("configuring service %s: %w\n%s", d.Name, res.Err, res.OutputText())
	}

	if normalizeStartMode(d.StartupType) == "disabled" {
		// Best effort: a service that is already stopped makes sc complain,
		// which is fine.
		env.RunNative(ctx, "sc.exe", []string{"stop", d.Name}, nil,
			"Stopping service "+d.Name,
			command.Options{DisableIdleTimeout: true, OverallTimeout: time.Minute})
	}
	return nil
}

func applyService(ctx context.Context, env *engine.Env, t catalog.Task) error {
	var d serviceDetails
	if err := decodeDetails(t.Details, &d); err != nil {
		return err
	}
	return configureService(ctx, env, d)
}

func revertService(ctx context.Context, env *engine.Env, t catalog.Task) error {
	var rd serviceDetails
	if err := decodeDetails(t.RevertDetails, &rd); err != nil {
		return err
	}
	if rd.Name == "" {
		var d serviceDetails
		if err := decodeDetails(t.Details, &d); err == nil {
			rd.Name = d.Name
		}
	}
	return configureService(ctx, env, rd)
}

func serviceHandlers() engine.Handlers {
	return engine.Handlers{Verify: verifyService, Apply: applyService, Revert: revertService}
}
