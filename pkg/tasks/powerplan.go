// pkg/tasks/powerplan.go - active power scheme selection via powercfg.

package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/windowsadmins/winforge/pkg/catalog"
	"github.com/windowsadmins/winforge/pkg/command"
	"github.com/windowsadmins/winforge/pkg/engine"
)

type powerPlanDetails struct {
	SchemeGuid string `json:"schemeGuid"`
}

func verifyPowerPlan(ctx context.Context, env *engine.Env, t catalog.Task) (engine.Status, error) {
	var d powerPlanDetails
	if err := decodeDetails(t.Details, &d); err != nil {
		return engine.StatusError, err
	}

	res := env.RunNative(ctx, "powercfg.exe", []string{"/getactivescheme"}, nil,
		"Reading active power scheme", command.Options{DisableIdleTimeout: true})
	if !res.Success {
		return engine.StatusError, fmt.Errorf("reading active power scheme: %w", res.Err)
	}
	for _, line := range res.Output {
		if strings.Contains(strings.ToLower(line), strings.ToLower(d.SchemeGuid)) {
			return engine.StatusApplied, nil
		}
	}
	return engine.StatusPending, nil
}

func setPowerPlan(ctx context.Context, env *engine.Env, schemeGuid string) error {
	res := env.RunNative(ctx, "powercfg.exe", []string{"/setactive", schemeGuid},
		[]string{"does not exist"}, "Activating power scheme", command.Options{DisableIdleTimeout: true})
	if !res.Success {
		return fmt.Errorf("activating power scheme %s: %w\n%s", schemeGuid, res.Err, res.OutputText())
	}
	return nil
}

func applyPowerPlan(ctx context.Context, env *engine.Env, t catalog.Task) error {
	var d powerPlanDetails
	if err := decodeDetails(t.Details, &d); err != nil {
		return err
	}
	return setPowerPlan(ctx, env, d.SchemeGuid)
}

func revertPowerPlan(ctx context.Context, env *engine.Env, t catalog.Task) error {
	var rd powerPlanDetails
	if err := decodeDetails(t.RevertDetails, &rd); err != nil {
		return err
	}
	return setPowerPlan(ctx, env, rd.SchemeGuid)
}

func powerPlanHandlers() engine.Handlers {
	return engine.Handlers{Verify: verifyPowerPlan, Apply: applyPowerPlan, Revert: revertPowerPlan}
}
