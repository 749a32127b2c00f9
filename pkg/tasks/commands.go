// pkg/tasks/commands.go - catalog-scripted command task types.

package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/windowsadmins/winforge/pkg/catalog"
	"github.com/windowsadmins/winforge/pkg/command"
	"github.com/windowsadmins/winforge/pkg/engine"
)

type powerShellCommandDetails struct {
	Command   string `json:"command"`
	Arguments string `json:"arguments,omitempty"`
	// VerifyCommand, when present, must print True (applied) or False
	// (pending). Without it the task always shows as pending.
	VerifyCommand  string   `json:"verifyCommand,omitempty"`
	FailureStrings []string `json:"failureStrings,omitempty"`
}

func verifyPowerShellCommand(ctx context.Context, env *engine.Env, t catalog.Task) (engine.Status, error) {
	var d powerShellCommandDetails
	if err := decodeDetails(t.Details, &d); err != nil {
		return engine.StatusError, err
	}
	if d.VerifyCommand == "" {
		return engine.StatusPending, nil
	}

	res := runPowerShell(ctx, env, d.VerifyCommand, "Checking "+t.Label(), nil, command.Options{})
	if !res.Success {
		return engine.StatusError, fmt.Errorf("verify command failed: %w", res.Err)
	}
	switch strings.ToLower(lastOutputLine(res.Output)) {
	case "true":
		return engine.StatusApplied, nil
	case "false":
		return engine.StatusPending, nil
	default:
		return engine.StatusError, fmt.Errorf("verify command printed %q, want True or False",
			lastOutputLine(res.Output))
	}
}

func runPowerShellDetails(ctx context.Context, env *engine.Env, d powerShellCommandDetails, activity string) error {
	full := strings.TrimSpace(d.Command + " " + d.Arguments)
	res := runPowerShell(ctx, env, full, activity, d.FailureStrings, command.Options{})
	if !res.Success {
		return fmt.Errorf("%s failed: %w\n%s", activity, res.Err, res.OutputText())
	}
	return nil
}

func applyPowerShellCommand(ctx context.Context, env *engine.Env, t catalog.Task) error {
	var d powerShellCommandDetails
	if err := decodeDetails(t.Details, &d); err != nil {
		return err
	}
	return runPowerShellDetails(ctx, env, d, "Running "+t.Label())
}

func revertPowerShellCommand(ctx context.Context, env *engine.Env, t catalog.Task) error {
	var rd powerShellCommandDetails
	if err := decodeDetails(t.RevertDetails, &rd); err != nil {
		return err
	}
	return runPowerShellDetails(ctx, env, rd, "Reverting "+t.Label())
}

func powerShellCommandHandlers() engine.Handlers {
	return engine.Handlers{
		Verify: verifyPowerShellCommand,
		Apply:  applyPowerShellCommand,
		Revert: revertPowerShellCommand,
	}
}

type simpleCommandDetails struct {
	Command        string   `json:"command"`
	Arguments      []string `json:"arguments,omitempty"`
	FailureStrings []string `json:"failureStrings,omitempty"`
}

// verifySimpleCommand always reports pending: a raw command has no inherent
// desired-state probe, so the engine treats it as a run-on-demand action.
func verifySimpleCommand(ctx context.Context, env *engine.Env, t catalog.Task) (engine.Status, error) {
	var d simpleCommandDetails
	if err := decodeDetails(t.Details, &d); err != nil {
		return engine.StatusError, err
	}
	return engine.StatusPending, nil
}

func runSimpleCommand(ctx context.Context, env *engine.Env, d simpleCommandDetails, activity string) error {
	res := env.RunNative(ctx, d.Command, d.Arguments, d.FailureStrings, activity, command.Options{})
	if !res.Success {
		return fmt.Errorf("%s failed: %w\n%s", activity, res.Err, res.OutputText())
	}
	return nil
}

func applySimpleCommand(ctx context.Context, env *engine.Env, t catalog.Task) error {
	var d simpleCommandDetails
	if err := decodeDetails(t.Details, &d); err != nil {
		return err
	}
	return runSimpleCommand(ctx, env, d, "Running "+t.Label())
}

func revertSimpleCommand(ctx context.Context, env *engine.Env, t catalog.Task) error {
	var rd simpleCommandDetails
	if err := decodeDetails(t.RevertDetails, &rd); err != nil {
		return err
	}
	return runSimpleCommand(ctx, env, rd, "Reverting "+t.Label())
}

func simpleCommandHandlers() engine.Handlers {
	return engine.Handlers{
		Verify: verifySimpleCommand,
		Apply:  applySimpleCommand,
		Revert: revertSimpleCommand,
	}
}
