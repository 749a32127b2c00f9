// pkg/engine/engine.go - catalog reconciliation and task execution.

package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/windowsadmins/winforge/pkg/catalog"
	"github.com/windowsadmins/winforge/pkg/command"
	"github.com/windowsadmins/winforge/pkg/config"
	"github.com/windowsadmins/winforge/pkg/logging"
	"github.com/windowsadmins/winforge/pkg/supervise"
	"github.com/windowsadmins/winforge/pkg/winreg"
	"github.com/windowsadmins/winforge/pkg/winsec"
)

// ErrUnknownTaskType reports a task whose type has no registered handlers.
// One bad type degrades only that task, never the whole loop.
var ErrUnknownTaskType = errors.New("no handlers registered for task type")

// ErrNotRevertible reports a revert attempt on a task without revert details
// or without a registered Revert handler.
var ErrNotRevertible = errors.New("task cannot be reverted")

// ServiceInfo describes a Windows service's configuration and state.
type ServiceInfo struct {
	Name      string
	StartMode string
	State     string
}

// ErrServiceNotFound reports a service name absent from the service manager.
// For Verify this is a genuinely unexpected condition, not ordinary absence.
var ErrServiceNotFound = errors.New("service not found")

// ServiceQuerier looks up a service by name.
type ServiceQuerier interface {
	Query(name string) (*ServiceInfo, error)
}

// Env carries the collaborators task handlers need. It replaces ambient
// globals: the reboot flag and theme live on explicit objects, not in
// package state.
type Env struct {
	Config   *config.Configuration
	Store    winreg.Store
	Elevator winsec.Elevator
	Runner   command.Runner
	Notifier supervise.Notifier
	Services ServiceQuerier

	rebootPending bool
}

// RequestReboot records that a completed action wants a reboot prompt once
// the current menu action finishes.
func (e *Env) RequestReboot() { e.rebootPending = true }

// ConsumeRebootRequest returns and resets the reboot-pending flag.
func (e *Env) ConsumeRebootRequest() bool {
	pending := e.rebootPending
	e.rebootPending = false
	return pending
}

// RunNative executes an external command with the environment's runner,
// notifier and configured timeout policy.
func (e *Env) RunNative(ctx context.Context, exe string, args, failureStrings []string, activity string, opts command.Options) command.Result {
	if opts.Runner == nil {
		opts.Runner = e.Runner
	}
	if opts.Notifier == nil {
		opts.Notifier = e.Notifier
	}
	if e.Config != nil {
		if opts.OverallTimeout == 0 {
			opts.OverallTimeout = e.Config.OverallTimeout()
		}
		if opts.IdleTimeout == 0 {
			opts.IdleTimeout = e.Config.IdleTimeout()
		}
		if e.Config.DisableIdleTimeout {
			opts.DisableIdleTimeout = true
		}
	}
	return command.RunNative(ctx, exe, args, failureStrings, activity, opts)
}

// TaskState pairs a task with its reconciled status.
type TaskState struct {
	Task   catalog.Task
	Status Status
	Err    error
}

// BatchResult summarizes a bulk apply or revert.
type BatchResult struct {
	Succeeded int
	Failed    int
	Aborted   bool
	FailedIDs []string
}

// Confirmer asks the operator a yes/no question. The console implements it.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ActionFunc observes the outcome of every Apply and Revert the engine runs.
// The session report registers one so recording happens on the same code path
// the menu and the batch commands execute.
type ActionFunc func(task, action string, err error)

// Engine executes catalog tasks through the type registry, one at a time.
type Engine struct {
	reg      *Registry
	env      *Env
	onAction ActionFunc
}

// New returns an engine over the given registry and environment.
func New(reg *Registry, env *Env) *Engine {
	return &Engine{reg: reg, env: env}
}

// OnAction registers the observer called after every Apply and Revert.
func (e *Engine) OnAction(fn ActionFunc) { e.onAction = fn }

func (e *Engine) notifyAction(task, action string, err error) {
	if e.onAction != nil {
		e.onAction(task, action, err)
	}
}

// Env exposes the engine's environment to the front end (reboot flag).
func (e *Engine) Env() *Env { return e.env }

// Verify computes one task's status. Handler errors and panics degrade the
// task to StatusError; an unregistered type yields StatusEngineError.
func (e *Engine) Verify(ctx context.Context, t catalog.Task) (state TaskState) {
	state = TaskState{Task: t}

	h, ok := e.reg.Lookup(t.Type)
	if !ok {
		state.Status = StatusEngineError
		state.Err = fmt.Errorf("%w: %q", ErrUnknownTaskType, t.Type)
		return state
	}

	defer func() {
		if p := recover(); p != nil {
			logging.Error("Verify handler panicked", "task", t.Key(), "panic", p)
			state.Status = StatusError
			state.Err = fmt.Errorf("verify for task %s panicked: %v", t.Key(), p)
		}
	}()

	status, err := h.Verify(ctx, e.env, t)
	state.Status = status
	state.Err = err
	if err != nil {
		logging.Warn("Verify reported an error", "task", t.Key(), "error", err)
	}
	return state
}

// Apply performs one task's change. A successful apply of a task flagged
// rebootRequired records a reboot request on the environment.
func (e *Engine) Apply(ctx context.Context, t catalog.Task) (err error) {
	// Registered first so it runs last, after a recovered panic has set err.
	defer func() { e.notifyAction(t.Key(), "Apply", err) }()

	h, ok := e.reg.Lookup(t.Type)
	if !ok {
		return fmt.Errorf("%w: %q (task %s, action Apply)", ErrUnknownTaskType, t.Type, t.Key())
	}

	defer func() {
		if p := recover(); p != nil {
			logging.Error("Apply handler panicked", "task", t.Key(), "panic", p)
			err = fmt.Errorf("apply for task %s panicked: %v", t.Key(), p)
		}
	}()

	logging.Info("Applying task", "task", t.Key(), "type", t.Type)
	if err := h.Apply(ctx, e.env, t); err != nil {
		logging.Error("Apply failed", "task", t.Key(), "error", err)
		return err
	}
	if t.RebootRequired {
		e.env.RequestReboot()
	}
	return nil
}

// Revert undoes one task's change. Tasks without revert details, and types
// without a Revert handler, are refused rather than silently attempted.
func (e *Engine) Revert(ctx context.Context, t catalog.Task) (err error) {
	defer func() { e.notifyAction(t.Key(), "Revert", err) }()

	if !t.Revertible() {
		return fmt.Errorf("%w: task %s has no revert details", ErrNotRevertible, t.Key())
	}
	h, ok := e.reg.Lookup(t.Type)
	if !ok {
		return fmt.Errorf("%w: %q (task %s, action Revert)", ErrUnknownTaskType, t.Type, t.Key())
	}
	if h.Revert == nil {
		return fmt.Errorf("%w: type %q does not support revert", ErrNotRevertible, t.Type)
	}

	defer func() {
		if p := recover(); p != nil {
			logging.Error("Revert handler panicked", "task", t.Key(), "panic", p)
			err = fmt.Errorf("revert for task %s panicked: %v", t.Key(), p)
		}
	}()

	logging.Info("Reverting task", "task", t.Key(), "type", t.Type)
	if err := h.Revert(ctx, e.env, t); err != nil {
		logging.Error("Revert failed", "task", t.Key(), "error", err)
		return err
	}
	if t.RebootRequired {
		e.env.RequestReboot()
	}
	return nil
}

// Reconcile verifies every task and classifies the results. An applied task
// without revert details is reclassified for display so the operator learns
// why the engine will not offer a revert.
func (e *Engine) Reconcile(ctx context.Context, tasks []catalog.Task) []TaskState {
	states := make([]TaskState, 0, len(tasks))
	for _, t := range tasks {
		state := e.Verify(ctx, t)
		if state.Status == StatusApplied && !t.Revertible() {
			state.Status = StatusAppliedNotRevertible
		}
		states = append(states, state)
	}
	return states
}

// ApplyAllPending applies every pending task in catalog order. When
// stopOnFailure is set the batch stops at the first failure; the program
// itself continues either way.
func (e *Engine) ApplyAllPending(ctx context.Context, states []TaskState, stopOnFailure bool) BatchResult {
	var res BatchResult
	for _, st := range states {
		if ctx.Err() != nil {
			res.Aborted = true
			break
		}
		if st.Status != StatusPending {
			continue
		}
		if err := e.Apply(ctx, st.Task); err != nil {
			res.Failed++
			res.FailedIDs = append(res.FailedIDs, st.Task.Key())
			if stopOnFailure {
				res.Aborted = true
				break
			}
			continue
		}
		res.Succeeded++
	}
	logging.Info("Bulk apply finished", "succeeded", res.Succeeded, "failed", res.Failed)
	return res
}

// RevertAllApplied reverts every applied-and-revertible task in catalog
// order, after one explicit confirmation naming the affected count.
func (e *Engine) RevertAllApplied(ctx context.Context, states []TaskState, confirm Confirmer) BatchResult {
	var candidates []TaskState
	for _, st := range states {
		if st.Status == StatusApplied && st.Task.Revertible() {
			candidates = append(candidates, st)
		}
	}
	if len(candidates) == 0 {
		return BatchResult{}
	}
	prompt := fmt.Sprintf("Revert %d applied task(s)?", len(candidates))
	if confirm != nil && !confirm.Confirm(prompt) {
		return BatchResult{Aborted: true}
	}

	var res BatchResult
	for _, st := range candidates {
		if ctx.Err() != nil {
			res.Aborted = true
			break
		}
		if err := e.Revert(ctx, st.Task); err != nil {
			res.Failed++
			res.FailedIDs = append(res.FailedIDs, st.Task.Key())
			continue
		}
		res.Succeeded++
	}
	logging.Info("Bulk revert finished", "succeeded", res.Succeeded, "failed", res.Failed)
	return res
}

// RevertOne reverts a single task after a y/n confirmation naming it. The
// bool reports whether the revert ran; a declined prompt returns false, nil.
func (e *Engine) RevertOne(ctx context.Context, t catalog.Task, confirm Confirmer) (bool, error) {
	if !t.Revertible() {
		return false, fmt.Errorf("%w: task %s has no revert details", ErrNotRevertible, t.Key())
	}
	if confirm != nil && !confirm.Confirm(fmt.Sprintf("Revert %q?", t.Label())) {
		return false, nil
	}
	return true, e.Revert(ctx, t)
}
