// pkg/tasks/inspect.go - read-only inspection task types.
//
// Inspection tasks never change the machine: Verify always reports pending
// and Apply runs the scan, publishing findings through the notifier.

package tasks

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/windowsadmins/winforge/pkg/catalog"
	"github.com/windowsadmins/winforge/pkg/engine"
	"github.com/windowsadmins/winforge/pkg/logging"
)

type findLargeFilesDetails struct {
	Root      string `json:"root,omitempty"`
	MinSizeMB int64  `json:"minSizeMB,omitempty"`
	Top       int    `json:"top,omitempty"`
}

func (d findLargeFilesDetails) normalized() findLargeFilesDetails {
	if d.Root == "" {
		d.Root = `C:\`
	}
	if d.MinSizeMB <= 0 {
		d.MinSizeMB = 500
	}
	if d.Top <= 0 {
		d.Top = 20
	}
	return d
}

type foundFile struct {
	path string
	size int64
}

func verifyFindLargeFiles(ctx context.Context, env *engine.Env, t catalog.Task) (engine.Status, error) {
	var d findLargeFilesDetails
	if err := decodeDetails(t.Details, &d); err != nil {
		return engine.StatusError, err
	}
	return engine.StatusPending, nil
}

func applyFindLargeFiles(ctx context.Context, env *engine.Env, t catalog.Task) error {
	var d findLargeFilesDetails
	if err := decodeDetails(t.Details, &d); err != nil {
		return err
	}
	d = d.normalized()
	activity := fmt.Sprintf("Scanning %s for files over %d MB", d.Root, d.MinSizeMB)
	notifyStatus(env, activity, "started")

	minBytes := d.MinSizeMB * 1024 * 1024
	var found []foundFile
	walkErr := filepath.WalkDir(d.Root, func(path string, entry fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			// Access-denied directories are routine on a system drive.
			logging.Debug("Skipping unreadable path", "path", path, "error", err)
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		if info.Size() >= minBytes {
			found = append(found, foundFile{path: path, size: info.Size()})
		}
		return nil
	})
	if walkErr != nil && walkErr != ctx.Err() {
		return fmt.Errorf("scanning %s: %w", d.Root, walkErr)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	sort.Slice(found, func(i, j int) bool { return found[i].size > found[j].size })
	if len(found) > d.Top {
		found = found[:d.Top]
	}

	if len(found) == 0 {
		notifyStatus(env, activity, "no files over the threshold")
		return nil
	}
	for i, f := range found {
		notifyStatus(env, activity, fmt.Sprintf("%2d. %6d MB  %s", i+1, f.size/(1024*1024), f.path))
	}
	logging.Info("Large-file scan finished", "root", d.Root, "found", len(found))
	return nil
}

func findLargeFilesHandlers() engine.Handlers {
	return engine.Handlers{
		Verify: verifyFindLargeFiles,
		Apply:  applyFindLargeFiles,
	}
}

type analyzeProcessesDetails struct {
	SortBy string `json:"sortBy,omitempty"` // memory (default) or cpu
	Top    int    `json:"top,omitempty"`
}

type processSample struct {
	pid    int32
	name   string
	memMB  float64
	cpuPct float64
}

func verifyAnalyzeProcesses(ctx context.Context, env *engine.Env, t catalog.Task) (engine.Status, error) {
	var d analyzeProcessesDetails
	if err := decodeDetails(t.Details, &d); err != nil {
		return engine.StatusError, err
	}
	if d.SortBy != "" && d.SortBy != "memory" && d.SortBy != "cpu" {
		return engine.StatusError, fmt.Errorf("sortBy must be memory or cpu, got %q", d.SortBy)
	}
	return engine.StatusPending, nil
}

func applyAnalyzeProcesses(ctx context.Context, env *engine.Env, t catalog.Task) error {
	var d analyzeProcessesDetails
	if err := decodeDetails(t.Details, &d); err != nil {
		return err
	}
	if d.SortBy == "" {
		d.SortBy = "memory"
	}
	if d.Top <= 0 {
		d.Top = 15
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return fmt.Errorf("listing processes: %w", err)
	}

	self := int32(os.Getpid())
	var samples []processSample
	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue // exited mid-scan
		}
		s := processSample{pid: p.Pid, name: name}
		if mem, err := p.MemoryInfoWithContext(ctx); err == nil && mem != nil {
			s.memMB = float64(mem.RSS) / (1024 * 1024)
		}
		if pct, err := p.CPUPercentWithContext(ctx); err == nil {
			s.cpuPct = pct
		}
		samples = append(samples, s)
	}

	sort.Slice(samples, func(i, j int) bool {
		if d.SortBy == "cpu" {
			return samples[i].cpuPct > samples[j].cpuPct
		}
		return samples[i].memMB > samples[j].memMB
	})
	if len(samples) > d.Top {
		samples = samples[:d.Top]
	}

	activity := fmt.Sprintf("Top %d processes by %s", d.Top, d.SortBy)
	for i, s := range samples {
		notifyStatus(env, activity,
			fmt.Sprintf("%2d. %-30s pid=%-6d mem=%.1f MB cpu=%.1f%%", i+1, s.name, s.pid, s.memMB, s.cpuPct))
	}
	logging.Info("Process analysis finished", "sortBy", d.SortBy, "sampled", len(samples))
	return nil
}

func analyzeProcessesHandlers() engine.Handlers {
	return engine.Handlers{
		Verify: verifyAnalyzeProcesses,
		Apply:  applyAnalyzeProcesses,
	}
}
