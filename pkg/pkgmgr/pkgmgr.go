// pkg/pkgmgr/pkgmgr.go - package manager client contracts.
//
// Winget and Chocolatey front the same lifecycle (query, install, uninstall,
// upgrade) with different CLIs and different soft-failure vocabularies. Both
// clients run through the native command wrapper, so exit codes and failure
// substrings feed one verdict.

package pkgmgr

import (
	"context"
	"encoding/json"
	"fmt"

	goversion "github.com/hashicorp/go-version"

	"github.com/windowsadmins/winforge/pkg/catalog"
	"github.com/windowsadmins/winforge/pkg/command"
)

// InstallStatus classifies a package relative to the machine.
type InstallStatus int

const (
	StatusUnknown InstallStatus = iota
	StatusNotInstalled
	StatusInstalled
)

func (s InstallStatus) String() string {
	switch s {
	case StatusNotInstalled:
		return "Not Installed"
	case StatusInstalled:
		return "Installed"
	default:
		return "Unknown"
	}
}

// InstalledState is the result of a status query.
type InstalledState struct {
	Status     InstallStatus
	Version    string
	Available  string
	Upgradable bool
}

// Entry is one package-catalog item resolved to its manager.
type Entry struct {
	InstallID   string
	Description string
	Manager     string // winget or choco
	Version     string // optional pin
}

func (e Entry) Label() string {
	if e.Description != "" {
		return e.Description
	}
	return e.InstallID
}

type entryDetails struct {
	Manager string `json:"manager"`
	Version string `json:"version,omitempty"`
}

// EntryFromTask resolves a package-catalog task into an Entry. Package
// catalogs identify items by installId.
func EntryFromTask(t catalog.Task) (Entry, error) {
	if t.InstallID == "" {
		return Entry{}, fmt.Errorf("task %s is not a package entry: no installId", t.Key())
	}
	var d entryDetails
	if len(t.Details) > 0 {
		if err := json.Unmarshal(t.Details, &d); err != nil {
			return Entry{}, fmt.Errorf("decoding package entry %s: %w", t.InstallID, err)
		}
	}
	if d.Manager == "" {
		d.Manager = "winget"
	}
	if d.Manager != "winget" && d.Manager != "choco" {
		return Entry{}, fmt.Errorf("package entry %s names unknown manager %q", t.InstallID, d.Manager)
	}
	return Entry{
		InstallID:   t.InstallID,
		Description: t.Description,
		Manager:     d.Manager,
		Version:     d.Version,
	}, nil
}

// ExecFunc runs one native command. engine.Env.RunNative satisfies it.
type ExecFunc func(ctx context.Context, exe string, args, failureStrings []string, activity string, opts command.Options) command.Result

// Manager is one package manager client.
type Manager interface {
	Name() string
	GetInstalledStatus(ctx context.Context, e Entry) (InstalledState, error)
	Install(ctx context.Context, e Entry) error
	Uninstall(ctx context.Context, e Entry) error
	Upgrade(ctx context.Context, e Entry) error
}

// Managers holds one client per supported manager name.
type Managers map[string]Manager

// NewManagers wires the winget and chocolatey clients over exec.
func NewManagers(exec ExecFunc) Managers {
	return Managers{
		"winget": NewWingetClient(exec),
		"choco":  NewChocoClient(exec),
	}
}

// For resolves an entry's manager client.
func (m Managers) For(e Entry) (Manager, error) {
	mgr, ok := m[e.Manager]
	if !ok {
		return nil, fmt.Errorf("no client for package manager %q", e.Manager)
	}
	return mgr, nil
}

// upgradable compares installed against available with semantic versioning,
// falling back to string inequality when either side does not parse.
func upgradable(installed, available string) bool {
	if installed == "" || available == "" {
		return false
	}
	iv, err1 := goversion.NewVersion(installed)
	av, err2 := goversion.NewVersion(available)
	if err1 != nil || err2 != nil {
		return installed != available
	}
	return av.GreaterThan(iv)
}
