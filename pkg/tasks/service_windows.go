//go:build windows

package tasks

import (
	"fmt"
	"strings"

	"github.com/yusufpapurcu/wmi"

	"github.com/windowsadmins/winforge/pkg/engine"
)

// win32Service mirrors the Win32_Service fields the handlers need.
type win32Service struct {
	Name      string
	StartMode string
	State     string
}

// WMIServiceQuerier resolves services through WMI.
type WMIServiceQuerier struct{}

func (WMIServiceQuerier) Query(name string) (*engine.ServiceInfo, error) {
	// Service names come from catalogs, but quote-strip anyway.
	clean := strings.ReplaceAll(name, "'", "")
	var dst []win32Service
	query := fmt.Sprintf("SELECT Name, StartMode, State FROM Win32_Service WHERE Name = '%s'", clean)
	if err := wmi.Query(query, &dst); err != nil {
		return nil, fmt.Errorf("WMI query for service %s: %w", name, err)
	}
	if len(dst) == 0 {
		return nil, fmt.Errorf("%w: %s", engine.ErrServiceNotFound, name)
	}
	return &engine.ServiceInfo{
		Name:      dst[0].Name,
		StartMode: dst[0].StartMode,
		State:     dst[0].State,
	}, nil
}

// DefaultServiceQuerier returns the WMI-backed querier.
func DefaultServiceQuerier() engine.ServiceQuerier { return WMIServiceQuerier{} }
