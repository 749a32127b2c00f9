//go:build !windows

package tasks

import (
	"fmt"

	"github.com/windowsadmins/winforge/pkg/engine"
)

type unsupportedServiceQuerier struct{}

func (unsupportedServiceQuerier) Query(name string) (*engine.ServiceInfo, error) {
	return nil, fmt.Errorf("service queries are not supported on this platform")
}

// DefaultServiceQuerier returns a querier that reports the platform gap.
func DefaultServiceQuerier() engine.ServiceQuerier { return unsupportedServiceQuerier{} }
