// pkg/tasks/dns.go - adapter DNS configuration task type.

package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/windowsadmins/winforge/pkg/catalog"
	"github.com/windowsadmins/winforge/pkg/command"
	"github.com/windowsadmins/winforge/pkg/engine"
)

type setDNSDetails struct {
	Interface string   `json:"interface"`
	Servers   []string `json:"servers,omitempty"`
	// UseDHCP in revert details restores server assignment from DHCP.
	UseDHCP bool `json:"useDhcp,omitempty"`
}

func verifySetDNS(ctx context.Context, env *engine.Env, t catalog.Task) (engine.Status, error) {
	var d setDNSDetails
	if err := decodeDetails(t.Details, &d); err != nil {
		return engine.StatusError, err
	}
	if d.Interface == "" {
		return engine.StatusError, fmt.Errorf("setDNS task %s has no interface", t.Key())
	}
	if len(d.Servers) == 0 {
		return engine.StatusError, fmt.Errorf("setDNS task %s has no servers", t.Key())
	}

	res := env.RunNative(ctx, "netsh",
		[]string{"interface", "ipv4", "show", "dnsservers", "name=" + d.Interface},
		nil, "Checking DNS on "+d.Interface, command.Options{})
	if !res.Success {
		return engine.StatusError, fmt.Errorf("reading DNS servers for %s: %w", d.Interface, res.Err)
	}
	for _, server := range d.Servers {
		if !outputContains(res.Output, server) {
			return engine.StatusPending, nil
		}
	}
	return engine.StatusApplied, nil
}

func applySetDNS(ctx context.Context, env *engine.Env, t catalog.Task) error {
	var d setDNSDetails
	if err := decodeDetails(t.Details, &d); err != nil {
		return err
	}
	if d.Interface == "" || len(d.Servers) == 0 {
		return fmt.Errorf("setDNS task %s needs an interface and at least one server", t.Key())
	}
	return setDNSServers(ctx, env, d.Interface, d.Servers)
}

func revertSetDNS(ctx context.Context, env *engine.Env, t catalog.Task) error {
	var d setDNSDetails
	if err := decodeDetails(t.Details, &d); err != nil {
		return err
	}
	var rd setDNSDetails
	if err := decodeDetails(t.RevertDetails, &rd); err != nil {
		return err
	}
	if rd.Interface == "" {
		rd.Interface = d.Interface
	}

	if rd.UseDHCP {
		res := env.RunNative(ctx, "netsh",
			[]string{"interface", "ipv4", "set", "dnsservers", "name=" + rd.Interface, "source=dhcp"},
			netshFailureStrings, "Restoring DHCP DNS on "+rd.Interface, command.Options{})
		if !res.Success {
			return fmt.Errorf("restoring DHCP DNS on %s: %w\n%s", rd.Interface, res.Err, res.OutputText())
		}
		return nil
	}
	if len(rd.Servers) == 0 {
		return fmt.Errorf("setDNS revert for task %s has neither useDhcp nor servers", t.Key())
	}
	return setDNSServers(ctx, env, rd.Interface, rd.Servers)
}

// netsh reports errors on stdout with exit code 0 on some builds, so the
// failure scan carries the check.
var netshFailureStrings = []string{"The syntax supplied for this command is not valid",
	"The interface name is invalid", "is not a valid"}

func setDNSServers(ctx context.Context, env *engine.Env, iface string, servers []string) error {
	activity := fmt.Sprintf("Setting DNS on %s to %s", iface, strings.Join(servers, ", "))
	res := env.RunNative(ctx, "netsh",
		[]string{"interface", "ipv4", "set", "dnsservers", "name=" + iface,
			"source=static", "address=" + servers[0], "register=primary"},
		netshFailureStrings, activity, command.Options{})
	if !res.Success {
		return fmt.Errorf("setting primary DNS on %s: %w\n%s", iface, res.Err, res.OutputText())
	}
	for i, server := range servers[1:] {
		res := env.RunNative(ctx, "netsh",
			[]string{"interface", "ipv4", "add", "dnsservers", "name=" + iface,
				"address=" + server, fmt.Sprintf("index=%d", i+2)},
			netshFailureStrings, activity, command.Options{})
		if !res.Success {
			return fmt.Errorf("adding DNS server %s on %s: %w\n%s", server, iface, res.Err, res.OutputText())
		}
	}
	return nil
}

func setDNSHandlers() engine.Handlers {
	return engine.Handlers{
		Verify: verifySetDNS,
		Apply:  applySetDNS,
		Revert: revertSetDNS,
	}
}
