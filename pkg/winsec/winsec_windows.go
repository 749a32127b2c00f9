//go:build windows

package winsec

import (
	"fmt"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/windowsadmins/winforge/pkg/logging"
	"github.com/windowsadmins/winforge/pkg/winreg"
)

// SystemElevator manipulates real security descriptors through the Windows
// access-control API.
type SystemElevator struct{}

// Default returns the live elevator.
func Default() Elevator { return SystemElevator{} }

// objectName converts "HKLM:\Sub\Key" to the "MACHINE\Sub\Key" form the
// named-security-info functions expect for SE_REGISTRY_KEY objects.
func objectName(keyPath string) (string, error) {
	hive, sub, err := winreg.SplitRoot(keyPath)
	if err != nil {
		return "", err
	}
	switch hive {
	case "HKLM":
		return `MACHINE\` + sub, nil
	case "HKCU":
		return `CURRENT_USER\` + sub, nil
	case "HKCR":
		return `CLASSES_ROOT\` + sub, nil
	case "HKU":
		return `USERS\` + sub, nil
	default:
		return "", fmt.Errorf("unsupported hive %q for elevated access", hive)
	}
}

func ensureKey(keyPath string) error {
	hive, sub, err := winreg.SplitRoot(keyPath)
	if err != nil {
		return err
	}
	var root registry.Key
	switch hive {
	case "HKLM":
		root = registry.LOCAL_MACHINE
	case "HKCU":
		root = registry.CURRENT_USER
	case "HKCR":
		root = registry.CLASSES_ROOT
	case "HKU":
		root = registry.USERS
	}
	k, _, err := registry.CreateKey(root, sub, registry.ALL_ACCESS)
	if err != nil {
		return err
	}
	return k.Close()
}

// enableTakeOwnership enables SeTakeOwnershipPrivilege on the current
// process token so ownership of protected keys can be claimed.
func enableTakeOwnership() error {
	var token windows.Token
	err := windows.OpenProcessToken(windows.CurrentProcess(),
		windows.TOKEN_ADJUST_PRIVILEGES|windows.TOKEN_QUERY, &token)
	if err != nil {
		return fmt.Errorf("opening process token: %w", err)
	}
	defer token.Close()

	name, err := windows.UTF16PtrFromString("SeTakeOwnershipPrivilege")
	if err != nil {
		return err
	}
	var luid windows.LUID
	if err := windows.LookupPrivilegeValue(nil, name, &luid); err != nil {
		return fmt.Errorf("looking up SeTakeOwnershipPrivilege: %w", err)
	}
	privs := windows.Tokenprivileges{
		PrivilegeCount: 1,
		Privileges: [1]windows.LUIDAndAttributes{
			{Luid: luid, Attributes: windows.SE_PRIVILEGE_ENABLED},
		},
	}
	if err := windows.AdjustTokenPrivileges(token, false, &privs, 0, nil, nil); err != nil {
		return fmt.Errorf("enabling SeTakeOwnershipPrivilege: %w", err)
	}
	return nil
}

// WithElevatedAccess snapshots the key's owner and DACL, grants the
// Administrators group ownership and full control, runs fn, and restores the
// snapshot unconditionally.
func (SystemElevator) WithElevatedAccess(keyPath string, fn func() error) error {
	if err := ensureKey(keyPath); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCannotCreateKey, keyPath, err)
	}
	obj, err := objectName(keyPath)
	if err != nil {
		return err
	}

	sd, err := windows.GetNamedSecurityInfo(obj, windows.SE_REGISTRY_KEY,
		windows.OWNER_SECURITY_INFORMATION|windows.DACL_SECURITY_INFORMATION)
	if err != nil {
		return fmt.Errorf("snapshotting security descriptor of %s: %w", keyPath, err)
	}
	origOwner, _, err := sd.Owner()
	if err != nil {
		return fmt.Errorf("reading owner of %s: %w", keyPath, err)
	}
	origDACL, _, err := sd.DACL()
	if err != nil {
		return fmt.Errorf("reading DACL of %s: %w", keyPath, err)
	}

	admins, err := windows.CreateWellKnownSid(windows.WinBuiltinAdministratorsSid)
	if err != nil {
		return fmt.Errorf("resolving Administrators SID: %w", err)
	}

	if err := enableTakeOwnership(); err != nil {
		logging.Warn("Could not enable SeTakeOwnershipPrivilege, proceeding anyway",
			"key", keyPath, "error", err)
	}

	if err := windows.SetNamedSecurityInfo(obj, windows.SE_REGISTRY_KEY,
		windows.OWNER_SECURITY_INFORMATION, admins, nil, nil, nil); err != nil {
		return fmt.Errorf("taking ownership of %s: %w", keyPath, err)
	}

	grant := []windows.EXPLICIT_ACCESS{{
		AccessPermissions: windows.KEY_ALL_ACCESS,
		AccessMode:        windows.GRANT_ACCESS,
		Inheritance:       windows.SUB_CONTAINERS_AND_OBJECTS_INHERIT,
		Trustee: windows.TRUSTEE{
			TrusteeForm:  windows.TRUSTEE_IS_SID,
			TrusteeType:  windows.TRUSTEE_IS_GROUP,
			TrusteeValue: windows.TrusteeValueFromSID(admins),
		},
	}}
	elevatedDACL, err := windows.ACLFromEntries(grant, origDACL)
	if err != nil {
		return fmt.Errorf("building elevated DACL for %s: %w", keyPath, err)
	}
	if err := windows.SetNamedSecurityInfo(obj, windows.SE_REGISTRY_KEY,
		windows.DACL_SECURITY_INFORMATION, nil, nil, elevatedDACL, nil); err != nil {
		return fmt.Errorf("granting Administrators full control on %s: %w", keyPath, err)
	}

	restore := func() error {
		return windows.SetNamedSecurityInfo(obj, windows.SE_REGISTRY_KEY,
			windows.OWNER_SECURITY_INFORMATION|windows.DACL_SECURITY_INFORMATION,
			origOwner, nil, origDACL, nil)
	}

	// Restore must run even when fn panics.
	defer func() {
		if p := recover(); p != nil {
			if rerr := restore(); rerr != nil {
				logging.Error((&RestoreError{KeyPath: keyPath, Cause: rerr}).Error())
			}
			panic(p)
		}
	}()

	fnErr := fn()
	if rerr := restore(); rerr != nil {
		restoreErr := &RestoreError{KeyPath: keyPath, Cause: rerr}
		logging.Error(restoreErr.Error(), "key", keyPath)
		return restoreErr
	}
	return fnErr
}
