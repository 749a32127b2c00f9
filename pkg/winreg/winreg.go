// pkg/winreg/winreg.go - registry access abstraction.
//
// Task handlers talk to a Store instead of the live registry so that the
// verify/apply/revert logic is portable and testable. The Windows
// implementation maps onto golang.org/x/sys/windows/registry; everywhere
// else an in-memory store stands in.

package winreg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ValueType mirrors the registry value kinds the catalogs use.
type ValueType string

const (
	TypeString       ValueType = "String"
	TypeExpandString ValueType = "ExpandString"
	TypeDWord        ValueType = "DWord"
	TypeQWord        ValueType = "QWord"
	TypeMultiString  ValueType = "MultiString"
)

// Value is a typed registry value. Data carries the textual form from the
// catalog; numeric kinds are parsed on write and normalized on compare.
type Value struct {
	Type ValueType
	Data string
}

// ErrNotExist reports that a key or value is absent. Verify handlers treat
// this as the expected pre-state, not an error.
var ErrNotExist = errors.New("registry key or value does not exist")

// Store is the minimal registry surface the task handlers need.
type Store interface {
	// GetValue returns the named value under the key path, or ErrNotExist.
	GetValue(path, name string) (Value, error)
	// SetValue writes the named value, creating the key path as needed.
	SetValue(path, name string, v Value) error
	// DeleteValue removes the named value; absent values are not an error.
	DeleteValue(path, name string) error
	// KeyExists reports whether the key path exists.
	KeyExists(path string) (bool, error)
	// CreateKey creates the key path (and intermediate keys).
	CreateKey(path string) error
	// DeleteKey removes the key path and its values.
	DeleteKey(path string) error
}

// SplitRoot splits a PowerShell-style ("HKCU:\Software\X") or long-form
// ("HKEY_CURRENT_USER\Software\X") path into its hive name and subpath.
func SplitRoot(path string) (hive, sub string, err error) {
	cleaned := strings.ReplaceAll(path, "/", `\`)
	cleaned = strings.TrimSuffix(cleaned, `\`)

	head := cleaned
	if i := strings.IndexByte(cleaned, '\\'); i >= 0 {
		head, sub = cleaned[:i], cleaned[i+1:]
	}
	head = strings.TrimSuffix(strings.ToUpper(head), ":")

	switch head {
	case "HKCU", "HKEY_CURRENT_USER":
		hive = "HKCU"
	case "HKLM", "HKEY_LOCAL_MACHINE":
		hive = "HKLM"
	case "HKCR", "HKEY_CLASSES_ROOT":
		hive = "HKCR"
	case "HKU", "HKEY_USERS":
		hive = "HKU"
	default:
		return "", "", fmt.Errorf("unsupported registry hive in path %q", path)
	}
	return hive, sub, nil
}

// Equal compares two values with the type's normalization rules. Registry
// paths and names are case-insensitive, numeric values compare numerically.
func Equal(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case TypeDWord, TypeQWord:
		av, aok := ParseNumeric(a.Data)
		bv, bok := ParseNumeric(b.Data)
		if aok && bok {
			return av == bv
		}
		return a.Data == b.Data
	default:
		return a.Data == b.Data
	}
}

// ParseNumeric parses a DWord/QWord textual form; "0x" prefixes are accepted.
func ParseNumeric(s string) (uint64, bool) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 64)
	return v, err == nil
}
