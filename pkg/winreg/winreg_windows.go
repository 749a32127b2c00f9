//go:build windows

package winreg

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/windows/registry"
)

// SystemStore reads and writes the live Windows registry.
type SystemStore struct{}

// Default returns the live registry store.
func Default() Store { return SystemStore{} }

func rootKey(hive string) (registry.Key, error) {
	switch hive {
	case "HKCU":
		return registry.CURRENT_USER, nil
	case "HKLM":
		return registry.LOCAL_MACHINE, nil
	case "HKCR":
		return registry.CLASSES_ROOT, nil
	case "HKU":
		return registry.USERS, nil
	default:
		return 0, fmt.Errorf("unsupported registry hive %q", hive)
	}
}

func openKey(path string, access uint32) (registry.Key, error) {
	hive, sub, err := SplitRoot(path)
	if err != nil {
		return 0, err
	}
	root, err := rootKey(hive)
	if err != nil {
		return 0, err
	}
	k, err := registry.OpenKey(root, sub, access)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return 0, ErrNotExist
		}
		return 0, err
	}
	return k, nil
}

func (SystemStore) GetValue(path, name string) (Value, error) {
	k, err := openKey(path, registry.QUERY_VALUE)
	if err != nil {
		return Value{}, err
	}
	defer k.Close()

	_, valType, err := k.GetValue(name, nil)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return Value{}, ErrNotExist
		}
		return Value{}, err
	}

	switch valType {
	case registry.SZ:
		s, _, err := k.GetStringValue(name)
		return Value{Type: TypeString, Data: s}, err
	case registry.EXPAND_SZ:
		s, _, err := k.GetStringValue(name)
		return Value{Type: TypeExpandString, Data: s}, err
	case registry.DWORD:
		n, _, err := k.GetIntegerValue(name)
		return Value{Type: TypeDWord, Data: fmt.Sprintf("%d", n)}, err
	case registry.QWORD:
		n, _, err := k.GetIntegerValue(name)
		return Value{Type: TypeQWord, Data: fmt.Sprintf("%d", n)}, err
	case registry.MULTI_SZ:
		ss, _, err := k.GetStringsValue(name)
		return Value{Type: TypeMultiString, Data: strings.Join(ss, "\n")}, err
	default:
		return Value{}, fmt.Errorf("unsupported registry value type %d for %s\\%s", valType, path, name)
	}
}

func (s SystemStore) SetValue(path, name string, v Value) error {
	if err := s.CreateKey(path); err != nil {
		return err
	}
	k, err := openKey(path, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()

	switch v.Type {
	case TypeString:
		return k.SetStringValue(name, v.Data)
	case TypeExpandString:
		return k.SetExpandStringValue(name, v.Data)
	case TypeDWord:
		n, ok := ParseNumeric(v.Data)
		if !ok {
			return fmt.Errorf("invalid DWord value %q for %s\\%s", v.Data, path, name)
		}
		return k.SetDWordValue(name, uint32(n))
	case TypeQWord:
		n, ok := ParseNumeric(v.Data)
		if !ok {
			return fmt.Errorf("invalid QWord value %q for %s\\%s", v.Data, path, name)
		}
		return k.SetQWordValue(name, n)
	case TypeMultiString:
		return k.SetStringsValue(name, strings.Split(v.Data, "\n"))
	default:
		return fmt.Errorf("unsupported registry value type %q", v.Type)
	}
}

func (SystemStore) DeleteValue(path, name string) error {
	k, err := openKey(path, registry.SET_VALUE)
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			return nil
		}
		return err
	}
	defer k.Close()

	if err := k.DeleteValue(name); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return err
	}
	return nil
}

func (SystemStore) KeyExists(path string) (bool, error) {
	k, err := openKey(path, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	k.Close()
	return true, nil
}

func (SystemStore) CreateKey(path string) error {
	hive, sub, err := SplitRoot(path)
	if err != nil {
		return err
	}
	root, err := rootKey(hive)
	if err != nil {
		return err
	}
	k, _, err := registry.CreateKey(root, sub, registry.ALL_ACCESS)
	if err != nil {
		return fmt.Errorf("creating registry key %s: %w", path, err)
	}
	return k.Close()
}

func (SystemStore) DeleteKey(path string) error {
	hive, sub, err := SplitRoot(path)
	if err != nil {
		return err
	}
	root, err := rootKey(hive)
	if err != nil {
		return err
	}
	if err := registry.DeleteKey(root, sub); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return err
	}
	return nil
}
