// pkg/catalog/catalog.go - declarative task catalogs for the provisioning engine.

package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/windowsadmins/winforge/pkg/logging"
)

// Flavor selects the identifier field a catalog requires. Tweak and cleanup
// catalogs use "id"; package catalogs use "installId".
type Flavor int

const (
	FlavorTweaks Flavor = iota
	FlavorPackages
)

func (f Flavor) idField() string {
	if f == FlavorPackages {
		return "installId"
	}
	return "id"
}

// Task contains an individual entry from a catalog. Definitions are
// immutable at runtime; status is always recomputed from the live system.
type Task struct {
	ID             string          `json:"id,omitempty"`
	InstallID      string          `json:"installId,omitempty"`
	Description    string          `json:"description,omitempty"`
	Type           string          `json:"type,omitempty"`
	Details        json.RawMessage `json:"details,omitempty"`
	RevertDetails  json.RawMessage `json:"revert_details,omitempty"`
	RebootRequired bool            `json:"rebootRequired,omitempty"`
}

// Key returns the task identifier regardless of catalog flavor.
func (t Task) Key() string {
	if t.ID != "" {
		return t.ID
	}
	return t.InstallID
}

// Revertible reports whether the task carries revert details. An applied
// task without them cannot be undone through the engine.
func (t Task) Revertible() bool {
	return len(t.RevertDetails) > 0 && string(t.RevertDetails) != "null"
}

// Label returns a human-readable name for menus and logs.
func (t Task) Label() string {
	if t.Description != "" {
		return t.Description
	}
	return t.Key()
}

// Catalog is a parsed and validated task catalog.
type Catalog struct {
	Path  string
	Tasks []Task
}

// ErrCatalogNotFound reports a missing catalog file.
var ErrCatalogNotFound = errors.New("catalog file not found")

// ErrInvalidJSON reports a catalog that is not well-formed JSON.
var ErrInvalidJSON = errors.New("catalog is not well-formed JSON")

// SchemaError collects every schema violation found in a catalog so a user
// fixing the file sees all problems in one pass.
type SchemaError struct {
	Path       string
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("catalog %s has %d schema violation(s): %s",
		e.Path, len(e.Violations), strings.Join(e.Violations, "; "))
}

// Load reads, validates and parses a catalog file.
func Load(path string, flavor Flavor) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, path)
		}
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	return Parse(path, data, flavor)
}

// Parse validates raw catalog bytes and returns the typed task records.
func Parse(path string, data []byte, flavor Flavor) (*Catalog, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidJSON, path)
	}

	schemaErr := &SchemaError{Path: path}

	items := gjson.GetBytes(data, "items")
	switch {
	case !items.Exists():
		schemaErr.Violations = append(schemaErr.Violations, `root object lacks an "items" array`)
	case !items.IsArray():
		schemaErr.Violations = append(schemaErr.Violations, `"items" is not an array`)
	default:
		idField := flavor.idField()
		for i, item := range items.Array() {
			if !item.IsObject() {
				schemaErr.Violations = append(schemaErr.Violations,
					fmt.Sprintf("items[%d]: not an object", i))
				continue
			}
			id := item.Get(idField)
			switch {
			case !id.Exists():
				schemaErr.Violations = append(schemaErr.Violations,
					fmt.Sprintf("items[%d]: missing %q field", i, idField))
			case id.Type != gjson.String:
				schemaErr.Violations = append(schemaErr.Violations,
					fmt.Sprintf("items[%d]: %q is not a string", i, idField))
			case id.String() == "":
				schemaErr.Violations = append(schemaErr.Violations,
					fmt.Sprintf("items[%d]: %q is empty", i, idField))
			}
		}
	}

	if len(schemaErr.Violations) > 0 {
		logging.Warn("Catalog failed schema validation",
			"path", path, "violations", len(schemaErr.Violations))
		return nil, schemaErr
	}

	var wrapper struct {
		Items []Task `json:"items"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		// Shape mismatches inside items surface here after the id checks.
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}

	logging.Debug("Loaded catalog", "path", path, "tasks", len(wrapper.Items))
	return &Catalog{Path: path, Tasks: wrapper.Items}, nil
}
