// pkg/catalog/catalog_test.go

package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"), FlavorTweaks)
	assert.ErrorIs(t, err, ErrCatalogNotFound)
}

func TestParseInvalidJSON(t *testing.T) {
	_, err := Parse("bad.json", []byte(`{"items": [`), FlavorTweaks)
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestParseMissingItems(t *testing.T) {
	_, err := Parse("c.json", []byte(`{"tasks": []}`), FlavorTweaks)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Len(t, schemaErr.Violations, 1)
	assert.Contains(t, schemaErr.Violations[0], `"items"`)
}

func TestParseItemsNotArray(t *testing.T) {
	_, err := Parse("c.json", []byte(`{"items": {"id": "x"}}`), FlavorTweaks)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Violations[0], "not an array")
}

// Every violation must be reported in one pass, not just the first.
func TestParseCollectsAllViolations(t *testing.T) {
	data := []byte(`{"items": [
		{"description": "no id"},
		{"id": 42},
		{"id": ""},
		{"id": "fine", "type": "Registry"},
		"not an object"
	]}`)

	_, err := Parse("c.json", data, FlavorTweaks)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Len(t, schemaErr.Violations, 4)
	assert.Contains(t, schemaErr.Violations[0], "items[0]")
	assert.Contains(t, schemaErr.Violations[0], "missing")
	assert.Contains(t, schemaErr.Violations[1], "items[1]")
	assert.Contains(t, schemaErr.Violations[1], "not a string")
	assert.Contains(t, schemaErr.Violations[2], "items[2]")
	assert.Contains(t, schemaErr.Violations[2], "empty")
	assert.Contains(t, schemaErr.Violations[3], "items[4]")
}

func TestParsePackageFlavorUsesInstallID(t *testing.T) {
	data := []byte(`{"items": [
		{"installId": "Git.Git", "type": "Package"},
		{"id": "wrong-field", "type": "Package"}
	]}`)

	_, err := Parse("packages.json", data, FlavorPackages)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Len(t, schemaErr.Violations, 1)
	assert.Contains(t, schemaErr.Violations[0], `"installId"`)
}

func TestLoadValidCatalog(t *testing.T) {
	data := []byte(`{"items": [
		{
			"id": "show-extensions",
			"description": "Show file extensions",
			"type": "Registry",
			"details": {"path": "HKCU:\\X", "name": "HideFileExt", "value": "0", "valueType": "DWord"},
			"revert_details": {"value": "1"},
			"rebootRequired": true
		},
		{"id": "one-way", "type": "SimpleCommand", "details": {"command": "x"}}
	]}`)
	path := filepath.Join(t.TempDir(), "tweaks.json")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cat, err := Load(path, FlavorTweaks)
	require.NoError(t, err)
	require.Len(t, cat.Tasks, 2)

	first := cat.Tasks[0]
	assert.Equal(t, "show-extensions", first.Key())
	assert.Equal(t, "Show file extensions", first.Label())
	assert.Equal(t, "Registry", first.Type)
	assert.True(t, first.RebootRequired)
	assert.True(t, first.Revertible())

	second := cat.Tasks[1]
	assert.False(t, second.Revertible())
	assert.Equal(t, "one-way", second.Label())
}

func TestTaskKeyPrefersID(t *testing.T) {
	assert.Equal(t, "a", Task{ID: "a", InstallID: "b"}.Key())
	assert.Equal(t, "b", Task{InstallID: "b"}.Key())
}
