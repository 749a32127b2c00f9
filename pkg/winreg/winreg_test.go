// pkg/winreg/winreg_test.go

package winreg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRoot(t *testing.T) {
	cases := []struct {
		path string
		hive string
		sub  string
	}{
		{`HKCU:\Software\Test`, "HKCU", `Software\Test`},
		{`HKEY_CURRENT_USER\Software\Test`, "HKCU", `Software\Test`},
		{`HKLM:\SOFTWARE\Policies`, "HKLM", `SOFTWARE\Policies`},
		{`hklm:\software`, "HKLM", "software"},
		{`HKCR:\txtfile`, "HKCR", "txtfile"},
		{`HKU:\S-1-5-18`, "HKU", "S-1-5-18"},
		{`HKCU:/Software/Fwd`, "HKCU", `Software\Fwd`},
	}
	for _, tc := range cases {
		hive, sub, err := SplitRoot(tc.path)
		require.NoError(t, err, tc.path)
		assert.Equal(t, tc.hive, hive, tc.path)
		assert.Equal(t, tc.sub, sub, tc.path)
	}
}

func TestSplitRootUnknownHive(t *testing.T) {
	_, _, err := SplitRoot(`HKXX:\whatever`)
	assert.Error(t, err)
}

func TestEqualNumericForms(t *testing.T) {
	assert.True(t, Equal(
		Value{Type: TypeDWord, Data: "0x10"},
		Value{Type: TypeDWord, Data: "16"}))
	assert.True(t, Equal(
		Value{Type: TypeQWord, Data: "010"},
		Value{Type: TypeQWord, Data: "8"}))
	assert.False(t, Equal(
		Value{Type: TypeDWord, Data: "1"},
		Value{Type: TypeDWord, Data: "2"}))
}

func TestEqualTypeMismatch(t *testing.T) {
	assert.False(t, Equal(
		Value{Type: TypeString, Data: "1"},
		Value{Type: TypeDWord, Data: "1"}))
}

func TestEqualStringsAreCaseSensitive(t *testing.T) {
	assert.True(t, Equal(
		Value{Type: TypeString, Data: "abc"},
		Value{Type: TypeString, Data: "abc"}))
	assert.False(t, Equal(
		Value{Type: TypeString, Data: "abc"},
		Value{Type: TypeString, Data: "ABC"}))
}

func TestParseNumeric(t *testing.T) {
	v, ok := ParseNumeric("0xFF")
	require.True(t, ok)
	assert.Equal(t, uint64(255), v)

	_, ok = ParseNumeric("notanumber")
	assert.False(t, ok)
}

func TestMemStoreRoundTrip(t *testing.T) {
	m := NewMemStore()
	path := `HKCU:\Software\WinForge\Test`

	_, err := m.GetValue(path, "Setting")
	assert.ErrorIs(t, err, ErrNotExist)

	require.NoError(t, m.SetValue(path, "Setting", Value{Type: TypeDWord, Data: "1"}))

	// Lookups are case-insensitive like the real registry.
	got, err := m.GetValue(`hkcu:\software\winforge\test`, "setting")
	require.NoError(t, err)
	assert.Equal(t, Value{Type: TypeDWord, Data: "1"}, got)

	exists, err := m.KeyExists(path)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, m.DeleteValue(path, "Setting"))
	_, err = m.GetValue(path, "Setting")
	assert.ErrorIs(t, err, ErrNotExist)

	require.NoError(t, m.DeleteKey(path))
	exists, err = m.KeyExists(path)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemStoreDeleteAbsentValueIsNoError(t *testing.T) {
	m := NewMemStore()
	assert.NoError(t, m.DeleteValue(`HKCU:\Software\Nothing`, "x"))
}

func TestMemStoreCreateKey(t *testing.T) {
	m := NewMemStore()
	require.NoError(t, m.CreateKey(`HKLM:\SOFTWARE\WinForge`))
	exists, err := m.KeyExists(`HKLM:\SOFTWARE\WinForge`)
	require.NoError(t, err)
	assert.True(t, exists)
}
