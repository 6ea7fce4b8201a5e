package phpvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSerialized(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{`a:1:{i:0;s:3:"red";}`, true},
		{`s:5:"hello";`, true},
		{`i:42;`, true},
		{`b:1;`, true},
		{`N;`, true},
		{"hello", false},
		{"", false},
		{"a:b", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsSerialized(tt.input); got != tt.expected {
				t.Errorf("IsSerialized(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFlatten(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Blue", "Blue"},
		{"list", `a:2:{i:0;s:3:"Red";i:1;s:4:"Blue";}`, "Red, Blue"},
		{"list out of order", `a:2:{i:1;s:4:"Blue";i:0;s:3:"Red";}`, "Red, Blue"},
		{"empty entries dropped", `a:3:{i:0;s:1:"A";i:1;s:0:"";i:2;s:1:"B";}`, "A, B"},
		{"malformed", `a:2:{i:0;s:3:"Red"`, `a:2:{i:0;s:3:"Red"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Flatten(tt.input); got != tt.expected {
				t.Errorf("Flatten(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDecodeMap(t *testing.T) {
	raw := `a:3:{s:26:"_um_custom_access_settings";s:1:"1";s:14:"_um_accessible";i:2;s:16:"_um_access_roles";a:1:{i:0;s:6:"editor";}}`

	m, err := DecodeMap(raw)
	require.NoError(t, err)

	assert.Equal(t, "1", String(m["_um_custom_access_settings"]))
	assert.Equal(t, "2", String(m["_um_accessible"]))
	assert.Equal(t, []string{"editor"}, Strings(m["_um_access_roles"]))
	assert.True(t, Bool(m["_um_custom_access_settings"]))
}

func TestDecodeMap_Scalar(t *testing.T) {
	_, err := DecodeMap(`s:3:"abc";`)
	assert.Error(t, err)
}

func TestBool(t *testing.T) {
	assert.False(t, Bool(nil))
	assert.False(t, Bool("0"))
	assert.False(t, Bool(""))
	assert.True(t, Bool(int64(1)))
	assert.True(t, Bool(true))
	assert.False(t, Bool(false))
}
