package confirm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAffirmative(t *testing.T) {
	t.Parallel()

	tests := []struct {
		answer string
		want   bool
	}{
		{"y", true},
		{"Y", true},
		{"yes", true},
		{"YeS", true},
		{"  y \n", true},
		{"\tYES\r\n", true},
		{"", false},
		{"\n", false},
		{"n", false},
		{"no", false},
		{"yy", false},
		{"ye", false},
		{"y es", false},
		{"yes please", false},
		{"sure", false},
	}

	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsAffirmative(tt.answer))
		})
	}
}

func TestLineGate_Confirm(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	gate := NewLineGate(strings.NewReader("y\nno\n\nYES"), &out)

	assert.True(t, gate.Confirm("Install essentials?"))
	assert.False(t, gate.Confirm("Configure NVIDIA?"))
	assert.False(t, gate.Confirm("Enable services?"), "empty line defaults to no")
	assert.True(t, gate.Confirm("Sync dotfiles?"), "final line without newline is still read")
	assert.False(t, gate.Confirm("Bootstrap editor?"), "EOF defaults to no")

	assert.Contains(t, out.String(), "Install essentials? [y/N]: ")
}

func TestForMode(t *testing.T) {
	t.Parallel()

	unattended := ForMode(true, strings.NewReader(""), &bytes.Buffer{})
	assert.True(t, unattended.Confirm("anything"))

	interactive := ForMode(false, strings.NewReader(""), &bytes.Buffer{})
	assert.IsType(t, &LineGate{}, interactive)
	assert.False(t, interactive.Confirm("anything"))
}
