package version

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionOutput(t *testing.T) {
	var out bytes.Buffer
	cmd := NewCommand("v0.3.0", "2026-10-16T09:00:00Z")
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "Version: v0.3.0, Built: 2026-10-16T09:00:00Z\n", out.String())
}

func TestVersionRejectsArgs(t *testing.T) {
	cmd := NewCommand("v0.3.0", "now")
	cmd.SetArgs([]string{"extra"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	assert.Error(t, cmd.Execute())
}
