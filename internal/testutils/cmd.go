// Package testutils provides helpers shared by the tests of the module.
package testutils

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Flag describes how a command flag is declared.
type Flag struct {
	Shorthand  string
	Persistent bool
	// Dirname is set for flags completed with directories only.
	Dirname bool
	// Extensions lists the file extensions flags marked as filenames complete.
	Extensions []string
}

// AssertFlag checks that cmd declares the flag name as described by want.
func AssertFlag(t *testing.T, cmd *cobra.Command, name string, want Flag) {
	t.Helper()

	fs := cmd.Flags()
	if want.Persistent {
		fs = cmd.PersistentFlags()
	}
	f := fs.Lookup(name)
	require.NotNil(t, f, "Flag %q should be declared", name)

	assert.Equal(t, want.Shorthand, f.Shorthand, "Flag %q has an unexpected shorthand", name)
	if want.Dirname {
		assert.Contains(t, f.Annotations, cobra.BashCompSubdirsInDir, "Flag %q should complete directories", name)
	} else {
		assert.NotContains(t, f.Annotations, cobra.BashCompSubdirsInDir, "Flag %q should not complete directories", name)
	}
	if want.Extensions != nil {
		assert.Equal(t, want.Extensions, f.Annotations[cobra.BashCompFilenameExt], "Flag %q completes unexpected extensions", name)
	}
}
