package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestCLI_ApplyAndTree(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	out := run(t, "- op: insert\n  node:\n    type: section\n    label: Hero\n", "--dir", dir, "apply", "home", "-")
	assert.Contains(t, out, "Applied 1 commands to 'home'")

	out = run(t, "", "--dir", dir, "doc", "ls")
	assert.Equal(t, "home\n", out)

	out = run(t, "", "--dir", dir, "tree", "home", "--markdown")
	assert.Contains(t, out, "- **section**")
	assert.Contains(t, out, "Hero")

	out = run(t, "", "--dir", dir, "validate", "home")
	assert.Contains(t, out, "is valid")
}

func TestCLI_Version(t *testing.T) {
	out := run(t, "", "version")
	assert.True(t, strings.HasPrefix(out, "canopy version "))
}
