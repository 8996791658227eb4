package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRun(t *testing.T) {
	c, err := ParseArgs([]string{"run", "-s", "h2c", "-p", "8080", "-o", "127.0.0.1", "-d", ":memory:", "apps", "extra/blog.hcl"})
	require.NoError(t, err)
	assert.Equal(t, RUN, c.Index)
	assert.Equal(t, "h2c", c.Run.Server)
	assert.Equal(t, 8080, c.Run.Port)
	assert.Equal(t, "127.0.0.1", c.Run.Host)
	assert.Equal(t, ":memory:", c.Run.Database)
	assert.Equal(t, []string{"apps", "extra/blog.hcl"}, c.Paths())
}

func TestParseRunDefaults(t *testing.T) {
	c, err := ParseArgs([]string{"run"})
	require.NoError(t, err)
	assert.Equal(t, -1, c.Run.Port)
	assert.Equal(t, []string{"."}, c.Paths())
}

func TestParseVersionAndErrors(t *testing.T) {
	c, err := ParseArgs([]string{"-v", "version", "--check"})
	require.NoError(t, err)
	assert.Equal(t, VERSION, c.Index)
	assert.True(t, c.Verbose)
	assert.True(t, c.Version.Check)

	_, err = ParseArgs([]string{"serve"})
	assert.Error(t, err)
	_, err = ParseArgs([]string{"run", "-p", "eighty"})
	assert.Error(t, err)
}

func TestCommandTable(t *testing.T) {
	assert.Equal(t, "run", commands[RUN].Name())
	assert.Equal(t, "version", commands[VERSION].Name())
	for _, cmd := range commands[1:] {
		assert.NotNil(t, cmd.RunWith, cmd.Name())
	}
}

func TestWriteVersion(t *testing.T) {
	var out bytes.Buffer
	ok, err := writeVersion(&out, "go1.25.1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "Minimum Go Version: >= go1.25")
	assert.Contains(t, out.String(), "go1.25.1")
	assert.NotContains(t, out.String(), "needs go")

	out.Reset()
	ok, err = writeVersion(&out, "go1.21.0")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, out.String(), "campsite needs go >= go1.25")
}

func TestRunRejectsBadConfiguration(t *testing.T) {
	c, err := ParseArgs([]string{"run", "-s", "webrick", t.TempDir()})
	require.NoError(t, err)
	assert.Error(t, runApp(c))

	c, err = ParseArgs([]string{"-c", filepath.Join(t.TempDir(), "missing.conf"), "run"})
	require.NoError(t, err)
	assert.ErrorContains(t, runApp(c), "Invalid configuration")
}
