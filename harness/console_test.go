package harness

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/campsite/cmd/model"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func consoleServer(t *testing.T, input string) (*Server, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blog.hcl"), []byte(`app "Blog" {}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wiki.hcl"), []byte(`app "Wiki" {}`), 0o644))

	s, err := NewServer(&model.HostContainer{
		Server:    model.ServerConsole,
		Paths:     []string{dir},
		Extension: ".hcl",
		Isolate:   true,
	})
	require.NoError(t, err)
	out := &bytes.Buffer{}
	s.In = strings.NewReader(input)
	s.Out = out
	return s, out, dir
}

func TestConsoleCommands(t *testing.T) {
	s, out, dir := consoleServer(t, "apps\nbogus\nhelp\n\nreload!\nexit\napps\n")
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, Stopped, s.State())

	text := out.String()
	assert.Contains(t, text, "/blog  Blog  "+filepath.Join(dir, "blog.hcl"))
	assert.Contains(t, text, "/wiki  Wiki")
	assert.Contains(t, text, `Unknown command "bogus"`)
	assert.Contains(t, text, "leave the console")
	assert.Equal(t, 3, strings.Count(text, "/blog  Blog"), "startup, apps and reload! list the units, the input after exit is ignored")
}

func TestConsoleStopsAtEndOfInput(t *testing.T) {
	s, out, dir := consoleServer(t, "reload")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wiki.hcl"), []byte("app \"Wiki\" {\n"), 0o644))
	require.NoError(t, s.Start(context.Background()))
	assert.Contains(t, out.String(), "Reload failed: 1 unit failed to load")
	assert.Contains(t, out.String(), "[failed: ")
}

func TestMCPTools(t *testing.T) {
	s, _, dir := consoleServer(t, "")
	m := s.mcpServer()
	assert.NotNil(t, m)

	res, err := s.reloadTool(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "/blog  Blog")

	res, err = s.listAppsTool(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "/wiki  Wiki")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "wiki.hcl"), []byte(`app "wiki page" {}`), 0o644))
	res, err = s.reloadTool(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Invalid app name")
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}
