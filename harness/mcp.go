// Copyright (c) 2012-2016 The Revel Framework Authors, All rights reserved.
// Revel Framework source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package harness

import (
	"context"

	cmd "github.com/campsite/cmd"
	"github.com/campsite/cmd/utils"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const mcpInstructions = `campsite hosts small HCL web units for local development.
Call reload after editing a unit source to load it and see any load error,
and list_apps to see what is mounted where.`

// mcpServer exposes the console commands as MCP tools.
func (s *Server) mcpServer() *server.MCPServer {
	m := server.NewMCPServer(
		"campsite",
		cmd.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(mcpInstructions),
	)
	m.AddTool(mcp.NewTool("reload",
		mcp.WithDescription("Reload every unit source and list the mounted units with their load errors."),
	), s.reloadTool)
	m.AddTool(mcp.NewTool("list_apps",
		mcp.WithDescription("List the mounted units: mount path, name, source file and size."),
	), s.listAppsTool)
	return m
}

// serveMCP loads the units once and answers MCP requests on In and Out until ctx
// is cancelled or the input ends.
func (s *Server) serveMCP(ctx context.Context) error {
	if _, err := s.App(); err != nil {
		utils.Logger.Error("Units failed to load", "error", err)
	}
	s.setState(Running)
	return server.NewStdioServer(s.mcpServer()).Listen(ctx, s.In, s.Out)
}

func (s *Server) reloadTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, ok := s.reloadReport()
	if !ok {
		return mcp.NewToolResultError(report), nil
	}
	return mcp.NewToolResultText(report), nil
}

func (s *Server) listAppsTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(describeApps(s.Apps())), nil
}
