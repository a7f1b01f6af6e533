// Package mcpadapter exposes a minimal read-only MCP tool surface over an
// already-written code graph. It contains no indexing logic: every tool is
// one parameterized read statement against the store.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/codegraph/codegraph/pkg/graph"
)

const serverVersion = "0.1.0-dev"

// Server wraps an MCP server whose tools answer structural questions from
// the graph: callers, implementations, domain dependencies.
type Server struct {
	mcpServer *server.MCPServer
	client    *graph.Client
}

// NewServer creates the MCP server backed by client.
func NewServer(client *graph.Client) *Server {
	s := &Server{client: client}

	s.mcpServer = server.NewMCPServer("codegraph", serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.mcpServer.AddTools(
		server.ServerTool{Tool: whoCallsTool(), Handler: s.handleWhoCalls},
		server.ServerTool{Tool: implementationsTool(), Handler: s.handleImplementations},
		server.ServerTool{Tool: domainDependenciesTool(), Handler: s.handleDomainDependencies},
	)
	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func whoCallsTool() mcp.Tool {
	return mcp.NewTool("who_calls",
		mcp.WithDescription("List every function that calls the function with the given fully qualified name"),
		mcp.WithString("fqn", mcp.Required(), mcp.Description("Fully qualified name of the callee function")),
	)
}

func (s *Server) handleWhoCalls(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fqn, err := req.RequireString("fqn")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	records, err := s.client.Query(ctx, `
		MATCH (caller:Function)-[c:CALLS]->(callee:Function {fqn: $fqn})
		RETURN caller.fqn AS fqn, caller.filePath AS filePath, c.count AS count
		ORDER BY caller.fqn`,
		map[string]any{"fqn": fqn})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	return recordsResult(records)
}

func implementationsTool() mcp.Tool {
	return mcp.NewTool("implementations",
		mcp.WithDescription("List every class or object implementing or extending the given type"),
		mcp.WithString("fqn", mcp.Required(), mcp.Description("Fully qualified name of the interface or class")),
	)
}

func (s *Server) handleImplementations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fqn, err := req.RequireString("fqn")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	records, err := s.client.Query(ctx, `
		MATCH (impl)-[r:IMPLEMENTS|EXTENDS]->(t {fqn: $fqn})
		RETURN impl.fqn AS fqn, impl.filePath AS filePath, type(r) AS relation
		ORDER BY impl.fqn`,
		map[string]any{"fqn": fqn})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	return recordsResult(records)
}

func domainDependenciesTool() mcp.Tool {
	return mcp.NewTool("domain_dependencies",
		mcp.WithDescription("List weighted dependencies between bounded-context domains"),
	)
}

func (s *Server) handleDomainDependencies(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := s.client.Query(ctx, `
		MATCH (a:Domain)-[d:DEPENDS_ON]->(b:Domain)
		RETURN a.name AS from, b.name AS to, d.weight AS weight
		ORDER BY d.weight DESC`, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	return recordsResult(records)
}

func recordsResult(records []*neo4j.Record) (*mcp.CallToolResult, error) {
	rows := make([]map[string]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.AsMap())
	}
	out, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
