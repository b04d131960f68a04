package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/engine"
)

// Server wraps the MCP server with its tool handlers bound to the engine.
type Server struct {
	server *mcp.Server
	engine *engine.Engine
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(eng *engine.Engine, version string) *Server {
	impl := &mcp.Implementation{
		Name:    "enterprise-rag",
		Version: version,
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_document",
		Description: "Ask a natural-language question answered from the indexed documents. Returns a grounded answer with citations and a confidence score. Pass document_name to restrict the search to one document.",
	}, makeAskHandler(eng))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "summarize_document",
		Description: "Generate a structured summary (executive summary, key points, important details) of one indexed document.",
	}, makeSummarizeHandler(eng))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "knowledge_graph",
		Description: "Extract an entity/relationship knowledge graph from one indexed document. Returns nodes and edges.",
	}, makeGraphHandler(eng))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List every indexed document with its page and chunk counts.",
	}, makeListHandler(eng))

	return &Server{
		server: server,
		engine: eng,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
