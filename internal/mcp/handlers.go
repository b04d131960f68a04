package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/engine"
)

// makeAskHandler creates the ask_document tool handler. The result carries
// the same answer, confidence and citations the HTTP surface returns; only
// audio is omitted, since MCP clients consume text.
func makeAskHandler(eng *engine.Engine) func(
	context.Context, *mcp.CallToolRequest, AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (
		*mcp.CallToolResult, AskOutput, error,
	) {
		result, err := eng.Ask(ctx, engine.AskRequest{
			Query:        input.Query,
			DocumentName: input.DocumentName,
		})
		if err != nil {
			return nil, AskOutput{}, fmt.Errorf("answering question: %w", err)
		}

		citations := make([]CitationOutput, len(result.Citations))
		for i, c := range result.Citations {
			citations[i] = CitationOutput{
				ID:             c.ID,
				Text:           c.Text,
				Page:           c.Page,
				Source:         c.Source,
				RelevanceScore: c.RelevanceScore,
			}
		}
		sources := result.Sources
		if sources == nil {
			sources = []string{} // Ensure non-nil for JSON marshaling
		}

		return nil, AskOutput{
			Answer:      result.Answer,
			Confidence:  result.Confidence,
			Citations:   citations,
			Sources:     sources,
			SourceCount: result.SourceCount,
		}, nil
	}
}

// makeSummarizeHandler creates the summarize_document tool handler.
func makeSummarizeHandler(eng *engine.Engine) func(
	context.Context, *mcp.CallToolRequest, SummarizeInput,
) (*mcp.CallToolResult, SummarizeOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SummarizeInput) (
		*mcp.CallToolResult, SummarizeOutput, error,
	) {
		summary, err := eng.Summarize(ctx, input.DocumentName)
		if err != nil {
			return nil, SummarizeOutput{}, fmt.Errorf("summarizing document: %w", err)
		}

		return nil, SummarizeOutput{
			Summary:      summary.Summary,
			DocumentName: summary.DocumentName,
			ChunkCount:   summary.ChunkCount,
			PageCount:    summary.PageCount,
			GeneratedAt:  summary.GeneratedAt,
		}, nil
	}
}

// makeGraphHandler creates the knowledge_graph tool handler.
func makeGraphHandler(eng *engine.Engine) func(
	context.Context, *mcp.CallToolRequest, GraphInput,
) (*mcp.CallToolResult, GraphOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GraphInput) (
		*mcp.CallToolResult, GraphOutput, error,
	) {
		graph, err := eng.Graph(ctx, input.DocumentName)
		if err != nil {
			return nil, GraphOutput{}, fmt.Errorf("extracting knowledge graph: %w", err)
		}

		nodes := make([]NodeOutput, len(graph.Nodes))
		for i, n := range graph.Nodes {
			nodes[i] = NodeOutput{ID: n.ID, Label: n.Label, Type: n.Type}
		}
		edges := make([]EdgeOutput, len(graph.Edges))
		for i, e := range graph.Edges {
			edges[i] = EdgeOutput{Source: e.Source, Target: e.Target, Relation: e.Relation}
		}

		return nil, GraphOutput{
			DocumentName: graph.DocumentName,
			Nodes:        nodes,
			Edges:        edges,
		}, nil
	}
}

// makeListHandler creates the list_documents tool handler.
func makeListHandler(eng *engine.Engine) func(
	context.Context, *mcp.CallToolRequest, ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListDocumentsInput) (
		*mcp.CallToolResult, ListDocumentsOutput, error,
	) {
		docs, err := eng.Documents(ctx)
		if err != nil {
			return nil, ListDocumentsOutput{}, fmt.Errorf("listing documents: %w", err)
		}

		out := make([]DocumentOutput, len(docs))
		for i, doc := range docs {
			out[i] = DocumentOutput{
				Name:       doc.Name,
				PageCount:  doc.Pages,
				ChunkCount: doc.Chunks,
				UploadedAt: doc.UploadedAt,
			}
		}

		return nil, ListDocumentsOutput{Documents: out, Count: len(out)}, nil
	}
}
