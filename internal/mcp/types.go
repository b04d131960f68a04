// Package mcp exposes the document assistant over the Model Context
// Protocol so MCP clients can ask questions, summarize documents and
// extract knowledge graphs.
package mcp

import "time"

// AskInput defines the input parameters for the ask_document tool.
type AskInput struct {
	// Query is the natural-language question.
	Query string `json:"query" jsonschema:"required,description=The question to answer from the indexed documents"`
	// DocumentName restricts the search to one document.
	DocumentName string `json:"document_name,omitempty" jsonschema:"description=Name of the document to query; omit to search every document"`
}

// AskOutput is a grounded answer with its supporting evidence.
type AskOutput struct {
	// Answer is the model's response, grounded in retrieved context.
	Answer string `json:"answer"`
	// Confidence is a trust score in [0,1] derived from the retrieval.
	Confidence float64 `json:"confidence"`
	// Citations are the passages the answer is grounded in, strongest first.
	Citations []CitationOutput `json:"citations"`
	// Sources lists the distinct documents evidence was drawn from.
	Sources []string `json:"sources"`
	// SourceCount is the number of retrieved passages.
	SourceCount int `json:"source_count"`
}

// CitationOutput is one supporting passage behind an answer.
type CitationOutput struct {
	ID             string  `json:"id"`
	Text           string  `json:"text"`
	Page           int     `json:"page"`
	Source         string  `json:"source"`
	RelevanceScore float64 `json:"relevance_score"`
}

// SummarizeInput defines the input parameters for the summarize_document tool.
type SummarizeInput struct {
	// DocumentName is the document to summarize.
	DocumentName string `json:"document_name" jsonschema:"required,description=Name of the document to summarize"`
}

// SummarizeOutput contains the structured document summary.
type SummarizeOutput struct {
	Summary      string    `json:"summary"`
	DocumentName string    `json:"document_name"`
	ChunkCount   int       `json:"chunk_count"`
	PageCount    int       `json:"page_count"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// GraphInput defines the input parameters for the knowledge_graph tool.
type GraphInput struct {
	// DocumentName is the document to extract entities and relations from.
	DocumentName string `json:"document_name" jsonschema:"required,description=Name of the document to extract a knowledge graph from"`
}

// GraphOutput contains the extracted entity/relationship graph.
type GraphOutput struct {
	DocumentName string       `json:"document_name"`
	Nodes        []NodeOutput `json:"nodes"`
	Edges        []EdgeOutput `json:"edges"`
}

// NodeOutput is an entity or concept in the graph.
type NodeOutput struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// EdgeOutput is a directed relation between two nodes.
type EdgeOutput struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

// ListDocumentsInput defines the input parameters for the list_documents
// tool. The tool takes no parameters.
type ListDocumentsInput struct{}

// ListDocumentsOutput lists every indexed document.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput is the metadata of one indexed document.
type DocumentOutput struct {
	Name       string    `json:"name"`
	PageCount  int       `json:"page_count"`
	ChunkCount int       `json:"chunk_count"`
	UploadedAt time.Time `json:"uploaded_at"`
}
