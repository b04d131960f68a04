package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/llm"
)

// GraphNode is an entity or concept extracted from a document.
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// GraphEdge is a directed relation between two nodes.
type GraphEdge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

// Graph is an entity/relationship view of one document. It is computed
// per request and never persisted.
type Graph struct {
	DocumentName string      `json:"document_name"`
	Nodes        []GraphNode `json:"nodes"`
	Edges        []GraphEdge `json:"edges"`
}

// Graph extracts a knowledge graph from the whole document. Content over
// the token budget is split into groups extracted concurrently and merged,
// deduplicating nodes by ID and edges by (source, target, relation). A
// response that fails parsing or validation is retried once with a
// stricter instruction; a second failure returns ErrGraphParse rather than
// a partial graph.
func (e *Engine) Graph(ctx context.Context, documentName string) (Graph, error) {
	doc, err := e.registry.Get(ctx, documentName)
	if err != nil {
		return Graph{}, err
	}

	chunks, err := e.index.Chunks(ctx, doc.ID)
	if err != nil {
		return Graph{}, fmt.Errorf("loading chunks of %s: %w", documentName, err)
	}

	parts := make([]string, len(chunks))
	for i, ch := range chunks {
		parts[i] = ch.Text
	}
	groups := e.groupByBudget(parts)

	payloads := make([]graphPayload, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	for i, group := range groups {
		g.Go(func() error {
			payload, err := e.extractGraph(gctx, strings.Join(group, "\n\n"))
			if err != nil {
				return err
			}
			payloads[i] = payload
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Graph{}, err
	}

	graph := mergeGraphs(payloads)
	graph.DocumentName = documentName

	e.logger.Info("knowledge graph extracted",
		"document", documentName,
		"nodes", len(graph.Nodes),
		"edges", len(graph.Edges))
	return graph, nil
}

type graphPayload struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// extractGraph runs one JSON-mode extraction over the text, retrying once
// with the stricter prompt when the response does not validate.
func (e *Engine) extractGraph(ctx context.Context, text string) (graphPayload, error) {
	out, err := e.llm.Complete(ctx, llm.Request{
		Prompt:      fmt.Sprintf(graphPromptFormat, text),
		Temperature: graphTemperature,
		JSONOnly:    true,
	})
	if err != nil {
		return graphPayload{}, fmt.Errorf("extracting graph: %w", err)
	}

	payload, parseErr := parseGraph(out)
	if parseErr == nil {
		return payload, nil
	}
	e.logger.Warn("graph response invalid, retrying with stricter instruction", "error", parseErr)

	out, err = e.llm.Complete(ctx, llm.Request{
		Prompt:      fmt.Sprintf(graphRetryPromptFormat, text),
		Temperature: graphTemperature,
		JSONOnly:    true,
	})
	if err != nil {
		return graphPayload{}, fmt.Errorf("extracting graph: %w", err)
	}

	payload, parseErr = parseGraph(out)
	if parseErr != nil {
		return graphPayload{}, fmt.Errorf("%w: %v", ErrGraphParse, parseErr)
	}
	return payload, nil
}

// parseGraph decodes and validates a model response.
func parseGraph(raw string) (graphPayload, error) {
	object := extractJSONObject(raw)
	if object == "" {
		return graphPayload{}, errors.New("no JSON object in response")
	}

	var payload graphPayload
	if err := json.Unmarshal([]byte(object), &payload); err != nil {
		return graphPayload{}, fmt.Errorf("decoding graph JSON: %w", err)
	}
	if err := validateGraph(&payload); err != nil {
		return graphPayload{}, err
	}
	return payload, nil
}

func validateGraph(p *graphPayload) error {
	if len(p.Nodes) == 0 {
		return errors.New("graph has no nodes")
	}

	ids := make(map[string]bool, len(p.Nodes))
	for i, node := range p.Nodes {
		if node.ID == "" {
			return fmt.Errorf("node %d has an empty id", i)
		}
		if ids[node.ID] {
			return fmt.Errorf("duplicate node id %q", node.ID)
		}
		ids[node.ID] = true
		if node.Label == "" {
			return fmt.Errorf("node %q has an empty label", node.ID)
		}
		if node.Type == "" {
			p.Nodes[i].Type = "concept"
		}
	}

	for _, edge := range p.Edges {
		if !ids[edge.Source] {
			return fmt.Errorf("edge references unknown source %q", edge.Source)
		}
		if !ids[edge.Target] {
			return fmt.Errorf("edge references unknown target %q", edge.Target)
		}
	}
	return nil
}

// extractJSONObject returns the outermost brace-delimited object in the
// response, tolerating code fences and prose around it.
func extractJSONObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

// mergeGraphs unions group results. Each group's edges reference that
// group's own nodes, so every endpoint survives the merge.
func mergeGraphs(parts []graphPayload) Graph {
	var graph Graph

	seenNodes := make(map[string]bool)
	type edgeKey struct {
		source, target, relation string
	}
	seenEdges := make(map[edgeKey]bool)

	for _, part := range parts {
		for _, node := range part.Nodes {
			if seenNodes[node.ID] {
				continue
			}
			seenNodes[node.ID] = true
			graph.Nodes = append(graph.Nodes, node)
		}
		for _, edge := range part.Edges {
			key := edgeKey{edge.Source, edge.Target, edge.Relation}
			if seenEdges[key] {
				continue
			}
			seenEdges[key] = true
			graph.Edges = append(graph.Edges, edge)
		}
	}
	return graph
}
