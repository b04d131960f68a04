package engine

// Generation temperatures. Answering and graph extraction stay
// deterministic; summaries get mild variation; the podcast script is
// deliberately loose.
const (
	summaryTemperature = 0.3
	graphTemperature   = 0
	podcastTemperature = 0.7
)

const answerSystem = `You are an intelligent Enterprise Assistant. Answer the question strictly based on the context provided. If the answer is not in the context, say "I cannot find the answer in this document." Do not use outside knowledge and do not speculate.`

const answerPromptFormat = `Context:

%s

Question: %s`

const sectionSummaryPromptFormat = `Summarize the following section of a document concisely. Preserve key facts, figures and names.

Section:
%s`

const finalSummaryPromptFormat = `Create a structured summary of the document content below. Use exactly this format:

Executive Summary: 2-3 sentences capturing the document's purpose and main conclusions.

Key Points:
- bullet list of the most important facts

Important Details: one paragraph of supporting specifics worth remembering.

Document content:
%s`

const graphPromptFormat = `Extract a knowledge graph from the text below. Return ONLY a JSON object, with no prose and no code fences, in exactly this shape:
{"nodes":[{"id":"...","label":"...","type":"..."}],"edges":[{"source":"...","target":"...","relation":"..."}]}

Rules:
- create 5-15 nodes and 5-20 edges
- every node id must be unique and non-empty
- every edge source and target must be the id of a node in the list
- type is a short category such as "person", "organization" or "concept"

Text:
%s`

const graphRetryPromptFormat = `Your previous response was not a valid knowledge graph. Respond with NOTHING except a single JSON object of the form {"nodes":[{"id","label","type"}],"edges":[{"source","target","relation"}]}. No explanation, no markdown, no code fences. Every edge must reference node ids that appear in "nodes".

Text:
%s`

const podcastPromptFormat = `Write a lively, engaging one-minute podcast intro of at most 150 words about the document content below. Start with exactly: "Welcome back! Today we're analyzing a new document." Then preview the most interesting points in a conversational tone.

Document content:
%s`
