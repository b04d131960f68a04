package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/chunker"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/config"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/engine"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/extract"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/index"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/llm"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/registry"
)

const testGraphJSON = `{"nodes":[{"id":"a","label":"A","type":"concept"},{"id":"b","label":"B","type":"concept"}],"edges":[{"source":"a","target":"b","relation":"relates to"}]}`

// routedLLM answers each kind of completion the engine issues with a
// recognizable canned response.
type routedLLM struct{}

func (routedLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	switch {
	case req.JSONOnly:
		return testGraphJSON, nil
	case strings.Contains(req.Prompt, "podcast intro"):
		return "Welcome back! Today we're analyzing a new document.", nil
	case strings.Contains(req.Prompt, "structured summary"):
		return "Executive Summary: canned.", nil
	case strings.Contains(req.Prompt, "Question:"):
		return "The answer is 42.", nil
	default:
		return "condensed section", nil
	}
}

type staticTTS struct{}

func (staticTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return []byte("mp3-bytes"), nil
}

type flatEmbedder struct{}

func (flatEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (flatEmbedder) Dimensions() int { return 3 }

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	cfg := &config.Config{
		CORSOrigins:        "*",
		EmbeddingDim:       3,
		ChunkSize:          1000,
		ChunkOverlap:       200,
		RetrievalK:         5,
		MaxFileSizeMB:      1,
		AllowedExtensions:  []string{"pdf", "md", "txt"},
		IndexBackend:       "memory",
		SummaryTokenBudget: 3000,
		MaxConcurrentLLM:   2,
	}

	reg, err := registry.Open(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ix := index.New(flatEmbedder{}, index.NewMemoryStore(3), logger)
	splitter, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	require.NoError(t, err)

	eng := engine.New(reg, ix, extract.NewRouter(), splitter,
		routedLLM{}, staticTTS{}, engine.EstimateCounter{}, cfg, logger)

	return New(eng, cfg, nil, "2.0.0", logger).App()
}

func multipartUpload(t *testing.T, filename, content, documentName string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	if documentName != "" {
		require.NoError(t, w.WriteField("document_name", documentName))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-doc", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, out), "body: %s", body)
}

func uploadFixture(t *testing.T, app *fiber.App, filename, content string) {
	t.Helper()
	resp, err := app.Test(multipartUpload(t, filename, content, ""), 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServiceInfo(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info serviceInfo
	decodeBody(t, resp, &info)
	assert.Equal(t, "Enterprise RAG API", info.Name)
	assert.Equal(t, "2.0.0", info.Version)
	assert.Equal(t, "running", info.Status)
	assert.Contains(t, info.Features, "Question Answering with Citations")
}

func TestHealthEndpoints(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/check/healthy", "/health"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)

		var health healthResponse
		decodeBody(t, resp, &health)
		assert.Equal(t, "healthy", health.Status, path)
		assert.Equal(t, "connected", health.VectorStore, path)
	}
}

func TestUploadDocument(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(multipartUpload(t, "policy.txt", "Remote work requires manager approval.", ""), 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var upload uploadResponse
	decodeBody(t, resp, &upload)
	assert.Equal(t, "success", upload.Status)
	assert.Equal(t, "policy.txt", upload.DocumentName)
	assert.Equal(t, 1, upload.Pages)
	assert.Equal(t, 1, upload.Chunks)
}

func TestUploadWithExplicitName(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(multipartUpload(t, "raw.txt", "content", "handbook"), 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var upload uploadResponse
	decodeBody(t, resp, &upload)
	assert.Equal(t, "handbook", upload.DocumentName)
}

func TestUploadMissingFile(t *testing.T) {
	app := newTestApp(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("document_name", "nameless"))
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/upload-doc", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var apiErr Error
	decodeBody(t, resp, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Code)
	assert.Contains(t, apiErr.Message, "file")
}

func TestUploadUnsupportedFormat(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(multipartUpload(t, "malware.exe", "MZ", ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestAskPost(t *testing.T) {
	app := newTestApp(t)
	uploadFixture(t, app, "policy.txt", "Remote work requires manager approval.")

	body := `{"query":"What does remote work require?"}`
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result engine.QueryResult
	decodeBody(t, resp, &result)
	assert.Equal(t, "The answer is 42.", result.Answer)
	assert.Greater(t, result.Confidence, 0.0)
	assert.NotEmpty(t, result.Citations)
	assert.Equal(t, []string{"policy.txt"}, result.Sources)
	assert.Equal(t, 1, result.SourceCount)
	assert.Empty(t, result.Audio)
}

func TestAskGet(t *testing.T) {
	app := newTestApp(t)
	uploadFixture(t, app, "policy.txt", "Remote work requires manager approval.")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet,
		"/ask?query=what+is+required&document_name=policy.txt", nil), 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result engine.QueryResult
	decodeBody(t, resp, &result)
	assert.Equal(t, "The answer is 42.", result.Answer)
}

func TestAskVoiceMode(t *testing.T) {
	app := newTestApp(t)
	uploadFixture(t, app, "policy.txt", "Remote work requires manager approval.")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet,
		"/ask?query=anything&voice_mode=true", nil), 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &raw))
	require.Contains(t, raw, "audio")

	var audio []byte
	require.NoError(t, json.Unmarshal(raw["audio"], &audio))
	assert.Equal(t, []byte("mp3-bytes"), audio)
}

func TestAskMissingQuery(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var valErr ValidationError
	decodeBody(t, resp, &valErr)
	assert.Contains(t, valErr.Errors, "Query")
}

func TestAskMalformedBody(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAskEmptyIndex(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ask?query=anything", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var apiErr Error
	decodeBody(t, resp, &apiErr)
	assert.Contains(t, apiErr.Message, "no documents")
}

func TestAskUnknownDocument(t *testing.T) {
	app := newTestApp(t)
	uploadFixture(t, app, "policy.txt", "content")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet,
		"/ask?query=anything&document_name=missing.txt", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListAndGetDocuments(t *testing.T) {
	app := newTestApp(t)
	uploadFixture(t, app, "alpha.txt", "Alpha content.")
	uploadFixture(t, app, "beta.txt", "Beta content.")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list documentList
	decodeBody(t, resp, &list)
	assert.Equal(t, 2, list.Count)
	require.Len(t, list.Documents, 2)
	assert.Equal(t, "alpha.txt", list.Documents[0].Name)
	assert.Equal(t, 1, list.Documents[0].PageCount)
	assert.False(t, list.Documents[0].UploadedAt.IsZero())

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/documents/beta.txt", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info documentInfo
	decodeBody(t, resp, &info)
	assert.Equal(t, "beta.txt", info.Name)
	assert.Equal(t, 1, info.ChunkCount)
}

func TestGetDocumentWithSlashName(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(multipartUpload(t, "guide.md", "# Guide\n\nBody.", "team/docs/guide.md"), 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/documents/team/docs/guide.md", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info documentInfo
	decodeBody(t, resp, &info)
	assert.Equal(t, "team/docs/guide.md", info.Name)
}

func TestGetDocumentNotFound(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents/ghost.txt", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteDocument(t *testing.T) {
	app := newTestApp(t)
	uploadFixture(t, app, "victim.txt", "content")

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/documents/victim.txt", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var del deleteResponse
	decodeBody(t, resp, &del)
	assert.Equal(t, "success", del.Status)
	assert.Equal(t, "victim.txt", del.DocumentName)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/documents/victim.txt", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteDocumentNotFound(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/documents/ghost.txt", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSummarize(t *testing.T) {
	app := newTestApp(t)
	uploadFixture(t, app, "report.txt", "Quarterly results improved.")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet,
		"/summarize?document_name=report.txt", nil), 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary engine.Summary
	decodeBody(t, resp, &summary)
	assert.Equal(t, "report.txt", summary.DocumentName)
	assert.Contains(t, summary.Summary, "Executive Summary")
	assert.Equal(t, 1, summary.ChunkCount)
}

func TestSummarizeRequiresName(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/summarize", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateGraph(t *testing.T) {
	app := newTestApp(t)
	uploadFixture(t, app, "acme.txt", "Acme Corp manufactures the Widget.")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet,
		"/generate-graph?document_name=acme.txt", nil), 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var graph engine.Graph
	decodeBody(t, resp, &graph)
	assert.Equal(t, "acme.txt", graph.DocumentName)
	assert.Len(t, graph.Nodes, 2)
	assert.Len(t, graph.Edges, 1)
}

func TestGeneratePodcast(t *testing.T) {
	app := newTestApp(t)
	uploadFixture(t, app, "story.txt", "Once upon a time.")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet,
		"/generate-podcast?document_name=story.txt", nil), 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &raw))

	var script string
	require.NoError(t, json.Unmarshal(raw["script"], &script))
	assert.Contains(t, script, "Welcome back!")

	var audioB64 string
	require.NoError(t, json.Unmarshal(raw["audio"], &audioB64))
	audio, err := base64.StdEncoding.DecodeString(audioB64)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), audio)
}

func TestUnknownRouteJSONBody(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var apiErr Error
	decodeBody(t, resp, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Code)
}
