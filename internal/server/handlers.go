package server

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/engine"
)

// Handler carries the engine into the route handlers.
type Handler struct {
	engine  *engine.Engine
	version string
	logger  *slog.Logger
}

func NewHandler(eng *engine.Engine, version string, logger *slog.Logger) *Handler {
	return &Handler{engine: eng, version: version, logger: logger}
}

func (h *Handler) HandleServiceInfo(c *fiber.Ctx) error {
	return c.JSON(serviceInfo{
		Name:    serviceName,
		Version: h.version,
		Status:  "running",
		Features: []string{
			"Document Upload & Processing",
			"Question Answering with Citations",
			"Confidence Scoring",
			"Document Summarization",
			"Knowledge Graph Generation",
			"Audio Podcast Generation",
			"Multi-Document Support",
		},
	})
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	resp := healthResponse{
		Status:      "healthy",
		VectorStore: "connected",
		Timestamp:   time.Now().UTC(),
	}
	if err := h.engine.Health(c.Context()); err != nil {
		resp.Status = "unhealthy"
		resp.VectorStore = err.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

func (h *Handler) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrBadRequest("multipart field 'file' is required")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return ErrBadRequest("uploaded file could not be read")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return ErrBadRequest("uploaded file could not be read")
	}

	doc, err := h.engine.Ingest(c.Context(), fileHeader.Filename, data, c.FormValue("document_name"))
	if err != nil {
		return err
	}

	return c.JSON(uploadResponse{
		Status:       "success",
		Message:      fmt.Sprintf("Document '%s' processed successfully", doc.Name),
		DocumentName: doc.Name,
		Pages:        doc.Pages,
		Chunks:       doc.Chunks,
	})
}

// HandleAsk serves both GET (query parameters) and POST (JSON body).
func (h *Handler) HandleAsk(c *fiber.Ctx) error {
	var params askRequest
	if c.Method() == fiber.MethodGet {
		if err := c.QueryParser(&params); err != nil {
			return ErrBadRequest("invalid query parameters")
		}
	} else {
		if err := c.BodyParser(&params); err != nil {
			return ErrBadRequest("invalid JSON request")
		}
	}

	if errs := params.Validate(); len(errs) > 0 {
		return NewValidationError(errs)
	}

	result, err := h.engine.Ask(c.Context(), engine.AskRequest{
		Query:        params.Query,
		DocumentName: params.DocumentName,
		VoiceMode:    params.VoiceMode,
	})
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *Handler) HandleListDocuments(c *fiber.Ctx) error {
	docs, err := h.engine.Documents(c.Context())
	if err != nil {
		return err
	}

	out := documentList{
		Documents: make([]documentInfo, 0, len(docs)),
		Count:     len(docs),
	}
	for _, d := range docs {
		out.Documents = append(out.Documents, documentInfo{
			Name:       d.Name,
			PageCount:  d.Pages,
			ChunkCount: d.Chunks,
			UploadedAt: d.UploadedAt,
		})
	}
	return c.JSON(out)
}

func (h *Handler) HandleGetDocument(c *fiber.Ctx) error {
	doc, err := h.engine.Document(c.Context(), c.Params("+"))
	if err != nil {
		return err
	}
	return c.JSON(documentInfo{
		Name:       doc.Name,
		PageCount:  doc.Pages,
		ChunkCount: doc.Chunks,
		UploadedAt: doc.UploadedAt,
	})
}

func (h *Handler) HandleDeleteDocument(c *fiber.Ctx) error {
	name := c.Params("+")
	if err := h.engine.Delete(c.Context(), name); err != nil {
		return err
	}
	return c.JSON(deleteResponse{
		Status:       "success",
		Message:      fmt.Sprintf("Document '%s' deleted", name),
		DocumentName: name,
	})
}

func (h *Handler) HandleSummarize(c *fiber.Ctx) error {
	name := c.Query("document_name")
	if name == "" {
		return ErrBadRequest("query parameter 'document_name' is required")
	}
	summary, err := h.engine.Summarize(c.Context(), name)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

func (h *Handler) HandleGraph(c *fiber.Ctx) error {
	name := c.Query("document_name")
	if name == "" {
		return ErrBadRequest("query parameter 'document_name' is required")
	}
	graph, err := h.engine.Graph(c.Context(), name)
	if err != nil {
		return err
	}
	return c.JSON(graph)
}

func (h *Handler) HandlePodcast(c *fiber.Ctx) error {
	name := c.Query("document_name")
	if name == "" {
		return ErrBadRequest("query parameter 'document_name' is required")
	}
	podcast, err := h.engine.Podcast(c.Context(), name)
	if err != nil {
		return err
	}
	return c.JSON(podcast)
}
