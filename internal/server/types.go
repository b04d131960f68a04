package server

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// askRequest arrives as a JSON body on POST /ask and as query parameters
// on GET /ask.
type askRequest struct {
	Query        string `json:"query" query:"query" validate:"required"`
	DocumentName string `json:"document_name" query:"document_name"`
	VoiceMode    bool   `json:"voice_mode" query:"voice_mode"`
}

func (r *askRequest) Validate() map[string]string {
	if err := validate.Struct(r); err != nil {
		errs := err.(validator.ValidationErrors)
		out := make(map[string]string, len(errs))
		for _, e := range errs {
			out[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return out
	}
	return nil
}

type uploadResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	DocumentName string `json:"document_name"`
	Pages        int    `json:"pages"`
	Chunks       int    `json:"chunks"`
}

type documentInfo struct {
	Name       string    `json:"name"`
	PageCount  int       `json:"page_count"`
	ChunkCount int       `json:"chunk_count"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type documentList struct {
	Documents []documentInfo `json:"documents"`
	Count     int            `json:"count"`
}

type deleteResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	DocumentName string `json:"document_name"`
}

type serviceInfo struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Status   string   `json:"status"`
	Features []string `json:"features"`
}

type healthResponse struct {
	Status      string    `json:"status"`
	VectorStore string    `json:"vector_store"`
	Timestamp   time.Time `json:"timestamp"`
}
