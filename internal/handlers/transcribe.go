package handlers

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/call-transcription/internal/pipeline"
	"github.com/codebuildervaibhav/call-transcription/internal/queue"
	"github.com/codebuildervaibhav/call-transcription/internal/types"
)

// Submitter hands a job to the worker pool and waits for the run to finish
type Submitter interface {
	Submit(ctx context.Context, job *queue.Job) (*types.RunResult, error)
}

// TranscribeRequest represents the request body
type TranscribeRequest struct {
	MP3URL string `json:"mp3_url"`
}

// TranscribeResponse is returned for a finished run
type TranscribeResponse struct {
	Dialogue       string  `json:"dialogue"`
	ExecutionTime  float64 `json:"execution_time"`
	RunID          string  `json:"run_id,omitempty"`
	TranscriptPath string  `json:"transcript_path,omitempty"`
	ArchiveURL     string  `json:"archive_url,omitempty"`
}

// ErrorResponse is returned for a failed run. Dialogue and ExecutionTime are
// always empty so clients of the success shape still parse it.
type ErrorResponse struct {
	Error         string  `json:"error"`
	Code          string  `json:"code"`
	Kind          string  `json:"kind,omitempty"`
	Stage         string  `json:"stage,omitempty"`
	RunID         string  `json:"run_id,omitempty"`
	Dialogue      string  `json:"dialogue"`
	ExecutionTime float64 `json:"execution_time"`
}

// TranscribeHandler handles synchronous transcription requests
type TranscribeHandler struct {
	pool Submitter
}

// NewTranscribeHandler creates a new transcribe handler
func NewTranscribeHandler(pool Submitter) *TranscribeHandler {
	return &TranscribeHandler{
		pool: pool,
	}
}

// Handle runs the pipeline for the posted recording URL and returns the dialogue
func (h *TranscribeHandler) Handle(c *fiber.Ctx) error {
	var req TranscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}

	req.MP3URL = strings.TrimSpace(req.MP3URL)
	if req.MP3URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "mp3_url is required",
			"code":  "ERR_NO_URL",
		})
	}

	result, err := h.pool.Submit(c.UserContext(), queue.NewJob(req.MP3URL, nil))
	if err != nil {
		log.Printf("Failed to submit %s: %v", req.MP3URL, err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Transcription service unavailable",
			"code":  "ERR_UNAVAILABLE",
		})
	}

	status, body := resultResponse(result)
	return c.Status(status).JSON(body)
}

// resultResponse maps a run result to an HTTP status and body
func resultResponse(result *types.RunResult) (int, any) {
	if result.Err != nil {
		resp := ErrorResponse{
			Error: result.Err.Error(),
			Code:  pipeline.KindInternal.Code(),
			RunID: result.RunID,
		}
		var se *pipeline.StageError
		if errors.As(result.Err, &se) {
			resp.Code = se.Kind.Code()
			resp.Kind = string(se.Kind)
			resp.Stage = se.Stage
		}
		return fiber.StatusInternalServerError, resp
	}

	return fiber.StatusOK, TranscribeResponse{
		Dialogue:       result.Dialogue,
		ExecutionTime:  result.Elapsed,
		RunID:          result.RunID,
		TranscriptPath: result.TranscriptPath,
		ArchiveURL:     result.ArchiveURL,
	}
}
