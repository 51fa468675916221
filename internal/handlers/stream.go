package handlers

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/gofiber/websocket/v2"

	"github.com/codebuildervaibhav/call-transcription/internal/queue"
)

// StreamHandler runs a transcription over a WebSocket and reports every
// pipeline stage as it is reached
type StreamHandler struct {
	pool Submitter
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(pool Submitter) *StreamHandler {
	return &StreamHandler{
		pool: pool,
	}
}

// StageEvent is sent for every stage transition
type StageEvent struct {
	Type  string `json:"type"`
	RunID string `json:"run_id"`
	Stage string `json:"stage"`
}

// ResultEvent carries the final response body
type ResultEvent struct {
	Type   string `json:"type"`
	Status int    `json:"status"`
	Body   any    `json:"body"`
}

// Handle expects one text message {"mp3_url": "..."} and answers with stage
// events followed by a single result event
func (h *StreamHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	var mu sync.Mutex
	send := func(v any) {
		mu.Lock()
		defer mu.Unlock()
		if err := c.WriteJSON(v); err != nil {
			log.Printf("WebSocket write error: %v", err)
		}
	}

	messageType, message, err := c.ReadMessage()
	if err != nil {
		log.Printf("WebSocket read error: %v", err)
		return
	}

	var req TranscribeRequest
	if messageType != websocket.TextMessage || json.Unmarshal(message, &req) != nil || strings.TrimSpace(req.MP3URL) == "" {
		send(ResultEvent{Type: "result", Status: 400, Body: map[string]string{
			"error": "Expected a JSON message with mp3_url",
			"code":  "ERR_INVALID_BODY",
		}})
		return
	}

	job := queue.NewJob(strings.TrimSpace(req.MP3URL), func(runID, stage string) {
		send(StageEvent{Type: "stage", RunID: runID, Stage: stage})
	})

	result, err := h.pool.Submit(context.Background(), job)
	if err != nil {
		send(ResultEvent{Type: "result", Status: 503, Body: map[string]string{
			"error": "Transcription service unavailable",
			"code":  "ERR_UNAVAILABLE",
		}})
		return
	}

	status, body := resultResponse(result)
	send(ResultEvent{Type: "result", Status: status, Body: body})
}
