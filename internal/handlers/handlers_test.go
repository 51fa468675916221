package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/call-transcription/internal/pipeline"
	"github.com/codebuildervaibhav/call-transcription/internal/queue"
	"github.com/codebuildervaibhav/call-transcription/internal/types"
)

type fakePool struct {
	result *types.RunResult
	err    error
	urls   []string
}

func (p *fakePool) Submit(ctx context.Context, job *queue.Job) (*types.RunResult, error) {
	p.urls = append(p.urls, job.URL)
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

func newTestApp(pool Submitter) *fiber.App {
	app := fiber.New()
	Register(app, pool, func() []string { return []string{"line"} })
	return app
}

func postTranscribe(t *testing.T, app *fiber.App, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/transcribe", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("invalid JSON %q: %v", raw, err)
	}
	return resp.StatusCode, decoded
}

func TestTranscribeSuccess(t *testing.T) {
	pool := &fakePool{result: &types.RunResult{
		RunID:          "run-1",
		Dialogue:       "[0.00-1.00] Manager: да",
		Elapsed:        12.5,
		TranscriptPath: "outputs/2025/01/23/x.txt",
		Status:         types.StatusCompleted,
	}}
	app := newTestApp(pool)

	status, body := postTranscribe(t, app, `{"mp3_url":" https://example.com/call.mp3 "}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	if body["dialogue"] != "[0.00-1.00] Manager: да" || body["execution_time"] != 12.5 || body["run_id"] != "run-1" {
		t.Fatalf("unexpected body: %v", body)
	}
	if len(pool.urls) != 1 || pool.urls[0] != "https://example.com/call.mp3" {
		t.Fatalf("unexpected submitted urls: %v", pool.urls)
	}
}

func TestTranscribeFailureKeepsKind(t *testing.T) {
	pool := &fakePool{result: &types.RunResult{
		RunID:  "run-2",
		Status: types.StatusFailed,
		Err: &pipeline.StageError{
			Kind:  pipeline.KindFetch,
			Stage: types.StageStart,
			Err:   errors.New("download: unexpected status 404"),
		},
	}}
	app := newTestApp(pool)

	status, body := postTranscribe(t, app, `{"mp3_url":"https://example.com/missing.mp3"}`)
	if status != http.StatusInternalServerError {
		t.Fatalf("status = %d", status)
	}
	if body["code"] != "ERR_FETCH_FAILED" || body["kind"] != "FetchError" || body["stage"] != "start" {
		t.Fatalf("error kind lost: %v", body)
	}
	if body["dialogue"] != "" || body["execution_time"] != float64(0) {
		t.Fatalf("failure must carry empty dialogue and zero time: %v", body)
	}
	if !strings.Contains(body["error"].(string), "404") {
		t.Fatalf("error text missing cause: %v", body["error"])
	}
}

func TestTranscribeBadRequests(t *testing.T) {
	app := newTestApp(&fakePool{})

	tests := map[string]struct {
		body string
		code string
	}{
		"invalid json": {body: `{`, code: "ERR_INVALID_BODY"},
		"missing url":  {body: `{}`, code: "ERR_NO_URL"},
		"blank url":    {body: `{"mp3_url":"  "}`, code: "ERR_NO_URL"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			status, body := postTranscribe(t, app, tt.body)
			if status != http.StatusBadRequest || body["code"] != tt.code {
				t.Fatalf("status %d body %v", status, body)
			}
		})
	}
}

func TestTranscribePoolUnavailable(t *testing.T) {
	app := newTestApp(&fakePool{err: queue.ErrPoolStopped})

	status, body := postTranscribe(t, app, `{"mp3_url":"https://example.com/call.mp3"}`)
	if status != http.StatusServiceUnavailable || body["code"] != "ERR_UNAVAILABLE" {
		t.Fatalf("status %d body %v", status, body)
	}
}

func TestStaticRoutes(t *testing.T) {
	app := newTestApp(&fakePool{})

	for path, want := range map[string]string{
		"/":       `{"Hello":"World"}`,
		"/health": `"status":"healthy"`,
		"/logs":   `"logs":["line"]`,
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(raw), want) {
			t.Fatalf("GET %s: %d %s", path, resp.StatusCode, raw)
		}
	}
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	app := newTestApp(&fakePool{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ws/transcribe", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
