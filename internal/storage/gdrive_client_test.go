package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/codebuildervaibhav/call-transcription/internal/types"
)

// fakeDrive answers list calls with no results and create calls with sequential ids
type fakeDrive struct {
	mu      sync.Mutex
	next    int
	uploads []string
	queries []string
}

func (f *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if r.Method == http.MethodGet {
		f.queries = append(f.queries, r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode(map[string]any{"files": []any{}})
		return
	}

	body, _ := io.ReadAll(r.Body)
	if r.URL.Query().Get("uploadType") != "" {
		f.uploads = append(f.uploads, string(body))
	}
	f.next++
	json.NewEncoder(w).Encode(map[string]any{"id": fmt.Sprintf("id-%d", f.next)})
}

func newTestDriveClient(t *testing.T, fake *fakeDrive) *DriveClient {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := drive.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("drive.NewService: %v", err)
	}
	dc := &DriveClient{service: svc, folderName: "Call Transcripts"}
	if err := dc.ensureFolder(context.Background()); err != nil {
		t.Fatalf("ensureFolder: %v", err)
	}
	return dc
}

func TestDriveUpload(t *testing.T) {
	fake := &fakeDrive{}
	dc := newTestDriveClient(t, fake)
	if dc.folderID != "id-1" {
		t.Fatalf("root folder id = %s", dc.folderID)
	}

	result := &types.RunResult{RunID: "run-7", Dialogue: "[0.00-1.00] Client: алло"}
	link, err := dc.Upload(context.Background(), result, "ru")
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	// root + year/month/day folders, then the dialogue file
	if link != "https://drive.google.com/file/d/id-5/view" {
		t.Fatalf("unexpected link %s", link)
	}

	if len(fake.uploads) != 2 {
		t.Fatalf("expected dialogue and metadata uploads, got %d", len(fake.uploads))
	}
	if !strings.Contains(fake.uploads[0], "Client: алло") {
		t.Fatalf("dialogue body missing from upload: %q", fake.uploads[0])
	}
	if !strings.Contains(fake.uploads[1], `"run_id": "run-7"`) {
		t.Fatalf("metadata body missing from upload: %q", fake.uploads[1])
	}
}

func TestEscapeQuery(t *testing.T) {
	if got := escapeQuery(`O'Brien\calls`); got != `O\'Brien\\calls` {
		t.Fatalf("escapeQuery = %s", got)
	}
}
