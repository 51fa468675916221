package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/codebuildervaibhav/call-transcription/internal/types"
)

// LocalStorage handles saving dialogues to the local filesystem
type LocalStorage struct {
	outputDir string
	now       func() time.Time
}

// NewLocalStorage creates a new local storage handler
func NewLocalStorage(outputDir string) *LocalStorage {
	return &LocalStorage{
		outputDir: outputDir,
		now:       time.Now,
	}
}

// transcriptMetadata is written next to every dialogue
type transcriptMetadata struct {
	RunID        string              `json:"run_id"`
	SourceURL    string              `json:"source_url"`
	Language     string              `json:"language"`
	SegmentCount int                 `json:"segment_count"`
	CreatedAt    time.Time           `json:"created_at"`
	Segments     []types.RoleSegment `json:"segments"`
	LocalPath    string              `json:"local_path,omitempty"`
}

func newMetadata(result *types.RunResult, language string, createdAt time.Time) transcriptMetadata {
	return transcriptMetadata{
		RunID:        result.RunID,
		SourceURL:    result.SourceURL,
		Language:     language,
		SegmentCount: len(result.Segments),
		CreatedAt:    createdAt,
		Segments:     result.Segments,
	}
}

// baseName builds "20250123_143022_<run id>", unique per run
func baseName(t time.Time, runID string) string {
	return fmt.Sprintf("%s_%s", t.Format("20060102_150405"), runID)
}

// SaveDialogue writes the rendered dialogue as UTF-8 text plus a metadata JSON
// under outputs/YYYY/MM/DD/ and returns the text file path.
func (ls *LocalStorage) SaveDialogue(result *types.RunResult, language string) (string, error) {
	now := ls.now()
	dateDir := filepath.Join(ls.outputDir,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()))

	if err := os.MkdirAll(dateDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create date directory: %w", err)
	}

	base := baseName(now, result.RunID)
	txtPath := filepath.Join(dateDir, base+".txt")
	metaPath := filepath.Join(dateDir, base+"_meta.json")

	if err := os.WriteFile(txtPath, []byte(result.Dialogue), 0644); err != nil {
		return "", fmt.Errorf("failed to save dialogue: %w", err)
	}

	metadata := newMetadata(result, language, now)
	metadata.LocalPath = txtPath

	metaJSON, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(metaPath, metaJSON, 0644); err != nil {
		return "", fmt.Errorf("failed to save metadata: %w", err)
	}

	return txtPath, nil
}
