package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/codebuildervaibhav/call-transcription/internal/types"
)

// WhisperTranscriber wraps Python's OpenAI Whisper for transcription
type WhisperTranscriber struct {
	modelName string
	python    string
	device    string
	threads   int
	mu        sync.Mutex // One model loaded at a time
}

// NewWhisperTranscriber creates a new transcriber using Python Whisper
func NewWhisperTranscriber(modelPath, python, device string, threads int) *WhisperTranscriber {
	modelName := modelFromPath(modelPath)
	if python == "" {
		python = "python"
	}

	log.Printf("Initializing Python Whisper with model: %s (device: %s)", modelName, deviceOrDefault(device))
	log.Printf("Whisper will be called via: %s -m whisper", python)

	return &WhisperTranscriber{
		modelName: modelName,
		python:    python,
		device:    device,
		threads:   threads,
	}
}

// modelFromPath extracts the model size from a model name or path
// (e.g. "ggml-large-v3.bin" -> "large-v3"). Defaults to large.
func modelFromPath(modelPath string) string {
	base := strings.ToLower(filepath.Base(modelPath))
	for _, name := range []string{"large-v3", "large-v2", "large", "medium", "small", "base", "tiny"} {
		if strings.Contains(base, name) {
			return name
		}
	}
	return "large"
}

func deviceOrDefault(device string) string {
	if device == "" {
		return "auto"
	}
	return device
}

// Transcribe runs Whisper on a mono track and returns its timestamped segments.
// Whisper's JSON output is written next to the audio file, inside the run directory.
func (wt *WhisperTranscriber) Transcribe(ctx context.Context, audioPath, language string) ([]types.Segment, error) {
	wt.mu.Lock()
	defer wt.mu.Unlock()

	absAudioPath, err := filepath.Abs(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(absAudioPath), filepath.Ext(absAudioPath))
	outputDir := filepath.Join(filepath.Dir(absAudioPath), "whisper_"+baseName)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create whisper output dir: %w", err)
	}
	defer os.RemoveAll(outputDir)

	args := []string{"-m", "whisper",
		absAudioPath,
		"--model", wt.modelName,
		"--output_dir", outputDir,
		"--output_format", "json",
		"--language", language,
		"--task", "transcribe",
		"--fp16", "False", // CPU compatibility
	}
	if wt.device != "" {
		args = append(args, "--device", wt.device)
	}
	if wt.threads > 0 {
		args = append(args, "--threads", fmt.Sprintf("%d", wt.threads))
	}

	log.Printf("Transcribing with Python Whisper: %s (language: %s)", audioPath, language)

	cmd := exec.CommandContext(ctx, wt.python, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("whisper transcription failed: %w\nOutput: %s", err, string(output))
	}

	jsonData, err := os.ReadFile(filepath.Join(outputDir, baseName+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read whisper output: %w", err)
	}

	segments, err := parseWhisperJSON(jsonData)
	if err != nil {
		return nil, err
	}

	log.Printf("Transcription completed: %s, %d segments", filepath.Base(audioPath), len(segments))
	return segments, nil
}

// parseWhisperJSON converts Whisper's JSON result into segments
func parseWhisperJSON(data []byte) ([]types.Segment, error) {
	var whisperOutput WhisperOutput
	if err := json.Unmarshal(data, &whisperOutput); err != nil {
		return nil, fmt.Errorf("failed to parse whisper JSON: %w", err)
	}

	segments := make([]types.Segment, len(whisperOutput.Segments))
	for i, seg := range whisperOutput.Segments {
		segments[i] = types.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		}
	}
	return segments, nil
}

// WhisperOutput matches Python Whisper's JSON output format
type WhisperOutput struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []WhisperSegment `json:"segments"`
}

// WhisperSegment represents a timestamped segment from Whisper
type WhisperSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
