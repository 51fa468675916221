package transcription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/codebuildervaibhav/call-transcription/internal/types"
)

// DefaultLanguage is the language calls are recognized in
const DefaultLanguage = "ru"

// Engine turns a mono track into segments ordered by start time.
// Ordering holds within one call only; callers merging several tracks must sort.
type Engine interface {
	Transcribe(ctx context.Context, audioPath, language string) ([]types.Segment, error)
}

// Settings selects and configures an Engine
type Settings struct {
	Backend   string // whisper | openai
	ModelPath string
	Python    string
	Device    string
	Threads   int

	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewEngine builds the backend named in settings
func NewEngine(s Settings) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s.Backend)) {
	case "", "whisper":
		return NewWhisperTranscriber(s.ModelPath, s.Python, s.Device, s.Threads), nil
	case "openai":
		if s.APIKey == "" && s.BaseURL == "" {
			return nil, fmt.Errorf("openai backend requires an api key or a base url")
		}
		return NewOpenAITranscriber(s.BaseURL, s.APIKey, s.Model, s.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown transcription backend: %s", s.Backend)
	}
}
