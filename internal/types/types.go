package types

// Run status constants
const (
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Pipeline stages, in the order a run passes through them
const (
	StageStart              = "start"
	StageFetched            = "fetched"
	StageConverted          = "converted"
	StageSplit              = "split"
	StageNormalized         = "normalized"
	StageTranscribedManager = "transcribed_manager"
	StageTranscribedClient  = "transcribed_client"
	StageAssembled          = "assembled"
	StageDone               = "done"
	StageFailed             = "failed"
)

// Role identifies which side of the call a segment came from.
// The left channel is always the client and the right channel the manager.
type Role int

const (
	RoleClient Role = iota
	RoleManager
)

func (r Role) String() string {
	switch r {
	case RoleClient:
		return "Client"
	case RoleManager:
		return "Manager"
	default:
		return "Unknown"
	}
}

// MarshalText renders the role by name in JSON metadata
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Segment represents a timestamped segment of transcription
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// RoleSegment is a segment tagged with the channel it was recognized on
type RoleSegment struct {
	Segment
	Role Role `json:"role"`
}

// RunResult is the transient record of one pipeline run
type RunResult struct {
	RunID          string
	SourceURL      string
	Artifacts      map[string]string
	Dialogue       string
	Segments       []RoleSegment
	Elapsed        float64
	TranscriptPath string
	ArchiveURL     string
	Status         string
	Stage          string
	Err            error
}
