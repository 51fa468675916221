package queue

import (
	"context"
	"time"

	"github.com/codebuildervaibhav/call-transcription/internal/pipeline"
	"github.com/codebuildervaibhav/call-transcription/internal/types"
)

// Job is one call recording waiting for a worker
type Job struct {
	URL       string
	Observer  pipeline.Observer
	CreatedAt time.Time

	ctx  context.Context
	done chan *types.RunResult
}

// NewJob creates a job for the given recording URL
func NewJob(url string, observer pipeline.Observer) *Job {
	return &Job{
		URL:       url,
		Observer:  observer,
		CreatedAt: time.Now(),
		done:      make(chan *types.RunResult, 1),
	}
}
