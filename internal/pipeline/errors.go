package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies where in the pipeline a run failed
type Kind string

const (
	KindFetch         Kind = "FetchError"
	KindConversion    Kind = "ConversionError"
	KindSplit         Kind = "SplitError"
	KindNormalization Kind = "NormalizationError"
	KindTranscription Kind = "TranscriptionError"
	KindAssembly      Kind = "AssemblyError"
	KindStorage       Kind = "StorageError"
	KindInternal      Kind = "InternalError"
)

// Code returns the API error code for the kind
func (k Kind) Code() string {
	switch k {
	case KindFetch:
		return "ERR_FETCH_FAILED"
	case KindConversion:
		return "ERR_CONVERSION_FAILED"
	case KindSplit:
		return "ERR_SPLIT_FAILED"
	case KindNormalization:
		return "ERR_NORMALIZATION_FAILED"
	case KindTranscription:
		return "ERR_TRANSCRIPTION_FAILED"
	case KindAssembly:
		return "ERR_ASSEMBLY_FAILED"
	case KindStorage:
		return "ERR_SAVE_FAILED"
	default:
		return "ERR_INTERNAL"
	}
}

// StageError records the failure kind and the last stage the run completed
type StageError struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s after stage %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from an error chain
func KindOf(err error) Kind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}
