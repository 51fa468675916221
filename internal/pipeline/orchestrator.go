// Package pipeline drives one call recording from download to a saved,
// role-labeled dialogue.
package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/codebuildervaibhav/call-transcription/internal/dialogue"
	"github.com/codebuildervaibhav/call-transcription/internal/transcription"
	"github.com/codebuildervaibhav/call-transcription/internal/types"
	"github.com/codebuildervaibhav/call-transcription/internal/workspace"
)

// Artifact names inside a run directory
const (
	inputName = "input.mp3"
	wavName   = "input.wav"
)

// Fetcher retrieves the source recording
type Fetcher interface {
	Fetch(ctx context.Context, url, destPath string) error
}

// AudioProcessor converts, splits and normalizes recordings
type AudioProcessor interface {
	Convert(ctx context.Context, inputPath, wavPath string) error
	Split(ctx context.Context, stereoPath, dir string) (clientPath, managerPath string, err error)
	Normalize(ctx context.Context, monoPath, outputPath string) error
}

// TranscriptStore persists a finished dialogue and returns where it was written
type TranscriptStore interface {
	SaveDialogue(result *types.RunResult, language string) (string, error)
}

// Archiver copies a finished dialogue somewhere off-host
type Archiver interface {
	Upload(ctx context.Context, result *types.RunResult, language string) (string, error)
}

// Observer is told about every stage a run reaches, including the failure stage
type Observer func(runID, stage string)

// Options wires an Orchestrator
type Options struct {
	Fetcher       Fetcher
	Audio         AudioProcessor
	Engine        transcription.Engine
	Store         TranscriptStore
	Archive       Archiver // optional
	TempDir       string
	Language      string
	KeepArtifacts bool
}

// Orchestrator runs the stages of the pipeline strictly in order
type Orchestrator struct {
	fetcher       Fetcher
	audio         AudioProcessor
	engine        transcription.Engine
	store         TranscriptStore
	archive       Archiver
	tempDir       string
	language      string
	keepArtifacts bool
	now           func() time.Time
}

// New creates an orchestrator
func New(opts Options) *Orchestrator {
	language := opts.Language
	if language == "" {
		language = transcription.DefaultLanguage
	}
	return &Orchestrator{
		fetcher:       opts.Fetcher,
		audio:         opts.Audio,
		engine:        opts.Engine,
		store:         opts.Store,
		archive:       opts.Archive,
		tempDir:       opts.TempDir,
		language:      language,
		keepArtifacts: opts.KeepArtifacts,
		now:           time.Now,
	}
}

// run carries the state of one execution
type run struct {
	result   *types.RunResult
	arena    *workspace.Arena
	observer Observer
}

func (r *run) advance(stage string) {
	r.result.Stage = stage
	if r.observer != nil {
		r.observer(r.result.RunID, stage)
	}
}

// Run executes the whole pipeline for one recording URL. It never returns a
// partial dialogue: on failure Dialogue is empty, Elapsed is 0 and Err holds a
// *StageError naming the last stage the run completed.
func (o *Orchestrator) Run(ctx context.Context, url string, observer Observer) *types.RunResult {
	start := o.now()
	result := &types.RunResult{
		SourceURL: url,
		Artifacts: make(map[string]string),
		Status:    types.StatusProcessing,
		Stage:     types.StageStart,
	}

	arena, err := workspace.New(o.tempDir)
	if err != nil {
		return o.fail(&run{result: result, observer: observer}, start, KindInternal, err)
	}
	result.RunID = arena.ID
	r := &run{result: result, arena: arena, observer: observer}
	defer o.release(r)

	log.Printf("Run %s: started for %s", result.RunID, url)
	r.advance(types.StageStart)

	// Step 1: Download
	inputPath := arena.Path(inputName)
	if err := o.fetcher.Fetch(ctx, url, inputPath); err != nil {
		return o.fail(r, start, KindFetch, err)
	}
	result.Artifacts["input"] = inputPath
	r.advance(types.StageFetched)

	// Step 2: Convert to 16kHz stereo WAV
	wavPath := arena.Path(wavName)
	if err := o.audio.Convert(ctx, inputPath, wavPath); err != nil {
		return o.fail(r, start, KindConversion, err)
	}
	result.Artifacts["wav"] = wavPath
	r.advance(types.StageConverted)

	// Step 3: Split channels (left = client, right = manager)
	clientPath, managerPath, err := o.audio.Split(ctx, wavPath, arena.Dir)
	if err != nil {
		return o.fail(r, start, KindSplit, err)
	}
	result.Artifacts["client"] = clientPath
	result.Artifacts["manager"] = managerPath
	r.advance(types.StageSplit)

	// Step 4: Normalize both tracks
	clientNormalized := arena.Path("client-normalized.wav")
	managerNormalized := arena.Path("manager-normalized.wav")
	if err := o.audio.Normalize(ctx, clientPath, clientNormalized); err != nil {
		return o.fail(r, start, KindNormalization, err)
	}
	if err := o.audio.Normalize(ctx, managerPath, managerNormalized); err != nil {
		return o.fail(r, start, KindNormalization, err)
	}
	result.Artifacts["client_normalized"] = clientNormalized
	result.Artifacts["manager_normalized"] = managerNormalized
	r.advance(types.StageNormalized)

	// Step 5: Transcribe manager, then client
	log.Printf("Run %s: transcribing manager channel", result.RunID)
	managerSegments, err := o.engine.Transcribe(ctx, managerNormalized, o.language)
	if err != nil {
		return o.fail(r, start, KindTranscription, err)
	}
	r.advance(types.StageTranscribedManager)

	log.Printf("Run %s: transcribing client channel", result.RunID)
	clientSegments, err := o.engine.Transcribe(ctx, clientNormalized, o.language)
	if err != nil {
		return o.fail(r, start, KindTranscription, err)
	}
	r.advance(types.StageTranscribedClient)

	// Step 6: Merge into one dialogue
	segments, err := dialogue.Assemble(managerSegments, clientSegments)
	if err != nil {
		return o.fail(r, start, KindAssembly, err)
	}
	r.advance(types.StageAssembled)

	// Step 7: Save
	done := *result
	done.Segments = segments
	done.Dialogue = dialogue.Render(segments)

	transcriptPath, err := o.store.SaveDialogue(&done, o.language)
	if err != nil {
		return o.fail(r, start, KindStorage, err)
	}
	done.TranscriptPath = transcriptPath
	done.Artifacts["transcript"] = transcriptPath

	if o.archive != nil {
		link, err := o.archive.Upload(ctx, &done, o.language)
		if err != nil {
			log.Printf("Run %s: WARNING - archive upload failed, transcript kept locally: %v", result.RunID, err)
		} else {
			done.ArchiveURL = link
		}
	}

	*result = done
	result.Status = types.StatusCompleted
	result.Elapsed = o.now().Sub(start).Seconds()
	r.advance(types.StageDone)

	log.Printf("Run %s: completed in %.2fs (%d segments, transcript: %s)",
		result.RunID, result.Elapsed, len(segments), transcriptPath)
	return result
}

// fail aborts the run. Dialogue and Elapsed are reset so callers never see
// partial progress; the real elapsed time is only logged.
func (o *Orchestrator) fail(r *run, start time.Time, kind Kind, err error) *types.RunResult {
	result := r.result
	stageErr := &StageError{Kind: kind, Stage: result.Stage, Err: err}

	log.Printf("Run %s: %v (after %.2fs)", result.RunID, stageErr, o.now().Sub(start).Seconds())

	result.Err = stageErr
	result.Status = types.StatusFailed
	result.Dialogue = ""
	result.Segments = nil
	result.Elapsed = 0
	r.advance(types.StageFailed)
	return result
}

// release removes the run directory unless artifacts are kept for debugging
func (o *Orchestrator) release(r *run) {
	if r.arena == nil || o.keepArtifacts {
		return
	}
	if err := r.arena.Remove(); err != nil {
		log.Printf("Run %s: failed to remove run directory %s: %v", r.result.RunID, r.arena.Dir, err)
	}
}
