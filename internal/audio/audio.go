package audio

import (
	"context"
	"fmt"
	"path/filepath"
)

// TargetSampleRate is the sample rate the recognizer expects
const TargetSampleRate = 16000

// Output file names inside a run directory
const (
	ClientTrackName     = "client.wav"
	ManagerTrackName    = "manager.wav"
	defaultFFmpegBinary = "ffmpeg"
	defaultSoxBinary    = "sox"
)

// Processor shapes call recordings with ffmpeg and sox
type Processor struct {
	filter Filter
	ffmpeg string
	sox    string
}

// NewProcessor creates a processor. Empty binary names fall back to ffmpeg and sox on PATH.
func NewProcessor(filter Filter, ffmpegBinary, soxBinary string) *Processor {
	if filter == nil {
		filter = ExecFilter{}
	}
	if ffmpegBinary == "" {
		ffmpegBinary = defaultFFmpegBinary
	}
	if soxBinary == "" {
		soxBinary = defaultSoxBinary
	}
	return &Processor{
		filter: filter,
		ffmpeg: ffmpegBinary,
		sox:    soxBinary,
	}
}

// Convert decodes any input into a 16kHz two-channel PCM WAV.
// A mono source is upmixed, so both channels carry the same signal.
func (p *Processor) Convert(ctx context.Context, inputPath, wavPath string) error {
	err := p.filter.Run(ctx, p.ffmpeg,
		"-y",
		"-i", inputPath,
		"-ar", fmt.Sprintf("%d", TargetSampleRate),
		"-ac", "2", // Stereo, one speaker per channel
		"-c:a", "pcm_s16le",
		wavPath,
	)
	if err != nil {
		return fmt.Errorf("convert %s: %w", filepath.Base(inputPath), err)
	}
	return nil
}

// Split writes the left channel (client) and the right channel (manager)
// of a stereo WAV into two mono files under dir.
func (p *Processor) Split(ctx context.Context, stereoPath, dir string) (clientPath, managerPath string, err error) {
	clientPath = filepath.Join(dir, ClientTrackName)
	managerPath = filepath.Join(dir, ManagerTrackName)

	if err := p.filter.Run(ctx, p.sox, stereoPath, clientPath, "remix", "1"); err != nil {
		return "", "", fmt.Errorf("extract left channel: %w", err)
	}
	if err := p.filter.Run(ctx, p.sox, stereoPath, managerPath, "remix", "2"); err != nil {
		return "", "", fmt.Errorf("extract right channel: %w", err)
	}
	return clientPath, managerPath, nil
}

// Normalize resamples a mono track to 16kHz, peak-normalizes it to -0.5dB
// and compands it so quiet and loud speech end up at similar levels.
func (p *Processor) Normalize(ctx context.Context, monoPath, outputPath string) error {
	err := p.filter.Run(ctx, p.sox,
		monoPath,
		"-r", "16k",
		outputPath,
		"norm", "-0.5",
		"compand", "0.3,1", "-90,-90,-70,-70,-60,-20,0,0", "-5", "0", "0.2",
	)
	if err != nil {
		return fmt.Errorf("normalize %s: %w", filepath.Base(monoPath), err)
	}
	return nil
}
