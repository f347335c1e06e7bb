// Package audio implements the voice-message transcription pipeline: source
// check, ffmpeg transcode to mono 16 kHz PCM, artifact validation, float32
// sample decode, and speech-to-text. Every stage failure is returned as a
// structured Result; nothing here panics or escapes past the Process
// boundary.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	targetSampleRate = 16000
	// Transcodes smaller than this are silent or broken, not speech.
	minArtifactBytes = 100
)

// Transcriber is the speech-to-text contract the pipeline invokes with the
// decoded artifact.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// Pipeline transcribes voice-note files into text.
type Pipeline struct {
	transcriber Transcriber
	ffmpegPath  string
	log         *slog.Logger
}

// NewPipeline creates a transcription pipeline. ffmpegPath may be empty, in
// which case "ffmpeg" is resolved from PATH.
func NewPipeline(transcriber Transcriber, ffmpegPath string, log *slog.Logger) *Pipeline {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		transcriber: transcriber,
		ffmpegPath:  ffmpegPath,
		log:         log.With("component", "audio_pipeline"),
	}
}

// Process runs the full pipeline for one source audio file. The intermediate
// wav artifact is removed regardless of outcome.
func (p *Pipeline) Process(ctx context.Context, audioPath string) Result {
	p.log.InfoContext(ctx, "Starting transcription", "path", audioPath)

	if _, err := os.Stat(audioPath); err != nil {
		return failf(FailureSourceMissing, "source audio not reachable: %v", err)
	}

	wavPath, err := p.transcode(ctx, audioPath)
	if err != nil {
		return failf(FailureTranscode, "%v", err)
	}
	defer func() {
		// Best-effort cleanup of the intermediate artifact.
		if rmErr := os.Remove(wavPath); rmErr != nil && !os.IsNotExist(rmErr) {
			p.log.DebugContext(ctx, "Failed to remove transcoded artifact", "path", wavPath, "error", rmErr)
		}
	}()

	info, err := os.Stat(wavPath)
	if err != nil {
		return failf(FailureTranscode, "transcoded artifact not reachable: %v", err)
	}
	if info.Size() < minArtifactBytes {
		p.log.WarnContext(ctx, "Transcoded artifact below minimum size", "path", wavPath, "size", info.Size())
		return failf(FailureArtifactTooSmall, "wav artifact is %d bytes, below the %d byte minimum", info.Size(), minArtifactBytes)
	}

	samples, err := p.loadSamples(wavPath)
	if err != nil {
		return failf(FailureDecode, "%v", err)
	}

	text, err := p.transcriber.Transcribe(ctx, bytes.NewReader(encodeWAV(samples, targetSampleRate)), "audio.wav")
	if err != nil {
		p.log.ErrorContext(ctx, "Transcription backend failed", "error", err)
		return failf(FailureTranscribe, "%v", err)
	}

	if strings.TrimSpace(text) == "" {
		p.log.WarnContext(ctx, "Transcription returned empty text", "wav_size", info.Size())
		return failf(FailureEmptyText, "recognizer returned empty text for a %d byte artifact", info.Size())
	}

	p.log.InfoContext(ctx, "Transcription succeeded", "text_len", len(text))
	return ok(strings.TrimSpace(text))
}

// transcode converts the source file to mono 16 kHz 16-bit PCM wav next to
// the source.
func (p *Pipeline) transcode(ctx context.Context, inputPath string) (string, error) {
	ext := filepath.Ext(inputPath)
	wavPath := strings.TrimSuffix(inputPath, ext) + ".wav"

	cmd := exec.CommandContext(ctx, p.ffmpegPath,
		"-y",
		"-loglevel", "error",
		"-i", inputPath,
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", targetSampleRate),
		"-c:a", "pcm_s16le",
		wavPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg convert failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	return wavPath, nil
}

// loadSamples decodes the wav artifact as 32-bit float PCM. If the artifact
// is somehow multi-channel despite the transcode settings, channel 0 is
// selected.
func (p *Pipeline) loadSamples(wavPath string) ([]float32, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read wav artifact: %w", err)
	}

	channels, rate, err := decodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav artifact: %w", err)
	}
	if rate != targetSampleRate {
		return nil, fmt.Errorf("unexpected sample rate %d, want %d", rate, targetSampleRate)
	}
	if len(channels) == 0 || len(channels[0]) == 0 {
		return nil, fmt.Errorf("wav artifact contains no samples")
	}
	if len(channels) > 1 {
		p.log.Debug("Multi-channel artifact detected, selecting channel 0", "channels", len(channels))
	}

	return channels[0], nil
}
