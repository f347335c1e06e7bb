package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTranscriber struct {
	text string
	err  error

	gotBytes int
}

func (s *stubTranscriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	data, _ := io.ReadAll(audio)
	s.gotBytes = len(data)
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeStubFFmpeg creates a shell script that stands in for ffmpeg and runs
// the given body with the output path available as $out.
func writeStubFFmpeg(t *testing.T, dir, body string) string {
	t.Helper()
	script := "#!/bin/sh\nfor out; do :; done\n" + body + "\n"
	path := filepath.Join(dir, "ffmpeg-stub")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func writeSourceAudio(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "voice.ogg")
	require.NoError(t, os.WriteFile(path, []byte("not really ogg"), 0o644))
	return path
}

func testWAVBytes(t *testing.T, samples int) []byte {
	t.Helper()
	pcm := make([]float32, samples)
	for i := range pcm {
		if i%2 == 0 {
			pcm[i] = 0.25
		} else {
			pcm[i] = -0.25
		}
	}
	return encodeWAV(pcm, targetSampleRate)
}

func TestProcessSourceMissing(t *testing.T) {
	t.Parallel()

	p := NewPipeline(&stubTranscriber{}, "ffmpeg", testLogger())
	result := p.Process(context.Background(), filepath.Join(t.TempDir(), "gone.ogg"))

	require.False(t, result.OK())
	assert.Equal(t, FailureSourceMissing, result.Failure.Kind)
}

func TestProcessTranscodeFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := writeSourceAudio(t, dir)
	stub := writeStubFFmpeg(t, dir, "echo 'boom' >&2; exit 1")

	p := NewPipeline(&stubTranscriber{}, stub, testLogger())
	result := p.Process(context.Background(), source)

	require.False(t, result.OK())
	assert.Equal(t, FailureTranscode, result.Failure.Kind)
	assert.Contains(t, result.Failure.Detail, "boom")
}

func TestProcessArtifactTooSmall(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := writeSourceAudio(t, dir)
	stub := writeStubFFmpeg(t, dir, `dd if=/dev/zero of="$out" bs=1 count=40 2>/dev/null`)

	p := NewPipeline(&stubTranscriber{text: "nunca chamado"}, stub, testLogger())
	result := p.Process(context.Background(), source)

	require.False(t, result.OK())
	assert.Equal(t, FailureArtifactTooSmall, result.Failure.Kind)
	assert.Empty(t, result.Text)
}

func TestProcessSuccess(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := writeSourceAudio(t, dir)

	fixture := filepath.Join(dir, "fixture.wav")
	require.NoError(t, os.WriteFile(fixture, testWAVBytes(t, 16000), 0o644))
	stub := writeStubFFmpeg(t, dir, fmt.Sprintf(`cp %q "$out"`, fixture))

	tr := &stubTranscriber{text: "  quero alugar um carro  "}
	p := NewPipeline(tr, stub, testLogger())
	result := p.Process(context.Background(), source)

	require.True(t, result.OK())
	assert.Equal(t, "quero alugar um carro", result.Text)
	assert.Positive(t, tr.gotBytes)

	// The intermediate artifact is cleaned up.
	_, err := os.Stat(filepath.Join(dir, "voice.wav"))
	assert.True(t, os.IsNotExist(err))
}

func TestProcessEmptyTranscriptionIsFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := writeSourceAudio(t, dir)

	fixture := filepath.Join(dir, "fixture.wav")
	require.NoError(t, os.WriteFile(fixture, testWAVBytes(t, 16000), 0o644))
	stub := writeStubFFmpeg(t, dir, fmt.Sprintf(`cp %q "$out"`, fixture))

	p := NewPipeline(&stubTranscriber{text: "   "}, stub, testLogger())
	result := p.Process(context.Background(), source)

	require.False(t, result.OK())
	assert.Equal(t, FailureEmptyText, result.Failure.Kind)
}

func TestProcessTranscriberError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := writeSourceAudio(t, dir)

	fixture := filepath.Join(dir, "fixture.wav")
	require.NoError(t, os.WriteFile(fixture, testWAVBytes(t, 16000), 0o644))
	stub := writeStubFFmpeg(t, dir, fmt.Sprintf(`cp %q "$out"`, fixture))

	p := NewPipeline(&stubTranscriber{err: errors.New("api down")}, stub, testLogger())
	result := p.Process(context.Background(), source)

	require.False(t, result.OK())
	assert.Equal(t, FailureTranscribe, result.Failure.Kind)
}
