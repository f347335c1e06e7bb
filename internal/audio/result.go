package audio

import "fmt"

// FailureKind identifies the pipeline stage a transcription failed at.
type FailureKind string

const (
	FailureSourceMissing    FailureKind = "source_missing"
	FailureTranscode        FailureKind = "transcode_failed"
	FailureArtifactTooSmall FailureKind = "artifact_too_small"
	FailureDecode           FailureKind = "decode_failed"
	FailureTranscribe       FailureKind = "transcribe_failed"
	FailureEmptyText        FailureKind = "empty_text"
)

// Failure is a structured transcription failure. The kind is exhaustive over
// the pipeline stages, so callers branch on structure rather than string
// prefixes.
type Failure struct {
	Kind   FailureKind
	Detail string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("transcription failed (%s): %s", f.Kind, f.Detail)
}

// Result is the outcome of one transcription. Exactly one of Text and
// Failure is meaningful: empty recognized text is reported as a Failure,
// never as an empty success.
type Result struct {
	Text    string
	Failure *Failure
}

// OK reports whether the transcription succeeded with non-empty text.
func (r Result) OK() bool {
	return r.Failure == nil
}

func ok(text string) Result {
	return Result{Text: text}
}

func failf(kind FailureKind, format string, args ...any) Result {
	return Result{Failure: &Failure{Kind: kind, Detail: fmt.Sprintf(format, args...)}}
}
