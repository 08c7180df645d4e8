// Package whisper transcribes audio chunks with a whisper.cpp command-line
// engine and manages the ggml model files it needs.
package whisper

import "context"

type Request struct {
	AudioPath string
	ModelPath string
	Language  string
}

// Engine turns one audio file into one finalized transcript.
type Engine interface {
	Transcribe(ctx context.Context, req Request) (string, error)
}
