package whisper

import "runtime/cgo"

// Params configures a transcription pass. Fields map onto whisper_full_params;
// zero values defer to the engine defaults.
type Params struct {
	// Language is an ISO-639-1 hint; "auto" or empty enables detection.
	Language string
	// Translate requests translation of the transcript into English.
	Translate bool
	// Threads sets the decoder thread count (0 = engine default).
	Threads int
	// BeamSize enables beam search when > 1; otherwise greedy sampling.
	BeamSize int
	// NoContext disables reuse of past transcript tokens as decoding context.
	NoContext bool
	// SingleSegment forces the whole pass into one output segment.
	SingleSegment bool
	// InitialPrompt seeds the decoder with vocabulary hints.
	InitialPrompt string
	// MaxTokens caps tokens per segment (0 = no limit).
	MaxTokens int
	// AudioCtx overrides the encoder context size (0 = all audio).
	AudioCtx int
	// Temperature sets the initial decoding temperature (0 = engine default).
	Temperature float32
	// SuppressBlank suppresses blank outputs at the start of a segment.
	SuppressBlank bool

	// token carries the owning session across the native call boundary as
	// opaque user data. The C layer cannot hold a Go closure, so the session
	// is (re)bound here before every run and resolved back on the callback
	// side via sessionFromHandle.
	token cgo.Handle
}

// DefaultParams returns the parameter set used when callers pass the zero
// value, mirroring whisper.cpp's own defaults for interactive transcription.
func DefaultParams() Params {
	return Params{
		Language:      "auto",
		SuppressBlank: true,
	}
}
