// Package whisper drives single-pass speech-to-text inference over a
// whisper.cpp context. A Session owns exactly one native context, accepts one
// transcription run at a time, and republishes the engine's incremental
// segment output to a Delegate on a dedicated delivery goroutine, decoupled
// from the native execution thread.
//
// The native backend is compiled in with the "whispercpp" build tag; without
// it the constructors return ErrEngineUnavailable and StubContext can stand in
// for the engine.
package whisper
