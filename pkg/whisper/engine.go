package whisper

import "errors"

var (
	// ErrEngineInitFailed indicates the native context could not be
	// constructed. Fatal for that handle; there is no retry path.
	ErrEngineInitFailed = errors.New("whisper: engine initialisation failed")
	// ErrEngineUnavailable indicates the native backend is not compiled in.
	ErrEngineUnavailable = errors.New("whisper: native engine unavailable")
	// ErrInstanceBusy is returned when a run is requested while one is
	// already in progress on the same session.
	ErrInstanceBusy = errors.New("whisper: transcription already in progress")
	// ErrInvalidFrames is returned for empty audio input.
	ErrInvalidFrames = errors.New("whisper: audio frames must not be empty")
)

// Engine is the capability surface of one inference context. A Session owns
// exactly one Engine and is its only caller; implementations do not need to
// be safe for concurrent use.
type Engine interface {
	// RunFull performs a blocking transcription pass over samples and invokes
	// the new-segment callback bound through params zero or more times,
	// synchronously and sequentially, on its own execution thread.
	RunFull(params Params, samples []float32) error
	// SegmentCount reports the number of segments produced so far. Valid
	// during new-segment callbacks and after RunFull returns.
	SegmentCount() int
	// SegmentText returns the text of segment i.
	SegmentText(i int) string
	// SegmentStart returns the start timestamp of segment i in 10 ms ticks.
	SegmentStart(i int) int64
	// SegmentEnd returns the end timestamp of segment i in 10 ms ticks.
	SegmentEnd(i int) int64
	// Free releases the underlying context. Must be called exactly once, and
	// never while RunFull is executing.
	Free()
}
