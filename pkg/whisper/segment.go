package whisper

// SampleRate is the fixed input sample rate of the whisper.cpp engine.
// Callers must supply mono float32 samples at this rate, range [-1.0, 1.0].
const SampleRate = 16000

// tickMillis converts a native timestamp (10 ms ticks) to whole milliseconds.
func tickMillis(ticks int64) int64 { return ticks * 10 }

// Segment is one recognized span of speech. Segments are produced only by
// translating engine output; zero-length spans (StartMS == EndMS) are valid.
type Segment struct {
	StartMS int64
	EndMS   int64
	Text    string
}
