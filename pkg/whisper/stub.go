package whisper

import "fmt"

// StubContext is an Engine that synthesizes deterministic segments without
// loading a model: one segment per second of input audio. It drives the same
// token callback path as the native backend, so the whole session bridge is
// exercised in builds without whisper.cpp.
type StubContext struct {
	segments []stubSegment
	produced int
}

// stubSegment keeps native units: timestamps in 10 ms ticks.
type stubSegment struct {
	start, end int64
	text       string
}

// NewStubContext returns a stub engine ready for use by a Session.
func NewStubContext() *StubContext {
	return &StubContext{}
}

// RunFull implements the Engine interface.
func (c *StubContext) RunFull(params Params, samples []float32) error {
	if len(samples) == 0 {
		return ErrInvalidFrames
	}

	durTicks := int64(len(samples)) * 100 / SampleRate
	seconds := len(samples) / SampleRate
	if seconds == 0 {
		seconds = 1
	}

	c.segments = c.segments[:0]
	c.produced = 0
	for i := 0; i < seconds; i++ {
		start := int64(i) * 100
		end := int64(i+1) * 100
		if i == seconds-1 {
			end = durTicks
		}
		c.segments = append(c.segments, stubSegment{
			start: start,
			end:   end,
			text:  fmt.Sprintf("[stub] second %d", i+1),
		})
		c.produced = i + 1

		if s, ok := sessionFromHandle(params.token); ok {
			s.collectNewSegments(1)
		}
	}
	return nil
}

// SegmentCount implements the Engine interface.
func (c *StubContext) SegmentCount() int { return c.produced }

// SegmentText implements the Engine interface.
func (c *StubContext) SegmentText(i int) string { return c.segments[i].text }

// SegmentStart implements the Engine interface (10 ms ticks).
func (c *StubContext) SegmentStart(i int) int64 { return c.segments[i].start }

// SegmentEnd implements the Engine interface (10 ms ticks).
func (c *StubContext) SegmentEnd(i int) int64 { return c.segments[i].end }

// Free implements the Engine interface.
func (c *StubContext) Free() {}
