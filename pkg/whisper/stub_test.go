package whisper

import (
	"strings"
	"testing"
)

func TestStubContextProducesOneSegmentPerSecond(t *testing.T) {
	s := NewSession(NewStubContext(), DefaultParams(), nil, testLogger())
	defer s.Close()

	// 2.5 seconds of silence.
	frames := make([]float32, SampleRate*5/2)
	segments, err := transcribeAndWait(t, s, frames)
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].StartMS != 0 || segments[0].EndMS != 1000 {
		t.Fatalf("unexpected first span %d..%d", segments[0].StartMS, segments[0].EndMS)
	}
	// The trailing segment absorbs the partial second.
	if segments[1].EndMS != 2500 {
		t.Fatalf("expected final span to end at 2500 ms, got %d", segments[1].EndMS)
	}
	for i, seg := range segments {
		if !strings.HasPrefix(seg.Text, "[stub]") {
			t.Fatalf("segment %d text %q missing stub marker", i, seg.Text)
		}
	}
}

func TestStubContextStreamsThroughDelegate(t *testing.T) {
	recorder := &eventRecorder{}
	s := NewSession(NewStubContext(), DefaultParams(), recorder, testLogger())
	defer s.Close()

	if _, err := transcribeAndWait(t, s, make([]float32, SampleRate*3)); err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.batches) != 3 {
		t.Fatalf("expected 3 incremental batches, got %d", len(recorder.batches))
	}
	for i, start := range recorder.starts {
		if start != i {
			t.Fatalf("batch %d reported start index %d", i, start)
		}
	}
	if len(recorder.final) != 3 {
		t.Fatalf("expected terminal transcript of 3 segments, got %d", len(recorder.final))
	}
}

func TestStubContextRejectsEmptyInput(t *testing.T) {
	c := NewStubContext()
	if err := c.RunFull(DefaultParams(), nil); err != ErrInvalidFrames {
		t.Fatalf("expected ErrInvalidFrames, got %v", err)
	}
}
