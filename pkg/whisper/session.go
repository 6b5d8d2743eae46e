package whisper

import (
	"context"
	"log/slog"
	"runtime/cgo"
	"sync"
)

// Delegate receives streaming events for a session. All methods are invoked
// sequentially on the session's delivery goroutine, never on the engine's
// execution thread. Progress for a batch is always delivered before the
// batch's segments; OnCompletion is delivered exactly once per successful run,
// after every incremental event of that run.
type Delegate interface {
	// OnProgress reports estimated progress through the audio. Values are an
	// estimate derived from segment end times and may exceed 1.0 near the end
	// of a run; they are not clamped.
	OnProgress(s *Session, progress float64)
	// OnNewSegments delivers one contiguous batch of newly finalized
	// segments. startIndex is the index of the first segment of the batch
	// within the run's full transcript.
	OnNewSegments(s *Session, segments []Segment, startIndex int)
	// OnCompletion delivers the full ordered transcript of a finished run.
	OnCompletion(s *Session, segments []Segment)
}

// CompletionHandler receives the terminal result of one transcription run.
// Precondition failures (ErrInstanceBusy, ErrInvalidFrames) are reported
// synchronously on the caller's goroutine; run results arrive on the
// session's delivery goroutine.
type CompletionHandler func(segments []Segment, err error)

type sessionState int

const (
	stateIdle sessionState = iota
	stateRunning
)

// Session binds one Engine to one Params set and enforces single-flight
// execution: at most one run is in progress at any time, and concurrent
// Transcribe calls are rejected outright rather than queued. Independent
// sessions may run concurrently; a Session itself is safe for concurrent
// Transcribe calls but must not be used after Close.
type Session struct {
	mu        sync.Mutex
	state     sessionState
	expected  int // frame count of the current run, progress estimation only
	published int // segments already read off the engine during this run

	engine   Engine
	params   Params
	delegate Delegate
	log      *slog.Logger

	events   chan func()
	drained  chan struct{}
	inflight sync.WaitGroup
	closed   sync.Once
	handle   cgo.Handle
}

// NewSession wraps an existing engine context. The session takes ownership:
// the engine is freed exactly once, by Close. A nil delegate is allowed;
// streaming events are then dropped and only completion handlers fire.
func NewSession(engine Engine, params Params, delegate Delegate, logger *slog.Logger) *Session {
	if engine == nil {
		panic("whisper: engine must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		engine:   engine,
		params:   params,
		delegate: delegate,
		log:      logger.With("component", "whisper.Session"),
		events:   make(chan func(), 64),
		drained:  make(chan struct{}),
	}
	s.handle = cgo.NewHandle(s)
	go s.deliver()
	return s
}

// New creates a session backed by a native context loaded from a model file.
// Requires the whispercpp build tag; otherwise ErrEngineUnavailable.
func New(modelPath string, params Params, delegate Delegate, logger *slog.Logger) (*Session, error) {
	engine, err := NewContext(modelPath)
	if err != nil {
		return nil, err
	}
	return NewSession(engine, params, delegate, logger), nil
}

// NewFromBuffer creates a session backed by a native context initialised from
// an in-memory model. The bytes are copied before crossing the call boundary;
// the caller's buffer is never retained.
func NewFromBuffer(model []byte, params Params, delegate Delegate, logger *slog.Logger) (*Session, error) {
	engine, err := NewContextFromBuffer(model)
	if err != nil {
		return nil, err
	}
	return NewSession(engine, params, delegate, logger), nil
}

// Transcribe starts one transcription run over frames and returns immediately.
// The engine call executes on a background goroutine; complete fires with the
// full ordered transcript once it returns. A session already running rejects
// the call with ErrInstanceBusy without touching the engine; empty frames are
// rejected with ErrInvalidFrames. Both rejections invoke complete
// synchronously before Transcribe returns.
func (s *Session) Transcribe(frames []float32, complete CompletionHandler) {
	s.mu.Lock()
	if s.state == stateRunning {
		s.mu.Unlock()
		if complete != nil {
			complete(nil, ErrInstanceBusy)
		}
		return
	}
	if len(frames) == 0 {
		s.mu.Unlock()
		if complete != nil {
			complete(nil, ErrInvalidFrames)
		}
		return
	}

	s.state = stateRunning
	s.expected = len(frames)
	s.published = 0
	s.params.token = s.handle
	params := s.params
	s.mu.Unlock()

	s.inflight.Add(1)
	go s.run(params, frames, complete)
}

// TranscribeWithContext is the awaitable form of Transcribe: it starts one
// run and blocks until the terminal result or until ctx is done. Cancelling
// ctx abandons the wait only — the underlying run always proceeds to
// completion, and the session must stay alive until it does (Close waits).
func (s *Session) TranscribeWithContext(ctx context.Context, frames []float32) ([]Segment, error) {
	type result struct {
		segments []Segment
		err      error
	}
	ch := make(chan result, 1)
	s.Transcribe(frames, func(segments []Segment, err error) {
		ch <- result{segments: segments, err: err}
	})

	select {
	case r := <-ch:
		return r.segments, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close waits for any in-flight run, stops event delivery, and frees the
// engine context. Safe to call more than once; the engine is released exactly
// once. The session must not be used afterwards.
func (s *Session) Close() error {
	s.inflight.Wait()
	s.closed.Do(func() {
		close(s.events)
		<-s.drained
		s.engine.Free()
		s.handle.Delete()
	})
	return nil
}

// run executes the blocking engine call off the caller's goroutine.
func (s *Session) run(params Params, frames []float32, complete CompletionHandler) {
	defer s.inflight.Done()

	err := s.engine.RunFull(params, frames)

	// The terminal transcript is re-read from final engine state rather than
	// assembled from streamed batches; the two must agree in content and
	// order.
	var segments []Segment
	if err == nil {
		segments = s.allSegments()
	} else {
		s.log.Error("engine run failed", "error", err, "frames", len(frames))
	}

	s.mu.Lock()
	s.state = stateIdle
	s.expected = 0
	s.published = 0
	s.mu.Unlock()

	s.publish(func() {
		if err == nil && s.delegate != nil {
			s.delegate.OnCompletion(s, segments)
		}
		if complete != nil {
			complete(segments, err)
		}
	})
}

// collectNewSegments is the callback bridge. The engine invokes it on its own
// execution thread each time a contiguous batch of segments has been
// finalized; nNew is informational, the batch boundary is
// [published, SegmentCount).
func (s *Session) collectNewSegments(nNew int) {
	total := s.engine.SegmentCount()

	s.mu.Lock()
	start := s.published
	expected := s.expected
	if total > start {
		s.published = total
	}
	s.mu.Unlock()

	if total <= start {
		// Structurally the engine only calls back with new output, but an
		// empty delta is a no-op, not an error.
		return
	}

	batch := make([]Segment, 0, total-start)
	for i := start; i < total; i++ {
		batch = append(batch, s.segmentAt(i))
	}
	s.log.Debug("new segments", "count", len(batch), "reported", nNew, "start_index", start)

	if expected > 0 {
		durMillis := float64(expected) * 1000 / SampleRate
		progress := float64(batch[len(batch)-1].EndMS) / durMillis
		s.publish(func() {
			if s.delegate != nil {
				s.delegate.OnProgress(s, progress)
			}
		})
	}
	s.publish(func() {
		if s.delegate != nil {
			s.delegate.OnNewSegments(s, batch, start)
		}
	})
}

func (s *Session) segmentAt(i int) Segment {
	return Segment{
		StartMS: tickMillis(s.engine.SegmentStart(i)),
		EndMS:   tickMillis(s.engine.SegmentEnd(i)),
		Text:    s.engine.SegmentText(i),
	}
}

func (s *Session) allSegments() []Segment {
	count := s.engine.SegmentCount()
	segments := make([]Segment, 0, count)
	for i := 0; i < count; i++ {
		segments = append(segments, s.segmentAt(i))
	}
	return segments
}

func (s *Session) publish(fn func()) {
	s.events <- fn
}

// deliver is the session's delivery goroutine: a serial queue that keeps
// caller-facing events off the engine thread and in submission order.
func (s *Session) deliver() {
	defer close(s.drained)
	for fn := range s.events {
		fn()
	}
}
