package telemetry

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Recorder tracks service-level telemetry across transcription runs.
type Recorder struct {
	log *slog.Logger

	totalRuns     atomic.Uint64
	activeRuns    atomic.Int64
	totalFrames   atomic.Uint64
	totalBatches  atomic.Uint64
	totalSegments atomic.Uint64
	totalFailures atomic.Uint64
	totalRejected atomic.Uint64
}

// Snapshot captures cumulative metrics recorded so far.
type Snapshot struct {
	TotalRuns     uint64
	ActiveRuns    int64
	TotalFrames   uint64
	TotalBatches  uint64
	TotalSegments uint64
	TotalFailures uint64
	TotalRejected uint64
}

// NewRecorder constructs a Recorder using the provided logger.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		log: logger.With("component", "telemetry.Recorder"),
	}
}

// Snapshot returns an immutable view of the recorder totals.
func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	return Snapshot{
		TotalRuns:     r.totalRuns.Load(),
		ActiveRuns:    r.activeRuns.Load(),
		TotalFrames:   r.totalFrames.Load(),
		TotalBatches:  r.totalBatches.Load(),
		TotalSegments: r.totalSegments.Load(),
		TotalFailures: r.totalFailures.Load(),
		TotalRejected: r.totalRejected.Load(),
	}
}

// RecordRejection counts a run request that was refused before reaching the
// engine (busy session, empty frames).
func (r *Recorder) RecordRejection(reason string) {
	if r == nil {
		return
	}
	r.totalRejected.Add(1)
	r.log.Debug("run rejected", "reason", reason)
}

// RunMetrics accumulates statistics for a single transcription run.
type RunMetrics struct {
	recorder *Recorder
	log      *slog.Logger

	started      time.Time
	frames       int
	batches      int
	segments     int
	lastProgress float64
	closed       atomic.Bool
}

// StartRun initialises a RunMetrics instance bound to the recorder.
func (r *Recorder) StartRun(connID string, frames int, metadata map[string]string) *RunMetrics {
	if r == nil {
		return nil
	}

	runLogger := r.log.With("conn_id", connID)
	if len(metadata) > 0 {
		runLogger = runLogger.With("metadata", cloneMetadata(metadata))
	}

	r.totalRuns.Add(1)
	r.activeRuns.Add(1)
	r.totalFrames.Add(uint64(frames))

	return &RunMetrics{
		recorder: r,
		log:      runLogger,
		started:  time.Now(),
		frames:   frames,
	}
}

// RecordBatch updates counters for one incremental segment batch.
func (m *RunMetrics) RecordBatch(segments, startIndex int) {
	if m == nil || segments <= 0 {
		return
	}
	m.batches++
	m.segments += segments
	m.recorder.totalBatches.Add(1)
	m.recorder.totalSegments.Add(uint64(segments))

	m.log.Debug("segments emitted",
		"segments", segments,
		"start_index", startIndex,
	)
}

// RecordProgress stores the latest progress estimate for the summary line.
func (m *RunMetrics) RecordProgress(progress float64) {
	if m == nil {
		return
	}
	m.lastProgress = progress
}

// Finish logs a summary and updates active run counters.
func (m *RunMetrics) Finish(err error) {
	if m == nil {
		return
	}
	if !m.closed.CompareAndSwap(false, true) {
		return
	}

	defer m.recorder.activeRuns.Add(-1)

	duration := time.Since(m.started)
	args := []any{
		"duration_ms", duration.Milliseconds(),
		"frames", m.frames,
		"batches", m.batches,
		"segments", m.segments,
		"last_progress", m.lastProgress,
	}

	if err != nil {
		m.recorder.totalFailures.Add(1)
		m.log.Error("run completed with error", append(args, "error", err)...)
		return
	}

	m.log.Info("run completed", args...)
}

func cloneMetadata(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
