package telemetry_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/JonathanStorey/gowhisper/internal/telemetry"
)

func newRecorder() *telemetry.Recorder {
	return telemetry.NewRecorder(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRecorderCountsRuns(t *testing.T) {
	recorder := newRecorder()

	run := recorder.StartRun("conn-1", 16000, map[string]string{"model_variant": "base"})
	run.RecordBatch(1, 0)
	run.RecordBatch(2, 1)
	run.RecordProgress(1.0)
	run.Finish(nil)

	snapshot := recorder.Snapshot()
	if snapshot.TotalRuns != 1 {
		t.Fatalf("TotalRuns = %d, want 1", snapshot.TotalRuns)
	}
	if snapshot.ActiveRuns != 0 {
		t.Fatalf("ActiveRuns = %d, want 0", snapshot.ActiveRuns)
	}
	if snapshot.TotalFrames != 16000 {
		t.Fatalf("TotalFrames = %d, want 16000", snapshot.TotalFrames)
	}
	if snapshot.TotalBatches != 2 {
		t.Fatalf("TotalBatches = %d, want 2", snapshot.TotalBatches)
	}
	if snapshot.TotalSegments != 3 {
		t.Fatalf("TotalSegments = %d, want 3", snapshot.TotalSegments)
	}
	if snapshot.TotalFailures != 0 {
		t.Fatalf("TotalFailures = %d, want 0", snapshot.TotalFailures)
	}
}

func TestRecorderCountsFailuresAndRejections(t *testing.T) {
	recorder := newRecorder()

	run := recorder.StartRun("conn-1", 100, nil)
	run.Finish(errors.New("boom"))
	run.Finish(errors.New("boom again")) // double finish must not double count

	recorder.RecordRejection("busy")
	recorder.RecordRejection("empty_frames")

	snapshot := recorder.Snapshot()
	if snapshot.TotalFailures != 1 {
		t.Fatalf("TotalFailures = %d, want 1", snapshot.TotalFailures)
	}
	if snapshot.ActiveRuns != 0 {
		t.Fatalf("ActiveRuns = %d, want 0", snapshot.ActiveRuns)
	}
	if snapshot.TotalRejected != 2 {
		t.Fatalf("TotalRejected = %d, want 2", snapshot.TotalRejected)
	}
}

func TestNilRecorderIsInert(t *testing.T) {
	var recorder *telemetry.Recorder
	run := recorder.StartRun("conn-1", 1, nil)
	run.RecordBatch(1, 0)
	run.Finish(nil)
	recorder.RecordRejection("busy")
	if snapshot := recorder.Snapshot(); snapshot != (telemetry.Snapshot{}) {
		t.Fatalf("nil recorder snapshot = %+v", snapshot)
	}
}
