package server

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/JonathanStorey/gowhisper/pkg/whisper"
)

// clientMessage is a JSON control message from the client. Audio is sent
// separately as binary frames of little-endian float32 samples at 16 kHz.
type clientMessage struct {
	// Type is "start" or "run".
	Type string `json:"type"`
	// Language overrides the configured language hint for this connection.
	Language string `json:"language,omitempty"`
	// Translate requests translation into English.
	Translate *bool `json:"translate,omitempty"`
}

// serverEvent is a JSON event pushed to the client. Event order mirrors the
// session's delivery order: per batch a progress event precedes the segments
// event; completion (or error) is terminal for one run.
type serverEvent struct {
	// Type is "ready", "progress", "segments", "completion" or "error".
	Type string `json:"type"`
	// Progress accompanies progress events; estimates may exceed 1.0.
	Progress float64 `json:"progress,omitempty"`
	// StartIndex is the transcript index of the first segment in a segments
	// event; omitted when zero.
	StartIndex int           `json:"start_index,omitempty"`
	Segments   []wireSegment `json:"segments,omitempty"`
	Error      string        `json:"error,omitempty"`
	// Metadata accompanies ready events.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// wireSegment is the JSON shape of one transcript segment.
type wireSegment struct {
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
	Text    string `json:"text"`
}

func wireSegments(segments []whisper.Segment) []wireSegment {
	out := make([]wireSegment, len(segments))
	for i, seg := range segments {
		out[i] = wireSegment{StartMS: seg.StartMS, EndMS: seg.EndMS, Text: seg.Text}
	}
	return out
}

// decodeFrames unpacks a binary audio payload into float32 samples.
func decodeFrames(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, errors.New("server: audio payload must be non-empty little-endian float32")
	}
	frames := make([]float32, len(data)/4)
	for i := range frames {
		frames[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return frames, nil
}
