package videoframe

import (
	"testing"

	"github.com/e7canasta/videoframe/internal/backend"
	"github.com/e7canasta/videoframe/internal/backend/faketest"
)

// fakeStreamOpts bundles the knobs newFakeStream needs beyond DecoderOptions:
// the scripted timeline's frame count and start-timestamp behavior.
type fakeStreamOpts struct {
	frames             int64
	bufferLength       int
	startNative        int64
	hasStart           bool
	frameSeekSupported bool
	failSeekFrame      bool
	// failSeekTime forces every backend SeekTime call to fail, so the
	// start-timestamp and total-frames probes (which both seek) degrade to
	// their zero-value fallbacks instead of succeeding.
	failSeekTime bool
	// skipDurationSignals hides the Duration and NbFrames signals, forcing
	// computeTotalFrames down to the probe fallback and computeTotalDuration
	// down to its later fallbacks, for tests that specifically exercise them.
	skipDurationSignals bool
	// againAt schedules a one-shot PullAgain from the backend at the given
	// Frames position, for tests exercising the pump's PullAgain handling.
	againAt []int
	// seekFrameLandsOn, when non-nil, makes the fake backend's SeekFrame
	// succeed but land on this index instead of the requested one,
	// simulating a backend that snaps to an approximate/keyframe position.
	seekFrameLandsOn *int64
}

// newFakeStream builds a Stream over a faketest.Session with a native tick
// per frame (TimeBase 1/30, FrameRate 30/1), so frame index and native tick
// coincide before any startTimestamp offset is applied — this is what makes
// spec.md's worked examples (5s seek -> frame 150 at 30fps) land on exact
// integers instead of rounding.
func newFakeStream(t *testing.T, o fakeStreamOpts) *Stream {
	t.Helper()

	if o.bufferLength <= 0 {
		o.bufferLength = 10
	}

	frames := make([]faketest.Frame, 0, o.frames)
	for i := int64(0); i < o.frames; i++ {
		frames = append(frames, faketest.Frame{PTS: o.startNative + i})
	}

	session := &faketest.Session{
		TB:               backend.Rational{Num: 1, Den: 30},
		FR:               backend.Rational{Num: 30, Den: 1},
		Frames:           frames,
		Start:            o.startNative,
		HasStart:         o.hasStart,
		DurationVal:      o.frames,
		HasDuration:      !o.skipDurationSignals,
		NbFramesVal:      o.frames,
		HasNbFrames:      !o.skipDurationSignals,
		FrameSeekOK:      o.frameSeekSupported,
		FailSeekFrm:      o.failSeekFrame,
		FailSeekTime:     o.failSeekTime,
		AgainAt:          o.againAt,
		SeekFrameLandsOn: o.seekFrameLandsOn,
	}

	stream, err := openStream("fake://test", session, DecoderOptions{BufferLength: o.bufferLength})
	if err != nil {
		t.Fatalf("openStream: %v", err)
	}
	return stream
}
