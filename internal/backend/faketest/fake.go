// Package faketest provides a deterministic, in-memory implementation of
// backend.Session so the videoframe core's decode/seek/introspection logic
// can be tested without a real container file or a GStreamer install.
package faketest

import (
	"fmt"

	"github.com/e7canasta/videoframe/internal/backend"
)

// Frame is a scripted native frame: one entry in a Session's fixed
// timeline.
type Frame struct {
	// PTS is the native timestamp this frame decodes at.
	PTS int64
}

// Session is a scripted backend.Session over a fixed, known timeline of
// frames, letting tests assert exact invariant/property behavior (spec.md
// §8) without any real decode work.
type Session struct {
	TB           backend.Rational
	FR           backend.Rational
	Frames       []Frame // presentation order, by native PTS ascending
	Start        int64
	HasStart     bool
	DurationVal  int64
	HasDuration  bool
	NbFramesVal  int64
	HasNbFrames  bool
	Delay        int
	FrameSeekOK  bool
	FailSeekTime bool
	FailSeekFrm  bool

	// AgainAt lists Frames positions at which PullFrame reports PullAgain
	// once, without consuming a frame, before resuming normal delivery —
	// simulating a decoder mid-reorder-flush that stalls momentarily.
	AgainAt []int

	// SeekFrameLandsOn, when non-nil, makes SeekFrame report success but
	// land on this index instead of the requested one, simulating a
	// backend that snaps a frame-indexed seek to the nearest keyframe.
	SeekFrameLandsOn *int64

	pos        int // index into Frames of the next frame PullFrame will return
	closed     bool
	againFired map[int]bool

	// FlushCalls, SeekTimeCalls, and SeekFrameCalls count invocations of the
	// matching method, letting tests assert which backend primitives a
	// seek strategy actually exercised (e.g. that S1/S2 avoided S3 entirely).
	FlushCalls     int
	SeekTimeCalls  int
	SeekFrameCalls int
}

func (s *Session) TimeBase() backend.Rational  { return s.TB }
func (s *Session) FrameRate() backend.Rational { return s.FR }
func (s *Session) StartTime() (int64, bool)    { return s.Start, s.HasStart }
func (s *Session) Duration() (int64, bool)     { return s.DurationVal, s.HasDuration }
func (s *Session) NbFrames() (int64, bool)     { return s.NbFramesVal, s.HasNbFrames }
func (s *Session) CodecDelay() int {
	if s.Delay <= 0 {
		return 1
	}
	return s.Delay
}
func (s *Session) FrameSeekSupported() bool { return s.FrameSeekOK }

func (s *Session) PullFrame() (backend.NativeFrame, backend.PullStatus, error) {
	if s.closed {
		return nil, backend.PullEOF, fmt.Errorf("faketest: session closed")
	}
	if s.shouldReportAgain() {
		return nil, backend.PullAgain, nil
	}
	if s.pos >= len(s.Frames) {
		return nil, backend.PullEOF, nil
	}
	f := s.Frames[s.pos]
	s.pos++
	return &nativeFrame{pts: f.PTS}, backend.PullFrameReady, nil
}

// shouldReportAgain fires at most once per AgainAt position, so a scripted
// stall doesn't loop forever once the caller retries past it.
func (s *Session) shouldReportAgain() bool {
	for _, at := range s.AgainAt {
		if at == s.pos && !s.againFired[at] {
			if s.againFired == nil {
				s.againFired = make(map[int]bool)
			}
			s.againFired[at] = true
			return true
		}
	}
	return false
}

func (s *Session) Flush() error {
	s.FlushCalls++
	return nil
}

func (s *Session) SeekTime(native int64) error {
	s.SeekTimeCalls++
	if s.FailSeekTime {
		return fmt.Errorf("faketest: seek_time forced failure")
	}
	s.pos = s.indexAtOrAfter(native)
	return nil
}

func (s *Session) SeekFrame(index int64) error {
	s.SeekFrameCalls++
	if !s.FrameSeekOK {
		return fmt.Errorf("faketest: seek_frame: %w", backend.ErrFrameSeekUnsupported)
	}
	if s.FailSeekFrm {
		return fmt.Errorf("faketest: seek_frame forced failure")
	}
	if s.SeekFrameLandsOn != nil {
		index = *s.SeekFrameLandsOn
	}
	if index < 0 || int(index) >= len(s.Frames) {
		s.pos = len(s.Frames)
		return nil
	}
	s.pos = int(index)
	return nil
}

func (s *Session) Close() error {
	s.closed = true
	return nil
}

// indexAtOrAfter returns the index of the first scripted frame whose PTS is
// >= native. When native overshoots every scripted frame it clamps to the
// last frame instead of landing past end-of-stream, emulating a real
// demuxer's AVSEEK_FLAG_BACKWARD/keyframe-snap behavior: seeking past the
// last keyframe lands on that keyframe, not on EOF. This is what lets the
// total-frames probe (introspect.go's framesFromProbe, which deliberately
// seeks far past any plausible frame count) actually discover the true
// count by decoding forward from the landing point to EOF.
func (s *Session) indexAtOrAfter(native int64) int {
	for i, f := range s.Frames {
		if f.PTS >= native {
			return i
		}
	}
	if len(s.Frames) == 0 {
		return 0
	}
	return len(s.Frames) - 1
}

type nativeFrame struct {
	pts   int64
	freed bool
}

func (f *nativeFrame) Timestamp() int64                    { return f.pts }
func (f *nativeFrame) Width() int                          { return 64 }
func (f *nativeFrame) Height() int                          { return 48 }
func (f *nativeFrame) PixelFormat() backend.PixelFormat     { return backend.PixelFormatRGBA }
func (f *nativeFrame) DecodeKind() backend.DecodeKind       { return backend.DecodeSoftware }
func (f *nativeFrame) Plane(i int) []byte                   { return make([]byte, 64*48*4) }
func (f *nativeFrame) Stride(i int) int                     { return 64 * 4 }
func (f *nativeFrame) Release()                             { f.freed = true }
