package videoframe

import (
	"testing"

	"github.com/e7canasta/videoframe/internal/backend/faketest"
)

// TestSeek_E1_FreshOpen is spec.md scenario E1: right after open, the cursor
// sits at frame 0.
func TestSeek_E1_FreshOpen(t *testing.T) {
	s := newFakeStream(t, fakeStreamOpts{frames: 300})

	f, err := s.PeekNextFrame()
	if err != nil {
		t.Fatalf("PeekNextFrame(): %v", err)
	}
	if f.Index() != 0 {
		t.Fatalf("Index() = %d, want 0", f.Index())
	}
}

// TestSeek_E2_TimeSeek is spec.md scenario E2: seeking to 5 seconds on a
// 30fps stream lands on frame 150.
func TestSeek_E2_TimeSeek(t *testing.T) {
	s := newFakeStream(t, fakeStreamOpts{frames: 300})

	if err := s.Seek(5_000_000); err != nil {
		t.Fatalf("Seek(5s): %v", err)
	}
	f, err := s.PeekNextFrame()
	if err != nil {
		t.Fatalf("PeekNextFrame(): %v", err)
	}
	if f.Index() != 150 {
		t.Fatalf("Index() = %d, want 150", f.Index())
	}
}

// TestSeek_E3_FrameSeekThenSequentialRead is spec.md scenario E3.
func TestSeek_E3_FrameSeekThenSequentialRead(t *testing.T) {
	s := newFakeStream(t, fakeStreamOpts{frames: 300, frameSeekSupported: true})

	if err := s.SeekFrame(150); err != nil {
		t.Fatalf("SeekFrame(150): %v", err)
	}
	f, err := s.GetNextFrame()
	if err != nil {
		t.Fatalf("GetNextFrame(): %v", err)
	}
	if f.Index() != 150 {
		t.Fatalf("Index() = %d, want 150", f.Index())
	}

	f2, err := s.GetNextFrame()
	if err != nil {
		t.Fatalf("GetNextFrame() again: %v", err)
	}
	if f2.Index() != 151 {
		t.Fatalf("Index() = %d, want 151", f2.Index())
	}
}

// TestSeek_E5_BackwardSeekAfterForwardRead is spec.md scenario E5: read
// forward, then seek back to an earlier position.
func TestSeek_E5_BackwardSeekAfterForwardRead(t *testing.T) {
	s := newFakeStream(t, fakeStreamOpts{frames: 300, bufferLength: 8})

	for i := 0; i < 200; i++ {
		if _, err := s.GetNextFrame(); err != nil {
			t.Fatalf("GetNextFrame() at %d: %v", i, err)
		}
	}

	if err := s.Seek(1_000_000); err != nil {
		t.Fatalf("Seek(1s): %v", err)
	}
	f, err := s.PeekNextFrame()
	if err != nil {
		t.Fatalf("PeekNextFrame(): %v", err)
	}
	if f.Index() != 30 {
		t.Fatalf("Index() = %d, want 30", f.Index())
	}
}

// TestSeek_E6_UnreachableThenRecovers is spec.md scenario E6: seeking far
// past the end fails, but the Stream remains operable afterward.
func TestSeek_E6_UnreachableThenRecovers(t *testing.T) {
	s := newFakeStream(t, fakeStreamOpts{frames: 300, frameSeekSupported: true})

	if err := s.SeekFrame(1_000_000_000_000); err == nil {
		t.Fatal("SeekFrame(huge) succeeded, want failure")
	}

	if err := s.SeekFrame(0); err != nil {
		t.Fatalf("SeekFrame(0) after failed seek: %v", err)
	}
	f, err := s.GetNextFrame()
	if err != nil {
		t.Fatalf("GetNextFrame() after recovery: %v", err)
	}
	if f.Index() != 0 {
		t.Fatalf("Index() = %d, want 0", f.Index())
	}
}

// TestSeek_InBufferAdvance exercises S1 directly: the target already sits
// inside the active buffer, so no pump or backend seek is needed.
func TestSeek_InBufferAdvance(t *testing.T) {
	s := newFakeStream(t, fakeStreamOpts{frames: 300, bufferLength: 20})

	if err := s.Seek(200_000); err != nil { // frame 6, well inside the first fill
		t.Fatalf("Seek: %v", err)
	}
	f, err := s.PeekNextFrame()
	if err != nil {
		t.Fatalf("PeekNextFrame(): %v", err)
	}
	if f.Index() != 6 {
		t.Fatalf("Index() = %d, want 6", f.Index())
	}
}

// TestSeek_Idempotent is invariant 5 (spec.md §8): seek(t); seek(t) leaves
// the cursor at the same frame as a single seek(t).
func TestSeek_Idempotent(t *testing.T) {
	s := newFakeStream(t, fakeStreamOpts{frames: 300})

	if err := s.Seek(2_500_000); err != nil {
		t.Fatalf("first Seek: %v", err)
	}
	first, err := s.PeekNextFrame()
	if err != nil {
		t.Fatalf("PeekNextFrame(): %v", err)
	}

	if err := s.Seek(2_500_000); err != nil {
		t.Fatalf("second Seek: %v", err)
	}
	second, err := s.PeekNextFrame()
	if err != nil {
		t.Fatalf("PeekNextFrame() again: %v", err)
	}

	if first.Index() != second.Index() {
		t.Fatalf("seek not idempotent: %d != %d", first.Index(), second.Index())
	}
}

// TestSeek_FrameSeekFallback_StickyLatch covers the sticky
// frameSeekSupported latch: once a frame-indexed seek fails, subsequent
// SeekFrame calls translate to time mode without retrying the backend's
// unsupported primitive.
func TestSeek_FrameSeekFallback_StickyLatch(t *testing.T) {
	s := newFakeStream(t, fakeStreamOpts{frames: 300, frameSeekSupported: true, failSeekFrame: true})

	if err := s.SeekFrame(150); err != nil {
		t.Fatalf("SeekFrame(150): %v", err)
	}
	if s.frameSeekSupported {
		t.Fatal("frameSeekSupported latch should have tripped false after the backend rejected a frame-indexed seek")
	}
	f, err := s.PeekNextFrame()
	if err != nil {
		t.Fatalf("PeekNextFrame(): %v", err)
	}
	if f.Index() != 150 {
		t.Fatalf("Index() = %d, want 150 (time-mode fallback)", f.Index())
	}

	// Second call must not attempt the backend's frame-seek path again.
	sess := s.session.(*faketest.Session)
	frameSeeksBefore := sess.SeekFrameCalls
	if err := s.SeekFrame(200); err != nil {
		t.Fatalf("SeekFrame(200) after latch trip: %v", err)
	}
	if sess.SeekFrameCalls != frameSeeksBefore {
		t.Fatalf("SeekFrame(200) after latch trip called the backend's SeekFrame %d more time(s), want 0",
			sess.SeekFrameCalls-frameSeeksBefore)
	}
}

// TestSeek_FrameSeekFallback_OnApproximateLanding covers spec.md §4.6's
// broader latch-clearing condition: the backend's frame-indexed seek can
// report success while still landing somewhere other than the requested
// frame (e.g. snapping to the nearest keyframe), and that must be treated
// the same as an outright SeekFrame error — clear the sticky latch, log
// once, and retry the same target translated to time mode.
func TestSeek_FrameSeekFallback_OnApproximateLanding(t *testing.T) {
	wrongLanding := int64(5)
	s := newFakeStream(t, fakeStreamOpts{
		frames:             300,
		bufferLength:       5,
		frameSeekSupported: true,
		seekFrameLandsOn:   &wrongLanding,
	})

	if err := s.SeekFrame(150); err != nil {
		t.Fatalf("SeekFrame(150): %v", err)
	}

	if s.frameSeekSupported {
		t.Fatal("frameSeekSupported latch should have tripped false after an approximate landing")
	}

	f, err := s.PeekNextFrame()
	if err != nil {
		t.Fatalf("PeekNextFrame(): %v", err)
	}
	if f.Index() != 150 {
		t.Fatalf("Index() = %d, want 150 (recovered via time-mode retry)", f.Index())
	}
}

// TestSeek_FrameSeekFallback_RetriesS1BeforeFlushing covers
// FFFRStream.cpp:449-459's fallback structure directly: with the
// frameSeekSupported latch already false, S3-by-frame must never run — the
// fallback instead re-enters the S1/S2/S3 cascade in time mode, giving it a
// chance to land via a plain buffer-relative check before ever touching the
// backend. flushAndSeek is exercised directly (bypassing the outer
// seekInternal's own S1/S2, which would otherwise short-circuit before ever
// reaching this fallback) so the fallback's own behavior is isolated: asked
// to land on a frame the active buffer already holds, it must resolve with
// zero Flush/SeekTime/SeekFrame calls, where the pre-fix code unconditionally
// flushed and re-sought the backend regardless of what was already buffered.
func TestSeek_FrameSeekFallback_RetriesS1BeforeFlushing(t *testing.T) {
	s := newFakeStream(t, fakeStreamOpts{frames: 300, bufferLength: 5, frameSeekSupported: false})

	sess, ok := s.session.(*faketest.Session)
	if !ok {
		t.Fatalf("session is %T, want *faketest.Session", s.session)
	}

	tail := s.active.last()
	if tail == nil {
		t.Fatal("active buffer unexpectedly empty after open")
	}

	// Construction itself exercises SeekTime via the start-timestamp probe;
	// reset the counters so the assertion below reflects only flushAndSeek.
	sess.FlushCalls, sess.SeekTimeCalls, sess.SeekFrameCalls = 0, 0, 0

	if err := s.flushAndSeek(seekByFrame, tail.Index()); err != nil {
		t.Fatalf("flushAndSeek(%d): %v", tail.Index(), err)
	}

	if sess.FlushCalls != 0 || sess.SeekTimeCalls != 0 || sess.SeekFrameCalls != 0 {
		t.Fatalf("flushAndSeek touched the backend (flush=%d, seek_time=%d, seek_frame=%d) for a target already in the active buffer",
			sess.FlushCalls, sess.SeekTimeCalls, sess.SeekFrameCalls)
	}

	f, err := s.PeekNextFrame()
	if err != nil {
		t.Fatalf("PeekNextFrame(): %v", err)
	}
	if f.Index() != tail.Index() {
		t.Fatalf("Index() = %d, want %d", f.Index(), tail.Index())
	}
}
