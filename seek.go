package videoframe

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/e7canasta/videoframe/internal/backend"
)

// seekMode selects which coordinate a seek target is expressed in, and
// therefore which key frames are compared by (time or frameIndex) and what
// the short-forward-decode window looks like.
type seekMode int

const (
	seekByTime seekMode = iota
	seekByFrame
)

// shortForwardFrameWindowMultiplier sets S2's frame-mode window: 2*bufferCapacity
// frames ahead of the buffer's tail still counts as "short forward",
// per spec.md §4.6.
const shortForwardFrameWindowMultiplier = 2

// shortForwardTimeWindowFrames is S2's time-mode window: 25 frame
// durations ahead of the buffer's tail.
const shortForwardTimeWindowFrames = 25

// Seek moves the cursor so that the next frame observed satisfies
// spec.md invariant 4: the smallest PTS >= t is selected, or the frame
// whose display interval contains t.
func (s *Stream) Seek(timeMicros int64) error {
	if timeMicros < 0 {
		return invalidArgument("Seek", "time %d is negative", timeMicros)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seekInternal(seekByTime, timeMicros)
}

// SeekFrame moves the cursor so that the next frame observed has exactly
// the given frame index.
func (s *Stream) SeekFrame(frameIndex int64) error {
	if frameIndex < 0 {
		return invalidArgument("SeekFrame", "frame index %d is negative", frameIndex)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seekInternal(seekByFrame, frameIndex)
}

// seekInternal implements the S1/S2/S3 strategy selection of spec.md §4.6.
// The original design expresses this as a routine that recurses into itself
// with a "recursed" guard; Go has no built-in reentrant mutex and Design
// Notes §9 explicitly prefers "a two-step loop: plan, execute, then at most
// one retry" over deep recursion, so within a single coordinate space
// (frame or time) this is a plain loop of at most two iterations instead of
// self-calling recursion: S1, then S2 if it applies, then at most one S3
// attempt.
//
// A frame-mode call whose S3 step can't use the backend's frame-indexed
// primitive (sticky-tripped, or newly failing) falls through to a fresh
// call to seekInternal in time mode instead — matching
// FFFRStream.cpp:449-459's "return seek(frameToTime(frame))" rather than
// jumping straight to a raw flush+SeekTime, so the fresh call gets its own
// chance at S1/S2 in time-mode terms before ever re-flushing. Per spec.md
// §4.6, this same fallback also covers a frame-mode S3 that reports success
// but lands somewhere the buffer still can't satisfy the target from (e.g.
// the backend snapped to an approximate/keyframe position): the latch
// clears and the request re-enters in time mode rather than failing
// outright. Either fallback call is bounded to one further level (it can't
// itself fall back to frame mode), so this never recurses more than once.
func (s *Stream) seekInternal(mode seekMode, target int64) error {
	if s.landInBuffer(mode, target) {
		return nil
	}

	if s.targetInShortForwardWindow(mode, target) {
		s.active.reset()
		if err := s.pump(s.fill); err != nil {
			return err
		}
		swapBuffers(&s.active, &s.fill)

		if s.landInBuffer(mode, target) {
			return nil
		}
	}

	if err := s.flushAndSeek(mode, target); err != nil {
		return err
	}

	if s.landInBuffer(mode, target) {
		return nil
	}

	if mode == seekByFrame && s.frameSeekSupported {
		s.frameSeekSupported = false
		slog.Warn("videoframe: frame-indexed seek landed short of target, falling back to time mode",
			"path", s.path, "target", target)
		return s.seekInternal(seekByTime, s.frameToTimeMicros(target))
	}

	return backendError("seek", BackendSeek, fmt.Errorf("target %d unreachable after full flush and seek", target))
}

// landInBuffer reports whether target is within active's current range and,
// if so, advances the cursor to it (S1).
func (s *Stream) landInBuffer(mode seekMode, target int64) bool {
	key, ok := s.inBufferKey(mode)
	if !ok || !s.targetInBuffer(mode, target, key) {
		return false
	}
	s.advanceInBuffer(mode, target)
	return true
}

// inBufferKey reports the key (time or frameIndex) of the buffer's tail
// frame, and whether active holds anything to compare against at all.
func (s *Stream) inBufferKey(mode seekMode) (int64, bool) {
	last := s.active.last()
	if last == nil {
		return 0, false
	}
	return s.key(mode, last), true
}

func (s *Stream) key(mode seekMode, f *Frame) int64 {
	if mode == seekByFrame {
		return f.Index()
	}
	return f.Time()
}

// targetInBuffer implements S1's range check: target must be between the
// current read head and the buffer's tail (inclusive), tail's key coming
// from inBufferKey.
func (s *Stream) targetInBuffer(mode seekMode, target int64, tailKey int64) bool {
	head := s.active.peek()
	if head == nil {
		return false
	}
	headKey := s.key(mode, head)
	return target >= headKey && target <= tailKey
}

// advanceInBuffer implements S1: pop frames until the head's key is >=
// target, or (time mode only) until the head frame's display interval
// contains target.
func (s *Stream) advanceInBuffer(mode seekMode, target int64) {
	for {
		head := s.active.peek()
		if head == nil {
			return
		}
		headKey := s.key(mode, head)
		if headKey >= target {
			return
		}
		if mode == seekByTime && target < head.Time()+s.frameDuration {
			return
		}
		s.active.pop()
	}
}

// targetInShortForwardWindow implements S2's window check: target must be
// ahead of the buffer's tail (or the buffer must be empty) but within the
// configured window.
func (s *Stream) targetInShortForwardWindow(mode seekMode, target int64) bool {
	last := s.active.last()
	var tailKey int64
	if last != nil {
		tailKey = s.key(mode, last)
		if target <= tailKey {
			return false
		}
	}

	if mode == seekByFrame {
		window := int64(shortForwardFrameWindowMultiplier * s.active.capacity)
		return target-tailKey <= window
	}

	window := int64(shortForwardTimeWindowFrames) * s.frameDuration
	return target-tailKey <= window
}

// flushAndSeek implements S3: flush the decoder, seek the container, pump
// once. Frame-mode seeks additionally maintain the sticky
// frameSeekSupported latch. Per FFFRStream.cpp:449-459, a frame-mode call
// that can't use the backend's frame-indexed primitive — because the latch
// is already tripped, or because SeekFrame fails right now — never performs
// S3-by-frame itself: it defers to a fresh seekInternal call in time mode,
// which runs its own S1/S2/S3 cascade (and so gets a chance to land in the
// buffer or short-forward-decode before ever flushing).
func (s *Stream) flushAndSeek(mode seekMode, target int64) error {
	if mode == seekByFrame && !s.frameSeekSupported {
		return s.seekInternal(seekByTime, s.frameToTimeMicros(target))
	}

	if err := s.session.Flush(); err != nil {
		return backendError("seek", BackendSeek, err)
	}

	if mode == seekByFrame {
		native := target + s.nativeToFrame(s.startTimestamp)
		if err := s.session.SeekFrame(native); err != nil {
			s.frameSeekSupported = false
			slog.Warn("videoframe: frame-indexed seek unsupported by backend, falling back to time mode",
				"path", s.path, "error", err, "unsupported", errors.Is(err, backend.ErrFrameSeekUnsupported))
			return s.seekInternal(seekByTime, s.frameToTimeMicros(target))
		}
		s.active.reset()
		if err := s.pump(s.fill); err != nil {
			return err
		}
		swapBuffers(&s.active, &s.fill)
		return nil
	}

	native := s.timeToNative(target) + s.startTimestamp
	if err := s.session.SeekTime(native); err != nil {
		return backendError("seek", BackendSeek, err)
	}
	s.active.reset()
	if err := s.pump(s.fill); err != nil {
		return err
	}
	swapBuffers(&s.active, &s.fill)
	return nil
}

func (s *Stream) frameToTimeMicros(f int64) int64 {
	return s.nativeToTime(s.frameToNative(f))
}
