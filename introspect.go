package videoframe

import (
	"log/slog"

	"github.com/e7canasta/videoframe/internal/backend"
)

// probeFrameLimit bounds frame-mode 2^29 (spec.md §4.2 step 4's probe
// target), used both for the total-frames probe and to seek far enough
// ahead that the backend is forced to report EOF quickly.
const probeFrameLimit = 1 << 29

// introspect runs the C2 cascade exactly once, at Stream construction,
// after the backend session has been opened: start timestamp, then total
// frames, then total duration. Each step degrades to zero and logs once
// rather than failing construction (spec.md §7).
func (s *Stream) introspect() error {
	s.startTimestamp = s.computeStartTimestamp()
	s.totalFrames = s.computeTotalFrames()
	s.totalDuration = s.computeTotalDuration()
	return nil
}

// computeStartTimestamp implements spec.md §4.2's start-timestamp cascade
// as an ordered list of fallbacks, each an Option[int64] closure, per
// Design Notes §9.
func (s *Stream) computeStartTimestamp() int64 {
	fallbacks := []func() (int64, bool){
		s.startFromContainer,
		s.startFromProbe,
	}
	for _, f := range fallbacks {
		if v, ok := f(); ok {
			return v
		}
	}
	return 0
}

func (s *Stream) startFromContainer() (int64, bool) {
	return s.session.StartTime()
}

// startFromProbe seeks to origin, reads CodecDelay frames to tolerate
// B-frame reordering, and takes the minimum observed timestamp as the
// stream's start. It always restores the read position to origin before
// returning, successful or not.
func (s *Stream) startFromProbe() (int64, bool) {
	if err := s.session.SeekTime(0); err != nil {
		slog.Warn("videoframe: start-timestamp probe seek failed", "path", s.path, "error", err)
		return 0, false
	}

	delay := s.session.CodecDelay()
	if delay < 1 {
		delay = 1
	}

	min := int64(0)
	found := false
	for i := 0; i < delay; i++ {
		frame, status, err := s.session.PullFrame()
		if err != nil || status != backend.PullFrameReady {
			if status == backend.PullEOF {
				break
			}
			continue
		}
		ts := frame.Timestamp()
		frame.Release()
		if !found || ts < min {
			min = ts
			found = true
		}
	}

	if err := s.session.SeekTime(0); err != nil {
		slog.Warn("videoframe: start-timestamp probe reset failed", "path", s.path, "error", err)
	}

	if !found {
		return 0, false
	}
	return min, true
}

// computeTotalFrames implements spec.md §4.2's total-frames cascade. Our
// GStreamer-backed Session collapses FFmpeg's separate
// AVFormatContext.duration (container, microseconds) and
// AVStream.duration/nb_frames (stream-native) fields into one
// Session.Duration() in native ticks; steps 1 and 3 of the original cascade
// therefore consult the same signal here, recorded as a grounded
// adaptation in DESIGN.md rather than a silent behavior change.
func (s *Stream) computeTotalFrames() int64 {
	fallbacks := []func() (int64, bool){
		s.framesFromDuration,
		s.framesFromNbFrames,
		s.framesFromProbe,
	}
	for _, f := range fallbacks {
		if v, ok := f(); ok {
			return v
		}
	}
	return 0
}

func (s *Stream) framesFromDuration() (int64, bool) {
	durationNative, ok := s.session.Duration()
	if !ok || durationNative <= 0 {
		return 0, false
	}

	frames := rescale(durationNative, s.session.TimeBase(), frameTimeBase(s.frameRateVal))
	if nb, ok := s.session.NbFrames(); ok && nb > 0 && absInt64(frames-nb) <= 1 {
		frames = nb
	}
	return s.normalizeFrameCount(frames), true
}

func (s *Stream) framesFromNbFrames() (int64, bool) {
	nb, ok := s.session.NbFrames()
	if !ok || nb <= 0 {
		return 0, false
	}
	return s.normalizeFrameCount(nb), true
}

// normalizeFrameCount applies the deliberate startTimestamp*2 asymmetry
// spec.md §9 requires preserved exactly: nativeToFrame already subtracts
// startTimestamp once, so subtracting nativeToFrame(2*startTimestamp)
// removes the equivalent of one full startTimestamp offset, not two.
func (s *Stream) normalizeFrameCount(frames int64) int64 {
	if s.startTimestamp > 0 {
		frames -= s.nativeToFrame(2 * s.startTimestamp)
	}
	return frames
}

// framesFromProbe seeks far ahead, decodes to EOF tracking the maximum
// observed timestamp, and restores the read position to origin.
func (s *Stream) framesFromProbe() (int64, bool) {
	maxPTS, found := s.probeMaxTimestamp()
	if !found {
		return 0, false
	}
	return 1 + s.nativeToFrame(maxPTS), true
}

func (s *Stream) probeMaxTimestamp() (int64, bool) {
	target := s.frameToNative(probeFrameLimit)
	if err := s.session.SeekTime(target); err != nil {
		slog.Warn("videoframe: total-frames probe seek failed", "path", s.path, "error", err)
		return 0, false
	}

	max := int64(0)
	found := false
	for {
		frame, status, err := s.session.PullFrame()
		if err != nil {
			slog.Warn("videoframe: total-frames probe pull failed", "path", s.path, "error", err)
			break
		}
		if status == backend.PullEOF {
			break
		}
		if status == backend.PullAgain {
			continue
		}
		ts := frame.Timestamp()
		frame.Release()
		if !found || ts > max {
			max = ts
			found = true
		}
	}

	if err := s.session.SeekTime(0); err != nil {
		slog.Warn("videoframe: total-frames probe reset failed", "path", s.path, "error", err)
	}

	return max, found
}

// computeTotalDuration mirrors computeTotalFrames' cascade with
// duration-shaped outputs (microseconds), applying the same
// normalizeFrameCount asymmetry (spec.md §9) so totalDuration stays
// consistent with totalFrames whenever startTimestamp > 0.
func (s *Stream) computeTotalDuration() int64 {
	if durationNative, ok := s.session.Duration(); ok && durationNative > 0 {
		durationUS := rescale(durationNative, s.session.TimeBase(), microsecondTimeBase)
		return s.normalizeDuration(durationUS)
	}
	if s.totalFrames > 0 {
		return s.nativeToTime(s.frameToNative(s.totalFrames))
	}
	if maxPTS, found := s.probeMaxTimestamp(); found {
		return s.nativeToTime(maxPTS) + s.frameDuration
	}
	return 0
}

// normalizeDuration applies normalizeFrameCount's startTimestamp*2
// asymmetry (spec.md §9) to a raw, un-shifted duration: nativeToTime
// already subtracts startTimestamp once, so subtracting
// nativeToTime(2*startTimestamp) removes the equivalent of one full
// startTimestamp offset, not two.
func (s *Stream) normalizeDuration(durationUS int64) int64 {
	if s.startTimestamp > 0 {
		durationUS -= s.nativeToTime(2 * s.startTimestamp)
	}
	return durationUS
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
