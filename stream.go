package videoframe

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/e7canasta/videoframe/internal/backend"
)

// Stream owns one demuxer/decoder session, its two frame buffers, one read
// cursor, and the scalars introspection discovers once at construction. All
// exported methods take mu for their full duration; see SPEC_FULL.md §5 for
// how the spec's reentrant-mutex requirement is resolved without a Go
// recursive mutex.
type Stream struct {
	mu sync.Mutex

	path    string
	session backend.Session
	opts    DecoderOptions

	active *frameBuffer
	fill   *frameBuffer

	startTimestamp     int64
	totalFrames        int64
	totalDuration      int64 // microseconds
	frameSeekSupported bool  // sticky latch, see seek.go

	width         int
	height        int
	aspectRatio   float64
	frameRateVal  Rational
	frameDuration int64 // microseconds

	closed bool
}

// openStream constructs a Stream over an already-open backend.Session,
// running introspection (spec.md §4.2) exactly once. Both Manager and a
// standalone caller (via Open) go through this path.
func openStream(path string, session backend.Session, opts DecoderOptions) (*Stream, error) {
	opts = opts.normalized()

	s := &Stream{
		path:    path,
		session: session,
		opts:    opts,
		active:  newFrameBuffer(opts.BufferLength),
		fill:    newFrameBuffer(opts.BufferLength),
	}

	s.frameRateVal = session.FrameRate()
	s.frameDuration = rescale(1, frameTimeBase(s.frameRateVal), microsecondTimeBase)
	s.frameSeekSupported = session.FrameSeekSupported()

	if err := s.introspect(); err != nil {
		// Introspection probes degrade gracefully (spec.md §7): scalars
		// stay at zero and construction still succeeds.
		slog.Warn("videoframe: introspection incomplete", "path", path, "error", err)
	}

	if err := s.pump(s.fill); err != nil {
		session.Close()
		return nil, backendError("open", BackendDecode, err)
	}
	swapBuffers(&s.active, &s.fill)

	// Probe geometry from the first decoded frame, since the backend
	// interface intentionally doesn't expose codec-level width/height
	// ahead of decode.
	if first := s.active.peek(); first != nil {
		s.width = first.Width()
		s.height = first.Height()
		if s.height != 0 {
			s.aspectRatio = float64(s.width) / float64(s.height)
		}
	}

	slog.Info("videoframe: stream opened",
		"path", path,
		"width", s.width,
		"height", s.height,
		"frame_rate", s.frameRateVal.String(),
		"total_frames", s.totalFrames,
		"total_duration_us", s.totalDuration,
		"frame_seek_supported", s.frameSeekSupported,
	)

	return s, nil
}

// Open opens path directly, outside of any Manager. Most callers should
// prefer Manager.GetStream so repeated opens of the same path share one
// Stream.
func Open(path string, opts DecoderOptions) (*Stream, error) {
	opts = opts.normalized()
	decodeKind := backend.DecodeSoftware
	if opts.Type == Cuda {
		decodeKind = backend.DecodeGPU
	}
	session, err := backend.NewFileSession(path, decodeKind, opts.OutputHost, opts.StreamIndex)
	if err != nil {
		return nil, backendError("open", BackendDemux, err)
	}
	return openStream(path, session, opts)
}

// Close releases both frame buffers and the backend session. Go has no
// deterministic destructors, so unlike the C++ original (where dropping a
// Stream is the only release path), this module exposes Close explicitly;
// Manager.ReleaseStream calls it once a path's reference count reaches
// zero. Calling Close directly on a Stream obtained from a Manager is a
// usage error the caller must avoid — see Manager's doc comment.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.active.reset()
	s.fill.reset()

	if err := s.session.Close(); err != nil {
		return fmt.Errorf("videoframe: close %q: %w", s.path, err)
	}
	return nil
}

// Width returns the stream's frame width in pixels.
func (s *Stream) Width() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width
}

// Height returns the stream's frame height in pixels.
func (s *Stream) Height() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height
}

// AspectRatio returns width/height.
func (s *Stream) AspectRatio() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aspectRatio
}

// TotalFrames returns the stream's frame count, discovered once at open.
func (s *Stream) TotalFrames() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalFrames
}

// Duration returns the stream's total duration in microseconds, discovered
// once at open.
func (s *Stream) Duration() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalDuration
}

// FrameRate returns the stream's nominal frame rate.
func (s *Stream) FrameRate() Rational {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameRateVal
}

// FrameDuration returns the duration of one frame, in microseconds.
func (s *Stream) FrameDuration() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameDuration
}
