// Package backend defines the narrow interface the videoframe core consumes
// from a codec library: open, read/decode, flush, seek, and time-base
// rescale. The core never imports a specific codec library directly; it
// depends only on Session and NativeFrame. gst_session.go provides the
// production GStreamer-backed implementation; faketest provides a
// deterministic in-memory implementation for unit tests.
package backend

import "fmt"

// Rational is a num/den pair describing a time base or frame rate, the same
// shape a container's stream_tb or r_frame_rate takes.
type Rational struct {
	Num int64
	Den int64
}

// Seconds returns the rational's value as a float64, purely for logging.
func (r Rational) Seconds() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string { return fmt.Sprintf("%d/%d", r.Num, r.Den) }

// PixelFormat identifies the layout of a decoded frame's planes.
type PixelFormat int

const (
	// PixelFormatUnknown is the zero value.
	PixelFormatUnknown PixelFormat = iota
	// PixelFormatRGBA is 4 interleaved bytes per pixel, one plane.
	PixelFormatRGBA
	// PixelFormatI420 is planar YUV 4:2:0, three planes.
	PixelFormatI420
	// PixelFormatNV12 is semi-planar YUV 4:2:0, two planes.
	PixelFormatNV12
)

// DecodeKind tags whether a frame was produced by a software or hardware
// decode path, surfaced on Frame as its decode-type tag.
type DecodeKind int

const (
	// DecodeSoftware means the frame was decoded on the CPU.
	DecodeSoftware DecodeKind = iota
	// DecodeGPU means the frame was decoded (and possibly still resides) on the GPU.
	DecodeGPU
)

// NativeFrame is a single decoded picture owned exclusively by whoever holds
// it. Release must be called exactly once, whether or not the frame is
// wrapped and handed to a caller.
type NativeFrame interface {
	// Timestamp is the backend's best-effort timestamp (PTS, DTS fallback)
	// in native ticks.
	Timestamp() int64
	Width() int
	Height() int
	PixelFormat() PixelFormat
	DecodeKind() DecodeKind
	// Plane returns the i-th plane's bytes. Panics if i is out of range for
	// PixelFormat.
	Plane(i int) []byte
	// Stride returns the i-th plane's row stride in bytes.
	Stride(i int) int
	// Release returns the underlying picture to the decoder. Safe to call
	// multiple times.
	Release()
}

// PullStatus is the tri-state (plus error) result of PullFrame, matching
// the AGAIN/EOF/error/success contract avcodec_receive_frame exposes and
// the Decode Pump algorithm in spec.md §4.3 depends on.
type PullStatus int

const (
	// PullFrameReady means NativeFrame is valid and must be released by the caller.
	PullFrameReady PullStatus = iota
	// PullAgain means the backend needs more input before it can produce a frame.
	PullAgain
	// PullEOF means the demuxer has no more packets for this stream.
	PullEOF
)

// Session is one open stream: it hides whatever the underlying container/
// decode library does to turn container bytes into decoded pictures.
//
// PullFrame folds "read one encoded packet, submit it to the decoder, drain
// one decoded frame" into a single call, because the GStreamer decodebin
// element this module's production Session uses does not expose a separate
// packet-submit step to callers (see SPEC_FULL.md §4.1–4.7 supplement).
// Implementations must still honor the AGAIN/EOF/error semantics: a single
// PullFrame call does at most the work of one "read packet, submit, try to
// receive" cycle, so the caller's drain loop terminates.
type Session interface {
	// TimeBase is the stream's native time base (one tick = Num/Den seconds).
	TimeBase() Rational
	// FrameRate is the stream's nominal frame rate.
	FrameRate() Rational
	// StartTime returns the container-reported stream start time in native
	// ticks, and whether it is present and finite.
	StartTime() (int64, bool)
	// Duration returns the container-reported duration in native ticks, and
	// whether it is present and positive.
	Duration() (int64, bool)
	// NbFrames returns the container-reported frame count, and whether it
	// is present and positive.
	NbFrames() (int64, bool)
	// CodecDelay is max(1, decoder.delay + decoder.hasBFrames).
	CodecDelay() int
	// FrameSeekSupported reports whether SeekFrame is expected to work for
	// this container/codec combination.
	FrameSeekSupported() bool

	// PullFrame advances decode by one packet-equivalent step.
	PullFrame() (NativeFrame, PullStatus, error)

	// Flush discards any buffered packets/frames in the decoder, without
	// touching the demuxer's read position.
	Flush() error

	// SeekTime seeks the underlying container to the given native
	// timestamp with a backward-biased keyframe search.
	SeekTime(native int64) error

	// SeekFrame seeks the underlying container to the given native frame
	// index. Returns an error wrapping ErrFrameSeekUnsupported if the
	// backend cannot honor frame-indexed seeks.
	SeekFrame(index int64) error

	// Close releases the demuxer and decoder contexts. Idempotent.
	Close() error
}

// ErrFrameSeekUnsupported is wrapped into the error SeekFrame returns when
// the backend cannot honor a frame-indexed seek (container has no stable
// frame index, or the codec's GOP structure defeats it).
var ErrFrameSeekUnsupported = fmt.Errorf("backend: frame-indexed seek not supported")
