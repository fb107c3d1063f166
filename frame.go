package videoframe

import (
	"image"

	"github.com/e7canasta/videoframe/internal/backend"
)

// PixelFormat identifies the layout of a Frame's planes.
type PixelFormat = backend.PixelFormat

const (
	PixelFormatUnknown = backend.PixelFormatUnknown
	PixelFormatRGBA    = backend.PixelFormatRGBA
	PixelFormatI420    = backend.PixelFormatI420
	PixelFormatNV12    = backend.PixelFormatNV12
)

// DecodeKind tags whether a Frame was produced by a software or GPU decode
// path.
type DecodeKind = backend.DecodeKind

const (
	DecodeSoftware = backend.DecodeSoftware
	DecodeGPU      = backend.DecodeGPU
)

// Frame is an immutable view of one decoded picture. It carries the handle
// exclusively: dropping the last reference to a Frame (calling Release)
// returns the decoder's underlying picture. A Frame emitted by a Stream may
// be read concurrently by other goroutines once emitted; it holds no
// reference back to the Stream that produced it.
type Frame struct {
	handle     backend.NativeFrame
	timeMicros int64
	frameIndex int64
	released   bool
}

func newFrame(handle backend.NativeFrame, timeMicros, frameIndex int64) *Frame {
	return &Frame{handle: handle, timeMicros: timeMicros, frameIndex: frameIndex}
}

// Time returns the frame's presentation time in microseconds, zeroed at the
// owning stream's start.
func (f *Frame) Time() int64 { return f.timeMicros }

// Index returns the frame's zero-based position in presentation order.
func (f *Frame) Index() int64 { return f.frameIndex }

// Width returns the frame's width in pixels.
func (f *Frame) Width() int { return f.handle.Width() }

// Height returns the frame's height in pixels.
func (f *Frame) Height() int { return f.handle.Height() }

// PixelFormat returns the layout of the frame's planes.
func (f *Frame) PixelFormat() PixelFormat { return f.handle.PixelFormat() }

// DecodeKind reports whether this frame was decoded on the CPU or GPU.
func (f *Frame) DecodeKind() DecodeKind { return f.handle.DecodeKind() }

// Plane returns the i-th plane's raw bytes.
func (f *Frame) Plane(i int) []byte { return f.handle.Plane(i) }

// Stride returns the i-th plane's row stride in bytes.
func (f *Frame) Stride(i int) int { return f.handle.Stride(i) }

// Image returns an image.Image view over the frame's plane, for callers
// that want to hand a frame to the standard library's image machinery
// (image/jpeg, image/png), the way frame_saver.go's rgbToRGBA builds an
// image.RGBA before encoding. Only PixelFormatRGBA converts today; the
// YUV-family formats (I420, NV12) have no lossless single-plane mapping
// onto image.Image and return an InvalidArgumentError instead of silently
// misinterpreting chroma planes as color. The returned image aliases the
// frame's own plane memory, so it is only valid until Release.
func (f *Frame) Image() (image.Image, error) {
	if f.PixelFormat() != PixelFormatRGBA {
		return nil, invalidArgument("Image", "pixel format %d has no image.Image conversion", f.PixelFormat())
	}
	return &image.RGBA{
		Pix:    f.Plane(0),
		Stride: f.Stride(0),
		Rect:   image.Rect(0, 0, f.Width(), f.Height()),
	}, nil
}

// Release returns the underlying decoded picture to the decoder. Safe to
// call more than once; only the first call has an effect.
func (f *Frame) Release() {
	if f.released {
		return
	}
	f.released = true
	f.handle.Release()
}
