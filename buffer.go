package videoframe

// frameBuffer is an ordered, capacity-bounded sequence of frames. A Stream
// owns exactly two: active (consumed by the cursor) and fill (written by
// the decode pump). Modeled as an owned slice exchanged by the ping/pong
// swap rather than copied, per Design Notes §9.
type frameBuffer struct {
	frames   []*Frame
	readHead int
	capacity int
}

func newFrameBuffer(capacity int) *frameBuffer {
	return &frameBuffer{frames: make([]*Frame, 0, capacity), capacity: capacity}
}

func (b *frameBuffer) len() int { return len(b.frames) }

func (b *frameBuffer) exhausted() bool { return b.readHead >= len(b.frames) }

// peek returns the frame at readHead without advancing, or nil if exhausted.
func (b *frameBuffer) peek() *Frame {
	if b.exhausted() {
		return nil
	}
	return b.frames[b.readHead]
}

func (b *frameBuffer) last() *Frame {
	if len(b.frames) == 0 {
		return nil
	}
	return b.frames[len(b.frames)-1]
}

// pop clears the buffer's own reference to the frame at readHead and
// advances past it. It does NOT release the frame's decoder handle: pop
// only relinquishes the buffer's copy of the pointer, transferring sole
// ownership to whichever caller is holding the *Frame peek returned (the
// buffer's shared_ptr slot in the original C++ is likewise just
// overwritten, not explicitly freed — the frame stays alive as long as any
// holder keeps their reference and calls Release() themselves).
func (b *frameBuffer) pop() {
	b.frames[b.readHead] = nil
	b.readHead++
}

// append adds a decoded frame to the tail, used only by the decode pump
// while filling.
func (b *frameBuffer) append(f *Frame) { b.frames = append(b.frames, f) }

// reset releases every remaining frame and empties the buffer, used before
// a short-forward-decode or full flush-and-seek (spec.md §4.6 S2/S3).
func (b *frameBuffer) reset() {
	for i := b.readHead; i < len(b.frames); i++ {
		if b.frames[i] != nil {
			b.frames[i].Release()
		}
	}
	b.frames = b.frames[:0]
	b.readHead = 0
}

// swapBuffers exchanges the roles of active and fill: the caller is expected to
// have just pumped fill, and wants it promoted to active while the old,
// now-exhausted active becomes the new (empty) fill target.
func swapBuffers(active, fill **frameBuffer) {
	*active, *fill = *fill, *active
	(*fill).reset()
}
