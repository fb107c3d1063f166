package videoframe

import (
	"log/slog"

	"github.com/e7canasta/videoframe/internal/backend"
)

// pump fills buf with consecutive frames from the current decoder
// position, stopping once buf.capacity is reached or the backend stalls
// or hits end-of-stream, per spec.md §4.3. buf is reset first. Capacity is
// only checked when the backend can't immediately produce another frame:
// the decoder is legally allowed to complete an in-flight reorder flush
// past capacity, and that overflow is kept rather than truncated mid-run.
func (s *Stream) pump(buf *frameBuffer) error {
	buf.reset()

	for {
		frame, status, err := s.session.PullFrame()
		if err != nil {
			return backendError("pump", BackendDecode, err)
		}

		switch status {
		case backend.PullFrameReady:
			ts := s.nativeToTime(frame.Timestamp())
			idx := s.nativeToFrame(frame.Timestamp())
			buf.append(newFrame(frame, ts, idx))

		case backend.PullAgain:
			// Backend needs another read/submit cycle before it can
			// produce a frame; loop and try again immediately, exactly
			// like a decoder returning AGAIN after avcodec_send_packet.
			// Capacity is only checked here, not on PullFrameReady, so a
			// decoder mid-reorder-flush can keep emitting past capacity
			// until it actually stalls.
			if buf.len() >= buf.capacity {
				return nil
			}
			slog.Debug("videoframe: pump waiting for backend", "path", s.path)
			continue

		case backend.PullEOF:
			// Clean drain: fill may be partial or empty. Not a failure.
			return nil
		}
	}
}
