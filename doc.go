// Package videoframe implements a random-access video frame reader: given a
// container file holding one or more encoded video streams, it exposes a
// cursor-style API that yields fully decoded frames in presentation order
// and supports seeking to arbitrary timestamps or frame indices.
//
// # Coordinate systems
//
// Every Stream tracks frames in three interchangeable coordinate systems:
// native container ticks, microsecond wall time zeroed at the stream's
// start, and a zero-based frame index. Stream exposes pure conversions
// between all three (FrameToTime, TimeToFrame, ...).
//
// # Cursor
//
//	s, err := mgr.GetStream("clip.mp4", videoframe.DecoderOptions{BufferLength: 10})
//	frame, err := s.GetNextFrame()
//	err = s.Seek(5_000_000) // 5 seconds
//
// # Concurrency
//
// Every exported Stream method takes the Stream's mutex for its full
// duration. Two distinct Streams are independent and may be driven from
// separate goroutines. Manager guards its stream directory with its own
// mutex.
package videoframe
