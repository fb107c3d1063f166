package videoframe

// PeekNextFrame returns the next frame the cursor will yield without
// advancing past it. Returns ErrEndOfStream once the stream is exhausted.
func (s *Stream) PeekNextFrame() (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peekLocked()
}

// GetNextFrame returns the next frame in presentation order and advances
// the cursor past it.
func (s *Stream) GetNextFrame() (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame, err := s.peekLocked()
	if err != nil {
		return nil, err
	}
	s.popLocked()
	return frame, nil
}

// GetNextFrameSequence advances by each offset (relative to the current
// cursor position, zero-based, non-decreasing) and returns the frame
// observed at each. A single lock covers the whole call: partial progress
// on a later failure is not observable to other goroutines.
func (s *Stream) GetNextFrameSequence(offsets []int64) ([]*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*Frame, 0, len(offsets))
	var previous int64 = -1
	var last *Frame

	for _, offset := range offsets {
		if offset < previous {
			return nil, invalidArgument("GetNextFrameSequence", "offsets must be non-decreasing, got %d after %d", offset, previous)
		}

		steps := offset - previous
		previous = offset

		for i := int64(0); i < steps; i++ {
			f, err := s.peekLocked()
			if err != nil {
				return nil, err
			}
			last = f
			s.popLocked()
		}
		// steps == 0 means this offset repeats the previous one: emit the
		// same frame again without advancing the cursor.
		result = append(result, last)
	}

	return result, nil
}

// peekLocked runs one pump-swap cycle if active is exhausted, then returns
// the frame at readHead without advancing. Callers must hold s.mu.
func (s *Stream) peekLocked() (*Frame, error) {
	if s.active.exhausted() {
		if err := s.pump(s.fill); err != nil {
			return nil, err
		}
		swapBuffers(&s.active, &s.fill)
	}

	frame := s.active.peek()
	if frame == nil {
		return nil, ErrEndOfStream
	}
	return frame, nil
}

// popLocked advances past the frame at readHead, transferring its
// ownership to whichever caller holds the *Frame peekLocked returned.
// Callers must hold s.mu and must have just confirmed !active.exhausted().
func (s *Stream) popLocked() {
	s.active.pop()
}
