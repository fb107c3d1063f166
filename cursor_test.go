package videoframe

import "testing"

func TestCursor_SequentialRead_MonotonicOrder(t *testing.T) {
	s := newFakeStream(t, fakeStreamOpts{frames: 50, bufferLength: 8})

	for want := int64(0); want < 50; want++ {
		f, err := s.GetNextFrame()
		if err != nil {
			t.Fatalf("GetNextFrame() at %d: %v", want, err)
		}
		if f.Index() != want {
			t.Fatalf("GetNextFrame().Index() = %d, want %d", f.Index(), want)
		}
		f.Release()
	}

	if _, err := s.GetNextFrame(); err != ErrEndOfStream {
		t.Fatalf("GetNextFrame() past end = %v, want ErrEndOfStream", err)
	}
}

func TestCursor_Peek_DoesNotAdvance(t *testing.T) {
	s := newFakeStream(t, fakeStreamOpts{frames: 10})

	first, err := s.PeekNextFrame()
	if err != nil {
		t.Fatalf("PeekNextFrame(): %v", err)
	}
	second, err := s.PeekNextFrame()
	if err != nil {
		t.Fatalf("PeekNextFrame() again: %v", err)
	}
	if first.Index() != second.Index() {
		t.Fatalf("peek moved the cursor: %d != %d", first.Index(), second.Index())
	}

	got, err := s.GetNextFrame()
	if err != nil {
		t.Fatalf("GetNextFrame(): %v", err)
	}
	if got.Index() != first.Index() {
		t.Fatalf("GetNextFrame().Index() = %d, want %d", got.Index(), first.Index())
	}
}

func TestCursor_GetNextFrameSequence_NonDecreasing(t *testing.T) {
	s := newFakeStream(t, fakeStreamOpts{frames: 20, bufferLength: 4})

	frames, err := s.GetNextFrameSequence([]int64{0, 2, 2, 5})
	if err != nil {
		t.Fatalf("GetNextFrameSequence: %v", err)
	}

	wantIndex := []int64{0, 2, 2, 5}
	for i, f := range frames {
		if f.Index() != wantIndex[i] {
			t.Errorf("frames[%d].Index() = %d, want %d", i, f.Index(), wantIndex[i])
		}
	}
}

func TestCursor_GetNextFrameSequence_RejectsNonMonotone(t *testing.T) {
	s := newFakeStream(t, fakeStreamOpts{frames: 20})

	_, err := s.GetNextFrameSequence([]int64{3, 1})
	var invalid *InvalidArgumentError
	if err == nil {
		t.Fatal("expected InvalidArgumentError, got nil")
	}
	if e, ok := err.(*InvalidArgumentError); !ok {
		t.Fatalf("err type = %T, want *InvalidArgumentError", err)
	} else {
		invalid = e
	}
	if invalid.Op != "GetNextFrameSequence" {
		t.Errorf("invalid.Op = %q, want GetNextFrameSequence", invalid.Op)
	}
}

// TestCursor_GetNextFrameSequence_CommutesWithIndividualReads is invariant 6
// (spec.md §8): getNextFrameSequence([a,b,c]) must return the same frames as
// individually seeking to and reading each offset from the same start.
func TestCursor_GetNextFrameSequence_CommutesWithIndividualReads(t *testing.T) {
	offsets := []int64{0, 3, 3, 7, 10}

	sequenced := newFakeStream(t, fakeStreamOpts{frames: 30, bufferLength: 5})
	got, err := sequenced.GetNextFrameSequence(offsets)
	if err != nil {
		t.Fatalf("GetNextFrameSequence: %v", err)
	}

	individual := newFakeStream(t, fakeStreamOpts{frames: 30, bufferLength: 5})
	var want []*Frame
	for _, off := range offsets {
		if err := individual.SeekFrame(off); err != nil {
			t.Fatalf("SeekFrame(%d): %v", off, err)
		}
		f, err := individual.GetNextFrame()
		if err != nil {
			t.Fatalf("GetNextFrame() after SeekFrame(%d): %v", off, err)
		}
		want = append(want, f)
	}

	for i := range offsets {
		if got[i].Index() != want[i].Index() {
			t.Errorf("offset %d: sequenced index %d, individual index %d", offsets[i], got[i].Index(), want[i].Index())
		}
	}
}
