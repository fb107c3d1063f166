package videoframe

import "testing"

func TestRescale_Identity(t *testing.T) {
	tb := Rational{Num: 1, Den: 30}
	if got := rescale(42, tb, tb); got != 42 {
		t.Errorf("rescale(42, tb, tb) = %d, want 42", got)
	}
}

func TestRescale_ExactConversion(t *testing.T) {
	// 150 ticks at 1/30s per tick is exactly 5,000,000 microseconds.
	got := rescale(150, Rational{Num: 1, Den: 30}, microsecondTimeBase)
	if want := int64(5_000_000); got != want {
		t.Errorf("rescale(150, 1/30, us) = %d, want %d", got, want)
	}
}

func TestRescale_RoundsTiesToEven(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		from  Rational
		to    Rational
		want  int64
	}{
		// value*from/to = 0.5 exactly: round to even (0).
		{"tie_rounds_down_to_even", 1, Rational{Num: 1, Den: 2}, Rational{Num: 1, Den: 1}, 0},
		// value*from/to = 1.5 exactly: round to even (2).
		{"tie_rounds_up_to_even", 3, Rational{Num: 1, Den: 2}, Rational{Num: 1, Den: 1}, 2},
		// value*from/to = -0.5 exactly: round to even (0).
		{"negative_tie_rounds_to_even", -1, Rational{Num: 1, Den: 2}, Rational{Num: 1, Den: 1}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := rescale(tc.value, tc.from, tc.to); got != tc.want {
				t.Errorf("rescale(%d, %v, %v) = %d, want %d", tc.value, tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestFrameTimeAndTimeFrame_RoundTrip(t *testing.T) {
	s := newFakeStream(t, fakeStreamOpts{frames: 300})

	for _, frame := range []int64{0, 1, 30, 150, 299} {
		us := s.FrameToTime(frame)
		back := s.TimeToFrame(us)
		if back != frame {
			t.Errorf("TimeToFrame(FrameToTime(%d)) = %d, want %d", frame, back, frame)
		}
	}
}

func TestNativeFrameTime_RoundTrip(t *testing.T) {
	s := newFakeStream(t, fakeStreamOpts{frames: 300})

	for _, native := range []int64{0, 30, 150} {
		frame := s.NativeToFrame(native)
		back := s.FrameToNative(frame)
		if back != native {
			t.Errorf("FrameToNative(NativeToFrame(%d)) = %d, want %d", native, back, native)
		}
	}
}
