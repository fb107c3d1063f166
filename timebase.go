package videoframe

import (
	"math/big"

	"github.com/e7canasta/videoframe/internal/backend"
)

// Rational is a num/den pair; the public alias of backend.Rational so
// callers never need to import the internal package.
type Rational = backend.Rational

// microsecondTimeBase treats microsecond time as a rational time base of
// 1/1_000_000 seconds per tick, letting it flow through the same rescale
// arithmetic native ticks and frame indices use.
var microsecondTimeBase = Rational{Num: 1, Den: 1_000_000}

// frameTimeBase returns the time base whose ticks are exactly one frame
// long: fps = fr.Num/fr.Den frames per second, so one frame lasts
// fr.Den/fr.Num seconds.
func frameTimeBase(fr Rational) Rational {
	return Rational{Num: fr.Den, Den: fr.Num}
}

// rescale converts a tick count expressed in the "from" time base into the
// equivalent tick count in the "to" time base, rounding to the nearest
// integer with ties resolved to even (banker's rounding). big.Int is used
// because from.Num*to.Den (and the symmetric product) can exceed int64 for
// pathological but not impossible rational pairs; standard int64 math
// would silently wrap in those intermediate products.
func rescale(value int64, from, to Rational) int64 {
	if from.Den == 0 || to.Num == 0 {
		return 0
	}

	num := big.NewInt(value)
	num.Mul(num, big.NewInt(from.Num))
	num.Mul(num, big.NewInt(to.Den))

	den := big.NewInt(from.Den)
	den.Mul(den, big.NewInt(to.Num))

	return divRoundEven(num, den)
}

// divRoundEven computes round(num/den) with ties rounded to even, and
// supports a negative denominator (rescale never produces one in practice,
// but this keeps the helper correct in isolation).
func divRoundEven(num, den *big.Int) int64 {
	if den.Sign() == 0 {
		return 0
	}
	if den.Sign() < 0 {
		num = new(big.Int).Neg(num)
		den = new(big.Int).Neg(den)
	}

	quo, rem := new(big.Int), new(big.Int)
	quo.QuoRem(num, den, rem)

	if rem.Sign() == 0 {
		return quo.Int64()
	}

	twiceRem := new(big.Int).Mul(rem, big.NewInt(2))
	twiceRem.Abs(twiceRem)
	cmp := twiceRem.Cmp(den)

	adjust := func(delta int64) int64 {
		if num.Sign() < 0 {
			return quo.Int64() - delta
		}
		return quo.Int64() + delta
	}

	switch {
	case cmp > 0:
		return adjust(1)
	case cmp < 0:
		return quo.Int64()
	default:
		// Exact tie: round to even.
		if quo.Bit(0) == 0 {
			return quo.Int64()
		}
		return adjust(1)
	}
}

// timeToNative converts microsecond wall time t into the stream's native
// tick coordinate. See spec.md §4.1.
func (s *Stream) timeToNative(t int64) int64 {
	return s.startTimestamp + rescale(t, microsecondTimeBase, s.session.TimeBase())
}

// nativeToTime converts a native tick T into microsecond wall time, zeroed
// at the stream's start.
func (s *Stream) nativeToTime(t int64) int64 {
	return rescale(t-s.startTimestamp, s.session.TimeBase(), microsecondTimeBase)
}

// frameToNative converts a zero-based frame index f into the stream's
// native tick coordinate.
func (s *Stream) frameToNative(f int64) int64 {
	return s.startTimestamp + rescale(f, frameTimeBase(s.frameRateVal), s.session.TimeBase())
}

// nativeToFrame converts a native tick T into a zero-based frame index.
func (s *Stream) nativeToFrame(t int64) int64 {
	return rescale(t-s.startTimestamp, s.session.TimeBase(), frameTimeBase(s.frameRateVal))
}

// FrameToTime converts a zero-based frame index into microsecond wall time.
func (s *Stream) FrameToTime(f int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nativeToTime(s.frameToNative(f))
}

// TimeToFrame converts microsecond wall time into a zero-based frame index.
func (s *Stream) TimeToFrame(t int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nativeToFrame(s.timeToNative(t))
}

// FrameToNative converts a zero-based frame index into a native tick.
func (s *Stream) FrameToNative(f int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameToNative(f)
}

// NativeToFrame converts a native tick into a zero-based frame index.
func (s *Stream) NativeToFrame(t int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nativeToFrame(t)
}

// TimeToNative converts microsecond wall time into a native tick.
func (s *Stream) TimeToNative(t int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeToNative(t)
}

// NativeToTime converts a native tick into microsecond wall time.
func (s *Stream) NativeToTime(t int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nativeToTime(t)
}
