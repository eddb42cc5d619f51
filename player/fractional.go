package player

import "math"

// AmigaClock is the PAL Amiga's Paula clock in Hz. A period of p plays
// AmigaClock/p sample bytes per second.
const AmigaClock = 3_546_895

const (
	fractionBits = 8
	maxInteger   = math.MaxUint32 >> fractionBits
)

// Fractional is an unsigned 24.8 fixed-point value, used for sample read
// positions and playback rates. All arithmetic truncates and saturates, so the
// same inputs produce the same output on every platform.
type Fractional uint32

// NewFractional converts an integer, saturating at the largest 24-bit value.
func NewFractional(v uint32) Fractional {
	if v > maxInteger {
		v = maxInteger
	}
	return Fractional(v << fractionBits)
}

// FromSampleRate returns the number of Amiga clock ticks per device sample.
func FromSampleRate(sampleRate uint32) Fractional {
	if sampleRate == 0 {
		return math.MaxUint32
	}
	v := (uint64(AmigaClock) << fractionBits) / uint64(sampleRate)
	return Fractional(min(v, math.MaxUint32))
}

// Add returns f+g, saturating instead of wrapping.
func (f Fractional) Add(g Fractional) Fractional {
	sum := f + g
	if sum < f {
		return math.MaxUint32
	}
	return sum
}

// ApplyPeriod divides f by a period. Callers treat period 0 as "not playing";
// for completeness it gives 0 here rather than a divide by zero.
func (f Fractional) ApplyPeriod(period uint16) Fractional {
	if period == 0 {
		return 0
	}
	return f / Fractional(period)
}

// Index truncates to the integer part.
func (f Fractional) Index() int {
	return int(f >> fractionBits)
}
