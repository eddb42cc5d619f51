package player

import "github.com/QEStudios/ModSequencer/parser/protracker"

const (
	maxVolume      = 64 // Full volume.
	maxSlideVolume = 63 // Volume slides stop here.
)

// Channel is the playback state of one of the four channels.
type Channel struct {
	Sample   uint8      // Sample being played, 0 for none.
	Volume   uint8      // 0..64.
	Period   uint16     // Current period, 0 when the channel is silent.
	Position Fractional // Read position into the sample data, in bytes.
	Looped   bool       // Whether playback has wrapped into the loop region.

	// Effect applied on every tick of the current row, one of Arpeggio,
	// SlideUp, SlideDown or VolumeSlide. NoEffect otherwise.
	effect protracker.Effect
	// Period an arpeggio is relative to.
	basePeriod uint16
}

// Effect returns the effect being applied every tick of the current row.
func (c Channel) Effect() protracker.Effect {
	return c.effect
}

// Active reports whether the channel contributes to the mix.
func (c Channel) Active() bool {
	return c.Sample != 0 && c.Period != 0
}

// trigger starts a new note on the channel.
func (c *Channel) trigger(sampleNo uint8, defaultVolume uint8, period uint16) {
	c.Sample = sampleNo
	c.Volume = min(defaultVolume, maxVolume)
	c.Position = 0
	c.Looped = false
	if period != 0 {
		c.Period = period
	}
}

// endRow undoes any arpeggio and forgets the row's effect.
func (c *Channel) endRow() {
	if c.effect.Kind == protracker.Arpeggio && c.Period != 0 && c.basePeriod != 0 {
		c.Period = c.basePeriod
	}
	c.effect = protracker.Effect{}
	c.basePeriod = 0
}

// tick applies the row's effect for tick number tick of ticksPerRow.
func (c *Channel) tick(tick, ticksPerRow int) {
	switch c.effect.Kind {
	case protracker.Arpeggio:
		if c.basePeriod == 0 || c.Period == 0 {
			return
		}
		// The row is split into thirds: base note, +x, then +y. Each third is
		// taken from the base period, so +y doesn't depend on +x being on the table.
		x, y := c.effect.Nibbles()
		var halfSteps int
		switch tick * 3 / ticksPerRow {
		case 0:
			halfSteps = 0
		case 1:
			halfSteps = int(x)
		default:
			halfSteps = int(y)
		}
		if period, ok := protracker.ShiftPeriod(c.basePeriod, halfSteps); ok {
			c.Period = period
		}

	case protracker.SlideUp:
		if c.Period != 0 {
			c.Period = slidePeriod(c.Period, -int(c.effect.Arg))
		}

	case protracker.SlideDown:
		if c.Period != 0 {
			c.Period = slidePeriod(c.Period, int(c.effect.Arg))
		}

	case protracker.VolumeSlide:
		v := int(c.Volume) + c.effect.VolumeDelta()
		c.Volume = uint8(max(0, min(v, maxSlideVolume)))
	}
}

// slidePeriod adds delta to period, stopping at the ends of the period table.
// A period already outside the table is never pulled back into it.
func slidePeriod(period uint16, delta int) uint16 {
	lo := min(int(period), protracker.MinPeriod)
	hi := max(int(period), protracker.MaxPeriod)
	return uint16(max(lo, min(int(period)+delta, hi)))
}
