// Package player sequences a ProTracker module into 16-bit stereo frames.
//
// A Player is driven one frame at a time by NextFrame. It walks the song
// position table row by row, applies effects on row and tick boundaries and
// mixes the four channels. NextFrame doesn't block, lock or allocate (unless
// row tracing is turned on), so it can be called from an audio callback.
// A Player must only be used from one goroutine at a time; the Module it
// reads from can be shared between any number of Players.
package player

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/QEStudios/ModSequencer/parser/protracker"
)

const (
	DefaultSpeed = 6  // Ticks per row until a SetSpeed effect says otherwise.
	TickRate     = 50 // Ticks per second (PAL vertical blank).

	// SetSpeed arguments above this are tempo changes, which aren't supported.
	maxSpeed = 31
)

// ErrCorruptModule is returned by New when the module references patterns or
// samples that don't exist.
var ErrCorruptModule = errors.New("corrupt module")

// Option configures a Player.
type Option func(*Player)

// WithLogger sets where row traces go. A nil logger (the default) means no output.
func WithLogger(logger *log.Logger) Option {
	return func(p *Player) {
		p.logger = logger
	}
}

// WithTrace logs every row as it's played, like a tracker's pattern view.
// This allocates, so don't use it when glitch-free playback matters.
func WithTrace(enabled bool) Option {
	return func(p *Player) {
		p.trace = enabled
	}
}

type Player struct {
	mod *protracker.Module
	// Indexed by sample number; entry 0 is unused.
	samples [protracker.NumSamples + 1]protracker.Sample

	sampleRate     int
	clockStep      Fractional // Amiga clock ticks per device sample.
	samplesPerTick int
	ticksPerRow    int

	position    int // Song position.
	row         int // Next row to play.
	playingRow  int // Row being played.
	samplesLeft int // Samples left in the current tick.
	ticksLeft   int // Ticks left in the current row.

	breakPending bool
	breakRow     int

	finished bool
	channels [protracker.NumChannels]Channel

	// Count of effects that were decoded but do nothing, by command nibble.
	unhandled [16]uint32

	logger *log.Logger
	trace  bool
}

// New creates a player for mod at the given output sample rate.
//
// The song is checked up front so playback can't run into a broken reference
// part way through: every pattern in the song position table must exist in
// the file and every note must use a sample number from 0 to 31.
func New(mod *protracker.Module, sampleRate int, opts ...Option) (*Player, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	p := &Player{
		mod:            mod,
		sampleRate:     sampleRate,
		clockStep:      FromSampleRate(uint32(sampleRate)),
		samplesPerTick: max(1, sampleRate/TickRate),
		ticksPerRow:    DefaultSpeed,
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.check(); err != nil {
		return nil, err
	}
	for s := range mod.Samples() {
		p.samples[s.Number()] = s
	}
	return p, nil
}

// check verifies every pattern and sample reference the song makes.
func (p *Player) check() error {
	for i, patternNo := range p.mod.SongPositions() {
		pattern, err := p.mod.Pattern(int(patternNo))
		if err != nil {
			return fmt.Errorf("%w: song position %d: %w", ErrCorruptModule, i, err)
		}
		for row, line := range pattern.Lines() {
			for channel, note := range line {
				if n := note.SampleNumber(); n > protracker.NumSamples {
					return fmt.Errorf("%w: pattern %d row %d channel %d: sample %d: %w",
						ErrCorruptModule, pattern.Index(), row, channel, n, protracker.ErrOutOfRange)
				}
			}
		}
	}
	return nil
}

// SampleRate returns the output sample rate.
func (p *Player) SampleRate() int { return p.sampleRate }

// Finished reports whether the song has played to the end.
func (p *Player) Finished() bool { return p.finished }

// Position returns the song position and row being played.
func (p *Player) Position() (position, row int) {
	return p.position, p.playingRow
}

// Speed returns the number of ticks per row.
func (p *Player) Speed() int { return p.ticksPerRow }

// Channel returns a copy of the state of channel i (0..3).
func (p *Player) Channel(i int) Channel { return p.channels[i] }

// Unhandled returns how many times each effect command was seen but had no
// effect on playback, indexed by command nibble.
func (p *Player) Unhandled() [16]uint32 { return p.unhandled }

// NextFrame produces the next stereo frame.
// Once the song has finished it returns silence.
func (p *Player) NextFrame() (left, right int16) {
	if p.finished {
		return 0, 0
	}

	switch {
	case p.samplesLeft == 0 && p.ticksLeft == 0:
		if !p.nextRow() {
			p.finished = true
			return 0, 0
		}
	case p.samplesLeft == 0:
		p.nextTick()
	default:
		p.samplesLeft--
	}

	return p.mix()
}

// nextRow moves on to the next row and applies its notes.
// It returns false when the song position table has run out.
func (p *Player) nextRow() bool {
	if p.breakPending {
		p.position++
		p.row = p.breakRow
		p.breakPending = false
	}

	positions := p.mod.SongPositions()
	var line protracker.Line
	for {
		// Bounds checked here rather than through SongPosition, whose error allocates.
		if p.position >= len(positions) {
			return false
		}
		// Checked by New.
		pattern, _ := p.mod.Pattern(int(positions[p.position]))
		var ok bool
		if line, ok = pattern.Line(p.row); ok {
			break
		}
		p.position++
		p.row = 0
	}

	if p.trace && p.logger != nil {
		p.traceLine(line)
	}

	for i := range p.channels {
		ch := &p.channels[i]
		ch.endRow()
		p.applyNote(ch, line[i])
	}

	p.playingRow = p.row
	p.row++
	p.samplesLeft = p.samplesPerTick - 1
	p.ticksLeft = p.ticksPerRow - 1
	return true
}

// applyNote starts any new note and handles the note's effect.
func (p *Player) applyNote(ch *Channel, note protracker.Note) {
	if note.IsEmpty() {
		return
	}

	if n := note.SampleNumber(); n != 0 {
		ch.trigger(n, p.samples[n].Volume(), note.Period())
	}

	effect := note.Effect()
	switch effect.Kind {
	case protracker.Arpeggio:
		ch.effect = effect
		ch.basePeriod = ch.Period
	case protracker.SlideUp, protracker.SlideDown, protracker.VolumeSlide:
		ch.effect = effect
	case protracker.SetVolume:
		ch.Volume = min(effect.Arg, maxVolume)
	case protracker.SetSpeed:
		// 0 would stop the song and larger values set the tempo, neither is supported.
		if effect.Arg != 0 && effect.Arg <= maxSpeed {
			p.ticksPerRow = int(effect.Arg)
		}
	case protracker.SampleOffset:
		ch.Position = NewFractional(uint32(effect.Arg) * 256)
	case protracker.PatternBreak:
		p.breakPending = true
		p.breakRow = effect.BreakRow()
	case protracker.NoEffect:
		if word := note.EffectWord(); word != 0 {
			p.unhandled[word>>8]++
		}
	default:
		p.unhandled[effect.Command()]++
	}
}

// nextTick starts a new tick within the row.
func (p *Player) nextTick() {
	p.samplesLeft = p.samplesPerTick - 1
	p.ticksLeft--
	tick := p.ticksPerRow - 1 - p.ticksLeft
	for i := range p.channels {
		p.channels[i].tick(tick, p.ticksPerRow)
	}
}

// mix reads one sample from every active channel and advances it.
// Channels 0 and 3 go left, 1 and 2 go right.
func (p *Player) mix() (int16, int16) {
	var left, right int32
	for i := range p.channels {
		ch := &p.channels[i]
		if !ch.Active() {
			continue
		}
		sample := &p.samples[ch.Sample]
		data := sample.Data()
		if len(data) == 0 {
			continue
		}

		var value int32
		if idx := ch.Position.Index(); idx < len(data) {
			// Scale [-128, 127] to 16 bits, then apply volume.
			value = int32(int8(data[idx])) * 256 * int32(ch.Volume) / maxVolume
		}

		ch.Position = ch.Position.Add(p.clockStep.ApplyPeriod(ch.Period))
		if sample.Loops() {
			loopEnd := sample.RepeatPointBytes() + sample.RepeatLengthBytes()
			if ch.Position.Index() >= loopEnd {
				ch.Position = NewFractional(uint32(sample.RepeatPointBytes()))
				ch.Looped = true
			}
		} else if ch.Position.Index() >= sample.LengthBytes() {
			ch.Period = 0
		}

		if i == 0 || i == 3 {
			left += value
		} else {
			right += value
		}
	}
	return clamp16(left), clamp16(right)
}

func clamp16(v int32) int16 {
	return int16(max(math.MinInt16, min(v, math.MaxInt16)))
}

// traceLine logs the row about to be played.
func (p *Player) traceLine(line protracker.Line) {
	var b strings.Builder
	fmt.Fprintf(&b, "%03d %02d:", p.position, p.row)
	for _, note := range line {
		b.WriteString(" | ")
		b.WriteString(note.String())
	}
	p.logger.Print(b.String())
}
