package protracker

import "fmt"

// Warning describes something odd about a module that doesn't stop it playing.
type Warning struct {
	Where   string // e.g. "sample 3" or "pattern 2 row 17 channel 0".
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Where, w.Message)
}

// Lint looks for the quirks real-world modules tend to have:
// sample data cut off by the end of the file, volumes above 64, loops past
// the end of a sample, bad sample numbers and effects we can't play.
// None of these are errors.
func (m *Module) Lint() []Warning {
	var warnings []Warning
	add := func(where string, format string, args ...any) {
		warnings = append(warnings, Warning{Where: where, Message: fmt.Sprintf(format, args...)})
	}

	if m.data[songLengthOffset] > positionsLen {
		add("header", "song length %d is larger than the position table, using %d", m.data[songLengthOffset], positionsLen)
	}
	if m.SongLength() == 0 {
		add("header", "song length is 0, nothing will play")
	}

	for s := range m.Samples() {
		where := fmt.Sprintf("sample %d", s.Number())
		if len(s.Data()) < s.LengthBytes() {
			add(where, "declared %d bytes but only %d are in the file", s.LengthBytes(), len(s.Data()))
		}
		if s.Volume() > 64 {
			add(where, "volume %d is above 64", s.Volume())
		}
		if s.Loops() && s.LengthBytes() > 0 && s.RepeatPointBytes()+s.RepeatLengthBytes() > s.LengthBytes() {
			add(where, "loop %d+%d runs past the end of the sample (%d bytes)",
				s.RepeatPointBytes(), s.RepeatLengthBytes(), s.LengthBytes())
		}
	}

	// Only report each unplayable effect command once, it's usually used all over the place.
	var seenCommands [16]bool
	for p := range m.Patterns() {
		for row, line := range p.Lines() {
			for channel, note := range line {
				where := fmt.Sprintf("pattern %d row %d channel %d", p.Index(), row, channel)
				if note.SampleNumber() > NumSamples {
					add(where, "sample number %d is out of range", note.SampleNumber())
				}
				word := note.EffectWord()
				cmd := word >> 8
				if word != 0 && note.Effect().Kind == NoEffect && !seenCommands[cmd] {
					seenCommands[cmd] = true
					add(where, "effect command %X is not supported", cmd)
				}
			}
		}
	}

	if end := m.sampleDataOffset(); end > len(m.data) {
		add("patterns", "%d patterns need %d bytes but the file is %d bytes", m.NumPatterns(), end, len(m.data))
	}

	return warnings
}
