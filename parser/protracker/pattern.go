package protracker

import (
	"fmt"
	"iter"
)

// Pattern is a view of one 1024 byte pattern block:
// 64 lines, each with 4 notes, each note 4 bytes.
type Pattern struct {
	index int
	data  []byte
}

// Index returns the pattern number.
func (p Pattern) Index() int { return p.index }

// Line returns row number row, or false if the pattern has no such row.
func (p Pattern) Line(row int) (Line, bool) {
	if row < 0 || row >= RowsPerPattern || len(p.data) < PatternLen {
		return Line{}, false
	}
	var line Line
	offset := row * NumChannels * 4
	for c := range line {
		line[c] = Note(p.data[offset+c*4 : offset+c*4+4])
	}
	return line, true
}

// Lines iterates over all 64 rows of the pattern.
func (p Pattern) Lines() iter.Seq2[int, Line] {
	return func(yield func(int, Line) bool) {
		for row := range RowsPerPattern {
			line, ok := p.Line(row)
			if !ok || !yield(row, line) {
				return
			}
		}
	}
}

// Line holds the notes for one row, one per channel.
type Line [NumChannels]Note

// Note is the raw 4 byte encoding of what one channel does on one row.
//
//	byte 0: sample number (high nibble) | period bits 8-11
//	byte 1: period bits 0-7
//	byte 2: sample number (low nibble)  | effect command
//	byte 3: effect argument
type Note [4]byte

// SampleNumber returns which sample to play, 0 meaning none.
// Values above 31 only appear in corrupt files.
func (n Note) SampleNumber() uint8 {
	return n[0]&0xF0 | n[2]>>4
}

// Period returns the sample period (the inverse of pitch) in the range 0..4095.
// 0 means the note doesn't change the pitch.
func (n Note) Period() uint16 {
	return uint16(n[0]&0x0F)<<8 | uint16(n[1])
}

// EffectWord returns the effect as 0x0NMM, where N is the command and MM the argument.
func (n Note) EffectWord() uint16 {
	return uint16(n[2]&0x0F)<<8 | uint16(n[3])
}

// Effect decodes the effect command.
func (n Note) Effect() Effect {
	return DecodeEffect(n.EffectWord())
}

// MusicalNote returns the name of the note matching the period, if there is one.
func (n Note) MusicalNote() (string, bool) {
	return PeriodName(n.Period())
}

// IsEmpty reports whether the note does nothing at all.
func (n Note) IsEmpty() bool {
	return n.SampleNumber() == 0 && n.Period() == 0 && n.EffectWord() == 0
}

// String formats the note the way trackers display it, e.g. "C-2 01 C40".
func (n Note) String() string {
	pitch := "---"
	if period := n.Period(); period != 0 {
		if name, ok := PeriodName(period); ok {
			pitch = name
		} else {
			pitch = fmt.Sprintf("%03X", period)
		}
	}
	return fmt.Sprintf("%s %02d %03X", pitch, n.SampleNumber(), n.EffectWord())
}
