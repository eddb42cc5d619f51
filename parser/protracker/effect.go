package protracker

import "fmt"

type EffectKind uint8

const (
	NoEffect        EffectKind = iota
	Arpeggio                   // 0xy: cycle between the note, +x and +y half-steps.
	SlideUp                    // 1xx: raise pitch by xx periods per tick.
	SlideDown                  // 2xx: lower pitch by xx periods per tick.
	SlideToNote                // 3xx: portamento towards the note.
	Vibrato                    // 4xy: x speed, y depth.
	SlideNoteVolume            // 5xy: slide to note and volume slide.
	VibratoSlide               // 6xy: vibrato and volume slide.
	Tremolo                    // 7xy: x speed, y depth.
	SampleOffset               // 9xx: start the sample at xx * 256 bytes.
	VolumeSlide                // Axy: x up speed, y down speed.
	PositionJump               // Bxx: jump to song position xx.
	SetVolume                  // Cxx: volume 0..64.
	PatternBreak               // Dxy: skip to row x*10+y of the next pattern.
	SetSpeed                   // Fxx: ticks per row (values above 31 are tempo).
)

// Effect commands indexed by the command nibble.
// 8 is unused and E (extended commands) isn't supported.
var commandKinds = [16]EffectKind{
	0x0: Arpeggio,
	0x1: SlideUp,
	0x2: SlideDown,
	0x3: SlideToNote,
	0x4: Vibrato,
	0x5: SlideNoteVolume,
	0x6: VibratoSlide,
	0x7: Tremolo,
	0x8: NoEffect,
	0x9: SampleOffset,
	0xA: VolumeSlide,
	0xB: PositionJump,
	0xC: SetVolume,
	0xD: PatternBreak,
	0xE: NoEffect,
	0xF: SetSpeed,
}

var kindNames = [...]string{
	NoEffect:        "None",
	Arpeggio:        "Arpeggio",
	SlideUp:         "SlideUp",
	SlideDown:       "SlideDown",
	SlideToNote:     "SlideToNote",
	Vibrato:         "Vibrato",
	SlideNoteVolume: "SlideNoteVolume",
	VibratoSlide:    "VibratoSlide",
	Tremolo:         "Tremolo",
	SampleOffset:    "SampleOffset",
	VolumeSlide:     "VolumeSlide",
	PositionJump:    "PositionJump",
	SetVolume:       "SetVolume",
	PatternBreak:    "PatternBreak",
	SetSpeed:        "SetSpeed",
}

func (k EffectKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("EffectKind(%d)", k)
}

// Effect is a decoded effect command and its argument byte.
type Effect struct {
	Kind EffectKind
	Arg  uint8
}

// DecodeEffect decodes an effect word of the form 0x0NMM.
//
// Zero, and any command this package doesn't recognise, decode to NoEffect.
// Bits above the low 12 are ignored.
func DecodeEffect(word uint16) Effect {
	word &= 0x0FFF
	if word == 0 {
		return Effect{}
	}
	kind := commandKinds[word>>8]
	if kind == NoEffect {
		return Effect{}
	}
	return Effect{Kind: kind, Arg: uint8(word)}
}

// Nibbles splits the argument into its high and low nibbles.
func (e Effect) Nibbles() (hi, lo uint8) {
	return e.Arg >> 4, e.Arg & 0x0F
}

// VolumeDelta returns the per-tick change of a volume slide.
// The up amount wins if both nibbles are set.
func (e Effect) VolumeDelta() int {
	up, down := e.Nibbles()
	if up != 0 {
		return int(up)
	}
	return -int(down)
}

// BreakRow returns the row a pattern break jumps to. The argument is written
// as two decimal digits, so D12 means row 12.
func (e Effect) BreakRow() int {
	hi, lo := e.Nibbles()
	return int(hi)*10 + int(lo)
}

// Command returns the command nibble the effect was decoded from.
func (e Effect) Command() uint8 {
	for cmd, kind := range commandKinds {
		if kind == e.Kind && kind != NoEffect {
			return uint8(cmd)
		}
	}
	return 0
}

func (e Effect) String() string {
	if e.Kind == NoEffect {
		return kindNames[NoEffect]
	}
	return fmt.Sprintf("%s(%02X)", e.Kind, e.Arg)
}
