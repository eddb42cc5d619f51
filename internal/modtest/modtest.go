// Package modtest builds small synthetic MOD files for tests.
package modtest

import "encoding/binary"

// NoLoop is the repeat length trackers write for samples that don't loop.
const NoLoop = 1

// Sample is one sample table entry. Data is padded to a whole number of words.
type Sample struct {
	Name         string
	Finetune     uint8
	Volume       uint8
	RepeatPoint  uint16 // In words.
	RepeatLength uint16 // In words.
	Data         []int8
}

type note struct {
	sample uint8
	period uint16
	effect uint16
}

// Builder assembles a module. The zero value is not usable, call New.
type Builder struct {
	title     string
	samples   [31]Sample
	positions []byte
	patterns  [][64][4]note
}

// New returns a builder for an empty song with one blank pattern at position 0.
func New() *Builder {
	return &Builder{
		positions: []byte{0},
		patterns:  make([][64][4]note, 1),
	}
}

func (b *Builder) Title(title string) *Builder {
	b.title = title
	return b
}

// Sample sets sample number n (1..31).
func (b *Builder) Sample(n int, s Sample) *Builder {
	b.samples[n-1] = s
	return b
}

// Positions replaces the song position table.
func (b *Builder) Positions(patterns ...byte) *Builder {
	b.positions = patterns
	return b
}

// Note sets one note, adding blank patterns as needed.
func (b *Builder) Note(pattern, row, channel int, sample uint8, period uint16, effect uint16) *Builder {
	for len(b.patterns) <= pattern {
		b.patterns = append(b.patterns, [64][4]note{})
	}
	b.patterns[pattern][row][channel] = note{sample: sample, period: period, effect: effect}
	return b
}

// EncodeNote packs a note the way it is stored in a pattern.
func EncodeNote(sample uint8, period uint16, effect uint16) [4]byte {
	return [4]byte{
		sample&0xF0 | byte(period>>8)&0x0F,
		byte(period),
		sample<<4 | byte(effect>>8)&0x0F,
		byte(effect),
	}
}

// Bytes returns the encoded file. It contains exactly as many patterns as the
// position table says there are.
func (b *Builder) Bytes() []byte {
	numPatterns := 0
	for _, p := range b.positions {
		numPatterns = max(numPatterns, int(p)+1)
	}
	numPatterns = max(numPatterns, 1)

	out := make([]byte, 1084, 1084+numPatterns*1024)
	copy(out[:20], b.title)

	for i, s := range b.samples {
		info := out[20+i*30 : 20+i*30+30]
		copy(info[:22], s.Name)
		binary.BigEndian.PutUint16(info[22:24], uint16((len(s.Data)+1)/2))
		info[24] = s.Finetune
		info[25] = s.Volume
		binary.BigEndian.PutUint16(info[26:28], s.RepeatPoint)
		binary.BigEndian.PutUint16(info[28:30], s.RepeatLength)
	}

	out[950] = byte(len(b.positions))
	out[951] = 127
	copy(out[952:1080], b.positions)
	copy(out[1080:1084], "M.K.")

	for p := range numPatterns {
		var block [1024]byte
		if p < len(b.patterns) {
			for row := range 64 {
				for ch := range 4 {
					n := b.patterns[p][row][ch]
					encoded := EncodeNote(n.sample, n.period, n.effect)
					copy(block[row*16+ch*4:], encoded[:])
				}
			}
		}
		out = append(out, block[:]...)
	}

	for _, s := range b.samples {
		for _, v := range s.Data {
			out = append(out, byte(v))
		}
		if len(s.Data)%2 == 1 {
			out = append(out, 0)
		}
	}

	return out
}
