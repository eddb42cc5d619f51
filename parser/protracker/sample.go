package protracker

import (
	"encoding/binary"
	"io"
)

const sampleNameLen = 22

// Sample describes one entry of the sample table together with its PCM data.
//
// The metadata is decoded once when the Sample is created. Data still points
// into the module's file contents.
type Sample struct {
	number       int    // One-based index into the sample table.
	name         []byte // Name with null padding removed.
	length       uint16 // Length in 16-bit words.
	finetune     uint8  // Low nibble of the finetune byte.
	volume       uint8  // Default volume. Legal values are 0..64, but not clamped here.
	repeatPoint  uint16 // Loop start in 16-bit words.
	repeatLength uint16 // Loop length in 16-bit words. 1 means the sample does not loop.
	data         []byte // Signed 8-bit PCM, truncated to the end of the file.
}

// newSample decodes the table entry for sample n, whose PCM data starts at offset.
func (m *Module) newSample(n int, offset int) Sample {
	start := sampleInfoOffset + (n-1)*sampleInfoLen
	info := m.data[start : start+sampleInfoLen]

	s := Sample{
		number:       n,
		name:         trimName(info[:sampleNameLen]),
		length:       binary.BigEndian.Uint16(info[22:24]),
		finetune:     info[24] & 0x0F,
		volume:       info[25],
		repeatPoint:  binary.BigEndian.Uint16(info[26:28]),
		repeatLength: binary.BigEndian.Uint16(info[28:30]),
	}

	// A declared length running past the end of the file is cut short.
	end := min(offset+s.LengthBytes(), len(m.data))
	if offset < end {
		s.data = m.data[offset:end]
	}
	return s
}

// Number returns the one-based sample number.
func (s Sample) Number() int { return s.number }

// Name returns the sample name. It is probably not UTF-8.
func (s Sample) Name() []byte { return s.name }

// Length returns the declared length in 16-bit words.
func (s Sample) Length() uint16 { return s.length }

// LengthBytes returns the declared length in bytes.
func (s Sample) LengthBytes() int { return int(s.length) * 2 }

func (s Sample) Finetune() uint8 { return s.finetune }

// Volume returns the default volume exactly as stored in the file.
func (s Sample) Volume() uint8 { return s.volume }

// RepeatPoint returns where the loop starts, in 16-bit words.
func (s Sample) RepeatPoint() uint16 { return s.repeatPoint }

// RepeatPointBytes returns where the loop starts, in bytes.
func (s Sample) RepeatPointBytes() int { return int(s.repeatPoint) * 2 }

// RepeatLength returns the loop length in 16-bit words.
func (s Sample) RepeatLength() uint16 { return s.repeatLength }

// RepeatLengthBytes returns the loop length in bytes.
func (s Sample) RepeatLengthBytes() int { return int(s.repeatLength) * 2 }

// Loops reports whether the sample loops.
// Trackers store "no loop" as a repeat length of one word; every other value,
// zero included, is a real loop.
func (s Sample) Loops() bool { return s.repeatLength != 1 }

// Data returns the raw signed 8-bit PCM bytes. It is shorter than LengthBytes
// when the file ends early, and must not be modified.
func (s Sample) Data() []byte { return s.data }

// NewReader returns a reader that plays the sample's PCM once and then,
// if the sample loops, repeats the loop region forever.
func (s Sample) NewReader() *SampleReader {
	repeatStart := min(s.RepeatPointBytes(), len(s.data))
	repeatEnd := min(s.RepeatPointBytes()+s.RepeatLengthBytes(), len(s.data))
	return &SampleReader{
		data:        s.data,
		loops:       s.Loops() && repeatStart < repeatEnd,
		repeatStart: repeatStart,
		repeatEnd:   repeatEnd,
		firstPass:   true,
	}
}

// SampleReader produces the bytes of a sample, handling the loop.
// It returns io.EOF once a non-looping sample has been played through.
type SampleReader struct {
	data        []byte
	loops       bool
	repeatStart int
	repeatEnd   int
	firstPass   bool
	position    int
}

func (r *SampleReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if r.firstPass {
			if r.position >= len(r.data) {
				if !r.loops {
					break
				}
				r.firstPass = false
				r.position = r.repeatStart
				continue
			}
			c := copy(p[n:], r.data[r.position:])
			n += c
			r.position += c
			continue
		}

		if r.position >= r.repeatEnd {
			r.position = r.repeatStart
		}
		c := copy(p[n:], r.data[r.position:r.repeatEnd])
		n += c
		r.position += c
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}
