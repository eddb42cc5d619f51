// Package protracker decodes 4-channel, 31-sample ProTracker ("M.K.") module files.
//
// A Module never copies the file contents. Every view it hands out (Pattern,
// Line, Sample) reads straight from the byte slice passed to Open, so that
// slice must not be modified or reused while the Module or any view is alive.
// Views may be shared between goroutines since nothing in this package writes.
package protracker

import (
	"errors"
	"fmt"
	"iter"
)

// File layout. Multi-byte fields are big-endian.
const (
	titleLen         = 20
	sampleInfoOffset = 20
	sampleInfoLen    = 30
	songLengthOffset = 950
	positionsOffset  = 952
	positionsLen     = 128
	magicOffset      = 1080
	patternsOffset   = 1084

	// The smallest file we'll accept: a full header plus one pattern.
	minimumLength = patternsOffset + PatternLen
)

const (
	NumSamples     = 31 // Number of sample slots, numbered 1..31.
	NumChannels    = 4  // Number of channels in every line.
	RowsPerPattern = 64 // Number of lines in every pattern.

	// Size of one pattern block in bytes (64 rows * 4 channels * 4 bytes).
	PatternLen = RowsPerPattern * NumChannels * 4
)

// The magic value found at offset 1080 in a 31-sample, 4-channel module.
var magic = [4]byte{'M', '.', 'K', '.'}

var (
	ErrFileTooSmall    = errors.New("file too small to be a MOD file")
	ErrWrongMagicValue = errors.New(`magic value is not "M.K."`)
	ErrOutOfRange      = errors.New("index out of range")
)

// Module is a read-only view over the raw bytes of a MOD file.
type Module struct {
	data []byte
}

// Open wraps a MOD file already in memory.
//
// Only two things are checked: that the data is long enough to hold the header
// and one pattern, and that the magic value matches. Everything else is read
// lazily, so a module with a garbage pattern or sample table still opens.
func Open(data []byte) (*Module, error) {
	if len(data) < minimumLength {
		return nil, fmt.Errorf("%w: got %d bytes, need at least %d", ErrFileTooSmall, len(data), minimumLength)
	}
	if [4]byte(data[magicOffset:magicOffset+4]) != magic {
		return nil, fmt.Errorf("%w: got %q", ErrWrongMagicValue, data[magicOffset:magicOffset+4])
	}
	return &Module{data: data}, nil
}

// Name returns the song title with trailing padding removed.
// It is not guaranteed to be valid text.
func (m *Module) Name() []byte {
	return trimName(m.data[:titleLen])
}

// Len returns the size of the underlying file in bytes.
func (m *Module) Len() int {
	return len(m.data)
}

// SongLength returns the number of song positions in use.
// A corrupt length byte above 128 is capped at 128.
func (m *Module) SongLength() int {
	return min(int(m.data[songLengthOffset]), positionsLen)
}

// SongPositions returns the pattern played at each song position.
// The slice aliases the file data and must not be modified.
func (m *Module) SongPositions() []byte {
	return m.data[positionsOffset : positionsOffset+m.SongLength()]
}

// SongPosition returns the pattern played at song position idx.
func (m *Module) SongPosition(idx int) (int, error) {
	positions := m.SongPositions()
	if idx < 0 || idx >= len(positions) {
		return 0, fmt.Errorf("song position %d: %w", idx, ErrOutOfRange)
	}
	return int(positions[idx]), nil
}

// NumPatterns returns the number of patterns stored in the file.
//
// The file doesn't store this. It is one more than the highest pattern number
// found anywhere in the 128-entry position table, including entries past the
// song length.
func (m *Module) NumPatterns() int {
	highest := byte(0)
	for _, p := range m.data[positionsOffset : positionsOffset+positionsLen] {
		highest = max(highest, p)
	}
	return int(highest) + 1
}

// Pattern returns a view of pattern number n.
func (m *Module) Pattern(n int) (Pattern, error) {
	if n < 0 || n >= m.NumPatterns() {
		return Pattern{}, fmt.Errorf("pattern %d: %w", n, ErrOutOfRange)
	}
	start := patternsOffset + n*PatternLen
	end := start + PatternLen
	if end > len(m.data) {
		return Pattern{}, fmt.Errorf("pattern %d is cut off by the end of the file: %w", n, ErrOutOfRange)
	}
	return Pattern{index: n, data: m.data[start:end]}, nil
}

// Patterns iterates over every pattern stored in the file, stopping early
// at the first one cut off by the end of the file.
func (m *Module) Patterns() iter.Seq[Pattern] {
	return func(yield func(Pattern) bool) {
		for n := range m.NumPatterns() {
			p, err := m.Pattern(n)
			if err != nil || !yield(p) {
				return
			}
		}
	}
}

// sampleDataOffset is where the PCM data of sample 1 starts; the rest follow back-to-back.
func (m *Module) sampleDataOffset() int {
	return patternsOffset + m.NumPatterns()*PatternLen
}

// Samples iterates over all 31 samples in order.
func (m *Module) Samples() iter.Seq[Sample] {
	return func(yield func(Sample) bool) {
		offset := m.sampleDataOffset()
		for n := 1; n <= NumSamples; n++ {
			s := m.newSample(n, offset)
			if !yield(s) {
				return
			}
			offset += s.LengthBytes()
		}
	}
}

// Sample returns sample number n, in the range 1..31.
//
// The start of a sample's data depends on the length of every sample before
// it, so this walks the sample table.
func (m *Module) Sample(n int) (Sample, error) {
	if n < 1 || n > NumSamples {
		return Sample{}, fmt.Errorf("sample %d: %w", n, ErrOutOfRange)
	}
	for s := range m.Samples() {
		if s.Number() == n {
			return s, nil
		}
	}
	// Unreachable, Samples always yields 1..31.
	return Sample{}, fmt.Errorf("sample %d: %w", n, ErrOutOfRange)
}

// trimName strips the null padding from the end of a fixed-width name field.
func trimName(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return b
}
