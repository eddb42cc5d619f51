package player

import (
	"encoding/binary"
	"io"
	"sync/atomic"
)

// FrameSize is the size in bytes of one frame as written by Stream.
const FrameSize = 4

// Stream adapts a Player to io.Reader, producing interleaved signed 16-bit
// little-endian stereo frames. It returns io.EOF once the song has finished.
//
// Audio libraries usually call Read from their own goroutine. Stream is the
// only thing that should touch the Player while that is going on; use
// Position to follow playback from elsewhere.
type Stream struct {
	p        *Player
	position atomic.Uint32 // song position << 8 | row
}

func NewStream(p *Player) *Stream {
	return &Stream{p: p}
}

// Read fills b with as many whole frames as fit.
func (s *Stream) Read(b []byte) (int, error) {
	n := 0
	for len(b)-n >= FrameSize {
		left, right := s.p.NextFrame()
		if s.p.Finished() {
			break
		}
		binary.LittleEndian.PutUint16(b[n:], uint16(left))
		binary.LittleEndian.PutUint16(b[n+2:], uint16(right))
		n += FrameSize
	}

	position, row := s.p.Position()
	s.position.Store(uint32(position)<<8 | uint32(row))

	if n == 0 && s.p.Finished() {
		return 0, io.EOF
	}
	return n, nil
}

// Position returns the song position and row of the most recent Read.
// It is safe to call while another goroutine is reading.
func (s *Stream) Position() (position, row int) {
	v := s.position.Load()
	return int(v >> 8), int(v & 0xFF)
}
