// Package render plays a song to completion into memory or a WAV file.
package render

import (
	"fmt"
	"io"

	"github.com/QEStudios/ModSequencer/player"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	numChannels = 2
	bitDepth    = 16

	// Size of the RIFF, fmt and data chunk headers of a PCM WAV file.
	wavHeaderLen = 44
	// Frames encoded per call to the WAV encoder.
	chunkFrames = 4096
)

// Frames plays p until the song finishes, or for at most maxFrames frames if
// maxFrames is positive, and returns the interleaved left and right samples.
func Frames(p *player.Player, maxFrames int) []int {
	var out []int
	for maxFrames <= 0 || len(out) < maxFrames*numChannels {
		n := chunkFrames
		if maxFrames > 0 {
			n = min(n, maxFrames-len(out)/numChannels)
		}
		before := len(out)
		out = appendFrames(out, p, n)
		if len(out)-before < n*numChannels {
			break
		}
	}
	return out
}

// appendFrames appends up to n frames to dst, stopping early if the song ends.
func appendFrames(dst []int, p *player.Player, n int) []int {
	for range n {
		left, right := p.NextFrame()
		if p.Finished() {
			break
		}
		dst = append(dst, int(left), int(right))
	}
	return dst
}

// WriteWAV encodes what Frames would return as a 16-bit stereo WAV file and
// returns the number of frames written.
func WriteWAV(w io.WriteSeeker, p *player.Player, maxFrames int) (int, error) {
	enc := wav.NewEncoder(w, p.SampleRate(), bitDepth, numChannels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  p.SampleRate(),
		},
		Data:           make([]int, 0, chunkFrames*numChannels),
		SourceBitDepth: bitDepth,
	}

	frames := 0
	for maxFrames <= 0 || frames < maxFrames {
		n := chunkFrames
		if maxFrames > 0 {
			n = min(n, maxFrames-frames)
		}
		buf.Data = appendFrames(buf.Data[:0], p, n)
		if len(buf.Data) > 0 {
			if err := enc.Write(buf); err != nil {
				return frames, fmt.Errorf("encoding frames %d+: %w", frames, err)
			}
		}
		frames += len(buf.Data) / numChannels
		if len(buf.Data) < n*numChannels {
			break
		}
	}

	if err := enc.Close(); err != nil {
		return frames, fmt.Errorf("finishing WAV file: %w", err)
	}

	// Sanity check to make sure the output is the expected size.
	size, err := w.Seek(0, io.SeekEnd)
	if err != nil {
		return frames, err
	}
	if expected := int64(wavHeaderLen + frames*numChannels*bitDepth/8); size != expected {
		return frames, fmt.Errorf("WAV file size mismatch: got %d bytes, expected %d", size, expected)
	}
	return frames, nil
}
