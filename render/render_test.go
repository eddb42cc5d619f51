package render

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/QEStudios/ModSequencer/internal/modtest"
	"github.com/QEStudios/ModSequencer/parser/protracker"
	"github.com/QEStudios/ModSequencer/player"
	"github.com/go-audio/wav"
)

const testRate = 1000

// shortSong plays one row at speed 2, which is 40 frames at testRate.
func shortSong(t *testing.T) *player.Player {
	t.Helper()
	data := make([]int8, 2000)
	for i := range data {
		data[i] = int8(i)
	}
	mod, err := protracker.Open(modtest.New().
		Sample(1, modtest.Sample{Volume: 40, RepeatPoint: 100, RepeatLength: 300, Data: data}).
		Note(0, 0, 0, 1, 254, 0xF02).
		Note(0, 0, 1, 1, 428, 0xD00).
		Bytes())
	if err != nil {
		t.Fatal(err)
	}
	p, err := player.New(mod, testRate)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestFrames(t *testing.T) {
	all := Frames(shortSong(t), 0)
	if len(all) != 40*2 {
		t.Fatalf("Expected 80 samples, got %d", len(all))
	}

	p := shortSong(t)
	for i := range 40 {
		left, right := p.NextFrame()
		if all[2*i] != int(left) || all[2*i+1] != int(right) {
			t.Fatalf("Frame %d doesn't match NextFrame", i)
		}
	}

	if got := Frames(shortSong(t), 7); !slices.Equal(got, all[:14]) {
		t.Errorf("Expected the first 7 frames, got %v", got)
	}
	if got := Frames(shortSong(t), 1000); len(got) != len(all) {
		t.Errorf("Expected limit past the end to stop at the end, got %d samples", len(got))
	}
}

func TestWriteWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	frames, err := WriteWAV(f, shortSong(t), 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if frames != 40 {
		t.Errorf("Expected 40 frames written, got %d", frames)
	}

	f, err = os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("Expected a valid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if buf.Format.NumChannels != 2 || buf.Format.SampleRate != testRate {
		t.Errorf("Unexpected format %+v", *buf.Format)
	}
	if want := Frames(shortSong(t), 0); !slices.Equal(buf.Data, want) {
		t.Errorf("Decoded samples don't match:\ngot  %v\nwant %v", buf.Data, want)
	}
}

func TestWriteWAVLimit(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "song.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	frames, err := WriteWAV(f, shortSong(t), 10)
	if err != nil {
		t.Fatal(err)
	}
	if frames != 10 {
		t.Errorf("Expected 10 frames written, got %d", frames)
	}
}
