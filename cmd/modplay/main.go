package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/QEStudios/ModSequencer/internal/modfile"
	"github.com/QEStudios/ModSequencer/player"
	"github.com/QEStudios/ModSequencer/render"
	"github.com/ebitengine/oto/v3"
	"github.com/spf13/pflag"
	"github.com/sqweek/dialog"
	"golang.org/x/term"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "", log.Ldate|log.Ltime)

	// Get the current working directory.
	cwd, err := os.Getwd()
	if err != nil {
		logger.Fatalf("failed to get current working directory: %v", err)
	}

	var (
		sampleRate int
		wavPath    string
		maxSeconds float64
		trace      bool
	)
	pflag.IntVarP(&sampleRate, "rate", "r", 44100, "output sample rate in Hz")
	pflag.StringVarP(&wavPath, "wav", "w", "", "write a WAV file instead of playing")
	pflag.Float64Var(&maxSeconds, "max-seconds", 0, "stop after this many seconds (0 plays the whole song)")
	pflag.BoolVarP(&trace, "trace", "t", false, "log every row as it's played")
	pflag.Parse()

	// Get the path of the module.
	path, err := modfile.ChoosePath(cwd, pflag.Args())
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			logger.Printf("User cancelled the file dialog")
			os.Exit(1)
		}
		logger.Fatalf("failed to determine file path: %v", err)
	}

	mod, err := modfile.Load(path)
	if err != nil {
		logger.Fatalf("parse error: %v", err)
	}
	for _, w := range mod.Lint() {
		logger.Printf("warning: %s", w)
	}
	logger.Printf("Loaded %q: %d song positions, %d patterns", mod.Name(), mod.SongLength(), mod.NumPatterns())

	p, err := player.New(mod, sampleRate, player.WithLogger(logger), player.WithTrace(trace))
	if err != nil {
		logger.Fatalf("player error: %v", err)
	}
	maxFrames := int(maxSeconds * float64(sampleRate))

	if wavPath != "" {
		err = writeWAV(wavPath, p, maxFrames)
	} else {
		err = play(p, mod.SongLength(), maxFrames, !trace && term.IsTerminal(int(os.Stdout.Fd())))
	}
	if err != nil {
		logger.Fatalf("%v", err)
	}

	for command, count := range p.Unhandled() {
		if count > 0 {
			logger.Printf("Ignored effect %X %d times", command, count)
		}
	}
}

func writeWAV(path string, p *player.Player, maxFrames int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer f.Close()

	start := time.Now()
	frames, err := render.WriteWAV(f, p, maxFrames)
	if err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}

	length := time.Duration(frames) * time.Second / time.Duration(p.SampleRate())
	logger.Printf("Wrote %s (%v of audio in %v)", path, length.Round(time.Millisecond), time.Since(start).Round(time.Millisecond))
	return nil
}

// play sends the song to the default audio device and waits for it to end.
// If live is set the current position is shown on stdout as it plays.
func play(p *player.Player, songLength, maxFrames int, live bool) error {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   p.SampleRate(),
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("failed to open audio device: %w", err)
	}
	<-ready

	stream := player.NewStream(p)
	var src io.Reader = stream
	if maxFrames > 0 {
		src = io.LimitReader(stream, int64(maxFrames)*player.FrameSize)
	}

	out := ctx.NewPlayer(src)
	defer out.Close()
	out.Play()

	last := -1
	for out.IsPlaying() {
		time.Sleep(50 * time.Millisecond)
		if !live {
			continue
		}
		if position, row := stream.Position(); position<<8|row != last {
			last = position<<8 | row
			fmt.Printf("\rPosition %03d/%03d  Row %02d", position, songLength, row)
		}
	}
	if live {
		fmt.Println()
	}
	return out.Err()
}
