package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/QEStudios/ModSequencer/internal/modfile"
	"github.com/QEStudios/ModSequencer/parser/protracker"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/pflag"
	"github.com/sqweek/dialog"
)

var logger *log.Logger

type sampleSummary struct {
	Number       int
	Name         string
	LengthBytes  int
	Finetune     uint8
	Volume       uint8
	RepeatPoint  int
	RepeatLength int
	Loops        bool
}

type summary struct {
	Name        string
	Size        int
	Positions   []byte
	NumPatterns int
	Samples     []sampleSummary
	Warnings    []protracker.Warning
}

func main() {
	logger = log.New(os.Stdout, "", log.Ldate|log.Ltime)

	// Get the current working directory.
	cwd, err := os.Getwd()
	if err != nil {
		logger.Fatalf("failed to get current working directory: %v", err)
	}

	var (
		showPatterns bool
		dump         bool
		extract      int
		outPath      string
		byteCount    int64
	)
	pflag.BoolVarP(&showPatterns, "patterns", "p", false, "print every pattern in the song")
	pflag.BoolVarP(&dump, "dump", "d", false, "dump the decoded header instead of pretty printing it")
	pflag.IntVarP(&extract, "extract", "x", 0, "write the raw PCM of this sample (1-31)")
	pflag.StringVarP(&outPath, "out", "o", "", "output file for --extract (default <module>-<sample>.raw)")
	pflag.Int64VarP(&byteCount, "bytes", "n", 0, "bytes to extract, following the loop (default one pass plus two repeats)")
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

	if dump {
		spew.Dump(summarize(mod))
	} else {
		fmt.Println(mod)
		for _, w := range mod.Lint() {
			logger.Printf("warning: %s", w)
		}
	}

	if showPatterns {
		seen := make(map[int]bool)
		for _, patternNo := range mod.SongPositions() {
			if seen[int(patternNo)] {
				continue
			}
			seen[int(patternNo)] = true
			pattern, err := mod.Pattern(int(patternNo))
			if err != nil {
				logger.Printf("warning: %v", err)
				continue
			}
			fmt.Println(pattern)
		}
	}

	if extract != 0 {
		if outPath == "" {
			outPath = fmt.Sprintf("%s-%02d.raw", strings.TrimSuffix(path, filepath.Ext(path)), extract)
		}
		n, err := extractSample(mod, extract, outPath, byteCount)
		if err != nil {
			logger.Fatalf("extract error: %v", err)
		}
		logger.Printf("Wrote %d bytes of sample %d to %s", n, extract, outPath)
	}
}

func summarize(mod *protracker.Module) summary {
	s := summary{
		Name:        string(mod.Name()),
		Size:        mod.Len(),
		Positions:   mod.SongPositions(),
		NumPatterns: mod.NumPatterns(),
		Warnings:    mod.Lint(),
	}
	for sample := range mod.Samples() {
		if sample.Length() == 0 {
			continue
		}
		s.Samples = append(s.Samples, sampleSummary{
			Number:       sample.Number(),
			Name:         string(sample.Name()),
			LengthBytes:  sample.LengthBytes(),
			Finetune:     sample.Finetune(),
			Volume:       sample.Volume(),
			RepeatPoint:  sample.RepeatPointBytes(),
			RepeatLength: sample.RepeatLengthBytes(),
			Loops:        sample.Loops(),
		})
	}
	return s
}

// extractSample writes signed 8-bit PCM of sample n to path. A count of 0
// means the whole sample followed by two passes of its loop.
func extractSample(mod *protracker.Module, n int, path string, count int64) (int64, error) {
	sample, err := mod.Sample(n)
	if err != nil {
		return 0, err
	}
	if count <= 0 {
		count = int64(len(sample.Data()))
		if sample.Loops() {
			count += 2 * int64(sample.RepeatLengthBytes())
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("error creating output file: %w", err)
	}
	defer f.Close()

	written, err := io.CopyN(f, sample.NewReader(), count)
	if err != nil && !errors.Is(err, io.EOF) {
		return written, err
	}
	return written, f.Close()
}
