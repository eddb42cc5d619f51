package protracker

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/QEStudios/ModSequencer/internal/modtest"
	"github.com/davecgh/go-spew/spew"
)

func openTestModule(t *testing.T, b *modtest.Builder) *Module {
	t.Helper()
	mod, err := Open(b.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	return mod
}

func TestOpenRejectsBadFiles(t *testing.T) {
	valid := modtest.New().Bytes()

	tooSmall := valid[:minimumLength-1]
	if mod, err := Open(tooSmall); !errors.Is(err, ErrFileTooSmall) || mod != nil {
		t.Errorf("Expected ErrFileTooSmall and no module, got %v, %v", mod, err)
	}
	if _, err := Open(nil); !errors.Is(err, ErrFileTooSmall) {
		t.Errorf("Expected ErrFileTooSmall for nil data, got %v", err)
	}

	wrongMagic := bytes.Clone(valid)
	copy(wrongMagic[magicOffset:], "FLT4")
	if mod, err := Open(wrongMagic); !errors.Is(err, ErrWrongMagicValue) || mod != nil {
		t.Errorf("Expected ErrWrongMagicValue and no module, got %v, %v", mod, err)
	}

	// Length is checked before the magic value.
	if _, err := Open(wrongMagic[:100]); !errors.Is(err, ErrFileTooSmall) {
		t.Errorf("Expected ErrFileTooSmall for short file with bad magic, got %v", err)
	}

	if _, err := Open(valid); err != nil {
		t.Errorf("Expected valid module to open, got %v", err)
	}
}

func TestHeader(t *testing.T) {
	mod := openTestModule(t, modtest.New().Title("axel f").Positions(0, 2, 1, 2))

	if string(mod.Name()) != "axel f" {
		t.Errorf("Incorrect song title %q", mod.Name())
	}
	if mod.SongLength() != 4 {
		t.Errorf("Expected song length 4, got %d", mod.SongLength())
	}
	if !bytes.Equal(mod.SongPositions(), []byte{0, 2, 1, 2}) {
		t.Errorf("Incorrect song positions %v", mod.SongPositions())
	}
	if mod.NumPatterns() != 3 {
		t.Errorf("Expected 3 patterns, got %d", mod.NumPatterns())
	}

	if p, err := mod.SongPosition(1); err != nil || p != 2 {
		t.Errorf("Expected pattern 2 at position 1, got %d, %v", p, err)
	}
	for _, idx := range []int{-1, 4, 127} {
		if _, err := mod.SongPosition(idx); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Expected ErrOutOfRange for position %d, got %v", idx, err)
		}
	}
}

func TestNumPatternsCountsWholePositionTable(t *testing.T) {
	data := modtest.New().Positions(0, 1).Bytes()
	// Unused entry past the song length.
	data[positionsOffset+5] = 4
	mod, err := Open(data)
	if err != nil {
		t.Fatal(err)
	}
	if mod.NumPatterns() != 5 {
		t.Errorf("Expected 5 patterns, got %d", mod.NumPatterns())
	}
	// Pattern 4 is counted but the file doesn't hold it.
	if _, err := mod.Pattern(4); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Expected truncated pattern to be out of range, got %v", err)
	}
	if _, err := mod.Pattern(1); err != nil {
		t.Errorf("Expected pattern 1 to exist, got %v", err)
	}
}

func TestPatternLookup(t *testing.T) {
	mod := openTestModule(t, modtest.New().Positions(0, 1))

	for _, n := range []int{-1, 2, 200} {
		if _, err := mod.Pattern(n); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Expected ErrOutOfRange for pattern %d, got %v", n, err)
		}
	}

	p, err := mod.Pattern(1)
	if err != nil {
		t.Fatal(err)
	}
	if p.Index() != 1 {
		t.Errorf("Expected pattern index 1, got %d", p.Index())
	}

	rows := 0
	for range p.Lines() {
		rows++
	}
	if rows != RowsPerPattern {
		t.Errorf("Expected %d lines, got %d", RowsPerPattern, rows)
	}
	if _, ok := p.Line(RowsPerPattern); ok {
		t.Errorf("Expected no line %d", RowsPerPattern)
	}
	if _, ok := p.Line(-1); ok {
		t.Errorf("Expected no line -1")
	}

	count := 0
	for range mod.Patterns() {
		count++
	}
	if count != 2 {
		t.Errorf("Expected to iterate 2 patterns, got %d", count)
	}
}

func TestNoteDecoding(t *testing.T) {
	note := Note{0x10 | 0x01, 0xAC, 0x20 | 0x0C, 0x40}

	for range 2 {
		if note.SampleNumber() != 0x12 {
			t.Errorf("Expected sample 0x12, got %#x", note.SampleNumber())
		}
		if note.Period() != 428 {
			t.Errorf("Expected period 428, got %d", note.Period())
		}
		if note.EffectWord() != 0xC40 {
			t.Errorf("Expected effect 0xC40, got %#x", note.EffectWord())
		}
		if e := note.Effect(); e != (Effect{Kind: SetVolume, Arg: 0x40}) {
			t.Errorf("Expected SetVolume(40), got %v", e)
		}
	}

	if name, ok := note.MusicalNote(); !ok || name != "C-2" {
		t.Errorf("Expected C-2, got %q", name)
	}
	if note.String() != "C-2 18 C40" {
		t.Errorf("Unexpected note string %q", note.String())
	}
	if note.IsEmpty() {
		t.Errorf("Expected note to not be empty")
	}
	if !(Note{}).IsEmpty() {
		t.Errorf("Expected zero note to be empty")
	}
	if (Note{0, 0, 0, 1}).IsEmpty() {
		t.Errorf("Expected note with only an effect argument to not be empty")
	}
}

func TestNotesMatchBuilder(t *testing.T) {
	mod := openTestModule(t, modtest.New().
		Note(0, 0, 0, 1, 428, 0xF03).
		Note(0, 0, 3, 31, 113, 0xA0F).
		Note(0, 63, 2, 17, 856, 0x000))

	p, err := mod.Pattern(0)
	if err != nil {
		t.Fatal(err)
	}

	expected := []struct {
		row, channel int
		sample       uint8
		period       uint16
		effect       Effect
	}{
		{0, 0, 1, 428, Effect{SetSpeed, 3}},
		{0, 1, 0, 0, Effect{}},
		{0, 3, 31, 113, Effect{VolumeSlide, 0x0F}},
		{63, 2, 17, 856, Effect{}},
	}
	for _, ex := range expected {
		line, ok := p.Line(ex.row)
		if !ok {
			t.Fatalf("Missing line %d", ex.row)
		}
		note := line[ex.channel]
		if note.SampleNumber() != ex.sample || note.Period() != ex.period || note.Effect() != ex.effect {
			t.Errorf("Row %d channel %d: expected %d/%d/%v, got %s", ex.row, ex.channel, ex.sample, ex.period, ex.effect, spew.Sdump(note))
		}
	}
}

func TestDecodeEffect(t *testing.T) {
	tests := []struct {
		word uint16
		want Effect
	}{
		{0x000, Effect{}},
		{0x037, Effect{Arpeggio, 0x37}},
		{0x1FF, Effect{SlideUp, 0xFF}},
		{0x203, Effect{SlideDown, 0x03}},
		{0x310, Effect{SlideToNote, 0x10}},
		{0x412, Effect{Vibrato, 0x12}},
		{0x501, Effect{SlideNoteVolume, 0x01}},
		{0x610, Effect{VibratoSlide, 0x10}},
		{0x744, Effect{Tremolo, 0x44}},
		{0x812, Effect{}},
		{0x923, Effect{SampleOffset, 0x23}},
		{0xA0F, Effect{VolumeSlide, 0x0F}},
		{0xB01, Effect{PositionJump, 0x01}},
		{0xC40, Effect{SetVolume, 0x40}},
		{0xD12, Effect{PatternBreak, 0x12}},
		{0xE12, Effect{}},
		{0xF06, Effect{SetSpeed, 0x06}},
	}
	for _, tt := range tests {
		if got := DecodeEffect(tt.word); got != tt.want {
			t.Errorf("DecodeEffect(%#03x) = %v, want %v", tt.word, got, tt.want)
		}
	}
}

func TestDecodeEffectIsTotal(t *testing.T) {
	for word := uint16(0); word <= 0x0FFF; word++ {
		e := DecodeEffect(word)
		cmd := word >> 8
		unsupported := word == 0 || cmd == 0x8 || cmd == 0xE
		if unsupported != (e.Kind == NoEffect) {
			t.Fatalf("DecodeEffect(%#03x) = %v", word, e)
		}
		if e.Kind != NoEffect {
			if e.Arg != uint8(word) {
				t.Fatalf("DecodeEffect(%#03x) lost its argument: %v", word, e)
			}
			if uint16(e.Command()) != cmd {
				t.Fatalf("DecodeEffect(%#03x).Command() = %X", word, e.Command())
			}
		}
	}
}

func TestEffectArguments(t *testing.T) {
	tests := []struct {
		arg   uint8
		delta int
	}{
		{0x00, 0},
		{0x10, 1},
		{0xF0, 15},
		{0x01, -1},
		{0x0F, -15},
		{0x3A, 3}, // Up wins.
	}
	for _, tt := range tests {
		e := Effect{Kind: VolumeSlide, Arg: tt.arg}
		if e.VolumeDelta() != tt.delta {
			t.Errorf("VolumeDelta(%02X) = %d, want %d", tt.arg, e.VolumeDelta(), tt.delta)
		}
	}

	if row := (Effect{Kind: PatternBreak, Arg: 0x12}).BreakRow(); row != 12 {
		t.Errorf("Expected break to row 12, got %d", row)
	}
	if s := (Effect{Kind: SetSpeed, Arg: 3}).String(); s != "SetSpeed(03)" {
		t.Errorf("Unexpected effect string %q", s)
	}
}

func TestSamples(t *testing.T) {
	mod := openTestModule(t, modtest.New().
		Sample(1, modtest.Sample{Name: "brazzstring1", Volume: 64, Finetune: 0xF5, RepeatLength: modtest.NoLoop, Data: []int8{1, 2}}).
		Sample(2, modtest.Sample{Name: "49-Bass5", Volume: 70, RepeatPoint: 1, RepeatLength: 2, Data: []int8{3, 4, 5, 6, 7, 8}}).
		Sample(31, modtest.Sample{Name: "last", Volume: 10, RepeatLength: modtest.NoLoop, Data: []int8{-1, -128}}))

	s1, err := mod.Sample(1)
	if err != nil {
		t.Fatal(err)
	}
	if string(s1.Name()) != "brazzstring1" {
		t.Errorf("Unexpected name %q", s1.Name())
	}
	if s1.Length() != 1 || s1.LengthBytes() != 2 {
		t.Errorf("Expected 1 word, got %d (%d bytes)", s1.Length(), s1.LengthBytes())
	}
	if s1.Finetune() != 0x05 {
		t.Errorf("Expected finetune 5, got %d", s1.Finetune())
	}
	if s1.Loops() {
		t.Errorf("Expected sample 1 to not loop")
	}

	s2, err := mod.Sample(2)
	if err != nil {
		t.Fatal(err)
	}
	if s2.Volume() != 70 {
		t.Errorf("Expected unclamped volume 70, got %d", s2.Volume())
	}
	if !s2.Loops() || s2.RepeatPointBytes() != 2 || s2.RepeatLengthBytes() != 4 {
		t.Errorf("Unexpected loop %v %d+%d", s2.Loops(), s2.RepeatPointBytes(), s2.RepeatLengthBytes())
	}
	if !bytes.Equal(s2.Data(), []byte{3, 4, 5, 6, 7, 8}) {
		t.Errorf("Sample 2 data is wrong: %v", s2.Data())
	}

	s31, err := mod.Sample(31)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(s31.Data(), []byte{0xFF, 0x80}) {
		t.Errorf("Sample 31 data is wrong: %v", s31.Data())
	}

	for _, n := range []int{0, 32, -1} {
		if _, err := mod.Sample(n); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Expected ErrOutOfRange for sample %d, got %v", n, err)
		}
	}

	count := 0
	for s := range mod.Samples() {
		count++
		if s.Number() != count {
			t.Errorf("Expected sample %d, got %d", count, s.Number())
		}
	}
	if count != NumSamples {
		t.Errorf("Expected %d samples, got %d", NumSamples, count)
	}
}

func TestZeroLengthRepeatLoops(t *testing.T) {
	mod := openTestModule(t, modtest.New().Sample(1, modtest.Sample{RepeatLength: 0, Data: []int8{1, 2}}))
	s, err := mod.Sample(1)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Loops() {
		t.Errorf("Expected repeat length 0 to be treated as a loop")
	}
}

func TestTruncatedSampleData(t *testing.T) {
	data := modtest.New().
		Sample(1, modtest.Sample{RepeatLength: modtest.NoLoop, Data: make([]int8, 100)}).
		Sample(2, modtest.Sample{RepeatLength: modtest.NoLoop, Data: make([]int8, 100)}).
		Bytes()
	data = data[:len(data)-150]

	mod, err := Open(data)
	if err != nil {
		t.Fatal(err)
	}
	s1, _ := mod.Sample(1)
	if len(s1.Data()) != 50 {
		t.Errorf("Expected sample 1 cut to 50 bytes, got %d", len(s1.Data()))
	}
	s2, _ := mod.Sample(2)
	if len(s2.Data()) != 0 || s2.LengthBytes() != 100 {
		t.Errorf("Expected sample 2 to be empty but declare 100 bytes, got %d/%d", len(s2.Data()), s2.LengthBytes())
	}

	warnings := mod.Lint()
	found := 0
	for _, w := range warnings {
		if strings.HasPrefix(w.Where, "sample ") && strings.Contains(w.Message, "only") {
			found++
		}
	}
	if found != 2 {
		t.Errorf("Expected 2 truncation warnings, got %v", warnings)
	}
}

func TestSampleReader(t *testing.T) {
	mod := openTestModule(t, modtest.New().
		Sample(1, modtest.Sample{RepeatLength: modtest.NoLoop, Data: []int8{1, 2, 3, 4}}).
		Sample(2, modtest.Sample{RepeatPoint: 1, RepeatLength: 2, Data: []int8{1, 2, 3, 4, 5, 6}}))

	s1, _ := mod.Sample(1)
	got, err := io.ReadAll(s1.NewReader())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("Non-looping sample read %v", got)
	}

	s2, _ := mod.Sample(2)
	buf := make([]byte, 12)
	if _, err := io.ReadFull(s2.NewReader(), buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, []byte{1, 2, 3, 4, 5, 6, 3, 4, 5, 6, 3, 4}) {
		t.Errorf("Looping sample read %v", buf)
	}
}

func TestPeriods(t *testing.T) {
	tests := []struct {
		period    uint16
		halfSteps int
		want      uint16
		ok        bool
	}{
		{428, 0, 428, true},
		{428, 1, 404, true},
		{428, 12, 214, true},
		{428, -12, 856, true},
		{113, 1, 0, false},
		{856, -1, 0, false},
		{427, 1, 0, false},
	}
	for _, tt := range tests {
		got, ok := ShiftPeriod(tt.period, tt.halfSteps)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ShiftPeriod(%d, %d) = %d, %v, want %d, %v", tt.period, tt.halfSteps, got, ok, tt.want, tt.ok)
		}
	}

	for i, e := range periodTable {
		if name, ok := PeriodName(e.period); !ok || name != e.name {
			t.Errorf("PeriodName(%d) = %q, want %q", e.period, name, e.name)
		}
		if i > 0 && periodTable[i-1].period <= e.period {
			t.Errorf("Period table not sorted at %d", i)
		}
	}
}

func TestLint(t *testing.T) {
	mod := openTestModule(t, modtest.New().
		Sample(1, modtest.Sample{Volume: 70, RepeatPoint: 2, RepeatLength: 4, Data: make([]int8, 8)}).
		Note(0, 0, 0, 1, 428, 0xE12).
		Note(0, 1, 0, 1, 428, 0xE34).
		Note(0, 2, 1, 0, 0, 0x812))

	var messages []string
	for _, w := range mod.Lint() {
		messages = append(messages, w.String())
	}
	joined := strings.Join(messages, "\n")

	for _, want := range []string{
		"sample 1: volume 70 is above 64",
		"sample 1: loop 4+8 runs past the end",
		"pattern 0 row 0 channel 0: effect command E is not supported",
		"pattern 0 row 2 channel 1: effect command 8 is not supported",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("Expected warning %q in:\n%s", want, joined)
		}
	}
	if strings.Count(joined, "command E") != 1 {
		t.Errorf("Expected command E to be reported once:\n%s", joined)
	}
}

func TestString(t *testing.T) {
	mod := openTestModule(t, modtest.New().
		Title("demo").
		Sample(1, modtest.Sample{Name: "bass", Volume: 64, RepeatLength: modtest.NoLoop, Data: make([]int8, 4)}).
		Note(0, 0, 0, 1, 428, 0xC20))

	s := mod.String()
	for _, want := range []string{"- Name: demo", "- Patterns: 1", `#01 "bass"`} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected %q in module string:\n%s", want, s)
		}
	}

	p, _ := mod.Pattern(0)
	ps := p.String()
	if !strings.Contains(ps, "| 000 | C-2 01 C20") {
		t.Errorf("Expected first row in pattern string:\n%s", ps)
	}
	if !strings.Contains(ps, "| 063 | --- 00 000") {
		t.Errorf("Expected last row in pattern string:\n%s", ps)
	}
}
