package protracker

import (
	"cmp"
	"slices"
)

type periodNote struct {
	period uint16
	name   string
}

// Amiga periods for the three octaves ProTracker can enter, finetune 0.
// Sorted by descending period, i.e. ascending pitch.
var periodTable = [...]periodNote{
	{856, "C-1"}, {808, "C#1"}, {762, "D-1"}, {720, "D#1"}, {678, "E-1"}, {640, "F-1"},
	{604, "F#1"}, {570, "G-1"}, {538, "G#1"}, {508, "A-1"}, {480, "A#1"}, {453, "B-1"},
	{428, "C-2"}, {404, "C#2"}, {381, "D-2"}, {360, "D#2"}, {339, "E-2"}, {320, "F-2"},
	{302, "F#2"}, {285, "G-2"}, {269, "G#2"}, {254, "A-2"}, {240, "A#2"}, {226, "B-2"},
	{214, "C-3"}, {202, "C#3"}, {190, "D-3"}, {180, "D#3"}, {170, "E-3"}, {160, "F-3"},
	{151, "F#3"}, {143, "G-3"}, {135, "G#3"}, {127, "A-3"}, {120, "A#3"}, {113, "B-3"},
}

const (
	MaxPeriod = 856 // C-1, the lowest note in the table.
	MinPeriod = 113 // B-3, the highest note in the table.
)

func findPeriod(period uint16) (int, bool) {
	return slices.BinarySearchFunc(periodTable[:], period, func(e periodNote, target uint16) int {
		return cmp.Compare(target, e.period)
	})
}

// PeriodName returns the note name for an exact table period, e.g. "C-2" for 428.
func PeriodName(period uint16) (string, bool) {
	idx, ok := findPeriod(period)
	if !ok {
		return "", false
	}
	return periodTable[idx].name, true
}

// ShiftPeriod moves a period by a number of half-steps (positive is higher pitch).
// It fails if the period isn't in the table or the result would fall off either end.
func ShiftPeriod(period uint16, halfSteps int) (uint16, bool) {
	idx, ok := findPeriod(period)
	if !ok {
		return 0, false
	}
	idx += halfSteps
	if idx < 0 || idx >= len(periodTable) {
		return 0, false
	}
	return periodTable[idx].period, true
}
