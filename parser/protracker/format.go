package protracker

import (
	"fmt"
	"strings"
)

// formatLines formats lines into a table with one column per channel.
// first is the row number of lines[0]; indent is the number of spaces before every table line.
func formatLines(lines []Line, first int, indent int) string {
	const rowLabelWidth = 3

	// Every cell is the same width, note strings are fixed length.
	width := len(Note{}.String())
	headers := make([]string, NumChannels)
	for i := range NumChannels {
		headers[i] = fmt.Sprintf("Channel %d", i)
		width = max(width, len(headers[i]))
	}

	padRight := func(s string, w int) string {
		if len(s) >= w {
			return s
		}
		return s + strings.Repeat(" ", w-len(s))
	}

	var b strings.Builder
	separator := func() {
		b.WriteString(strings.Repeat(" ", indent))
		b.WriteString("+")
		b.WriteString(strings.Repeat("-", rowLabelWidth+2))
		for range NumChannels {
			b.WriteString("+")
			b.WriteString(strings.Repeat("-", width+2)) // +2 for the space padding either side
		}
		b.WriteString("+\n")
	}

	// Header row
	separator()
	b.WriteString(strings.Repeat(" ", indent))
	b.WriteString("| ")
	b.WriteString(padRight("Row", rowLabelWidth))
	b.WriteString(" ")
	for _, header := range headers {
		b.WriteString("| ")
		b.WriteString(padRight(header, width))
		b.WriteString(" ")
	}
	b.WriteString("|\n")
	separator()

	for i, line := range lines {
		b.WriteString(strings.Repeat(" ", indent))
		fmt.Fprintf(&b, "| %0*d ", rowLabelWidth, first+i)
		for _, note := range line {
			b.WriteString("| ")
			b.WriteString(padRight(note.String(), width))
			b.WriteString(" ")
		}
		b.WriteString("|\n")
	}
	separator()

	return b.String()
}

// String pretty-prints all 64 rows of the pattern.
func (p Pattern) String() string {
	lines := make([]Line, 0, RowsPerPattern)
	for _, line := range p.Lines() {
		lines = append(lines, line)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Pattern %d:\n", p.Index())
	b.WriteString(formatLines(lines, 0, 2))
	return b.String()
}

// String pretty-prints the header, song positions and sample table.
func (m *Module) String() string {
	var b strings.Builder
	b.WriteString("ProTracker module:\n")
	fmt.Fprintf(&b, "- Name: %s\n", m.Name())
	fmt.Fprintf(&b, "- Size: %d bytes\n", m.Len())
	fmt.Fprintf(&b, "- Song length: %d\n", m.SongLength())
	fmt.Fprintf(&b, "- Patterns: %d\n", m.NumPatterns())

	b.WriteString("- Positions:")
	for i, p := range m.SongPositions() {
		if i%16 == 0 {
			b.WriteString("\n   ")
		}
		fmt.Fprintf(&b, " %3d", p)
	}
	b.WriteString("\n")

	b.WriteString("- Samples:\n")
	for s := range m.Samples() {
		if s.Length() == 0 && len(s.Name()) == 0 {
			continue // Unused slot.
		}
		fmt.Fprintf(&b, "  - #%02d %-22q %6d bytes, vol %2d, finetune %X", s.Number(), s.Name(), s.LengthBytes(), s.Volume(), s.Finetune())
		if s.Loops() {
			fmt.Fprintf(&b, ", loop %d+%d", s.RepeatPointBytes(), s.RepeatLengthBytes())
		}
		b.WriteString("\n")
	}

	return b.String()
}
