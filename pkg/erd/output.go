package erd

import "strings"

// Line is one line of decompiled output.
type Line struct {
	Indent int    `json:"indent"`
	Text   string `json:"text"`
}

// LineBuffer is the append-only output of one pass.
type LineBuffer struct {
	lines []Line
}

// Append adds a line.
func (b *LineBuffer) Append(indent int, text string) {
	b.lines = append(b.lines, Line{Indent: indent, Text: text})
}

// Lines returns a copy of the buffered lines.
func (b *LineBuffer) Lines() []Line {
	out := make([]Line, len(b.lines))
	copy(out, b.lines)
	return out
}

// Len returns the number of buffered lines.
func (b *LineBuffer) Len() int {
	return len(b.lines)
}

// String renders the buffer: each line prefixed with one tab per indent
// level and terminated by a newline. An empty buffer renders as "".
func (b *LineBuffer) String() string {
	var sb strings.Builder
	for _, l := range b.lines {
		sb.WriteString(strings.Repeat("\t", l.Indent))
		sb.WriteString(l.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (b *LineBuffer) reset() {
	b.lines = b.lines[:0]
}
