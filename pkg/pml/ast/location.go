package ast

import "strconv"

// Location is a 1-based position in a model file. Nodes built from an
// in-memory source have an empty File.
type Location struct {
	File   string
	Line   int
	Column int
}

// String formats l as file:line:col, falling back to "line N:C" without a
// file and to "<unknown>" without a line.
func (l Location) String() string {
	if l.Line <= 0 && l.File == "" {
		return "<unknown>"
	}
	pos := strconv.Itoa(l.Line) + ":" + strconv.Itoa(l.Column)
	if l.File == "" {
		return "line " + pos
	}
	return l.File + ":" + pos
}

func (l Location) IsValid() bool { return l.File != "" && l.Line > 0 }
