package errors

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ofirbed/DataTaggingLibrary/pkg/pml/ast"
)

// ExtractContext reads the model file and extracts the surrounding lines
// around the given location for error context display.
func ExtractContext(location ast.Location, contextLines int) string {
	if !location.IsValid() {
		return ""
	}

	data, err := os.ReadFile(location.File)
	if err != nil {
		// File not accessible, return empty context
		return ""
	}
	return ExtractContextFromSource(data, location, contextLines)
}

// ExtractContextFromSource is ExtractContext for a source already in memory.
// Only the line and column of location are used.
func ExtractContextFromSource(src []byte, location ast.Location, contextLines int) string {
	if location.Line <= 0 {
		return ""
	}
	lines := strings.Split(string(bytes.TrimRight(src, "\n")), "\n")

	errorLine := location.Line - 1
	if errorLine >= len(lines) {
		return ""
	}
	startLine := max(errorLine-contextLines, 0)
	endLine := min(errorLine+contextLines, len(lines)-1)

	var sb strings.Builder
	width := len(fmt.Sprintf("%d", endLine+1))

	for i := startLine; i <= endLine; i++ {
		prefix := "  "
		if i == errorLine {
			prefix = "->"
		}
		sb.WriteString(fmt.Sprintf("%s %*d | %s\n", prefix, width, i+1, lines[i]))

		if i == errorLine && location.Column > 0 {
			sb.WriteString(fmt.Sprintf("   %s | %s^\n", strings.Repeat(" ", width), strings.Repeat(" ", location.Column-1)))
		}
	}

	return sb.String()
}

// WithContext fills in the context of err from the file it points at.
func WithContext(err *Error, contextLines int) *Error {
	if err.Location.IsValid() {
		err.Context = ExtractContext(err.Location, contextLines)
	}
	return err
}

// AddContextToList enriches every error of the list from src.
func AddContextToList(el *ErrorList, src []byte) {
	for _, err := range el.Errors {
		if err.Context == "" {
			err.Context = ExtractContextFromSource(src, err.Location, 2)
		}
	}
}
