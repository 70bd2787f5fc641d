package parser

import (
	"fmt"
	"os"

	"github.com/ofirbed/DataTaggingLibrary/pkg/pml/ast"
	pmlErrors "github.com/ofirbed/DataTaggingLibrary/pkg/pml/errors"
)

// Parser decodes policy model files into parser output (see package ast).
type Parser struct {
	maxFileSize int64 // Maximum file size in bytes (default: 10MB)
	maxDepth    int   // Maximum instruction nesting depth (default: 64)
}

// NewParser creates a new parser with default configuration.
func NewParser() *Parser {
	return &Parser{
		maxFileSize: 10 * 1024 * 1024, // 10MB
		maxDepth:    64,
	}
}

// WithMaxFileSize sets the maximum file size limit.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	p.maxFileSize = size
	return p
}

// WithMaxDepth sets the maximum instruction nesting depth.
func (p *Parser) WithMaxDepth(depth int) *Parser {
	p.maxDepth = depth
	return p
}

// Parse parses the model file at the given path.
// It returns an error if the file cannot be read, has invalid YAML syntax,
// or contains structural errors.
func (p *Parser) Parse(path string) (*ast.Model, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, &pmlErrors.Error{
			Type:     pmlErrors.ErrorTypeIO,
			Message:  fmt.Sprintf("Failed to access file: %v", err),
			Location: ast.Location{File: path},
			Cause:    err,
		}
	}
	if fileInfo.Size() > p.maxFileSize {
		return nil, &pmlErrors.Error{
			Type:     pmlErrors.ErrorTypeIO,
			Message:  fmt.Sprintf("File size %d exceeds maximum %d bytes", fileInfo.Size(), p.maxFileSize),
			Location: ast.Location{File: path},
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &pmlErrors.Error{
			Type:     pmlErrors.ErrorTypeIO,
			Message:  fmt.Sprintf("Failed to read file: %v", err),
			Location: ast.Location{File: path},
			Cause:    err,
		}
	}
	return p.ParseBytes(data, path)
}

// ParseBytes parses model YAML from a byte slice.
// This is useful for testing or parsing models from memory.
func (p *Parser) ParseBytes(data []byte, sourcePath string) (*ast.Model, error) {
	if int64(len(data)) > p.maxFileSize {
		return nil, &pmlErrors.Error{
			Type:     pmlErrors.ErrorTypeIO,
			Message:  fmt.Sprintf("Data size %d exceeds maximum %d bytes", len(data), p.maxFileSize),
			Location: ast.Location{File: sourcePath},
		}
	}

	root, err := parseYAMLBytes(data)
	if err != nil {
		return nil, &pmlErrors.Error{
			Type:       pmlErrors.ErrorTypeSyntax,
			Message:    fmt.Sprintf("YAML parsing failed: %v", err),
			Location:   ast.Location{File: sourcePath, Line: 1, Column: 1},
			Suggestion: "Check YAML syntax (indentation, colons, quotes)",
			Cause:      err,
		}
	}

	b := newBuilder(sourcePath, p.maxDepth)
	m := b.buildModel(root)
	if b.errors.HasErrors() {
		pmlErrors.AddContextToList(b.errors, data)
		return nil, b.errors
	}
	return m, nil
}
