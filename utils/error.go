package utils

import (
	"fmt"
)

// The error is a wrapper for a unit source that failed to load.
type (
	SourceError struct {
		SourceType               string   // The type of source that failed to load.
		Title, Path, Description string   // Description of the error, as presented to the user.
		Line, Column             int      // Where the error was encountered.
		SourceLines              []string // The entire source file, split into lines.
		Stack                    string   // The raw stack trace string.
		MetaError                string   // Error that occurred producing the error page.
	}
	SourceLine struct {
		Source  string
		Line    int
		IsError bool
	}
)

// Return a new error object.
func NewError(source, title, path, description string) *SourceError {
	return &SourceError{
		SourceType:  source,
		Title:       title,
		Path:        path,
		Description: description,
	}
}

// Error method constructs a plaintext version of the error, taking
// account that fields are optionally set. Returns e.g. Unit Load Error
// (in apps/blog.hcl:12): Unsupported argument; An argument named "bdy" is not expected here.
func (e *SourceError) Error() string {
	if e == nil {
		return "<nil>"
	}
	loc := ""
	if e.Path != "" {
		line := ""
		if e.Line != 0 {
			line = fmt.Sprintf(":%d", e.Line)
		}
		loc = fmt.Sprintf("(in %s%s)", e.Path, line)
	}
	header := loc
	if e.Title != "" {
		if loc != "" {
			header = fmt.Sprintf("%s %s: ", e.Title, loc)
		} else {
			header = fmt.Sprintf("%s: ", e.Title)
		}
	}
	return fmt.Sprintf("%s%s", header, e.Description)
}

// ContextSource method returns a snippet of the source around
// where the error occurred.
func (e *SourceError) ContextSource() []SourceLine {
	if e.SourceLines == nil {
		return nil
	}
	start := (e.Line - 1) - 5
	if start < 0 {
		start = 0
	}
	end := (e.Line - 1) + 5
	if end > len(e.SourceLines) {
		end = len(e.SourceLines)
	}
	if start >= end {
		return nil
	}

	lines := make([]SourceLine, end-start)
	for i, src := range e.SourceLines[start:end] {
		fileLine := start + i + 1
		lines[i] = SourceLine{src, fileLine, fileLine == e.Line}
	}
	return lines
}
