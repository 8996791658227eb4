package unit

import (
	"fmt"

	"github.com/campsite/cmd/utils"
	"github.com/hashicorp/hcl/v2"
)

const (
	sourceType     = "unit"
	loadErrorTitle = "Unit Load Error"
	evalErrorTitle = "Unit Evaluation Error"
)

// NewLoadError converts hcl diagnostics into the error shown on the diagnostic page.
func NewLoadError(path string, src []byte, diags hcl.Diagnostics) *utils.SourceError {
	return sourceError(loadErrorTitle, path, src, diags)
}

func sourceError(title, path string, src []byte, diags hcl.Diagnostics) *utils.SourceError {
	errs := diags.Errs()
	e := utils.NewError(sourceType, title, path, "")
	if src != nil {
		e.SourceLines = utils.SplitLines(src)
	}
	if len(errs) == 0 {
		e.Description = "unknown error"
		return e
	}

	first := errs[0]
	if diag, ok := first.(*hcl.Diagnostic); ok {
		e.Description = diag.Summary
		if diag.Detail != "" {
			e.Description += "; " + diag.Detail
		}
		if diag.Subject != nil {
			e.Line = diag.Subject.Start.Line
			e.Column = diag.Subject.Start.Column
		}
	} else {
		e.Description = first.Error()
	}
	if len(errs) > 1 {
		e.Description += fmt.Sprintf(" (and %d more)", len(errs)-1)
	}
	return e
}

// readError reports a source that could not be read at all.
func readError(path string, err error) *utils.SourceError {
	return utils.NewError(sourceType, loadErrorTitle, path, err.Error())
}
