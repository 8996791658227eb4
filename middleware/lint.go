package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/net/http/httpguts"
)

// LintError reports a response that breaks the HTTP contract. It is raised as a
// panic: a unit answering it is broken, not the request.
type LintError struct {
	Message string
}

func (e *LintError) Error() string {
	return "lint: " + e.Message
}

func lintf(format string, args ...interface{}) {
	panic(&LintError{Message: fmt.Sprintf(format, args...)})
}

// Lint checks every response passing through it and panics with a *LintError on
// the first violation.
func Lint(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := buffered(next, r)
		lintResponse(b)
		_ = b.FlushTo(w)
	})
}

func lintResponse(b *Buffer) {
	status := b.Status()
	if status < 100 || status > 999 {
		lintf("status %d is not a three digit code", status)
	}

	for name, values := range b.Header() {
		if !httpguts.ValidHeaderFieldName(name) {
			lintf("invalid header name %q", name)
		}
		for _, v := range values {
			if !httpguts.ValidHeaderFieldValue(v) {
				lintf("invalid value %q for header %s", v, name)
			}
		}
	}

	contentType := b.Header().Get("Content-Type")
	contentLength := b.Header().Get("Content-Length")
	if !bodyAllowed(status) {
		if contentType != "" {
			lintf("Content-Type header found in a %d response, not allowed", status)
		}
		if contentLength != "" {
			lintf("Content-Length header found in a %d response, not allowed", status)
		}
		if len(b.Body()) > 0 {
			lintf("a %d response must not have a body", status)
		}
		return
	}

	if contentType == "" {
		lintf("no Content-Type header found")
	}
	if contentLength != "" {
		n, err := strconv.Atoi(contentLength)
		if err != nil || n < 0 {
			lintf("invalid Content-Length %q", contentLength)
		}
		if n != len(b.Body()) {
			lintf("Content-Length header was %d, but body is %d bytes", n, len(b.Body()))
		}
	}
}
