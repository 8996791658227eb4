package middleware

import (
	"net/http"
	"strconv"

	"github.com/campsite/cmd/utils"
)

// ContentLength sets Content-Length on every response whose status allows a body.
func ContentLength(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := buffered(next, r)
		if bodyAllowed(b.Status()) {
			b.Header().Set("Content-Length", strconv.Itoa(len(b.Body())))
		}
		if err := b.FlushTo(w); err != nil {
			utils.Logger.Debug("Response write failed", "path", r.URL.Path, "error", err)
		}
	})
}

// Chain wraps the routing table in the response middleware, outermost first:
// send-file substitution, linting and Content-Length.
func Chain(h http.Handler) http.Handler {
	return XSendfile(Lint(ContentLength(h)))
}
