package middleware

import (
	"net/http"
	"os"
	"strconv"

	"github.com/campsite/cmd/utils"
)

// SendFileHeaders are the send-file directives understood, in priority order.
var SendFileHeaders = []string{"X-Sendfile", "X-Accel-Redirect", "X-Lighttpd-Send-File"}

// XSendfile replaces the body of responses carrying a send-file directive with
// the named file. A file that cannot be read leaves the response unchanged.
func XSendfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := buffered(next, r)
		for _, name := range SendFileHeaders {
			path := b.Header().Get(name)
			if path == "" {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				utils.Logger.Warn("Send-file target not readable", "header", name, "path", path, "error", err)
				break
			}
			b.SetBody(data)
			b.Header().Set("Content-Length", strconv.Itoa(len(data)))
			break
		}
		if err := b.FlushTo(w); err != nil {
			utils.Logger.Debug("Response write failed", "path", r.URL.Path, "error", err)
		}
	})
}
