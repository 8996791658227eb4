package middleware

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strings"

	"github.com/campsite/cmd/utils"
	"github.com/go-stack/stack"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// RequestIDHeader carries the id a diagnostic page was logged under.
const RequestIDHeader = "X-Request-Id"

// HandlerFunc is a handler that may fail.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ShowExceptions runs fn and turns a returned error or a panic into a diagnostic
// page. Once fn started writing the response nothing can be rendered, the error is
// logged and the connection aborted.
func ShowExceptions(fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &trackingWriter{ResponseWriter: w}
		trace, err := run(fn, tw, r)
		if err == nil {
			return
		}

		id := uuid.NewString()
		utils.Logger.Error("Request failed", "request_id", id, "method", r.Method, "path", r.URL.Path, "error", err)
		if tw.wroteHeader {
			utils.Logger.Warn("Response already started, aborting the connection", "request_id", id)
			panic(http.ErrAbortHandler)
		}

		d := newDiagnostic(err, trace, r, id)
		w.Header().Set(RequestIDHeader, id)
		w.Header().Set("Cache-Control", "no-store")
		if acceptsHTML(r) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write(d.HTML())
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(d.Text())
	})
}

// run calls fn, converting a panic into an error. The stack is captured where the
// failure surfaced.
func run(fn HandlerFunc, w http.ResponseWriter, r *http.Request) (trace stack.CallStack, err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if rec == http.ErrAbortHandler {
			panic(rec)
		}
		trace = stack.Trace().TrimRuntime()
		if e, ok := rec.(error); ok {
			err = e
		} else {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	if err = fn(w, r); err != nil {
		trace = stack.Trace().TrimRuntime()
	}
	return
}

type trackingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *trackingWriter) WriteHeader(status int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *trackingWriter) Write(p []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(p)
}

func acceptsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// Diagnostic is everything the error page shows.
type Diagnostic struct {
	RequestID   string
	Title       string
	Type        string
	Description string
	Path        string
	Line        int
	Source      []utils.SourceLine
	Stack       []string
	Method      string
	URL         string
	Headers     []string
}

func newDiagnostic(err error, trace stack.CallStack, r *http.Request, id string) *Diagnostic {
	d := &Diagnostic{
		RequestID:   id,
		Title:       "Internal Server Error",
		Type:        fmt.Sprintf("%T", errors.Cause(err)),
		Description: err.Error(),
		Method:      r.Method,
		URL:         r.URL.String(),
	}

	var serr *utils.SourceError
	var lerr *LintError
	switch {
	case errors.As(err, &serr):
		d.Title = serr.Title
		d.Type = fmt.Sprintf("%T", serr)
		d.Description = serr.Description
		d.Path = serr.Path
		d.Line = serr.Line
		d.Source = serr.ContextSource()
	case errors.As(err, &lerr):
		d.Title = "Lint Error"
		d.Description = lerr.Message
	}

	if st, ok := err.(interface{ StackTrace() errors.StackTrace }); ok {
		for _, f := range st.StackTrace() {
			d.Stack = append(d.Stack, fmt.Sprintf("%+v", f))
		}
	} else {
		for _, c := range trace {
			d.Stack = append(d.Stack, fmt.Sprintf("%+v %n", c, c))
		}
	}

	for name, values := range r.Header {
		d.Headers = append(d.Headers, name+": "+strings.Join(values, ", "))
	}
	sort.Strings(d.Headers)
	return d
}

var diagnosticTemplate = template.Must(template.New("diagnostic").Parse(`<html>
  <head>
    <title>{{.Title}}</title>
    <style type="text/css">
      body { font-family: verdana, arial, sans-serif; padding: 10px 40px; margin: 0; }
      h1 { font-family: utopia, georgia, serif; }
      pre { background: #f4f4f4; padding: 8px; overflow: auto; }
      .source .error { background: #fdd; font-weight: bold; }
      .source .line { color: #888; }
    </style>
  </head>
  <body>
    <h1>{{.Title}}</h1>
    <p><code>{{.Type}}</code>{{if .Path}} in <code>{{.Path}}{{if .Line}}:{{.Line}}{{end}}</code>{{end}}</p>
    <h2>{{.Description}}</h2>
{{- if .Source}}
    <pre class="source">
{{- range .Source}}
<span{{if .IsError}} class="error"{{end}}><span class="line">{{printf "%4d" .Line}}</span>  {{.Source}}</span>
{{- end}}
    </pre>
{{- end}}
    <h3>Request</h3>
    <pre>{{.Method}} {{.URL}}
{{range .Headers}}{{.}}
{{end}}</pre>
    <h3>Stack</h3>
    <pre>{{range .Stack}}{{.}}
{{end}}</pre>
    <p><small>Request id {{.RequestID}}</small></p>
  </body>
</html>
`))

// HTML renders the diagnostic page.
func (d *Diagnostic) HTML() []byte {
	var buf bytes.Buffer
	if err := diagnosticTemplate.Execute(&buf, d); err != nil {
		return []byte(template.HTMLEscapeString(d.Description))
	}
	return buf.Bytes()
}

// Text renders the diagnostic for clients not accepting HTML.
func (d *Diagnostic) Text() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s: %s\n", d.Title, d.Description)
	if d.Path != "" {
		fmt.Fprintf(&buf, "  in %s:%d\n", d.Path, d.Line)
	}
	for _, line := range d.Source {
		marker := " "
		if line.IsError {
			marker = ">"
		}
		fmt.Fprintf(&buf, "%s %4d  %s\n", marker, line.Line, line.Source)
	}
	fmt.Fprintf(&buf, "\n%s %s\n", d.Method, d.URL)
	for _, s := range d.Stack {
		fmt.Fprintf(&buf, "  %s\n", s)
	}
	fmt.Fprintf(&buf, "\nrequest id %s\n", d.RequestID)
	return buf.Bytes()
}
