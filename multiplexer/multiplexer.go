// Package multiplexer builds the routing table that maps request paths onto the
// units of a published snapshot.
package multiplexer

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/campsite/cmd/reloader"
	"github.com/campsite/cmd/unit"
)

type contextKey string

// UnitContextKey holds the *unit.Handle a request was dispatched to.
const UnitContextKey = contextKey("unit")

// CodePrefix is the path segment serving unit sources.
const CodePrefix = "code"

// UnitFromContext returns the unit a request was dispatched to, if any.
func UnitFromContext(ctx context.Context) (*unit.Handle, bool) {
	h, ok := ctx.Value(UnitContextKey).(*unit.Handle)
	return h, ok
}

// Build returns the routing table for apps. Without units every path answers the
// index page, a single unit is mounted at the root, several units are mounted
// under their mount names next to the index page and their source links.
func Build(apps reloader.Apps) http.Handler {
	switch len(apps) {
	case 0:
		return indexHandler(IndexPage(apps))
	case 1:
		for _, h := range apps {
			return mounted(h, "", func(r *http.Request) *http.Request { return r })
		}
	}
	return &urlMap{apps: apps, index: indexHandler(IndexPage(apps))}
}

type urlMap struct {
	apps  reloader.Apps
	index http.Handler
}

func (m *urlMap) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	head, rest := splitPath(r.URL.Path)
	if head == "" {
		m.index.ServeHTTP(w, r)
		return
	}

	if head == CodePrefix {
		if mount, tail := splitPath(rest); tail == "/" || tail == "" {
			if h, found := m.apps[mount]; found {
				sourceHandler(h).ServeHTTP(w, r)
				return
			}
		}
	}

	if h, found := m.apps[head]; found {
		mounted(h, "/"+head, func(r *http.Request) *http.Request { return stripPrefix(r, rest) }).ServeHTTP(w, r)
		return
	}
	http.NotFound(w, r)
}

// splitPath splits "/blog/posts/1" into "blog" and "/posts/1". The rest keeps
// its leading slash, it is empty when the path has a single segment.
func splitPath(path string) (head, rest string) {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i], path[i:]
	}
	return path, ""
}

func mounted(h *unit.Handle, prefix string, rewrite func(*http.Request) *http.Request) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = rewrite(r)
		if prefix != "" {
			w = &mountWriter{ResponseWriter: w, prefix: prefix}
		}
		h.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), UnitContextKey, h)))
	})
}

// mountWriter moves absolute redirects issued by a unit under its mount point.
// Units see paths with the mount prefix stripped, so "/posts/" means
// "/blog/posts/" to the client.
type mountWriter struct {
	http.ResponseWriter
	prefix      string
	wroteHeader bool
}

func (w *mountWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		if loc := w.Header().Get("Location"); strings.HasPrefix(loc, "/") && !strings.HasPrefix(loc, "//") {
			w.Header().Set("Location", w.prefix+loc)
		}
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *mountWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(p)
}

// stripPrefix returns a copy of r whose path is rest, "/" when rest is empty.
func stripPrefix(r *http.Request, rest string) *http.Request {
	if rest == "" {
		rest = "/"
	}
	r2 := new(http.Request)
	*r2 = *r
	r2.URL = new(url.URL)
	*r2.URL = *r.URL
	r2.URL.Path = rest
	r2.URL.RawPath = ""
	return r2
}

// sourceHandler answers with a send-file directive for the unit source.
func sourceHandler(h *unit.Handle) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set(unit.SendFileHeader, h.SourcePath)
		w.WriteHeader(http.StatusOK)
	})
}

func indexHandler(page []byte) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(page)
	})
}
