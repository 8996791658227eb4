package unit

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/campsite/cmd/utils"
)

// Handle is one loaded unit: its identity plus the callable serving it.
// Handles are immutable once the loader publishes them.
type Handle struct {
	Name       string    // The identifier declared by app "Name"
	MountName  string    // The lowercased Name, the URL segment the unit is mounted under
	Title      string    // The optional title, defaults to Name
	SourcePath string    // The absolute path the unit was loaded from
	Size       int64     // The source size in bytes
	Digest     string    // The sha256 of the source
	LoadedAt   time.Time // When this version was compiled
	Routes     []string  // The route patterns, in declaration order

	// Err is set on handles standing in for a unit whose source failed to load.
	Err *utils.SourceError

	handler http.Handler
}

// ServeHTTP dispatches to the unit's routes. A broken handle fails with its load error.
func (h *Handle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Err != nil {
		panic(h.Err)
	}
	h.handler.ServeHTTP(w, r)
}

// Broken reports whether the handle stands in for a unit that failed to load.
func (h *Handle) Broken() bool {
	return h.Err != nil
}

func (h *Handle) String() string {
	return h.Name
}

// Broken returns a handle for a unit at path that failed to load. It is mounted
// under mount, or under the file name without extension when mount is empty.
func Broken(path, mount string, err *utils.SourceError) *Handle {
	if mount == "" {
		mount = MountNameForFile(path)
	}
	return &Handle{
		Name:       mount,
		MountName:  mount,
		Title:      mount,
		SourcePath: path,
		LoadedAt:   time.Now(),
		Err:        err,
	}
}

// MountNameForFile derives a mount name from a file name: blog.hcl -> blog.
func MountNameForFile(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// MountNameForName derives the mount name of a declared identifier.
func MountNameForName(name string) string {
	return strings.ToLower(name)
}
