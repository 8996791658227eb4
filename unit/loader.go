// Package unit loads unit sources, small HCL files declaring one app and its
// routes, into handles the host can mount and serve.
package unit

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/campsite/cmd/utils"
	"github.com/zclconf/go-cty/cty/function"
)

// Loader owns the process-wide unit namespace: every handle it loaded, by source
// path and by identifier. Loading a path again replaces its entry.
type Loader struct {
	db    *sql.DB
	funcs map[string]function.Function

	mu     sync.Mutex
	byPath map[string]*Handle
	byName map[string]*Handle
}

// NewLoader returns a loader whose query routes run against db, which may be nil.
func NewLoader(db *sql.DB) *Loader {
	return &Loader{
		db:     db,
		funcs:  Functions(),
		byPath: map[string]*Handle{},
		byName: map[string]*Handle{},
	}
}

// Load loads or reloads the unit at path. Unchanged sources return the handle of
// the previous load. A source that cannot be read, parsed or decoded fails with a
// *utils.SourceError and leaves the namespace untouched.
func (l *Loader) Load(path string) (*Handle, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, readError(path, err)
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, readError(abs, err)
	}
	sum := sha256.Sum256(src)
	digest := hex.EncodeToString(sum[:])

	l.mu.Lock()
	defer l.mu.Unlock()

	if prev, found := l.byPath[abs]; found && prev.Digest == digest {
		return prev, nil
	}

	c := &compiler{path: abs, src: src, db: l.db, funcs: l.funcs}
	h, serr := c.compile()
	if serr != nil {
		return nil, serr
	}
	h.Digest = digest
	h.LoadedAt = time.Now()
	l.publish(abs, h)

	utils.Logger.Debug("Loaded unit", "name", h.Name, "path", abs, "routes", len(h.Routes))
	return h, nil
}

// publish records h for path; an identifier the path declared before is dropped.
func (l *Loader) publish(path string, h *Handle) {
	if prev, found := l.byPath[path]; found && prev.MountName != h.MountName {
		if l.byName[prev.MountName] == prev {
			delete(l.byName, prev.MountName)
		}
		utils.Logger.Info("Unit renamed", "path", path, "from", prev.Name, "to", h.Name)
	}
	if other, found := l.byName[h.MountName]; found && other.SourcePath != path {
		utils.Logger.Warn("Unit name declared twice, the last load wins",
			"name", h.Name, "path", path, "previous", other.SourcePath)
	}
	l.byPath[path] = h
	l.byName[h.MountName] = h
}

// Lookup finds a loaded unit by identifier, case insensitively.
func (l *Loader) Lookup(name string) (*Handle, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, found := l.byName[MountNameForName(name)]
	return h, found
}

// Loaded returns the last successfully loaded handle for path.
func (l *Loader) Loaded(path string) (*Handle, bool) {
	abs, _ := filepath.Abs(path)
	l.mu.Lock()
	defer l.mu.Unlock()
	h, found := l.byPath[abs]
	return h, found
}

// Forget drops path and the identifier it declared from the namespace.
func (l *Loader) Forget(path string) {
	abs, _ := filepath.Abs(path)
	l.mu.Lock()
	defer l.mu.Unlock()
	h, found := l.byPath[abs]
	if !found {
		return
	}
	delete(l.byPath, abs)
	if l.byName[h.MountName] == h {
		delete(l.byName, h.MountName)
	}
}
