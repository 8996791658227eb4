// Package reloader keeps the set of unit source paths and the published table of
// loaded units, rebuilt on every reload.
package reloader

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/campsite/cmd/unit"
	"github.com/campsite/cmd/utils"
)

// Apps is a published snapshot of the loaded units keyed by mount name.
// A snapshot is never modified once published.
type Apps map[string]*unit.Handle

// Names returns the mount names of the snapshot, sorted.
func (a Apps) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReloadError lists the units that failed during an isolated reload. The other
// units were published regardless.
type ReloadError struct {
	Errors []*utils.SourceError
}

func (e *ReloadError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	if len(msgs) == 1 {
		return "1 unit failed to load: " + msgs[0]
	}
	return fmt.Sprintf("%d units failed to load: %s", len(msgs), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual load errors to errors.As.
func (e *ReloadError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// Registry tracks the known unit paths and the current Apps snapshot.
type Registry struct {
	loader  *unit.Loader
	ext     string
	isolate bool

	mu     sync.Mutex
	paths  []string // the known unit files, expanded by Update
	loaded []string // the paths of the last published snapshot
	apps   atomic.Pointer[Apps]
}

// NewRegistry returns an empty registry loading through loader. Directories given
// to Update are expanded to their files ending in ext. With isolate set a failing
// unit does not prevent the others from being published.
func NewRegistry(loader *unit.Loader, ext string, isolate bool) *Registry {
	r := &Registry{loader: loader, ext: ext, isolate: isolate}
	r.apps.Store(&Apps{})
	return r
}

// Update replaces the known paths. Files are kept as given, directories contribute
// their immediate unit files and missing paths are skipped. Nothing is loaded.
func (r *Registry) Update(paths ...string) {
	files := utils.SourceFiles(r.ext, paths...)
	for i, file := range files {
		if abs, err := filepath.Abs(file); err == nil {
			files[i] = abs
		}
	}
	r.mu.Lock()
	r.paths = files
	r.mu.Unlock()
}

// Paths returns the known unit files.
func (r *Registry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// Apps returns the current snapshot. Callers must not modify it.
func (r *Registry) Apps() Apps {
	return *r.apps.Load()
}

// Reload loads every known path and publishes the resulting snapshot in one swap.
// Requests already holding the previous snapshot keep using it.
//
// In strict mode the first load error aborts the reload and the previous snapshot
// stays published. In isolated mode failing units are published as broken handles
// and a *ReloadError is returned once the snapshot is live.
func (r *Registry) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.Apps()
	next := Apps{}
	var failed []*utils.SourceError

	for _, path := range r.paths {
		h, err := r.loader.Load(path)
		if err != nil {
			serr := sourceError(path, err)
			if !r.isolate {
				utils.Logger.Error("Reload aborted", "path", path, "error", serr)
				return serr
			}
			failed = append(failed, serr)
			h = unit.Broken(path, r.lastMountName(prev, path), serr)
		}

		if other, found := next[h.MountName]; found {
			if h.Broken() {
				continue
			}
			if !other.Broken() {
				utils.Logger.Warn("Two units share a mount name, the later path wins",
					"mount", h.MountName, "path", h.SourcePath, "previous", other.SourcePath)
			}
		}
		next[h.MountName] = h
	}

	for _, path := range r.loaded {
		if !utils.ContainsString(r.paths, path) {
			r.loader.Forget(path)
			utils.Logger.Info("Unit removed", "path", path)
		}
	}
	r.loaded = append([]string(nil), r.paths...)
	r.apps.Store(&next)

	utils.Logger.Debug("Reloaded units", "apps", next.Names(), "failed", len(failed))
	if len(failed) > 0 {
		return &ReloadError{Errors: failed}
	}
	return nil
}

// lastMountName finds the mount name path was last published under, so a unit
// that breaks stays reachable at its usual address.
func (r *Registry) lastMountName(prev Apps, path string) string {
	if h, found := r.loader.Loaded(path); found {
		return h.MountName
	}
	for _, h := range prev {
		if h.SourcePath == path {
			return h.MountName
		}
	}
	return ""
}

func sourceError(path string, err error) *utils.SourceError {
	if serr, ok := err.(*utils.SourceError); ok {
		return serr
	}
	return utils.NewError("unit", "Unit Load Error", path, err.Error())
}
