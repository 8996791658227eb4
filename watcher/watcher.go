// Copyright (c) 2012-2016 The Revel Framework Authors, All rights reserved.
// Revel Framework source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/campsite/cmd/model"
	"github.com/campsite/cmd/utils"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Listener is an interface for receivers of filesystem events.
type Listener interface {
	// Refresh is invoked by the watcher on relevant filesystem events.
	// If the listener returns an error, it is logged and served on the next request.
	Refresh() *utils.SourceError
}

// DiscerningListener allows the receiver to selectively watch files.
type DiscerningListener interface {
	Listener
	WatchFile(basename string) bool
}

// Watcher notifies listeners of changes to the unit sources under a set of roots.
// Directories are watched without recursing, like unit discovery.
type Watcher struct {
	// Parallel arrays of watcher/listener pairs.
	watchers            []*fsnotify.Watcher
	listeners           []Listener
	forceRefresh        bool
	lastError           int
	notifyMutex         sync.Mutex
	refreshTimer        *time.Timer // The timer to countdown the next refresh
	timerMutex          *sync.Mutex // A mutex to prevent concurrent updates
	refreshChannel      chan *utils.SourceError
	refreshChannelCount int
	refreshInterval     time.Duration // The quiet period before a refresh
	done                chan struct{}
	closeOnce           sync.Once
}

// NewWatcher creates a watcher using the watch delay of the container.
func NewWatcher(hc *model.HostContainer) *Watcher {
	return &Watcher{
		forceRefresh:    true,
		lastError:       -1,
		refreshInterval: time.Duration(hc.WatchDelay) * time.Millisecond,
		timerMutex:      &sync.Mutex{},
		refreshChannel:  make(chan *utils.SourceError, 10),
		done:            make(chan struct{}),
	}
}

// Listen registers listener for events on the given roots. A directory root is
// watched itself, a file root through its directory so editors replacing the file
// keep being noticed. Changes are forwarded eagerly.
func (w *Watcher) Listen(listener Listener, roots ...string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "watcher: failed to create watcher")
	}

	added := map[string]bool{}
	for _, p := range roots {
		// is the directory / file a symlink?
		f, err := os.Lstat(p)
		if err == nil && f.Mode()&os.ModeSymlink == os.ModeSymlink {
			if realPath, err := filepath.EvalSymlinks(p); err == nil {
				p = realPath
			}
		}

		fi, err := os.Stat(p)
		if err != nil {
			utils.Logger.Warn("Watcher: Failed to stat watched path", "path", p, "error", err)
			continue
		}
		dir := p
		if !fi.IsDir() {
			dir = filepath.Dir(p)
		}
		if added[dir] {
			continue
		}
		if err = watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return errors.Wrapf(err, "watcher: failed to watch %s", dir)
		}
		added[dir] = true
		utils.Logger.Debug("Watcher: watching", "path", dir)
	}

	w.notifyMutex.Lock()
	w.watchers = append(w.watchers, watcher)
	w.listeners = append(w.listeners, listener)
	w.notifyMutex.Unlock()

	go w.NotifyWhenUpdated(listener, watcher)
	return nil
}

// Close stops every watcher. Pending refreshes still complete.
func (w *Watcher) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
		w.notifyMutex.Lock()
		defer w.notifyMutex.Unlock()
		for _, watcher := range w.watchers {
			_ = watcher.Close()
		}
	})
}

// NotifyWhenUpdated forwards the events of watcher to listener until the watcher is closed.
func (w *Watcher) NotifyWhenUpdated(listener Listener, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if w.rebuildRequired(ev, listener) {
				go func() {
					if err := w.notifyInProcess(listener); err != nil {
						utils.Logger.Error("Watcher: refresh failed", "error", err)
					}
				}()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			utils.Logger.Warn("Watcher: error", "error", err)
		}
	}
}

// Notify drains the pending events of every watcher and refreshes the listeners
// that need it. It returns the first error.
func (w *Watcher) Notify() *utils.SourceError {
	w.notifyMutex.Lock()
	defer w.notifyMutex.Unlock()

	for i, watcher := range w.watchers {
		listener := w.listeners[i]

		// Pull all pending events / errors from the watcher.
		refresh := false
	drain:
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					break drain
				}
				if w.rebuildRequired(ev, listener) {
					refresh = true
				}
			case <-watcher.Errors:
			default:
				break drain
			}
		}

		if w.forceRefresh || refresh || w.lastError == i {
			if err := listener.Refresh(); err != nil {
				w.lastError = i
				w.forceRefresh = true
				return err
			}
			w.lastError = -1
			w.forceRefresh = false
		}
	}
	return nil
}

// notifyInProcess debounces refreshes: every event arriving while the timer runs
// resets it, and all the callers receive the result of the single refresh.
func (w *Watcher) notifyInProcess(listener Listener) (err *utils.SourceError) {
	shouldReturn := false
	// This code block ensures that either a timer is created
	// or that a process would be added the the h.refreshChannel
	func() {
		w.timerMutex.Lock()
		defer w.timerMutex.Unlock()
		if w.refreshTimer != nil {
			w.refreshTimer.Reset(w.refreshInterval)
			shouldReturn = true
			w.refreshChannelCount++
		} else {
			w.refreshTimer = time.NewTimer(w.refreshInterval)
		}
	}()

	// If another process is already waiting for the timer this one
	// only needs to return the output from the channel
	if shouldReturn {
		return <-w.refreshChannel
	}
	<-w.refreshTimer.C
	w.timerMutex.Lock()

	// Ensure the queue is properly dispatched even if a panic occurs
	defer func() {
		for x := 0; x < w.refreshChannelCount; x++ {
			w.refreshChannel <- err
		}
		w.refreshChannelCount = 0
		w.refreshTimer = nil
		w.timerMutex.Unlock()
	}()

	err = listener.Refresh()
	if err != nil {
		utils.Logger.Info("Watcher: refresh reported an error", "error", err)
	}
	return
}

func (w *Watcher) rebuildRequired(ev fsnotify.Event, listener Listener) bool {
	// Ignore changes to dotfiles.
	if strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return false
	}
	if ev.Op == fsnotify.Chmod {
		return false
	}

	if dl, ok := listener.(DiscerningListener); ok {
		if !dl.WatchFile(ev.Name) {
			return false
		}
	}
	return true
}
