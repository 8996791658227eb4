package watcher_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/campsite/cmd/model"
	"github.com/campsite/cmd/utils"
	"github.com/campsite/cmd/watcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingListener struct {
	refreshes atomic.Int32
	err       *utils.SourceError
}

func (l *countingListener) Refresh() *utils.SourceError {
	l.refreshes.Add(1)
	return l.err
}

func (l *countingListener) WatchFile(name string) bool {
	return strings.HasSuffix(name, ".hcl")
}

func newWatcher(t *testing.T) *watcher.Watcher {
	w := watcher.NewWatcher(&model.HostContainer{WatchDelay: 50})
	t.Cleanup(w.Close)
	return w
}

func TestWatcherRefreshesOnUnitChanges(t *testing.T) {
	dir := t.TempDir()
	l := &countingListener{}
	w := newWatcher(t)
	require.NoError(t, w.Listen(l, dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".blog.hcl.swp"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, l.refreshes.Load(), "dot files and other extensions are ignored")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "blog.hcl"), []byte(`app "Blog" {}`), 0o644))
	assert.Eventually(t, func() bool { return l.refreshes.Load() > 0 }, 2*time.Second, 20*time.Millisecond)
}

func TestWatcherWatchesFileRootsThroughTheirDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wiki.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`app "Wiki" {}`), 0o644))

	l := &countingListener{}
	w := newWatcher(t)
	require.NoError(t, w.Listen(l, path, filepath.Join(dir, "missing.hcl")))

	require.NoError(t, os.Rename(path, path+".tmp"))
	require.NoError(t, os.Rename(path+".tmp", path))
	assert.Eventually(t, func() bool { return l.refreshes.Load() > 0 }, 2*time.Second, 20*time.Millisecond)
}

func TestNotifyForcesFirstRefreshAndRetriesErrors(t *testing.T) {
	dir := t.TempDir()
	l := &countingListener{err: utils.NewError("unit", "Unit Load Error", "blog.hcl", "broken")}
	w := newWatcher(t)
	require.NoError(t, w.Listen(l, dir))

	assert.Equal(t, l.err, w.Notify())
	assert.Equal(t, l.err, w.Notify(), "a failing listener is refreshed until it recovers")
	l.err = nil
	assert.Nil(t, w.Notify())
	count := l.refreshes.Load()
	assert.Nil(t, w.Notify())
	assert.Equal(t, count, l.refreshes.Load(), "nothing changed, nothing refreshed")
}
