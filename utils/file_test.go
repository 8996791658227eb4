package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/campsite/cmd/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("app \"x\" {}\n"), 0o644))
}

func TestSourceFilesExpandsDirectoriesWithoutRecursing(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "wiki.hcl"))
	touch(t, filepath.Join(dir, "blog.hcl"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, ".hidden.hcl"))
	touch(t, filepath.Join(dir, "nested", "deep.hcl"))

	files := utils.SourceFiles(".hcl", dir)
	assert.Equal(t, []string{
		filepath.Join(dir, "blog.hcl"),
		filepath.Join(dir, "wiki.hcl"),
	}, files)
}

func TestSourceFilesKeepsExplicitFilesAndSkipsMissing(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(dir, "one.conf")
	touch(t, explicit)
	touch(t, filepath.Join(dir, "two.hcl"))

	files := utils.SourceFiles(".hcl", explicit, filepath.Join(dir, "missing"), dir, explicit)
	assert.Equal(t, []string{explicit, filepath.Join(dir, "two.hcl")}, files)
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b", ""}, utils.SplitLines([]byte("a\r\nb\n")))
}
