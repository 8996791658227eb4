package utils

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirExists returns true if the given path exists and is a directory.
func DirExists(filename string) bool {
	fileInfo, err := os.Stat(filename)
	return err == nil && fileInfo.IsDir()
}

// Return true if the file exists.
func Exists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// ReadLines reads the lines of the given file.
func ReadLines(filename string) ([]string, error) {
	dataBytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return SplitLines(dataBytes), nil
}

// SplitLines splits source into lines without their line terminators.
func SplitLines(src []byte) []string {
	return strings.Split(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n")
}

// SourceFiles expands the given paths into the candidate unit source files.
// Files are returned as given, directories contribute their immediate
// children ending in ext (no recursion, dot files skipped). Paths that do not
// exist are ignored. The result keeps the order of paths, each directory
// listing sorted, without duplicates.
func SourceFiles(ext string, paths ...string) []string {
	var (
		files []string
		seen  = map[string]struct{}{}
	)
	add := func(p string) {
		p = filepath.Clean(p)
		if _, found := seen[p]; found {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			continue
		}
		if !fi.IsDir() {
			add(p)
			continue
		}

		matches, err := filepath.Glob(filepath.Join(globEscape(p), "*"+ext))
		if err != nil {
			Logger.Warn("Unable to list directory", "path", p, "error", err)
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			if strings.HasPrefix(filepath.Base(m), ".") {
				continue
			}
			if fi, err := os.Stat(m); err != nil || fi.IsDir() {
				continue
			}
			add(m)
		}
	}
	return files
}

// globEscape protects glob metacharacters that are part of a directory name.
func globEscape(p string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`)
	if filepath.Separator == '\\' {
		return p
	}
	return r.Replace(p)
}
