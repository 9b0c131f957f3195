package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	domain "github.com/bryanwahyu/pyaudit/internal/domain/analysis"
	"github.com/bryanwahyu/pyaudit/internal/middleware"
)

// expandArgs turns file, directory and glob arguments into a sorted,
// de-duplicated list of .py paths. Directories are walked recursively.
func expandArgs(args []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		pattern := arg
		if !strings.ContainsAny(arg, "*?[{") {
			info, err := os.Stat(arg)
			if err != nil {
				return nil, err
			}
			if !info.IsDir() {
				add(arg)
				continue
			}
			pattern = filepath.Join(arg, "**", "*.py")
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", arg, err)
		}
		for _, m := range matches {
			if strings.EqualFold(filepath.Ext(m), ".py") {
				add(m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// readFiles loads paths with the same checks the upload endpoint applies.
// The display name keeps the path so files in different packages stay
// distinguishable.
func readFiles(paths []string) ([]domain.UploadedFile, error) {
	files := make([]domain.UploadedFile, 0, len(paths))
	for _, p := range paths {
		if err := middleware.ValidateFileName(filepath.Base(p)); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		content, err := middleware.ValidateContent(p, data)
		if err != nil {
			return nil, err
		}
		files = append(files, domain.UploadedFile{Name: filepath.ToSlash(p), Content: content})
	}
	return files, nil
}
