package local

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const fallbackName = "upload.py"

// WithTempFile writes content to a file named after the base of name
// inside a fresh directory under baseDir ("" means the OS temp dir), calls
// fn with the directory and file path, and removes the directory whether or
// not fn succeeds.
func WithTempFile(baseDir, name, content string, fn func(dir, path string) error) error {
	dir, err := os.MkdirTemp(baseDir, "pyaudit-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, SafeBase(name))
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	return fn(dir, path)
}

// SafeBase reduces an uploaded name to a plain file name.
func SafeBase(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == ".." || strings.ContainsRune(base, 0) {
		return fallbackName
	}
	return base
}

// stripDir removes the temp directory prefix from tool output so findings
// refer to the uploaded file name.
func stripDir(output, dir string) string {
	return strings.ReplaceAll(output, dir+string(os.PathSeparator), "")
}
