package middleware

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Input validation for uploads and query parameters

const maxFileNameLen = 255

// ValidateFileName accepts a bare Python file name: no directories, no
// control characters, and a .py extension in any case.
func ValidateFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("file name cannot be empty")
	}
	if len(name) > maxFileNameLen {
		return fmt.Errorf("file name too long (max %d bytes)", maxFileNameLen)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid file name %q: directories are not allowed", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("invalid characters in file name %q", name)
		}
	}
	if !strings.EqualFold(filepath.Ext(name), ".py") {
		return fmt.Errorf("invalid file %q: only .py files are accepted", name)
	}
	return nil
}

// ValidateContent returns the upload as text. Content must be valid UTF-8
// and must not contain NUL bytes.
func ValidateContent(name string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file %q is not valid UTF-8", name)
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return "", fmt.Errorf("file %q contains NUL bytes", name)
	}
	return string(data), nil
}

// ValidateReportID validates report ID format
func ValidateReportID(id string) error {
	if id == "" {
		return fmt.Errorf("report ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid report ID format")
	}
	return nil
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidatePage clamps a page number and page size.
func ValidatePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	return page, ValidateLimit(pageSize)
}

// ValidateDays validates days parameter
func ValidateDays(days int) int {
	if days <= 0 {
		return 7 // default
	}
	if days > 365 {
		return 365 // max 1 year
	}
	return days
}
