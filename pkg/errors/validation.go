package errors

import (
	"strings"
	"unicode"
)

// IsURL reports whether source names a remote http(s) resource.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// ValidateSource validates a tree or mapping source, which is either a local
// path or an http(s) URL.
//
// Validation rules:
//   - Source cannot be empty
//   - Maximum length of 2048 characters
//   - No null bytes or control characters
//   - A source with a scheme must use http or https
func ValidateSource(source string) error {
	if source == "" {
		return New(ErrCodeInvalidPath, "source cannot be empty")
	}

	const maxSourceLength = 2048
	if len(source) > maxSourceLength {
		return New(ErrCodeInvalidPath, "source too long (max %d characters)", maxSourceLength)
	}

	for _, r := range source {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "source contains invalid characters")
		}
	}

	if i := strings.Index(source, "://"); i > 0 && !IsURL(source) {
		return New(ErrCodeInvalidPath, "unsupported scheme %q (use http or https)", source[:i])
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !IsURL(rawURL) {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// ValidateColumnName validates a metadata column name supplied by a user.
// An empty name is valid and means "no coloring".
func ValidateColumnName(name string) error {
	if len(name) > 256 {
		return New(ErrCodeInvalidOption, "column name too long (max 256 characters)")
	}
	for _, r := range name {
		if r == '\t' || unicode.IsControl(r) {
			return New(ErrCodeInvalidOption, "column name contains invalid characters")
		}
	}
	return nil
}
