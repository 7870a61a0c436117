package errors

import (
	"strings"
	"unicode"
)

// ValidateCanonicalName validates a resolved library name for safety.
// Canonical names become directory names under the libraries destination,
// so anything that could escape the destination is rejected.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidateCanonicalName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidToken, "library name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidToken, "library name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidToken, "library name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidToken, "library name contains invalid characters: %q", pattern)
		}
	}

	if name == "." {
		return New(ErrCodeInvalidToken, "library name cannot be %q", name)
	}

	return nil
}

// ValidateToken validates a raw dependency token before resolution.
// Tokens come straight out of user-authored manifests; this catches
// obvious garbage early with a clear message.
func ValidateToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return New(ErrCodeInvalidToken, "dependency token cannot be empty")
	}

	for _, r := range token {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidToken, "dependency token contains invalid control characters")
		}
	}

	if strings.ContainsAny(token, " \t") {
		return New(ErrCodeInvalidToken, "dependency token cannot contain whitespace: %q", token)
	}

	return nil
}
