package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// PathError describes why an attribute path or placeholder token was rejected
type PathError struct {
	Type   string
	Detail string
}

func (e *PathError) Error() string {
	// Don't echo user-supplied attribute names back in the message
	return fmt.Sprintf("attribute path validation failed: %s (%s)", e.Type, e.Detail)
}

// Field validation constants
const (
	MaxSegmentLength = 255
	MaxNestedDepth   = 32
	MaxAliasLength   = 255
)

var (
	placeholderPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	nonTokenPattern    = regexp.MustCompile(`[^A-Za-z0-9_]`)
	listIndexPattern   = regexp.MustCompile(`^((?:\[[0-9]+\])+)$`)
)

// ValidateAttributePath validates a dotted attribute path such as "parent.child[2].leaf"
func ValidateAttributePath(path string) error {
	if path == "" {
		return &PathError{Type: "InvalidPath", Detail: "attribute path cannot be empty"}
	}

	segments := strings.Split(path, ".")
	if len(segments) > MaxNestedDepth {
		return &PathError{Type: "InvalidPath", Detail: "nested path depth exceeds maximum"}
	}

	for _, segment := range segments {
		if _, _, err := SplitSegment(segment); err != nil {
			return err
		}
	}
	return nil
}

// SplitSegment separates a path segment into its attribute name and any trailing
// list-index suffix, so "items[0][1]" yields ("items", "[0][1]").
func SplitSegment(segment string) (string, string, error) {
	if segment == "" {
		return "", "", &PathError{Type: "InvalidSegment", Detail: "path segment cannot be empty"}
	}
	if len(segment) > MaxSegmentLength {
		return "", "", &PathError{Type: "InvalidSegment", Detail: "path segment exceeds maximum length"}
	}
	if containsControlCharacters(segment) {
		return "", "", &PathError{Type: "InvalidSegment", Detail: "path segment contains control characters"}
	}

	open := strings.Index(segment, "[")
	if open < 0 {
		if strings.Contains(segment, "]") {
			return "", "", &PathError{Type: "InvalidSegment", Detail: "unbalanced list index"}
		}
		return segment, "", nil
	}
	if open == 0 {
		return "", "", &PathError{Type: "InvalidSegment", Detail: "list index without attribute name"}
	}

	name, suffix := segment[:open], segment[open:]
	if !listIndexPattern.MatchString(suffix) {
		return "", "", &PathError{Type: "InvalidSegment", Detail: "list index must be numeric"}
	}
	return name, suffix, nil
}

// ValidatePlaceholderToken checks that token can follow '#' or ':' in an expression placeholder
func ValidatePlaceholderToken(token string) error {
	if token == "" {
		return &PathError{Type: "InvalidPlaceholder", Detail: "placeholder token cannot be empty"}
	}
	if len(token) > MaxAliasLength {
		return &PathError{Type: "InvalidPlaceholder", Detail: "placeholder token exceeds maximum length"}
	}
	if !placeholderPattern.MatchString(token) {
		return &PathError{Type: "InvalidPlaceholder", Detail: "placeholder token must be alphanumeric or underscore"}
	}
	return nil
}

func containsControlCharacters(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}

// SanitizePlaceholderToken maps an attribute name onto the placeholder token
// alphabet by replacing every other character with "_", so "user-id" becomes
// "user_id". Distinct names may map to the same token.
func SanitizePlaceholderToken(name string) string {
	return nonTokenPattern.ReplaceAllString(name, "_")
}
