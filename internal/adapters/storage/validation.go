package storage

import (
	"fmt"
	"strings"
)

// AllowedContentTypes defines the MIME types exports may write.
var AllowedContentTypes = map[string]bool{
	"application/json": true,
	"text/csv":         true,
}

// ValidateContentType checks if the content type is allowed.
func ValidateContentType(contentType string) error {
	// Normalize content type (remove parameters like charset)
	normalized := strings.Split(contentType, ";")[0]
	normalized = strings.TrimSpace(strings.ToLower(normalized))

	if !AllowedContentTypes[normalized] {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

// ValidateObjectKey rejects empty, absolute and parent-relative keys.
func ValidateObjectKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return fmt.Errorf("invalid object key %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("invalid object key %q", key)
		}
	}
	return nil
}
