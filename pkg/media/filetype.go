package media

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FindFiletype returns the extension label for a content type: the subtype
// after the last slash. Parameters after ';' are dropped before extraction, so
// "text/plain; charset=utf-8" yields "plain". A wildcard or empty subtype
// yields no label.
func FindFiletype(contentType string) (string, bool) {
	base := contentType
	if idx := strings.Index(base, ";"); idx >= 0 {
		base = base[:idx]
	}
	base = strings.TrimSpace(base)
	idx := strings.LastIndex(base, "/")
	if idx < 0 {
		return "", false
	}
	subtype := strings.TrimSpace(base[idx+1:])
	if subtype == "" || subtype == "*" {
		return "", false
	}
	return strings.ToLower(subtype), true
}

// InferMIME guesses the content type of a local file: first by extension,
// then by sniffing the content. An empty result means the type is unknown
// and should be omitted from the upload.
func InferMIME(path string) string {
	if ext := filepath.Ext(path); ext != "" {
		if byExt := mime.TypeByExtension(strings.ToLower(ext)); byExt != "" {
			return byExt
		}
	}
	detected, err := mimetype.DetectFile(path)
	if err != nil || detected == nil {
		return ""
	}
	if detected.Is("application/octet-stream") {
		return ""
	}
	return detected.String()
}

// sniffExtension returns the extension (with dot) detected from content, or
// the fallback when the content is not recognised.
func sniffExtension(data []byte, fallback string) string {
	detected := mimetype.Detect(data)
	if detected == nil || detected.Is("application/octet-stream") || detected.Is("text/plain") {
		return fallback
	}
	if ext := detected.Extension(); ext != "" {
		return ext
	}
	return fallback
}

// IsJSON reports whether a content type selects structured JSON handling.
// Parameters after ';' are ignored.
func IsJSON(contentType string) bool {
	base := contentType
	if idx := strings.Index(base, ";"); idx >= 0 {
		base = base[:idx]
	}
	return strings.EqualFold(strings.TrimSpace(base), "application/json")
}
