package lockbox

import (
	"mime"
	"path"
	"strings"
)

const defaultContentType = "application/octet-stream"

// DefaultAllowedTypes is the upload allow-list used when none is configured.
var DefaultAllowedTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"video/mp4",
	"audio/mpeg",
	"application/pdf",
}

// MediaPolicy is the upload gate on client-declared content types. It trusts
// the declared type and never inspects the bytes.
type MediaPolicy struct {
	allowed map[string]struct{}
}

// NewMediaPolicy builds a policy from an allow-list; an empty list selects
// DefaultAllowedTypes.
func NewMediaPolicy(types []string) MediaPolicy {
	if len(types) == 0 {
		types = DefaultAllowedTypes
	}
	allowed := make(map[string]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}
	return MediaPolicy{allowed: allowed}
}

// Allows reports whether contentType is on the allow-list. Matching is exact:
// "image/png; charset=binary" is not "image/png".
func (p MediaPolicy) Allows(contentType string) bool {
	_, ok := p.allowed[contentType]
	return ok
}

// ResolveContentType picks the content type served for a key: the type stored
// with the blob, else the type registered for the key's extension, else
// application/octet-stream.
func ResolveContentType(stored, key string) string {
	if stored != "" {
		return stored
	}

	if ext := path.Ext(key); ext != "" {
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
	}

	return defaultContentType
}

// DispositionFor classifies a content type as browser-previewable (inline) or
// download-only (attachment). Parameters are ignored.
func DispositionFor(contentType string) Disposition {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch {
	case strings.HasPrefix(mediaType, "image/"),
		strings.HasPrefix(mediaType, "video/"),
		strings.HasPrefix(mediaType, "audio/"),
		mediaType == "application/pdf":
		return DispositionInline
	default:
		return DispositionAttachment
	}
}
