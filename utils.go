package lockbox

import (
	"strings"
	"unicode/utf8"
)

const (
	maxFileNameBytes = 255
	maxKeyBytes      = 1024
)

// IsValidFileName reports whether name can be used as the file name segment of
// a storage key. It checks that the name:
//   - is not empty, "." or ".."
//   - is at most 255 bytes of valid UTF-8
//   - contains no "/" or "\" (it must be a single key segment)
//   - contains no null bytes, control characters (< 0x20) or DEL (0x7f)
//
// Spaces and other printable characters are allowed.
func IsValidFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	if len(name) > maxFileNameBytes || !utf8.ValidString(name) {
		return false
	}

	if strings.ContainsAny(name, `/\`) {
		return false
	}

	return !hasControlChars(name)
}

// IsValidCallerID reports whether id can own records and prefix storage keys.
func IsValidCallerID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}

	if !utf8.ValidString(id) || strings.ContainsAny(id, `/\`) {
		return false
	}

	return !hasControlChars(id)
}

// IsValidKey validates a storage key supplied by a caller. It checks that the key:
//   - is not empty and is at most 1024 bytes of valid UTF-8
//   - is relative and does not end with "/"
//   - has no empty, "." or ".." segments
//   - contains no "\", null bytes or control characters
func IsValidKey(key string) bool {
	if key == "" || len(key) > maxKeyBytes || !utf8.ValidString(key) {
		return false
	}

	if strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return false
	}

	if strings.Contains(key, `\`) || hasControlChars(key) {
		return false
	}

	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}

	return true
}

func hasControlChars(s string) bool {
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return true
		}
	}
	return false
}
