package lockbox

import (
	"fmt"
	"path"

	"github.com/google/uuid"
)

// KeyFunc derives the storage key for a caller's upload.
type KeyFunc func(callerID, fileName string) string

// LiteralKey returns "{callerID}/{fileName}". Uploading the same name twice
// overwrites the blob at that key and leaves two records pointing at it.
func LiteralKey(callerID, fileName string) string {
	return callerID + "/" + fileName
}

// UniqueKey returns "{callerID}/{uuid}/{fileName}" so repeated uploads of the
// same name never share a blob. The trailing segment is still the file name.
func UniqueKey(callerID, fileName string) string {
	return callerID + "/" + uuid.NewString() + "/" + fileName
}

// ParseKeyStrategy maps a configuration value to a KeyFunc.
func ParseKeyStrategy(s string) (KeyFunc, error) {
	switch s {
	case "", "literal":
		return LiteralKey, nil
	case "unique":
		return UniqueKey, nil
	default:
		return nil, fmt.Errorf("invalid key strategy: %s (valid strategies: literal, unique)", s)
	}
}

// FileNameFromKey returns the trailing component of a storage key, used as the
// file name hint of a download.
func FileNameFromKey(key string) string {
	return path.Base(key)
}
