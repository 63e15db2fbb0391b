// Package fsutil holds the small filesystem predicates the tag engine
// depends on: empty-file detection for the write no-op short-circuit, and
// sidecar extension detection.
package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// SidecarExts are the metadata sidecar file extensions exiftool can write
// without an image payload.
var SidecarExts = []string{".exif", ".exv", ".mie", ".xmp"}

// IsSidecarExt reports whether filename has a sidecar extension,
// case-insensitively.
func IsSidecarExt(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range SidecarExts {
		if ext == s {
			return true
		}
	}
	return false
}

// IsFileEmpty reports whether path is zero bytes or does not exist. A blank
// path is a programmer error, not an empty file.
func IsFileEmpty(path string) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, errors.New("IsFileEmpty: blank path")
	}
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	return fi.Size() == 0, nil
}
