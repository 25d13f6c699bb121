package constants

import (
	"path/filepath"
	"strings"
)

// Upload kinds accepted for horse photos.
const (
	FileImage   = 6
	FileUnknown = 99
)

func DetectFileTypeFromExt(filename string) int {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return FileImage
	default:
		return FileUnknown
	}
}
