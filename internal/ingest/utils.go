package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/fleet-telemetry/constants"
)

// AllowedExt checks if a file extension is in exts.
func AllowedExt(ext string, exts map[string]struct{}) bool {
	_, ok := exts[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
