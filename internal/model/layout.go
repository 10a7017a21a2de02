package model

import (
	"path/filepath"
	"strings"
)

// Files the engine itself writes at the top of every program dir.
const (
	StatusFile    = "compile_status.txt"
	CompileLog    = "compile_error.txt"
	ScratchPrefix = "run-"
)

// IsReservedName reports whether a staged path would collide with one of
// the engine's own files and be overwritten by it.
func IsReservedName(path string) bool {
	clean := filepath.Clean(path)
	if strings.ContainsRune(clean, filepath.Separator) {
		return false
	}
	switch clean {
	case StatusFile, StatusFile + ".tmp", CompileLog:
		return true
	}
	return strings.HasPrefix(clean, ScratchPrefix)
}
