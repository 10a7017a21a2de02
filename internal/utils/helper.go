package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// ProgramID content-addresses a source text under a compiler. The compiler
// id is part of the digest so identical bytes in two languages never share
// an artifact.
func ProgramID(compilerID, source string) string {
	h := sha256.New()
	h.Write([]byte(compilerID))
	h.Write([]byte{0})
	h.Write([]byte(source))
	return hex.EncodeToString(h.Sum(nil))
}

func ReadString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteFileAtomic writes data to a sibling temp file and renames it over
// path, so readers see either nothing or the complete content.
func WriteFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
