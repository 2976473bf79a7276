// Package fileurl holds small filesystem path helpers.
package fileurl

import (
	"os"
	"path/filepath"
)

// IsExist reports whether the path exists.
func IsExist(dst string) bool {
	_, err := os.Stat(dst)
	if err != nil {
		return os.IsExist(err)
	}
	return true
}

// IsDir reports whether the path is a directory.
func IsDir(path string) bool {
	s, err := os.Stat(path)
	if err != nil {
		return false
	}
	return s.IsDir()
}

// CreatePath creates the parent directory of dst.
func CreatePath(dst string, perm os.FileMode) error {
	dir := filepath.Dir(dst)
	err := os.MkdirAll(dir, perm)
	if err != nil {
		return err
	}
	return nil
}
