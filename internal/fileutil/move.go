package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Method records how a Move completed.
type Method string

const (
	MethodRename Method = "rename"
	MethodCopy   Method = "copy"
)

// renameFunc is swapped in tests to simulate cross-device moves.
var renameFunc = renameNoReplace

// Move relocates src to dst. An existing dst is never replaced: the returned
// error satisfies errors.Is(err, fs.ErrExist) and src is left in place.
// On error src is untouched.
func Move(src, dst string) (Method, error) {
	err := renameFunc(src, dst)
	if err == nil {
		return MethodRename, nil
	}
	if errors.Is(err, fs.ErrExist) || !isCrossDevice(err) {
		return "", err
	}

	if err := CopyFileVerified(src, dst); err != nil {
		return "", fmt.Errorf("cross-device copy: %w", err)
	}
	if err := os.Remove(src); err != nil {
		if rmErr := os.Remove(dst); rmErr != nil {
			return MethodCopy, fmt.Errorf("remove source after copy: %w (destination kept: %v)", err, rmErr)
		}
		return "", fmt.Errorf("remove source after copy: %w", err)
	}
	return MethodCopy, nil
}

// Exists reports whether anything occupies path. Broken symlinks count.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}
