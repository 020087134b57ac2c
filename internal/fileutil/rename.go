package fileutil

import (
	"io/fs"
	"os"
)

// renameChecked refuses an occupied destination and then renames. The window
// between the check and the rename is closed by callers holding a lock on dst.
func renameChecked(src, dst string) error {
	exists, err := Exists(dst)
	if err != nil {
		return err
	}
	if exists {
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: fs.ErrExist}
	}
	return os.Rename(src, dst)
}
