// Package backup copies a file aside before it is overwritten.
//
// Backups are siblings named path.bkp, path.bkp2, path.bkp3, ... The first
// name that does not exist is used; an existing backup is never replaced.
package backup

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/justapithecus/decomp/failure"
	"github.com/justapithecus/decomp/iox"
)

// Suffix is appended to the destination path to form backup names.
const Suffix = ".bkp"

// NextName returns the first unused backup name for path.
func NextName(path string) (string, error) {
	for n := 1; ; n++ {
		candidate := path + Suffix
		if n > 1 {
			candidate = fmt.Sprintf("%s%s%d", path, Suffix, n)
		}
		_, err := os.Lstat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", failure.LocalIO("stat", candidate, err)
		}
	}
}

// Create copies the current content of path to its next free backup name
// and returns that name. The copy is complete and synced when Create returns.
func Create(path string) (string, error) {
	name, err := NextName(path)
	if err != nil {
		return "", err
	}
	if err := copyFile(path, name); err != nil {
		return "", err
	}
	return name, nil
}

// copyFile copies src to a new file dst. O_EXCL keeps a concurrently
// created backup from being overwritten.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return failure.LocalIO("open", src, err)
	}
	defer iox.DiscardClose(in)

	info, err := in.Stat()
	if err != nil {
		return failure.LocalIO("stat", src, err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return failure.LocalIO("create", dst, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(dst)
		}
	}()
	defer iox.CloseInto(&err, out)

	if _, err = io.Copy(out, in); err != nil {
		return failure.LocalIO("copy", dst, err)
	}
	if err = out.Sync(); err != nil {
		return failure.LocalIO("sync", dst, err)
	}
	return nil
}
