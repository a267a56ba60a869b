package jsonfile

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// writeFileAtomic replaces path with data so readers only ever see the old or the new
// complete document: temp file in the same directory, fsync, rename, directory fsync.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tempPath := f.Name()

	committed := false
	defer func() {
		if !committed {
			_ = f.Close()
			_ = os.Remove(tempPath)
		}
	}()

	if err := f.Chmod(perm); err != nil {
		return errors.Wrap(err, "failed to set file permissions")
	}
	if _, err := f.Write(data); err != nil {
		return errors.Wrap(err, "failed to write temp file")
	}
	if err := f.Sync(); err != nil {
		return errors.Wrap(err, "failed to sync temp file")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp file")
	}
	if err := os.Rename(tempPath, path); err != nil {
		return errors.Wrap(err, "failed to rename temp file")
	}
	committed = true

	return syncDir(dir)
}

// syncDir persists the rename itself. Directory fsync is unsupported on some
// platforms, so only failing to open the directory is reported.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return errors.Wrap(err, "failed to open directory for sync")
	}
	defer d.Close()

	_ = d.Sync()

	return nil
}
