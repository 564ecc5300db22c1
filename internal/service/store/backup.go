package store

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/kapu/santoral-go/pkg/errors"
)

const backupLayout = "20060102-150405.000"

// Backup copies path into dir as <base>.<timestamp>.bak and returns the copy's
// path. A missing source is not an error and produces no backup.
func Backup(path, dir string, now time.Time) (string, error) {
	src, err := os.Open(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.NewPersistenceError("failed to open file for backup", path, "backup", err)
	}
	defer src.Close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.NewPersistenceError("failed to create backup directory", dir, "backup", err)
	}

	target := filepath.Join(dir, filepath.Base(path)+"."+now.Format(backupLayout)+".bak")
	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", errors.NewPersistenceError("failed to create backup", target, "backup", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", errors.NewPersistenceError("failed to copy backup", target, "backup", err)
	}
	if err := dst.Close(); err != nil {
		return "", errors.NewPersistenceError("failed to close backup", target, "backup", err)
	}
	return target, nil
}
