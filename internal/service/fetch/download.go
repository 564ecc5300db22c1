package fetch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/santoral-go/pkg/errors"
)

// ExtensionFor maps a response content type to the stored file extension.
// Anything unrecognised is stored as .jpg.
func ExtensionFor(contentType string) string {
	contentType = strings.ToLower(contentType)
	switch {
	case strings.Contains(contentType, "png"):
		return ".png"
	default:
		return ".jpg"
	}
}

// Download saves rawURL into dir as base plus the inferred extension and
// returns the file name. An existing file with either extension is reused
// without a request.
func (f *Fetcher) Download(ctx context.Context, rawURL, dir, base string) (string, error) {
	for _, ext := range []string{".jpg", ".png"} {
		if _, err := os.Stat(filepath.Join(dir, base+ext)); err == nil {
			return base + ext, nil
		}
	}

	resp, err := f.do(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.NewPersistenceError("failed to create image directory", dir, "mkdir", err)
	}

	name := base + ExtensionFor(resp.Header.Get("Content-Type"))
	target := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, base+".*.tmp")
	if err != nil {
		return "", errors.NewPersistenceError("failed to create image file", target, "create", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, io.LimitReader(resp.Body, f.maxBody)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", errors.NewFetchError("failed to read image", rawURL, resp.StatusCode, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", errors.NewPersistenceError("failed to write image file", target, "write", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", errors.NewPersistenceError("failed to move image file", target, "rename", err)
	}

	f.logger.Info("Image downloaded", zap.String("file", name))
	return name, nil
}
