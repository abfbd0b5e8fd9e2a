package transfer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// SpoolUpload copies an uploaded archive to a uniquely named file under dir
// (os.TempDir when empty) and returns its path with a cleanup func. The
// caller defers cleanup immediately, so the file is removed on every exit
// path of the import flow.
func SpoolUpload(dir string, src io.Reader, f Format) (string, func(), error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("import-%s.%s", uuid.New().String(), f.Extension()))

	dst, err := os.Create(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to spool upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", nil, fmt.Errorf("failed to spool upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", nil, fmt.Errorf("failed to spool upload: %w", err)
	}

	cleanup := func() { os.Remove(path) }
	return path, cleanup, nil
}
