package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Disk writes blobs under dir as {ownerID}/{id}{ext} and serves them under
// publicPrefix.
type Disk struct {
	dir          string
	publicPrefix string
}

func NewDisk(dir, publicPrefix string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Disk{dir: dir, publicPrefix: "/" + strings.Trim(publicPrefix, "/")}, nil
}

func (d *Disk) Dir() string {
	return d.dir
}

func (d *Disk) PublicPrefix() string {
	return d.publicPrefix
}

func (d *Disk) Put(_ context.Context, ownerID uuid.UUID, data []byte, contentType string) (string, error) {
	ext, err := extension(contentType)
	if err != nil {
		return "", err
	}

	ownerDir := filepath.Join(d.dir, ownerID.String())
	if err := os.MkdirAll(ownerDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create owner dir: %w", err)
	}

	name := uuid.NewString() + ext
	tmp, err := os.CreateTemp(ownerDir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(ownerDir, name)); err != nil {
		return "", fmt.Errorf("failed to store blob: %w", err)
	}

	return path.Join(d.publicPrefix, ownerID.String(), name), nil
}

// Delete removes the file behind url. Missing files are not an error.
func (d *Disk) Delete(_ context.Context, url string) error {
	rel, ok := strings.CutPrefix(url, d.publicPrefix+"/")
	if !ok {
		return ErrForeignURL
	}

	clean := path.Clean(rel)
	if clean == "." || strings.HasPrefix(clean, "..") || path.IsAbs(clean) {
		return ErrForeignURL
	}

	if err := os.Remove(filepath.Join(d.dir, filepath.FromSlash(clean))); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}
