// Package blob stores uploaded photo bytes and returns the URL they are
// served from.
package blob

import (
	"errors"
	"fmt"
)

var ErrForeignURL = errors.New("url does not belong to this store")

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// extension maps an accepted content type to its file extension.
func extension(contentType string) (string, error) {
	ext, ok := extensions[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}
	return ext, nil
}
