// Package filex holds small filesystem and file-content helpers.
package filex

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// MaxImageSize bounds images read for upload.
const MaxImageSize = 10 << 20

var (
	ErrNotImage = errors.New("file is not an accepted image type")
	ErrTooLarge = errors.New("file is too large")

	// ImageTypes are accepted for post images.
	ImageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}
	// AvatarTypes are accepted for avatars.
	AvatarTypes = []string{"image/png", "image/jpeg"}
)

// EnsureDir creates dir (relative paths are resolved against the working
// directory) and returns its absolute path.
func EnsureDir(dir string) (string, error) {
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// File is a file read into memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// SniffImage detects the content type of data and checks it is one of allowed.
func SniffImage(data []byte, allowed ...string) (string, error) {
	ct := http.DetectContentType(data)
	ct, _, _ = strings.Cut(ct, ";")
	if !slices.Contains(allowed, ct) {
		return "", fmt.Errorf("%w: %s", ErrNotImage, ct)
	}
	return ct, nil
}

// ReadImage loads the image at path, rejecting files over MaxImageSize or
// of a type outside allowed.
func ReadImage(path string, allowed ...string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageSize+1))
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) > MaxImageSize {
		return File{}, fmt.Errorf("%s: %w", path, ErrTooLarge)
	}

	ct, err := SniffImage(data, allowed...)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return File{Name: filepath.Base(path), ContentType: ct, Data: data}, nil
}
