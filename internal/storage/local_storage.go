package storage

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidPath = errors.New("invalid path")

type LocalStorage struct {
	basePath string
	scratch  bool
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// NewScratchStorage stores files in a fresh temporary directory that Close
// removes.
func NewScratchStorage() (*LocalStorage, error) {
	dir, err := os.MkdirTemp("", "thumbstudio-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	ls, err := NewLocalStorage(dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	ls.scratch = true
	return ls, nil
}

func (ls *LocalStorage) SaveFile(r io.Reader, info FileInfo) (string, error) {
	ext := extension(info)

	filename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	fullPath := filepath.Join(ls.basePath, filename)

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return filename, nil
}

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ExtensionFor returns the file extension used for a MIME type.
func ExtensionFor(contentType string) string {
	return extension(FileInfo{ContentType: contentType})
}

func extension(info FileInfo) string {
	if ext := filepath.Ext(info.Filename); ext != "" {
		return ext
	}
	if ext, ok := imageExtensions[info.ContentType]; ok {
		return ext
	}
	if info.ContentType != "" {
		if exts, _ := mime.ExtensionsByType(info.ContentType); len(exts) > 0 {
			return exts[0]
		}
	}
	return ".png"
}

func (ls *LocalStorage) resolve(path string) (string, error) {
	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") || filepath.IsAbs(cleanPath) {
		return "", ErrInvalidPath
	}
	return filepath.Join(ls.basePath, cleanPath), nil
}

func (ls *LocalStorage) OpenFile(path string) (io.ReadSeekCloser, error) {
	fullPath, err := ls.resolve(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

func (ls *LocalStorage) DeleteFile(path string) error {
	fullPath, err := ls.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// Close removes the directory of a scratch store. Other stores are left
// untouched.
func (ls *LocalStorage) Close() error {
	if !ls.scratch {
		return nil
	}
	return os.RemoveAll(ls.basePath)
}
