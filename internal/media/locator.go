// Package media locates legacy profile photos and copies them to a media store.
package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrPathEscape is returned when a candidate resolves outside its base directory.
	ErrPathEscape = errors.New("path escapes base directory")
	// ErrNoPhoto is returned when no usable image exists.
	ErrNoPhoto = errors.New("no photo found")
)

// AllowedExtensions lists the image extensions that may be migrated.
var AllowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// Locator resolves photo files under the WordPress uploads directory.
type Locator struct {
	uploads string
}

// NewLocator creates a Locator rooted at uploadsDir.
func NewLocator(uploadsDir string) *Locator {
	return &Locator{uploads: uploadsDir}
}

// File resolves a named file inside dir. dir is relative to the uploads
// directory; name comes from user meta and is not trusted.
func (l *Locator) File(dir, name string) (string, error) {
	base, err := l.dir(dir)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", ErrNoPhoto
	}
	p, err := contained(base, filepath.Join(base, filepath.FromSlash(name)))
	if err != nil {
		return "", err
	}
	if !allowed(p) {
		return "", fmt.Errorf("%w: %s has an unsupported extension", ErrNoPhoto, filepath.Base(p))
	}
	return p, nil
}

// FindImage returns the first image in dir whose name contains one of
// patterns, trying patterns in order. An empty pattern matches any image.
// With no patterns the first image in name order is returned.
func (l *Locator) FindImage(dir string, patterns ...string) (string, error) {
	base, err := l.dir(dir)
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoPhoto, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !allowed(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	if len(patterns) == 0 {
		patterns = []string{""}
	}
	for _, pattern := range patterns {
		for _, name := range names {
			if !strings.Contains(name, pattern) {
				continue
			}
			return contained(base, filepath.Join(base, name))
		}
	}
	return "", ErrNoPhoto
}

// dir resolves a directory under uploads and checks it stays there.
func (l *Locator) dir(rel string) (string, error) {
	root, err := filepath.EvalSymlinks(l.uploads)
	if err != nil {
		return "", fmt.Errorf("%w: uploads directory: %v", ErrNoPhoto, err)
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return "", err
	}
	return contained(root, filepath.Join(root, filepath.FromSlash(rel)))
}

// contained evaluates symlinks in p and verifies the result lies under base.
func contained(base, p string) (string, error) {
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		if !within(base, filepath.Clean(p)) {
			return "", fmt.Errorf("%w: %s", ErrPathEscape, p)
		}
		return "", fmt.Errorf("%w: %v", ErrNoPhoto, err)
	}
	resolved, err = filepath.Abs(resolved)
	if err != nil {
		return "", err
	}
	if !within(base, resolved) {
		return "", fmt.Errorf("%w: %s resolves to %s", ErrPathEscape, p, resolved)
	}
	return resolved, nil
}

func within(base, p string) bool {
	rel, err := filepath.Rel(base, p)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func allowed(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range AllowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}
