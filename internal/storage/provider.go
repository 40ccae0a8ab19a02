// Package storage keeps uploaded files (CVs) in a flat directory.
package storage

import (
	"errors"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/slug"
)

// File describes one stored upload.
type File struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for upload file operations. Names are flat file
// names; anything that looks like a path is rejected.
type Provider interface {
	// Save atomically stores the contents of r under name.
	Save(name string, r io.Reader) (File, error)
	// Open returns a reader over the named file.
	Open(name string) (io.ReadSeekCloser, File, error)
	// Delete removes the named file.
	Delete(name string) error
	// List returns every stored file sorted by name.
	List() ([]File, error)
}

// URLPrefix is the public path uploads are served under.
const URLPrefix = "/uploads/"

// URLPath returns the public path of a stored file.
func URLPath(name string) string {
	return URLPrefix + url.PathEscape(name)
}

// NameFromURL returns the stored file name behind a URLPath, or "" for any
// other link.
func NameFromURL(fileURL string) string {
	rest, ok := strings.CutPrefix(fileURL, URLPrefix)
	if !ok || rest == "" {
		return ""
	}
	name, err := url.PathUnescape(rest)
	if err != nil {
		return ""
	}
	return name
}

// OwnedName prefixes a clean file name with the owner's id so files of
// different owners never collide.
func OwnedName(owner, name string) string {
	return slug.Make(owner) + "-" + name
}

// Replace records that stored took over from prior, the file an owner
// linked before. prior is removed unless it is the same file; a missing
// prior is not an error.
func Replace(p Provider, prior, stored string) error {
	if prior == "" || prior == stored {
		return nil
	}
	return Discard(p, prior)
}

// Discard deletes name and ignores files that are already gone.
func Discard(p Provider, name string) error {
	if err := p.Delete(name); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	return nil
}
