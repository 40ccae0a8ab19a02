package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/slug"
)

const tmpPrefix = ".folio-tmp-"

// Dir implements Provider backed by a local directory.
type Dir struct {
	root string // absolute path to the uploads directory
}

var _ Provider = (*Dir)(nil)

// NewDir opens the uploads directory, creating it when missing.
func NewDir(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &Dir{root: abs}, nil
}

// CleanName turns an uploaded file name into a safe flat name: the base
// name is slugged and the extension lowercased. It returns "" when nothing
// usable is left.
func CleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(name))
	base := slug.Make(strings.TrimSuffix(name, filepath.Ext(name)))
	if base == "" {
		return ""
	}
	if ext != "" && !slug.Valid(strings.TrimPrefix(ext, ".")) {
		ext = ""
	}
	return base + ext
}

// safePath resolves a flat file name inside the root and rejects anything
// else (separators, dot files, traversal).
func (d *Dir) safePath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: invalid file name %q", apperr.ErrInvalidInput, name)
	}
	return filepath.Join(d.root, name), nil
}

// Save writes r to name: tmp file, fsync, rename.
func (d *Dir) Save(name string, r io.Reader) (File, error) {
	abs, err := d.safePath(name)
	if err != nil {
		return File{}, err
	}

	tmp, err := os.CreateTemp(d.root, tmpPrefix+"*")
	if err != nil {
		return File{}, fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	data, err := io.ReadAll(r)
	if err != nil {
		return File{}, fmt.Errorf("storage: read upload: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		return File{}, fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return File{}, fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return File{}, fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return File{}, fmt.Errorf("storage: rename: %w", err)
	}
	success = true

	info, err := os.Stat(abs)
	if err != nil {
		return File{}, fmt.Errorf("storage: stat %s: %w", name, err)
	}
	return File{Name: name, Size: info.Size(), Checksum: checksum.Sum(data), UpdatedAt: info.ModTime()}, nil
}

// Open returns the named file. The caller closes it.
func (d *Dir) Open(name string) (io.ReadSeekCloser, File, error) {
	abs, err := d.safePath(name)
	if err != nil {
		return nil, File{}, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, File{}, wrapNotExist(name, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, File{}, fmt.Errorf("storage: stat %s: %w", name, err)
	}
	return f, File{Name: name, Size: info.Size(), UpdatedAt: info.ModTime()}, nil
}

// Delete removes a file.
func (d *Dir) Delete(name string) error {
	abs, err := d.safePath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return wrapNotExist(name, err)
	}
	return nil
}

// List returns metadata for every stored file.
func (d *Dir) List() ([]File, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	out := []File{}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("storage: list: %w", err)
		}
		data, err := os.ReadFile(filepath.Join(d.root, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("storage: list: %w", err)
		}
		out = append(out, File{
			Name:      e.Name(),
			Size:      info.Size(),
			Checksum:  checksum.Sum(data),
			UpdatedAt: info.ModTime(),
		})
	}
	slices.SortFunc(out, func(a, b File) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func wrapNotExist(name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: %s: %w", name, apperr.ErrNotFound)
	}
	return fmt.Errorf("storage: %s: %w", name, err)
}
