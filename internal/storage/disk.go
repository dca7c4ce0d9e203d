// Package storage keeps uploaded files under the public web root.
package storage

import (
	"errors"
	"io/fs"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/valyala/fasthttp"
)

// ErrInvalidRef is returned for references that do not name a file.
var ErrInvalidRef = errors.New("invalid file reference")

// Disk writes files below root. A reference is the public URL path of the
// file, e.g. "/images/products/<name>.jpg", which mirrors its location
// relative to root.
type Disk struct {
	root string
}

// NewDisk returns a Disk rooted at root.
func NewDisk(root string) *Disk {
	return &Disk{root: root}
}

// Root returns the directory served as the web root.
func (d *Disk) Root() string {
	return d.root
}

// Save writes the uploaded file as dir/name, creating dir when missing,
// and returns its reference.
func (d *Disk) Save(dir, name string, fh *multipart.FileHeader) (string, error) {
	ref := path.Join("/", dir, name)
	full, err := d.Path(ref)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}

	if err := fasthttp.SaveMultipartFile(fh, full); err != nil {
		_ = os.Remove(full)
		return "", err
	}

	return ref, nil
}

// Remove deletes the file behind ref. A file that is already gone is not an error.
func (d *Disk) Remove(ref string) error {
	full, err := d.Path(ref)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Exists reports whether a file is present for ref. The server never calls
// it; tests in this package and the services integration suite use it to
// check what Save and Remove left on disk.
func (d *Disk) Exists(ref string) bool {
	full, err := d.Path(ref)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

// Path maps ref to a filesystem path inside root.
func (d *Disk) Path(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrInvalidRef
	}

	// Cleaning an absolute path drops any leading "..", so the result stays under root.
	clean := path.Clean("/" + ref)
	if clean == "/" {
		return "", ErrInvalidRef
	}

	return filepath.Join(d.root, filepath.FromSlash(clean)), nil
}
