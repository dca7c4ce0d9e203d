package services

import (
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// AssetKind selects the storage directory and accepted formats of an upload.
type AssetKind string

const (
	AssetProductMain    AssetKind = "product-main"
	AssetProductGallery AssetKind = "product-gallery"
	AssetBrandLogo      AssetKind = "brand-logo"
	AssetBannerImage    AssetKind = "banner-image"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

type assetRule struct {
	dir        string
	extensions []string
}

var assetRules = map[AssetKind]assetRule{
	AssetProductMain:    {dir: "images/products", extensions: imageExtensions},
	AssetProductGallery: {dir: "images/products", extensions: imageExtensions},
	AssetBrandLogo:      {dir: "uploads/brands", extensions: imageExtensions},
	AssetBannerImage:    {dir: "uploads/popup-banners", extensions: append(append([]string{}, imageExtensions...), ".webp")},
}

// Only files under these prefixes belong to us; anything else (external
// URLs, seeded paths) is left alone on delete.
var managedPrefixes = []string{"/images/products/", "/uploads/"}

// FileStore persists uploads and removes them again.
type FileStore interface {
	Save(dir, name string, fh *multipart.FileHeader) (string, error)
	Remove(ref string) error
}

// FileIssue records a file that could not be removed.
type FileIssue struct {
	Ref   string `json:"ref"`
	Error string `json:"error"`
}

// AssetManager keeps uploaded files in step with the rows that reference them.
type AssetManager struct {
	files    FileStore
	maxBytes int64
}

// NewAssetManager constructs an AssetManager enforcing maxBytes per upload.
func NewAssetManager(files FileStore, maxBytes int64) *AssetManager {
	return &AssetManager{files: files, maxBytes: maxBytes}
}

// Validate checks extension and size without touching the disk.
func (m *AssetManager) Validate(fh *multipart.FileHeader, kind AssetKind) error {
	rule, ok := assetRules[kind]
	if !ok {
		return fmt.Errorf("unknown asset kind %q", kind)
	}
	if fh == nil || fh.Size == 0 {
		return invalid("file", "no file uploaded")
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !slices.Contains(rule.extensions, ext) {
		return invalid("file", "%s: only %s files are allowed", fh.Filename, strings.Join(rule.extensions, ", "))
	}

	if fh.Size > m.maxBytes {
		return invalid("file", "%s: file size must not exceed %dMB", fh.Filename, m.maxBytes>>20)
	}

	return nil
}

// Store validates fh and writes it under a collision-free name in the
// kind's directory, returning the reference to save on the owning row.
func (m *AssetManager) Store(fh *multipart.FileHeader, kind AssetKind) (string, error) {
	if err := m.Validate(fh, kind); err != nil {
		return "", err
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	ref, err := m.files.Save(assetRules[kind].dir, name, fh)
	if err != nil {
		return "", fmt.Errorf("save %s: %w", fh.Filename, err)
	}
	return ref, nil
}

// Replace stores fh, hands the new reference to commit, and only once
// commit succeeds discards existingRef. On any failure the new file is
// removed and existingRef is left untouched.
func (m *AssetManager) Replace(existingRef string, fh *multipart.FileHeader, kind AssetKind, commit func(newRef string) error) (string, error) {
	newRef, err := m.Store(fh, kind)
	if err != nil {
		return "", err
	}

	if commit != nil {
		if err := commit(newRef); err != nil {
			m.Discard(newRef)
			return "", err
		}
	}

	m.Discard(existingRef)
	return newRef, nil
}

// Discard removes the file behind ref on a best-effort basis. Failures are
// logged and returned as an issue, never as an error.
func (m *AssetManager) Discard(ref string) *FileIssue {
	if !isManagedRef(ref) {
		return nil
	}
	if err := m.files.Remove(ref); err != nil {
		log.Printf("[assets] failed to remove %s: %v", ref, err)
		return &FileIssue{Ref: ref, Error: err.Error()}
	}
	return nil
}

// DiscardAll discards every ref and collects the failures.
func (m *AssetManager) DiscardAll(refs ...string) []FileIssue {
	var issues []FileIssue
	for _, ref := range refs {
		if issue := m.Discard(ref); issue != nil {
			issues = append(issues, *issue)
		}
	}
	return issues
}

// StoreAll stores a batch; if one file fails, the ones already written are discarded.
func (m *AssetManager) StoreAll(files []*multipart.FileHeader, kind AssetKind) ([]string, error) {
	for _, fh := range files {
		if err := m.Validate(fh, kind); err != nil {
			return nil, err
		}
	}

	refs := make([]string, 0, len(files))
	for _, fh := range files {
		ref, err := m.Store(fh, kind)
		if err != nil {
			m.DiscardAll(refs...)
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func isManagedRef(ref string) bool {
	if ref == "" {
		return false
	}
	for _, prefix := range managedPrefixes {
		if strings.HasPrefix(ref, prefix) {
			return true
		}
	}
	return false
}
