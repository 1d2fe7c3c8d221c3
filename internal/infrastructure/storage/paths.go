package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"attachment-service/pkg/errors"
	"attachment-service/pkg/filetype"
)

// Kinds of storage buckets under an owner directory. The layout is
// root/{owner}/{kind}/{category}/{generated-name.ext}.
const (
	KindAttachment = "attachment"
	KindAvatar     = "avatar"
	KindArticle    = "article"
)

var validKinds = map[string]bool{
	KindAttachment: true,
	KindAvatar:     true,
	KindArticle:    true,
}

// ValidKind reports whether kind names a known storage bucket.
func ValidKind(kind string) bool {
	return validKinds[kind]
}

// PathBuilder derives filesystem paths and registry paths from owner,
// kind, category and file name, and guarantees every result stays inside
// the configured storage root.
type PathBuilder struct {
	root string
}

func NewPathBuilder(root string) (*PathBuilder, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve storage root %q: %w", root, err)
	}
	return &PathBuilder{root: filepath.Clean(abs)}, nil
}

func (p *PathBuilder) Root() string {
	return p.root
}

// DatabasePath builds the root-relative logical path persisted in the
// registry, always with forward slashes. Fails with a path_escape error if
// any component would step outside its segment.
func (p *PathBuilder) DatabasePath(owner, kind string, category filetype.Category, filename string) (string, error) {
	if owner == "" || filename == "" {
		return "", errors.ErrPathEscape(fmt.Errorf("empty path component"))
	}
	if !ValidKind(kind) {
		return "", errors.ErrPathEscape(fmt.Errorf("unknown storage kind %q", kind))
	}
	for _, part := range []string{owner, string(category), filename} {
		if part != filepath.Base(part) || part == ".." || part == "." {
			return "", errors.ErrPathEscape(fmt.Errorf("unsafe path component %q", part))
		}
	}
	return strings.Join([]string{owner, kind, string(category), filename}, "/"), nil
}

// Resolve returns the absolute path for a database path, verifying the
// result is a descendant of the storage root.
func (p *PathBuilder) Resolve(dbPath string) (string, error) {
	if dbPath == "" {
		return "", errors.ErrPathEscape(fmt.Errorf("empty path"))
	}
	abs := filepath.Clean(filepath.Join(p.root, filepath.FromSlash(dbPath)))
	if !strings.HasPrefix(abs, p.root+string(filepath.Separator)) {
		return "", errors.ErrPathEscape(fmt.Errorf("path %q resolves outside storage root", dbPath))
	}
	return abs, nil
}
