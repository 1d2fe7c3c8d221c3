package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"attachment-service/pkg/errors"
)

// LocalStore keeps published files on a local filesystem under the path
// builder's root. Publish is a single rename, so the staged file must live
// on the same filesystem; Stage therefore places it next to its final
// location, as a dotfile the chunk/file listings ignore.
type LocalStore struct {
	fs    afero.Fs
	paths *PathBuilder
}

func NewLocalStore(fs afero.Fs, paths *PathBuilder) *LocalStore {
	return &LocalStore{fs: fs, paths: paths}
}

func (l *LocalStore) Stage(dbPath string) (string, error) {
	abs, err := l.paths.Resolve(dbPath)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(abs)
	if err := l.fs.MkdirAll(dir, 0o755); err != nil {
		return "", errors.ErrStorageIO(fmt.Errorf("cannot create category dir: %w", err))
	}
	return filepath.Join(dir, fmt.Sprintf(".merge-%d.tmp", time.Now().UnixNano())), nil
}

func (l *LocalStore) Publish(ctx context.Context, stagedPath, dbPath string) error {
	abs, err := l.paths.Resolve(dbPath)
	if err != nil {
		return err
	}
	// rename only, never a copy: a copy would expose a partial file
	if err := l.fs.Rename(stagedPath, abs); err != nil {
		return errors.ErrStorageIO(fmt.Errorf("cannot publish %s: %w", dbPath, err))
	}
	return nil
}

func (l *LocalStore) Open(ctx context.Context, dbPath string) (io.ReadCloser, int64, error) {
	abs, err := l.paths.Resolve(dbPath)
	if err != nil {
		return nil, 0, err
	}
	f, err := l.fs.Open(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, errors.ErrNotFound(err)
		}
		return nil, 0, errors.ErrStorageIO(fmt.Errorf("cannot open %s: %w", dbPath, err))
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, errors.ErrStorageIO(fmt.Errorf("cannot stat %s: %w", dbPath, err))
	}
	return f, info.Size(), nil
}

func (l *LocalStore) Delete(ctx context.Context, dbPath string) error {
	abs, err := l.paths.Resolve(dbPath)
	if err != nil {
		return err
	}
	if err := l.fs.Remove(abs); err != nil && !os.IsNotExist(err) {
		return errors.ErrStorageIO(fmt.Errorf("cannot delete %s: %w", dbPath, err))
	}
	return nil
}

func (l *LocalStore) Exists(ctx context.Context, dbPath string) bool {
	abs, err := l.paths.Resolve(dbPath)
	if err != nil {
		return false
	}
	ok, err := afero.Exists(l.fs, abs)
	return err == nil && ok
}
