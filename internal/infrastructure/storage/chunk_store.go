package storage

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"attachment-service/pkg/errors"
)

const chunkSuffix = ".part"

// Chunk is one received fragment, already persisted under its session dir.
type Chunk struct {
	Index int
	Path  string
}

// ChunkStore persists upload fragments keyed by (session, index) and lists
// them back in numeric order for assembly. Chunk names are zero-padded so
// lexicographic directory order matches numeric order.
type ChunkStore struct {
	fs       afero.Fs
	tempRoot string
	log      *zap.SugaredLogger
}

func NewChunkStore(fs afero.Fs, tempRoot string, log *zap.SugaredLogger) (*ChunkStore, error) {
	abs, err := filepath.Abs(tempRoot)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve temp root %q: %w", tempRoot, err)
	}
	if err := fs.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create temp root: %w", err)
	}
	return &ChunkStore{fs: fs, tempRoot: abs, log: log}, nil
}

func (s *ChunkStore) TempRoot() string {
	return s.tempRoot
}

// SessionDir returns the temp directory for a session after checking the
// session ID cannot climb out of the temp root. IDs are generated UUIDs so
// this cannot trigger in practice; it is checked anyway.
func (s *ChunkStore) SessionDir(sessionID string) (string, error) {
	if sessionID == "" || sessionID != filepath.Base(sessionID) || sessionID == ".." {
		return "", errors.ErrPathEscape(fmt.Errorf("unsafe session id %q", sessionID))
	}
	return filepath.Join(s.tempRoot, sessionID), nil
}

// CreateSession makes the empty per-session directory.
func (s *ChunkStore) CreateSession(sessionID string) error {
	dir, err := s.SessionDir(sessionID)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return errors.ErrStorageIO(fmt.Errorf("cannot create session dir: %w", err))
	}
	return nil
}

// SaveChunk streams one fragment to <dir>/<index>.part via a temp file and
// rename, so a re-send of the same index overwrites atomically instead of
// appending. Safe to call concurrently for distinct indices.
func (s *ChunkStore) SaveChunk(sessionID string, index int, r io.Reader) error {
	dir, err := s.SessionDir(sessionID)
	if err != nil {
		return err
	}
	if index < 0 {
		return errors.ErrPathEscape(fmt.Errorf("negative chunk index %d", index))
	}

	finalPath := filepath.Join(dir, chunkName(index))
	tmpPath := fmt.Sprintf("%s.tmp.%d", finalPath, time.Now().UnixNano())

	tmpFile, err := s.fs.Create(tmpPath)
	if err != nil {
		return errors.ErrStorageIO(fmt.Errorf("cannot create chunk temp file: %w", err))
	}

	if _, err := io.Copy(tmpFile, r); err != nil {
		tmpFile.Close()
		s.removeQuiet(tmpPath)
		return errors.ErrStorageIO(fmt.Errorf("cannot write chunk %d: %w", index, err))
	}
	if err := tmpFile.Close(); err != nil {
		s.removeQuiet(tmpPath)
		return errors.ErrStorageIO(fmt.Errorf("cannot close chunk %d: %w", index, err))
	}

	if err := s.fs.Rename(tmpPath, finalPath); err != nil {
		s.removeQuiet(tmpPath)
		return errors.ErrStorageIO(fmt.Errorf("cannot move chunk %d in place: %w", index, err))
	}
	return nil
}

// ListChunks enumerates the received fragments of a session in ascending
// index order. Unparseable names (stray temp files) are skipped.
func (s *ChunkStore) ListChunks(sessionID string) ([]Chunk, error) {
	dir, err := s.SessionDir(sessionID)
	if err != nil {
		return nil, err
	}

	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, errors.ErrStorageIO(fmt.Errorf("cannot list session dir: %w", err))
	}

	chunks := make([]Chunk, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), chunkSuffix) {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSuffix(e.Name(), chunkSuffix))
		if err != nil {
			s.log.Debugw("skipping unparseable chunk file", "session", sessionID, "name", e.Name())
			continue
		}
		chunks = append(chunks, Chunk{Index: idx, Path: filepath.Join(dir, e.Name())})
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })
	return chunks, nil
}

// Open opens one persisted chunk for reading.
func (s *ChunkStore) Open(c Chunk) (io.ReadCloser, error) {
	f, err := s.fs.Open(c.Path)
	if err != nil {
		return nil, errors.ErrStorageIO(fmt.Errorf("cannot open chunk %d: %w", c.Index, err))
	}
	return f, nil
}

// RemoveSession deletes the whole session directory. A directory that is
// already gone counts as success.
func (s *ChunkStore) RemoveSession(sessionID string) error {
	dir, err := s.SessionDir(sessionID)
	if err != nil {
		return err
	}
	if err := s.fs.RemoveAll(dir); err != nil {
		return errors.ErrStorageIO(fmt.Errorf("cannot remove session dir: %w", err))
	}
	return nil
}

func (s *ChunkStore) removeQuiet(path string) {
	if err := s.fs.Remove(path); err != nil {
		s.log.Debugw("could not remove temp file", "path", path, "err", err)
	}
}

func chunkName(index int) string {
	return fmt.Sprintf("%06d%s", index, chunkSuffix)
}
