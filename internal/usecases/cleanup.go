package usecases

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"attachment-service/internal/domain/repositories"
)

// CleanupService is the lifecycle sweeper. Both passes are idempotent and
// tolerate concurrent live traffic; a failure on one item never aborts the
// rest of the sweep.
type CleanupService interface {
	PurgeExpired(ctx context.Context, now time.Time) error
	CleanupOldTempDirs(ctx context.Context, now time.Time) error
	Run(ctx context.Context)
}

type cleanupService struct {
	registry    repositories.AttachmentRegistry
	store       repositories.BlobStore
	sessions    *SessionManager
	fs          afero.Fs
	tempRoot    string
	gracePeriod time.Duration
	tempMaxAge  time.Duration
	log         *zap.SugaredLogger
}

func NewCleanupService(registry repositories.AttachmentRegistry, store repositories.BlobStore,
	sessions *SessionManager, fs afero.Fs, tempRoot string,
	gracePeriod, tempMaxAge time.Duration, log *zap.SugaredLogger) CleanupService {
	return &cleanupService{
		registry:    registry,
		store:       store,
		sessions:    sessions,
		fs:          fs,
		tempRoot:    tempRoot,
		gracePeriod: gracePeriod,
		tempMaxAge:  tempMaxAge,
		log:         log,
	}
}

// PurgeExpired physically deletes storage for attachments whose soft-delete
// grace window has elapsed and marks them purged. Delete-then-purge order:
// a crash in between leaves a purged-pending row that the next sweep
// finishes, never a file-less Active record.
func (s *cleanupService) PurgeExpired(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-s.gracePeriod)
	expired, err := s.registry.ListExpiredSoftDeleted(ctx, cutoff)
	if err != nil {
		return err
	}

	purged := 0
	for _, att := range expired {
		if err := s.store.Delete(ctx, att.StoragePath); err != nil {
			s.log.Warnw("could not delete attachment file", "attachment", att.ID, "path", att.StoragePath, "err", err)
			continue
		}
		if err := s.registry.Purge(ctx, att.ID); err != nil {
			s.log.Warnw("could not mark attachment purged", "attachment", att.ID, "err", err)
			continue
		}
		purged++
	}

	if purged > 0 {
		s.log.Infow("purged expired soft-deleted attachments", "count", purged)
	}
	return nil
}

// CleanupOldTempDirs reaps upload sessions abandoned mid-flight: their temp
// directories by modification time, and the matching in-memory session
// entries on the same cadence.
func (s *cleanupService) CleanupOldTempDirs(ctx context.Context, now time.Time) error {
	if reaped := s.sessions.Reap(now, s.tempMaxAge); reaped > 0 {
		s.log.Infow("reaped idle upload sessions", "count", reaped)
	}

	entries, err := afero.ReadDir(s.fs, s.tempRoot)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if now.Sub(entry.ModTime()) <= s.tempMaxAge {
			continue
		}
		dirPath := filepath.Join(s.tempRoot, entry.Name())
		if err := s.fs.RemoveAll(dirPath); err != nil {
			s.log.Warnw("could not remove old temp dir", "dir", dirPath, "err", err)
			continue
		}
		s.log.Infow("removed old temp dir", "dir", dirPath)
	}
	return nil
}

// Run executes both sweep passes; meant to be called from the cron timer.
func (s *cleanupService) Run(ctx context.Context) {
	now := time.Now()
	if err := s.PurgeExpired(ctx, now); err != nil {
		s.log.Errorw("purge sweep failed", "err", err)
	}
	if err := s.CleanupOldTempDirs(ctx, now); err != nil {
		s.log.Errorw("temp dir sweep failed", "err", err)
	}
}
