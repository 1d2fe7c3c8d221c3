package usecases

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"attachment-service/internal/domain/entities"
	infra "attachment-service/internal/infrastructure/repositories"
	"attachment-service/internal/infrastructure/storage"
	"attachment-service/pkg/filetype"
)

type cleanupTestEnv struct {
	fs       afero.Fs
	registry *infra.InMemoryAttachmentRegistry
	store    *storage.LocalStore
	sessions *SessionManager
	cleanup  CleanupService
}

func newCleanupTestEnv(t *testing.T, grace, tempMaxAge time.Duration) *cleanupTestEnv {
	t.Helper()
	fs := afero.NewMemMapFs()
	log := zap.NewNop().Sugar()

	paths, err := storage.NewPathBuilder("/data/uploads")
	require.NoError(t, err)
	chunks, err := storage.NewChunkStore(fs, "/data/temp", log)
	require.NoError(t, err)

	registry := infra.NewInMemoryAttachmentRegistry()
	store := storage.NewLocalStore(fs, paths)
	sessions := NewSessionManager(chunks, log)

	return &cleanupTestEnv{
		fs:       fs,
		registry: registry,
		store:    store,
		sessions: sessions,
		cleanup:  NewCleanupService(registry, store, sessions, fs, "/data/temp", grace, tempMaxAge, log),
	}
}

// seedAttachment registers an active attachment with its file on disk.
func (e *cleanupTestEnv) seedAttachment(t *testing.T, id, key, dbPath string) {
	t.Helper()
	abs := filepath.Join("/data/uploads", filepath.FromSlash(dbPath))
	require.NoError(t, e.fs.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, afero.WriteFile(e.fs, abs, []byte("content of "+id), 0o644))

	require.NoError(t, e.registry.Create(context.Background(), &entities.Attachment{
		ID:          id,
		AccessKey:   key,
		OwnerID:     "user1",
		Kind:        "attachment",
		Category:    filetype.CategoryDocument,
		StoragePath: dbPath,
		ContentType: "application/pdf",
		Status:      entities.AttachmentActive,
		CreatedAt:   time.Now(),
	}))
}

func TestPurgeExpiredDeletesFileAndMarksPurged(t *testing.T) {
	env := newCleanupTestEnv(t, 6*time.Hour, 24*time.Hour)
	ctx := context.Background()
	now := time.Now()

	dbPath := "user1/attachment/document/aaa.pdf"
	env.seedAttachment(t, "a1", "key1", dbPath)
	require.NoError(t, env.registry.SoftDelete(ctx, "a1", now.Add(-7*time.Hour)))

	require.NoError(t, env.cleanup.PurgeExpired(ctx, now))

	att, err := env.registry.FindByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, entities.AttachmentPurged, att.Status)
	assert.False(t, env.store.Exists(ctx, dbPath))
}

func TestPurgeSkipsAttachmentsInsideGraceWindow(t *testing.T) {
	env := newCleanupTestEnv(t, 6*time.Hour, 24*time.Hour)
	ctx := context.Background()
	now := time.Now()

	dbPath := "user1/attachment/document/bbb.pdf"
	env.seedAttachment(t, "a1", "key1", dbPath)
	require.NoError(t, env.registry.SoftDelete(ctx, "a1", now.Add(-time.Hour)))

	require.NoError(t, env.cleanup.PurgeExpired(ctx, now))

	att, err := env.registry.FindByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, entities.AttachmentSoftDeleted, att.Status)
	assert.True(t, env.store.Exists(ctx, dbPath))
}

func TestRestoreBeforeSweepSurvives(t *testing.T) {
	env := newCleanupTestEnv(t, 6*time.Hour, 24*time.Hour)
	ctx := context.Background()
	now := time.Now()

	dbPath := "user1/attachment/document/ccc.pdf"
	env.seedAttachment(t, "a1", "key1", dbPath)
	require.NoError(t, env.registry.SoftDelete(ctx, "a1", now.Add(-7*time.Hour)))
	require.NoError(t, env.registry.Restore(ctx, "a1"))

	require.NoError(t, env.cleanup.PurgeExpired(ctx, now))

	att, err := env.registry.FindByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, entities.AttachmentActive, att.Status)
	assert.True(t, env.store.Exists(ctx, dbPath))
}

func TestCleanupOldTempDirs(t *testing.T) {
	env := newCleanupTestEnv(t, 6*time.Hour, 24*time.Hour)
	ctx := context.Background()
	now := time.Now()

	oldSession, err := env.sessions.Init("user1", "", "old.pdf")
	require.NoError(t, err)
	freshSession, err := env.sessions.Init("user1", "", "fresh.pdf")
	require.NoError(t, err)

	oldDir := filepath.Join("/data/temp", oldSession.ID)
	stale := now.Add(-25 * time.Hour)
	require.NoError(t, env.fs.Chtimes(oldDir, stale, stale))

	require.NoError(t, env.cleanup.CleanupOldTempDirs(ctx, now))

	exists, err := afero.DirExists(env.fs, oldDir)
	require.NoError(t, err)
	assert.False(t, exists, "stale temp dir should be removed")

	exists, err = afero.DirExists(env.fs, filepath.Join("/data/temp", freshSession.ID))
	require.NoError(t, err)
	assert.True(t, exists, "fresh temp dir must survive")
}

func TestReapDropsIdleSessions(t *testing.T) {
	env := newCleanupTestEnv(t, 6*time.Hour, 24*time.Hour)
	now := time.Now()

	session, err := env.sessions.Init("user1", "", "idle.pdf")
	require.NoError(t, err)

	assert.Equal(t, 0, env.sessions.Reap(now, 24*time.Hour))
	assert.Equal(t, 1, env.sessions.Reap(now.Add(25*time.Hour), 24*time.Hour))

	_, _, err = env.sessions.Status(session.ID)
	require.Error(t, err)
}
