package repositories

import (
	"context"
	"time"

	"attachment-service/internal/domain/entities"
)

// AttachmentRegistry is the durable metadata store. It is the sole writer of
// Status and DeletedAt; everything else is fixed at creation time.
//
// Lifecycle contract: Active -> SoftDeleted -> {Active (restore), Purged}.
// Purged is terminal. Purge of a row that is no longer soft-deleted is a
// no-op so that a racing restore wins if it commits first. Restore of a
// purged or unknown row fails with a not_found error.
type AttachmentRegistry interface {
	Create(ctx context.Context, att *entities.Attachment) error
	FindByID(ctx context.Context, id string) (*entities.Attachment, error)
	FindByAccessKey(ctx context.Context, key string) (*entities.Attachment, error)
	SoftDelete(ctx context.Context, id string, now time.Time) error
	Restore(ctx context.Context, id string) error
	ListExpiredSoftDeleted(ctx context.Context, olderThan time.Time) ([]*entities.Attachment, error)
	Purge(ctx context.Context, id string) error
}
