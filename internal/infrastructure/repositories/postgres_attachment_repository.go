package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"attachment-service/internal/domain/entities"
	"attachment-service/pkg/errors"
	"attachment-service/pkg/filetype"
)

// PostgresAttachmentRegistry stores attachment metadata in Postgres. Status
// transitions are conditional UPDATEs, so a restore racing a purge is
// decided by whichever commits first and the loser becomes a no-op.
type PostgresAttachmentRegistry struct {
	db *sql.DB
}

func NewPostgresAttachmentRegistry(db *sql.DB) *PostgresAttachmentRegistry {
	return &PostgresAttachmentRegistry{db: db}
}

const attachmentColumns = `id, access_key, owner_id, kind, category, storage_path, original_name, content_type, size_bytes, status, created_at, deleted_at`

func (r *PostgresAttachmentRegistry) Create(ctx context.Context, att *entities.Attachment) error {
	query := `
		INSERT INTO attachments (` + attachmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		att.ID, att.AccessKey, att.OwnerID, att.Kind, string(att.Category),
		att.StoragePath, att.OriginalName, att.ContentType, att.Size,
		string(att.Status), att.CreatedAt, att.DeletedAt)
	if err != nil {
		return errors.ErrRegistry(fmt.Errorf("insert attachment: %w", err))
	}
	return nil
}

func (r *PostgresAttachmentRegistry) FindByID(ctx context.Context, id string) (*entities.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresAttachmentRegistry) FindByAccessKey(ctx context.Context, key string) (*entities.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE access_key = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, key))
}

func (r *PostgresAttachmentRegistry) SoftDelete(ctx context.Context, id string, now time.Time) error {
	query := `
		UPDATE attachments SET status = 'soft_deleted', deleted_at = $2
		WHERE id = $1 AND status = 'active'
	`
	res, err := r.db.ExecContext(ctx, query, id, now)
	if err != nil {
		return errors.ErrRegistry(fmt.Errorf("soft delete: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.ErrRegistry(fmt.Errorf("soft delete rows affected: %w", err))
	}
	if n == 0 {
		// idempotent when already soft-deleted, an error otherwise
		existing, ferr := r.FindByID(ctx, id)
		if ferr != nil {
			return ferr
		}
		if existing.Status == entities.AttachmentSoftDeleted {
			return nil
		}
		return errors.ErrNotFound(fmt.Errorf("attachment %s is %s", id, existing.Status))
	}
	return nil
}

func (r *PostgresAttachmentRegistry) Restore(ctx context.Context, id string) error {
	query := `
		UPDATE attachments SET status = 'active', deleted_at = NULL
		WHERE id = $1 AND status = 'soft_deleted'
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return errors.ErrRegistry(fmt.Errorf("restore: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.ErrRegistry(fmt.Errorf("restore rows affected: %w", err))
	}
	if n == 0 {
		existing, ferr := r.FindByID(ctx, id)
		if ferr != nil {
			return ferr
		}
		if existing.Status == entities.AttachmentActive {
			return nil
		}
		// purged rows are never resurrected
		return errors.ErrNotFound(fmt.Errorf("attachment %s is %s", id, existing.Status))
	}
	return nil
}

func (r *PostgresAttachmentRegistry) ListExpiredSoftDeleted(ctx context.Context, olderThan time.Time) ([]*entities.Attachment, error) {
	query := `
		SELECT ` + attachmentColumns + ` FROM attachments
		WHERE status = 'soft_deleted' AND deleted_at < $1
	`
	rows, err := r.db.QueryContext(ctx, query, olderThan)
	if err != nil {
		return nil, errors.ErrRegistry(fmt.Errorf("list expired: %w", err))
	}
	defer rows.Close()

	var result []*entities.Attachment
	for rows.Next() {
		att, err := scanAttachment(rows)
		if err != nil {
			return nil, errors.ErrRegistry(err)
		}
		result = append(result, att)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ErrRegistry(err)
	}
	return result, nil
}

func (r *PostgresAttachmentRegistry) Purge(ctx context.Context, id string) error {
	// no-op when the row was restored in the meantime
	query := `UPDATE attachments SET status = 'purged' WHERE id = $1 AND status = 'soft_deleted'`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return errors.ErrRegistry(fmt.Errorf("purge: %w", err))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttachment(row rowScanner) (*entities.Attachment, error) {
	var att entities.Attachment
	var category, status string
	var deletedAt sql.NullTime
	err := row.Scan(&att.ID, &att.AccessKey, &att.OwnerID, &att.Kind, &category,
		&att.StoragePath, &att.OriginalName, &att.ContentType, &att.Size,
		&status, &att.CreatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	att.Category = filetype.Category(category)
	att.Status = entities.AttachmentStatus(status)
	if deletedAt.Valid {
		t := deletedAt.Time
		att.DeletedAt = &t
	}
	return &att, nil
}

func (r *PostgresAttachmentRegistry) scanOne(row *sql.Row) (*entities.Attachment, error) {
	att, err := scanAttachment(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound(err)
		}
		return nil, errors.ErrRegistry(fmt.Errorf("select attachment: %w", err))
	}
	return att, nil
}
