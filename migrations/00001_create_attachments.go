package migrations

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCreateAttachments, downCreateAttachments)
}

func upCreateAttachments(tx *sql.Tx) error {
	createAttachments := `
	CREATE TABLE attachments (
		id UUID PRIMARY KEY,
		access_key VARCHAR(64) NOT NULL UNIQUE,
		owner_id VARCHAR(255) NOT NULL,
		kind VARCHAR(20) NOT NULL,
		category VARCHAR(20) NOT NULL,
		storage_path VARCHAR(500) NOT NULL,
		original_name VARCHAR(255) NOT NULL,
		content_type VARCHAR(255) NOT NULL,
		size_bytes BIGINT NOT NULL,
		status VARCHAR(20) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		deleted_at TIMESTAMP WITH TIME ZONE
	);
	`
	if _, err := tx.Exec(createAttachments); err != nil {
		return fmt.Errorf("could not create attachments table: %w", err)
	}

	// the sweeper scans soft-deleted rows by deletion time
	createIndex := `
	CREATE INDEX idx_attachments_status_deleted_at
		ON attachments (status, deleted_at);
	`
	if _, err := tx.Exec(createIndex); err != nil {
		return fmt.Errorf("could not create attachments index: %w", err)
	}

	return nil
}

func downCreateAttachments(tx *sql.Tx) error {
	if _, err := tx.Exec(`DROP TABLE IF EXISTS attachments;`); err != nil {
		return fmt.Errorf("could not drop attachments table: %w", err)
	}
	return nil
}
