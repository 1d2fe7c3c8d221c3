package entities

import (
	"time"

	"attachment-service/pkg/filetype"
)

type AttachmentStatus string

const (
	AttachmentActive      AttachmentStatus = "active"
	AttachmentSoftDeleted AttachmentStatus = "soft_deleted"
	AttachmentPurged      AttachmentStatus = "purged"
)

// Attachment is the durable record kept by the registry. AccessKey is the
// only identifier ever placed in a public URL; StoragePath is relative to
// the storage root so the root can be relocated without rewriting records.
type Attachment struct {
	ID           string            `json:"id"`
	AccessKey    string            `json:"access_key"`
	OwnerID      string            `json:"owner_id"`
	Kind         string            `json:"kind"` // attachment, avatar or article
	Category     filetype.Category `json:"category"`
	StoragePath  string            `json:"storage_path"`
	OriginalName string            `json:"original_name"`
	ContentType  string            `json:"content_type"` // sniffed, not declared
	Size         int64             `json:"size"`
	Status       AttachmentStatus  `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	DeletedAt    *time.Time        `json:"deleted_at,omitempty"`
}
