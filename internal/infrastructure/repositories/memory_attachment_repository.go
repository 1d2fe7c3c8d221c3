package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"attachment-service/internal/domain/entities"
	"attachment-service/pkg/errors"
)

// InMemoryAttachmentRegistry is the single-node default registry and the
// test double. Purged rows stay in the table so an access key is never
// handed out twice.
type InMemoryAttachmentRegistry struct {
	mu    sync.RWMutex
	byID  map[string]*entities.Attachment
	byKey map[string]string // access key -> id
}

func NewInMemoryAttachmentRegistry() *InMemoryAttachmentRegistry {
	return &InMemoryAttachmentRegistry{
		byID:  make(map[string]*entities.Attachment),
		byKey: make(map[string]string),
	}
}

func (r *InMemoryAttachmentRegistry) Create(ctx context.Context, att *entities.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[att.ID]; exists {
		return errors.ErrRegistry(fmt.Errorf("duplicate attachment id %s", att.ID))
	}
	if _, exists := r.byKey[att.AccessKey]; exists {
		return errors.ErrRegistry(fmt.Errorf("duplicate access key"))
	}

	stored := *att
	r.byID[att.ID] = &stored
	r.byKey[att.AccessKey] = att.ID
	return nil
}

func (r *InMemoryAttachmentRegistry) FindByID(ctx context.Context, id string) (*entities.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	att, ok := r.byID[id]
	if !ok {
		return nil, errors.ErrNotFound(nil)
	}
	cp := *att
	return &cp, nil
}

func (r *InMemoryAttachmentRegistry) FindByAccessKey(ctx context.Context, key string) (*entities.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[key]
	if !ok {
		return nil, errors.ErrNotFound(nil)
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *InMemoryAttachmentRegistry) SoftDelete(ctx context.Context, id string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	att, ok := r.byID[id]
	if !ok {
		return errors.ErrNotFound(nil)
	}
	switch att.Status {
	case entities.AttachmentActive:
		att.Status = entities.AttachmentSoftDeleted
		deletedAt := now
		att.DeletedAt = &deletedAt
		return nil
	case entities.AttachmentSoftDeleted:
		// already deleted, keep the original deletion time
		return nil
	default:
		return errors.ErrNotFound(fmt.Errorf("attachment %s is purged", id))
	}
}

func (r *InMemoryAttachmentRegistry) Restore(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	att, ok := r.byID[id]
	if !ok {
		return errors.ErrNotFound(nil)
	}
	switch att.Status {
	case entities.AttachmentSoftDeleted:
		att.Status = entities.AttachmentActive
		att.DeletedAt = nil
		return nil
	case entities.AttachmentActive:
		return nil
	default:
		// a purged attachment has no backing file left to resurrect
		return errors.ErrNotFound(fmt.Errorf("attachment %s is purged", id))
	}
}

func (r *InMemoryAttachmentRegistry) ListExpiredSoftDeleted(ctx context.Context, olderThan time.Time) ([]*entities.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*entities.Attachment
	for _, att := range r.byID {
		if att.Status == entities.AttachmentSoftDeleted && att.DeletedAt != nil && att.DeletedAt.Before(olderThan) {
			cp := *att
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (r *InMemoryAttachmentRegistry) Purge(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	att, ok := r.byID[id]
	if !ok {
		return errors.ErrNotFound(nil)
	}
	// only a row that is still soft-deleted may be purged; a restore that
	// committed in between wins
	if att.Status == entities.AttachmentSoftDeleted {
		att.Status = entities.AttachmentPurged
	}
	return nil
}
