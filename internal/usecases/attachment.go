package usecases

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"attachment-service/internal/domain/dto"
	"attachment-service/internal/domain/entities"
	"attachment-service/internal/domain/repositories"
	"attachment-service/pkg/errors"
)

type AttachmentService interface {
	// Serve resolves an access key to the attachment and an open reader
	// over its bytes. Only Active attachments are served.
	Serve(ctx context.Context, accessKey string) (*entities.Attachment, io.ReadCloser, int64, error)
	Get(ctx context.Context, id string) (*dto.AttachmentResponse, error)
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
}

type attachmentService struct {
	registry repositories.AttachmentRegistry
	store    repositories.BlobStore
	log      *zap.SugaredLogger
}

func NewAttachmentService(registry repositories.AttachmentRegistry, store repositories.BlobStore, log *zap.SugaredLogger) AttachmentService {
	return &attachmentService{registry: registry, store: store, log: log}
}

func (s *attachmentService) Serve(ctx context.Context, accessKey string) (*entities.Attachment, io.ReadCloser, int64, error) {
	att, err := s.registry.FindByAccessKey(ctx, accessKey)
	if err != nil {
		return nil, nil, 0, err
	}
	if att.Status != entities.AttachmentActive {
		// soft-deleted and purged attachments look identical to outsiders
		return nil, nil, 0, errors.ErrNotFound(nil)
	}

	body, size, err := s.store.Open(ctx, att.StoragePath)
	if err != nil {
		return nil, nil, 0, err
	}
	return att, body, size, nil
}

func (s *attachmentService) Get(ctx context.Context, id string) (*dto.AttachmentResponse, error) {
	att, err := s.registry.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.AttachmentResponse{
		ID:          att.ID,
		AccessKey:   att.AccessKey,
		OwnerID:     att.OwnerID,
		Kind:        att.Kind,
		Category:    string(att.Category),
		ContentType: att.ContentType,
		Size:        att.Size,
		Status:      string(att.Status),
		CreatedAt:   att.CreatedAt,
		DeletedAt:   att.DeletedAt,
	}, nil
}

func (s *attachmentService) SoftDelete(ctx context.Context, id string) error {
	if err := s.registry.SoftDelete(ctx, id, time.Now()); err != nil {
		return err
	}
	s.log.Infow("attachment soft-deleted", "attachment", id)
	return nil
}

func (s *attachmentService) Restore(ctx context.Context, id string) error {
	if err := s.registry.Restore(ctx, id); err != nil {
		return err
	}
	s.log.Infow("attachment restored", "attachment", id)
	return nil
}
