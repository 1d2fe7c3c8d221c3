package usecases

import (
	"context"
	"io"
	"mime/multipart"

	"go.uber.org/zap"

	"attachment-service/internal/domain/dto"
	"attachment-service/internal/domain/entities"
	"attachment-service/internal/infrastructure/queue"
	consts "attachment-service/pkg/constants"
	"attachment-service/pkg/errors"
	"attachment-service/pkg/filetype"
)

type UploadService interface {
	InitUpload(ctx context.Context, req *dto.InitUploadRequest) (*dto.InitUploadResponse, error)
	ReceiveChunk(ctx context.Context, sessionID string, index int, r io.Reader) (*dto.ChunkResponse, error)
	CompleteUpload(ctx context.Context, req *dto.CompleteUploadRequest) (*dto.UploadResponse, error)
	Upload(ctx context.Context, ownerID, kind string, fileHeader *multipart.FileHeader) (*dto.UploadResponse, error)
	UploadStatus(ctx context.Context, sessionID string) (*dto.UploadStatusResponse, error)
}

type uploadService struct {
	sessions  *SessionManager
	assembler *Assembler
	pool      *queue.WorkerPool
	log       *zap.SugaredLogger
}

// NewUploadService wires the resumable and single-shot ingestion paths.
// pool may be nil when no post-processing is configured.
func NewUploadService(sessions *SessionManager, assembler *Assembler, pool *queue.WorkerPool, log *zap.SugaredLogger) UploadService {
	return &uploadService{
		sessions:  sessions,
		assembler: assembler,
		pool:      pool,
		log:       log,
	}
}

func (s *uploadService) InitUpload(ctx context.Context, req *dto.InitUploadRequest) (*dto.InitUploadResponse, error) {
	session, err := s.sessions.Init(req.OwnerID, req.Kind, req.Filename)
	if err != nil {
		return nil, err
	}
	return &dto.InitUploadResponse{SessionID: session.ID}, nil
}

func (s *uploadService) ReceiveChunk(ctx context.Context, sessionID string, index int, r io.Reader) (*dto.ChunkResponse, error) {
	if err := s.sessions.ReceiveChunk(sessionID, index, r); err != nil {
		return nil, err
	}
	return &dto.ChunkResponse{
		Status:     consts.StatusReceived,
		SessionID:  sessionID,
		ChunkIndex: index,
	}, nil
}

func (s *uploadService) CompleteUpload(ctx context.Context, req *dto.CompleteUploadRequest) (*dto.UploadResponse, error) {
	session, err := s.sessions.BeginFinalize(req.SessionID)
	if err != nil {
		return nil, err
	}

	att, err := s.assembler.AssembleSession(ctx, session, req.Filename)
	s.sessions.EndFinalize(req.SessionID, err)
	if err != nil {
		return nil, err
	}

	s.enqueuePostProcessing(att)
	return uploadResponse(att), nil
}

func (s *uploadService) Upload(ctx context.Context, ownerID, kind string, fileHeader *multipart.FileHeader) (*dto.UploadResponse, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, errors.ErrStorageIO(err)
	}
	defer file.Close()

	att, err := s.assembler.PublishStream(ctx, ownerID, kind, fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		return nil, err
	}

	s.enqueuePostProcessing(att)
	return uploadResponse(att), nil
}

func (s *uploadService) UploadStatus(ctx context.Context, sessionID string) (*dto.UploadStatusResponse, error) {
	state, indices, err := s.sessions.Status(sessionID)
	if err != nil {
		return nil, err
	}
	return &dto.UploadStatusResponse{
		SessionID:      sessionID,
		State:          string(state),
		ReceivedChunks: indices,
	}, nil
}

func (s *uploadService) enqueuePostProcessing(att *entities.Attachment) {
	if s.pool == nil || att.Category != filetype.CategoryImage {
		return
	}
	s.pool.AddJob(queue.Job{
		Type:         queue.JobImageVariant,
		AttachmentID: att.ID,
		StoragePath:  att.StoragePath,
	})
}

func uploadResponse(att *entities.Attachment) *dto.UploadResponse {
	return &dto.UploadResponse{
		Status:      consts.StatusCompleted,
		AccessKey:   att.AccessKey,
		AccessURL:   "/files/" + att.AccessKey,
		ContentType: att.ContentType,
		Size:        att.Size,
	}
}
