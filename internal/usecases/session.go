package usecases

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"attachment-service/internal/domain/entities"
	"attachment-service/internal/infrastructure/storage"
	"attachment-service/pkg/errors"
	"attachment-service/pkg/filetype"
)

// SessionManager owns the state machine of every in-flight resumable
// upload: Initialized -> Receiving -> Finalizing -> {Completed, Failed}.
// Sessions live in memory only; abandoned ones age out via the sweeper.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*entities.UploadSession
	chunks   *storage.ChunkStore
	log      *zap.SugaredLogger
}

func NewSessionManager(chunks *storage.ChunkStore, log *zap.SugaredLogger) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*entities.UploadSession),
		chunks:   chunks,
		log:      log,
	}
}

// Init validates the declared filename against the extension allow-list
// before accepting any bytes, creates the empty temp directory and returns
// the new session.
func (m *SessionManager) Init(ownerID, kind, filename string) (*entities.UploadSession, error) {
	if kind == "" {
		kind = storage.KindAttachment
	}
	if !storage.ValidKind(kind) {
		return nil, errors.ErrUnsupportedFileType(fmt.Errorf("unknown storage kind %q", kind))
	}

	category, ok := filetype.ClassifyExtension(filename)
	if !ok {
		return nil, errors.ErrUnsupportedFileType(fmt.Errorf("extension of %q is not allowed", filename))
	}

	session := &entities.UploadSession{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Kind:         kind,
		DeclaredName: filename,
		Category:     category,
		State:        entities.SessionInitialized,
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
	}

	if err := m.chunks.CreateSession(session.ID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.log.Infow("upload session initialized", "session", session.ID, "owner", ownerID, "category", category)
	return session, nil
}

// ReceiveChunk persists one fragment. Chunks may arrive in any order and
// any index may be re-sent; the last write for an index wins. Once a
// finalize has started the session no longer accepts chunks.
func (m *SessionManager) ReceiveChunk(sessionID string, index int, r io.Reader) error {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return errors.ErrSessionNotFound(nil)
	}
	if session.State != entities.SessionInitialized && session.State != entities.SessionReceiving {
		m.mu.Unlock()
		return errors.ErrSessionNotFound(fmt.Errorf("session %s is %s", sessionID, session.State))
	}
	session.State = entities.SessionReceiving
	session.LastActivity = time.Now()
	m.mu.Unlock()

	// the write itself runs outside the table lock so concurrent chunks of
	// the same session do not serialize on it
	return m.chunks.SaveChunk(sessionID, index, r)
}

// BeginFinalize moves the session to Finalizing. A second concurrent
// finalize, or one against an unknown session, is rejected.
func (m *SessionManager) BeginFinalize(sessionID string) (*entities.UploadSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, errors.ErrSessionNotFound(nil)
	}
	if session.State != entities.SessionInitialized && session.State != entities.SessionReceiving {
		return nil, errors.ErrSessionNotFound(fmt.Errorf("session %s is %s", sessionID, session.State))
	}
	session.State = entities.SessionFinalizing
	session.LastActivity = time.Now()

	cp := *session
	return &cp, nil
}

// EndFinalize records the assembly outcome. On success and on hard failure
// the temp directory is removed and the session is discarded; an
// incomplete upload puts the session back into Receiving so the client can
// retry the missing chunks.
func (m *SessionManager) EndFinalize(sessionID string, assembleErr error) {
	if errors.HasCode(assembleErr, errors.CodeIncompleteUpload) {
		m.mu.Lock()
		if session, ok := m.sessions[sessionID]; ok {
			session.State = entities.SessionReceiving
			session.LastActivity = time.Now()
		}
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	if session, ok := m.sessions[sessionID]; ok {
		if assembleErr == nil {
			session.State = entities.SessionCompleted
		} else {
			session.State = entities.SessionFailed
		}
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()

	if err := m.chunks.RemoveSession(sessionID); err != nil {
		m.log.Warnw("could not remove session temp dir", "session", sessionID, "err", err)
	}
}

// Status reports the session state and the chunk indices received so far.
func (m *SessionManager) Status(sessionID string) (entities.SessionState, []int, error) {
	m.mu.RLock()
	session, ok := m.sessions[sessionID]
	if !ok {
		m.mu.RUnlock()
		return "", nil, errors.ErrSessionNotFound(nil)
	}
	state := session.State
	m.mu.RUnlock()

	chunks, err := m.chunks.ListChunks(sessionID)
	if err != nil {
		return "", nil, err
	}
	indices := make([]int, 0, len(chunks))
	for _, c := range chunks {
		indices = append(indices, c.Index)
	}
	return state, indices, nil
}

// Reap drops in-memory sessions that have been idle longer than maxAge.
// Called by the sweeper on the same cadence as the temp dir cleanup, so
// the table cannot grow without bound when clients vanish mid-upload.
func (m *SessionManager) Reap(now time.Time, maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	reaped := 0
	for id, session := range m.sessions {
		if session.State == entities.SessionFinalizing {
			continue
		}
		if now.Sub(session.LastActivity) > maxAge {
			delete(m.sessions, id)
			reaped++
		}
	}
	return reaped
}
