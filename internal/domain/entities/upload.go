package entities

import (
	"time"

	"attachment-service/pkg/filetype"
)

type SessionState string

const (
	SessionInitialized SessionState = "initialized"
	SessionReceiving   SessionState = "receiving"
	SessionFinalizing  SessionState = "finalizing"
	SessionCompleted   SessionState = "completed"
	SessionFailed      SessionState = "failed"
)

// UploadSession is the transient state of one resumable upload. It lives in
// memory only; nothing survives past the terminal states except the
// assembled attachment itself.
type UploadSession struct {
	ID           string            `json:"id"`
	OwnerID      string            `json:"owner_id"`
	Kind         string            `json:"kind"`
	DeclaredName string            `json:"declared_name"`
	Category     filetype.Category `json:"category"`
	State        SessionState      `json:"state"`
	CreatedAt    time.Time         `json:"created_at"`
	LastActivity time.Time         `json:"last_activity"`
}

// Terminal reports whether no further transitions are possible.
func (s SessionState) Terminal() bool {
	return s == SessionCompleted || s == SessionFailed
}
