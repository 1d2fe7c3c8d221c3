package dto

type InitUploadRequest struct {
	OwnerID  string `json:"owner_id" form:"owner_id"`
	Filename string `json:"filename" form:"filename"`
	Kind     string `json:"kind" form:"kind"` // optional, defaults to "attachment"
}

type InitUploadResponse struct {
	SessionID string `json:"session_id"`
}

type ChunkResponse struct {
	Status     string `json:"status"`
	SessionID  string `json:"session_id"`
	ChunkIndex int    `json:"chunk_index"`
}

type CompleteUploadRequest struct {
	SessionID string `json:"session_id" form:"session_id"`
	Filename  string `json:"filename" form:"filename"`
}

type UploadResponse struct {
	Status      string `json:"status"`
	AccessKey   string `json:"access_key"`
	AccessURL   string `json:"access_url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type UploadStatusResponse struct {
	SessionID      string `json:"session_id"`
	State          string `json:"state"`
	ReceivedChunks []int  `json:"received_chunks"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
