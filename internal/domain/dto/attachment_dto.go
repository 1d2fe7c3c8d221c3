package dto

import "time"

type AttachmentResponse struct {
	ID          string     `json:"id"`
	AccessKey   string     `json:"access_key"`
	OwnerID     string     `json:"owner_id"`
	Kind        string     `json:"kind"`
	Category    string     `json:"category"`
	ContentType string     `json:"content_type"`
	Size        int64      `json:"size"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
