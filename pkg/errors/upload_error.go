package errors

import (
	"errors"
	"fmt"
)

// Error codes surfaced to clients. Every failure mode of the upload and
// lifecycle path maps to exactly one of these.
const (
	CodeUnsupportedFileType = "unsupported_file_type"
	CodePathEscape          = "path_escape"
	CodeSessionNotFound     = "session_not_found"
	CodeIncompleteUpload    = "incomplete_upload"
	CodeContentMismatch     = "content_mismatch"
	CodeStorageIO           = "storage_io"
	CodeRegistry            = "registry_error"
	CodeNotFound            = "not_found"
	CodeInternal            = "internal_error"
)

type UploadError struct {
	Code    string
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

var (
	ErrUnsupportedFileType = func(err error) *UploadError {
		return &UploadError{Code: CodeUnsupportedFileType, Message: "file type is not allowed", Err: err}
	}
	ErrPathEscape = func(err error) *UploadError {
		return &UploadError{Code: CodePathEscape, Message: "resolved path leaves the storage root", Err: err}
	}
	ErrSessionNotFound = func(err error) *UploadError {
		return &UploadError{Code: CodeSessionNotFound, Message: "upload session does not exist", Err: err}
	}
	ErrIncompleteUpload = func(err error) *UploadError {
		return &UploadError{Code: CodeIncompleteUpload, Message: "upload has missing chunks", Err: err}
	}
	ErrContentMismatch = func(err error) *UploadError {
		return &UploadError{Code: CodeContentMismatch, Message: "file content does not match its declared type", Err: err}
	}
	ErrStorageIO = func(err error) *UploadError {
		return &UploadError{Code: CodeStorageIO, Message: "storage operation failed", Err: err}
	}
	ErrRegistry = func(err error) *UploadError {
		return &UploadError{Code: CodeRegistry, Message: "attachment registry operation failed", Err: err}
	}
	ErrNotFound = func(err error) *UploadError {
		return &UploadError{Code: CodeNotFound, Message: "attachment not found", Err: err}
	}
	ErrInternal = func(err error) *UploadError {
		return &UploadError{Code: CodeInternal, Message: "internal server error", Err: err}
	}
)

// HasCode reports whether err is an *UploadError carrying the given code.
func HasCode(err error, code string) bool {
	var ue *UploadError
	if errors.As(err, &ue) {
		return ue.Code == code
	}
	return false
}
