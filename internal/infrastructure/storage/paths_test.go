package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fe "attachment-service/pkg/errors"
	"attachment-service/pkg/filetype"
)

func newTestPathBuilder(t *testing.T) *PathBuilder {
	t.Helper()
	pb, err := NewPathBuilder("/data/uploads")
	require.NoError(t, err)
	return pb
}

func TestDatabasePath(t *testing.T) {
	pb := newTestPathBuilder(t)

	dbPath, err := pb.DatabasePath("user1", KindAttachment, filetype.CategoryDocument, "abc123.pdf")
	require.NoError(t, err)
	assert.Equal(t, "user1/attachment/document/abc123.pdf", dbPath)
}

func TestDatabasePathRejectsUnsafeComponents(t *testing.T) {
	pb := newTestPathBuilder(t)

	unsafe := []struct{ owner, kind, filename string }{
		{"../evil", KindAttachment, "a.pdf"},
		{"user1", KindAttachment, "../../a.pdf"},
		{"user1", KindAttachment, "sub/a.pdf"},
		{"user1", KindAttachment, "/etc/passwd"},
		{"user1", "secrets", "a.pdf"},
		{"user1", KindAttachment, ".."},
		{"", KindAttachment, "a.pdf"},
		{"user1", KindAttachment, ""},
	}
	for _, tt := range unsafe {
		_, err := pb.DatabasePath(tt.owner, tt.kind, filetype.CategoryDocument, tt.filename)
		require.Error(t, err, "%+v", tt)
		assert.True(t, fe.HasCode(err, fe.CodePathEscape), "%+v", tt)
	}
}

func TestResolveStaysInsideRoot(t *testing.T) {
	pb := newTestPathBuilder(t)

	abs, err := pb.Resolve("user1/attachment/document/abc123.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/data/uploads/user1/attachment/document/abc123.pdf", abs)

	for _, dbPath := range []string{"../outside", "user1/../../escape", "..", ""} {
		_, err := pb.Resolve(dbPath)
		require.Error(t, err, dbPath)
		assert.True(t, fe.HasCode(err, fe.CodePathEscape), dbPath)
	}
}
