package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attachment-service/internal/domain/dto"
	fe "attachment-service/pkg/errors"
)

// uploads a small PDF and returns its upload response
func seedUpload(t *testing.T, env *uploadTestEnv) *dto.UploadResponse {
	t.Helper()
	ctx := context.Background()
	init, err := env.upload.InitUpload(ctx, &dto.InitUploadRequest{OwnerID: "user1", Filename: "report.pdf"})
	require.NoError(t, err)
	env.sendChunk(t, init.SessionID, 0, pdfBytes)
	resp, err := env.upload.CompleteUpload(ctx, &dto.CompleteUploadRequest{SessionID: init.SessionID})
	require.NoError(t, err)
	return resp
}

func TestServeHidesSoftDeleted(t *testing.T) {
	env := newUploadTestEnv(t)
	ctx := context.Background()
	resp := seedUpload(t, env)

	att, err := env.registry.FindByAccessKey(ctx, resp.AccessKey)
	require.NoError(t, err)

	require.NoError(t, env.serve.SoftDelete(ctx, att.ID))

	// a soft-deleted attachment is indistinguishable from a missing one
	_, _, _, err = env.serve.Serve(ctx, resp.AccessKey)
	assert.True(t, fe.HasCode(err, fe.CodeNotFound))

	// but the owner-facing metadata endpoint still sees it
	meta, err := env.serve.Get(ctx, att.ID)
	require.NoError(t, err)
	assert.Equal(t, "soft_deleted", meta.Status)
	assert.NotNil(t, meta.DeletedAt)
}

func TestRestoreMakesServableAgain(t *testing.T) {
	env := newUploadTestEnv(t)
	ctx := context.Background()
	resp := seedUpload(t, env)

	att, err := env.registry.FindByAccessKey(ctx, resp.AccessKey)
	require.NoError(t, err)

	require.NoError(t, env.serve.SoftDelete(ctx, att.ID))
	require.NoError(t, env.serve.Restore(ctx, att.ID))

	data, contentType := env.serveBytes(t, resp.AccessKey)
	assert.Equal(t, pdfBytes, data)
	assert.Equal(t, "application/pdf", contentType)
}

func TestServeUnknownAccessKey(t *testing.T) {
	env := newUploadTestEnv(t)

	_, _, _, err := env.serve.Serve(context.Background(), "does-not-exist")
	assert.True(t, fe.HasCode(err, fe.CodeNotFound))
}
