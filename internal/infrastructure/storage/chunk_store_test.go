package storage

import (
	"bytes"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	fe "attachment-service/pkg/errors"
)

func newTestChunkStore(t *testing.T) (*ChunkStore, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	cs, err := NewChunkStore(fs, "/data/temp", zap.NewNop().Sugar())
	require.NoError(t, err)
	return cs, fs
}

func TestSaveAndListChunksOutOfOrder(t *testing.T) {
	cs, _ := newTestChunkStore(t)
	require.NoError(t, cs.CreateSession("sess1"))

	require.NoError(t, cs.SaveChunk("sess1", 2, bytes.NewReader([]byte("CC"))))
	require.NoError(t, cs.SaveChunk("sess1", 0, bytes.NewReader([]byte("AA"))))
	require.NoError(t, cs.SaveChunk("sess1", 1, bytes.NewReader([]byte("BB"))))

	chunks, err := cs.ListChunks("sess1")
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	var assembled []byte
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		r, err := cs.Open(c)
		require.NoError(t, err)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		r.Close()
		assembled = append(assembled, data...)
	}
	assert.Equal(t, "AABBCC", string(assembled))
}

func TestSaveChunkOverwritesOnResend(t *testing.T) {
	cs, _ := newTestChunkStore(t)
	require.NoError(t, cs.CreateSession("sess1"))

	require.NoError(t, cs.SaveChunk("sess1", 0, bytes.NewReader([]byte("first"))))
	require.NoError(t, cs.SaveChunk("sess1", 0, bytes.NewReader([]byte("second"))))

	chunks, err := cs.ListChunks("sess1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	r, err := cs.Open(chunks[0])
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestSaveChunkRejectsUnsafeInput(t *testing.T) {
	cs, _ := newTestChunkStore(t)

	err := cs.SaveChunk("../escape", 0, bytes.NewReader(nil))
	assert.True(t, fe.HasCode(err, fe.CodePathEscape))

	require.NoError(t, cs.CreateSession("sess1"))
	err = cs.SaveChunk("sess1", -1, bytes.NewReader(nil))
	assert.True(t, fe.HasCode(err, fe.CodePathEscape))
}

func TestRemoveSessionTolerant(t *testing.T) {
	cs, fs := newTestChunkStore(t)
	require.NoError(t, cs.CreateSession("sess1"))
	require.NoError(t, cs.SaveChunk("sess1", 0, bytes.NewReader([]byte("AA"))))

	require.NoError(t, cs.RemoveSession("sess1"))
	exists, err := afero.DirExists(fs, "/data/temp/sess1")
	require.NoError(t, err)
	assert.False(t, exists)

	// removing again is fine
	require.NoError(t, cs.RemoveSession("sess1"))
}
