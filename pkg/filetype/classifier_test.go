package filetype

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyExtension(t *testing.T) {
	tests := []struct {
		filename string
		category Category
		allowed  bool
	}{
		{"photo.jpg", CategoryImage, true},
		{"photo.JPEG", CategoryImage, true},
		{"clip.mp4", CategoryVideo, true},
		{"track.mp3", CategoryAudio, true},
		{"bundle.zip", CategoryArchive, true},
		{"report.pdf", CategoryDocument, true},
		{"notes.txt", CategoryDocument, true},
		{"payload.exe", "", false},
		{"script.sh", "", false},
		{"noext", "", false},
	}

	for _, tt := range tests {
		cat, ok := ClassifyExtension(tt.filename)
		assert.Equal(t, tt.allowed, ok, tt.filename)
		assert.Equal(t, tt.category, cat, tt.filename)
	}
}

func TestClassifyRequiresBothChecks(t *testing.T) {
	// extension and MIME both allowed
	cat, ok := Classify("application/pdf", "report.pdf")
	assert.True(t, ok)
	assert.Equal(t, CategoryDocument, cat)

	// MIME parameters are ignored
	_, ok = Classify("text/plain; charset=utf-8", "notes.txt")
	assert.True(t, ok)

	// allowed MIME but banned extension
	_, ok = Classify("application/pdf", "payload.exe")
	assert.False(t, ok)

	// allowed extension but banned MIME
	_, ok = Classify("application/x-msdownload", "report.pdf")
	assert.False(t, ok)
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func TestSniffCategory(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, afero.WriteFile(fs, "/pic.png", pngHeader, 0o644))
	cat, mt, err := SniffCategory(fs, "/pic.png", "pic.png")
	require.NoError(t, err)
	assert.Equal(t, CategoryImage, cat)
	assert.Equal(t, "image/png", mt)

	require.NoError(t, afero.WriteFile(fs, "/doc.pdf", []byte("%PDF-1.4\nhello"), 0o644))
	cat, mt, err = SniffCategory(fs, "/doc.pdf", "doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, CategoryDocument, cat)
	assert.Equal(t, "application/pdf", mt)
}

func TestSniffCategoryDisguisedExecutable(t *testing.T) {
	fs := afero.NewMemMapFs()

	// a PE executable renamed to .png must not classify as image
	require.NoError(t, afero.WriteFile(fs, "/fake.png", []byte("MZ\x90\x00\x03\x00\x00\x00"), 0o644))
	cat, _, err := SniffCategory(fs, "/fake.png", "fake.png")
	require.NoError(t, err)
	assert.NotEqual(t, CategoryImage, cat)
}

func TestSniffCategoryTextFallback(t *testing.T) {
	fs := afero.NewMemMapFs()

	// markdown sniffs as plain text; the extension decides the category
	require.NoError(t, afero.WriteFile(fs, "/readme.md", []byte("# title\nbody\n"), 0o644))
	cat, _, err := SniffCategory(fs, "/readme.md", "readme.md")
	require.NoError(t, err)
	assert.Equal(t, CategoryDocument, cat)
}

func TestSniffCategoryExtensionFallback(t *testing.T) {
	fs := afero.NewMemMapFs()

	// opaque bytes no sniffer recognizes, stored under a scratch name: the
	// fallback must key off the logical filename, not the on-disk path
	opaque := bytes.Repeat([]byte{0xa5, 0x5a, 0x99, 0x00}, 64)
	require.NoError(t, afero.WriteFile(fs, "/stage/.merge-1.tmp", opaque, 0o644))

	cat, _, err := SniffCategory(fs, "/stage/.merge-1.tmp", "track.m4a")
	require.NoError(t, err)
	assert.Equal(t, CategoryAudio, cat)
}
