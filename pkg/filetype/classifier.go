package filetype

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// Category is the storage sub-category an allowed file is filed under.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryVideo    Category = "video"
	CategoryAudio    Category = "audio"
	CategoryArchive  Category = "archive"
	CategoryDocument Category = "document"
)

// Extension allow-list. A file whose extension is not listed here is rejected
// at init time, before any bytes are accepted.
var extCategories = map[string]Category{
	"jpg":  CategoryImage,
	"jpeg": CategoryImage,
	"png":  CategoryImage,
	"gif":  CategoryImage,
	"webp": CategoryImage,
	"bmp":  CategoryImage,

	"mp4":  CategoryVideo,
	"mov":  CategoryVideo,
	"avi":  CategoryVideo,
	"mkv":  CategoryVideo,
	"webm": CategoryVideo,

	"mp3":  CategoryAudio,
	"wav":  CategoryAudio,
	"ogg":  CategoryAudio,
	"flac": CategoryAudio,
	"m4a":  CategoryAudio,

	"zip": CategoryArchive,
	"rar": CategoryArchive,
	"7z":  CategoryArchive,
	"tar": CategoryArchive,
	"gz":  CategoryArchive,

	"pdf":  CategoryDocument,
	"txt":  CategoryDocument,
	"md":   CategoryDocument,
	"csv":  CategoryDocument,
	"doc":  CategoryDocument,
	"docx": CategoryDocument,
	"xls":  CategoryDocument,
	"xlsx": CategoryDocument,
	"ppt":  CategoryDocument,
	"pptx": CategoryDocument,
}

// MIME allow-list, checked independently of the extension so a spoofed
// Content-Type alone is never enough to get a file through.
var mimeCategories = map[string]Category{
	"image/jpeg": CategoryImage,
	"image/png":  CategoryImage,
	"image/gif":  CategoryImage,
	"image/webp": CategoryImage,
	"image/bmp":  CategoryImage,

	"video/mp4":        CategoryVideo,
	"video/quicktime":  CategoryVideo,
	"video/x-msvideo":  CategoryVideo,
	"video/x-matroska": CategoryVideo,
	"video/webm":       CategoryVideo,

	"audio/mpeg":  CategoryAudio,
	"audio/mp3":   CategoryAudio,
	"audio/wav":   CategoryAudio,
	"audio/x-wav": CategoryAudio,
	"audio/ogg":   CategoryAudio,
	"audio/flac":  CategoryAudio,
	"audio/x-m4a": CategoryAudio,
	"audio/mp4":   CategoryAudio,

	"application/zip":              CategoryArchive,
	"application/x-rar-compressed": CategoryArchive,
	"application/vnd.rar":          CategoryArchive,
	"application/x-7z-compressed":  CategoryArchive,
	"application/x-tar":            CategoryArchive,
	"application/gzip":             CategoryArchive,

	"application/pdf": CategoryDocument,
	"text/plain":      CategoryDocument,
	"text/markdown":   CategoryDocument,
	"text/csv":        CategoryDocument,
	"application/msword": CategoryDocument,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": CategoryDocument,
	"application/vnd.ms-excel": CategoryDocument,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": CategoryDocument,
	"application/vnd.ms-powerpoint": CategoryDocument,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": CategoryDocument,
}

// NormalizeExt returns the lowercased extension of filename without the dot.
func NormalizeExt(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// ClassifyExtension maps a filename to its storage category using the
// extension allow-list only. Used for the fail-fast check at upload init,
// where no declared MIME type exists yet.
func ClassifyExtension(filename string) (Category, bool) {
	cat, ok := extCategories[NormalizeExt(filename)]
	return cat, ok
}

// Classify decides whether a (declared MIME type, filename) pair is allowed.
// Both the MIME type and the extension must independently pass their
// allow-lists; the returned category is derived from the extension, which is
// what decides the storage location.
func Classify(mimeType, filename string) (Category, bool) {
	extCat, extOK := ClassifyExtension(filename)
	if !extOK {
		return "", false
	}
	if _, mimeOK := mimeCategories[baseMime(mimeType)]; !mimeOK {
		return "", false
	}
	return extCat, true
}

// SniffCategory derives the category from the file's real content by magic
// byte detection, ignoring whatever the client declared. path points at the
// bytes to sniff; filename carries the logical name whose extension serves
// as the fallback when detection is inconclusive (generic octet-stream), so
// a staged scratch name never leaks into the decision. An unrecognized
// category comes back empty; callers treat that as a validation failure.
func SniffCategory(fs afero.Fs, path, filename string) (Category, string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return "", "", err
	}

	detected := baseMime(mtype.String())
	if cat, ok := mimeCategories[detected]; ok {
		return cat, detected, nil
	}

	if detected == "application/octet-stream" {
		if cat, ok := ClassifyExtension(filename); ok {
			return cat, extensionMime(filename), nil
		}
	}

	return "", detected, nil
}

// extensionMime is the best-effort MIME type for an allowed extension, used
// only when sniffing was inconclusive.
func extensionMime(filename string) string {
	if mt := mime.TypeByExtension(filepath.Ext(filename)); mt != "" {
		return baseMime(mt)
	}
	return "application/octet-stream"
}

func baseMime(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	return strings.TrimSpace(strings.ToLower(base))
}
