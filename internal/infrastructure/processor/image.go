package processor

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"attachment-service/internal/infrastructure/storage"
)

const (
	thumbWidth  = 320
	thumbHeight = 320
)

// ImageProcessor derives thumbnail variants for published image
// attachments. Variants live next to the original with a "thumb_" prefix
// and are best-effort: a failure leaves the original untouched.
type ImageProcessor struct {
	fs    afero.Fs
	paths *storage.PathBuilder
	log   *zap.SugaredLogger
}

func NewImageProcessor(fs afero.Fs, paths *storage.PathBuilder, log *zap.SugaredLogger) *ImageProcessor {
	return &ImageProcessor{fs: fs, paths: paths, log: log}
}

// CreateThumbnail renders a fitted thumbnail for the image at dbPath and
// returns the variant's database path.
func (p *ImageProcessor) CreateThumbnail(dbPath string) (string, error) {
	abs, err := p.paths.Resolve(dbPath)
	if err != nil {
		return "", err
	}

	in, err := p.fs.Open(abs)
	if err != nil {
		return "", fmt.Errorf("cannot open image: %w", err)
	}
	img, err := imaging.Decode(in)
	in.Close()
	if err != nil {
		return "", fmt.Errorf("cannot decode image: %w", err)
	}

	format, err := imaging.FormatFromFilename(abs)
	if err != nil {
		return "", fmt.Errorf("cannot derive image format: %w", err)
	}

	thumb := imaging.Fit(img, thumbWidth, thumbHeight, imaging.Lanczos)

	variantAbs := variantPath(abs)
	out, err := p.fs.Create(variantAbs)
	if err != nil {
		return "", fmt.Errorf("cannot create thumbnail: %w", err)
	}
	if err := imaging.Encode(out, thumb, format); err != nil {
		out.Close()
		p.fs.Remove(variantAbs)
		return "", fmt.Errorf("cannot encode thumbnail: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("cannot close thumbnail: %w", err)
	}

	variant := variantPath(dbPath)
	p.log.Infow("thumbnail created", "original", dbPath, "variant", variant)
	return variant, nil
}

func variantPath(path string) string {
	dir, name := filepath.Split(path)
	return dir + "thumb_" + name
}

// SupportedVariantSource reports whether a thumbnail can be derived for the
// file name; formats imaging cannot encode (webp among them) are skipped.
func SupportedVariantSource(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp":
		return true
	default:
		return false
	}
}
