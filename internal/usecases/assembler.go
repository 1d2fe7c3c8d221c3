package usecases

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"attachment-service/internal/domain/entities"
	"attachment-service/internal/domain/repositories"
	"attachment-service/internal/infrastructure/storage"
	"attachment-service/pkg/errors"
	"attachment-service/pkg/filetype"
)

// Assembler merges ordered chunk sets into published attachments. The same
// validate / publish / persist tail also serves the single-shot upload
// path, which is just the one-chunk degenerate case.
type Assembler struct {
	fs       afero.Fs
	chunks   *storage.ChunkStore
	paths    *storage.PathBuilder
	store    repositories.BlobStore
	registry repositories.AttachmentRegistry
	log      *zap.SugaredLogger
}

func NewAssembler(fs afero.Fs, chunks *storage.ChunkStore, paths *storage.PathBuilder,
	store repositories.BlobStore, registry repositories.AttachmentRegistry, log *zap.SugaredLogger) *Assembler {
	return &Assembler{fs: fs, chunks: chunks, paths: paths, store: store, registry: registry, log: log}
}

// AssembleSession concatenates the session's chunks lowest index first into
// a staged file, then validates and publishes it. The chunk listing is
// frozen here; anything arriving later is not part of the result.
func (a *Assembler) AssembleSession(ctx context.Context, session *entities.UploadSession, finalFilename string) (*entities.Attachment, error) {
	if finalFilename == "" {
		finalFilename = session.DeclaredName
	}
	category, ok := filetype.ClassifyExtension(finalFilename)
	if !ok || category != session.Category {
		return nil, errors.ErrUnsupportedFileType(fmt.Errorf("final filename %q does not match the declared type", finalFilename))
	}

	chunks, err := a.chunks.ListChunks(session.ID)
	if err != nil {
		return nil, err
	}
	if missing, gaps := missingIndices(chunks, maxReportedGaps); gaps > 0 {
		return nil, errors.ErrIncompleteUpload(fmt.Errorf("missing chunk indices %v (%d total)", missing, gaps))
	}

	dbPath, err := a.buildDBPath(session.OwnerID, session.Kind, category, finalFilename)
	if err != nil {
		return nil, err
	}

	staged, err := a.store.Stage(dbPath)
	if err != nil {
		return nil, err
	}

	size, err := a.writeStaged(staged, chunks)
	if err != nil {
		a.discardStaged(staged)
		return nil, err
	}

	att, err := a.finishStaged(ctx, session.OwnerID, session.Kind, category, finalFilename, staged, dbPath, size)
	if err != nil {
		return nil, err
	}
	a.log.Infow("upload assembled", "session", session.ID, "attachment", att.ID, "size", size, "chunks", len(chunks))
	return att, nil
}

// PublishStream is the non-resumable single-shot path: same classifier,
// path builder, atomic publish and registry persist, no chunk bookkeeping.
func (a *Assembler) PublishStream(ctx context.Context, ownerID, kind, filename, declaredMime string, r io.Reader) (*entities.Attachment, error) {
	if kind == "" {
		kind = storage.KindAttachment
	}
	if !storage.ValidKind(kind) {
		return nil, errors.ErrUnsupportedFileType(fmt.Errorf("unknown storage kind %q", kind))
	}
	category, ok := filetype.Classify(declaredMime, filename)
	if !ok {
		return nil, errors.ErrUnsupportedFileType(fmt.Errorf("%q (%s) is not allowed", filename, declaredMime))
	}

	dbPath, err := a.buildDBPath(ownerID, kind, category, filename)
	if err != nil {
		return nil, err
	}

	staged, err := a.store.Stage(dbPath)
	if err != nil {
		return nil, err
	}

	out, err := a.fs.Create(staged)
	if err != nil {
		return nil, errors.ErrStorageIO(fmt.Errorf("cannot create staged file: %w", err))
	}
	size, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		a.discardStaged(staged)
		return nil, errors.ErrStorageIO(fmt.Errorf("cannot write staged file: %w", err))
	}

	return a.finishStaged(ctx, ownerID, kind, category, filename, staged, dbPath, size)
}

// buildDBPath derives the registry path from a generated name, never from
// client input: only the validated extension of the original name survives.
func (a *Assembler) buildDBPath(ownerID, kind string, category filetype.Category, filename string) (string, error) {
	generated := strings.ReplaceAll(uuid.NewString(), "-", "") + "." + filetype.NormalizeExt(filename)
	return a.paths.DatabasePath(ownerID, kind, category, generated)
}

func (a *Assembler) writeStaged(staged string, chunks []storage.Chunk) (int64, error) {
	out, err := a.fs.Create(staged)
	if err != nil {
		return 0, errors.ErrStorageIO(fmt.Errorf("cannot create staged file: %w", err))
	}

	var size int64
	for _, chunk := range chunks {
		in, err := a.chunks.Open(chunk)
		if err != nil {
			out.Close()
			return 0, err
		}
		n, err := io.Copy(out, in)
		in.Close()
		if err != nil {
			out.Close()
			return 0, errors.ErrStorageIO(fmt.Errorf("cannot merge chunk %d: %w", chunk.Index, err))
		}
		size += n
	}

	if err := out.Sync(); err != nil {
		out.Close()
		return 0, errors.ErrStorageIO(fmt.Errorf("cannot sync staged file: %w", err))
	}
	if err := out.Close(); err != nil {
		return 0, errors.ErrStorageIO(fmt.Errorf("cannot close staged file: %w", err))
	}
	return size, nil
}

// finishStaged runs the shared tail: re-sniff and re-validate the real
// content, issue a fresh access key, publish atomically, persist the
// registry record. A registry failure deletes the published file again so
// no orphaned storage is left behind.
func (a *Assembler) finishStaged(ctx context.Context, ownerID, kind string, declared filetype.Category,
	originalName, staged, dbPath string, size int64) (*entities.Attachment, error) {

	sniffed, contentType, err := filetype.SniffCategory(a.fs, staged, originalName)
	if err != nil {
		a.discardStaged(staged)
		return nil, errors.ErrStorageIO(fmt.Errorf("cannot sniff staged file: %w", err))
	}
	if sniffed != declared {
		a.discardStaged(staged)
		return nil, errors.ErrContentMismatch(fmt.Errorf("declared %s but content sniffs as %q (%s)", declared, sniffed, contentType))
	}

	if err := a.store.Publish(ctx, staged, dbPath); err != nil {
		a.discardStaged(staged)
		return nil, err
	}

	att := &entities.Attachment{
		ID:           uuid.NewString(),
		AccessKey:    newAccessKey(),
		OwnerID:      ownerID,
		Kind:         kind,
		Category:     declared,
		StoragePath:  dbPath,
		OriginalName: originalName,
		ContentType:  contentType,
		Size:         size,
		Status:       entities.AttachmentActive,
		CreatedAt:    time.Now(),
	}

	if err := a.registry.Create(ctx, att); err != nil {
		// compensating delete, no distributed transaction on a single node
		if derr := a.store.Delete(ctx, dbPath); derr != nil {
			a.log.Errorw("could not delete file after registry failure", "path", dbPath, "err", derr)
		}
		return nil, errors.ErrRegistry(err)
	}
	return att, nil
}

func (a *Assembler) discardStaged(staged string) {
	if err := a.fs.Remove(staged); err != nil {
		a.log.Debugw("could not remove staged file", "path", staged, "err", err)
	}
}

// gap reporting is capped so one absurdly high chunk index cannot balloon
// the error value
const maxReportedGaps = 16

// missingIndices reports the gaps in a chunk set that must be contiguous
// from zero: up to limit concrete indices plus the total gap count. The
// total is computed arithmetically, never by materializing the range.
func missingIndices(chunks []storage.Chunk, limit int) ([]int, int) {
	if len(chunks) == 0 {
		return []int{0}, 1
	}
	var missing []int
	total := 0
	next := 0
	for _, c := range chunks {
		if gap := c.Index - next; gap > 0 {
			total += gap
			for i := next; i < c.Index && len(missing) < limit; i++ {
				missing = append(missing, i)
			}
		}
		next = c.Index + 1
	}
	return missing, total
}

func newAccessKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
