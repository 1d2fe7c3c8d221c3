package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/afero"

	"attachment-service/pkg/errors"
)

// S3Store publishes attachment files to an S3 bucket, keyed by their
// database path. PutObject is atomic on the object level, which satisfies
// the no-partial-reads contract without a rename step. Staging happens on
// the local scratch filesystem.
type S3Store struct {
	client *s3.Client
	fs     afero.Fs
	bucket string
}

func NewS3Store(ctx context.Context, fs afero.Fs, bucket, region string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("cannot load AWS config: %w", err)
	}
	return &S3Store{
		client: s3.NewFromConfig(cfg),
		fs:     fs,
		bucket: bucket,
	}, nil
}

func (s *S3Store) Stage(dbPath string) (string, error) {
	dir := filepath.Join(afero.GetTempDir(s.fs, "attachment-staging"))
	return filepath.Join(dir, fmt.Sprintf(".merge-%d.tmp", time.Now().UnixNano())), nil
}

func (s *S3Store) Publish(ctx context.Context, stagedPath, dbPath string) error {
	f, err := s.fs.Open(stagedPath)
	if err != nil {
		return errors.ErrStorageIO(fmt.Errorf("cannot open staged file: %w", err))
	}
	defer func() {
		f.Close()
		s.fs.Remove(stagedPath)
	}()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(dbPath),
		Body:   f,
	})
	if err != nil {
		return errors.ErrStorageIO(fmt.Errorf("S3 publish failed for %s: %w", dbPath, err))
	}
	return nil
}

func (s *S3Store) Open(ctx context.Context, dbPath string) (io.ReadCloser, int64, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(dbPath),
	})
	if err != nil {
		return nil, 0, errors.ErrStorageIO(fmt.Errorf("S3 get failed for %s: %w", dbPath, err))
	}
	return resp.Body, aws.ToInt64(resp.ContentLength), nil
}

func (s *S3Store) Delete(ctx context.Context, dbPath string) error {
	// DeleteObject succeeds for absent keys, which matches the tolerant
	// delete the sweeper expects.
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(dbPath),
	})
	if err != nil {
		return errors.ErrStorageIO(fmt.Errorf("S3 delete failed for %s: %w", dbPath, err))
	}
	return nil
}

func (s *S3Store) Exists(ctx context.Context, dbPath string) bool {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(dbPath),
	})
	return err == nil
}
