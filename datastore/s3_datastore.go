package datastore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/danthegoodman1/icedb/s3_helper"
	"github.com/danthegoodman1/icedb/utils"
)

type (
	S3DataStore struct {
		bucket string
		prefix string
	}
)

func NewS3DataStore(bucket, prefix string) (*S3DataStore, error) {
	if bucket == "" {
		return nil, utils.PermError("missing s3 bucket name")
	}
	return &S3DataStore{bucket: bucket, prefix: prefix}, nil
}

func (sds *S3DataStore) key(key string) string {
	return path.Join(sds.prefix, key)
}

func (sds *S3DataStore) WritePartFile(ctx context.Context, key string, b []byte) error {
	_, err := s3_helper.WriteBytesToS3(ctx, sds.bucket, sds.key(key), b, utils.Ptr("application/vnd.apache.parquet"))
	if err != nil {
		return fmt.Errorf("error in WriteBytesToS3: %w", err)
	}
	return nil
}

func (sds *S3DataStore) GetPartFile(ctx context.Context, key string) (io.ReadCloser, error) {
	b, err := s3_helper.ReadBytesFromS3(ctx, sds.bucket, sds.key(key))
	if err != nil {
		return nil, fmt.Errorf("error in ReadBytesFromS3: %w", err)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (sds *S3DataStore) Shutdown(_ context.Context) error {
	return nil
}
