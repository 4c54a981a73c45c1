package datastore

import (
	"context"
	"io"
)

type (
	// DataStore holds the part files written by load tasks.
	DataStore interface {
		// WritePartFile stores a complete part file under key
		WritePartFile(ctx context.Context, key string, b []byte) error
		// GetPartFile opens a part file for reading
		GetPartFile(ctx context.Context, key string) (io.ReadCloser, error)

		Shutdown(ctx context.Context) error
	}
)
