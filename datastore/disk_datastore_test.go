package datastore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestDiskDataStoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	dds, err := NewDiskDataStore(root)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := dds.WritePartFile(ctx, "db/t/Fact/Part0/Segment_0/part.parquet", []byte("hey")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, "db/t/Fact/Part0/Segment_0/part.parquet.tmp")); !os.IsNotExist(err) {
		t.Fatal("temp file left behind")
	}

	r, err := dds.GetPartFile(ctx, "db/t/Fact/Part0/Segment_0/part.parquet")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "hey" {
		t.Fatalf("got %q", string(b))
	}

	if _, err := dds.GetPartFile(ctx, "missing"); err == nil {
		t.Fatal("expected error for missing part")
	}
}

func TestS3DataStoreNeedsBucket(t *testing.T) {
	if _, err := NewS3DataStore("", "x"); err == nil {
		t.Fatal("expected error")
	}
	sds, err := NewS3DataStore("bucket", "prefix")
	if err != nil {
		t.Fatal(err)
	}
	if sds.key("a/b") != "prefix/a/b" {
		t.Fatal("bad key")
	}
}

func TestDiskDataStoreRejectsKeysOutsideRoot(t *testing.T) {
	parent := t.TempDir()
	dds, err := NewDiskDataStore(filepath.Join(parent, "store"))
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for _, key := range []string{"../../escaped/part.parquet", "../store2/part.parquet", "", "a/../.."} {
		err := dds.WritePartFile(ctx, key, []byte("x"))
		if !errors.Is(err, ErrKeyOutsideRoot) {
			t.Fatalf("key %q: expected ErrKeyOutsideRoot, got %v", key, err)
		}
	}
	if _, err := os.Stat(filepath.Join(parent, "escaped")); !os.IsNotExist(err) {
		t.Fatal("file written outside the store root")
	}
	if _, err := dds.GetPartFile(ctx, "../store/x"); err != nil && !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("key back inside the root should be allowed, got %v", err)
	}
}
