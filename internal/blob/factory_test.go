package blob

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"testing"
)

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()

	mem, err := Open(ctx, Config{Driver: DriverMemory})
	if err != nil || mem.Driver() != DriverMemory {
		t.Fatalf("memory: %v", err)
	}

	fs, err := Open(ctx, Config{FSRoot: filepath.Join(t.TempDir(), "exports")})
	if err != nil || fs.Driver() != DriverFilesystem {
		t.Fatalf("fs: %v", err)
	}

	s3, err := Open(ctx, Config{Driver: DriverS3, S3: S3Config{
		Bucket:          "exports",
		AccessKeyID:     "AKIATEST",
		SecretAccessKey: "secret",
		Endpoint:        "https://s3.test.local",
		PathStyle:       true,
		HTTPClient:      &http.Client{},
	}})
	if err != nil || s3.Driver() != DriverS3 {
		t.Fatalf("s3: %v", err)
	}

	if _, err := Open(ctx, Config{Driver: DriverS3}); err == nil {
		t.Fatalf("expected error for s3 without bucket")
	}
	if _, err := Open(ctx, Config{Driver: "ftp"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestPutBytes(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if _, err := PutBytes(ctx, s, "k", []byte("payload"), PutOptions{ContentType: "text/plain"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	info, rc, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "payload" || info.ContentType != "text/plain" {
		t.Fatalf("unexpected %+v %q", info, data)
	}
	if _, _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
