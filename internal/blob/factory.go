package blob

import (
	"bytes"
	"context"
	"fmt"
)

// DefaultFSRoot is used when the filesystem driver has no root configured.
const DefaultFSRoot = "./exports"

// Config selects and configures a backend.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open builds the Store named by cfg.Driver. An empty driver means fs.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		root := cfg.FSRoot
		if root == "" {
			root = DefaultFSRoot
		}
		return NewFilesystem(root)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}

// PutBytes stores payload under key.
func PutBytes(ctx context.Context, s Store, key string, payload []byte, opts PutOptions) (Info, error) {
	return s.Put(ctx, key, bytes.NewReader(payload), opts)
}
