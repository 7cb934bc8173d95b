// Package archive stores raw extraction payloads and schedule exports behind
// a pluggable object store. It is the only package that wires the concrete
// backends under internal/infra/archive.
package archive

import (
	"context"
	"fmt"
	"strings"

	"eicrcore/internal/archive/core"
	fsarchive "eicrcore/internal/infra/archive/fs"
	memarchive "eicrcore/internal/infra/archive/memory"
	s3archive "eicrcore/internal/infra/archive/s3"
)

// Re-exported so callers depend on this package only.
type (
	Store            = core.Store
	Driver           = core.Driver
	Info             = core.Info
	PutOptions       = core.PutOptions
	SignedURLOptions = core.SignedURLOptions
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrUnsupported = core.ErrUnsupported
	ErrExists      = core.ErrExists
	ErrNotFound    = core.ErrNotFound
)

// S3Config configures the S3 driver.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
	Prefix          string
}

// Config selects and configures a backend.
type Config struct {
	Driver string
	FSRoot string
	S3     S3Config
}

// Open builds the Store named by cfg.Driver. An empty driver selects the
// filesystem backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := Driver(strings.ToLower(strings.TrimSpace(cfg.Driver)))
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return fsarchive.New(cfg.FSRoot)
	case DriverMemory:
		return memarchive.New(), nil
	case DriverS3:
		return s3archive.New(ctx, s3archive.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.PathStyle,
			Prefix:          cfg.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown archive driver %q", cfg.Driver)
	}
}

// NewMemory returns an in-memory Store.
func NewMemory() Store { return memarchive.New() }
