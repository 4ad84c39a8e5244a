// Package config loads service settings from an optional YAML file with
// LIFEEXP_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"lifeexp/internal/blob"
	"lifeexp/internal/observability"
	"lifeexp/internal/render"
)

// Config is the complete service configuration.
type Config struct {
	Server  ServerConfig            `yaml:"server"`
	Data    DataConfig              `yaml:"data"`
	Logging observability.LogConfig `yaml:"logging"`
	Blob    BlobConfig              `yaml:"blob"`
	Exports ExportsConfig           `yaml:"exports"`
	Render  RenderConfig            `yaml:"render"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DataConfig struct {
	// Path is the country CSV loaded at startup.
	Path string `yaml:"path"`
}

type BlobConfig struct {
	Driver string        `yaml:"driver"`
	FSRoot string        `yaml:"fs_root"`
	S3     blob.S3Config `yaml:"s3"`
}

type ExportsConfig struct {
	QueueSize int `yaml:"queue_size"`
}

// RenderConfig sets image sizes in pixels for server-side rendering.
type RenderConfig struct {
	ScatterWidth  int `yaml:"scatter_width"`
	ScatterHeight int `yaml:"scatter_height"`
	MapWidth      int `yaml:"map_width"`
	MapHeight     int `yaml:"map_height"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8050",
			ShutdownTimeout: 10 * time.Second,
		},
		Data:    DataConfig{Path: "data/country_data_master.csv"},
		Logging: observability.LogConfig{Level: "info", Format: "json"},
		Blob: BlobConfig{
			Driver: string(blob.DriverFilesystem),
			FSRoot: blob.DefaultFSRoot,
			S3:     blob.S3Config{Region: "us-east-1"},
		},
		Exports: ExportsConfig{QueueSize: 32},
		Render: RenderConfig{
			ScatterWidth:  render.DefaultScatterSize.Width,
			ScatterHeight: render.DefaultScatterSize.Height,
			MapWidth:      render.DefaultMapSize.Width,
			MapHeight:     render.DefaultMapSize.Height,
		},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path or a missing file yields defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	setString := func(name string, dst *string) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}
	setString("LIFEEXP_ADDR", &c.Server.Addr)
	setString("LIFEEXP_DATA", &c.Data.Path)
	setString("LIFEEXP_LOG_LEVEL", &c.Logging.Level)
	setString("LIFEEXP_LOG_FORMAT", &c.Logging.Format)
	setString("LIFEEXP_BLOB_DRIVER", &c.Blob.Driver)
	setString("LIFEEXP_BLOB_FS_ROOT", &c.Blob.FSRoot)
	setString("LIFEEXP_BLOB_S3_BUCKET", &c.Blob.S3.Bucket)
	setString("LIFEEXP_BLOB_S3_REGION", &c.Blob.S3.Region)
	setString("LIFEEXP_BLOB_S3_ENDPOINT", &c.Blob.S3.Endpoint)

	if v := os.Getenv("LIFEEXP_BLOB_S3_PATH_STYLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LIFEEXP_BLOB_S3_PATH_STYLE: %w", err)
		}
		c.Blob.S3.PathStyle = b
	}
	if v := os.Getenv("LIFEEXP_EXPORT_QUEUE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LIFEEXP_EXPORT_QUEUE_SIZE: %w", err)
		}
		c.Exports.QueueSize = n
	}
	return nil
}

var (
	validDrivers    = []string{string(blob.DriverFilesystem), string(blob.DriverS3), string(blob.DriverMemory)}
	validLogFormats = []string{"json", "console"}
)

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	if strings.TrimSpace(c.Data.Path) == "" {
		return fmt.Errorf("data.path is required")
	}
	if !contains(validLogFormats, strings.ToLower(c.Logging.Format)) {
		return fmt.Errorf("invalid logging.format %q (valid: %v)", c.Logging.Format, validLogFormats)
	}
	if !contains(validDrivers, c.Blob.Driver) {
		return fmt.Errorf("invalid blob.driver %q (valid: %v)", c.Blob.Driver, validDrivers)
	}
	if c.Blob.Driver == string(blob.DriverS3) && c.Blob.S3.Bucket == "" {
		return fmt.Errorf("blob.s3.bucket is required for the s3 driver")
	}
	if c.Exports.QueueSize <= 0 {
		return fmt.Errorf("exports.queue_size must be positive")
	}
	if c.Render.ScatterWidth <= 0 || c.Render.ScatterHeight <= 0 || c.Render.MapWidth <= 0 || c.Render.MapHeight <= 0 {
		return fmt.Errorf("render sizes must be positive")
	}
	return nil
}

// BlobOptions converts the blob section for blob.Open.
func (c *Config) BlobOptions() blob.Config {
	return blob.Config{Driver: blob.Driver(c.Blob.Driver), FSRoot: c.Blob.FSRoot, S3: c.Blob.S3}
}

func (c *Config) ScatterSize() render.Size {
	return render.Size{Width: c.Render.ScatterWidth, Height: c.Render.ScatterHeight}
}

func (c *Config) MapSize() render.Size {
	return render.Size{Width: c.Render.MapWidth, Height: c.Render.MapHeight}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
