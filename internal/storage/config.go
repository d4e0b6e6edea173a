package storage

import "github.com/gogotex/collabedit/internal/config"

// MinIOConfig holds MinIO connection configuration
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// MinIOConfigFrom maps the application config. It returns nil when no endpoint is
// configured, which disables the snapshot archive.
func MinIOConfigFrom(c config.MinIOConfig) *MinIOConfig {
	if c.Endpoint == "" {
		return nil
	}
	bucket := c.Bucket
	if bucket == "" {
		bucket = "collab-snapshots"
	}
	return &MinIOConfig{
		Endpoint:  c.Endpoint,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		UseSSL:    c.UseSSL,
		Bucket:    bucket,
	}
}
