package storage

// MinIOConfig holds MinIO connection configuration. Values are populated by
// internal/config from MINIO_* environment variables.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// Enabled reports whether an endpoint was configured.
func (c MinIOConfig) Enabled() bool { return c.Endpoint != "" }
