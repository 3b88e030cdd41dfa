package storage

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"
)

func TestNewMinIOStorage_RequiresEndpoint(t *testing.T) {
	_, err := NewMinIOStorage(MinIOConfig{})
	require.Error(t, err)
}

func TestIsNotExist(t *testing.T) {
	require.False(t, IsNotExist(nil))
	require.False(t, IsNotExist(errors.New("dial tcp: refused")))
	require.True(t, IsNotExist(minio.ErrorResponse{Code: "NoSuchKey"}))
}
