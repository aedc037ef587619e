package storage

import (
	"context"
	"errors"
	"fmt"

	"stationcharts/internal/config"
)

// DeploymentMode selects the storage backend
type DeploymentMode string

const (
	DeploymentLocal DeploymentMode = "local"
	DeploymentGCS   DeploymentMode = "gcs"
)

// NewStorageClient creates the storage client the configuration asks for.
// Local storage is rooted at the output directory; GCS uses it as object prefix.
func NewStorageClient(ctx context.Context, cfg *config.Config) (StorageClient, error) {
	if cfg == nil {
		return nil, errors.New("storage needs a configuration")
	}

	switch DeploymentMode(cfg.Env.Storage) {
	case DeploymentLocal, "":
		localClient, err := NewLocalStorageClient(cfg.Paths.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage client: %w", err)
		}
		return localClient, nil

	case DeploymentGCS:
		gcsClient, err := NewGCSClient(ctx, cfg.Env.GCSBucket, cfg.Paths.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GCS client: %w", err)
		}
		return gcsClient, nil

	default:
		return nil, fmt.Errorf("unsupported deployment mode: %s", cfg.Env.Storage)
	}
}
