package main

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fsroute-dev/fsroute/internal/config"
	"github.com/fsroute-dev/fsroute/internal/observability"
	"github.com/fsroute-dev/fsroute/pkg/registry"
)

// makeLogger builds the logger the way the project config asks for it.
func makeLogger(cfg *config.Config) (observability.Logger, error) {
	return observability.NewLogger(observability.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// makeStore builds the registry store backend for the given path. The
// path is only used by the file backend; the s3 backend takes bucket
// and key from config.
func makeStore(ctx context.Context, cfg *config.Config, path string) (registry.Store, error) {
	switch cfg.Store.Type {
	case "s3":
		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.Store.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Store.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, err
		}
		client := s3.NewFromConfig(awsCfg)
		return registry.NewS3Store(client, cfg.Store.Bucket, cfg.Store.Key), nil
	default:
		return registry.NewFileStore(path), nil
	}
}
