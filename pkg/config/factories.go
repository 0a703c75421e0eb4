package config

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/store/content"
	contentfs "github.com/marmos91/nestfs/pkg/store/content/fs"
	contentmemory "github.com/marmos91/nestfs/pkg/store/content/memory"
	contents3 "github.com/marmos91/nestfs/pkg/store/content/s3"
	"github.com/marmos91/nestfs/pkg/store/metadata"
	"github.com/marmos91/nestfs/pkg/store/metadata/badger"
	metadatamemory "github.com/marmos91/nestfs/pkg/store/metadata/memory"
	"github.com/marmos91/nestfs/pkg/store/metadata/sqldb"
)

// s3YAMLConfig represents S3 configuration loaded from the config file.
type s3YAMLConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
	MaxRetries      int    `mapstructure:"max_retries"`
}

// CreateMetadataStore creates a metadata store based on configuration.
//
// The Type field selects the implementation; the matching option map is
// decoded into that store's config struct.
//
// Supported types:
//   - "memory": in-process maps, lost on restart
//   - "badger": pkg/store/metadata/badger
//   - "sqlite", "duckdb": pkg/store/metadata/sqldb
func CreateMetadataStore(ctx context.Context, cfg *MetadataConfig) (metadata.Store, error) {
	switch cfg.Type {
	case "memory":
		return metadatamemory.NewMemoryMetadataStore(), nil
	case "badger":
		return createBadgerMetadataStore(ctx, cfg.Badger)
	case "sqlite":
		return createSQLMetadataStore(ctx, sqldb.DialectSQLite, cfg.SQLite)
	case "duckdb":
		return createSQLMetadataStore(ctx, sqldb.DialectDuckDB, cfg.DuckDB)
	default:
		return nil, fmt.Errorf("unknown metadata store type: %q", cfg.Type)
	}
}

func createBadgerMetadataStore(ctx context.Context, options map[string]any) (metadata.Store, error) {
	var badgerCfg badger.BadgerMetadataStoreConfig
	if err := mapstructure.Decode(options, &badgerCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger metadata store config: %w", err)
	}

	if badgerCfg.DBPath == "" {
		return nil, fmt.Errorf("badger metadata store: db_path is required")
	}

	store, err := badger.NewBadgerMetadataStore(ctx, badgerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Info("Badger metadata store opened at %s", badgerCfg.DBPath)
	return store, nil
}

func createSQLMetadataStore(ctx context.Context, dialect sqldb.Dialect, options map[string]any) (metadata.Store, error) {
	var sqlCfg sqldb.SQLMetadataStoreConfig
	if err := mapstructure.Decode(options, &sqlCfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s metadata store config: %w", dialect, err)
	}
	sqlCfg.Dialect = dialect

	if sqlCfg.Path == "" && dialect == sqldb.DialectSQLite {
		return nil, fmt.Errorf("sqlite metadata store: path is required")
	}

	store, err := sqldb.NewSQLMetadataStore(ctx, sqlCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	logger.Info("%s metadata store opened at %s", dialect, sqlCfg.Path)
	return store, nil
}

// CreateContentStore creates a content store based on configuration.
//
// Supported types:
//   - "filesystem": pkg/store/content/fs (one file per blob)
//   - "memory": in-process map, lost on restart
//   - "s3": pkg/store/content/s3 (Amazon S3 or compatible storage)
func CreateContentStore(ctx context.Context, cfg *ContentConfig) (content.Store, error) {
	switch cfg.Type {
	case "filesystem":
		return createFilesystemContentStore(ctx, cfg.Filesystem)
	case "memory":
		store, err := contentmemory.NewMemoryContentStore(ctx)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "s3":
		return createS3ContentStore(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown content store type: %q", cfg.Type)
	}
}

func createFilesystemContentStore(ctx context.Context, options map[string]any) (content.Store, error) {
	var fsCfg struct {
		Path string `mapstructure:"path"`
	}
	if err := mapstructure.Decode(options, &fsCfg); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem content store config: %w", err)
	}

	if fsCfg.Path == "" {
		return nil, fmt.Errorf("filesystem content store: path is required")
	}

	store, err := contentfs.NewFSContentStore(ctx, fsCfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem content store: %w", err)
	}

	return store, nil
}

func createS3ContentStore(ctx context.Context, options map[string]any) (content.Store, error) {
	var yamlCfg s3YAMLConfig
	if err := mapstructure.Decode(options, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 content store config: %w", err)
	}

	if yamlCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 content store: bucket is required")
	}
	if yamlCfg.Region == "" {
		return nil, fmt.Errorf("S3 content store: region is required")
	}

	client, err := contents3.NewS3ClientFromConfig(ctx, contents3.S3ClientOptions{
		Endpoint:        yamlCfg.Endpoint,
		Region:          yamlCfg.Region,
		AccessKeyID:     yamlCfg.AccessKeyID,
		SecretAccessKey: yamlCfg.SecretAccessKey,
		ForcePathStyle:  yamlCfg.ForcePathStyle,
		MaxRetries:      yamlCfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	store, err := contents3.NewS3ContentStore(ctx, contents3.S3ContentStoreConfig{
		Client:    client,
		Bucket:    yamlCfg.Bucket,
		KeyPrefix: yamlCfg.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 content store: %w", err)
	}

	logger.Info("S3 content store initialized: bucket=%s, region=%s, prefix=%s",
		yamlCfg.Bucket, yamlCfg.Region, yamlCfg.KeyPrefix)

	return store, nil
}
