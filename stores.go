package main

import (
	"context"
	"fmt"

	"github.com/danthegoodman1/icedb/datastore"
	"github.com/danthegoodman1/icedb/loader"
	"github.com/danthegoodman1/icedb/metastore"
	"github.com/danthegoodman1/icedb/migrations"
	"github.com/danthegoodman1/icedb/utils"
)

func newMetaStore(ctx context.Context, kind string) (metastore.MetaStore, error) {
	switch kind {
	case "memory":
		return metastore.NewMemoryMetaStore(), nil
	case "redis":
		return metastore.NewRedisMetaStore(ctx)
	case "crdb":
		if utils.GetEnvOrDefault("RUN_MIGRATIONS", "0") == "1" {
			if _, err := migrations.RunMigrations(utils.CRDB_DSN); err != nil {
				return nil, fmt.Errorf("error in RunMigrations: %w", err)
			}
		} else if err := migrations.CheckMigrations(utils.CRDB_DSN); err != nil {
			return nil, fmt.Errorf("error in CheckMigrations: %w", err)
		}
		return metastore.NewCRDBMetaStore(ctx, utils.CRDB_DSN)
	default:
		return nil, utils.PermError(fmt.Sprintf("unknown metastore %q", kind))
	}
}

func newDataStore(kind, storePath string) (datastore.DataStore, error) {
	switch kind {
	case "disk":
		return datastore.NewDiskDataStore(storePath)
	case "s3":
		return datastore.NewS3DataStore(utils.S3_BUCKET_NAME, utils.GetEnvOrDefault("S3_PREFIX", ""))
	default:
		return nil, utils.PermError(fmt.Sprintf("unknown datastore %q", kind))
	}
}

func newLoader(ctx context.Context) (*loader.Loader, error) {
	ms, err := newMetaStore(ctx, utils.METASTORE)
	if err != nil {
		return nil, err
	}
	ds, err := newDataStore(utils.DATASTORE, utils.STORE_PATH)
	if err != nil {
		return nil, err
	}
	return loader.NewLoader(ms, ds)
}
