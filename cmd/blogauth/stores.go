package main

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/datastore"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/api/option"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	ba "github.com/panyam/blogauth"
	"github.com/panyam/blogauth/config"
	"github.com/panyam/blogauth/stores/fs"
	"github.com/panyam/blogauth/stores/gae"
	gormstore "github.com/panyam/blogauth/stores/gorm"
	mongostore "github.com/panyam/blogauth/stores/mongo"
)

// openedStore is a UserStore plus the hooks the CLI needs around it
type openedStore struct {
	ba.UserStore
	migrate func(ctx context.Context) error
	close   func(ctx context.Context) error
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*openedStore, error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.DBLocation))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			client.Disconnect(ctx)
			return nil, fmt.Errorf("ping mongo: %w", err)
		}
		store := mongostore.NewUserStore(client.Database(cfg.DBName), "")
		log.Info("using mongo store", "db", cfg.DBName)
		return &openedStore{UserStore: store, migrate: store.EnsureIndexes, close: client.Disconnect}, nil

	case config.BackendPostgres:
		db, err := gorm.Open(postgres.Open(cfg.DBLocation), &gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		log.Info("using postgres store")
		return &openedStore{
			UserStore: gormstore.NewUserStore(db),
			migrate:   func(context.Context) error { return gormstore.AutoMigrate(db) },
			close: func(context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		}, nil

	case config.BackendDatastore:
		var opts []option.ClientOption
		if cfg.GoogleCredentialFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentialFile))
		}
		client, err := datastore.NewClient(ctx, cfg.DatastoreProject, opts...)
		if err != nil {
			return nil, fmt.Errorf("connect datastore: %w", err)
		}
		log.Info("using datastore store", "project", cfg.DatastoreProject, "namespace", cfg.DatastoreNamespace)
		return &openedStore{
			UserStore: gae.NewUserStore(client, cfg.DatastoreNamespace),
			migrate:   func(context.Context) error { return nil },
			close:     func(context.Context) error { return client.Close() },
		}, nil

	case config.BackendFS:
		log.Info("using filesystem store", "path", cfg.StoragePath)
		return &openedStore{
			UserStore: fs.NewFSUserStore(cfg.StoragePath),
			migrate:   func(context.Context) error { return nil },
			close:     func(context.Context) error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
