// Package factory opens the document store selected by backend.type.
package factory

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mogudian/elasticsearch-orm/internal/backend"
	"github.com/mogudian/elasticsearch-orm/internal/backend/elasticsearch"
	"github.com/mogudian/elasticsearch-orm/internal/backend/mongodb"
	"github.com/mogudian/elasticsearch-orm/internal/backend/postgres"
	"github.com/mogudian/elasticsearch-orm/internal/common"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/metadata"
)

// CloseFunc releases the connections of a store.
type CloseFunc func(ctx context.Context) error

func noClose(context.Context) error { return nil }

// Open connects the configured store. For backend type none it returns a nil store, which
// leaves the service compile-only.
func Open(ctx context.Context, cfg *common.Config, registry *metadata.Registry) (backend.Store, CloseFunc, error) {
	switch cfg.Backend.Type {
	case common.BackendNone, "":
		log.Println("ℹ️  No document store configured, search and count are disabled")
		return nil, noClose, nil

	case common.BackendPostgres:
		p := cfg.Postgres
		log.Printf("🗄️  Connecting to Postgres: postgres://%s:****@%s:%d/%s", p.User, p.Host, p.Port, p.DBName)
		store, err := postgres.Open(p.DSN(), p.MaxOpenConnections, p.MaxIdleConnections, p.ConnMaxLifetimeMinutes)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if p.EnsureTables {
			for _, name := range registry.Names() {
				e, err := registry.Entity(name)
				if err != nil {
					return nil, nil, err
				}
				if err := store.EnsureTable(ctx, e.IndexName()); err != nil {
					_ = store.Close()
					return nil, nil, err
				}
			}
		}
		log.Println("✅ Postgres connection established")
		return store, func(context.Context) error { return store.Close() }, nil

	case common.BackendMongoDB:
		m := cfg.MongoDB
		log.Printf("🗄️  Connecting to MongoDB database %s", m.Database)
		store, err := mongodb.Connect(ctx, m.URI, m.Database, time.Duration(m.TimeoutSeconds)*time.Second)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongodb: %w", err)
		}
		log.Println("✅ MongoDB connection established")
		return store, store.Close, nil

	case common.BackendElasticsearch:
		e := cfg.Elastic
		log.Printf("🗄️  Connecting to Elasticsearch at %v", e.URLs)
		store, err := elasticsearch.Connect(e.URLs, e.Username, e.Password, e.Healthcheck)
		if err != nil {
			return nil, nil, fmt.Errorf("connect elasticsearch: %w", err)
		}
		log.Println("✅ Elasticsearch client ready")
		return store, noClose, nil
	}
	return nil, nil, common.NewErrBadRequest(fmt.Sprintf("unknown backend type %q", cfg.Backend.Type))
}
