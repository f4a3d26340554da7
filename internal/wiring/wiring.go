// Package wiring builds the runtime dependencies shared by the server and
// the worker from the environment.
package wiring

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/OFFIS-RIT/papertext/backend/internal/util"
	"github.com/OFFIS-RIT/papertext/backend/pkg/annotation/exling"
	"github.com/OFFIS-RIT/papertext/backend/pkg/directory"
	dirpgx "github.com/OFFIS-RIT/papertext/backend/pkg/directory/pgx"
	"github.com/OFFIS-RIT/papertext/backend/pkg/docs"
	"github.com/OFFIS-RIT/papertext/backend/pkg/leaselock"
	"github.com/OFFIS-RIT/papertext/backend/pkg/logger"
	"github.com/OFFIS-RIT/papertext/backend/pkg/store"
	"github.com/OFFIS-RIT/papertext/backend/pkg/store/memory"
	"github.com/OFFIS-RIT/papertext/backend/pkg/store/neo4j"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Deps are the long lived clients of one process.
type Deps struct {
	Storage      store.GraphStorage
	Registry     *docs.Registry
	Synchronizer *directory.Synchronizer

	locker     *leaselock.Client
	pool       *pgxpool.Pool
	storageDir string
}

// Open connects to the configured graph store, identity database and
// annotation service.
func Open(ctx context.Context) (*Deps, error) {
	d := &Deps{storageDir: util.GetEnvString("STORAGE_DIR", "./storage")}

	storage, err := openGraphStorage(ctx)
	if err != nil {
		return nil, err
	}
	d.Storage = storage

	var dir directory.Directory = &directory.Static{}
	if dsn := util.GetEnv("DATABASE_URL"); dsn != "" {
		if err := leaselock.Migrate(dsn, util.GetEnvString("MIGRATIONS_PATH", "migrations")); err != nil {
			d.Close(ctx)
			return nil, err
		}
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			d.Close(ctx)
			return nil, fmt.Errorf("connect identity database: %w", err)
		}
		d.pool = pool
		dir = dirpgx.NewDirectory(pool)

		hostname, _ := os.Hostname()
		d.locker = leaselock.New(pool, leaselock.Options{
			TTL:         2 * time.Minute,
			Wait:        true,
			TokenPrefix: hostname + "/",
		})
	} else {
		logger.Warn("[Wiring][Open] DATABASE_URL not set, identity directory is empty")
	}

	annotator, err := exling.NewClient(exling.NewClientParams{
		BaseURL:               util.GetEnv("ANNOTATION_URL"),
		Service:               util.GetEnv("ANNOTATION_SERVICE"),
		ApiKey:                util.GetEnv("ANNOTATION_KEY"),
		MaxConcurrentRequests: int64(util.GetEnvNumeric("ANNOTATION_PARALLEL_REQ", 4)),
	})
	if err != nil {
		d.Close(ctx)
		return nil, fmt.Errorf("create annotation client: %w", err)
	}
	if err := annotator.Ping(ctx); err != nil {
		logger.Warn("[Wiring][Open] Annotation service unreachable", "err", err)
	}

	d.Synchronizer = directory.NewSynchronizer(dir, storage)
	d.Registry = docs.NewRegistry(docs.NewRegistryParams{
		Storage:   storage,
		Annotator: annotator,
		Syncer:    d.Synchronizer,
	})
	return d, nil
}

func openGraphStorage(ctx context.Context) (store.GraphStorage, error) {
	adapter := util.GetEnvString("GRAPH_ADAPTER", "neo4j")

	switch adapter {
	case "memory":
		logger.Warn("[Wiring][Open] Using in-memory graph store, data is lost on exit")
		return memory.New(), nil
	case "neo4j":
		s, err := neo4j.NewGraphDBStorage(neo4j.NewGraphDBStorageParams{
			Scheme:   util.GetEnv("NEO4J_SCHEME"),
			Host:     util.GetEnvString("NEO4J_HOST", "localhost"),
			Port:     int(util.GetEnvNumeric("NEO4J_PORT", 7687)),
			Username: util.GetEnv("NEO4J_USER"),
			Password: util.GetEnv("NEO4J_PASSWORD"),
			Database: util.GetEnv("NEO4J_DATABASE"),
		})
		if err != nil {
			return nil, fmt.Errorf("create neo4j driver: %w", err)
		}
		err = util.RetryErrWithContext(ctx, 10, 3*time.Second, s.VerifyConnectivity)
		if err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("connect neo4j: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown GRAPH_ADAPTER %q", adapter)
}

// Bootstrap prepares the graph store, serialized across replicas when the
// identity database is available.
func (d *Deps) Bootstrap(ctx context.Context) error {
	params := docs.BootstrapParams{
		Storage:    d.Storage,
		Syncer:     d.Synchronizer,
		StorageDir: d.storageDir,
	}
	if d.locker != nil {
		params.Locker = d.locker
	}
	return docs.Bootstrap(ctx, params)
}

func (d *Deps) Close(ctx context.Context) {
	if d.Storage != nil {
		if err := d.Storage.Close(ctx); err != nil {
			logger.Warn("[Wiring][Close] Failed to close graph store", "err", err)
		}
	}
	if d.pool != nil {
		d.pool.Close()
	}
}
