package docs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/OFFIS-RIT/papertext/backend/pkg/common"
	"github.com/OFFIS-RIT/papertext/backend/pkg/graph"
	"github.com/OFFIS-RIT/papertext/backend/pkg/logger"
	"github.com/OFFIS-RIT/papertext/backend/pkg/store"
)

// BootstrapLockKey serializes bootstrap across replicas sharing a lease store.
const BootstrapLockKey = "papertext:bootstrap"

// Locker runs fn while holding an exclusive lease on key.
type Locker interface {
	WithLease(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

type BootstrapParams struct {
	Storage    store.GraphStorage
	Syncer     Syncer
	StorageDir string
	// Locker is optional.
	Locker Locker
}

var uniqueKeys = []struct{ label, property string }{
	{graph.LabelOrg, "org_id"},
	{graph.LabelUser, "user_id"},
	{graph.LabelCorpus, "corp_id"},
	{graph.LabelDocument, "doc_id"},
}

// Bootstrap prepares a store for the registry: the backup directory, the
// uniqueness constraints, the root corpus and an initial directory sync. It is
// safe to run on every start.
func Bootstrap(ctx context.Context, params BootstrapParams) error {
	run := func(ctx context.Context) error {
		return bootstrap(ctx, params)
	}
	if params.Locker != nil {
		return params.Locker.WithLease(ctx, BootstrapLockKey, run)
	}
	return run(ctx)
}

func bootstrap(ctx context.Context, params BootstrapParams) error {
	if params.StorageDir != "" {
		backupDir := filepath.Join(params.StorageDir, "docs.bak")
		if err := os.MkdirAll(backupDir, 0o755); err != nil {
			return fmt.Errorf("create backup dir: %w", err)
		}
	}

	for _, k := range uniqueKeys {
		if err := params.Storage.EnsureUniqueConstraint(ctx, k.label, k.property); err != nil {
			return fmt.Errorf("ensure %s.%s unique: %w", k.label, k.property, err)
		}
	}

	err := store.WithTx(ctx, params.Storage, func(tx store.Tx) error {
		_, created, err := tx.MergeNode(ctx, graph.LabelCorpus, "corp_id", map[string]any{
			"corp_id": common.RootCorpusID,
			"private": false,
		})
		if created {
			logger.Info("[Registry][Bootstrap] Created root corpus")
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("ensure root corpus: %w", err)
	}

	if params.Syncer != nil {
		if _, err := params.Syncer.Sync(ctx); err != nil {
			return fmt.Errorf("initial directory sync: %w", err)
		}
	}
	return nil
}
