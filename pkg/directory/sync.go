package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/papertext/backend/internal/timing"
	"github.com/OFFIS-RIT/papertext/backend/pkg/common"
	"github.com/OFFIS-RIT/papertext/backend/pkg/graph"
	"github.com/OFFIS-RIT/papertext/backend/pkg/logger"
	"github.com/OFFIS-RIT/papertext/backend/pkg/store"

	"golang.org/x/sync/errgroup"
)

// Synchronizer copies the directory into the graph. It only ever adds nodes
// and edges; identities removed from the directory stay in the graph.
type Synchronizer struct {
	dir     Directory
	storage store.GraphStorage
}

// SyncResult counts what a Sync created.
type SyncResult struct {
	Organizations int
	Users         int
	Memberships   int
	Skipped       int
}

func NewSynchronizer(dir Directory, storage store.GraphStorage) *Synchronizer {
	return &Synchronizer{dir: dir, storage: storage}
}

// Sync upserts every organization and user by id and links each user to its
// organization, all in one transaction.
func (s *Synchronizer) Sync(ctx context.Context) (SyncResult, error) {
	start := time.Now()

	var (
		orgs  []common.Organization
		users []common.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orgs, err = s.dir.ListOrganizations(gctx)
		if err != nil {
			return fmt.Errorf("list organizations: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		users, err = s.dir.ListUsers(gctx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		timing.ObserveSync(false, time.Since(start))
		return SyncResult{}, err
	}

	var res SyncResult
	err := store.WithTx(ctx, s.storage, func(tx store.Tx) error {
		res = SyncResult{}
		orgRefs := make(map[string]store.NodeRef, len(orgs))
		for _, org := range orgs {
			ref, created, err := tx.MergeNode(ctx, graph.LabelOrg, "org_id", map[string]any{
				"org_id":   org.ID,
				"org_name": org.Name,
			})
			if err != nil {
				return fmt.Errorf("merge org %s: %w", org.ID, err)
			}
			orgRefs[org.ID] = ref
			if created {
				res.Organizations++
			}
		}

		for _, user := range users {
			ref, created, err := tx.MergeNode(ctx, graph.LabelUser, "user_id", map[string]any{
				"user_id":   user.ID,
				"user_name": user.Name,
				"email":     user.Email,
				"loa":       user.LevelOfAccess,
			})
			if err != nil {
				return fmt.Errorf("merge user %s: %w", user.ID, err)
			}
			if created {
				res.Users++
			}

			orgRef, ok := orgRefs[user.MemberOf]
			if !ok {
				org, err := tx.MatchNode(ctx, graph.LabelOrg, map[string]any{"org_id": user.MemberOf})
				if err != nil {
					return fmt.Errorf("match org %s: %w", user.MemberOf, err)
				}
				if org == nil {
					logger.Warn("[Directory][Sync] Skipping membership of unknown organization",
						"user_id", user.ID,
						"org_id", user.MemberOf,
					)
					res.Skipped++
					continue
				}
				orgRef = org.Ref
			}

			linked, err := tx.MergeEdge(ctx, orgRef, ref, graph.EdgeContains)
			if err != nil {
				return fmt.Errorf("link user %s: %w", user.ID, err)
			}
			if linked {
				res.Memberships++
			}
		}
		return nil
	})
	timing.ObserveSync(err == nil, time.Since(start))
	if err != nil {
		return SyncResult{}, err
	}

	logger.Info("[Directory][Sync] Directory synchronized",
		"organizations", len(orgs),
		"users", len(users),
		"created_orgs", res.Organizations,
		"created_users", res.Users,
		"created_memberships", res.Memberships,
		"duration", time.Since(start),
	)
	return res, nil
}
