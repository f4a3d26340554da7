package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/OFFIS-RIT/papertext/backend/pkg/common"
	"github.com/OFFIS-RIT/papertext/backend/pkg/graph"
	"github.com/OFFIS-RIT/papertext/backend/pkg/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingDirectory struct {
	Static
	err error
}

func (f *failingDirectory) ListUsers(ctx context.Context) ([]common.User, error) {
	return nil, f.err
}

func acme() *Static {
	return &Static{
		Organizations: []common.Organization{{ID: "org1", Name: "Acme"}},
		Users:         []common.User{{ID: "u1", Name: "Ann", Email: "ann@acme.test", LevelOfAccess: 2, MemberOf: "org1"}},
	}
}

func TestSyncCreatesOrgUserAndMembership(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	res, err := NewSynchronizer(acme(), s).Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Organizations: 1, Users: 1, Memberships: 1}, res)

	orgs := s.Nodes(graph.LabelOrg)
	require.Len(t, orgs, 1)
	assert.Equal(t, "Acme", orgs[0].Props["org_name"])

	users := s.Nodes(graph.LabelUser)
	require.Len(t, users, 1)
	assert.Equal(t, "ann@acme.test", users[0].Props["email"])
	assert.Equal(t, 2, users[0].Props["loa"])

	edges := s.Edges(graph.EdgeContains)
	require.Len(t, edges, 1)
	assert.Equal(t, orgs[0].Ref, edges[0].From)
	assert.Equal(t, users[0].Ref, edges[0].To)
}

func TestSyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	sync := NewSynchronizer(acme(), s)

	_, err := sync.Sync(ctx)
	require.NoError(t, err)
	res, err := sync.Sync(ctx)
	require.NoError(t, err)

	assert.Equal(t, SyncResult{}, res)
	assert.Len(t, s.Nodes(""), 2)
	assert.Len(t, s.Edges(""), 1)
}

func TestSyncNeverDeletes(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, err := NewSynchronizer(acme(), s).Sync(ctx)
	require.NoError(t, err)
	_, err = NewSynchronizer(&Static{}, s).Sync(ctx)
	require.NoError(t, err)

	assert.Len(t, s.Nodes(graph.LabelUser), 1)
	assert.Len(t, s.Edges(graph.EdgeContains), 1)
}

func TestSyncSkipsUserOfUnknownOrg(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	dir := acme()
	dir.Users = append(dir.Users, common.User{ID: "u2", Name: "Bob", MemberOf: "org9"})

	res, err := NewSynchronizer(dir, s).Sync(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, s.Nodes(graph.LabelUser), 2)
	assert.Len(t, s.Edges(graph.EdgeContains), 1)
}

func TestSyncListFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	boom := errors.New("directory down")
	dir := &failingDirectory{Static: *acme(), err: boom}

	_, err := NewSynchronizer(dir, s).Sync(ctx)
	require.ErrorIs(t, err, boom)
	assert.Empty(t, s.Nodes(""))
}
