package docs

import (
	"context"
	"testing"

	"github.com/OFFIS-RIT/papertext/backend/pkg/common"
	"github.com/OFFIS-RIT/papertext/backend/pkg/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCorpusUnderRoot(t *testing.T) {
	f := newFixture(t)
	name := "Corpus One"

	c, err := f.registry.CreateCorpus(context.Background(), CreateCorpusParams{
		IssuerID: "u1", IssuerType: common.IssuerUser, CorpID: "c1", Name: &name,
	})
	require.NoError(t, err)
	assert.Equal(t, &common.Corpus{ID: "c1", Name: &name}, c)

	refs := map[string]string{}
	for _, n := range f.store.Nodes("") {
		for _, key := range []string{"corp_id", "user_id"} {
			if id, ok := n.Props[key].(string); ok {
				refs[string(n.Ref)] = id
			}
		}
	}

	var contains, created []string
	for _, e := range f.store.Edges(graph.EdgeContains) {
		if refs[string(e.To)] == "c1" {
			contains = append(contains, refs[string(e.From)])
		}
	}
	for _, e := range f.store.Edges(graph.EdgeCreated) {
		created = append(created, refs[string(e.From)]+"->"+refs[string(e.To)])
	}
	assert.Equal(t, []string{common.RootCorpusID}, contains)
	assert.Equal(t, []string{"u1->c1"}, created)
}

func TestCreateCorpusByOrg(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry.CreateCorpus(context.Background(), CreateCorpusParams{
		IssuerID: "org1", IssuerType: common.IssuerOrg, CorpID: "c1",
	})
	require.NoError(t, err)
	assert.Len(t, f.store.Edges(graph.EdgeCreated), 1)
}

func TestCreateCorpusConflicts(t *testing.T) {
	f := newFixture(t)
	f.createCorpus(t, "c1", "")

	tests := []struct {
		name   string
		params CreateCorpusParams
	}{
		{"duplicate id", CreateCorpusParams{IssuerID: "u1", IssuerType: common.IssuerUser, CorpID: "c1"}},
		{"duplicate id under other parent", CreateCorpusParams{IssuerID: "u1", IssuerType: common.IssuerUser, CorpID: "c1", ParentCorpID: "c1"}},
		{"missing parent", CreateCorpusParams{IssuerID: "u1", IssuerType: common.IssuerUser, CorpID: "c2", ParentCorpID: "nope"}},
		{"unknown issuer type", CreateCorpusParams{IssuerID: "u1", IssuerType: "robot", CorpID: "c2"}},
		{"unknown issuer", CreateCorpusParams{IssuerID: "u9", IssuerType: common.IssuerUser, CorpID: "c2"}},
		{"empty id", CreateCorpusParams{IssuerID: "u1", IssuerType: common.IssuerUser}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, edges := f.counts()

			_, err := f.registry.CreateCorpus(context.Background(), tt.params)
			require.ErrorIs(t, err, common.ErrConflict)

			n, e := f.counts()
			assert.Equal(t, nodes, n)
			assert.Equal(t, edges, e)
		})
	}
}

func TestCreateCorpusToIncludeUnsupported(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry.CreateCorpus(context.Background(), CreateCorpusParams{
		IssuerID: "u1", IssuerType: common.IssuerUser, CorpID: "c1", ToInclude: []string{"d1"},
	})
	require.ErrorIs(t, err, common.ErrNotImplemented)
	assert.Len(t, f.store.Nodes(graph.LabelCorpus), 1)
}

func TestReadCorpora(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createCorpus(t, "c2", "")
	f.createCorpus(t, "c1", "")
	f.createCorpus(t, "c1a", "c1")

	all, err := f.registry.ReadCorpora(ctx, ReadCorporaParams{RequesterID: "u1"})
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, c := range all {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"c1", "c1a", "c2"}, ids)

	children, err := f.registry.ReadCorpora(ctx, ReadCorporaParams{ParentCorpID: "c1"})
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "c1a", children[0].ID)

	_, err = f.registry.ReadCorpora(ctx, ReadCorporaParams{ParentCorpID: "nope"})
	require.ErrorIs(t, err, common.ErrConflict)
}

func TestReadCorpus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createCorpus(t, "c1", "")
	f.createCorpus(t, "c1a", "c1")
	f.createDocument(t, "d1", "c1")

	details, err := f.registry.ReadCorpus(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", details.ID)
	assert.Equal(t, []string{"c1a"}, details.Corpora)
	assert.Equal(t, []string{"d1"}, details.Documents)

	_, err = f.registry.ReadCorpus(ctx, "nope")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestCorpusMutationsNotImplemented(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry.UpdateCorpus(context.Background(), UpdateCorpusParams{CorpID: "c1"})
	require.ErrorIs(t, err, common.ErrNotImplemented)
	require.ErrorIs(t, f.registry.DeleteCorpus(context.Background(), "c1"), common.ErrNotImplemented)
}
