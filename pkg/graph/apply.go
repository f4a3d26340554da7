package graph

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/papertext/backend/pkg/annotation"
	"github.com/OFFIS-RIT/papertext/backend/pkg/logger"
	"github.com/OFFIS-RIT/papertext/backend/pkg/store"
)

// ApplyResult counts what an ingestion created.
type ApplyResult struct {
	Nodes       int
	Edges       int
	SyntaxLinks int
}

// Apply creates every node and then every edge of ops inside tx. document is
// bound to DocumentHandle.
func Apply(ctx context.Context, tx store.Tx, ops *OperationSet, document store.NodeRef) (ApplyResult, error) {
	refs := make([]store.NodeRef, len(ops.Nodes))
	for _, n := range ops.Nodes {
		ref, err := tx.CreateNode(ctx, n.Label, n.Props)
		if err != nil {
			return ApplyResult{}, fmt.Errorf("create %s node: %w", n.Label, err)
		}
		refs[n.Handle] = ref
	}

	resolve := func(h int) (store.NodeRef, error) {
		if h == DocumentHandle {
			return document, nil
		}
		if h < 0 || h >= len(refs) {
			return "", fmt.Errorf("unknown node handle %d", h)
		}
		return refs[h], nil
	}

	for _, e := range ops.Edges {
		from, err := resolve(e.From)
		if err != nil {
			return ApplyResult{}, err
		}
		to, err := resolve(e.To)
		if err != nil {
			return ApplyResult{}, err
		}
		if err := tx.CreateEdge(ctx, from, to, e.Type, e.Props); err != nil {
			return ApplyResult{}, fmt.Errorf("create %s edge: %w", e.Type, err)
		}
	}

	return ApplyResult{Nodes: len(ops.Nodes), Edges: len(ops.Edges)}, nil
}

// Ingest maps tree below document, applies it and links syntactic dependents.
func Ingest(ctx context.Context, tx store.Tx, tree *annotation.Tree, document store.NodeRef) (ApplyResult, error) {
	ops, err := Map(tree)
	if err != nil {
		return ApplyResult{}, err
	}

	res, err := Apply(ctx, tx, ops, document)
	if err != nil {
		return ApplyResult{}, err
	}

	links, err := tx.LinkSyntax(ctx)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("link syntax: %w", err)
	}
	res.SyntaxLinks = links

	logger.Debug("[Graph][Ingest] Applied annotation tree",
		"nodes", res.Nodes,
		"edges", res.Edges,
		"syntax_links", res.SyntaxLinks,
	)
	return res, nil
}
