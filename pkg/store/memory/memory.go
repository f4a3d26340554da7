// Package memory is an in-process GraphStorage. Transactions work on a private
// copy of the graph and are serialized by a single writer slot, so a commit
// publishes all of a transaction's changes at once and a rollback none.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/OFFIS-RIT/papertext/backend/pkg/store"
)

type graphState struct {
	nodes map[store.NodeRef]*store.Node
	order []store.NodeRef
	edges []store.Edge
}

func (g *graphState) clone() *graphState {
	c := &graphState{
		nodes: make(map[store.NodeRef]*store.Node, len(g.nodes)),
		order: slices.Clone(g.order),
		edges: make([]store.Edge, len(g.edges)),
	}
	for ref, n := range g.nodes {
		c.nodes[ref] = &store.Node{Ref: n.Ref, Label: n.Label, Props: maps.Clone(n.Props)}
	}
	for i, e := range g.edges {
		c.edges[i] = store.Edge{From: e.From, To: e.To, Type: e.Type, Props: maps.Clone(e.Props)}
	}
	return c
}

// Store implements store.GraphStorage in memory.
type Store struct {
	writer chan struct{}

	mu          sync.RWMutex
	state       *graphState
	constraints map[string][]string

	seq atomic.Int64
}

func New() *Store {
	return &Store{
		writer:      make(chan struct{}, 1),
		state:       &graphState{nodes: map[store.NodeRef]*store.Node{}},
		constraints: map[string][]string{},
	}
}

// Begin waits for the writer slot and snapshots the committed graph.
func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	select {
	case s.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.RLock()
	st := s.state.clone()
	constraints := maps.Clone(s.constraints)
	s.mu.RUnlock()

	return &tx{store: s, state: st, constraints: constraints}, nil
}

func (s *Store) EnsureUniqueConstraint(ctx context.Context, label, property string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.constraints[label], property) {
		return nil
	}
	seen := map[any]struct{}{}
	for _, ref := range s.state.order {
		n := s.state.nodes[ref]
		if n.Label != label {
			continue
		}
		v, ok := n.Props[property]
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			return &store.ConstraintError{Label: label, Property: property, Cause: fmt.Errorf("existing duplicates for %v", v)}
		}
		seen[v] = struct{}{}
	}
	s.constraints[label] = append(slices.Clone(s.constraints[label]), property)
	return nil
}

func (s *Store) Close(ctx context.Context) error { return nil }

func (s *Store) nextRef() store.NodeRef {
	return store.NodeRef(fmt.Sprintf("mem:%d", s.seq.Add(1)))
}

// Nodes returns copies of the committed nodes with label, in creation order.
// An empty label returns every node.
func (s *Store) Nodes(label string) []store.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.Node
	for _, ref := range s.state.order {
		n := s.state.nodes[ref]
		if label == "" || n.Label == label {
			out = append(out, store.Node{Ref: n.Ref, Label: n.Label, Props: maps.Clone(n.Props)})
		}
	}
	return out
}

// Edges returns copies of the committed edges of edgeType, all when empty.
func (s *Store) Edges(edgeType string) []store.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.Edge
	for _, e := range s.state.edges {
		if edgeType == "" || e.Type == edgeType {
			out = append(out, store.Edge{From: e.From, To: e.To, Type: e.Type, Props: maps.Clone(e.Props)})
		}
	}
	return out
}

// Node returns a copy of the committed node ref.
func (s *Store) Node(ref store.NodeRef) (store.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.state.nodes[ref]
	if !ok {
		return store.Node{}, false
	}
	return store.Node{Ref: n.Ref, Label: n.Label, Props: maps.Clone(n.Props)}, true
}
