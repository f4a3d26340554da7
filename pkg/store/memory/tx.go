package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/OFFIS-RIT/papertext/backend/pkg/store"
)

type tx struct {
	store       *Store
	state       *graphState
	constraints map[string][]string
	closed      bool
}

func (t *tx) check() error {
	if t.closed {
		return store.ErrTxClosed
	}
	return nil
}

func (t *tx) release() {
	t.closed = true
	<-t.store.writer
}

func (t *tx) violates(label string, props map[string]any, self store.NodeRef) error {
	for _, prop := range t.constraints[label] {
		v, ok := props[prop]
		if !ok {
			continue
		}
		for _, ref := range t.state.order {
			n := t.state.nodes[ref]
			if ref == self || n.Label != label {
				continue
			}
			if other, ok := n.Props[prop]; ok && other == v {
				return &store.ConstraintError{Label: label, Property: prop}
			}
		}
	}
	return nil
}

func (t *tx) CreateNode(ctx context.Context, label string, props map[string]any) (store.NodeRef, error) {
	if err := t.check(); err != nil {
		return "", err
	}
	clean := make(map[string]any, len(props))
	for k, v := range props {
		if v != nil {
			clean[k] = v
		}
	}
	if err := t.violates(label, clean, ""); err != nil {
		return "", err
	}
	ref := t.store.nextRef()
	t.state.nodes[ref] = &store.Node{Ref: ref, Label: label, Props: clean}
	t.state.order = append(t.state.order, ref)
	return ref, nil
}

func (t *tx) CreateEdge(ctx context.Context, from, to store.NodeRef, edgeType string, props map[string]any) error {
	if err := t.check(); err != nil {
		return err
	}
	if _, ok := t.state.nodes[from]; !ok {
		return fmt.Errorf("edge %s: unknown start node %s", edgeType, from)
	}
	if _, ok := t.state.nodes[to]; !ok {
		return fmt.Errorf("edge %s: unknown end node %s", edgeType, to)
	}
	t.state.edges = append(t.state.edges, store.Edge{From: from, To: to, Type: edgeType, Props: maps.Clone(props)})
	return nil
}

func matches(n *store.Node, label string, match map[string]any) bool {
	if n.Label != label {
		return false
	}
	for k, v := range match {
		if n.Props[k] != v {
			return false
		}
	}
	return true
}

func (t *tx) MatchNode(ctx context.Context, label string, match map[string]any) (*store.Node, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	for _, ref := range t.state.order {
		n := t.state.nodes[ref]
		if matches(n, label, match) {
			return &store.Node{Ref: n.Ref, Label: n.Label, Props: maps.Clone(n.Props)}, nil
		}
	}
	return nil, nil
}

func (t *tx) MatchNodes(ctx context.Context, label string, match map[string]any) ([]store.Node, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	var out []store.Node
	for _, ref := range t.state.order {
		n := t.state.nodes[ref]
		if matches(n, label, match) {
			out = append(out, store.Node{Ref: n.Ref, Label: n.Label, Props: maps.Clone(n.Props)})
		}
	}
	return out, nil
}

func (t *tx) Neighbors(ctx context.Context, from store.NodeRef, edgeType, label string) ([]store.Node, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	var out []store.Node
	for _, e := range t.state.edges {
		if e.From != from || e.Type != edgeType {
			continue
		}
		n := t.state.nodes[e.To]
		if n.Label == label {
			out = append(out, store.Node{Ref: n.Ref, Label: n.Label, Props: maps.Clone(n.Props)})
		}
	}
	return out, nil
}

func (t *tx) MergeNode(ctx context.Context, label, key string, props map[string]any) (store.NodeRef, bool, error) {
	if err := t.check(); err != nil {
		return "", false, err
	}
	v, ok := props[key]
	if !ok {
		return "", false, fmt.Errorf("merge %s: key %s missing from props", label, key)
	}
	existing, err := t.MatchNode(ctx, label, map[string]any{key: v})
	if err != nil {
		return "", false, err
	}
	if existing != nil {
		return existing.Ref, false, nil
	}
	ref, err := t.CreateNode(ctx, label, props)
	return ref, err == nil, err
}

func (t *tx) HasEdge(ctx context.Context, from, to store.NodeRef, edgeType string) (bool, error) {
	if err := t.check(); err != nil {
		return false, err
	}
	for _, e := range t.state.edges {
		if e.From == from && e.To == to && (edgeType == "" || e.Type == edgeType) {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) MergeEdge(ctx context.Context, from, to store.NodeRef, edgeType string) (bool, error) {
	exists, err := t.HasEdge(ctx, from, to, edgeType)
	if err != nil || exists {
		return false, err
	}
	return true, t.CreateEdge(ctx, from, to, edgeType, nil)
}

// LinkSyntax is the in-process equivalent of the Neo4j syntax link query:
// words two hops below a sentence that still carry the new marker are indexed
// by idx and each dependent is linked from its governor.
func (t *tx) LinkSyntax(ctx context.Context) (int, error) {
	if err := t.check(); err != nil {
		return 0, err
	}

	out := map[store.NodeRef][]store.NodeRef{}
	for _, e := range t.state.edges {
		out[e.From] = append(out[e.From], e.To)
	}

	created := 0
	for _, ref := range t.state.order {
		if t.state.nodes[ref].Label != "sentence" {
			continue
		}
		byIdx := map[int]store.NodeRef{}
		var words []store.NodeRef
		for _, mid := range out[ref] {
			for _, w := range out[mid] {
				n := t.state.nodes[w]
				if n.Label != "word" || n.Props["new"] != true {
					continue
				}
				if idx, ok := n.Props["idx"].(int); ok {
					if _, seen := byIdx[idx]; !seen {
						words = append(words, w)
					}
					byIdx[idx] = w
				}
			}
		}
		for _, child := range words {
			c := t.state.nodes[child]
			parentIdx, ok := c.Props["syntax_parent_idx"].(int)
			if !ok {
				continue
			}
			parent, ok := byIdx[parentIdx]
			if !ok || parent == child {
				continue
			}
			props := map[string]any{}
			if name, ok := c.Props["syntax_link_name"]; ok {
				props["link_name"] = name
			}
			t.state.edges = append(t.state.edges, store.Edge{From: parent, To: child, Type: "syntax_link", Props: props})
			created++
		}
	}

	for _, n := range t.state.nodes {
		if n.Label == "word" {
			delete(n.Props, "new")
		}
	}
	return created, nil
}

func (t *tx) Run(ctx context.Context, query string, params map[string]any) error {
	if err := t.check(); err != nil {
		return err
	}
	return store.ErrUnsupported
}

func (t *tx) Commit(ctx context.Context) error {
	if err := t.check(); err != nil {
		return err
	}
	t.store.mu.Lock()
	for label, props := range t.store.constraints {
		if !slices.Equal(props, t.constraints[label]) {
			t.constraints[label] = props
		}
	}
	t.store.mu.Unlock()

	for _, ref := range t.state.order {
		n := t.state.nodes[ref]
		if err := t.violates(n.Label, n.Props, ref); err != nil {
			t.release()
			return err
		}
	}

	t.store.mu.Lock()
	t.store.state = t.state
	t.store.mu.Unlock()
	t.release()
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	if t.closed {
		return nil
	}
	t.release()
	return nil
}
