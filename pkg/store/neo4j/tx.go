package neo4j

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/papertext/backend/pkg/store"

	neo4jdriver "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// SyntaxLinkQueryV1 links every new word to the new word of the same sentence
// whose idx equals its syntax_parent_idx. Sentences reach their words through
// exactly two hops (sentence -> clause -> word). Self-references never link.
const SyntaxLinkQueryV1 = `
MATCH (s:sentence)-[*2]->(c:word {new: true})
MATCH (s)-[*2]->(p:word {new: true})
WHERE c.syntax_parent_idx = p.idx AND c <> p
CREATE (p)-[:syntax_link {link_name: c.syntax_link_name}]->(c)
`

// ClearNewMarkerQueryV1 removes the transient marker left by ingestion.
const ClearNewMarkerQueryV1 = `
MATCH (w:word {new: true})
REMOVE w.new
`

type neoTx struct {
	session neo4jdriver.SessionWithContext
	tx      neo4jdriver.ExplicitTransaction
	closed  bool
}

func (t *neoTx) run(ctx context.Context, query string, params map[string]any) (neo4jdriver.ResultWithContext, error) {
	if t.closed {
		return nil, store.ErrTxClosed
	}
	res, err := t.tx.Run(ctx, query, params)
	if err != nil {
		return nil, translate(err)
	}
	return res, nil
}

func (t *neoTx) single(ctx context.Context, query string, params map[string]any) (*neo4jdriver.Record, error) {
	res, err := t.run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	var rec *neo4jdriver.Record
	if res.Next(ctx) {
		rec = res.Record()
	}
	if err := res.Err(); err != nil {
		return nil, translate(err)
	}
	return rec, nil
}

func (t *neoTx) CreateNode(ctx context.Context, label string, props map[string]any) (store.NodeRef, error) {
	l, err := quote(label)
	if err != nil {
		return "", err
	}
	query := fmt.Sprintf("CREATE (n:%s $props) RETURN elementId(n) AS ref", l)
	rec, err := t.single(ctx, query, map[string]any{"props": cleanProps(props)})
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", fmt.Errorf("create %s returned no node", label)
	}
	ref, _ := rec.Get("ref")
	return store.NodeRef(ref.(string)), nil
}

func (t *neoTx) CreateEdge(ctx context.Context, from, to store.NodeRef, edgeType string, props map[string]any) error {
	typ, err := quote(edgeType)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(
		"MATCH (a) WHERE elementId(a) = $from MATCH (b) WHERE elementId(b) = $to CREATE (a)-[r:%s $props]->(b) RETURN count(r) AS c",
		typ,
	)
	rec, err := t.single(ctx, query, map[string]any{
		"from":  string(from),
		"to":    string(to),
		"props": cleanProps(props),
	})
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("edge %s: no result", edgeType)
	}
	if c, _ := rec.Get("c"); c != int64(1) {
		return fmt.Errorf("edge %s: endpoints %s -> %s not found", edgeType, from, to)
	}
	return nil
}

func toNode(v any) store.Node {
	n := v.(neo4jdriver.Node)
	label := ""
	if len(n.Labels) > 0 {
		label = n.Labels[0]
	}
	return store.Node{Ref: store.NodeRef(n.ElementId), Label: label, Props: n.Props}
}

func (t *neoTx) matchQuery(label string, match map[string]any, limit int) (string, map[string]any, error) {
	l, err := quote(label)
	if err != nil {
		return "", nil, err
	}
	params := map[string]any{}
	where, err := whereClause("n", match, params)
	if err != nil {
		return "", nil, err
	}
	query := fmt.Sprintf("MATCH (n:%s) %s RETURN n ORDER BY elementId(n)", l, where)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return query, params, nil
}

func (t *neoTx) MatchNode(ctx context.Context, label string, match map[string]any) (*store.Node, error) {
	query, params, err := t.matchQuery(label, match, 1)
	if err != nil {
		return nil, err
	}
	rec, err := t.single(ctx, query, params)
	if err != nil || rec == nil {
		return nil, err
	}
	v, _ := rec.Get("n")
	n := toNode(v)
	return &n, nil
}

func (t *neoTx) collect(ctx context.Context, query string, params map[string]any) ([]store.Node, error) {
	res, err := t.run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	var out []store.Node
	for res.Next(ctx) {
		v, _ := res.Record().Get("n")
		out = append(out, toNode(v))
	}
	if err := res.Err(); err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (t *neoTx) MatchNodes(ctx context.Context, label string, match map[string]any) ([]store.Node, error) {
	query, params, err := t.matchQuery(label, match, 0)
	if err != nil {
		return nil, err
	}
	return t.collect(ctx, query, params)
}

func (t *neoTx) Neighbors(ctx context.Context, from store.NodeRef, edgeType, label string) ([]store.Node, error) {
	typ, err := quote(edgeType)
	if err != nil {
		return nil, err
	}
	l, err := quote(label)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("MATCH (a)-[:%s]->(n:%s) WHERE elementId(a) = $from RETURN n ORDER BY elementId(n)", typ, l)
	return t.collect(ctx, query, map[string]any{"from": string(from)})
}

// mergeMarker flags entities taken through the ON CREATE branch. It is removed
// before the query returns.
const mergeMarker = "__merge_created"

func (t *neoTx) MergeNode(ctx context.Context, label, key string, props map[string]any) (store.NodeRef, bool, error) {
	v, ok := props[key]
	if !ok || v == nil {
		return "", false, fmt.Errorf("merge %s: key %s missing from props", label, key)
	}
	l, err := quote(label)
	if err != nil {
		return "", false, err
	}
	k, err := quote(key)
	if err != nil {
		return "", false, err
	}
	query := fmt.Sprintf(
		"MERGE (n:%s {%s: $key}) ON CREATE SET n += $props, n.%s = true "+
			"WITH n, coalesce(n.%s, false) AS created REMOVE n.%s "+
			"RETURN elementId(n) AS ref, created",
		l, k, mergeMarker, mergeMarker, mergeMarker,
	)
	rec, err := t.single(ctx, query, map[string]any{"key": v, "props": cleanProps(props)})
	if err != nil {
		return "", false, err
	}
	if rec == nil {
		return "", false, fmt.Errorf("merge %s returned no node", label)
	}
	ref, _ := rec.Get("ref")
	created, _ := rec.Get("created")
	c, _ := created.(bool)
	return store.NodeRef(ref.(string)), c, nil
}

func (t *neoTx) HasEdge(ctx context.Context, from, to store.NodeRef, edgeType string) (bool, error) {
	rel := "[r]"
	if edgeType != "" {
		typ, err := quote(edgeType)
		if err != nil {
			return false, err
		}
		rel = "[r:" + typ + "]"
	}
	query := fmt.Sprintf("MATCH (a)-%s->(b) WHERE elementId(a) = $from AND elementId(b) = $to RETURN count(r) AS c", rel)
	rec, err := t.single(ctx, query, map[string]any{"from": string(from), "to": string(to)})
	if err != nil || rec == nil {
		return false, err
	}
	c, _ := rec.Get("c")
	n, _ := c.(int64)
	return n > 0, nil
}

func (t *neoTx) MergeEdge(ctx context.Context, from, to store.NodeRef, edgeType string) (bool, error) {
	typ, err := quote(edgeType)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf(
		"MATCH (a) WHERE elementId(a) = $from MATCH (b) WHERE elementId(b) = $to "+
			"MERGE (a)-[r:%s]->(b) ON CREATE SET r.%s = true "+
			"WITH r, coalesce(r.%s, false) AS created REMOVE r.%s "+
			"RETURN created",
		typ, mergeMarker, mergeMarker, mergeMarker,
	)
	rec, err := t.single(ctx, query, map[string]any{"from": string(from), "to": string(to)})
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, fmt.Errorf("edge %s: endpoints %s -> %s not found", edgeType, from, to)
	}
	created, _ := rec.Get("created")
	c, _ := created.(bool)
	return c, nil
}

func (t *neoTx) LinkSyntax(ctx context.Context) (int, error) {
	res, err := t.run(ctx, SyntaxLinkQueryV1, nil)
	if err != nil {
		return 0, err
	}
	summary, err := res.Consume(ctx)
	if err != nil {
		return 0, translate(err)
	}
	if err := t.Run(ctx, ClearNewMarkerQueryV1, nil); err != nil {
		return 0, err
	}
	return summary.Counters().RelationshipsCreated(), nil
}

func (t *neoTx) Run(ctx context.Context, query string, params map[string]any) error {
	res, err := t.run(ctx, query, params)
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return translate(err)
}

func (t *neoTx) Commit(ctx context.Context) error {
	if t.closed {
		return store.ErrTxClosed
	}
	t.closed = true
	defer t.session.Close(ctx)
	if err := t.tx.Commit(ctx); err != nil {
		return translate(fmt.Errorf("error committing transaction: %w", err))
	}
	return nil
}

func (t *neoTx) Rollback(ctx context.Context) error {
	if t.closed {
		return nil
	}
	t.closed = true
	defer t.session.Close(ctx)
	return t.tx.Rollback(ctx)
}
