package store

import (
	"context"
	"errors"
	"fmt"
)

// NodeRef identifies a node inside one graph store. Refs are only meaningful
// to the backend that issued them.
type NodeRef string

// Node is a labeled property-graph node.
type Node struct {
	Ref   NodeRef
	Label string
	Props map[string]any
}

// Edge is a directed, typed relationship between two nodes.
type Edge struct {
	From  NodeRef
	To    NodeRef
	Type  string
	Props map[string]any
}

// GraphStorage is a transactional property-graph database.
type GraphStorage interface {
	// Begin opens a write transaction. Nothing created through it is visible
	// to other transactions before Commit.
	Begin(ctx context.Context) (Tx, error)
	// EnsureUniqueConstraint declares label.property unique. Calling it again
	// for an existing constraint is a no-op.
	EnsureUniqueConstraint(ctx context.Context, label, property string) error
	Close(ctx context.Context) error
}

// Tx is one atomic unit of graph work. Transactions are not nested.
type Tx interface {
	CreateNode(ctx context.Context, label string, props map[string]any) (NodeRef, error)
	CreateEdge(ctx context.Context, from, to NodeRef, edgeType string, props map[string]any) error

	// MatchNode returns the first node with label whose properties equal match,
	// or nil when there is none.
	MatchNode(ctx context.Context, label string, match map[string]any) (*Node, error)
	MatchNodes(ctx context.Context, label string, match map[string]any) ([]Node, error)
	// Neighbors returns the targets of outgoing edgeType edges of from that
	// carry label.
	Neighbors(ctx context.Context, from NodeRef, edgeType, label string) ([]Node, error)

	// MergeNode looks a node up by label and props[key] and creates it with
	// props when absent. Existing nodes are never modified.
	MergeNode(ctx context.Context, label, key string, props map[string]any) (NodeRef, bool, error)
	// MergeEdge creates from-[edgeType]->to unless such an edge exists.
	MergeEdge(ctx context.Context, from, to NodeRef, edgeType string) (bool, error)
	// HasEdge reports whether from-[edgeType]->to exists. An empty edgeType
	// matches any type.
	HasEdge(ctx context.Context, from, to NodeRef, edgeType string) (bool, error)

	// LinkSyntax links governor words to their dependents among the words
	// created in this transaction and clears their transient marker. It
	// returns the number of syntax_link edges created.
	LinkSyntax(ctx context.Context) (int, error)
	// Run executes a raw backend query.
	Run(ctx context.Context, query string, params map[string]any) error

	Commit(ctx context.Context) error
	// Rollback discards the transaction. It is a no-op once the transaction
	// has been committed or rolled back.
	Rollback(ctx context.Context) error
}

var (
	// ErrConstraint is matched by every ConstraintError.
	ErrConstraint = errors.New("uniqueness constraint violated")
	// ErrUnsupported is returned by backends that cannot run a capability.
	ErrUnsupported = errors.New("operation not supported by graph backend")
	// ErrTxClosed is returned when a finished transaction is used again.
	ErrTxClosed = errors.New("transaction already closed")
)

// ConstraintError reports a uniqueness violation. Label and Property are empty
// when the backend could not tell which constraint failed.
type ConstraintError struct {
	Label    string
	Property string
	Cause    error
}

func (e *ConstraintError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("uniqueness constraint violated: %v", e.Cause)
	}
	return fmt.Sprintf("uniqueness constraint on %s.%s violated", e.Label, e.Property)
}

func (e *ConstraintError) Unwrap() error { return e.Cause }

func (e *ConstraintError) Is(target error) bool { return target == ErrConstraint }
