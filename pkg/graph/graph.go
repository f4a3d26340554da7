// Package graph maps annotation trees onto the document graph.
//
// The graph vocabulary:
//   - labels: org, user, corp, document, sentence, clause, word, role
//   - edges: contains, created, clause_node, next, predicate, argument, syntax_link
//
// Map is a pure transform from an annotation.Tree to an OperationSet. Apply
// replays an OperationSet inside an open store.Tx and Ingest additionally runs
// the syntax link pass.
package graph

import "errors"

const (
	LabelOrg      = "org"
	LabelUser     = "user"
	LabelCorpus   = "corp"
	LabelDocument = "document"
	LabelSentence = "sentence"
	LabelClause   = "clause"
	LabelWord     = "word"
	LabelRole     = "role"
)

const (
	EdgeContains   = "contains"
	EdgeCreated    = "created"
	EdgeClause     = "clause_node"
	EdgeNext       = "next"
	EdgePredicate  = "predicate"
	EdgeArgument   = "argument"
	EdgeSyntaxLink = "syntax_link"
)

const (
	// PropNew marks words inserted by the running ingestion until the syntax
	// link pass clears it.
	PropNew      = "new"
	PropRoleID   = "role_id"
	PropLinkName = "link_name"
)

// DocumentHandle refers to the Document node the operations hang off. It is
// bound to a concrete node when the set is applied.
const DocumentHandle = -1

// ErrInvalidAnnotation is returned when a tree references words that do not
// exist in its sentence.
var ErrInvalidAnnotation = errors.New("invalid annotation")

// NodeOp creates one node. Handle is the op's index in OperationSet.Nodes.
type NodeOp struct {
	Handle int
	Label  string
	Props  map[string]any
}

// EdgeOp creates one edge between two handles.
type EdgeOp struct {
	From  int
	To    int
	Type  string
	Props map[string]any
}

// OperationSet is the ordered list of creations produced for one document.
type OperationSet struct {
	Nodes []NodeOp
	Edges []EdgeOp
}

func (o *OperationSet) addNode(label string, props map[string]any) int {
	h := len(o.Nodes)
	o.Nodes = append(o.Nodes, NodeOp{Handle: h, Label: label, Props: props})
	return h
}

func (o *OperationSet) addEdge(from, to int, edgeType string, props map[string]any) {
	o.Edges = append(o.Edges, EdgeOp{From: from, To: to, Type: edgeType, Props: props})
}

// CountNodes returns the number of node ops with label.
func (o *OperationSet) CountNodes(label string) int {
	n := 0
	for _, op := range o.Nodes {
		if op.Label == label {
			n++
		}
	}
	return n
}

// EdgesOfType returns the edge ops of edgeType in creation order.
func (o *OperationSet) EdgesOfType(edgeType string) []EdgeOp {
	var out []EdgeOp
	for _, op := range o.Edges {
		if op.Type == edgeType {
			out = append(out, op)
		}
	}
	return out
}
