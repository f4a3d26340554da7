package graph

import (
	"fmt"
	"maps"
	"slices"

	"github.com/OFFIS-RIT/papertext/backend/pkg/annotation"
)

// Map expands tree into node and edge creations. Per sentence it emits the
// sentence, its clauses and words with their containment edges, a next chain
// over the words sorted by idx, and one role node per role with a predicate
// edge and one argument edge per argument.
func Map(tree *annotation.Tree) (*OperationSet, error) {
	ops := &OperationSet{}
	if tree == nil {
		return ops, nil
	}

	for si, sent := range tree.Sentences {
		if err := mapSentence(ops, sent); err != nil {
			return nil, fmt.Errorf("sentence %d: %w", si, err)
		}
	}
	return ops, nil
}

func mapSentence(ops *OperationSet, sent annotation.Sentence) error {
	sentHandle := ops.addNode(LabelSentence, cloneAttrs(sent.Attrs))
	ops.addEdge(DocumentHandle, sentHandle, EdgeContains, nil)

	words := make(map[int]int, sent.WordCount())
	for _, clause := range sent.Clauses {
		clauseHandle := ops.addNode(LabelClause, cloneAttrs(clause.Attrs))
		ops.addEdge(sentHandle, clauseHandle, EdgeClause, nil)

		for _, w := range clause.Words {
			if _, dup := words[w.Idx]; dup {
				return fmt.Errorf("%w: word idx %d appears twice in sentence", ErrInvalidAnnotation, w.Idx)
			}
			props := cloneAttrs(w.Attrs)
			props["idx"] = w.Idx
			props[PropNew] = true
			wordHandle := ops.addNode(LabelWord, props)
			ops.addEdge(clauseHandle, wordHandle, EdgeContains, nil)
			words[w.Idx] = wordHandle
		}
	}

	order := slices.Sorted(maps.Keys(words))
	for i := 0; i+1 < len(order); i++ {
		ops.addEdge(words[order[i]], words[order[i+1]], EdgeNext, nil)
	}

	for ri, role := range sent.Roles {
		predicate, ok := words[role.WordIdx]
		if !ok {
			return fmt.Errorf("%w: role %d predicate word %d not in sentence", ErrInvalidAnnotation, ri, role.WordIdx)
		}
		roleHandle := ops.addNode(LabelRole, map[string]any{})
		ops.addEdge(roleHandle, predicate, EdgePredicate, nil)

		for ai, arg := range role.Arguments {
			target, ok := words[arg.WordIdx]
			if !ok {
				return fmt.Errorf("%w: role %d argument %d word %d not in sentence", ErrInvalidAnnotation, ri, ai, arg.WordIdx)
			}
			ops.addEdge(roleHandle, target, EdgeArgument, map[string]any{PropRoleID: arg.RoleID})
		}
	}
	return nil
}

func cloneAttrs(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs)+2)
	maps.Copy(out, attrs)
	return out
}
