package docs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/OFFIS-RIT/papertext/backend/internal/timing"
	"github.com/OFFIS-RIT/papertext/backend/pkg/common"
	"github.com/OFFIS-RIT/papertext/backend/pkg/graph"
	"github.com/OFFIS-RIT/papertext/backend/pkg/logger"
	"github.com/OFFIS-RIT/papertext/backend/pkg/store"
)

// CreateCorpus creates a corpus below ParentCorpID, or below the root corpus
// when none is given, and records the issuer with a created edge.
func (r *Registry) CreateCorpus(ctx context.Context, params CreateCorpusParams) (*common.Corpus, error) {
	if len(params.ToInclude) > 0 {
		return nil, common.NewNotImplementedError("option `to_include` is currently unsupported").
			WithRus("опция `to_include` пока не поддерживается")
	}
	if params.CorpID == "" {
		return nil, common.NewConflictError("corp_id must not be empty")
	}
	parentID := params.ParentCorpID
	if parentID == "" {
		parentID = common.RootCorpusID
	}

	err := store.WithTx(ctx, r.storage, func(tx store.Tx) error {
		existing, err := tx.MatchNode(ctx, graph.LabelCorpus, map[string]any{"corp_id": params.CorpID})
		if err != nil {
			return err
		}
		if existing != nil {
			return corpusExistsError(params.CorpID)
		}

		parent, err := tx.MatchNode(ctx, graph.LabelCorpus, map[string]any{"corp_id": parentID})
		if err != nil {
			return err
		}
		if parent == nil {
			return common.NewConflictError(fmt.Sprintf("parent corpus %s doesn't exist", parentID)).
				WithRus(fmt.Sprintf("родительский корпус %s не существует", parentID))
		}

		children, err := tx.Neighbors(ctx, parent.Ref, graph.EdgeContains, graph.LabelCorpus)
		if err != nil {
			return err
		}
		for _, child := range children {
			if propString(child.Props, "corp_id") == params.CorpID {
				return common.NewConflictError(fmt.Sprintf("corpus %s already contains corpus %s", parentID, params.CorpID))
			}
		}

		label, key, ok := issuerNode(params.IssuerType)
		if !ok {
			return common.NewConflictError(fmt.Sprintf("issuer type %q is neither user nor org", params.IssuerType))
		}
		issuer, err := tx.MatchNode(ctx, label, map[string]any{key: params.IssuerID})
		if err != nil {
			return err
		}
		if issuer == nil {
			return common.NewConflictError(fmt.Sprintf("%s %s doesn't exist", params.IssuerType, params.IssuerID))
		}

		props := map[string]any{
			"corp_id": params.CorpID,
			"private": params.Private,
		}
		if params.Name != nil {
			props["name"] = *params.Name
		}
		if len(params.HasAccess) > 0 {
			props["has_access"] = params.HasAccess
		}
		ref, err := tx.CreateNode(ctx, graph.LabelCorpus, props)
		if err != nil {
			return err
		}
		if err := tx.CreateEdge(ctx, parent.Ref, ref, graph.EdgeContains, nil); err != nil {
			return err
		}
		return tx.CreateEdge(ctx, issuer.Ref, ref, graph.EdgeCreated, nil)
	})
	if err != nil {
		if errors.Is(err, store.ErrConstraint) {
			return nil, corpusExistsError(params.CorpID).WithCause(err)
		}
		return nil, err
	}

	timing.IncCorporaCreated()
	logger.Info("[Registry][CreateCorpus] Created corpus",
		"corp_id", params.CorpID,
		"parent_corp_id", parentID,
		"issuer_id", params.IssuerID,
	)
	return &common.Corpus{ID: params.CorpID, Name: params.Name, Private: params.Private}, nil
}

func corpusExistsError(corpID string) *common.AppError {
	return common.NewConflictError(fmt.Sprintf("corpus with id %s already exists", corpID)).
		WithRus(fmt.Sprintf("корпус с id %s уже существует", corpID))
}

// ReadCorpora lists every corpus except the root, or only the direct children
// of ParentCorpID when it is set.
func (r *Registry) ReadCorpora(ctx context.Context, params ReadCorporaParams) ([]common.MinimalCorpus, error) {
	var nodes []store.Node
	err := store.WithTx(ctx, r.storage, func(tx store.Tx) error {
		if params.ParentCorpID == "" {
			var err error
			nodes, err = tx.MatchNodes(ctx, graph.LabelCorpus, nil)
			return err
		}

		parent, err := tx.MatchNode(ctx, graph.LabelCorpus, map[string]any{"corp_id": params.ParentCorpID})
		if err != nil {
			return err
		}
		if parent == nil {
			return common.NewConflictError(fmt.Sprintf("parent corpus %s doesn't exist", params.ParentCorpID))
		}
		nodes, err = tx.Neighbors(ctx, parent.Ref, graph.EdgeContains, graph.LabelCorpus)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]common.MinimalCorpus, 0, len(nodes))
	for _, n := range nodes {
		c := corpusFromNode(n)
		if c.ID == common.RootCorpusID {
			continue
		}
		out = append(out, common.MinimalCorpus{ID: c.ID, Name: c.Name})
	}
	slices.SortFunc(out, func(a, b common.MinimalCorpus) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// ReadCorpus returns the corpus with the ids of the corpora and documents it
// directly contains.
func (r *Registry) ReadCorpus(ctx context.Context, corpID string) (*common.CorpusDetails, error) {
	var details *common.CorpusDetails
	err := store.WithTx(ctx, r.storage, func(tx store.Tx) error {
		n, err := tx.MatchNode(ctx, graph.LabelCorpus, map[string]any{"corp_id": corpID})
		if err != nil {
			return err
		}
		if n == nil {
			return common.NewNotFoundError(fmt.Sprintf("corpus %s", corpID))
		}

		corpora, err := tx.Neighbors(ctx, n.Ref, graph.EdgeContains, graph.LabelCorpus)
		if err != nil {
			return err
		}
		documents, err := tx.Neighbors(ctx, n.Ref, graph.EdgeContains, graph.LabelDocument)
		if err != nil {
			return err
		}

		details = &common.CorpusDetails{
			Corpus:    corpusFromNode(*n),
			Corpora:   sortedIDs(corpora, "corp_id"),
			Documents: sortedIDs(documents, "doc_id"),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}

func (r *Registry) UpdateCorpus(ctx context.Context, params UpdateCorpusParams) (*common.Corpus, error) {
	return nil, common.NewNotImplementedError("updating corpora is not implemented").
		WithRus("обновление корпусов не реализовано")
}

func (r *Registry) DeleteCorpus(ctx context.Context, corpID string) error {
	return common.NewNotImplementedError("deleting corpora is not implemented").
		WithRus("удаление корпусов не реализовано")
}

func sortedIDs(nodes []store.Node, key string) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, propString(n.Props, key))
	}
	slices.Sort(ids)
	return ids
}
