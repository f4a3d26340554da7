package docs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/OFFIS-RIT/papertext/backend/internal/timing"
	"github.com/OFFIS-RIT/papertext/backend/pkg/common"
	"github.com/OFFIS-RIT/papertext/backend/pkg/graph"
	"github.com/OFFIS-RIT/papertext/backend/pkg/logger"
	"github.com/OFFIS-RIT/papertext/backend/pkg/store"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CreateDocument ingests a text. The directory is refreshed first, then the
// document node, the annotation graph and the syntax links are written in one
// transaction that only commits when every step succeeded.
func (r *Registry) CreateDocument(ctx context.Context, params CreateDocumentParams) (*common.Document, error) {
	start := time.Now()

	if params.DocID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return nil, err
		}
		params.DocID = id
	}
	parentID := params.ParentCorpID
	if parentID == "" {
		parentID = common.RootCorpusID
	}
	author := params.Author
	if author == "" {
		author = params.CreatorID
	}
	created := params.Created
	if created.IsZero() {
		created = r.now()
	}
	created = created.UTC()

	logger.Debug("[Registry][CreateDocument] Starting ingestion", "doc_id", params.DocID, "parent_corp_id", parentID)

	if r.syncer != nil {
		_, err := r.syncer.Sync(ctx)
		switch {
		case errors.Is(err, store.ErrConstraint):
			// a concurrent writer committed the same directory rows first
			logger.Debug("[Registry][CreateDocument] Directory already synced concurrently", "err", err)
		case err != nil:
			timing.ObserveIngestion(false, time.Since(start), 0)
			return nil, fmt.Errorf("sync directory: %w", err)
		}
	}

	var res graph.ApplyResult
	err := store.WithTx(ctx, r.storage, func(tx store.Tx) error {
		existing, err := tx.MatchNode(ctx, graph.LabelDocument, map[string]any{"doc_id": params.DocID})
		if err != nil {
			return err
		}
		if existing != nil {
			return common.NewDocumentNameError(params.DocID)
		}

		parent, err := tx.MatchNode(ctx, graph.LabelCorpus, map[string]any{"corp_id": parentID})
		if err != nil {
			return err
		}
		if parent == nil {
			return common.NewCorpusDoesntExistError(parentID)
		}

		label, key, ok := issuerNode(params.CreatorType)
		if !ok {
			return common.NewConflictError(fmt.Sprintf("creator type %q is neither user nor org", params.CreatorType))
		}
		creator, err := tx.MatchNode(ctx, label, map[string]any{key: params.CreatorID})
		if err != nil {
			return err
		}
		if creator == nil {
			return common.NewConflictError(fmt.Sprintf("%s %s doesn't exist", params.CreatorType, params.CreatorID))
		}

		annotateStart := time.Now()
		tree, err := r.annotator.Annotate(ctx, params.Text)
		timing.ObserveAnnotation(err == nil, time.Since(annotateStart))
		if err != nil {
			return fmt.Errorf("annotate document %s: %w", params.DocID, err)
		}

		props := map[string]any{
			"doc_id":         params.DocID,
			"text":           params.Text,
			"private":        params.Private,
			"author":         author,
			"created":        created.Format(time.RFC3339Nano),
			"parent_corp_id": parentID,
		}
		if params.Name != nil {
			props["name"] = *params.Name
		}
		if len(params.Tags) > 0 {
			props["tags"] = params.Tags
		}
		if len(params.HasAccess) > 0 {
			props["has_access"] = params.HasAccess
		}
		doc, err := tx.CreateNode(ctx, graph.LabelDocument, props)
		if err != nil {
			return err
		}
		if err := tx.CreateEdge(ctx, creator.Ref, doc, graph.EdgeCreated, nil); err != nil {
			return err
		}
		if err := tx.CreateEdge(ctx, parent.Ref, doc, graph.EdgeContains, nil); err != nil {
			return err
		}

		res, err = graph.Ingest(ctx, tx, tree, doc)
		if errors.Is(err, graph.ErrInvalidAnnotation) {
			return common.NewConflictError(fmt.Sprintf("annotation of document %s is inconsistent", params.DocID)).WithCause(err)
		}
		return err
	})
	timing.ObserveIngestion(err == nil, time.Since(start), res.Nodes)
	if err != nil {
		var constraint *store.ConstraintError
		if errors.As(err, &constraint) {
			if constraint.Label == graph.LabelDocument || constraint.Label == "" {
				return nil, common.NewDocumentNameError(params.DocID).WithCause(err)
			}
			return nil, common.NewConflictError(constraint.Error()).WithCause(err)
		}
		logger.Warn("[Registry][CreateDocument] Ingestion aborted", "doc_id", params.DocID, "err", err)
		return nil, err
	}

	logger.Info("[Registry][CreateDocument] Ingested document",
		"doc_id", params.DocID,
		"parent_corp_id", parentID,
		"nodes", res.Nodes,
		"edges", res.Edges,
		"syntax_links", res.SyntaxLinks,
		"duration", time.Since(start),
	)

	tags := params.Tags
	if tags == nil {
		tags = []string{}
	}
	return &common.Document{
		ID:           params.DocID,
		ParentCorpID: parentID,
		Text:         params.Text,
		Private:      params.Private,
		Name:         params.Name,
		Author:       author,
		Created:      created,
		Tags:         tags,
	}, nil
}

// ReadDocuments lists every document without its text, ordered by id. The
// narrowing filters are not supported yet and are rejected rather than
// ignored.
func (r *Registry) ReadDocuments(ctx context.Context, params ReadDocumentsParams) ([]common.Document, error) {
	unsupported := []struct {
		name string
		set  bool
	}{
		{"contains", params.Contains != ""},
		{"author", params.Author != ""},
		{"created_before", params.CreatedBefore != nil},
		{"created_after", params.CreatedAfter != nil},
		{"tags", len(params.Tags) > 0},
	}
	for _, opt := range unsupported {
		if opt.set {
			return nil, common.NewConflictError(fmt.Sprintf("option `%s` is currently unsupported", opt.name)).
				WithRus(fmt.Sprintf("опция `%s` пока не поддерживается", opt.name))
		}
	}

	var nodes []store.Node
	err := store.WithTx(ctx, r.storage, func(tx store.Tx) error {
		var err error
		nodes, err = tx.MatchNodes(ctx, graph.LabelDocument, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]common.Document, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, documentFromNode(n, false))
	}
	slices.SortFunc(out, func(a, b common.Document) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *Registry) ReadDocument(ctx context.Context, docID string) (*common.Document, error) {
	var doc *common.Document
	err := store.WithTx(ctx, r.storage, func(tx store.Tx) error {
		n, err := tx.MatchNode(ctx, graph.LabelDocument, map[string]any{"doc_id": docID})
		if err != nil {
			return err
		}
		if n == nil {
			return common.NewNotFoundError(fmt.Sprintf("document %s", docID))
		}
		d := documentFromNode(*n, true)
		doc = &d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *Registry) UpdateDocument(ctx context.Context, params UpdateDocumentParams) (*common.Document, error) {
	return nil, common.NewNotImplementedError("updating documents is not implemented").
		WithRus("обновление документов не реализовано")
}

func (r *Registry) DeleteDocument(ctx context.Context, docID string) error {
	return common.NewNotImplementedError("deleting documents is not implemented").
		WithRus("удаление документов не реализовано")
}
