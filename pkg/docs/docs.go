// Package docs is the corpus and document registry. It owns the
// create/read operations exposed to clients and drives ingestion: directory
// refresh, annotation, graph mapping and commit happen in one transaction.
package docs

import (
	"context"
	"time"

	"github.com/OFFIS-RIT/papertext/backend/pkg/annotation"
	"github.com/OFFIS-RIT/papertext/backend/pkg/common"
	"github.com/OFFIS-RIT/papertext/backend/pkg/directory"
	"github.com/OFFIS-RIT/papertext/backend/pkg/store"
)

// Service is the registry's public operation surface.
type Service interface {
	CreateDocument(ctx context.Context, params CreateDocumentParams) (*common.Document, error)
	ReadDocuments(ctx context.Context, params ReadDocumentsParams) ([]common.Document, error)
	ReadDocument(ctx context.Context, docID string) (*common.Document, error)
	UpdateDocument(ctx context.Context, params UpdateDocumentParams) (*common.Document, error)
	DeleteDocument(ctx context.Context, docID string) error

	CreateCorpus(ctx context.Context, params CreateCorpusParams) (*common.Corpus, error)
	ReadCorpora(ctx context.Context, params ReadCorporaParams) ([]common.MinimalCorpus, error)
	ReadCorpus(ctx context.Context, corpID string) (*common.CorpusDetails, error)
	UpdateCorpus(ctx context.Context, params UpdateCorpusParams) (*common.Corpus, error)
	DeleteCorpus(ctx context.Context, corpID string) error
}

// Syncer refreshes the identity nodes ahead of ingestion.
type Syncer interface {
	Sync(ctx context.Context) (directory.SyncResult, error)
}

type CreateCorpusParams struct {
	IssuerID     string   `json:"-"`
	IssuerType   string   `json:"-"`
	CorpID       string   `json:"corp_id" validate:"required"`
	Name         *string  `json:"name"`
	ParentCorpID string   `json:"parent_corp_id"`
	Private      bool     `json:"private"`
	HasAccess    []string `json:"has_access"`
	ToInclude    []string `json:"to_include"`
}

type CreateDocumentParams struct {
	CreatorID    string    `json:"-"`
	CreatorType  string    `json:"-"`
	DocID        string    `json:"doc_id"`
	Text         string    `json:"text" validate:"required"`
	Private      bool      `json:"private"`
	ParentCorpID string    `json:"parent_corp_id"`
	Name         *string   `json:"name"`
	HasAccess    []string  `json:"has_access"`
	Author       string    `json:"author"`
	Created      time.Time `json:"created"`
	Tags         []string  `json:"tags"`
}

type ReadDocumentsParams struct {
	RequesterID   string
	Contains      string
	Author        string
	CreatedBefore *time.Time
	CreatedAfter  *time.Time
	Tags          []string
}

type ReadCorporaParams struct {
	RequesterID  string
	ParentCorpID string
	Private      *bool
	HasAccess    []string
}

type UpdateDocumentParams struct {
	RequesterID string
	DocID       string
	Name        *string
	Private     *bool
	Tags        []string
}

type UpdateCorpusParams struct {
	RequesterID string
	CorpID      string
	Name        *string
	Private     *bool
}

// Registry implements Service on a graph store.
type Registry struct {
	storage   store.GraphStorage
	annotator annotation.Annotator
	syncer    Syncer
	now       func() time.Time
}

var _ Service = (*Registry)(nil)

type NewRegistryParams struct {
	Storage   store.GraphStorage
	Annotator annotation.Annotator
	Syncer    Syncer
}

func NewRegistry(params NewRegistryParams) *Registry {
	return &Registry{
		storage:   params.Storage,
		annotator: params.Annotator,
		syncer:    params.Syncer,
		now:       func() time.Time { return time.Now().UTC() },
	}
}
