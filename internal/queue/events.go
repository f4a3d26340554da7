package queue

import (
	"context"
	"encoding/json"

	"github.com/OFFIS-RIT/papertext/backend/pkg/common"
	"github.com/OFFIS-RIT/papertext/backend/pkg/logger"
)

const (
	TopicDocumentCreated = "document.created"
	TopicCorpusCreated   = "corpus.created"
)

type DocumentCreatedEvent struct {
	DocID        string  `json:"doc_id"`
	ParentCorpID string  `json:"parent_corp_id"`
	Name         *string `json:"name"`
	Author       string  `json:"author"`
	CreatorID    string  `json:"creator_id"`
}

type CorpusCreatedEvent struct {
	CorpID       string  `json:"corp_id"`
	ParentCorpID string  `json:"parent_corp_id"`
	Name         *string `json:"name"`
	IssuerID     string  `json:"issuer_id"`
}

// NotifyDocumentCreated publishes a document.created event. Failures are
// logged and otherwise ignored since the document is already committed.
func NotifyDocumentCreated(ctx context.Context, pub Publisher, doc *common.Document, creatorID string) {
	notify(ctx, pub, TopicDocumentCreated, DocumentCreatedEvent{
		DocID:        doc.ID,
		ParentCorpID: doc.ParentCorpID,
		Name:         doc.Name,
		Author:       doc.Author,
		CreatorID:    creatorID,
	})
}

func NotifyCorpusCreated(ctx context.Context, pub Publisher, corpus *common.Corpus, parentCorpID, issuerID string) {
	if parentCorpID == "" {
		parentCorpID = common.RootCorpusID
	}
	notify(ctx, pub, TopicCorpusCreated, CorpusCreatedEvent{
		CorpID:       corpus.ID,
		ParentCorpID: parentCorpID,
		Name:         corpus.Name,
		IssuerID:     issuerID,
	})
}

func notify(ctx context.Context, pub Publisher, topic string, event any) {
	if pub == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("[Queue][Notify] Failed to encode event", "topic", topic, "err", err)
		return
	}
	if err := PublishTopic(ctx, pub, topic, data); err != nil {
		logger.Warn("[Queue][Notify] Failed to publish event", "topic", topic, "err", err)
	}
}
