package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/OFFIS-RIT/papertext/backend/pkg/common"
	"github.com/OFFIS-RIT/papertext/backend/pkg/docs"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp091.Publishing
}

type recordingPublisher struct {
	sent []published
	err  error
}

func (p *recordingPublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

type fakeService struct {
	docs.Service
	got docs.CreateDocumentParams
	err error
}

func (f *fakeService) CreateDocument(ctx context.Context, params docs.CreateDocumentParams) (*common.Document, error) {
	f.got = params
	if f.err != nil {
		return nil, f.err
	}
	return &common.Document{ID: params.DocID, ParentCorpID: common.RootCorpusID, Author: params.CreatorID}, nil
}

func TestEnqueueAndProcessIngest(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}

	job := IngestJob{
		CreatorID:   "u1",
		CreatorType: common.IssuerUser,
		Document:    docs.CreateDocumentParams{DocID: "d1", Text: "The cat sleeps.", Tags: []string{"a"}},
	}
	require.NoError(t, EnqueueIngest(ctx, pub, job))
	require.Len(t, pub.sent, 1)
	assert.Equal(t, "", pub.sent[0].exchange)
	assert.Equal(t, IngestQueue, pub.sent[0].key)
	assert.Equal(t, amqp091.Persistent, pub.sent[0].msg.DeliveryMode)

	svc := &fakeService{}
	events := &recordingPublisher{}
	require.NoError(t, ProcessIngestMessage(ctx, svc, events, pub.sent[0].msg.Body))

	assert.Equal(t, "u1", svc.got.CreatorID)
	assert.Equal(t, common.IssuerUser, svc.got.CreatorType)
	assert.Equal(t, "The cat sleeps.", svc.got.Text)
	assert.Equal(t, []string{"a"}, svc.got.Tags)

	require.Len(t, events.sent, 1)
	assert.Equal(t, EventExchange, events.sent[0].exchange)
	assert.Equal(t, TopicDocumentCreated, events.sent[0].key)

	var ev DocumentCreatedEvent
	require.NoError(t, json.Unmarshal(events.sent[0].msg.Body, &ev))
	assert.Equal(t, "d1", ev.DocID)
	assert.Equal(t, "u1", ev.CreatorID)
}

func TestProcessIngestFailures(t *testing.T) {
	ctx := context.Background()

	err := ProcessIngestMessage(ctx, &fakeService{}, nil, []byte("{"))
	require.Error(t, err)

	svc := &fakeService{err: common.NewDocumentNameError("d1")}
	events := &recordingPublisher{}
	err = ProcessIngestMessage(ctx, svc, events, []byte(`{"creator_id":"u1","document":{"doc_id":"d1","text":"x"}}`))
	require.ErrorIs(t, err, common.ErrDocumentName)
	assert.Empty(t, events.sent)
}

func TestNotifyIsBestEffort(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("channel closed")}
	NotifyCorpusCreated(context.Background(), pub, &common.Corpus{ID: "c1"}, "", "u1")
	NotifyCorpusCreated(context.Background(), nil, &common.Corpus{ID: "c1"}, "", "u1")

	ok := &recordingPublisher{}
	NotifyCorpusCreated(context.Background(), ok, &common.Corpus{ID: "c1"}, "", "u1")
	require.Len(t, ok.sent, 1)

	var ev CorpusCreatedEvent
	require.NoError(t, json.Unmarshal(ok.sent[0].msg.Body, &ev))
	assert.Equal(t, common.RootCorpusID, ev.ParentCorpID)
}

func TestDeadLetterRecordsError(t *testing.T) {
	pub := &recordingPublisher{}
	msg := amqp091.Delivery{Body: []byte("payload"), Headers: amqp091.Table{"trace": "t1"}}

	require.NoError(t, DeadLetter(context.Background(), pub, IngestQueue, msg, errors.New("boom")))
	require.Len(t, pub.sent, 1)
	assert.Equal(t, "ingest_queue_dlq", pub.sent[0].key)
	assert.Equal(t, "boom", pub.sent[0].msg.Headers["x-error"])
	assert.Equal(t, "t1", pub.sent[0].msg.Headers["trace"])
	assert.Equal(t, []byte("payload"), pub.sent[0].msg.Body)
}

type settlement struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (s *settlement) Ack(tag uint64, multiple bool) error {
	s.acked = true
	return nil
}

func (s *settlement) Nack(tag uint64, multiple, requeue bool) error {
	s.nacked, s.requeue = true, requeue
	return nil
}

func (s *settlement) Reject(tag uint64, requeue bool) error {
	return s.Nack(tag, false, requeue)
}

func TestHandleIngestDelivery(t *testing.T) {
	body := []byte(`{"creator_id":"u1","creator_type":"user","document":{"doc_id":"d1","text":"x"}}`)
	boom := common.NewDocumentNameError("d1")

	tests := []struct {
		name       string
		serviceErr error
		publishErr error
		want       settlement
		wantDLQ    bool
	}{
		{"success", nil, nil, settlement{acked: true}, false},
		{"failure is dead lettered", boom, nil, settlement{acked: true}, true},
		{"dead letter publish fails", boom, errors.New("channel closed"), settlement{nacked: true, requeue: false}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &settlement{}
			pub := &recordingPublisher{err: tt.publishErr}
			msg := amqp091.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: body}

			err := HandleIngestDelivery(context.Background(), &fakeService{err: tt.serviceErr}, pub, msg)
			if tt.serviceErr != nil {
				require.ErrorIs(t, err, tt.serviceErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, *ack)

			var dlq bool
			for _, p := range pub.sent {
				dlq = dlq || p.key == DeadLetterQueue(IngestQueue)
			}
			assert.Equal(t, tt.wantDLQ, dlq)
		})
	}
}
