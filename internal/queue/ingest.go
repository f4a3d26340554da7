package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/OFFIS-RIT/papertext/backend/pkg/docs"
	"github.com/OFFIS-RIT/papertext/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// IngestJob is the ingest_queue payload: one createDocument call deferred to
// the worker.
type IngestJob struct {
	CreatorID   string                    `json:"creator_id"`
	CreatorType string                    `json:"creator_type"`
	Document    docs.CreateDocumentParams `json:"document"`
}

func (j IngestJob) Params() docs.CreateDocumentParams {
	params := j.Document
	params.CreatorID = j.CreatorID
	params.CreatorType = j.CreatorType
	return params
}

func EnqueueIngest(ctx context.Context, pub Publisher, job IngestJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return PublishFIFO(ctx, pub, IngestQueue, data)
}

// ProcessIngestMessage runs the createDocument call carried by body and
// announces the document on success.
func ProcessIngestMessage(ctx context.Context, svc docs.Service, events Publisher, body []byte) error {
	var job IngestJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("decode ingest job: %w", err)
	}

	logger.Info("[Queue][Ingest] Processing document", "doc_id", job.Document.DocID, "creator_id", job.CreatorID)

	doc, err := svc.CreateDocument(ctx, job.Params())
	if err != nil {
		return err
	}

	NotifyDocumentCreated(ctx, events, doc, job.CreatorID)
	return nil
}

// DeadLetter moves msg to the dead letter queue of queueName with the failure
// recorded in the x-error header. Ingestion is not retried.
func DeadLetter(ctx context.Context, pub Publisher, queueName string, msg amqp091.Delivery, cause error) error {
	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["x-error"] = cause.Error()

	return pub.PublishWithContext(ctx, "", DeadLetterQueue(queueName), false, false, amqp091.Publishing{
		ContentType:  msg.ContentType,
		Body:         msg.Body,
		Headers:      headers,
		DeliveryMode: amqp091.Persistent,
	})
}

// HandleIngestDelivery processes one ingest_queue delivery and settles it.
// Failed jobs go to the dead letter queue; when that publish fails too the
// delivery is dropped with a nack so the broker never redelivers it.
func HandleIngestDelivery(ctx context.Context, svc docs.Service, pub Publisher, msg amqp091.Delivery) error {
	processingErr := ProcessIngestMessage(ctx, svc, pub, msg.Body)
	if processingErr != nil {
		logger.Error("[Queue][Ingest] Error processing message", "queue", IngestQueue, "err", processingErr)
		if err := DeadLetter(ctx, pub, IngestQueue, msg, processingErr); err != nil {
			logger.Error("[Queue][Ingest] Failed to publish to DLQ", "err", err)
			if nackErr := msg.Nack(false, false); nackErr != nil {
				logger.Error("[Queue][Ingest] Failed to nack message", "err", nackErr)
			}
			return processingErr
		}
	}

	if err := msg.Ack(false); err != nil {
		logger.Error("[Queue][Ingest] Failed to ack message", "err", err)
	}
	return processingErr
}
