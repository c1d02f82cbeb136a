package worker

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"llm-session-relay/internal/model"
	"llm-session-relay/internal/platform/rabbitmq"
)

type EventWriter interface {
	Create(ctx context.Context, event *model.ExchangeEvent) error
}

// ExchangeAuditWorker consumes exchange events and writes them to the audit
// table. Undecodable or unwritable deliveries are dropped without requeue.
type ExchangeAuditWorker struct {
	conn      *amqp.Connection
	repo      EventWriter
	queueName string
	log       *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewExchangeAuditWorker(conn *amqp.Connection, repo EventWriter, queueName string, log *zap.Logger) *ExchangeAuditWorker {
	return &ExchangeAuditWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
		log:       log.Named("exchange_audit_worker"),
	}
}

func (w *ExchangeAuditWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					w.log.Warn("delivery channel closed")
					return
				}

				if err := w.persist(workerCtx, d.Body); err != nil {
					w.log.Error("persist exchange event failed", zap.String("message_id", d.MessageId), zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	w.log.Info("worker started", zap.String("queue", w.queueName))
	return nil
}

func (w *ExchangeAuditWorker) persist(ctx context.Context, body []byte) error {
	event, err := rabbitmq.DecodeEvent(body)
	if err != nil {
		return err
	}
	return w.repo.Create(ctx, &event)
}

func (w *ExchangeAuditWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
