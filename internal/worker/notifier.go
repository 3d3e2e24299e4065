package worker

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vaultmeet/vaultmeet/internal/kafka"
	"github.com/vaultmeet/vaultmeet/internal/mailer"
	"github.com/vaultmeet/vaultmeet/internal/metrics"
	"github.com/vaultmeet/vaultmeet/internal/model"
	"github.com/vaultmeet/vaultmeet/internal/repository"
)

// EnvelopeSource is the slice of the Kafka consumer the notifier needs.
type EnvelopeSource interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, m kafka.Message) error
}

// Notifier:
// - fetches notification envelopes from Kafka,
// - renders and sends the decision email via mail providers,
// - batches notification status updates and ClickHouse audit rows.
//
// Delivery is at-least-once; a redelivered envelope sends the same
// fixed email again, which is acceptable for this workload.
type Notifier struct {
	// Dependencies
	DB            *sqlx.DB
	Consumer      EnvelopeSource
	Notifications repository.NotificationsRepository
	Decisions     repository.CHDecisionsRepository
	Dispatch      *mailer.Dispatcher

	// Behavior
	Workers   int           // number of goroutines sending mail
	BatchSize int           // max buffered results per flush
	BatchWait time.Duration // max time to wait before flush
}

// NewNotifier builds a worker with sane defaults.
func NewNotifier(
	db *sqlx.DB,
	consumer EnvelopeSource,
	notifRepo repository.NotificationsRepository,
	decisionsRepo repository.CHDecisionsRepository,
	dispatch *mailer.Dispatcher,
) *Notifier {
	return &Notifier{
		DB:            db,
		Consumer:      consumer,
		Notifications: notifRepo,
		Decisions:     decisionsRepo,
		Dispatch:      dispatch,
		Workers:       16,
		BatchSize:     100,
		BatchWait:     300 * time.Millisecond,
	}
}

// Run starts the worker and blocks until ctx is cancelled.
func (w *Notifier) Run(ctx context.Context) error {
	if w.Workers <= 0 {
		w.Workers = 16
	}
	if w.BatchSize <= 0 {
		w.BatchSize = 100
	}
	if w.BatchWait <= 0 {
		w.BatchWait = 300 * time.Millisecond
	}

	// Channel for worker results → batch writer
	results := make(chan deliveryResult, w.BatchSize*2)

	// Start batch writer; it exits once results is closed
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		w.runBatchWriter(ctx, results)
	}()

	// Fetch loop → fan-out to processors
	msgCh := make(chan kafka.Message, w.Workers*2)

	// Fetcher goroutine
	go func() {
		defer close(msgCh)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				m, err := w.Consumer.Fetch(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Printf("[notifier] kafka fetch err: %v", err)
					time.Sleep(200 * time.Millisecond)
					continue
				}
				select {
				case msgCh <- m:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	// Start processors
	var wg sync.WaitGroup
	for i := 0; i < w.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.runProcessor(ctx, msgCh, results)
		}()
	}

	// Block until shutdown; in-flight deliveries finish before the
	// results channel closes under the batch writer.
	<-ctx.Done()
	wg.Wait()
	close(results)
	<-writerDone
	return nil
}

type deliveryResult struct {
	notificationID string
	kind           model.Kind
	applicantID    string
	template       model.Template
	recipient      string
	delivery       model.NotificationStatus // sent | failed
}

func (w *Notifier) runProcessor(ctx context.Context, in <-chan kafka.Message, out chan<- deliveryResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			w.processOne(ctx, m, out)
		}
	}
}

// processOne parses the envelope, sends the email, emits the result and
// commits the Kafka offset.
func (w *Notifier) processOne(ctx context.Context, m kafka.Message, out chan<- deliveryResult) {
	var env model.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil || env.ID == "" || !env.Template.Valid() {
		_ = w.Consumer.Commit(ctx, m) // poison → commit, skip
		if err != nil {
			log.Printf("[notifier] bad envelope json: %v", err)
		} else {
			log.Printf("[notifier] envelope missing id or template: %s", env.ID)
		}
		return
	}

	derr := w.Dispatch.Send(ctx, env.Template, env.To, env.Name)

	res := deliveryResult{
		notificationID: env.ID,
		kind:           env.ApplicantKind,
		applicantID:    env.ApplicantID,
		template:       env.Template,
		recipient:      env.To,
	}
	if derr == nil {
		metrics.NotificationsTotal.WithLabelValues(env.Template.String(), "sent").Inc()
		res.delivery = model.NotificationSent
	} else {
		log.Printf("[notifier] send %s to %s failed: %v", env.Template, env.To, derr)
		metrics.NotificationsTotal.WithLabelValues(env.Template.String(), "failed").Inc()
		res.delivery = model.NotificationFailed
	}
	out <- res

	// Always commit; a crashed worker redelivers, which only re-sends mail
	if err := w.Consumer.Commit(ctx, m); err != nil {
		log.Printf("[notifier] commit err: %v", err)
	}
}

// runBatchWriter does size/time-based flush of notification statuses
// (MySQL) and decision audit rows (ClickHouse).
func (w *Notifier) runBatchWriter(ctx context.Context, in <-chan deliveryResult) {
	tick := time.NewTicker(w.BatchWait)
	defer tick.Stop()

	var buf []deliveryResult

	flush := func() {
		if len(buf) == 0 {
			return
		}

		sentIDs := make([]string, 0, len(buf))
		failedIDs := make([]string, 0, len(buf))
		audit := make([]model.Decision, 0, len(buf))
		now := time.Now().UTC()

		for _, r := range buf {
			if r.delivery == model.NotificationSent {
				sentIDs = append(sentIDs, r.notificationID)
			} else {
				failedIDs = append(failedIDs, r.notificationID)
			}
			audit = append(audit, model.Decision{
				NotificationID: r.notificationID,
				ApplicantKind:  r.kind,
				ApplicantID:    r.applicantID,
				Outcome:        r.template,
				Recipient:      r.recipient,
				Delivery:       r.delivery.String(),
				DecidedAt:      now,
			})
		}

		tx, err := w.DB.BeginTxx(ctx, nil)
		if err != nil {
			log.Printf("[notifier] begin tx err: %v", err)
			buf = buf[:0]
			return
		}

		ok := true
		if err := w.Notifications.BatchUpdateStatus(ctx, tx, sentIDs, model.NotificationSent); err != nil {
			log.Printf("[notifier] batch update sent err: %v", err)
			ok = false
		}
		if ok {
			if err := w.Notifications.BatchUpdateStatus(ctx, tx, failedIDs, model.NotificationFailed); err != nil {
				log.Printf("[notifier] batch update failed err: %v", err)
				ok = false
			}
		}
		if ok {
			if err := tx.Commit(); err != nil {
				log.Printf("[notifier] tx commit err: %v", err)
				ok = false
			}
		}
		if !ok {
			_ = tx.Rollback()
			buf = buf[:0]
			return
		}

		// Audit log is best-effort and only written once the status TX
		// committed; audit rows must never claim a delivery the
		// notifications table does not reflect.
		if w.Decisions != nil {
			if err := w.Decisions.InsertBatch(ctx, audit); err != nil {
				log.Printf("[notifier] clickhouse audit err: %v", err)
			}
		}

		log.Printf("[notifier] flushed: sent=%d failed=%d", len(sentIDs), len(failedIDs))
		buf = buf[:0]
	}

	for {
		select {
		case r, ok := <-in:
			if !ok {
				// producers are gone; final flush and exit
				flush()
				return
			}
			buf = append(buf, r)
			if len(buf) >= w.BatchSize {
				flush()
			}

		case <-tick.C:
			flush()
		}
	}
}
