package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaultmeet/vaultmeet/internal/kafka"
	"github.com/vaultmeet/vaultmeet/internal/mailer"
	"github.com/vaultmeet/vaultmeet/internal/model"
	"github.com/vaultmeet/vaultmeet/internal/repository"
)

type fakeSource struct {
	msgs chan kafka.Message

	mu        sync.Mutex
	committed int
}

func (f *fakeSource) Fetch(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case m, ok := <-f.msgs:
		if !ok {
			<-ctx.Done()
			return kafka.Message{}, ctx.Err()
		}
		return m, nil
	}
}

func (f *fakeSource) Commit(context.Context, kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed++
	return nil
}

func (f *fakeSource) commits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.committed
}

type stubProvider struct {
	err error

	mu   sync.Mutex
	sent []mailer.Email
}

func (p *stubProvider) Name() string  { return "stub" }
func (p *stubProvider) Ready() bool   { return true }
func (p *stubProvider) Acquire() bool { return true }

func (p *stubProvider) Send(_ context.Context, _ model.Template, mail mailer.Email) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, mail)
	return p.err
}

type captureDecisions struct {
	mu   sync.Mutex
	rows []model.Decision
}

func (c *captureDecisions) InsertBatch(_ context.Context, rows []model.Decision) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = append(c.rows, rows...)
	return nil
}

func (c *captureDecisions) List(context.Context, model.Kind, model.Template, int, int) ([]model.Decision, error) {
	return nil, nil
}

func (c *captureDecisions) snapshot() []model.Decision {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Decision, len(c.rows))
	copy(out, c.rows)
	return out
}

func envelopeMsg(t *testing.T, env model.Envelope) kafka.Message {
	t.Helper()
	b, err := json.Marshal(env)
	require.NoError(t, err)
	return kafka.Message{Value: b}
}

func TestNotifierDeliversAndFlushes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	dbx := sqlx.NewDb(db, "mysql")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE notifications SET status = (.+) WHERE id IN").
		WithArgs("sent", "N1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE notifications SET status = (.+) WHERE id IN").
		WithArgs("failed", "N2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	src := &fakeSource{msgs: make(chan kafka.Message, 4)}
	provider := &stubProvider{}
	decisions := &captureDecisions{}

	w := NewNotifier(dbx, src, repository.NewNotificationsRepository(dbx), decisions,
		mailer.NewDispatcher([]mailer.Provider{provider}, 1))
	w.Workers = 1
	w.BatchSize = 2
	w.BatchWait = time.Hour // force size-based flush

	src.msgs <- envelopeMsg(t, model.Envelope{
		ID: "N1", ApplicantKind: model.KindSeeker, ApplicantID: "A1",
		Template: model.TemplateApproval, To: "jane@x.com", Name: "Jane Doe",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() { _ = w.Run(ctx); close(done) }()

	// First delivery succeeds; second one fails at the provider.
	require.Eventually(t, func() bool { return src.commits() == 1 }, 2*time.Second, 10*time.Millisecond)
	provider.mu.Lock()
	provider.err = errors.New("smtp relay down")
	provider.mu.Unlock()

	src.msgs <- envelopeMsg(t, model.Envelope{
		ID: "N2", ApplicantKind: model.KindSponsor, ApplicantID: "A2",
		Template: model.TemplateRejection, To: "bob@x.com", Name: "Bob",
	})

	require.Eventually(t, func() bool { return len(decisions.snapshot()) == 2 }, 2*time.Second, 10*time.Millisecond)

	rows := decisions.snapshot()
	assert.Equal(t, "N1", rows[0].NotificationID)
	assert.Equal(t, "sent", rows[0].Delivery)
	assert.Equal(t, model.TemplateApproval, rows[0].Outcome)
	assert.Equal(t, "N2", rows[1].NotificationID)
	assert.Equal(t, "failed", rows[1].Delivery)

	provider.mu.Lock()
	require.Len(t, provider.sent, 2)
	assert.Equal(t, "jane@x.com", provider.sent[0].To)
	assert.Equal(t, mailer.SubjectApproval, provider.sent[0].Subject)
	provider.mu.Unlock()

	cancel()
	<-done
	require.NoError(t, mock.ExpectationsWereMet())
}

// blockingProvider parks Send until released so shutdown can race an
// in-flight delivery.
type blockingProvider struct {
	started chan struct{}
	release chan struct{}
}

func (p *blockingProvider) Name() string  { return "blocking" }
func (p *blockingProvider) Ready() bool   { return true }
func (p *blockingProvider) Acquire() bool { return true }

func (p *blockingProvider) Send(context.Context, model.Template, mailer.Email) error {
	close(p.started)
	<-p.release
	return nil
}

func TestNotifierShutdownWaitsForInFlightDelivery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	dbx := sqlx.NewDb(db, "mysql")
	mock.MatchExpectationsInOrder(false)

	src := &fakeSource{msgs: make(chan kafka.Message, 1)}
	provider := &blockingProvider{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}

	w := NewNotifier(dbx, src, repository.NewNotificationsRepository(dbx), &captureDecisions{},
		mailer.NewDispatcher([]mailer.Provider{provider}, 1))
	w.Workers = 1
	w.BatchWait = time.Hour

	src.msgs <- envelopeMsg(t, model.Envelope{
		ID: "N1", ApplicantKind: model.KindSeeker, ApplicantID: "A1",
		Template: model.TemplateApproval, To: "jane@x.com", Name: "Jane Doe",
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { _ = w.Run(ctx); close(done) }()

	<-provider.started
	cancel()

	// the delivery is still in flight; Run must not return yet
	select {
	case <-done:
		t.Fatal("worker returned with a delivery in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(provider.release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not shut down after the delivery finished")
	}
	assert.Equal(t, 1, src.commits())
}

func TestNotifierAuditSkippedWhenStatusFlushFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	dbx := sqlx.NewDb(db, "mysql")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE notifications SET status = (.+) WHERE id IN").
		WithArgs("sent", "N1").
		WillReturnError(errors.New("mysql gone away"))
	mock.ExpectRollback()

	src := &fakeSource{msgs: make(chan kafka.Message, 1)}
	provider := &stubProvider{}
	decisions := &captureDecisions{}

	w := NewNotifier(dbx, src, repository.NewNotificationsRepository(dbx), decisions,
		mailer.NewDispatcher([]mailer.Provider{provider}, 1))
	w.Workers = 1
	w.BatchSize = 1
	w.BatchWait = time.Hour

	src.msgs <- envelopeMsg(t, model.Envelope{
		ID: "N1", ApplicantKind: model.KindSeeker, ApplicantID: "A1",
		Template: model.TemplateApproval, To: "jane@x.com", Name: "Jane Doe",
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { _ = w.Run(ctx); close(done) }()

	require.Eventually(t, func() bool { return mock.ExpectationsWereMet() == nil }, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, decisions.snapshot())

	cancel()
	<-done
}

func TestNotifierSkipsPoisonMessage(t *testing.T) {
	src := &fakeSource{msgs: make(chan kafka.Message, 1)}
	provider := &stubProvider{}

	w := NewNotifier(nil, src, nil, nil,
		mailer.NewDispatcher([]mailer.Provider{provider}, 1))
	w.Workers = 1

	src.msgs <- kafka.Message{Value: []byte("{not json")}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { _ = w.Run(ctx); close(done) }()

	require.Eventually(t, func() bool { return src.commits() == 1 }, 2*time.Second, 10*time.Millisecond)
	provider.mu.Lock()
	assert.Empty(t, provider.sent)
	provider.mu.Unlock()

	cancel()
	<-done
}
