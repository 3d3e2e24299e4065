package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vaultmeet/vaultmeet/internal/model"
	"github.com/vaultmeet/vaultmeet/internal/repository"
	"github.com/vaultmeet/vaultmeet/internal/util"
)

// EmailKafkaTopic is where the outbox relay publishes notification envelopes.
const EmailKafkaTopic = "notifications.email"

var (
	ErrNotFound       = errors.New("application not found")
	ErrInvalidOutcome = errors.New("invalid review outcome")
)

// ListResult bundles one page of applications with the status counters.
type ListResult struct {
	Applicants []model.Applicant  `json:"results"`
	Counts     model.StatusCounts `json:"counts"`
}

// Service is the administrator review workflow: list/filter, decide
// (approve/reject), delete. A decision atomically updates the status and
// queues the outcome notification; delivery itself is asynchronous and
// can never roll the decision back.
type Service struct {
	db            *sqlx.DB
	applicants    repository.ApplicantsRepository
	notifications repository.NotificationsRepository
	outbox        repository.OutboxRepository
}

func New(
	db *sqlx.DB,
	applicants repository.ApplicantsRepository,
	notifications repository.NotificationsRepository,
	outbox repository.OutboxRepository,
) *Service {
	return &Service{
		db:            db,
		applicants:    applicants,
		notifications: notifications,
		outbox:        outbox,
	}
}

// List returns one page ordered by creation time descending (ordering is
// delegated to the store) plus the counts for the dashboard header.
func (s *Service) List(ctx context.Context, kind model.Kind, status model.Status, limit, offset int) (ListResult, error) {
	apps, err := s.applicants.List(ctx, kind, status, limit, offset)
	if err != nil {
		return ListResult{}, fmt.Errorf("list %s: %w", kind.Table(), err)
	}

	counts, err := s.applicants.CountByStatus(ctx, kind)
	if err != nil {
		return ListResult{}, fmt.Errorf("count %s: %w", kind.Table(), err)
	}

	if apps == nil {
		apps = []model.Applicant{}
	}
	return ListResult{Applicants: apps, Counts: counts}, nil
}

// Decide sets the status to approved or rejected and queues the matching
// notification in the same transaction (status row + notifications row +
// outbox row). The applicant must exist in the store; there is no
// client-cache lookup. Re-applying the current status is a no-op update
// that still queues a notification, matching the store's last-write-wins
// model.
func (s *Service) Decide(ctx context.Context, kind model.Kind, id string, outcome model.Status) (*model.Applicant, error) {
	if !outcome.Outcome() {
		return nil, ErrInvalidOutcome
	}
	tmpl, _ := model.TemplateFor(outcome)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	a, err := s.applicants.GetForUpdate(ctx, tx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("get applicant: %w", err)
	}
	if a == nil {
		return nil, ErrNotFound
	}

	if err := s.applicants.UpdateStatus(ctx, tx, kind, id, outcome); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	notifID := util.NewID()
	n := model.Notification{
		ID:            notifID,
		ApplicantKind: kind,
		ApplicantID:   id,
		Template:      tmpl,
		Recipient:     a.Email,
		RecipientName: a.FullName,
		Status:        model.NotificationQueued,
	}
	if err := s.notifications.InsertQueued(ctx, tx, n); err != nil {
		return nil, fmt.Errorf("queue notification: %w", err)
	}

	env := model.Envelope{
		ID:            notifID,
		ApplicantKind: kind,
		ApplicantID:   id,
		Template:      tmpl,
		To:            a.Email,
		Name:          a.FullName,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	evt := model.OutboxEvent{
		Aggregate:   "notification",
		AggregateID: notifID,
		Topic:       EmailKafkaTopic,
		Payload:     payload,
	}
	if err := s.outbox.Insert(ctx, tx, evt); err != nil {
		return nil, fmt.Errorf("insert outbox: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	a.Status = outcome
	return a, nil
}

// Delete removes the application row unconditionally, from any state.
func (s *Service) Delete(ctx context.Context, kind model.Kind, id string) error {
	found, err := s.applicants.Delete(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("delete applicant: %w", err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}
