package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/vaultmeet/vaultmeet/internal/model"
)

// NotificationsRepository persists the notifications table: queued by
// the review decision transaction, resolved by the notifier worker.
type NotificationsRepository interface {
	InsertQueued(ctx context.Context, tx *sqlx.Tx, n model.Notification) error
	BatchUpdateStatus(ctx context.Context, tx *sqlx.Tx, ids []string, status model.NotificationStatus) error
}

type NotificationsRepositoryImpl struct {
	db *sqlx.DB
}

func NewNotificationsRepository(db *sqlx.DB) *NotificationsRepositoryImpl {
	return &NotificationsRepositoryImpl{db: db}
}

var _ NotificationsRepository = (*NotificationsRepositoryImpl)(nil)

func (r *NotificationsRepositoryImpl) withTx(ctx context.Context, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
	if tx != nil {
		return fn(tx)
	}
	t, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = t.Rollback() }()
	if err := fn(t); err != nil {
		return err
	}
	return t.Commit()
}

// InsertQueued inserts a new notification row with status=queued.
func (r *NotificationsRepositoryImpl) InsertQueued(ctx context.Context, tx *sqlx.Tx, n model.Notification) error {
	const q = `
		INSERT INTO notifications
		    (id, applicant_kind, applicant_id, template, recipient, recipient_name, status, attempts, created_at, updated_at)
		VALUES
		    (?,  ?,              ?,            ?,        ?,         ?,              'queued', 0,      NOW(),      NOW())
	`
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q,
			n.ID, n.ApplicantKind.String(), n.ApplicantID, n.Template.String(), n.Recipient, n.RecipientName,
		)
		return err
	})
}

// BatchUpdateStatus resolves many notifications with a single statement,
// bumping the attempt counter as it goes.
func (r *NotificationsRepositoryImpl) BatchUpdateStatus(ctx context.Context, tx *sqlx.Tx, ids []string, status model.NotificationStatus) error {
	if len(ids) == 0 {
		return nil
	}
	const base = `UPDATE notifications SET status = ?, attempts = attempts + 1, updated_at = NOW() WHERE id IN (?)`
	query, args, err := sqlx.In(base, status, ids)
	if err != nil {
		return err
	}
	query = r.db.Rebind(query)

	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	})
}
