package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/vaultmeet/vaultmeet/internal/model"
)

// CHDecisionsRepository is the ClickHouse-backed review audit log.
// Rows are written by the notifier worker flush and read by the admin
// reports endpoint.
type CHDecisionsRepository interface {
	InsertBatch(ctx context.Context, rows []model.Decision) error
	List(ctx context.Context, kind model.Kind, outcome model.Template, limit, offset int) ([]model.Decision, error)
}

type chDecisionsRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewCHDecisionsRepository(ch *sqlx.DB) CHDecisionsRepository {
	return &chDecisionsRepository{ch: ch}
}

func (r *chDecisionsRepository) InsertBatch(ctx context.Context, rows []model.Decision) error {
	if len(rows) == 0 {
		return nil
	}

	const q = `
		INSERT INTO vaultmeet.decisions
		    (notification_id, applicant_kind, applicant_id, outcome, recipient, delivery, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	tx, err := r.ch.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, d := range rows {
		if _, err := tx.ExecContext(ctx, q,
			d.NotificationID, d.ApplicantKind.String(), d.ApplicantID,
			d.Outcome.String(), d.Recipient, d.Delivery, d.DecidedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *chDecisionsRepository) List(ctx context.Context, kind model.Kind, outcome model.Template, limit, offset int) ([]model.Decision, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT notification_id, applicant_kind, applicant_id, outcome, recipient, delivery, decided_at
		FROM vaultmeet.decisions
		WHERE 1 = 1
	`
	args := []any{}

	if kind != "" {
		q += " AND applicant_kind = ?"
		args = append(args, kind.String())
	}
	if outcome != "" {
		q += " AND outcome = ?"
		args = append(args, outcome.String())
	}

	q += " ORDER BY decided_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []model.Decision
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
