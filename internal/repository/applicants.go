package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vaultmeet/vaultmeet/internal/model"
)

// ApplicantsRepository persists seeker and sponsor rows. The kind picks
// the backing table; ordering is always created_at DESC and is owned by
// the query, never re-sorted by callers.
type ApplicantsRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, kind model.Kind, a model.Applicant) error
	List(ctx context.Context, kind model.Kind, status model.Status, limit, offset int) ([]model.Applicant, error)
	CountByStatus(ctx context.Context, kind model.Kind) (model.StatusCounts, error)
	GetForUpdate(ctx context.Context, tx *sqlx.Tx, kind model.Kind, id string) (*model.Applicant, error)
	UpdateStatus(ctx context.Context, tx *sqlx.Tx, kind model.Kind, id string, status model.Status) error
	Delete(ctx context.Context, kind model.Kind, id string) (bool, error)
}

type ApplicantsRepositoryImpl struct {
	db *sqlx.DB
}

func NewApplicantsRepository(db *sqlx.DB) *ApplicantsRepositoryImpl {
	return &ApplicantsRepositoryImpl{db: db}
}

var _ ApplicantsRepository = (*ApplicantsRepositoryImpl)(nil)

func (r *ApplicantsRepositoryImpl) withTx(ctx context.Context, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
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

// columns returns the selectable column list for the kind's table.
func columns(kind model.Kind) string {
	if kind == model.KindSponsor {
		return "id, full_name, email, age, location, bio, seeker_type, monthly_budget, proof_url, status, created_at, updated_at"
	}
	return "id, full_name, email, age, location, bio, sponsor_type, proof_url, status, created_at, updated_at"
}

// Insert writes a new application row; status is always pending.
func (r *ApplicantsRepositoryImpl) Insert(ctx context.Context, tx *sqlx.Tx, kind model.Kind, a model.Applicant) error {
	var q string
	var args []any
	if kind == model.KindSponsor {
		q = `
			INSERT INTO sponsors
			    (id, full_name, email, age, location, bio, seeker_type, monthly_budget, proof_url, status, created_at, updated_at)
			VALUES
			    (?,  ?,         ?,     ?,   ?,        ?,   ?,           ?,              ?,         'pending', NOW(), NOW())
		`
		args = []any{a.ID, a.FullName, a.Email, a.Age, a.Location, a.Bio, a.SeekerType, a.MonthlyBudget, a.ProofURL}
	} else {
		q = `
			INSERT INTO seekers
			    (id, full_name, email, age, location, bio, sponsor_type, proof_url, status, created_at, updated_at)
			VALUES
			    (?,  ?,         ?,     ?,   ?,        ?,   ?,            ?,         'pending', NOW(), NOW())
		`
		args = []any{a.ID, a.FullName, a.Email, a.Age, a.Location, a.Bio, a.SponsorType, a.ProofURL}
	}

	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q, args...)
		return err
	})
}

// List returns applications newest first, optionally filtered by status.
func (r *ApplicantsRepositoryImpl) List(ctx context.Context, kind model.Kind, status model.Status, limit, offset int) ([]model.Applicant, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := fmt.Sprintf("SELECT %s FROM %s", columns(kind), kind.Table())
	args := []any{}

	if status != "" {
		q += " WHERE status = ?"
		args = append(args, status.String())
	}

	q += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []model.Applicant
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByStatus returns the dashboard counters in one query.
func (r *ApplicantsRepositoryImpl) CountByStatus(ctx context.Context, kind model.Kind) (model.StatusCounts, error) {
	q := fmt.Sprintf("SELECT status, COUNT(*) AS n FROM %s GROUP BY status", kind.Table())

	rows, err := r.db.QueryxContext(ctx, q)
	if err != nil {
		return model.StatusCounts{}, err
	}
	defer rows.Close()

	var counts model.StatusCounts
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return model.StatusCounts{}, err
		}
		switch model.Status(status) {
		case model.StatusPending:
			counts.Pending = n
		case model.StatusApproved:
			counts.Approved = n
		case model.StatusRejected:
			counts.Rejected = n
		}
	}
	return counts, rows.Err()
}

// GetForUpdate locks the row inside the caller's transaction; returns
// (nil, nil) when the id does not exist.
func (r *ApplicantsRepositoryImpl) GetForUpdate(ctx context.Context, tx *sqlx.Tx, kind model.Kind, id string) (*model.Applicant, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? FOR UPDATE", columns(kind), kind.Table())

	var a model.Applicant
	err := tx.GetContext(ctx, &a, q, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateStatus writes the status column; both tables use the same
// column name.
func (r *ApplicantsRepositoryImpl) UpdateStatus(ctx context.Context, tx *sqlx.Tx, kind model.Kind, id string, status model.Status) error {
	q := fmt.Sprintf("UPDATE %s SET status = ?, updated_at = NOW() WHERE id = ?", kind.Table())

	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q, status.String(), id)
		return err
	})
}

// Delete removes the row unconditionally. Returns false when no row
// matched the id.
func (r *ApplicantsRepositoryImpl) Delete(ctx context.Context, kind model.Kind, id string) (bool, error) {
	q := fmt.Sprintf("DELETE FROM %s WHERE id = ?", kind.Table())

	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
