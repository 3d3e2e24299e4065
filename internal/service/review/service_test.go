package review

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaultmeet/vaultmeet/internal/model"
	"github.com/vaultmeet/vaultmeet/internal/repository"
)

func newService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	dbx := sqlx.NewDb(db, "mysql")
	svc := New(
		dbx,
		repository.NewApplicantsRepository(dbx),
		repository.NewNotificationsRepository(dbx),
		repository.NewOutboxRepository(dbx),
	)
	return svc, mock
}

func seekerRow(id, name, email, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "full_name", "email", "age", "location", "bio", "sponsor_type",
		"proof_url", "status", "created_at", "updated_at",
	}).AddRow(id, name, email, 25, "NYC", "hello", "Either", "https://img/x.png", status, now, now)
}

func TestDecideApprovesAndQueuesNotification(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM seekers WHERE id = \\? FOR UPDATE").
		WithArgs("01ID").
		WillReturnRows(seekerRow("01ID", "Jane Doe", "jane@x.com", "pending"))
	mock.ExpectExec("UPDATE seekers SET status = \\?").
		WithArgs("approved", "01ID").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(sqlmock.AnyArg(), "seeker", "01ID", "approval", "jane@x.com", "Jane Doe").
		WillReturnResult(sqlmock.NewResult(1, 1))

	var payload []byte
	mock.ExpectExec("INSERT INTO outbox").
		WithArgs("notification", sqlmock.AnyArg(), EmailKafkaTopic, argCapture{&payload}).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	a, err := svc.Decide(context.Background(), model.KindSeeker, "01ID", model.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, a.Status)
	assert.Equal(t, "jane@x.com", a.Email)

	var env model.Envelope
	require.NoError(t, json.Unmarshal(payload, &env))
	assert.Equal(t, model.TemplateApproval, env.Template)
	assert.Equal(t, "jane@x.com", env.To)
	assert.Equal(t, "Jane Doe", env.Name)
	assert.Equal(t, "01ID", env.ApplicantID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideRejectIsAllowedFromApproved(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM seekers WHERE id = \\? FOR UPDATE").
		WithArgs("01ID").
		WillReturnRows(seekerRow("01ID", "Jane Doe", "jane@x.com", "approved"))
	mock.ExpectExec("UPDATE seekers SET status = \\?").
		WithArgs("rejected", "01ID").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(sqlmock.AnyArg(), "seeker", "01ID", "rejection", "jane@x.com", "Jane Doe").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO outbox").
		WithArgs("notification", sqlmock.AnyArg(), EmailKafkaTopic, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	a, err := svc.Decide(context.Background(), model.KindSeeker, "01ID", model.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, a.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideNotFound(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM sponsors WHERE id = \\? FOR UPDATE").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := svc.Decide(context.Background(), model.KindSponsor, "missing", model.StatusApproved)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideRejectsPendingAsOutcome(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Decide(context.Background(), model.KindSeeker, "01ID", model.StatusPending)
	require.ErrorIs(t, err, ErrInvalidOutcome)
}

func TestDeleteNotFound(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectExec("DELETE FROM seekers WHERE id = \\?").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.Delete(context.Background(), model.KindSeeker, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectQuery("SELECT (.+) FROM seekers ORDER BY created_at DESC LIMIT \\? OFFSET \\?").
		WithArgs(50, 0).
		WillReturnRows(seekerRow("01ID", "Jane Doe", "jane@x.com", "pending"))
	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) AS n FROM seekers GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "n"}).AddRow("pending", 1))

	res, err := svc.List(context.Background(), model.KindSeeker, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, res.Applicants, 1)
	assert.Equal(t, 1, res.Counts.Pending)
	require.NoError(t, mock.ExpectationsWereMet())
}

// argCapture stores the matched driver value for later assertions.
type argCapture struct {
	dst *[]byte
}

func (c argCapture) Match(v driver.Value) bool {
	switch b := v.(type) {
	case []byte:
		*c.dst = b
	case string:
		*c.dst = []byte(b)
	default:
		return false
	}
	return true
}
