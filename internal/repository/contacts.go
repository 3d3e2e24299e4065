package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/vaultmeet/vaultmeet/internal/model"
)

type ContactsRepository interface {
	Insert(ctx context.Context, m model.ContactMessage) error
}

type ContactsRepositoryImpl struct {
	db *sqlx.DB
}

func NewContactsRepository(db *sqlx.DB) *ContactsRepositoryImpl {
	return &ContactsRepositoryImpl{db: db}
}

var _ ContactsRepository = (*ContactsRepositoryImpl)(nil)

func (r *ContactsRepositoryImpl) Insert(ctx context.Context, m model.ContactMessage) error {
	const q = `
		INSERT INTO contact_messages (id, name, email, message, created_at)
		VALUES (?, ?, ?, ?, NOW())
	`
	_, err := r.db.ExecContext(ctx, q, m.ID, m.Name, m.Email, m.Message)
	return err
}
