package model

import "time"

// Template selects which of the two fixed emails goes out.
type Template string

const (
	TemplateApproval  Template = "approval"
	TemplateRejection Template = "rejection"
)

func (t Template) String() string { return string(t) }

func (t Template) Valid() bool {
	return t == TemplateApproval || t == TemplateRejection
}

// TemplateFor maps a review outcome to its notification template.
func TemplateFor(outcome Status) (Template, bool) {
	switch outcome {
	case StatusApproved:
		return TemplateApproval, true
	case StatusRejected:
		return TemplateRejection, true
	default:
		return "", false
	}
}

type NotificationStatus string

const (
	NotificationQueued NotificationStatus = "queued"
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

func (s NotificationStatus) String() string { return string(s) }

func (s NotificationStatus) Valid() bool {
	return s == NotificationQueued || s == NotificationSent || s == NotificationFailed
}

// Notification is a row in the notifications table. Queued by the review
// decision transaction, resolved by the notifier worker.
type Notification struct {
	ID            string             `db:"id"`
	ApplicantKind Kind               `db:"applicant_kind"`
	ApplicantID   string             `db:"applicant_id"`
	Template      Template           `db:"template"`
	Recipient     string             `db:"recipient"`
	RecipientName string             `db:"recipient_name"`
	Status        NotificationStatus `db:"status"`
	Attempts      int                `db:"attempts"`
	CreatedAt     time.Time          `db:"created_at"`
	UpdatedAt     time.Time          `db:"updated_at"`
}

// Envelope is the payload relayed from the outbox to Kafka.
type Envelope struct {
	ID            string   `json:"id"` // notification ULID
	ApplicantKind Kind     `json:"applicant_kind"`
	ApplicantID   string   `json:"applicant_id"`
	Template      Template `json:"template"`
	To            string   `json:"to"`
	Name          string   `json:"name"`
}

// OutboxEvent mirrors the outbox table consumed by the Debezium relay.
type OutboxEvent struct {
	ID          int64     `db:"id"`
	Aggregate   string    `db:"aggregate"`    // e.g. "notification"
	AggregateID string    `db:"aggregate_id"` // notification.ID
	Topic       string    `db:"topic"`
	Payload     []byte    `db:"payload"`
	CreatedAt   time.Time `db:"created_at"`
}
