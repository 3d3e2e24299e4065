package model

import "time"

// Decision is an append-only audit row in ClickHouse covering a review
// decision and the fate of its notification.
type Decision struct {
	NotificationID string    `db:"notification_id" json:"notification_id"`
	ApplicantKind  Kind      `db:"applicant_kind" json:"applicant_kind"`
	ApplicantID    string    `db:"applicant_id" json:"applicant_id"`
	Outcome        Template  `db:"outcome" json:"outcome"` // approval|rejection
	Recipient      string    `db:"recipient" json:"recipient"`
	Delivery       string    `db:"delivery" json:"delivery"` // sent|failed
	DecidedAt      time.Time `db:"decided_at" json:"decided_at"`
}
