package model

import (
	"strings"
	"time"
)

// Kind distinguishes the two applicant tables.
type Kind string

const (
	KindSeeker  Kind = "seeker"
	KindSponsor Kind = "sponsor"
)

func (k Kind) String() string { return string(k) }

func (k Kind) Valid() bool {
	return k == KindSeeker || k == KindSponsor
}

// Table returns the backing MySQL table for the kind.
func (k Kind) Table() string {
	if k == KindSponsor {
		return "sponsors"
	}
	return "seekers"
}

// ParseKind accepts singular and plural spellings (route params use plural).
// Returns (value, true) if valid; otherwise (seeker, false).
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "seeker", "seekers":
		return KindSeeker, true
	case "sponsor", "sponsors":
		return KindSponsor, true
	default:
		return KindSeeker, false
	}
}

// Status is the review state of an application.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) String() string { return string(s) }

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Outcome reports whether the status is a valid review decision.
// Pending is a starting state, never a decision.
func (s Status) Outcome() bool {
	return s == StatusApproved || s == StatusRejected
}

// ParseStatus normalizes a status filter value. Empty and "all" mean no filter.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return "", true
	case "pending":
		return StatusPending, true
	case "approved":
		return StatusApproved, true
	case "rejected":
		return StatusRejected, true
	default:
		return "", false
	}
}

// Sponsor/seeker category labels as they appear on the forms.
const (
	CategorySugarDaddy = "Sugar Daddy"
	CategorySugarMummy = "Sugar Mummy"
	CategoryEither     = "Either"
)

// Applicant is a row in seekers or sponsors. SponsorType is set for
// seekers, SeekerType and MonthlyBudget for sponsors; the other side
// stays nil.
type Applicant struct {
	ID            string    `db:"id" json:"id"`
	FullName      string    `db:"full_name" json:"full_name"`
	Email         string    `db:"email" json:"email"`
	Age           int       `db:"age" json:"age"`
	Location      string    `db:"location" json:"location"`
	Bio           string    `db:"bio" json:"bio"`
	SponsorType   *string   `db:"sponsor_type" json:"sponsor_type,omitempty"`
	SeekerType    *string   `db:"seeker_type" json:"seeker_type,omitempty"`
	MonthlyBudget *float64  `db:"monthly_budget" json:"monthly_budget,omitempty"`
	ProofURL      string    `db:"proof_url" json:"proof_url"`
	Status        Status    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StatusCounts backs the dashboard counters.
type StatusCounts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}
