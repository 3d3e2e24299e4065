package intake

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vaultmeet/vaultmeet/internal/model"
	"github.com/vaultmeet/vaultmeet/internal/repository"
	"github.com/vaultmeet/vaultmeet/internal/upload"
	"github.com/vaultmeet/vaultmeet/internal/util"
	"github.com/vaultmeet/vaultmeet/internal/validate"
)

// ErrUpload marks a proof-upload failure; no record is created.
var ErrUpload = errors.New("proof upload failed")

// ValidationError carries per-field messages back to the form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// Proof is the uploaded payment-proof file.
type Proof struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

// Service runs the intake flow: validate, upload proof, insert one
// pending row. The record only exists once the upload succeeded.
type Service struct {
	applicants repository.ApplicantsRepository
	proofs     upload.Store
}

func New(applicants repository.ApplicantsRepository, proofs upload.Store) *Service {
	return &Service{applicants: applicants, proofs: proofs}
}

// Submit validates the submission and, when the proof upload succeeds,
// creates exactly one pending application. Returns the new record id.
func (s *Service) Submit(ctx context.Context, kind model.Kind, sub validate.Submission, proof Proof) (string, error) {
	parsed, errs := validate.Applicant(kind, sub)
	if proof.Reader == nil {
		errs["proof"] = "Payment proof is required"
	}
	if len(errs) > 0 {
		return "", &ValidationError{Fields: errs}
	}

	proofURL, err := s.proofs.Put(ctx, proof.Filename, proof.ContentType, proof.Reader)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUpload, err)
	}

	a := model.Applicant{
		ID:       util.NewID(),
		FullName: parsed.FullName,
		Email:    parsed.Email,
		Age:      parsed.Age,
		Location: parsed.Location,
		Bio:      parsed.Bio,
		ProofURL: proofURL,
		Status:   model.StatusPending,
	}
	switch kind {
	case model.KindSeeker:
		a.SponsorType = &parsed.SponsorType
	case model.KindSponsor:
		a.SeekerType = &parsed.SeekerType
		a.MonthlyBudget = &parsed.MonthlyBudget
	}

	if err := s.applicants.Insert(ctx, nil, kind, a); err != nil {
		return "", fmt.Errorf("insert applicant: %w", err)
	}

	return a.ID, nil
}
