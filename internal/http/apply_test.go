package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmoiron/sqlx"
	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaultmeet/vaultmeet/internal/model"
	"github.com/vaultmeet/vaultmeet/internal/service/intake"
)

type fakeStore struct {
	url string
	err error
}

func (f *fakeStore) Put(_ context.Context, _ string, _ string, _ io.Reader) (string, error) {
	return f.url, f.err
}

type fakeApplicants struct {
	inserted []model.Applicant
}

func (f *fakeApplicants) Insert(_ context.Context, _ *sqlx.Tx, _ model.Kind, a model.Applicant) error {
	f.inserted = append(f.inserted, a)
	return nil
}

func (f *fakeApplicants) List(context.Context, model.Kind, model.Status, int, int) ([]model.Applicant, error) {
	return nil, nil
}

func (f *fakeApplicants) CountByStatus(context.Context, model.Kind) (model.StatusCounts, error) {
	return model.StatusCounts{}, nil
}

func (f *fakeApplicants) GetForUpdate(context.Context, *sqlx.Tx, model.Kind, string) (*model.Applicant, error) {
	return nil, nil
}

func (f *fakeApplicants) UpdateStatus(context.Context, *sqlx.Tx, model.Kind, string, model.Status) error {
	return nil
}

func (f *fakeApplicants) Delete(context.Context, model.Kind, string) (bool, error) {
	return false, nil
}

func seekerForm(t *testing.T, fields map[string]string, withProof bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if withProof {
		fw, err := mw.CreateFormFile("payment_proof", "receipt.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("png-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func janeFields() map[string]string {
	return map[string]string{
		"full_name":    "Jane Doe",
		"email":        "jane@x.com",
		"age":          "25",
		"location":     "NYC",
		"bio":          "hello",
		"sponsor_type": "Either",
	}
}

func doApply(t *testing.T, h echo.HandlerFunc, kind string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/applications/"+kind, body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("kind")
	c.SetParamValues(kind)
	require.NoError(t, h(c))
	return rec
}

func TestApplySeekerCreated(t *testing.T) {
	repo := &fakeApplicants{}
	svc := intake.New(repo, &fakeStore{url: "https://img/x.png"})

	body, ct := seekerForm(t, janeFields(), true)
	rec := doApply(t, applyHandler(svc), "seeker", body, ct)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["submitted"])
	assert.Equal(t, "seeker", resp["kind"])
	assert.Equal(t, "pending", resp["status"])
	assert.NotEmpty(t, resp["id"])

	require.Len(t, repo.inserted, 1)
	assert.Equal(t, "Jane Doe", repo.inserted[0].FullName)
	assert.Equal(t, "https://img/x.png", repo.inserted[0].ProofURL)
	assert.Equal(t, model.StatusPending, repo.inserted[0].Status)
}

func TestApplyValidationErrors(t *testing.T) {
	repo := &fakeApplicants{}
	svc := intake.New(repo, &fakeStore{url: "https://img/x.png"})

	fields := janeFields()
	fields["age"] = "17"
	delete(fields, "location")
	body, ct := seekerForm(t, fields, true)
	rec := doApply(t, applyHandler(svc), "seeker", body, ct)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, "age")
	assert.Contains(t, resp.Errors, "location")
	assert.Empty(t, repo.inserted)
}

func TestApplyMissingProof(t *testing.T) {
	repo := &fakeApplicants{}
	svc := intake.New(repo, &fakeStore{url: "https://img/x.png"})

	body, ct := seekerForm(t, janeFields(), false)
	rec := doApply(t, applyHandler(svc), "seeker", body, ct)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, "proof")
}

func TestApplyUploadFailure(t *testing.T) {
	repo := &fakeApplicants{}
	svc := intake.New(repo, &fakeStore{err: errors.New("image host down")})

	body, ct := seekerForm(t, janeFields(), true)
	rec := doApply(t, applyHandler(svc), "seeker", body, ct)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Empty(t, repo.inserted)
}

func TestApplyUnknownKind(t *testing.T) {
	svc := intake.New(&fakeApplicants{}, &fakeStore{url: "https://img/x.png"})

	body, ct := seekerForm(t, janeFields(), true)
	rec := doApply(t, applyHandler(svc), "partners", body, ct)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplySponsorBudgetRequired(t *testing.T) {
	repo := &fakeApplicants{}
	svc := intake.New(repo, &fakeStore{url: "https://img/x.png"})

	fields := janeFields()
	delete(fields, "sponsor_type")
	fields["seeker_type"] = "Sugar Mummy"
	fields["monthly_budget"] = "0"
	body, ct := seekerForm(t, fields, true)
	rec := doApply(t, applyHandler(svc), "sponsor", body, ct)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, "monthly_budget")
	assert.Empty(t, repo.inserted)
}
