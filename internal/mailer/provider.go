package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vaultmeet/vaultmeet/internal/model"
)

// Provider delivers one rendered email. Implementations own their
// health signal; the dispatcher never sends through a provider that
// reports not ready.
type Provider interface {
	Name() string
	Ready() bool
	Acquire() bool
	Send(ctx context.Context, tmpl model.Template, mail Email) error
}

// HTTPProvider posts the rendered email as JSON to a transactional-mail
// endpoint, one fixed path per template kind.
type HTTPProvider struct {
	name          string
	baseURL       string
	approvalPath  string
	rejectionPath string
	client        *http.Client
	br            *MicroBreaker
}

func NewHTTPProvider(
	name, baseURL, approvalPath, rejectionPath string,
	timeoutMs, failThreshold, openForMs int,
) *HTTPProvider {
	if timeoutMs <= 0 {
		timeoutMs = 5000
	}

	if failThreshold <= 0 {
		failThreshold = 3
	}

	if openForMs <= 0 {
		openForMs = 15000
	}

	return &HTTPProvider{
		name:          name,
		baseURL:       baseURL,
		approvalPath:  approvalPath,
		rejectionPath: rejectionPath,
		client:        &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
		br:            NewMicroBreaker(failThreshold, time.Duration(openForMs)*time.Millisecond),
	}
}

func (p *HTTPProvider) Name() string  { return p.name }
func (p *HTTPProvider) Ready() bool   { return p.br.Ready() }
func (p *HTTPProvider) Acquire() bool { return p.br.TryAcquire() }

func (p *HTTPProvider) Send(ctx context.Context, tmpl model.Template, mail Email) error {
	path := p.approvalPath
	if tmpl == model.TemplateRejection {
		path = p.rejectionPath
	}

	if err := p.post(ctx, path, mail); err != nil {
		p.br.OnFailure()
		return err
	}

	p.br.OnSuccess()

	return nil
}

type sendResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (p *HTTPProvider) post(ctx context.Context, path string, mail Email) error {
	b, _ := json.Marshal(mail)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return err
	}

	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return fmt.Errorf("provider=%s path=%s status=%d", p.name, path, res.StatusCode)
	}

	// some endpoints answer 200 with {"success":false,...}
	var out sendResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err == nil && !out.Success {
		return fmt.Errorf("provider=%s path=%s rejected: %s", p.name, path, out.Error)
	}

	return nil
}
