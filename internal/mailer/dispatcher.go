package mailer

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/vaultmeet/vaultmeet/internal/config"
	"github.com/vaultmeet/vaultmeet/internal/model"
)

var (
	ErrNoHealthy = fmt.Errorf("no healthy mail providers")
	ErrNoAcquire = fmt.Errorf("mail provider not acquired")
)

// Dispatcher renders a template and sends it through the first healthy
// provider, round-robin, retrying up to maxAttempts across providers.
type Dispatcher struct {
	providers         []Provider
	roundRobinCounter atomic.Uint64
	maxAttempts       int
	from              string
}

func NewDispatcher(provs []Provider, maxAttempts int) *Dispatcher {
	if maxAttempts < 1 {
		maxAttempts = 3
	}

	return &Dispatcher{providers: provs, maxAttempts: maxAttempts}
}

// NewDispatcherFromConfig wires the configured HTTP providers; disabled
// or unconfigured entries are skipped.
func NewDispatcherFromConfig(cfg config.MailConfig) (*Dispatcher, error) {
	var provs []Provider
	for _, pc := range cfg.Providers {
		if !pc.Enabled || strings.TrimSpace(pc.BaseURL) == "" {
			continue
		}
		provs = append(provs,
			NewHTTPProvider(
				pc.Name,
				strings.TrimRight(pc.BaseURL, "/"),
				pc.ApprovalPath,
				pc.RejectionPath,
				pc.TimeoutMs,
				pc.Breaker.FailThreshold,
				pc.Breaker.OpenForMs,
			),
		)
	}
	if len(provs) == 0 {
		return nil, fmt.Errorf("no mail providers enabled in config")
	}
	d := NewDispatcher(provs, cfg.MaxAttempts)
	d.from = cfg.From
	return d, nil
}

func (d *Dispatcher) selectProvider() (Provider, error) {
	healthy := make([]Provider, 0, len(d.providers))
	for _, p := range d.providers {
		if p.Ready() {
			healthy = append(healthy, p)
		}
	}

	if len(healthy) == 0 {
		return nil, ErrNoHealthy
	}

	x := d.roundRobinCounter.Add(1)
	idx := int((x - 1) % uint64(len(healthy)))

	return healthy[idx], nil
}

func (d *Dispatcher) tryOnce(ctx context.Context, tmpl model.Template, mail Email) error {
	p, err := d.selectProvider()
	if err != nil {
		return err
	}

	if !p.Acquire() {
		return ErrNoAcquire
	}

	return p.Send(ctx, tmpl, mail)
}

// Send renders the template for the recipient and dispatches it.
// Returns nil on the first successful delivery.
func (d *Dispatcher) Send(ctx context.Context, tmpl model.Template, to, name string) error {
	mail, err := Render(tmpl, to, name)
	if err != nil {
		return err
	}
	mail.From = d.from

	var last error
	for i := 0; i < d.maxAttempts; i++ {
		if err := d.tryOnce(ctx, tmpl, mail); err == nil {
			return nil
		} else {
			last = err
		}
	}

	if last == nil {
		last = fmt.Errorf("send %s failed", tmpl)
	}

	return last
}
