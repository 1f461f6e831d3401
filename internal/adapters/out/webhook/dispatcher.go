// Package webhook posts committed order transitions to the configured integration
// endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"

	"golang.org/x/sync/errgroup"
)

// ErrUnexpectedStatus is returned when an endpoint answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected webhook response status")

// Payload is the JSON body sent to every endpoint.
type Payload struct {
	OrderID     string    `json:"order_id"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// Dispatcher implements ports.WebhookDispatcher. All endpoints are called in parallel
// and every failure is reported.
type Dispatcher struct {
	urls   []string
	client *http.Client
	clock  func() time.Time
}

// NewDispatcher creates a dispatcher posting to urls. timeout bounds each request.
func NewDispatcher(urls []string, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		urls: urls,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
			},
		},
		clock: time.Now,
	}
}

// Trigger posts the transition to every endpoint. Nothing is sent when no endpoint
// is configured.
func (d *Dispatcher) Trigger(ctx context.Context, orderID kernel.UUID, from, to order.Status) error {
	if len(d.urls) == 0 {
		return nil
	}

	body, err := json.Marshal(Payload{
		OrderID:     orderID.String(),
		From:        from.String(),
		To:          to.String(),
		TriggeredAt: d.clock().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	failures := make([]error, len(d.urls))
	var g errgroup.Group
	for i, url := range d.urls {
		g.Go(func() error {
			failures[i] = d.post(ctx, url, body)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(failures...)
}

func (d *Dispatcher) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook %s: %w", url, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook %s: %w: %d", url, ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}
