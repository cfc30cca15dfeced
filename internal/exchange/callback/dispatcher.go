// Package callback notifies transaction listeners without blocking the submitter.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"vpexchange/internal/exchange/models"
	"vpexchange/internal/exchange/ports"
	dErrors "vpexchange/pkg/domain-errors"
	"vpexchange/pkg/validation"
)

// Delivery outcomes reported to metrics.
const (
	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
	OutcomePublished = "published"
	OutcomeDropped   = "dropped"
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Metrics records callback delivery outcomes.
type Metrics interface {
	IncrementCallbacks(outcome string)
}

// Dispatcher posts transaction events to callback targets in the background.
// Deliveries are best-effort: failures are logged and never retried.
type Dispatcher struct {
	client      HTTPDoer
	publisher   ports.EventPublisher
	metrics     Metrics
	logger      *slog.Logger
	timeout     time.Duration
	concurrency int

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// mu makes the closed check and wg.Add one step relative to Close.
	mu     sync.Mutex
	closed bool
}

type Option func(*Dispatcher)

func WithHTTPClient(c HTTPDoer) Option {
	return func(d *Dispatcher) {
		d.client = c
	}
}

// WithPublisher mirrors every dispatched event to an event stream.
func WithPublisher(p ports.EventPublisher) Option {
	return func(d *Dispatcher) {
		d.publisher = p
	}
}

func WithMetrics(m Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithTimeout bounds each delivery.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithConcurrency caps parallel deliveries per event.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

func New(opts ...Option) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		logger:      slog.Default(),
		timeout:     10 * time.Second,
		concurrency: 8,
		baseCtx:     ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.client == nil {
		d.client = &http.Client{Timeout: d.timeout}
	}
	return d
}

// BuildEvent shapes the public notification for tx and validates it.
// Only contract fields are copied; the recorded holder is not exposed.
func BuildEvent(tx *models.Transaction) (*models.TransactionEvent, error) {
	event := &models.TransactionEvent{
		TransactionID: tx.TransactionID,
		ExchangeID:    tx.ExchangeID,
		VPRequest:     tx.VPRequest,
	}
	if sub := tx.PresentationSubmission; sub != nil {
		event.PresentationSubmission = &models.EventSubmission{
			VerificationResult: sub.VerificationResult,
			VP:                 sub.VP,
		}
	}
	if err := validation.Struct(event); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "invalid callback payload")
	}
	return event, nil
}

// Dispatch delivers event to every target and returns immediately.
// ctx supplies request-scoped values only; its cancellation does not stop delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, targets []models.CallbackTarget, event *models.TransactionEvent) {
	if len(targets) == 0 && d.publisher == nil {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to encode callback payload",
			"error", err,
			"transaction_id", event.TransactionID,
		)
		return
	}

	if !d.track() {
		d.logger.WarnContext(ctx, "dispatcher closed, dropping callbacks",
			"transaction_id", event.TransactionID,
			"targets", len(targets),
		)
		d.record(OutcomeDropped)
		return
	}
	go func() {
		defer d.wg.Done()
		deliverCtx := context.WithoutCancel(ctx)
		d.deliverAll(deliverCtx, targets, event, body)
	}()
}

// track registers one in-flight delivery unless the dispatcher is closed.
func (d *Dispatcher) track() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.wg.Add(1)
	return true
}

func (d *Dispatcher) deliverAll(ctx context.Context, targets []models.CallbackTarget, event *models.TransactionEvent, body []byte) {
	var g errgroup.Group
	g.SetLimit(d.concurrency)

	for _, target := range targets {
		g.Go(func() error {
			if err := d.post(ctx, target.URL, body); err != nil {
				d.logger.WarnContext(ctx, "callback delivery failed",
					"error", err,
					"url", target.URL,
					"exchange_id", event.ExchangeID,
					"transaction_id", event.TransactionID,
				)
				d.record(OutcomeFailed)
				return nil
			}
			d.record(OutcomeDelivered)
			return nil
		})
	}
	if d.publisher != nil {
		g.Go(func() error {
			pubCtx, cancel := d.bounded(ctx)
			defer cancel()
			if err := d.publisher.Publish(pubCtx, event); err != nil {
				d.logger.WarnContext(ctx, "transaction event publish failed",
					"error", err,
					"exchange_id", event.ExchangeID,
					"transaction_id", event.TransactionID,
				)
				d.record(OutcomeFailed)
				return nil
			}
			d.record(OutcomePublished)
			return nil
		})
	}
	_ = g.Wait()
}

func (d *Dispatcher) post(ctx context.Context, url string, body []byte) error {
	ctx, cancel := d.bounded(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback returned %d", resp.StatusCode)
	}
	return nil
}

// bounded applies the delivery timeout and aborts when Close gives up waiting.
func (d *Dispatcher) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	stop := context.AfterFunc(d.baseCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (d *Dispatcher) record(outcome string) {
	if d.metrics != nil {
		d.metrics.IncrementCallbacks(outcome)
	}
}

// Close stops accepting events and waits for in-flight deliveries.
// When ctx expires first, pending deliveries are cancelled.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
