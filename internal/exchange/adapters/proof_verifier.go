package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"vpexchange/internal/exchange/models"
	dErrors "vpexchange/pkg/domain-errors"
	"vpexchange/pkg/platform/circuit"
)

const maxVerifierResponseBytes = 1 << 20

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPProofVerifier calls a VC-API compatible /presentations/verify endpoint.
// Transient failures are retried with exponential backoff; repeated failures
// open a circuit breaker so submissions fail fast while the verifier is down.
type HTTPProofVerifier struct {
	endpoint   string
	client     HTTPDoer
	breaker    *circuit.Breaker
	maxRetries uint64
	backoff    func() backoff.BackOff
	logger     *slog.Logger
}

type ProofVerifierOption func(*HTTPProofVerifier)

func WithHTTPClient(c HTTPDoer) ProofVerifierOption {
	return func(v *HTTPProofVerifier) {
		v.client = c
	}
}

func WithBreaker(b *circuit.Breaker) ProofVerifierOption {
	return func(v *HTTPProofVerifier) {
		v.breaker = b
	}
}

// WithRetries caps retries of transient failures; 0 disables retries.
func WithRetries(n uint64) ProofVerifierOption {
	return func(v *HTTPProofVerifier) {
		v.maxRetries = n
	}
}

// WithBackOff overrides the retry schedule.
func WithBackOff(f func() backoff.BackOff) ProofVerifierOption {
	return func(v *HTTPProofVerifier) {
		v.backoff = f
	}
}

func WithProofVerifierLogger(logger *slog.Logger) ProofVerifierOption {
	return func(v *HTTPProofVerifier) {
		v.logger = logger
	}
}

// NewHTTPProofVerifier creates a client for the verifier at baseURL.
func NewHTTPProofVerifier(baseURL string, timeout time.Duration, opts ...ProofVerifierOption) *HTTPProofVerifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	v := &HTTPProofVerifier{
		endpoint:   baseURL + "/presentations/verify",
		client:     &http.Client{Timeout: timeout},
		breaker:    circuit.New("proof_verifier"),
		maxRetries: 2,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxElapsedTime = timeout
			return b
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type verifyRequest struct {
	VerifiablePresentation *models.Presentation `json:"verifiablePresentation"`
	Options                models.ProofOptions  `json:"options"`
}

// VerifyPresentation implements ports.ProofVerifier.
func (v *HTTPProofVerifier) VerifyPresentation(ctx context.Context, vp *models.Presentation, opts models.ProofOptions) (*models.VerificationResult, error) {
	if !v.breaker.Allow() {
		return nil, dErrors.New(dErrors.CodeUnavailable, "proof verifier unavailable")
	}

	body, err := json.Marshal(verifyRequest{VerifiablePresentation: vp, Options: opts})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to encode presentation")
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(v.backoff(), v.maxRetries), ctx)
	result, err := backoff.RetryWithData(func() (*models.VerificationResult, error) {
		return v.call(ctx, body)
	}, policy)
	if err != nil {
		if change := v.breaker.RecordFailure(); change.Opened {
			v.logger.ErrorContext(ctx, "circuit breaker opened",
				"circuit", v.breaker.Name(),
				"error", err,
			)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "proof verifier request failed")
	}

	if change := v.breaker.RecordSuccess(); change.Closed {
		v.logger.InfoContext(ctx, "circuit breaker closed",
			"circuit", v.breaker.Name(),
		)
	}
	return result, nil
}

// call performs one attempt. Errors wrapped in backoff.Permanent are not retried.
func (v *HTTPProofVerifier) call(ctx context.Context, body []byte) (*models.VerificationResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxVerifierResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("proof verifier returned %d", resp.StatusCode)
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusBadRequest:
		// a failed verification is reported as 400 with a result body
		var result models.VerificationResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return &result, nil
	default:
		return nil, backoff.Permanent(fmt.Errorf("proof verifier returned %d", resp.StatusCode))
	}
}
