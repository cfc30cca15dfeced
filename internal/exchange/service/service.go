package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store CallbackDispatcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"vpexchange/internal/exchange/callback"
	"vpexchange/internal/exchange/metrics"
	"vpexchange/internal/exchange/models"
	"vpexchange/internal/exchange/store"
	"vpexchange/internal/platform/tracer"
	dErrors "vpexchange/pkg/domain-errors"
	"vpexchange/pkg/platform/sentinel"
)

const outcomeForbidden = "forbidden"

// Store defines the persistence the service needs.
// Error Contract:
// - Find* and UpdateTransaction return sentinel.ErrNotFound when no record exists
// - Create* return sentinel.ErrConflict when the id is taken
type Store interface {
	CreateExchange(ctx context.Context, def *models.ExchangeDefinition) error
	FindExchange(ctx context.Context, exchangeID string) (*models.ExchangeDefinition, error)
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	FindTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, transactionID string, fn store.Mutator) (*models.Transaction, error)
}

// CallbackDispatcher delivers transaction events without blocking the caller.
type CallbackDispatcher interface {
	Dispatch(ctx context.Context, targets []models.CallbackTarget, event *models.TransactionEvent)
}

type Option func(*Service)

// Service orchestrates exchange definitions and their transactions.
type Service struct {
	store     Store
	verifier  models.Verifier
	callbacks CallbackDispatcher
	baseURL   string
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    tracer.Tracer
	now       func() time.Time
}

// New builds a Service. baseURL prefixes the service endpoints handed to holders.
func New(store Store, verifier models.Verifier, callbacks CallbackDispatcher, baseURL string, opts ...Option) *Service {
	svc := &Service{
		store:     store,
		verifier:  verifier,
		callbacks: callbacks,
		baseURL:   baseURL,
		logger:    slog.Default(),
		tracer:    tracer.NewNoop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics instance for the service
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithClock overrides time.Now for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// CreateExchange registers a new exchange definition.
func (s *Service) CreateExchange(ctx context.Context, req *models.CreateExchangeRequest) (*models.ExchangeDefinition, error) {
	def, err := models.NewExchangeDefinition(
		req.ExchangeID,
		req.InteractServices,
		req.Query,
		req.IsOneTime,
		req.Callback,
		s.now(),
	)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateExchange(ctx, def); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "exchange already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save exchange")
	}

	s.logger.InfoContext(ctx, "exchange created",
		"exchange_id", def.ExchangeID,
		"interact_type", def.InteractServices[0].Type,
		"one_time", def.IsOneTime,
	)
	if s.metrics != nil {
		s.metrics.IncrementExchangesCreated(string(def.InteractServices[0].Type))
	}
	return def, nil
}

func (s *Service) GetExchange(ctx context.Context, exchangeID string) (*models.ExchangeDefinition, error) {
	def, err := s.store.FindExchange(ctx, exchangeID)
	if err != nil {
		return nil, translateFindError(err, "exchange")
	}
	return def, nil
}

// StartExchange opens a transaction and returns the VP request for the holder.
func (s *Service) StartExchange(ctx context.Context, exchangeID string) (resp *models.ExchangeResponse, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanStartExchange, tracer.String("exchange_id", exchangeID))
	defer func() { span.End(err) }()

	def, err := s.store.FindExchange(ctx, exchangeID)
	if err != nil {
		return nil, translateFindError(err, "exchange")
	}

	tx := def.Start(s.baseURL, s.now())
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "one-time exchange already started")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "exchange not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save transaction")
		}
	}

	span.SetAttributes(tracer.String("transaction_id", tx.TransactionID))
	s.logger.InfoContext(ctx, "transaction started",
		"exchange_id", exchangeID,
		"transaction_id", tx.TransactionID,
	)
	if s.metrics != nil {
		s.metrics.IncrementTransactionsStarted(string(tx.VPRequest.InteractType()))
	}
	return &models.ExchangeResponse{
		Errors:    []string{},
		VPRequest: &tx.VPRequest,
	}, nil
}

// ContinueExchange verifies a holder submission, advances the transaction and
// dispatches callbacks once the new state is durable.
func (s *Service) ContinueExchange(ctx context.Context, exchangeID, transactionID string, vp *models.Presentation) (resp *models.ExchangeResponse, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanContinueExchange,
		tracer.String("exchange_id", exchangeID),
		tracer.String("transaction_id", transactionID),
	)
	defer func() { span.End(err) }()

	verifier := timedVerifier{inner: s.verifier, metrics: s.metrics}
	var result models.ProcessResult
	tx, err := s.store.UpdateTransaction(ctx, transactionID, func(t *models.Transaction) (bool, error) {
		if t.ExchangeID != exchangeID {
			return false, sentinel.ErrNotFound
		}
		r, err := t.ProcessPresentation(ctx, vp, verifier, s.now())
		if err != nil {
			return false, err
		}
		result = r
		return r.Changed, nil
	})
	if err != nil {
		return nil, s.translateProcessError(ctx, err, exchangeID, transactionID)
	}

	span.SetAttributes(tracer.String("outcome", string(result.Outcome)))
	s.logger.InfoContext(ctx, "presentation processed",
		"exchange_id", exchangeID,
		"transaction_id", transactionID,
		"outcome", result.Outcome,
		"changed", result.Changed,
	)
	if s.metrics != nil {
		s.metrics.IncrementSubmissions(string(result.Outcome))
	}

	if result.Outcome == models.OutcomeCompleted || result.Changed {
		event, err := callback.BuildEvent(tx)
		if err != nil {
			s.logger.ErrorContext(ctx, "callback payload rejected",
				"error", err,
				"exchange_id", exchangeID,
				"transaction_id", transactionID,
			)
			return nil, err
		}
		s.callbacks.Dispatch(ctx, result.Callback, event)
	}

	return &result.Response, nil
}

func (s *Service) translateProcessError(ctx context.Context, err error, exchangeID, transactionID string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "transaction not found")
	case errors.Is(err, models.ErrTransactionDIDForbidden):
		s.logger.WarnContext(ctx, "presentation holder rejected",
			"exchange_id", exchangeID,
			"transaction_id", transactionID,
		)
		if s.metrics != nil {
			s.metrics.IncrementSubmissions(outcomeForbidden)
		}
		return err
	case dErrors.HasCode(err, dErrors.CodeBadRequest):
		return err
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "transaction is being updated, retry")
	default:
		s.logger.ErrorContext(ctx, "failed to process presentation",
			"error", err,
			"exchange_id", exchangeID,
			"transaction_id", transactionID,
		)
		return dErrors.Recode(err, dErrors.CodeInternal, "failed to process presentation")
	}
}

// GetTransaction returns the full transaction state for the issuer side.
func (s *Service) GetTransaction(ctx context.Context, exchangeID, transactionID string) (*models.Transaction, error) {
	tx, err := s.store.FindTransaction(ctx, transactionID)
	if err != nil {
		return nil, translateFindError(err, "transaction")
	}
	if tx.ExchangeID != exchangeID {
		return nil, dErrors.New(dErrors.CodeNotFound, "transaction not found")
	}
	return tx, nil
}

// AddReview records the reviewer decision on a mediated transaction.
func (s *Service) AddReview(ctx context.Context, exchangeID, transactionID string, req *models.ReviewRequest) (tx *models.Transaction, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanAddReview,
		tracer.String("exchange_id", exchangeID),
		tracer.String("transaction_id", transactionID),
		tracer.String("result", string(req.Result)),
	)
	defer func() { span.End(err) }()

	tx, err = s.store.UpdateTransaction(ctx, transactionID, func(t *models.Transaction) (bool, error) {
		if t.ExchangeID != exchangeID {
			return false, sentinel.ErrNotFound
		}
		if err := t.AddReview(req.Result, req.VP, s.now()); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		var domainErr *dErrors.Error
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "transaction not found")
		case errors.As(err, &domainErr):
			return nil, err
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "transaction is being updated, retry")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save review")
		}
	}

	s.logger.InfoContext(ctx, "presentation reviewed",
		"exchange_id", exchangeID,
		"transaction_id", transactionID,
		"result", req.Result,
		"vp_attached", req.VP != nil,
	)
	if s.metrics != nil {
		s.metrics.IncrementReviews(string(req.Result))
	}
	return tx, nil
}

func translateFindError(err error, kind string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, kind+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read "+kind)
}

// timedVerifier observes verification latency.
type timedVerifier struct {
	inner   models.Verifier
	metrics *metrics.Metrics
}

func (v timedVerifier) Verify(ctx context.Context, vp *models.Presentation, req models.VPRequest) models.VerificationResult {
	start := time.Now()
	result := v.inner.Verify(ctx, vp, req)
	if v.metrics != nil {
		v.metrics.ObserveVerificationLatency(time.Since(start).Seconds())
	}
	return result
}
