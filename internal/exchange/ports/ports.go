//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks ProofVerifier,PresentationEvaluator,EventPublisher

// Package ports defines the external collaborators consumed by the exchange engine.
package ports

import (
	"context"

	"vpexchange/internal/exchange/models"
)

// ProofVerifier checks the cryptographic proof of a presentation.
type ProofVerifier interface {
	VerifyPresentation(ctx context.Context, vp *models.Presentation, opts models.ProofOptions) (*models.VerificationResult, error)
}

// PresentationEvaluator matches a presentation against a presentation definition.
// A returned error means the evaluation itself could not run (malformed
// definition or presentation), not that constraints were unmet.
type PresentationEvaluator interface {
	Evaluate(ctx context.Context, def models.PresentationDefinition, vp *models.Presentation) (*models.EvaluationResult, error)
}

// EventPublisher emits transaction events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, event *models.TransactionEvent) error
}
