// Package verifier checks holder submissions against the VP request they answer.
package verifier

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"vpexchange/internal/exchange/models"
	"vpexchange/internal/exchange/ports"
	"vpexchange/internal/platform/tracer"
)

// Error messages returned to the holder.
const (
	ErrProofNotSuccessful   = "verification of presentation proof not successful"
	ErrChallengeMismatch    = "Challenge does not match"
	ErrHolderRequired       = "Presentation holder is required for didAuth query"
	ErrUnknownQueryType     = "Unknown request query type"
	definitionFailureFormat = "Presentation definition (%d) validation failed, reason: %s"
	unknownReason           = "Unknown"
	proofCheck              = "proof"
)

// SubmissionVerifier accumulates proof and structural errors for a submission.
// It holds no state between calls.
type SubmissionVerifier struct {
	proofs    ports.ProofVerifier
	evaluator ports.PresentationEvaluator
	logger    *slog.Logger
	tracer    tracer.Tracer
}

type Option func(*SubmissionVerifier)

func WithLogger(logger *slog.Logger) Option {
	return func(v *SubmissionVerifier) {
		v.logger = logger
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(v *SubmissionVerifier) {
		v.tracer = t
	}
}

func New(proofs ports.ProofVerifier, evaluator ports.PresentationEvaluator, opts ...Option) *SubmissionVerifier {
	v := &SubmissionVerifier{
		proofs:    proofs,
		evaluator: evaluator,
		logger:    slog.Default(),
		tracer:    tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify implements models.Verifier.
func (v *SubmissionVerifier) Verify(ctx context.Context, vp *models.Presentation, req models.VPRequest) models.VerificationResult {
	ctx, span := v.tracer.Start(ctx, tracer.SpanVerifySubmission)
	result := models.NewVerificationResult()
	defer func() {
		span.SetAttributes(tracer.Int(tracer.AttrErrorCount, len(result.Errors)))
		span.End(nil)
	}()

	checks, proofErrs := v.verifyProof(ctx, vp, req.Challenge)
	result.Checks = checks
	result.Errors = append(result.Errors, proofErrs...)

	if vp.Challenge() != req.Challenge {
		result.Errors = append(result.Errors, ErrChallengeMismatch)
	}

	for _, q := range req.Query {
		result.Errors = append(result.Errors, v.checkQuery(ctx, vp, q)...)
	}
	return result
}

func (v *SubmissionVerifier) verifyProof(ctx context.Context, vp *models.Presentation, challenge string) ([]string, []string) {
	ctx, span := v.tracer.Start(ctx, tracer.SpanProofVerify)
	res, err := v.proofs.VerifyPresentation(ctx, vp, models.ProofOptions{
		Challenge:          challenge,
		ProofPurpose:       models.ProofPurposeAuthentication,
		VerificationMethod: vp.VerificationMethod(),
	})
	span.End(err)

	if err != nil {
		v.logger.WarnContext(ctx, "proof verifier call failed",
			"error", err,
			"holder", vp.Holder,
		)
		return []string{}, []string{ErrProofNotSuccessful, err.Error()}
	}
	if res == nil {
		return []string{}, []string{ErrProofNotSuccessful}
	}

	checks := res.Checks
	if checks == nil {
		checks = []string{}
	}
	if !slices.Contains(res.Checks, proofCheck) || len(res.Errors) > 0 {
		return checks, append([]string{ErrProofNotSuccessful}, res.Errors...)
	}
	return checks, nil
}

func (v *SubmissionVerifier) checkQuery(ctx context.Context, vp *models.Presentation, q models.Query) []string {
	switch q.Type {
	case models.QueryDIDAuth:
		if vp.Holder == "" {
			return []string{ErrHolderRequired}
		}
		return nil
	case models.QueryPresentationDefinition:
		var errs []string
		for i, cq := range q.CredentialQuery {
			errs = append(errs, v.evaluate(ctx, i+1, cq.PresentationDefinition, vp)...)
		}
		return errs
	default:
		return []string{ErrUnknownQueryType}
	}
}

func (v *SubmissionVerifier) evaluate(ctx context.Context, index int, def models.PresentationDefinition, vp *models.Presentation) []string {
	res, err := v.evaluator.Evaluate(ctx, def, vp)
	if err != nil {
		// evaluation could not run at all; report it as a single failure
		return []string{definitionFailure(index, err.Error())}
	}
	if res == nil {
		return nil
	}

	errs := make([]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		errs = append(errs, definitionFailure(index, e.Message))
	}
	return errs
}

func definitionFailure(index int, reason string) string {
	if reason == "" {
		reason = unknownReason
	}
	return fmt.Sprintf(definitionFailureFormat, index, reason)
}
