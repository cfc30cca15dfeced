package models

import (
	"context"
	"time"

	"github.com/google/uuid"

	dErrors "vpexchange/pkg/domain-errors"
)

// ErrTransactionDIDForbidden is returned when a presentation's holder differs
// from the holder that already claimed the transaction.
var ErrTransactionDIDForbidden = dErrors.New(dErrors.CodeForbidden, "presentation holder does not match transaction holder")

// Verifier checks a presentation against the VP request it answers.
type Verifier interface {
	Verify(ctx context.Context, vp *Presentation, req VPRequest) VerificationResult
}

// Transaction is one run of an exchange.
//
// # Ownership Invariant
//
// Once PresentationSubmission is recorded, every later submission must come from
// the same holder. The first accepted submission is never overwritten.
type Transaction struct {
	TransactionID          string            `json:"transactionId"`
	ExchangeID             string            `json:"exchangeId"`
	VPRequest              VPRequest         `json:"vpRequest"`
	PresentationReview     *Review           `json:"presentationReview,omitempty"`
	PresentationSubmission *SubmissionRecord `json:"presentationSubmission,omitempty"`
	Callback               []CallbackTarget  `json:"callback"`
	CreatedAt              time.Time         `json:"createdAt"`
	UpdatedAt              time.Time         `json:"updatedAt"`
}

// Outcome labels what a submission did to the transaction.
type Outcome string

const (
	OutcomeVerificationFailed Outcome = "verification_failed"
	OutcomePendingReview      Outcome = "pending_review"
	OutcomeReviewed           Outcome = "reviewed"
	OutcomeCompleted          Outcome = "completed"
)

// ProcessResult is the state machine's answer to a submission.
type ProcessResult struct {
	Response ExchangeResponse
	Callback []CallbackTarget
	Outcome  Outcome
	// Changed is set when the transaction must be persisted.
	Changed bool
}

// ProcessPresentation advances the transaction with a holder submission.
func (t *Transaction) ProcessPresentation(ctx context.Context, vp *Presentation, verifier Verifier, now time.Time) (ProcessResult, error) {
	if vp == nil {
		return ProcessResult{}, dErrors.New(dErrors.CodeBadRequest, "presentation required")
	}
	if t.PresentationSubmission != nil && t.PresentationSubmission.VPHolder != vp.Holder {
		return ProcessResult{}, ErrTransactionDIDForbidden
	}

	result := verifier.Verify(ctx, vp, t.VPRequest)
	if result.HasErrors() {
		return ProcessResult{
			Response: ExchangeResponse{Errors: result.Errors},
			Callback: []CallbackTarget{},
			Outcome:  OutcomeVerificationFailed,
		}, nil
	}

	switch t.VPRequest.InteractType() {
	case InteractMediated:
		return t.processMediated(vp, result, now)
	case InteractUnmediated:
		changed := t.recordSubmission(vp, result, now)
		return ProcessResult{
			Response: ExchangeResponse{
				Errors:               []string{},
				ProcessingInProgress: inProgress(false),
			},
			Callback: t.callbackTargets(),
			Outcome:  OutcomeCompleted,
			Changed:  changed,
		}, nil
	default:
		return ProcessResult{}, dErrors.New(dErrors.CodeInvariantViolation, "unsupported interact service type")
	}
}

func (t *Transaction) processMediated(vp *Presentation, result VerificationResult, now time.Time) (ProcessResult, error) {
	if t.PresentationReview == nil {
		return ProcessResult{}, dErrors.New(dErrors.CodeInvariantViolation, "mediated transaction has no presentation review")
	}

	switch t.PresentationReview.ReviewStatus {
	case ReviewPendingSubmission:
		t.recordSubmission(vp, result, now)
		t.PresentationReview.ReviewStatus = ReviewPendingReview
		return ProcessResult{
			Response: t.pollAgainResponse(),
			Callback: t.callbackTargets(),
			Outcome:  OutcomePendingReview,
			Changed:  true,
		}, nil
	case ReviewPendingReview:
		return ProcessResult{
			Response: t.pollAgainResponse(),
			Callback: []CallbackTarget{},
			Outcome:  OutcomePendingReview,
		}, nil
	case ReviewApproved, ReviewRejected:
		return ProcessResult{
			Response: ExchangeResponse{
				Errors:               []string{},
				VP:                   t.PresentationReview.VP,
				ProcessingInProgress: inProgress(false),
			},
			Callback: []CallbackTarget{},
			Outcome:  OutcomeReviewed,
		}, nil
	default:
		return ProcessResult{}, dErrors.New(dErrors.CodeInvariantViolation, "unknown review status")
	}
}

// pollAgainResponse asks the holder to come back to the same endpoint.
// The fresh challenge is not stored; the transaction keeps its original request.
func (t *Transaction) pollAgainResponse() ExchangeResponse {
	return ExchangeResponse{
		Errors: []string{},
		VPRequest: &VPRequest{
			Challenge: uuid.NewString(),
			Query:     []Query{},
			Interact:  t.VPRequest.Interact,
		},
		ProcessingInProgress: inProgress(true),
	}
}

// recordSubmission stores the first accepted submission and reports whether it did.
func (t *Transaction) recordSubmission(vp *Presentation, result VerificationResult, now time.Time) bool {
	if t.PresentationSubmission != nil {
		return false
	}
	t.PresentationSubmission = &SubmissionRecord{
		VP:                 *vp,
		VerificationResult: result,
		VPHolder:           vp.Holder,
	}
	t.UpdatedAt = now
	return true
}

func (t *Transaction) callbackTargets() []CallbackTarget {
	return append([]CallbackTarget{}, t.Callback...)
}

// AddReview records a reviewer decision on a mediated transaction.
func (t *Transaction) AddReview(result ReviewResult, vp *Presentation, now time.Time) error {
	if !result.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "review result must be approved or rejected")
	}
	if t.PresentationReview == nil {
		return dErrors.New(dErrors.CodeConflict, "transaction has no presentation review")
	}
	if t.PresentationReview.ReviewStatus.IsDecided() {
		return dErrors.New(dErrors.CodeConflict, "presentation review already decided")
	}

	t.PresentationReview.ReviewStatus = result.Status()
	t.PresentationReview.VP = vp
	t.UpdatedAt = now
	return nil
}
