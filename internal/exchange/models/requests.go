package models

import (
	"fmt"
	"strings"

	dErrors "vpexchange/pkg/domain-errors"
	"vpexchange/pkg/validation"
)

// CreateExchangeRequest is the body of POST /exchanges.
type CreateExchangeRequest struct {
	ExchangeID       string               `json:"exchangeId" validate:"required,notblank,max=128,urlsafe"`
	InteractServices []InteractDefinition `json:"interactServices" validate:"required,len=1,dive"`
	Query            []Query              `json:"query" validate:"required,min=1,dive"`
	IsOneTime        bool                 `json:"isOneTime"`
	Callback         []CallbackTarget     `json:"callback" validate:"omitempty,max=16,dive"`
}

// Normalize trims identifiers and callback urls.
func (r *CreateExchangeRequest) Normalize() {
	if r == nil {
		return
	}
	r.ExchangeID = strings.TrimSpace(r.ExchangeID)
	for i := range r.Callback {
		r.Callback[i].URL = strings.TrimSpace(r.Callback[i].URL)
	}
}

// Validate checks that the request is well-formed.
func (r *CreateExchangeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.Validate(r); err != nil {
		return err
	}
	return ValidateQueries(r.Query)
}

// ValidateQueries enforces the per-variant shape of query entries.
func ValidateQueries(query []Query) error {
	for i, q := range query {
		switch q.Type {
		case QueryDIDAuth:
			if len(q.CredentialQuery) > 0 {
				return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("query[%d].credentialQuery is not allowed for DIDAuth", i))
			}
		case QueryPresentationDefinition:
			if len(q.CredentialQuery) == 0 {
				return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("query[%d].credentialQuery is required for PresentationDefinition", i))
			}
		default:
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("query[%d].type is not supported", i))
		}
	}
	return nil
}

// SubmitPresentationRequest is the body of PUT /exchanges/{exchangeId}/{transactionId}.
type SubmitPresentationRequest struct {
	Presentation
}

// Validate only rejects a missing body. An unsigned presentation is a
// verification failure reported by the verifier, not a malformed request.
func (r *SubmitPresentationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return nil
}

// Normalize trims the holder DID.
func (r *SubmitPresentationRequest) Normalize() {
	if r == nil {
		return
	}
	r.Holder = strings.TrimSpace(r.Holder)
}

// ReviewRequest is the body of POST /exchanges/{exchangeId}/{transactionId}/review.
type ReviewRequest struct {
	Result ReviewResult  `json:"result" validate:"required,oneof=approved rejected"`
	VP     *Presentation `json:"vp,omitempty"`
}

// Validate checks that the request is well-formed.
func (r *ReviewRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}
