package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "vpexchange/pkg/domain-errors"
)

// ExchangeDefinition is the immutable template a transaction is started from.
//
// # One-time Invariant
//
// When IsOneTime is set, OneTimeTransactionID is fixed at construction and every
// Start returns a transaction with that id. Persisting the second such transaction
// must fail at the storage layer rather than overwrite the first.
type ExchangeDefinition struct {
	ExchangeID           string               `json:"exchangeId"`
	InteractServices     []InteractDefinition `json:"interactServices"`
	Query                []Query              `json:"query"`
	IsOneTime            bool                 `json:"isOneTime"`
	OneTimeTransactionID string               `json:"oneTimeTransactionId,omitempty"`
	Callback             []CallbackTarget     `json:"callback"`
	CreatedAt            time.Time            `json:"createdAt"`
}

// InteractDefinition declares one interaction style of an exchange.
type InteractDefinition struct {
	Type InteractType `json:"type" validate:"required,oneof=UnmediatedHttpPresentationService2021 MediatedHttpPresentationService2021"`
}

// Query is a tagged VP request query entry. CredentialQuery is only used by
// the PresentationDefinition variant.
type Query struct {
	Type            QueryType         `json:"type" validate:"required,oneof=DIDAuth PresentationDefinition"`
	CredentialQuery []CredentialQuery `json:"credentialQuery,omitempty" validate:"omitempty,dive"`
}

// CredentialQuery wraps one presentation definition.
type CredentialQuery struct {
	PresentationDefinition PresentationDefinition `json:"presentationDefinition"`
}

// CallbackTarget is a listener notified about transaction events.
type CallbackTarget struct {
	URL string `json:"url" validate:"required,http_url"`
}

// NewExchangeDefinition creates an ExchangeDefinition with domain invariant checks.
func NewExchangeDefinition(
	exchangeID string,
	interact []InteractDefinition,
	query []Query,
	isOneTime bool,
	callback []CallbackTarget,
	now time.Time,
) (*ExchangeDefinition, error) {
	if exchangeID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "exchange ID required")
	}
	if len(interact) != 1 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "exactly one interact service required")
	}
	if !interact[0].Type.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unsupported interact service type")
	}
	if len(query) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "at least one query required")
	}

	def := &ExchangeDefinition{
		ExchangeID:       exchangeID,
		InteractServices: interact,
		Query:            query,
		IsOneTime:        isOneTime,
		Callback:         callback,
		CreatedAt:        now,
	}
	if def.Callback == nil {
		def.Callback = []CallbackTarget{}
	}
	if isOneTime {
		def.OneTimeTransactionID = uuid.NewString()
	}
	return def, nil
}

// Start instantiates a transaction for this definition. The definition is not
// modified; the caller persists the returned transaction.
func (d *ExchangeDefinition) Start(baseURL string, now time.Time) *Transaction {
	transactionID := d.OneTimeTransactionID
	if !d.IsOneTime || transactionID == "" {
		transactionID = uuid.NewString()
	}

	services := make([]InteractService, 0, len(d.InteractServices))
	for _, s := range d.InteractServices {
		services = append(services, InteractService{
			Type:            s.Type,
			ServiceEndpoint: ServiceEndpoint(baseURL, d.ExchangeID, transactionID),
		})
	}

	tx := &Transaction{
		TransactionID: transactionID,
		ExchangeID:    d.ExchangeID,
		VPRequest: VPRequest{
			Challenge: uuid.NewString(),
			Query:     append([]Query(nil), d.Query...),
			Interact:  Interact{Service: services},
		},
		Callback:  append([]CallbackTarget{}, d.Callback...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if tx.VPRequest.InteractType() == InteractMediated {
		tx.PresentationReview = &Review{ReviewStatus: ReviewPendingSubmission}
	}
	return tx
}

// ServiceEndpoint is where the holder PUTs its presentation.
func ServiceEndpoint(baseURL, exchangeID, transactionID string) string {
	return baseURL + "/exchanges/" + exchangeID + "/" + transactionID
}

// VPRequest is the challenge issued to the holder together with what it must present.
type VPRequest struct {
	Challenge string   `json:"challenge" validate:"required"`
	Query     []Query  `json:"query" validate:"dive"`
	Interact  Interact `json:"interact"`
}

// Interact lists where and how the holder continues the exchange.
type Interact struct {
	Service []InteractService `json:"service" validate:"required,min=1,dive"`
}

// InteractService is one interaction endpoint.
type InteractService struct {
	Type            InteractType `json:"type" validate:"required"`
	ServiceEndpoint string       `json:"serviceEndpoint" validate:"required,url"`
}

// InteractType returns the type of the first interaction service.
// Only one service per transaction is supported.
func (r VPRequest) InteractType() InteractType {
	if len(r.Interact.Service) == 0 {
		return ""
	}
	return r.Interact.Service[0].Type
}

// Review tracks a mediated presentation through reviewer approval.
type Review struct {
	ReviewStatus ReviewStatus  `json:"reviewStatus"`
	VP           *Presentation `json:"VP,omitempty"`
}

// SubmissionRecord is the first accepted presentation of a transaction.
type SubmissionRecord struct {
	VP                 Presentation       `json:"vp"`
	VerificationResult VerificationResult `json:"verificationResult"`
	VPHolder           string             `json:"vpHolder"`
}

// VerificationResult reports proof and structural checks on a presentation.
type VerificationResult struct {
	Checks   []string `json:"checks"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

// NewVerificationResult returns a result with non-nil lists.
func NewVerificationResult() VerificationResult {
	return VerificationResult{
		Checks:   []string{},
		Warnings: []string{},
		Errors:   []string{},
	}
}

// HasErrors reports whether verification failed.
func (r VerificationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// ProofOptions are passed to the external proof verifier.
type ProofOptions struct {
	Challenge          string `json:"challenge"`
	ProofPurpose       string `json:"proofPurpose"`
	VerificationMethod string `json:"verificationMethod,omitempty"`
}

// ExchangeResponse is returned to the holder on start and on every submission.
type ExchangeResponse struct {
	Errors               []string      `json:"errors"`
	VPRequest            *VPRequest    `json:"vpRequest,omitempty"`
	VP                   *Presentation `json:"vp,omitempty"`
	ProcessingInProgress *bool         `json:"processingInProgress,omitempty"`
}

func inProgress(v bool) *bool {
	return &v
}

// TransactionEvent is the public notification sent to callback targets and the event stream.
type TransactionEvent struct {
	TransactionID          string           `json:"transactionId" validate:"required"`
	ExchangeID             string           `json:"exchangeId" validate:"required"`
	VPRequest              VPRequest        `json:"vpRequest"`
	PresentationSubmission *EventSubmission `json:"presentationSubmission,omitempty"`
}

// EventSubmission is the subset of a submission exposed to listeners.
type EventSubmission struct {
	VerificationResult VerificationResult `json:"verificationResult"`
	VP                 Presentation       `json:"vp"`
}
