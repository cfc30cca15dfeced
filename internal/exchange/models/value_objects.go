package models

// InteractType selects how a transaction delivers its outcome to the holder.
type InteractType string

const (
	InteractUnmediated InteractType = "UnmediatedHttpPresentationService2021"
	InteractMediated   InteractType = "MediatedHttpPresentationService2021"
)

// IsValid checks if the interaction type is one of the supported enum values.
func (t InteractType) IsValid() bool {
	return t == InteractUnmediated || t == InteractMediated
}

// QueryType tags a VP request query entry.
type QueryType string

const (
	QueryDIDAuth                QueryType = "DIDAuth"
	QueryPresentationDefinition QueryType = "PresentationDefinition"
)

// IsValid checks if the query type is one of the supported enum values.
func (t QueryType) IsValid() bool {
	return t == QueryDIDAuth || t == QueryPresentationDefinition
}

// ReviewStatus is the lifecycle state of a mediated presentation review.
type ReviewStatus string

const (
	ReviewPendingSubmission ReviewStatus = "pendingSubmission"
	ReviewPendingReview     ReviewStatus = "pendingReview"
	ReviewApproved          ReviewStatus = "approved"
	ReviewRejected          ReviewStatus = "rejected"
)

// IsDecided reports whether a reviewer has closed the review.
func (s ReviewStatus) IsDecided() bool {
	return s == ReviewApproved || s == ReviewRejected
}

// ReviewResult is the reviewer's decision.
type ReviewResult string

const (
	ReviewResultApproved ReviewResult = "approved"
	ReviewResultRejected ReviewResult = "rejected"
)

// IsValid checks if the review result is one of the supported enum values.
func (r ReviewResult) IsValid() bool {
	return r == ReviewResultApproved || r == ReviewResultRejected
}

// Status maps the decision onto the terminal review status.
func (r ReviewResult) Status() ReviewStatus {
	if r == ReviewResultApproved {
		return ReviewApproved
	}
	return ReviewRejected
}

// ProofPurposeAuthentication is the proof purpose requested from the proof verifier.
const ProofPurposeAuthentication = "authentication"
