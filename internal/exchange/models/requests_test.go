package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "vpexchange/pkg/domain-errors"
)

func validCreateRequest() *CreateExchangeRequest {
	return &CreateExchangeRequest{
		ExchangeID:       "employment-check",
		InteractServices: []InteractDefinition{{Type: InteractMediated}},
		Query: []Query{{
			Type: QueryPresentationDefinition,
			CredentialQuery: []CredentialQuery{{PresentationDefinition: PresentationDefinition{
				ID: "pd-1",
				InputDescriptors: []InputDescriptor{{
					ID: "employment",
					Constraints: &Constraints{Fields: []Field{{
						Path: []string{"$.credentialSubject.employer"},
					}}},
				}},
			}}},
		}},
		Callback: []CallbackTarget{{URL: "https://issuer.example/hook"}},
	}
}

func TestCreateExchangeRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *CreateExchangeRequest)
		wantErr string
	}{
		{name: "valid", mutate: func(*CreateExchangeRequest) {}},
		{
			name:    "missing exchange id",
			mutate:  func(r *CreateExchangeRequest) { r.ExchangeID = "" },
			wantErr: "exchangeId is required",
		},
		{
			name:    "exchange id with path separator",
			mutate:  func(r *CreateExchangeRequest) { r.ExchangeID = "a/b" },
			wantErr: "exchangeId must only contain URL-safe characters",
		},
		{
			name:    "two interact services",
			mutate:  func(r *CreateExchangeRequest) { r.InteractServices = append(r.InteractServices, InteractDefinition{Type: InteractUnmediated}) },
			wantErr: "interactServices must have exactly 1 entries",
		},
		{
			name:    "unknown interact type",
			mutate:  func(r *CreateExchangeRequest) { r.InteractServices[0].Type = "Fax" },
			wantErr: "interactServices[0].type must be one of",
		},
		{
			name:    "unknown query type",
			mutate:  func(r *CreateExchangeRequest) { r.Query[0].Type = "QueryByExample" },
			wantErr: "query[0].type must be one of",
		},
		{
			name:    "presentation definition without credential query",
			mutate:  func(r *CreateExchangeRequest) { r.Query[0].CredentialQuery = nil },
			wantErr: "query[0].credentialQuery is required for PresentationDefinition",
		},
		{
			name: "did auth with credential query",
			mutate: func(r *CreateExchangeRequest) {
				r.Query[0].Type = QueryDIDAuth
			},
			wantErr: "query[0].credentialQuery is not allowed for DIDAuth",
		},
		{
			name: "presentation definition without input descriptors",
			mutate: func(r *CreateExchangeRequest) {
				r.Query[0].CredentialQuery[0].PresentationDefinition.InputDescriptors = nil
			},
			wantErr: "query[0].credentialQuery[0].presentationDefinition.input_descriptors is required",
		},
		{
			name: "field without path",
			mutate: func(r *CreateExchangeRequest) {
				r.Query[0].CredentialQuery[0].PresentationDefinition.InputDescriptors[0].Constraints.Fields[0].Path = nil
			},
			wantErr: "input_descriptors[0].constraints.fields[0].path is required",
		},
		{
			name:    "callback url not http",
			mutate:  func(r *CreateExchangeRequest) { r.Callback[0].URL = "ftp://issuer.example" },
			wantErr: "callback[0].url must be a valid url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(req)
			req.Normalize()

			err := req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestReviewRequest_Validate(t *testing.T) {
	assert.NoError(t, (&ReviewRequest{Result: ReviewResultApproved}).Validate())
	assert.ErrorContains(t, (&ReviewRequest{Result: "pending"}).Validate(), "result must be one of")
	assert.ErrorContains(t, (&ReviewRequest{}).Validate(), "result is required")
}

func TestSubmitPresentationRequest_Validate(t *testing.T) {
	req := &SubmitPresentationRequest{Presentation: Presentation{Holder: " did:example:alice "}}
	req.Normalize()
	assert.Equal(t, "did:example:alice", req.Holder)
	assert.NoError(t, req.Validate(), "unsigned presentations reach verification")

	var missing *SubmitPresentationRequest
	assert.True(t, dErrors.HasCode(missing.Validate(), dErrors.CodeBadRequest))
}
