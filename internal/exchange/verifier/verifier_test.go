package verifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vpexchange/internal/exchange/models"
	"vpexchange/internal/exchange/ports/mocks"
)

const challenge = "c0ffee00-0000-4000-8000-000000000001"

type VerifierSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	proofs    *mocks.MockProofVerifier
	evaluator *mocks.MockPresentationEvaluator
	verifier  *SubmissionVerifier
	ctx       context.Context
}

func TestVerifierSuite(t *testing.T) {
	suite.Run(t, new(VerifierSuite))
}

func (s *VerifierSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.proofs = mocks.NewMockProofVerifier(s.ctrl)
	s.evaluator = mocks.NewMockPresentationEvaluator(s.ctrl)
	s.verifier = New(s.proofs, s.evaluator, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.ctx = context.Background()
}

func (s *VerifierSuite) TearDownTest() {
	s.ctrl.Finish()
}

func presentation(holder, proofChallenge string) *models.Presentation {
	return &models.Presentation{
		Holder: holder,
		Proof: &models.Proof{
			VerificationMethod: "did:example:alice#key-1",
			Challenge:          proofChallenge,
		},
	}
}

func request(query ...models.Query) models.VPRequest {
	return models.VPRequest{Challenge: challenge, Query: query}
}

func pdQuery(defs ...string) models.Query {
	q := models.Query{Type: models.QueryPresentationDefinition}
	for _, id := range defs {
		q.CredentialQuery = append(q.CredentialQuery, models.CredentialQuery{
			PresentationDefinition: models.PresentationDefinition{ID: id},
		})
	}
	return q
}

func (s *VerifierSuite) expectProofOK() {
	s.proofs.EXPECT().
		VerifyPresentation(gomock.Any(), gomock.Any(), models.ProofOptions{
			Challenge:          challenge,
			ProofPurpose:       models.ProofPurposeAuthentication,
			VerificationMethod: "did:example:alice#key-1",
		}).
		Return(&models.VerificationResult{Checks: []string{"proof"}}, nil)
}

func (s *VerifierSuite) TestValidDIDAuth() {
	s.expectProofOK()

	res := s.verifier.Verify(s.ctx, presentation("did:example:alice", challenge), request(models.Query{Type: models.QueryDIDAuth}))

	s.Empty(res.Errors)
	s.NotNil(res.Errors)
	s.Equal([]string{"proof"}, res.Checks)
	s.Empty(res.Warnings)
	s.NotNil(res.Warnings)
}

func (s *VerifierSuite) TestChallengeMismatch() {
	s.expectProofOK()

	res := s.verifier.Verify(s.ctx, presentation("did:example:alice", "stale"), request(models.Query{Type: models.QueryDIDAuth}))

	s.Equal([]string{ErrChallengeMismatch}, res.Errors)
}

func (s *VerifierSuite) TestUnsignedPresentation() {
	s.proofs.EXPECT().
		VerifyPresentation(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.VerificationResult{Checks: []string{}, Errors: []string{"no proof"}}, nil)

	res := s.verifier.Verify(s.ctx, &models.Presentation{Holder: "did:example:alice"}, request())

	s.Equal([]string{ErrProofNotSuccessful, "no proof", ErrChallengeMismatch}, res.Errors)
}

func (s *VerifierSuite) TestProofFailureStillReportsStructuralErrors() {
	s.proofs.EXPECT().
		VerifyPresentation(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.VerificationResult{Checks: []string{"expiration"}, Errors: []string{"invalid signature"}}, nil)

	res := s.verifier.Verify(s.ctx, presentation("", "stale"), request(models.Query{Type: models.QueryDIDAuth}))

	s.Equal([]string{
		ErrProofNotSuccessful,
		"invalid signature",
		ErrChallengeMismatch,
		ErrHolderRequired,
	}, res.Errors)
	s.Equal([]string{"expiration"}, res.Checks, "verifier checks are preserved")
}

func (s *VerifierSuite) TestMissingProofCheckFailsWithoutVerifierErrors() {
	s.proofs.EXPECT().
		VerifyPresentation(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.VerificationResult{Checks: []string{"expiration"}}, nil)

	res := s.verifier.Verify(s.ctx, presentation("did:example:alice", challenge), request())

	s.Equal([]string{ErrProofNotSuccessful}, res.Errors)
}

func (s *VerifierSuite) TestProofVerifierUnavailable() {
	s.proofs.EXPECT().
		VerifyPresentation(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("proof verifier circuit open"))

	res := s.verifier.Verify(s.ctx, presentation("did:example:alice", challenge), request())

	s.Equal([]string{ErrProofNotSuccessful, "proof verifier circuit open"}, res.Errors)
	s.Empty(res.Checks)
}

func (s *VerifierSuite) TestPresentationDefinitionFailuresAreIndexed() {
	s.expectProofOK()
	vp := presentation("did:example:alice", challenge)
	s.evaluator.EXPECT().
		Evaluate(gomock.Any(), models.PresentationDefinition{ID: "pd-1"}, vp).
		Return(&models.EvaluationResult{}, nil)
	s.evaluator.EXPECT().
		Evaluate(gomock.Any(), models.PresentationDefinition{ID: "pd-2"}, vp).
		Return(&models.EvaluationResult{Errors: []models.EvaluationError{
			{Message: "input descriptor employment not satisfied"},
			{},
		}}, nil)

	res := s.verifier.Verify(s.ctx, vp, request(pdQuery("pd-1", "pd-2")))

	s.Equal([]string{
		"Presentation definition (2) validation failed, reason: input descriptor employment not satisfied",
		"Presentation definition (2) validation failed, reason: Unknown",
	}, res.Errors)
}

func (s *VerifierSuite) TestEvaluatorFailureIsWrapped() {
	s.expectProofOK()
	s.evaluator.EXPECT().
		Evaluate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("invalid JSONPath $.["))

	res := s.verifier.Verify(s.ctx, presentation("did:example:alice", challenge), request(pdQuery("pd-1")))

	s.Equal([]string{"Presentation definition (1) validation failed, reason: invalid JSONPath $.["}, res.Errors)
}

func (s *VerifierSuite) TestUnknownQueryType() {
	s.expectProofOK()

	res := s.verifier.Verify(s.ctx, presentation("did:example:alice", challenge), request(models.Query{Type: "QueryByExample"}))

	s.Equal([]string{ErrUnknownQueryType}, res.Errors)
}

func (s *VerifierSuite) TestIdempotent() {
	s.proofs.EXPECT().
		VerifyPresentation(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.VerificationResult{Checks: []string{"proof"}}, nil).
		Times(2)
	vp := presentation("", "stale")
	req := request(models.Query{Type: models.QueryDIDAuth})

	first := s.verifier.Verify(s.ctx, vp, req)
	second := s.verifier.Verify(s.ctx, vp, req)

	s.Equal(first, second)
}
