package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/stretchr/testify/suite"

	"vpexchange/internal/exchange/models"
	"vpexchange/pkg/platform/sentinel"
	"vpexchange/pkg/testutil"
)

// storeContractSuite holds the behaviour every backend must share.
// Backend suites embed it and set store in SetupTest.
type storeContractSuite struct {
	suite.Suite
	store Store
}

func (s *storeContractSuite) startTransaction(def *models.ExchangeDefinition) *models.Transaction {
	ctx := context.Background()
	s.Require().NoError(s.store.CreateExchange(ctx, def))
	tx := def.Start(testutil.TestBaseURL, testutil.FixedTime)
	s.Require().NoError(s.store.CreateTransaction(ctx, tx))
	return tx
}

func (s *storeContractSuite) TestExchangeRoundTrip() {
	ctx := context.Background()
	def := testutil.NewExchangeBuilder("ex-roundtrip").
		WithQuery(testutil.PresentationDefinitionQuery("pd-1", "degree", "$.credentialSubject.degree")).
		WithCallbacks("https://listener.example/cb").
		Build()

	s.Require().NoError(s.store.CreateExchange(ctx, def))

	found, err := s.store.FindExchange(ctx, "ex-roundtrip")
	s.Require().NoError(err)
	s.Equal(def.ExchangeID, found.ExchangeID)
	s.Equal(def.Query, found.Query)
	s.Equal(def.Callback, found.Callback)
	s.True(def.CreatedAt.Equal(found.CreatedAt))
}

func (s *storeContractSuite) TestCreateExchangeDuplicate() {
	ctx := context.Background()
	def := testutil.NewExchangeBuilder("ex-dup").Build()
	s.Require().NoError(s.store.CreateExchange(ctx, def))

	err := s.store.CreateExchange(ctx, testutil.NewExchangeBuilder("ex-dup").Mediated().Build())
	s.ErrorIs(err, sentinel.ErrConflict)

	found, err := s.store.FindExchange(ctx, "ex-dup")
	s.Require().NoError(err)
	s.Equal(models.InteractUnmediated, found.InteractServices[0].Type)
}

func (s *storeContractSuite) TestFindMissing() {
	ctx := context.Background()
	_, err := s.store.FindExchange(ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindTransaction(ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *storeContractSuite) TestCreateTransactionUnknownExchange() {
	tx := testutil.NewExchangeBuilder("ex-absent").Build().Start(testutil.TestBaseURL, testutil.FixedTime)
	err := s.store.CreateTransaction(context.Background(), tx)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *storeContractSuite) TestOneTimeTransactionCreatedOnce() {
	ctx := context.Background()
	def := testutil.NewExchangeBuilder("ex-once").OneTime().Build()
	first := s.startTransaction(def)

	second := def.Start(testutil.TestBaseURL, testutil.FixedTime)
	s.Equal(first.TransactionID, second.TransactionID)
	s.ErrorIs(s.store.CreateTransaction(ctx, second), sentinel.ErrConflict)

	found, err := s.store.FindTransaction(ctx, first.TransactionID)
	s.Require().NoError(err)
	s.Equal(first.VPRequest.Challenge, found.VPRequest.Challenge)
}

func (s *storeContractSuite) TestSubmittedPresentationKeptVerbatim() {
	ctx := context.Background()
	tx := s.startTransaction(testutil.NewExchangeBuilder("ex-verbatim").Build())

	signed := `{"holder":"did:example:holder","verifiableCredential":"eyJhbGciOiJFZERTQSJ9.e30.sig",` +
		`"proof":{"type":"DataIntegrityProof","cryptosuite":"eddsa-rdfc-2022","nonce":"n-1","challenge":"` +
		tx.VPRequest.Challenge + `"}}`
	var vp models.Presentation
	s.Require().NoError(json.Unmarshal([]byte(signed), &vp))

	_, err := s.store.UpdateTransaction(ctx, tx.TransactionID, func(t *models.Transaction) (bool, error) {
		t.PresentationSubmission = &models.SubmissionRecord{
			VP:                 vp,
			VerificationResult: models.NewVerificationResult(),
			VPHolder:           vp.Holder,
		}
		return true, nil
	})
	s.Require().NoError(err)

	stored, err := s.store.FindTransaction(ctx, tx.TransactionID)
	s.Require().NoError(err)
	s.Require().NotNil(stored.PresentationSubmission)
	out, err := json.Marshal(stored.PresentationSubmission.VP)
	s.Require().NoError(err)
	s.Equal(signed, string(out))
}

func (s *storeContractSuite) TestUpdateTransaction() {
	ctx := context.Background()
	tx := s.startTransaction(testutil.NewExchangeBuilder("ex-update").Mediated().Build())

	s.Run("not persisted when mutator declines", func() {
		got, err := s.store.UpdateTransaction(ctx, tx.TransactionID, func(t *models.Transaction) (bool, error) {
			t.PresentationReview.ReviewStatus = models.ReviewApproved
			return false, nil
		})
		s.Require().NoError(err)
		s.Equal(models.ReviewApproved, got.PresentationReview.ReviewStatus)

		stored, err := s.store.FindTransaction(ctx, tx.TransactionID)
		s.Require().NoError(err)
		s.Equal(models.ReviewPendingSubmission, stored.PresentationReview.ReviewStatus)
	})

	s.Run("mutator error is returned and nothing persists", func() {
		boom := errors.New("boom")
		_, err := s.store.UpdateTransaction(ctx, tx.TransactionID, func(t *models.Transaction) (bool, error) {
			t.PresentationReview.ReviewStatus = models.ReviewRejected
			return true, boom
		})
		s.ErrorIs(err, boom)

		stored, err := s.store.FindTransaction(ctx, tx.TransactionID)
		s.Require().NoError(err)
		s.Equal(models.ReviewPendingSubmission, stored.PresentationReview.ReviewStatus)
	})

	s.Run("persisted when mutator accepts", func() {
		vp := testutil.NewTestPresentation("did:example:holder", tx.VPRequest.Challenge)
		_, err := s.store.UpdateTransaction(ctx, tx.TransactionID, func(t *models.Transaction) (bool, error) {
			t.PresentationReview.ReviewStatus = models.ReviewPendingReview
			t.PresentationSubmission = &models.SubmissionRecord{
				VP:                 *vp,
				VerificationResult: models.NewVerificationResult(),
				VPHolder:           vp.Holder,
			}
			return true, nil
		})
		s.Require().NoError(err)

		stored, err := s.store.FindTransaction(ctx, tx.TransactionID)
		s.Require().NoError(err)
		s.Equal(models.ReviewPendingReview, stored.PresentationReview.ReviewStatus)
		s.Require().NotNil(stored.PresentationSubmission)
		s.Equal("did:example:holder", stored.PresentationSubmission.VPHolder)
		s.Equal(tx.VPRequest.Challenge, stored.PresentationSubmission.VP.Proof.Challenge)
	})

	s.Run("missing transaction", func() {
		_, err := s.store.UpdateTransaction(ctx, "missing", func(*models.Transaction) (bool, error) {
			s.Fail("mutator must not run")
			return false, nil
		})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentFirstSubmissionWins checks that only one of many racing
// submissions can claim an empty transaction.
func (s *storeContractSuite) TestConcurrentFirstSubmissionWins() {
	ctx := context.Background()
	tx := s.startTransaction(testutil.NewExchangeBuilder("ex-race").Build())

	const goroutines = 20
	result := testutil.RunConcurrent(goroutines, func(idx int) error {
		_, err := s.store.UpdateTransaction(ctx, tx.TransactionID, func(t *models.Transaction) (bool, error) {
			if t.PresentationSubmission != nil {
				return false, sentinel.ErrConflict
			}
			holder := "did:example:holder-" + string(rune('a'+idx))
			t.PresentationSubmission = &models.SubmissionRecord{
				VP:                 models.Presentation{Holder: holder},
				VerificationResult: models.NewVerificationResult(),
				VPHolder:           holder,
			}
			return true, nil
		})
		return err
	})

	s.Equal(int32(1), result.Successes)
	s.Equal(int32(goroutines-1), result.Conflicts)
	s.Equal(int32(0), result.Errors)
}
