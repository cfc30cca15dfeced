package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"vpexchange/internal/exchange/models"
	"vpexchange/pkg/testutil"
)

type InMemoryStoreSuite struct {
	storeContractSuite
	mem *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.mem = NewMemory()
	s.store = s.mem
}

func (s *InMemoryStoreSuite) TestReturnedValuesAreCopies() {
	ctx := context.Background()
	tx := s.startTransaction(testutil.NewExchangeBuilder("ex-copy").Mediated().WithCallbacks("https://a.example").Build())

	found, err := s.store.FindTransaction(ctx, tx.TransactionID)
	s.Require().NoError(err)
	found.PresentationReview.ReviewStatus = models.ReviewApproved
	found.Callback[0].URL = "https://mutated.example"

	again, err := s.store.FindTransaction(ctx, tx.TransactionID)
	s.Require().NoError(err)
	s.Equal(models.ReviewPendingSubmission, again.PresentationReview.ReviewStatus)
	s.Equal("https://a.example", again.Callback[0].URL)

	tx.PresentationReview.ReviewStatus = models.ReviewRejected
	again, err = s.store.FindTransaction(ctx, tx.TransactionID)
	s.Require().NoError(err)
	s.Equal(models.ReviewPendingSubmission, again.PresentationReview.ReviewStatus)
}
