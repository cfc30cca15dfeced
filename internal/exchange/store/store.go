package store

import (
	"context"

	"vpexchange/internal/exchange/models"
)

// Error Contract:
// - ErrNotFound when the exchange or transaction does not exist
// - ErrConflict when an id is already taken
// - errors returned by an UpdateTransaction mutator are passed through unchanged
// - wrapped errors for infrastructure failures

// Mutator edits a transaction in place and reports whether it must be persisted.
// Backends with optimistic concurrency may call it more than once; it always
// receives a fresh copy of the stored state.
type Mutator func(tx *models.Transaction) (bool, error)

// Store persists exchange definitions and their transactions.
type Store interface {
	CreateExchange(ctx context.Context, def *models.ExchangeDefinition) error
	FindExchange(ctx context.Context, exchangeID string) (*models.ExchangeDefinition, error)
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	FindTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)
	// UpdateTransaction runs fn with exclusive access to the transaction and
	// returns the state after fn, persisted or not.
	UpdateTransaction(ctx context.Context, transactionID string, fn Mutator) (*models.Transaction, error)
}

func cloneExchange(def *models.ExchangeDefinition) *models.ExchangeDefinition {
	c := *def
	c.InteractServices = append([]models.InteractDefinition(nil), def.InteractServices...)
	c.Query = append([]models.Query(nil), def.Query...)
	c.Callback = append([]models.CallbackTarget{}, def.Callback...)
	return &c
}

func cloneTransaction(tx *models.Transaction) *models.Transaction {
	c := *tx
	c.Callback = append([]models.CallbackTarget{}, tx.Callback...)
	c.VPRequest.Query = append([]models.Query(nil), tx.VPRequest.Query...)
	c.VPRequest.Interact.Service = append([]models.InteractService(nil), tx.VPRequest.Interact.Service...)
	if tx.PresentationReview != nil {
		review := *tx.PresentationReview
		c.PresentationReview = &review
	}
	if tx.PresentationSubmission != nil {
		sub := *tx.PresentationSubmission
		c.PresentationSubmission = &sub
	}
	return &c
}
