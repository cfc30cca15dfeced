package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"vpexchange/internal/exchange/models"
	"vpexchange/pkg/platform/sentinel"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresStore persists exchanges and transactions as JSONB documents.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateExchange(ctx context.Context, def *models.ExchangeDefinition) error {
	doc, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("marshal exchange: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO exchanges (exchange_id, definition, created_at)
		VALUES ($1, $2, $3)
	`, def.ExchangeID, doc, def.CreatedAt)
	if err != nil {
		return mapWriteError(err, "create exchange")
	}
	return nil
}

func (s *PostgresStore) FindExchange(ctx context.Context, exchangeID string) (*models.ExchangeDefinition, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT definition FROM exchanges WHERE exchange_id = $1`, exchangeID,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find exchange: %w", err)
	}
	var def models.ExchangeDefinition
	if err := json.Unmarshal(doc, &def); err != nil {
		return nil, fmt.Errorf("decode exchange: %w", err)
	}
	return &def, nil
}

func (s *PostgresStore) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	doc, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO exchange_transactions (transaction_id, exchange_id, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, tx.TransactionID, tx.ExchangeID, doc, tx.CreatedAt, tx.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "create transaction")
	}
	return nil
}

func (s *PostgresStore) FindTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	return findTransaction(ctx, s.db, transactionID, false)
}

// UpdateTransaction locks the row with SELECT ... FOR UPDATE for the duration of fn.
func (s *PostgresStore) UpdateTransaction(ctx context.Context, transactionID string, fn Mutator) (*models.Transaction, error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction update: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	current, err := findTransaction(ctx, sqlTx, transactionID, true)
	if err != nil {
		return nil, err
	}
	persist, err := fn(current)
	if err != nil {
		return nil, err
	}
	if !persist {
		return current, nil
	}

	doc, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("marshal transaction: %w", err)
	}
	res, err := sqlTx.ExecContext(ctx, `
		UPDATE exchange_transactions
		SET state = $2, updated_at = $3
		WHERE transaction_id = $1
	`, transactionID, doc, current.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	if rows, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("update transaction rows: %w", err)
	} else if rows == 0 {
		return nil, sentinel.ErrNotFound
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction update: %w", err)
	}
	return current, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func findTransaction(ctx context.Context, q queryRower, transactionID string, forUpdate bool) (*models.Transaction, error) {
	query := `SELECT state FROM exchange_transactions WHERE transaction_id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}
	var doc []byte
	if err := q.QueryRowContext(ctx, query, transactionID).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	var tx models.Transaction
	if err := json.Unmarshal(doc, &tx); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	return &tx, nil
}

func mapWriteError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return sentinel.ErrConflict
		case pgForeignKeyViolation:
			return sentinel.ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
