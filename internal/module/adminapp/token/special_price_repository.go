package token

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/Praitheesh/alf.io/pkg/errors"
	"github.com/Praitheesh/alf.io/pkg/status"
)

type SpecialPriceRepository interface {
	BulkInsert(ctx context.Context, tokens []SpecialPrice, tx *sql.Tx) error
	CancelAll(ctx context.Context, categoryID int64, tx *sql.Tx) (int64, error)
	LockWaiting(ctx context.Context, categoryID int64, limit int, tx *sql.Tx) ([]int64, error)
	CancelByIDs(ctx context.Context, ids []int64, tx *sql.Tx) error
	CancelExpired(ctx context.Context, categoryID int64, tx *sql.Tx) (int64, error)
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type specialPriceRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewSpecialPriceRepository(logger *logrus.Logger, db *sql.DB) SpecialPriceRepository {
	return &specialPriceRepository{
		logger: logger,
		db:     db,
	}
}

// BulkInsert implements SpecialPriceRepository.
func (r *specialPriceRepository) BulkInsert(ctx context.Context, tokens []SpecialPrice, tx *sql.Tx) error {
	if len(tokens) == 0 {
		return nil
	}

	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	values := make([]string, len(tokens))
	args := make([]interface{}, 0, len(tokens)*4)
	for i, t := range tokens {
		base := i * 4
		values[i] = fmt.Sprintf("($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4)
		args = append(args, t.TicketCategoryID, t.Code, t.PriceCents, t.Status)
	}

	query := fmt.Sprintf(`
		INSERT INTO special_price
		(
			ticket_category_id, code, price_cents, status
		)
		VALUES
			%s
	`, strings.Join(values, ", "))

	_, err := cmd.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving bunch of access token's properties")
	}

	return nil
}

// CancelAll implements SpecialPriceRepository. Every non-cancelled
// token of the category becomes CANCELLED; the affected count goes
// back to the caller, who asserts it against the expected capacity.
func (r *specialPriceRepository) CancelAll(ctx context.Context, categoryID int64, tx *sql.Tx) (int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE special_price
		SET
			status = $1
		WHERE
			ticket_category_id = $2
			AND status <> $1
	`

	result, err := cmd.ExecContext(ctx, query, StatusCancelled, categoryID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while cancelling access tokens")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while cancelling access tokens")
	}

	return affected, nil
}

// LockWaiting implements SpecialPriceRepository. It atomically marks up
// to limit WAITING tokens as LOCKED and returns their ids. Rows held by
// a concurrent reduction are skipped rather than waited on, so two
// concurrent operations can never select the same token.
func (r *specialPriceRepository) LockWaiting(ctx context.Context, categoryID int64, limit int, tx *sql.Tx) ([]int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE special_price
		SET
			status = $1
		WHERE id IN (
			SELECT id
			FROM special_price
			WHERE
				ticket_category_id = $2
				AND status = $3
			ORDER BY id
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id
	`

	rows, err := cmd.QueryContext(ctx, query, StatusLocked, categoryID, StatusWaiting, limit)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while locking access tokens")
	}

	defer rows.Close()

	var ids = make([]int64, 0, limit)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while locking access tokens")
		}

		ids = append(ids, id)
	}

	return ids, nil
}

// CancelByIDs implements SpecialPriceRepository.
func (r *specialPriceRepository) CancelByIDs(ctx context.Context, ids []int64, tx *sql.Tx) error {
	if len(ids) == 0 {
		return nil
	}

	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE special_price
		SET
			status = $1
		WHERE
			id = ANY($2)
	`

	_, err := cmd.ExecContext(ctx, query, StatusCancelled, pq.Array(ids))
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while cancelling access tokens")
	}

	return nil
}

// CancelExpired implements SpecialPriceRepository. Only tokens still
// WAITING are cancelled; LOCKED ones belong to an in-flight reduction.
// Used as best-effort cleanup once a category can no longer sell.
func (r *specialPriceRepository) CancelExpired(ctx context.Context, categoryID int64, tx *sql.Tx) (int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE special_price
		SET
			status = $1
		WHERE
			ticket_category_id = $2
			AND status = $3
	`

	result, err := cmd.ExecContext(ctx, query, StatusCancelled, categoryID, StatusWaiting)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while cancelling expired access tokens")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while cancelling expired access tokens")
	}

	return affected, nil
}
