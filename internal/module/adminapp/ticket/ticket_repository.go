package ticket

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

type TicketRepository interface {
	BulkInsert(ctx context.Context, tickets []Ticket, tx *sql.Tx) error
	SelectFreeForUpdate(ctx context.Context, eventID, categoryID int64, limit int, tx *sql.Tx) ([]int64, error)
	InvalidateByIDs(ctx context.Context, ids []int64, tx *sql.Tx) error
	UpdatePriceByIDs(ctx context.Context, ids []int64, paidPriceCents int64, tx *sql.Tx) error
	CountSold(ctx context.Context, eventID, categoryID int64, tx *sql.Tx) (int, error)
	CountCheckedIn(ctx context.Context, eventID, categoryID int64, tx *sql.Tx) (int, error)
	InvalidateAllByEventID(ctx context.Context, eventID int64, tx *sql.Tx) (int64, error)
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type ticketRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewTicketRepository(logger *logrus.Logger, db *sql.DB) TicketRepository {
	return &ticketRepository{
		logger: logger,
		db:     db,
	}
}

// BulkInsert implements TicketRepository. The whole batch is written in
// a single statement so it persists or fails as one.
func (r *ticketRepository) BulkInsert(ctx context.Context, tickets []Ticket, tx *sql.Tx) error {
	if len(tickets) == 0 {
		return nil
	}

	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	values := make([]string, len(tickets))
	args := make([]interface{}, 0, len(tickets)*7)
	for i, t := range tickets {
		base := i * 7
		values[i] = fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5, base+6, base+7)
		args = append(args, t.UUID, t.EventID, t.CategoryID, t.Status, t.Creation, t.OriginalPriceCents, t.PaidPriceCents)
	}

	query := fmt.Sprintf(`
		INSERT INTO ticket
		(
			uuid, event_id, category_id, status, creation, original_price_cents, paid_price_cents
		)
		VALUES
			%s
	`, strings.Join(values, ", "))

	_, err := cmd.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving bunch of ticket's properties")
	}

	return nil
}

// SelectFreeForUpdate implements TicketRepository. It leases up to
// limit FREE tickets under an exclusive row lock; rows already locked
// by a concurrent operation are skipped, so a shortfall in the
// returned set is the caller's concurrent-modification signal.
func (r *ticketRepository) SelectFreeForUpdate(ctx context.Context, eventID, categoryID int64, limit int, tx *sql.Tx) ([]int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT id
		FROM ticket
		WHERE
			event_id = $1
			AND category_id = $2
			AND status = $3
		ORDER BY id
		LIMIT $4
		FOR UPDATE SKIP LOCKED
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while locking free tickets")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, eventID, categoryID, StatusFree, limit)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while locking free tickets")
	}

	defer rows.Close()

	var ids = make([]int64, 0, limit)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while locking free tickets")
		}

		ids = append(ids, id)
	}

	return ids, nil
}

// InvalidateByIDs implements TicketRepository. Invalidated tickets are
// retired, never deleted, so they can't re-enter circulation.
func (r *ticketRepository) InvalidateByIDs(ctx context.Context, ids []int64, tx *sql.Tx) error {
	if len(ids) == 0 {
		return nil
	}

	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE ticket
		SET
			status = $1
		WHERE
			id = ANY($2)
	`

	_, err := cmd.ExecContext(ctx, query, StatusInvalidated, pq.Array(ids))
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while invalidating tickets")
	}

	return nil
}

// UpdatePriceByIDs implements TicketRepository.
func (r *ticketRepository) UpdatePriceByIDs(ctx context.Context, ids []int64, paidPriceCents int64, tx *sql.Tx) error {
	if len(ids) == 0 {
		return nil
	}

	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE ticket
		SET
			paid_price_cents = $1
		WHERE
			id = ANY($2)
	`

	_, err := cmd.ExecContext(ctx, query, paidPriceCents, pq.Array(ids))
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating ticket's price")
	}

	return nil
}

// CountSold implements TicketRepository. Sold means any state owned by
// the checkout flow, which here is everything that is neither FREE nor
// INVALIDATED.
func (r *ticketRepository) CountSold(ctx context.Context, eventID, categoryID int64, tx *sql.Tx) (int, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT COUNT(id)
		FROM ticket
		WHERE
			event_id = $1
			AND category_id = $2
			AND status NOT IN ($3, $4)
	`

	var count int
	err := cmd.QueryRowContext(ctx, query, eventID, categoryID, StatusFree, StatusInvalidated).Scan(&count)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting sold tickets")
	}

	return count, nil
}

// CountCheckedIn implements TicketRepository.
func (r *ticketRepository) CountCheckedIn(ctx context.Context, eventID, categoryID int64, tx *sql.Tx) (int, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT COUNT(id)
		FROM ticket
		WHERE
			event_id = $1
			AND category_id = $2
			AND status = $3
	`

	var count int
	err := cmd.QueryRowContext(ctx, query, eventID, categoryID, StatusCheckedIn).Scan(&count)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting checked-in tickets")
	}

	return count, nil
}

// InvalidateAllByEventID implements TicketRepository. It retires every
// non-invalidated ticket of the event and reports how many rows were
// affected, which the caller compares against the allocated total.
func (r *ticketRepository) InvalidateAllByEventID(ctx context.Context, eventID int64, tx *sql.Tx) (int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE ticket
		SET
			status = $1
		WHERE
			event_id = $2
			AND status <> $1
	`

	result, err := cmd.ExecContext(ctx, query, StatusInvalidated, eventID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while invalidating event's tickets")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while invalidating event's tickets")
	}

	return affected, nil
}
