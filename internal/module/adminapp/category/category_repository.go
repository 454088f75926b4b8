package category

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Praitheesh/alf.io/pkg/errors"
	"github.com/Praitheesh/alf.io/pkg/status"
)

type CategoryRepository interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(ctx context.Context, tx *sql.Tx) error
	Rollback(ctx context.Context, tx *sql.Tx) error

	Save(ctx context.Context, tc TicketCategory, tx *sql.Tx) (int64, error)
	FindByID(ctx context.Context, ID, eventID int64, tx *sql.Tx) (TicketCategory, error)
	FindActiveByEventID(ctx context.Context, eventID int64, tx *sql.Tx) ([]TicketCategory, error)
	FindAllByEventID(ctx context.Context, eventID int64, tx *sql.Tx) ([]TicketCategory, error)
	Update(ctx context.Context, tc TicketCategory, tx *sql.Tx) error
	UpdateSeatsAvailability(ctx context.Context, ID int64, maxTickets int, tx *sql.Tx) error
	FixDates(ctx context.Context, ID int64, inception, expiration time.Time, tx *sql.Tx) error
	Deactivate(ctx context.Context, ID int64, tx *sql.Tx) error
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type categoryRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewCategoryRepository(logger *logrus.Logger, db *sql.DB) CategoryRepository {
	return &categoryRepository{
		logger: logger,
		db:     db,
	}
}

// BeginTx implements CategoryRepository.
func (r *categoryRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to begin transaction")
	}

	return tx, nil
}

// CommitTx implements CategoryRepository.
func (r *categoryRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to commit transaction")
	}

	return nil
}

// Rollback implements CategoryRepository.
func (r *categoryRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Rollback(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to rollback transaction")
	}

	return nil
}

// Save implements CategoryRepository.
func (r *categoryRepository) Save(ctx context.Context, tc TicketCategory, tx *sql.Tx) (int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO ticket_category
		(
			event_id, name, description, max_tickets, price_cents, inception, expiration, access_restricted, active
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6, $7, $8, TRUE
		)
		RETURNING id
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving ticket category's properties")
	}
	defer stmt.Close()

	var id int64
	err = stmt.QueryRowContext(ctx, tc.EventID, tc.Name, tc.Description, tc.MaxTickets, tc.PriceCents, tc.Inception, tc.Expiration, tc.AccessRestricted).Scan(&id)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving ticket category's properties")
	}

	return id, nil
}

// FindByID implements CategoryRepository.
func (r *categoryRepository) FindByID(ctx context.Context, ID, eventID int64, tx *sql.Tx) (TicketCategory, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			id, event_id, name, description, max_tickets, price_cents, inception, expiration, access_restricted, active
		FROM ticket_category
		WHERE
			id = $1
			AND event_id = $2
		LIMIT 1
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return TicketCategory{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket category's properties")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, ID, eventID)

	var data TicketCategory
	err = row.Scan(&data.ID, &data.EventID, &data.Name, &data.Description, &data.MaxTickets, &data.PriceCents, &data.Inception, &data.Expiration, &data.AccessRestricted, &data.Active)
	if err != nil {
		if err == sql.ErrNoRows {
			return TicketCategory{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("ticket category with id '%d' is not found", ID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return TicketCategory{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket category's properties")
	}

	return data, nil
}

func (r *categoryRepository) findByEventID(ctx context.Context, eventID int64, activeOnly bool, tx *sql.Tx) ([]TicketCategory, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			id, event_id, name, description, max_tickets, price_cents, inception, expiration, access_restricted, active
		FROM ticket_category
		WHERE
			event_id = $1
	`
	if activeOnly {
		query += `
			AND active = TRUE
		`
	}
	query += `
		ORDER BY id
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of ticket category's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, eventID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of ticket category's properties")
	}

	defer rows.Close()

	var data = make([]TicketCategory, 0)
	for rows.Next() {
		var tc TicketCategory
		err := rows.Scan(&tc.ID, &tc.EventID, &tc.Name, &tc.Description, &tc.MaxTickets, &tc.PriceCents, &tc.Inception, &tc.Expiration, &tc.AccessRestricted, &tc.Active)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of ticket category's properties")
		}

		data = append(data, tc)
	}

	return data, nil
}

// FindActiveByEventID implements CategoryRepository.
func (r *categoryRepository) FindActiveByEventID(ctx context.Context, eventID int64, tx *sql.Tx) ([]TicketCategory, error) {
	return r.findByEventID(ctx, eventID, true, tx)
}

// FindAllByEventID implements CategoryRepository.
func (r *categoryRepository) FindAllByEventID(ctx context.Context, eventID int64, tx *sql.Tx) ([]TicketCategory, error) {
	return r.findByEventID(ctx, eventID, false, tx)
}

// Update implements CategoryRepository.
func (r *categoryRepository) Update(ctx context.Context, tc TicketCategory, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE ticket_category
		SET
			name = $1,
			description = $2,
			max_tickets = $3,
			price_cents = $4,
			inception = $5,
			expiration = $6,
			access_restricted = $7
		WHERE
			id = $8
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating ticket category's properties")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, tc.Name, tc.Description, tc.MaxTickets, tc.PriceCents, tc.Inception, tc.Expiration, tc.AccessRestricted, tc.ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating ticket category's properties")
	}

	return nil
}

// UpdateSeatsAvailability implements CategoryRepository.
func (r *categoryRepository) UpdateSeatsAvailability(ctx context.Context, ID int64, maxTickets int, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE ticket_category
		SET
			max_tickets = $1
		WHERE
			id = $2
	`

	_, err := cmd.ExecContext(ctx, query, maxTickets, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating ticket category's seats availability")
	}

	return nil
}

// FixDates implements CategoryRepository.
func (r *categoryRepository) FixDates(ctx context.Context, ID int64, inception, expiration time.Time, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE ticket_category
		SET
			inception = $1,
			expiration = $2
		WHERE
			id = $3
	`

	_, err := cmd.ExecContext(ctx, query, inception, expiration, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating ticket category's dates")
	}

	return nil
}

// Deactivate implements CategoryRepository.
func (r *categoryRepository) Deactivate(ctx context.Context, ID int64, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE ticket_category
		SET
			active = FALSE
		WHERE
			id = $1
	`

	_, err := cmd.ExecContext(ctx, query, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while deactivating ticket category")
	}

	return nil
}
