package event

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/Praitheesh/alf.io/pkg/errors"
	"github.com/Praitheesh/alf.io/pkg/status"
)

type EventRepository interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(ctx context.Context, tx *sql.Tx) error
	Rollback(ctx context.Context, tx *sql.Tx) error

	Save(ctx context.Context, e Event, tx *sql.Tx) (int64, error)
	FindByID(ctx context.Context, ID int64, tx *sql.Tx) (Event, error)
	FindManyByOrganizationIDs(ctx context.Context, organizationIDs []int64, tx *sql.Tx) ([]Event, error)
	Update(ctx context.Context, e Event, tx *sql.Tx) error
	UpdateHeader(ctx context.Context, e Event, tx *sql.Tx) error
	UpdatePrices(ctx context.Context, ID int64, regularPriceCents int64, currency string, availableSeats int, vatIncluded bool, vat float64, tx *sql.Tx) error
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type eventRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewEventRepository(logger *logrus.Logger, db *sql.DB) EventRepository {
	return &eventRepository{
		logger: logger,
		db:     db,
	}
}

// BeginTx implements EventRepository. Administrative edits run as one
// serializable unit of work.
func (r *eventRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to begin transaction")
	}

	return tx, nil
}

// CommitTx implements EventRepository.
func (r *eventRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to commit transaction")
	}

	return nil
}

// Rollback implements EventRepository.
func (r *eventRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Rollback(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to rollback transaction")
	}

	return nil
}

const eventColumns = `
	id, short_name, description, website_url, terms_url, image_url, location, latitude, longitude,
	begins_at, ends_at, time_zone, regular_price_cents, currency, available_seats,
	vat_included, vat, free_of_charge, organization_id, private_key, created_at, updated_at
`

func scanEvent(row interface{ Scan(...interface{}) error }) (Event, error) {
	var e Event
	err := row.Scan(
		&e.ID, &e.ShortName, &e.Description, &e.WebsiteURL, &e.TermsURL, &e.ImageURL, &e.Location, &e.Latitude, &e.Longitude,
		&e.BeginsAt, &e.EndsAt, &e.TimeZone, &e.RegularPriceCents, &e.Currency, &e.AvailableSeats,
		&e.VATIncluded, &e.VAT, &e.FreeOfCharge, &e.OrganizationID, &e.PrivateKey, &e.CreatedAt, &e.UpdatedAt,
	)

	return e, err
}

// Save implements EventRepository.
func (r *eventRepository) Save(ctx context.Context, e Event, tx *sql.Tx) (int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO event
		(
			short_name, description, website_url, terms_url, image_url, location, latitude, longitude,
			begins_at, ends_at, time_zone, regular_price_cents, currency, available_seats,
			vat_included, vat, free_of_charge, organization_id, private_key, created_at, updated_at
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21
		)
		RETURNING id
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving event's properties")
	}
	defer stmt.Close()

	var id int64
	err = stmt.QueryRowContext(ctx,
		e.ShortName, e.Description, e.WebsiteURL, e.TermsURL, e.ImageURL, e.Location, e.Latitude, e.Longitude,
		e.BeginsAt, e.EndsAt, e.TimeZone, e.RegularPriceCents, e.Currency, e.AvailableSeats,
		e.VATIncluded, e.VAT, e.FreeOfCharge, e.OrganizationID, e.PrivateKey, e.CreatedAt, e.UpdatedAt,
	).Scan(&id)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving event's properties")
	}

	return id, nil
}

// FindByID implements EventRepository.
func (r *eventRepository) FindByID(ctx context.Context, ID int64, tx *sql.Tx) (Event, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM event
		WHERE
			id = $1
		LIMIT 1
	`, eventColumns)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Event{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting event's properties")
	}
	defer stmt.Close()

	data, err := scanEvent(stmt.QueryRowContext(ctx, ID))
	if err != nil {
		if err == sql.ErrNoRows {
			return Event{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("event with id '%d' is not found", ID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Event{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting event's properties")
	}

	return data, nil
}

// FindManyByOrganizationIDs implements EventRepository.
func (r *eventRepository) FindManyByOrganizationIDs(ctx context.Context, organizationIDs []int64, tx *sql.Tx) ([]Event, error) {
	if len(organizationIDs) == 0 {
		return []Event{}, nil
	}

	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM event
		WHERE
			organization_id = ANY($1)
		ORDER BY begins_at
	`, eventColumns)

	rows, err := cmd.QueryContext(ctx, query, pq.Array(organizationIDs))
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of event's properties")
	}

	defer rows.Close()

	var data = make([]Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of event's properties")
		}

		data = append(data, e)
	}

	return data, nil
}

// Update implements EventRepository. Full rewrite of the mutable
// columns, used by the zero-sold-tickets event update.
func (r *eventRepository) Update(ctx context.Context, e Event, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE event
		SET
			short_name = $1,
			description = $2,
			website_url = $3,
			terms_url = $4,
			image_url = $5,
			location = $6,
			latitude = $7,
			longitude = $8,
			begins_at = $9,
			ends_at = $10,
			time_zone = $11,
			regular_price_cents = $12,
			currency = $13,
			available_seats = $14,
			vat_included = $15,
			vat = $16,
			free_of_charge = $17,
			updated_at = $18
		WHERE
			id = $19
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating event's properties")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		e.ShortName, e.Description, e.WebsiteURL, e.TermsURL, e.ImageURL, e.Location, e.Latitude, e.Longitude,
		e.BeginsAt, e.EndsAt, e.TimeZone, e.RegularPriceCents, e.Currency, e.AvailableSeats,
		e.VATIncluded, e.VAT, e.FreeOfCharge, e.UpdatedAt, e.ID,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating event's properties")
	}

	return nil
}

// UpdateHeader implements EventRepository. Touches only the
// descriptive fields and the schedule window.
func (r *eventRepository) UpdateHeader(ctx context.Context, e Event, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE event
		SET
			description = $1,
			short_name = $2,
			website_url = $3,
			terms_url = $4,
			image_url = $5,
			location = $6,
			latitude = $7,
			longitude = $8,
			begins_at = $9,
			ends_at = $10,
			time_zone = $11,
			updated_at = $12
		WHERE
			id = $13
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating event's header")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		e.Description, e.ShortName, e.WebsiteURL, e.TermsURL, e.ImageURL, e.Location, e.Latitude, e.Longitude,
		e.BeginsAt, e.EndsAt, e.TimeZone, e.UpdatedAt, e.ID,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating event's header")
	}

	return nil
}

// UpdatePrices implements EventRepository.
func (r *eventRepository) UpdatePrices(ctx context.Context, ID int64, regularPriceCents int64, currency string, availableSeats int, vatIncluded bool, vat float64, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE event
		SET
			regular_price_cents = $1,
			currency = $2,
			available_seats = $3,
			vat_included = $4,
			vat = $5
		WHERE
			id = $6
	`

	_, err := cmd.ExecContext(ctx, query, regularPriceCents, currency, availableSeats, vatIncluded, vat, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating event's prices")
	}

	return nil
}
