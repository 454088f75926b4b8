package organization

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Praitheesh/alf.io/pkg/errors"
	"github.com/Praitheesh/alf.io/pkg/status"
)

type MembershipRepository interface {
	IsMember(ctx context.Context, organizationID, accountID int64, tx *sql.Tx) (bool, error)
	FindOrganizationIDs(ctx context.Context, accountID int64, tx *sql.Tx) ([]int64, error)
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type membershipRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewMembershipRepository(logger *logrus.Logger, db *sql.DB) MembershipRepository {
	return &membershipRepository{
		logger: logger,
		db:     db,
	}
}

// IsMember implements MembershipRepository.
func (r *membershipRepository) IsMember(ctx context.Context, organizationID, accountID int64, tx *sql.Tx) (bool, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM org_membership
			WHERE
				organization_id = $1
				AND account_id = $2
		)
	`

	var ok bool
	err := cmd.QueryRowContext(ctx, query, organizationID, accountID).Scan(&ok)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while checking organization membership")
	}

	return ok, nil
}

// FindOrganizationIDs implements MembershipRepository.
func (r *membershipRepository) FindOrganizationIDs(ctx context.Context, accountID int64, tx *sql.Tx) ([]int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT organization_id
		FROM org_membership
		WHERE
			account_id = $1
	`

	rows, err := cmd.QueryContext(ctx, query, accountID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of organization membership's properties")
	}

	defer rows.Close()

	var ids = make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of organization membership's properties")
		}

		ids = append(ids, id)
	}

	return ids, nil
}
