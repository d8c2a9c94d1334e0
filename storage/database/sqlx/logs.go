package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/seepmela/mela/core/applicant"
)

type messageLogRepository struct {
	db *sqlx.DB
}

var _ applicant.MessageLogRepository = (*messageLogRepository)(nil) // interface compliance check

func NewMessageLogRepository(db *sql.DB) *messageLogRepository {
	return &messageLogRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo messageLogRepository) CreateMessageLog(ctx context.Context, l applicant.MessageLog) error {
	query := `INSERT INTO message_log (id, kind, mobile, message, succeeded, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, query,
		uuid.New().String(), l.Kind, l.Mobile, l.Message, l.Succeeded, l.CreatedAt.UTC())
	return errors.Wrap(err, "inserting message log")
}

type loginLogRepository struct {
	db *sqlx.DB
}

var _ applicant.LoginLogRepository = (*loginLogRepository)(nil) // interface compliance check

func NewLoginLogRepository(db *sql.DB) *loginLogRepository {
	return &loginLogRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo loginLogRepository) CreateLoginLog(ctx context.Context, l applicant.LoginLog) error {
	// anonymous attempts carry no applicant reference
	var applicantID sql.NullString
	if l.ApplicantID != "" {
		applicantID = sql.NullString{String: l.ApplicantID, Valid: true}
	}
	query := `INSERT INTO login_log (id, applicant_id, identifier, full_name, success, status, ip, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.ExecContext(ctx, query,
		uuid.New().String(), applicantID, l.Identifier, l.FullName, l.Success, l.Status, l.IP, l.UserAgent, l.CreatedAt.UTC())
	return errors.Wrap(err, "inserting login log")
}
