package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/seepmela/mela/core/applicant"
)

type scheduleRepository struct {
	db *sqlx.DB
}

var _ applicant.ScheduleRepository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *sql.DB) *scheduleRepository {
	return &scheduleRepository{db: sqlx.NewDb(db, "postgres")}
}

type dbSchedule struct {
	ID          string    `db:"id"`
	ApplicantID string    `db:"applicant_id"`
	Location    string    `db:"location"`
	Date        string    `db:"date"`
	Time        string    `db:"time"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
}

func (repo scheduleRepository) CreateSchedule(ctx context.Context, s applicant.Schedule) (applicant.Schedule, error) {
	s.ID = uuid.New().String()
	row := dbSchedule{
		ID:          s.ID,
		ApplicantID: s.ApplicantID,
		Location:    s.Location,
		Date:        s.Date,
		Time:        s.Time,
		Status:      string(s.Status),
		CreatedAt:   s.CreatedAt.UTC(),
	}
	query := `INSERT INTO schedule (id, applicant_id, location, date, time, status, created_at)
VALUES (:id, :applicant_id, :location, :date, :time, :status, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, row); err != nil {
		return applicant.Schedule{}, errors.Wrap(err, "inserting schedule")
	}
	return s, nil
}

func (repo scheduleRepository) QuerySchedulesByApplicant(ctx context.Context, applicantPK string) ([]applicant.Schedule, error) {
	var rows []dbSchedule
	query := `SELECT id, applicant_id, location, date, time, status, created_at
FROM schedule WHERE applicant_id = $1 ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, query, applicantPK); err != nil {
		return nil, errors.Wrap(err, "querying schedules")
	}
	scheds := make([]applicant.Schedule, 0, len(rows))
	for _, row := range rows {
		scheds = append(scheds, applicant.Schedule{
			ID:          row.ID,
			ApplicantID: row.ApplicantID,
			Location:    row.Location,
			Date:        row.Date,
			Time:        row.Time,
			Status:      applicant.Status(row.Status),
			CreatedAt:   row.CreatedAt,
		})
	}
	return scheds, nil
}
