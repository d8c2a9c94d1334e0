package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/seepmela/mela/core/applicant"
)

type counterRepository struct {
	db *sqlx.DB
}

var _ applicant.CounterRepository = (*counterRepository)(nil) // interface compliance check

func NewCounterRepository(db *sql.DB) *counterRepository {
	return &counterRepository{db: sqlx.NewDb(db, "postgres")}
}

const applicantSeqName = "applicantId"

// NextApplicantSeq atomically bumps and returns the applicant sequence.
// Concurrent registrations never observe the same value; the row lock taken by
// the upsert serializes them.
func (repo counterRepository) NextApplicantSeq(ctx context.Context) (int, error) {
	query := `INSERT INTO counter (name, seq) VALUES ($1, 1)
ON CONFLICT (name) DO UPDATE SET seq = counter.seq + 1
RETURNING seq`
	var seq int
	if err := repo.db.GetContext(ctx, &seq, query, applicantSeqName); err != nil {
		return 0, errors.Wrap(err, "incrementing applicant sequence")
	}
	return seq, nil
}
