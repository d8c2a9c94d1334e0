package inmemdb

import (
	"context"

	"github.com/seepmela/mela/core/applicant"
)

type counterRepository struct {
	db *DB
}

func NewCounterRepository(db *DB) applicant.CounterRepository {
	return &counterRepository{db: db}
}

func (repo *counterRepository) NextApplicantSeq(_ context.Context) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.counters["applicantId"]++
	return repo.db.counters["applicantId"], nil
}
