package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/seepmela/mela/core/applicant"
)

type scheduleRepository struct {
	db *DB
}

func NewScheduleRepository(db *DB) applicant.ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) CreateSchedule(_ context.Context, s applicant.Schedule) (applicant.Schedule, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s.ID = uuid.New().String()
	repo.db.schedules = append(repo.db.schedules, s)
	return s, nil
}

func (repo *scheduleRepository) QuerySchedulesByApplicant(_ context.Context, applicantPK string) ([]applicant.Schedule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var scheds []applicant.Schedule
	for _, s := range repo.db.schedules {
		if s.ApplicantID == applicantPK {
			scheds = append(scheds, s)
		}
	}
	return scheds, nil
}
