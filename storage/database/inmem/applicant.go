package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/seepmela/mela/core/applicant"
)

type applicantRepository struct {
	db *DB
}

func NewApplicantRepository(db *DB) applicant.Repository {
	return &applicantRepository{db: db}
}

func (repo *applicantRepository) query() []applicant.Applicant {
	apps := make([]applicant.Applicant, 0, len(repo.db.applicants))
	for _, a := range repo.db.applicants {
		apps = append(apps, *a)
	}
	return apps
}

func (repo *applicantRepository) CheckIdentityUniqueness(
	_ context.Context, mobile, email, citizenship string, excluded ...applicant.Applicant,
) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excl := make(map[string]bool, len(excluded))
	for _, a := range excluded {
		excl[a.ID] = true
	}

	for _, a := range repo.query() {
		if excl[a.ID] {
			continue
		}
		if a.MobileNumber == mobile || a.CitizenshipNumber == citizenship {
			return applicant.ErrIdentityExists
		}
		if email != "" && a.Email == email {
			return applicant.ErrIdentityExists
		}
	}
	return nil
}

func (repo *applicantRepository) CreateApplicant(_ context.Context, a applicant.Applicant) (applicant.Applicant, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a.ID = uuid.New().String()
	repo.db.applicants[a.ID] = &a
	return a, nil
}

func (repo *applicantRepository) GetApplicantByID(_ context.Context, id string) (applicant.Applicant, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.applicants[id]; ok {
		return *a, nil
	}
	return applicant.Applicant{}, applicant.ErrNotFound
}

func (repo *applicantRepository) GetApplicantByApplicantID(_ context.Context, applicantID string) (applicant.Applicant, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, a := range repo.query() {
		if a.ApplicantID == applicantID {
			return a, nil
		}
	}
	return applicant.Applicant{}, applicant.ErrNotFound
}

func (repo *applicantRepository) GetApplicantByMobileOrEmail(_ context.Context, identifier string) (applicant.Applicant, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, a := range repo.query() {
		if (a.MobileNumber == identifier) || (a.Email != "" && a.Email == identifier) {
			return a, nil
		}
	}
	return applicant.Applicant{}, applicant.ErrNotFound
}

func (repo *applicantRepository) FilterApplicants(_ context.Context, filter applicant.QueryFilter) ([]applicant.Applicant, int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	search := strings.ToLower(filter.Search)
	var matched []applicant.Applicant
	for _, a := range repo.query() {
		if search != "" &&
			!strings.Contains(strings.ToLower(a.FullName), search) &&
			!strings.Contains(a.MobileNumber, filter.Search) &&
			!strings.Contains(strings.ToLower(a.ApplicantID), search) {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Sector != "" && a.SectorOfInterest != filter.Sector {
			continue
		}
		matched = append(matched, a)
	}

	sort.Slice(matched, func(i, j int) bool {
		if filter.SortMarks == "asc" {
			return matched[i].TotalMarks < matched[j].TotalMarks
		}
		return matched[i].TotalMarks > matched[j].TotalMarks
	})

	total := len(matched)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if filter.Limit <= 0 || end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (repo *applicantRepository) CountByStatus(_ context.Context) (map[applicant.Status]int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	counts := make(map[applicant.Status]int)
	for _, a := range repo.query() {
		counts[a.Status]++
	}
	return counts, nil
}

func (repo *applicantRepository) UpdateApplicant(_ context.Context, a applicant.Applicant) (applicant.Applicant, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.applicants[a.ID]; !ok {
		return applicant.Applicant{}, applicant.ErrNotFound
	}
	repo.db.applicants[a.ID] = &a
	return a, nil
}

func (repo *applicantRepository) DeleteApplicantsByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.applicants, id)
	}
	return nil
}
