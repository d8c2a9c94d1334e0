package sqlxrepos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/seepmela/mela/core"
	"github.com/seepmela/mela/core/applicant"
)

type applicantRepository struct {
	db *sqlx.DB
}

var _ applicant.Repository = (*applicantRepository)(nil) // interface compliance check

func NewApplicantRepository(db *sql.DB) *applicantRepository {
	return &applicantRepository{db: sqlx.NewDb(db, "postgres")}
}

// breakdownJSON maps applicant.Breakdown onto a JSONB column.
type breakdownJSON applicant.Breakdown

func (b breakdownJSON) Value() (driver.Value, error) {
	if b == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(b)
}

func (b *breakdownJSON) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	case nil:
		*b = nil
		return nil
	}
	return errors.Errorf("unsupported breakdown type %T", src)
}

type dbApplicant struct {
	ID                    string        `db:"id"`
	ApplicantID           string        `db:"applicant_id"`
	FullName              string        `db:"full_name"`
	Gender                string        `db:"gender"`
	DateOfBirth           string        `db:"date_of_birth"`
	Age                   int           `db:"age"`
	Ethnicity             string        `db:"ethnicity"`
	EducationLevel        string        `db:"education_level"`
	SectorOfInterest      string        `db:"sector_of_interest"`
	SelectedOccupations   string        `db:"selected_occupations"`
	MobileNumber          string        `db:"mobile_number"`
	AlternativeContact    string        `db:"alternative_contact"`
	Email                 string        `db:"email"`
	CitizenshipNumber     string        `db:"citizenship_number"`
	CitizenshipDistrict   string        `db:"citizenship_district"`
	PermanentProvince     string        `db:"permanent_province"`
	PermanentDistrict     string        `db:"permanent_district"`
	PermanentMunicipality string        `db:"permanent_municipality"`
	PermanentWardNo       string        `db:"permanent_ward_no"`
	SameAsPermanent       bool          `db:"same_as_permanent"`
	TemporaryProvince     string        `db:"temporary_province"`
	TemporaryDistrict     string        `db:"temporary_district"`
	TemporaryMunicipality string        `db:"temporary_municipality"`
	TemporaryWardNo       string        `db:"temporary_ward_no"`
	DisabilityStatus      bool          `db:"disability_status"`
	DisabilityClass       string        `db:"disability_class"`
	StreetVendor          bool          `db:"street_vendor"`
	TaxPayerStatus        bool          `db:"tax_payer_status"`
	TaxPayerNumber        string        `db:"tax_payer_number"`
	SpecialLocation       bool          `db:"special_location"`
	RegisteredPrev        bool          `db:"registered_prev"`
	AlreadyTakenTraining  bool          `db:"already_taken_training"`
	MarksObtained         int           `db:"marks_obtained"`
	InterviewMarks        int           `db:"interview_marks"`
	TotalMarks            int           `db:"total_marks"`
	Breakdown             breakdownJSON `db:"marks_breakdown"`
	Status                string        `db:"status"`
	Role                  string        `db:"role"`
	PasswordHash          []byte        `db:"password_hash"`
	PasswordChanged       bool          `db:"password_changed"`
	LoginAttempts         int           `db:"login_attempts"`
	IsLocked              bool          `db:"is_locked"`
	CreatedAt             time.Time     `db:"created_at"`
	UpdatedAt             time.Time     `db:"updated_at"`
	LastLogin             sql.NullTime  `db:"last_login"`
}

func toRow(a applicant.Applicant) dbApplicant {
	row := dbApplicant{
		ID:                    a.ID,
		ApplicantID:           a.ApplicantID,
		FullName:              a.FullName,
		Gender:                a.Gender,
		DateOfBirth:           a.DateOfBirth,
		Age:                   a.Age,
		Ethnicity:             a.Ethnicity,
		EducationLevel:        a.EducationLevel,
		SectorOfInterest:      a.SectorOfInterest,
		SelectedOccupations:   a.SelectedOccupations,
		MobileNumber:          a.MobileNumber,
		AlternativeContact:    a.AlternativeContact,
		Email:                 a.Email,
		CitizenshipNumber:     a.CitizenshipNumber,
		CitizenshipDistrict:   a.CitizenshipDistrict,
		PermanentProvince:     a.PermanentProvince,
		PermanentDistrict:     a.PermanentDistrict,
		PermanentMunicipality: a.PermanentMunicipality,
		PermanentWardNo:       a.PermanentWardNo,
		SameAsPermanent:       a.SameAsPermanent,
		TemporaryProvince:     a.TemporaryProvince,
		TemporaryDistrict:     a.TemporaryDistrict,
		TemporaryMunicipality: a.TemporaryMunicipality,
		TemporaryWardNo:       a.TemporaryWardNo,
		DisabilityStatus:      a.DisabilityStatus,
		DisabilityClass:       a.DisabilityClass,
		StreetVendor:          a.StreetVendor,
		TaxPayerStatus:        a.TaxPayerStatus,
		TaxPayerNumber:        a.TaxPayerNumber,
		SpecialLocation:       a.SpecialLocation,
		RegisteredPrev:        a.RegisteredPrev,
		AlreadyTakenTraining:  a.AlreadyTakenTraining,
		MarksObtained:         a.MarksObtained,
		InterviewMarks:        a.InterviewMarks,
		TotalMarks:            a.TotalMarks,
		Breakdown:             breakdownJSON(a.Breakdown),
		Status:                string(a.Status),
		Role:                  a.Role,
		PasswordHash:          a.PasswordHash,
		PasswordChanged:       a.PasswordChanged,
		LoginAttempts:         a.LoginAttempts,
		IsLocked:              a.IsLocked,
		CreatedAt:             a.CreatedAt.UTC(),
		UpdatedAt:             a.UpdatedAt.UTC(),
	}
	if !a.LastLogin.IsZero() {
		row.LastLogin = sql.NullTime{Time: a.LastLogin.UTC(), Valid: true}
	}
	return row
}

func (row dbApplicant) toDomain() applicant.Applicant {
	a := applicant.Applicant{
		ID:                    row.ID,
		ApplicantID:           row.ApplicantID,
		FullName:              row.FullName,
		Gender:                row.Gender,
		DateOfBirth:           row.DateOfBirth,
		Age:                   row.Age,
		Ethnicity:             row.Ethnicity,
		EducationLevel:        row.EducationLevel,
		SectorOfInterest:      row.SectorOfInterest,
		SelectedOccupations:   row.SelectedOccupations,
		MobileNumber:          row.MobileNumber,
		AlternativeContact:    row.AlternativeContact,
		Email:                 row.Email,
		CitizenshipNumber:     row.CitizenshipNumber,
		CitizenshipDistrict:   row.CitizenshipDistrict,
		PermanentProvince:     row.PermanentProvince,
		PermanentDistrict:     row.PermanentDistrict,
		PermanentMunicipality: row.PermanentMunicipality,
		PermanentWardNo:       row.PermanentWardNo,
		SameAsPermanent:       row.SameAsPermanent,
		TemporaryProvince:     row.TemporaryProvince,
		TemporaryDistrict:     row.TemporaryDistrict,
		TemporaryMunicipality: row.TemporaryMunicipality,
		TemporaryWardNo:       row.TemporaryWardNo,
		DisabilityStatus:      row.DisabilityStatus,
		DisabilityClass:       row.DisabilityClass,
		StreetVendor:          row.StreetVendor,
		TaxPayerStatus:        row.TaxPayerStatus,
		TaxPayerNumber:        row.TaxPayerNumber,
		SpecialLocation:       row.SpecialLocation,
		RegisteredPrev:        row.RegisteredPrev,
		AlreadyTakenTraining:  row.AlreadyTakenTraining,
		MarksObtained:         row.MarksObtained,
		InterviewMarks:        row.InterviewMarks,
		TotalMarks:            row.TotalMarks,
		Breakdown:             applicant.Breakdown(row.Breakdown),
		Status:                applicant.Status(row.Status),
		Role:                  row.Role,
		PasswordHash:          row.PasswordHash,
		PasswordChanged:       row.PasswordChanged,
		LoginAttempts:         row.LoginAttempts,
		IsLocked:              row.IsLocked,
		CreatedAt:             row.CreatedAt,
		UpdatedAt:             row.UpdatedAt,
	}
	if row.LastLogin.Valid {
		a.LastLogin = row.LastLogin.Time
	}
	return a
}

// trapNoRowsErr maps psql "no rows" to applicant.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return applicant.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

const applicantColumns = `id, applicant_id, full_name, gender, date_of_birth, age, ethnicity,
education_level, sector_of_interest, selected_occupations, mobile_number, alternative_contact,
email, citizenship_number, citizenship_district, permanent_province, permanent_district,
permanent_municipality, permanent_ward_no, same_as_permanent, temporary_province,
temporary_district, temporary_municipality, temporary_ward_no, disability_status,
disability_class, street_vendor, tax_payer_status, tax_payer_number, special_location,
registered_prev, already_taken_training, marks_obtained, interview_marks, total_marks,
marks_breakdown, status, role, password_hash, password_changed, login_attempts, is_locked,
created_at, updated_at, last_login`

func (repo applicantRepository) CheckIdentityUniqueness(
	ctx context.Context, mobile, email, citizenship string, excluded ...applicant.Applicant,
) error {
	conds := []string{"mobile_number = ?", "citizenship_number = ?"}
	args := []interface{}{mobile, citizenship}
	if email != "" {
		conds = append(conds, "email = ?")
		args = append(args, email)
	}
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM applicant WHERE (%s)", strings.Join(conds, " OR "))
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, a := range excluded {
			ids = append(ids, a.ID)
		}
		inQuery, inArgs, err := sqlx.In(" AND id NOT IN (?)", ids)
		if err != nil {
			return errors.Wrap(err, "building exclusion clause")
		}
		query += inQuery
		args = append(args, inArgs...)
	}
	query += ")"

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking applicant uniqueness")
	}
	if exists {
		return applicant.ErrIdentityExists
	}
	return nil
}

func (repo applicantRepository) CreateApplicant(ctx context.Context, a applicant.Applicant) (applicant.Applicant, error) {
	a.ID = uuid.New().String()
	row := toRow(a)
	query := fmt.Sprintf(`INSERT INTO applicant (%s) VALUES (:id, :applicant_id, :full_name, :gender,
:date_of_birth, :age, :ethnicity, :education_level, :sector_of_interest, :selected_occupations,
:mobile_number, :alternative_contact, :email, :citizenship_number, :citizenship_district,
:permanent_province, :permanent_district, :permanent_municipality, :permanent_ward_no,
:same_as_permanent, :temporary_province, :temporary_district, :temporary_municipality,
:temporary_ward_no, :disability_status, :disability_class, :street_vendor, :tax_payer_status,
:tax_payer_number, :special_location, :registered_prev, :already_taken_training, :marks_obtained,
:interview_marks, :total_marks, :marks_breakdown, :status, :role, :password_hash,
:password_changed, :login_attempts, :is_locked, :created_at, :updated_at, :last_login)`, applicantColumns)
	if _, err := repo.db.NamedExecContext(ctx, query, row); err != nil {
		return applicant.Applicant{}, errors.Wrap(err, "inserting applicant")
	}
	return a, nil
}

func (repo applicantRepository) getOne(ctx context.Context, where string, args ...interface{}) (applicant.Applicant, error) {
	var row dbApplicant
	query := fmt.Sprintf("SELECT %s FROM applicant WHERE %s LIMIT 1", applicantColumns, where)
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(query), args...); err != nil {
		return applicant.Applicant{}, trapNoRowsErr(err, "getting applicant")
	}
	return row.toDomain(), nil
}

func (repo applicantRepository) GetApplicantByID(ctx context.Context, id string) (applicant.Applicant, error) {
	return repo.getOne(ctx, "id = ?", id)
}

func (repo applicantRepository) GetApplicantByApplicantID(ctx context.Context, applicantID string) (applicant.Applicant, error) {
	return repo.getOne(ctx, "applicant_id = ?", applicantID)
}

func (repo applicantRepository) GetApplicantByMobileOrEmail(ctx context.Context, identifier string) (applicant.Applicant, error) {
	return repo.getOne(ctx, "mobile_number = ? OR email = ?", identifier, identifier)
}

func (repo applicantRepository) FilterApplicants(ctx context.Context, filter applicant.QueryFilter) ([]applicant.Applicant, int, error) {
	conds := []string{"1 = 1"}
	var args []interface{}

	if filter.Search != "" {
		conds = append(conds, "(full_name ILIKE ? OR mobile_number ILIKE ? OR applicant_id ILIKE ?)")
		like := "%" + filter.Search + "%"
		args = append(args, like, like, like)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Sector != "" {
		conds = append(conds, "sector_of_interest = ?")
		args = append(args, filter.Sector)
	}
	where := strings.Join(conds, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM applicant WHERE %s", where)
	if err := repo.db.GetContext(ctx, &total, repo.db.Rebind(countQuery), args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting applicants")
	}

	order := core.DBOrdering{Field: "total_marks", Ascending: filter.SortMarks == "asc"}
	query := fmt.Sprintf(
		"SELECT %s FROM applicant WHERE %s ORDER BY %s, created_at DESC LIMIT ? OFFSET ?",
		applicantColumns, where, order,
	)
	args = append(args, filter.Limit, filter.Offset())

	var rows []dbApplicant
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, 0, errors.Wrap(err, "filtering applicants")
	}

	apps := make([]applicant.Applicant, 0, len(rows))
	for _, row := range rows {
		apps = append(apps, row.toDomain())
	}
	return apps, total, nil
}

func (repo applicantRepository) CountByStatus(ctx context.Context) (map[applicant.Status]int, error) {
	rows, err := repo.db.QueryxContext(ctx, "SELECT status, COUNT(*) FROM applicant GROUP BY status")
	if err != nil {
		return nil, errors.Wrap(err, "counting by status")
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[applicant.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err = rows.Scan(&status, &count); err != nil {
			return nil, errors.Wrap(err, "counting by status")
		}
		counts[applicant.Status(status)] = count
	}
	return counts, rows.Err()
}

func (repo applicantRepository) UpdateApplicant(ctx context.Context, a applicant.Applicant) (applicant.Applicant, error) {
	row := toRow(a)
	query := `UPDATE applicant SET full_name = :full_name, gender = :gender,
date_of_birth = :date_of_birth, age = :age, ethnicity = :ethnicity,
education_level = :education_level, sector_of_interest = :sector_of_interest,
selected_occupations = :selected_occupations, alternative_contact = :alternative_contact,
email = :email, citizenship_district = :citizenship_district,
permanent_province = :permanent_province, permanent_district = :permanent_district,
permanent_municipality = :permanent_municipality, permanent_ward_no = :permanent_ward_no,
same_as_permanent = :same_as_permanent, temporary_province = :temporary_province,
temporary_district = :temporary_district, temporary_municipality = :temporary_municipality,
temporary_ward_no = :temporary_ward_no, disability_status = :disability_status,
disability_class = :disability_class, street_vendor = :street_vendor,
tax_payer_status = :tax_payer_status, tax_payer_number = :tax_payer_number,
special_location = :special_location, registered_prev = :registered_prev,
already_taken_training = :already_taken_training, marks_obtained = :marks_obtained,
interview_marks = :interview_marks, total_marks = :total_marks,
marks_breakdown = :marks_breakdown, status = :status, role = :role,
password_hash = :password_hash, password_changed = :password_changed,
login_attempts = :login_attempts, is_locked = :is_locked, updated_at = :updated_at,
last_login = :last_login
WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return applicant.Applicant{}, errors.Wrap(err, "updating applicant")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return applicant.Applicant{}, applicant.ErrNotFound
	}
	return a, nil
}

func (repo applicantRepository) DeleteApplicantsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In("DELETE FROM applicant WHERE id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting applicants")
	}
	return nil
}
