package applicant

import (
	"fmt"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/seepmela/mela/core"
)

// Roles
const (
	RoleApplicant   = "applicant"
	RoleVolunteer   = "volunteer"
	RoleCoordinator = "coordinator"
	RoleAdmin       = "admin"
	RoleSuperAdmin  = "superadmin"
)

var AdminRoles = []string{RoleAdmin, RoleSuperAdmin}

// Status is an applicant's lifecycle stage.
type Status string

const (
	StatusPending     Status = "pending"
	StatusVerified    Status = "verified"
	StatusShortlisted Status = "shortlisted"
	StatusSelected    Status = "selected"
	StatusAccepted    Status = "accepted"
	StatusAssigned    Status = "assigned"
	StatusRejected    Status = "rejected"
	StatusDropped     Status = "dropped"
)

var AllStatuses = []Status{
	StatusPending, StatusVerified, StatusShortlisted, StatusSelected,
	StatusAccepted, StatusAssigned, StatusRejected, StatusDropped,
}

// validTransitions is the admin transition graph. Statuses absent from the map
// (verified, accepted, rejected) are representable but not reachable through
// the transition workflow.
var validTransitions = map[Status][]Status{
	StatusPending:     {StatusShortlisted, StatusSelected, StatusAssigned, StatusDropped},
	StatusShortlisted: {StatusSelected, StatusAssigned, StatusDropped},
	StatusSelected:    {StatusAssigned, StatusDropped},
	StatusAssigned:    {StatusDropped},
	StatusDropped:     {},
}

func (s Status) IsValid() bool {
	for _, st := range AllStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the admin workflow may move an applicant
// from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, st := range validTransitions[s] {
		if st == next {
			return true
		}
	}
	return false
}

// RequiresSchedule reports whether a transition into s must carry a
// location, date and time.
func (s Status) RequiresSchedule() bool {
	return s == StatusShortlisted || s == StatusSelected || s == StatusAssigned
}

// FlexBool unmarshals both native JSON booleans and their string forms
// ("true"/"false"), which is how form submissions arrive. Unset defaults to
// false.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	s := strings.ToLower(strings.Trim(string(data), `"`))
	switch s {
	case "true", "1":
		*b = true
	case "false", "0", "", "null":
		*b = false
	default:
		return fmt.Errorf("cannot parse %q as bool", s)
	}
	return nil
}

func (b FlexBool) MarshalJSON() ([]byte, error) {
	if b {
		return []byte("true"), nil
	}
	return []byte("false"), nil
}

func (b FlexBool) Bool() bool { return bool(b) }

type Applicant struct {
	ID          string `json:"id"`
	ApplicantID string `json:"applicant_id"` // human-readable, e.g. KMC0042

	FullName            string `json:"full_name"`
	Gender              string `json:"gender,omitempty"`
	DateOfBirth         string `json:"date_of_birth,omitempty"` // Bikram Sambat date string
	Age                 int    `json:"age"`
	Ethnicity           string `json:"ethnicity,omitempty"`
	EducationLevel      string `json:"education_level,omitempty"`
	SectorOfInterest    string `json:"sector_of_interest,omitempty"`
	SelectedOccupations string `json:"selected_occupations,omitempty"`

	MobileNumber        string `json:"mobile_number"`
	AlternativeContact  string `json:"alternative_contact,omitempty"`
	Email               string `json:"email,omitempty"`
	CitizenshipNumber   string `json:"citizenship_number"` // Latin-digit canonical form
	CitizenshipDistrict string `json:"citizenship_issued_district,omitempty"`

	PermanentProvince     string `json:"permanent_province,omitempty"`
	PermanentDistrict     string `json:"permanent_district,omitempty"`
	PermanentMunicipality string `json:"permanent_municipality"`
	PermanentWardNo       string `json:"permanent_ward_no,omitempty"`
	SameAsPermanent       bool   `json:"same_as_permanent"`
	TemporaryProvince     string `json:"temporary_province,omitempty"`
	TemporaryDistrict     string `json:"temporary_district,omitempty"`
	TemporaryMunicipality string `json:"temporary_municipality,omitempty"`
	TemporaryWardNo       string `json:"temporary_ward_no,omitempty"`

	// declared attributes used in scoring
	DisabilityStatus     bool   `json:"disability_status"`
	DisabilityClass      string `json:"disability_class,omitempty"` // A-D
	StreetVendor         bool   `json:"street_vendor"`
	TaxPayerStatus       bool   `json:"tax_payer_status"`
	TaxPayerNumber       string `json:"tax_payer_number,omitempty"`
	SpecialLocation      bool   `json:"is_from_special_location"`
	RegisteredPrev       bool   `json:"registered_prev"`
	AlreadyTakenTraining bool   `json:"already_taken_training"`

	MarksObtained  int       `json:"marks_obtained"`
	InterviewMarks int       `json:"interview_marks"`
	TotalMarks     int       `json:"total_marks"`
	Breakdown      Breakdown `json:"marks_breakdown"`

	Status Status `json:"account_status"`
	Role   string `json:"role"`

	PasswordHash    []byte `json:"-"`
	PasswordChanged bool   `json:"-"`
	LoginAttempts   int    `json:"-"`
	IsLocked        bool   `json:"is_locked"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
	LastLogin time.Time `json:"last_login"` // UTC
}

func (a *Applicant) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Applicant) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a *Applicant) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSuperAdmin
}

func (a *Applicant) IsCoordinator() bool { return a.Role == RoleCoordinator }

// CanLogIn reports whether a plain applicant account has reached a stage that
// grants portal access. Staff roles always may.
func (a *Applicant) CanLogIn() bool {
	if a.Role != RoleApplicant {
		return true
	}
	switch a.Status {
	case StatusSelected, StatusAccepted, StatusAssigned:
		return true
	}
	return false
}

// ScoreInput returns the declared attributes the scoring engine reads.
func (a *Applicant) ScoreInput() ScoreInput {
	return ScoreInput{
		DisabilityStatus:      a.DisabilityStatus,
		DisabilityClass:       a.DisabilityClass,
		StreetVendor:          a.StreetVendor,
		Ethnicity:             a.Ethnicity,
		PermanentProvince:     a.PermanentProvince,
		PermanentDistrict:     a.PermanentDistrict,
		PermanentMunicipality: a.PermanentMunicipality,
		SpecialLocation:       a.SpecialLocation,
		TaxPayerStatus:        a.TaxPayerStatus,
		RegisteredPrev:        a.RegisteredPrev,
		AlreadyTakenTraining:  a.AlreadyTakenTraining,
	}
}

// NewApplicant contains the self-registration form.
type NewApplicant struct {
	FullName            string `json:"full_name" validate:"required"`
	Gender              string `json:"gender" validate:"omitempty,oneof=male female other"`
	DateOfBirth         string `json:"date_of_birth"`
	Age                 int    `json:"age" validate:"required,min=18,max=58"`
	Ethnicity           string `json:"ethnicity"`
	EducationLevel      string `json:"education_level"`
	SectorOfInterest    string `json:"sector_of_interest"`
	SelectedOccupations string `json:"selected_occupations"`

	MobileNumber        string `json:"mobile_number" validate:"required,nepmobile"`
	AlternativeContact  string `json:"alternative_contact"`
	Email               string `json:"email" validate:"omitempty,email"`
	CitizenshipNumber   string `json:"citizenship_number" validate:"required"`
	CitizenshipDistrict string `json:"citizenship_issued_district"`

	PermanentProvince     string   `json:"permanent_province"`
	PermanentDistrict     string   `json:"permanent_district"`
	PermanentMunicipality string   `json:"permanent_municipality" validate:"required"`
	PermanentWardNo       string   `json:"permanent_ward_no"`
	SameAsPermanent       FlexBool `json:"same_as_permanent"`
	TemporaryProvince     string   `json:"temporary_province"`
	TemporaryDistrict     string   `json:"temporary_district"`
	TemporaryMunicipality string   `json:"temporary_municipality"`
	TemporaryWardNo       string   `json:"temporary_ward_no"`

	DisabilityStatus     FlexBool  `json:"disability_status"`
	DisabilityClass      string    `json:"disability_class" validate:"omitempty,oneof=A B C D"`
	StreetVendor         FlexBool  `json:"street_vendor"`
	TaxPayerStatus       FlexBool  `json:"tax_payer_status"`
	TaxPayerNumber       string    `json:"tax_payer_number" validate:"omitempty,alphanum_"`
	SpecialLocation      FlexBool  `json:"is_from_special_location"`
	RegisteredPrev       *FlexBool `json:"registered_prev" validate:"required"`
	AlreadyTakenTraining *FlexBool `json:"already_taken_training" validate:"required"`
}

// Validate cleans the form, runs struct validation, normalizes the citizenship
// number and checks identity uniqueness.
func (na *NewApplicant) Validate(validate *validator.Validate, translator ut.Translator, svc *Service) error {
	na.FullName = core.CleanString(na.FullName)
	na.MobileNumber = core.CleanString(na.MobileNumber)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.Ethnicity = core.CleanString(na.Ethnicity)

	if err := validate.Struct(na); err != nil {
		return err
	}

	citizenship, err := NormalizeCitizenshipNumber(na.CitizenshipNumber)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "citizenship_number", Error: err.Error()})
	}
	na.CitizenshipNumber = citizenship

	return svc.CheckIdentityUniqueness(na.MobileNumber, na.Email, na.CitizenshipNumber)
}

// apply builds the Applicant record from the validated form; the stringly
// boolean fields are coerced here, once.
func (na *NewApplicant) apply(now time.Time) Applicant {
	return Applicant{
		FullName:              na.FullName,
		Gender:                na.Gender,
		DateOfBirth:           na.DateOfBirth,
		Age:                   na.Age,
		Ethnicity:             na.Ethnicity,
		EducationLevel:        na.EducationLevel,
		SectorOfInterest:      na.SectorOfInterest,
		SelectedOccupations:   na.SelectedOccupations,
		MobileNumber:          na.MobileNumber,
		AlternativeContact:    na.AlternativeContact,
		Email:                 na.Email,
		CitizenshipNumber:     na.CitizenshipNumber,
		CitizenshipDistrict:   na.CitizenshipDistrict,
		PermanentProvince:     na.PermanentProvince,
		PermanentDistrict:     na.PermanentDistrict,
		PermanentMunicipality: na.PermanentMunicipality,
		PermanentWardNo:       na.PermanentWardNo,
		SameAsPermanent:       na.SameAsPermanent.Bool(),
		TemporaryProvince:     na.TemporaryProvince,
		TemporaryDistrict:     na.TemporaryDistrict,
		TemporaryMunicipality: na.TemporaryMunicipality,
		TemporaryWardNo:       na.TemporaryWardNo,
		DisabilityStatus:      na.DisabilityStatus.Bool(),
		DisabilityClass:       na.DisabilityClass,
		StreetVendor:          na.StreetVendor.Bool(),
		TaxPayerStatus:        na.TaxPayerStatus.Bool(),
		TaxPayerNumber:        na.TaxPayerNumber,
		SpecialLocation:       na.SpecialLocation.Bool(),
		RegisteredPrev:        na.RegisteredPrev.Bool(),
		AlreadyTakenTraining:  na.AlreadyTakenTraining.Bool(),
		Status:                StatusPending,
		Role:                  RoleApplicant,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// UpdateApplicant defines what an admin may modify on an existing record.
// Declared scoring attributes trigger a rescore.
type UpdateApplicant struct {
	FullName            string `json:"full_name"`
	Gender              string `json:"gender" validate:"omitempty,oneof=male female other"`
	DateOfBirth         string `json:"date_of_birth"`
	Age                 *int   `json:"age" validate:"omitempty,min=18,max=58"`
	Ethnicity           *string `json:"ethnicity"`
	EducationLevel      string `json:"education_level"`
	SectorOfInterest    string `json:"sector_of_interest"`
	AlternativeContact  string `json:"alternative_contact"`
	Email               string `json:"email" validate:"omitempty,email"`
	CitizenshipDistrict string `json:"citizenship_issued_district"`

	PermanentProvince     *string `json:"permanent_province"`
	PermanentDistrict     *string `json:"permanent_district"`
	PermanentMunicipality *string `json:"permanent_municipality"`
	PermanentWardNo       string  `json:"permanent_ward_no"`
	TemporaryProvince     string  `json:"temporary_province"`
	TemporaryDistrict     string  `json:"temporary_district"`
	TemporaryMunicipality string  `json:"temporary_municipality"`
	TemporaryWardNo       string  `json:"temporary_ward_no"`

	DisabilityStatus     *FlexBool `json:"disability_status"`
	DisabilityClass      string    `json:"disability_class" validate:"omitempty,oneof=A B C D"`
	StreetVendor         *FlexBool `json:"street_vendor"`
	TaxPayerStatus       *FlexBool `json:"tax_payer_status"`
	SpecialLocation      *FlexBool `json:"is_from_special_location"`
	RegisteredPrev       *FlexBool `json:"registered_prev"`
	AlreadyTakenTraining *FlexBool `json:"already_taken_training"`
}

func (ua *UpdateApplicant) Validate(validate *validator.Validate) error {
	ua.FullName = core.CleanString(ua.FullName)
	ua.Email = core.CleanString(ua.Email, true /* lower */)
	return validate.Struct(ua)
}

// merge applies set fields onto orig; unset fields keep their current value.
func (ua *UpdateApplicant) merge(orig Applicant) Applicant {
	setStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setStr(&orig.FullName, ua.FullName)
	setStr(&orig.Gender, ua.Gender)
	setStr(&orig.DateOfBirth, ua.DateOfBirth)
	setStr(&orig.EducationLevel, ua.EducationLevel)
	setStr(&orig.SectorOfInterest, ua.SectorOfInterest)
	setStr(&orig.AlternativeContact, ua.AlternativeContact)
	setStr(&orig.Email, ua.Email)
	setStr(&orig.CitizenshipDistrict, ua.CitizenshipDistrict)
	setStr(&orig.PermanentWardNo, ua.PermanentWardNo)
	setStr(&orig.TemporaryProvince, ua.TemporaryProvince)
	setStr(&orig.TemporaryDistrict, ua.TemporaryDistrict)
	setStr(&orig.TemporaryMunicipality, ua.TemporaryMunicipality)
	setStr(&orig.TemporaryWardNo, ua.TemporaryWardNo)
	setStr(&orig.DisabilityClass, ua.DisabilityClass)

	if ua.Age != nil {
		orig.Age = *ua.Age
	}
	if ua.Ethnicity != nil {
		orig.Ethnicity = *ua.Ethnicity
	}
	if ua.PermanentProvince != nil {
		orig.PermanentProvince = *ua.PermanentProvince
	}
	if ua.PermanentDistrict != nil {
		orig.PermanentDistrict = *ua.PermanentDistrict
	}
	if ua.PermanentMunicipality != nil {
		orig.PermanentMunicipality = *ua.PermanentMunicipality
	}
	if ua.DisabilityStatus != nil {
		orig.DisabilityStatus = ua.DisabilityStatus.Bool()
	}
	if ua.StreetVendor != nil {
		orig.StreetVendor = ua.StreetVendor.Bool()
	}
	if ua.TaxPayerStatus != nil {
		orig.TaxPayerStatus = ua.TaxPayerStatus.Bool()
	}
	if ua.SpecialLocation != nil {
		orig.SpecialLocation = ua.SpecialLocation.Bool()
	}
	if ua.RegisteredPrev != nil {
		orig.RegisteredPrev = ua.RegisteredPrev.Bool()
	}
	if ua.AlreadyTakenTraining != nil {
		orig.AlreadyTakenTraining = ua.AlreadyTakenTraining.Bool()
	}
	return orig
}

// StatusChange is an admin status-transition request.
type StatusChange struct {
	Status   Status `json:"account_status" validate:"required"`
	Location string `json:"location"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

func (sc *StatusChange) Validate(validate *validator.Validate) error {
	sc.Location = core.CleanString(sc.Location)
	sc.Date = core.CleanString(sc.Date)
	sc.Time = core.CleanString(sc.Time)
	return validate.Struct(sc)
}

// Schedule is a location/date/time entry recorded for a shortlist, selection
// or assignment event.
type Schedule struct {
	ID          string    `json:"id"`
	ApplicantID string    `json:"applicant_id"` // Applicant.ID, not the human-readable one
	Location    string    `json:"location"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Message log kinds
const (
	MessageKindRegistration = "registration"
	MessageKindSelection    = "selection"
	MessageKindBulk         = "bulk"
)

// MessageLog records an outbound SMS for audit.
type MessageLog struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Mobile    string    `json:"mobile"`
	Message   string    `json:"message"`
	Succeeded bool      `json:"succeeded"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginLog records a login attempt.
type LoginLog struct {
	ID          string    `json:"id"`
	ApplicantID string    `json:"applicant_id,omitempty"`
	Identifier  string    `json:"identifier"` // mobile number or email as submitted
	FullName    string    `json:"full_name,omitempty"`
	Success     bool      `json:"success"`
	Status      string    `json:"status,omitempty"`
	IP          string    `json:"ip,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RegistrationEvent is broadcast to subscribed admin sessions when a new
// applicant registers.
type RegistrationEvent struct {
	Type        string    `json:"type"`
	Message     string    `json:"message"`
	ApplicantPK string    `json:"applicant_pk"`
	ApplicantID string    `json:"applicant_id"`
	FullName    string    `json:"full_name"`
	Timestamp   time.Time `json:"timestamp"`
}

// QueryFilter narrows admin listings; fields are ANDed.
type QueryFilter struct {
	Search    string `query:"search"` // matches name, mobile number or applicant ID
	Status    Status `query:"account_status"`
	Sector    string `query:"sector_of_interest"`
	SortMarks string `query:"sort_marks"` // asc|desc
	Page      int    `query:"page"`
	Limit     int    `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Sector = core.CleanString(qf.Sector)
	if qf.Page < 1 {
		qf.Page = 1
	}
	if qf.Limit < 1 || qf.Limit > 100 {
		qf.Limit = 20
	}
}

func (qf *QueryFilter) Offset() int { return (qf.Page - 1) * qf.Limit }
