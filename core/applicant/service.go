package applicant

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/seepmela/mela/core"
)

// MaxLoginAttempts failed logins lock the account.
const MaxLoginAttempts = 5

// ApplicantIDPrefix prefixes the zero-padded sequential counter.
const ApplicantIDPrefix = "KMC"

var (
	// errors
	ErrNotFound       = errors.New("applicant not found")
	ErrIdentityExists = errors.New("an applicant is already registered with this email address, citizenship or mobile number")
	ErrAccountLocked  = errors.New("account is locked")
	ErrNotSelected    = errors.New("account has not been selected yet")
	ErrDropped        = errors.New("account has been dropped")
)

// InvalidCredentialsError carries the remaining attempts before lockout.
type InvalidCredentialsError struct {
	AttemptsRemaining int
}

func (e *InvalidCredentialsError) Error() string {
	return "the email, mobile number, or password you entered is incorrect"
}

type (
	Repository interface {
		// CheckIdentityUniqueness returns ErrIdentityExists when another
		// applicant already holds the mobile number, email (when set) or
		// citizenship number.
		CheckIdentityUniqueness(ctx context.Context, mobile, email, citizenship string, excluded ...Applicant) error
		CreateApplicant(ctx context.Context, a Applicant) (Applicant, error)
		GetApplicantByID(ctx context.Context, id string) (Applicant, error)
		GetApplicantByApplicantID(ctx context.Context, applicantID string) (Applicant, error)
		GetApplicantByMobileOrEmail(ctx context.Context, identifier string) (Applicant, error)
		// FilterApplicants applies AND on set QueryFilter fields;
		// QueryFilter.Search matches name, mobile number or applicant ID.
		FilterApplicants(ctx context.Context, filter QueryFilter) ([]Applicant, int, error)
		CountByStatus(ctx context.Context) (map[Status]int, error)
		UpdateApplicant(ctx context.Context, a Applicant) (Applicant, error)
		DeleteApplicantsByID(ctx context.Context, ids ...string) error
	}

	// CounterRepository hands out monotonically increasing applicant sequence
	// numbers; the increment must be atomic.
	CounterRepository interface {
		NextApplicantSeq(ctx context.Context) (int, error)
	}

	ScheduleRepository interface {
		CreateSchedule(ctx context.Context, s Schedule) (Schedule, error)
		QuerySchedulesByApplicant(ctx context.Context, applicantPK string) ([]Schedule, error)
	}

	MessageLogRepository interface {
		CreateMessageLog(ctx context.Context, l MessageLog) error
	}

	LoginLogRepository interface {
		CreateLoginLog(ctx context.Context, l LoginLog) error
	}

	// Notifier fans a registration event out to subscribed admin sessions.
	Notifier interface {
		BroadcastRegistration(evt RegistrationEvent)
	}

	Service struct {
		conf      *core.Config
		logger    core.Logger
		repo      Repository
		counters  CounterRepository
		schedules ScheduleRepository
		msgLogs   MessageLogRepository
		loginLogs LoginLogRepository
		notifier  Notifier
		mailSvc   core.EmailService
		smsSvc    core.SMSService
	}
)

func NewService(
	conf *core.Config,
	logger core.Logger,
	repo Repository,
	counters CounterRepository,
	schedules ScheduleRepository,
	msgLogs MessageLogRepository,
	loginLogs LoginLogRepository,
	notifier Notifier,
	mailSvc core.EmailService,
	smsSvc core.SMSService,
) *Service {
	return &Service{
		conf:      conf,
		logger:    logger,
		repo:      repo,
		counters:  counters,
		schedules: schedules,
		msgLogs:   msgLogs,
		loginLogs: loginLogs,
		notifier:  notifier,
		mailSvc:   mailSvc,
		smsSvc:    smsSvc,
	}
}

func (svc *Service) CheckIdentityUniqueness(mobile, email, citizenship string, excl ...Applicant) error {
	if err := svc.repo.CheckIdentityUniqueness(context.Background(), mobile, email, citizenship, excl...); err != nil {
		if errors.Cause(err) == ErrIdentityExists {
			return core.NewValidationError(err)
		}
		return err
	}
	return nil
}

// Register persists a validated self-registration: scores the applicant,
// allocates the next applicant ID, issues initial credentials and notifies.
// Messaging failures never fail the registration.
func (svc *Service) Register(ctx context.Context, na NewApplicant) (Applicant, error) {
	now := time.Now().UTC()
	app := na.apply(now)

	score := ComputeScore(app.ScoreInput())
	app.MarksObtained = score.TotalMarks
	app.TotalMarks = score.TotalMarks
	app.Breakdown = score.Breakdown

	pwd, err := GenerateStrongPassword(8)
	if err != nil {
		return Applicant{}, errors.Wrap(err, "generating password")
	}
	if err = app.SetPassword(pwd); err != nil {
		return Applicant{}, errors.Wrap(err, "hashing password")
	}

	seq, err := svc.counters.NextApplicantSeq(ctx)
	if err != nil {
		return Applicant{}, errors.Wrap(err, "allocating applicant ID")
	}
	app.ApplicantID = fmt.Sprintf("%s%04d", ApplicantIDPrefix, seq)

	app, err = svc.repo.CreateApplicant(ctx, app)
	if err != nil {
		return Applicant{}, errors.Wrap(err, "creating applicant")
	}

	svc.notifier.BroadcastRegistration(RegistrationEvent{
		Type:        "registration",
		Message:     "New registration – " + app.FullName,
		ApplicantPK: app.ID,
		ApplicantID: app.ApplicantID,
		FullName:    app.FullName,
		Timestamp:   now,
	})

	if err = svc.msgLogs.CreateMessageLog(ctx, MessageLog{
		Kind:      MessageKindRegistration,
		Mobile:    app.MobileNumber,
		Message:   app.ApplicantID,
		Succeeded: true,
		CreatedAt: now,
	}); err != nil {
		svc.logger.Error("logging registration message", err)
	}

	svc.smsSvc.SendMessages(&core.SMSMessage{
		Mobile:  app.MobileNumber,
		Message: welcomeSMS(app.ApplicantID),
	})
	if app.Email != "" {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: app.FullName, Address: app.Email}},
			Subject:      "Welcome To SeepMela",
			TemplateName: "welcome",
			TemplateData: welcomeEmailData{FullName: app.FullName, ApplicantID: app.ApplicantID},
		})
	}
	return app, nil
}

// UpdateStatus mutates an applicant's lifecycle status and performs the side
// effects the target status implies. Transitions into shortlisted, selected
// or assigned require a schedule; dropped is an independent terminal path.
func (svc *Service) UpdateStatus(ctx context.Context, id string, sc StatusChange) (Applicant, error) {
	if !sc.Status.IsValid() {
		return Applicant{}, core.NewValidationError(
			errors.New("unknown account status"),
			core.FieldError{Field: "account_status", Error: "unknown account status"},
		)
	}

	// terminal drop path: no schedule required
	if sc.Status == StatusDropped {
		return svc.drop(ctx, id)
	}

	if sc.Status.RequiresSchedule() && (sc.Location == "" || sc.Date == "" || sc.Time == "") {
		return Applicant{}, core.NewValidationError(errors.New("location, date and time is required"))
	}

	app, err := svc.repo.GetApplicantByID(ctx, id)
	if err != nil {
		return Applicant{}, err
	}
	if !app.Status.CanTransitionTo(sc.Status) {
		return Applicant{}, core.NewValidationError(
			errors.Errorf("cannot move applicant from %s to %s", app.Status, sc.Status),
			core.FieldError{Field: "account_status", Error: "invalid status transition"},
		)
	}
	app.Status = sc.Status
	app.UpdatedAt = time.Now().UTC()

	switch sc.Status {
	case StatusSelected:
		if err = svc.onSelected(ctx, &app, sc); err != nil {
			return Applicant{}, err
		}
	case StatusShortlisted:
		if err = svc.onShortlisted(ctx, app, sc); err != nil {
			return Applicant{}, err
		}
	case StatusAssigned:
		if err = svc.onAssigned(ctx, app, sc); err != nil {
			return Applicant{}, err
		}
	}

	// persist last so a failed side effect leaves the prior state readable
	return svc.repo.UpdateApplicant(ctx, app)
}

func (svc *Service) drop(ctx context.Context, id string) (Applicant, error) {
	app, err := svc.repo.GetApplicantByID(ctx, id)
	if err != nil {
		return Applicant{}, err
	}
	if !app.Status.CanTransitionTo(StatusDropped) {
		return Applicant{}, core.NewValidationError(
			errors.Errorf("cannot move applicant from %s to %s", app.Status, StatusDropped),
			core.FieldError{Field: "account_status", Error: "invalid status transition"},
		)
	}
	app.Status = StatusDropped
	app.IsLocked = true
	app.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateApplicant(ctx, app)
}

func (svc *Service) onSelected(ctx context.Context, app *Applicant, sc StatusChange) error {
	pwd, err := GenerateStrongPassword(8)
	if err != nil {
		return errors.Wrap(err, "generating password")
	}
	if err = app.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	app.PasswordChanged = false

	if err = svc.recordSchedule(ctx, *app, sc, StatusSelected); err != nil {
		return err
	}

	smsText := selectionSMS(app.SectorOfInterest, app.ApplicantID, sc.Location, sc.Date, sc.Time, svc.conf.FrontendBaseURL, pwd)
	if err = svc.msgLogs.CreateMessageLog(ctx, MessageLog{
		Kind:      MessageKindSelection,
		Mobile:    app.MobileNumber,
		Message:   smsText,
		Succeeded: true,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		svc.logger.Error("logging selection message", err)
	}

	svc.smsSvc.SendMessages(&core.SMSMessage{Mobile: app.MobileNumber, Message: smsText})
	if app.Email != "" {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: app.FullName, Address: app.Email}},
			Subject:      "Congratulations! You have been selected",
			TemplateName: "selection",
			TemplateData: scheduleEmailData{
				FullName:    app.FullName,
				ApplicantID: app.ApplicantID,
				Sector:      app.SectorOfInterest,
				Location:    sc.Location,
				Date:        sc.Date,
				Time:        sc.Time,
				Password:    pwd,
			},
		})
	}
	return nil
}

func (svc *Service) onShortlisted(ctx context.Context, app Applicant, sc StatusChange) error {
	if err := svc.recordSchedule(ctx, app, sc, StatusShortlisted); err != nil {
		return err
	}

	svc.smsSvc.SendMessages(&core.SMSMessage{
		Mobile:  app.MobileNumber,
		Message: shortlistSMS(sc.Location, sc.Date, sc.Time),
	})
	if app.Email != "" {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: app.FullName, Address: app.Email}},
			Subject:      "Congratulations! You have been shortlisted",
			TemplateName: "shortlist",
			TemplateData: scheduleEmailData{
				FullName: app.FullName,
				Sector:   app.SectorOfInterest,
				Location: sc.Location,
				Date:     sc.Date,
				Time:     sc.Time,
			},
		})
	}
	return nil
}

func (svc *Service) onAssigned(ctx context.Context, app Applicant, sc StatusChange) error {
	if err := svc.recordSchedule(ctx, app, sc, StatusAssigned); err != nil {
		return err
	}

	svc.smsSvc.SendMessages(&core.SMSMessage{
		Mobile:  app.MobileNumber,
		Message: assignmentSMS(app.SectorOfInterest, app.ApplicantID, sc.Location, sc.Date, sc.Time, svc.conf.FrontendBaseURL),
	})
	if app.Email != "" {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: app.FullName, Address: app.Email}},
			Subject:      "You have been assigned to a training class",
			TemplateName: "assignment",
			TemplateData: scheduleEmailData{
				FullName:    app.FullName,
				ApplicantID: app.ApplicantID,
				Sector:      app.SectorOfInterest,
				Location:    sc.Location,
				Date:        sc.Date,
				Time:        sc.Time,
			},
		})
	}
	return nil
}

func (svc *Service) recordSchedule(ctx context.Context, app Applicant, sc StatusChange, status Status) error {
	_, err := svc.schedules.CreateSchedule(ctx, Schedule{
		ApplicantID: app.ID,
		Location:    sc.Location,
		Date:        sc.Date,
		Time:        sc.Time,
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	})
	return errors.Wrap(err, "recording schedule")
}

// SetInterviewMarks records admin-entered interview marks (0-30) and keeps
// the total in sync.
func (svc *Service) SetInterviewMarks(ctx context.Context, id string, marks int) (Applicant, error) {
	if marks < 0 || marks > 30 {
		return Applicant{}, core.NewValidationError(
			errors.New("invalid interview marks"),
			core.FieldError{Field: "interview_marks", Error: "must be between 0 and 30"},
		)
	}
	app, err := svc.repo.GetApplicantByID(ctx, id)
	if err != nil {
		return Applicant{}, err
	}
	app.InterviewMarks = marks
	app.TotalMarks = app.MarksObtained + marks
	app.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateApplicant(ctx, app)
}

// Update applies an admin partial update and always rescores the merged
// record so the stored breakdown cannot diverge from the declared attributes.
func (svc *Service) Update(ctx context.Context, id string, ua UpdateApplicant) (Applicant, error) {
	orig, err := svc.repo.GetApplicantByID(ctx, id)
	if err != nil {
		return Applicant{}, err
	}

	app := ua.merge(orig)
	if app.Email != orig.Email {
		if err = svc.CheckIdentityUniqueness(app.MobileNumber, app.Email, app.CitizenshipNumber, orig); err != nil {
			return Applicant{}, err
		}
	}

	score := ComputeScore(app.ScoreInput())
	app.MarksObtained = score.TotalMarks
	app.Breakdown = score.Breakdown
	app.TotalMarks = score.TotalMarks + app.InterviewMarks
	app.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateApplicant(ctx, app)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Applicant, error) {
	return svc.repo.GetApplicantByID(ctx, id)
}

func (svc *Service) GetByApplicantID(ctx context.Context, applicantID string) (Applicant, error) {
	return svc.repo.GetApplicantByApplicantID(ctx, core.CleanString(applicantID))
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Applicant, int, error) {
	return svc.repo.FilterApplicants(ctx, filter)
}

func (svc *Service) Summary(ctx context.Context) (map[Status]int, error) {
	return svc.repo.CountByStatus(ctx)
}

func (svc *Service) Schedules(ctx context.Context, applicantPK string) ([]Schedule, error) {
	return svc.schedules.QuerySchedulesByApplicant(ctx, applicantPK)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteApplicantsByID(ctx, ids...)
}

// BulkNotify sends one SMS to every applicant matching the filter through the
// gateway's bulk endpoint. Unlike the lifecycle notifications, delivery
// failures are surfaced to the caller. Returns the recipient count.
func (svc *Service) BulkNotify(ctx context.Context, filter QueryFilter, message string) (int, error) {
	bulkSvc, ok := svc.smsSvc.(core.BulkSMSService)
	if !ok {
		return 0, errors.New("configured SMS gateway does not support bulk sending")
	}

	filter.Clean()
	filter.Limit = 100
	mobiles := make([]string, 0)
	for {
		apps, total, err := svc.repo.FilterApplicants(ctx, filter)
		if err != nil {
			return 0, errors.Wrap(err, "querying recipients")
		}
		for _, app := range apps {
			mobiles = append(mobiles, app.MobileNumber)
		}
		if len(apps) == 0 || len(mobiles) >= total {
			break
		}
		filter.Page++
	}
	if len(mobiles) == 0 {
		return 0, nil
	}

	if err := bulkSvc.SendBulk(mobiles, message); err != nil {
		return 0, errors.Wrap(err, "sending bulk SMS")
	}
	return len(mobiles), nil
}

// Authenticate verifies credentials by mobile number or email, enforcing the
// lockout counter and the selection gate for plain applicants. Every attempt
// is recorded to the login log.
func (svc *Service) Authenticate(ctx context.Context, identifier, password, ip, userAgent string) (Applicant, error) {
	identifier = core.CleanString(identifier, true /* lower */)

	app, err := svc.repo.GetApplicantByMobileOrEmail(ctx, identifier)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			svc.logAttempt(ctx, Applicant{}, identifier, false, ip, userAgent)
			return Applicant{}, ErrNotFound
		}
		return Applicant{}, errors.Wrap(err, "finding applicant")
	}

	if app.IsLocked {
		svc.logAttempt(ctx, app, identifier, false, ip, userAgent)
		return Applicant{}, ErrAccountLocked
	}
	if !app.CanLogIn() {
		svc.logAttempt(ctx, app, identifier, false, ip, userAgent)
		if app.Status == StatusDropped {
			return Applicant{}, ErrDropped
		}
		return Applicant{}, ErrNotSelected
	}

	if err = app.CheckPassword(password); err != nil {
		app.LoginAttempts++
		if app.LoginAttempts >= MaxLoginAttempts {
			app.IsLocked = true
		}
		if app, err = svc.repo.UpdateApplicant(ctx, app); err != nil {
			return Applicant{}, errors.Wrap(err, "recording failed attempt")
		}
		svc.logAttempt(ctx, app, identifier, false, ip, userAgent)
		remaining := MaxLoginAttempts - app.LoginAttempts
		if remaining < 0 {
			remaining = 0
		}
		return Applicant{}, &InvalidCredentialsError{AttemptsRemaining: remaining}
	}

	app.LoginAttempts = 0
	app.IsLocked = false
	app.LastLogin = time.Now().UTC()
	if app, err = svc.repo.UpdateApplicant(ctx, app); err != nil {
		return Applicant{}, errors.Wrap(err, "setting last login")
	}
	svc.logAttempt(ctx, app, identifier, true, ip, userAgent)
	return app, nil
}

func (svc *Service) logAttempt(ctx context.Context, app Applicant, identifier string, success bool, ip, userAgent string) {
	l := LoginLog{
		Identifier: identifier,
		Success:    success,
		IP:         ip,
		UserAgent:  userAgent,
		CreatedAt:  time.Now().UTC(),
	}
	if app.ID != "" {
		l.ApplicantID = app.ID
		l.FullName = app.FullName
		if app.Role == RoleApplicant {
			l.Status = string(app.Status)
		} else {
			l.Status = app.Role
		}
	}
	if err := svc.loginLogs.CreateLoginLog(ctx, l); err != nil {
		svc.logger.Error("recording login attempt", err)
	}
}

// ChangePassword verifies the old password and replaces it; a confirmation
// SMS is queued on success.
func (svc *Service) ChangePassword(ctx context.Context, mobile, oldPwd, newPwd, confirmPwd string) error {
	if oldPwd == "" || newPwd == "" || confirmPwd == "" {
		return core.NewValidationError(errors.New("please enter all fields"))
	}
	if len(newPwd) < 6 {
		return core.NewValidationError(
			errors.New("password must have at least 6 characters"),
			core.FieldError{Field: "new_password", Error: "password must have at least 6 characters"},
		)
	}
	if newPwd == oldPwd {
		return core.NewValidationError(errors.New("new password should not be same as old password"))
	}
	if newPwd != confirmPwd {
		return core.NewValidationError(errors.New("new and confirm password did not match"))
	}

	app, err := svc.repo.GetApplicantByMobileOrEmail(ctx, core.CleanString(mobile))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(errors.New("invalid mobile number"))
		}
		return err
	}
	if err = app.CheckPassword(oldPwd); err != nil {
		return core.NewValidationError(errors.New("invalid mobile number or incorrect old password"))
	}

	if err = app.SetPassword(newPwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	app.PasswordChanged = true
	app.UpdatedAt = time.Now().UTC()
	if _, err = svc.repo.UpdateApplicant(ctx, app); err != nil {
		return errors.Wrap(err, "updating password")
	}

	svc.smsSvc.SendMessages(&core.SMSMessage{
		Mobile:  app.MobileNumber,
		Message: passwordChangedSMS(newPwd),
	})
	return nil
}
