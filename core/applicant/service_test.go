package applicant_test

import (
	"bytes"
	"context"
	"net/mail"
	"testing"

	"github.com/pkg/errors"

	"github.com/seepmela/mela/core"
	"github.com/seepmela/mela/core/applicant"
	appfs "github.com/seepmela/mela/fs"
	emailsvc "github.com/seepmela/mela/services/email"
	notifsvc "github.com/seepmela/mela/services/notification"
	smssvc "github.com/seepmela/mela/services/sms"
	inmemdb "github.com/seepmela/mela/storage/database/inmem"
)

type testLogger struct{ t *testing.T }

func (l testLogger) Enable(bool)                           {}
func (l testLogger) Debug(msg string, args ...interface{}) {}
func (l testLogger) Info(msg string, args ...interface{})  {}
func (l testLogger) Warn(msg string, args ...interface{})  {}
func (l testLogger) Error(msg string, args ...interface{}) { l.t.Logf("ERROR: %s %v", msg, args) }

func testConfig() *core.Config {
	return &core.Config{
		TestMode:         true,
		Env:              "TEST",
		AppName:          "SeepMela",
		SecretKey:        "secret",
		FrontendBaseURL:  "https://kmc.seepmela.com",
		DefaultFromEmail: mail.Address{Name: "SeepMela", Address: "noreply@seepmela.com"},
	}
}

func setup(t *testing.T) (*applicant.Service, *inmemdb.DB) {
	t.Helper()
	conf := testConfig()
	db := inmemdb.NewDB()
	svc := applicant.NewService(
		conf,
		testLogger{t},
		inmemdb.NewApplicantRepository(db),
		inmemdb.NewCounterRepository(db),
		inmemdb.NewScheduleRepository(db),
		inmemdb.NewMessageLogRepository(db),
		inmemdb.NewLoginLogRepository(db),
		notifsvc.NewHub(),
		emailsvc.NewConsoleServiceMock(conf, appfs.FS),
		smssvc.NewConsoleServiceMock(),
	)
	return svc, db
}

func flexBool(b bool) *applicant.FlexBool {
	fb := applicant.FlexBool(b)
	return &fb
}

func newForm(mobile, citizenship string) applicant.NewApplicant {
	return applicant.NewApplicant{
		FullName:              "Sita Maharjan",
		Age:                   30,
		Ethnicity:             "Newar",
		MobileNumber:          mobile,
		CitizenshipNumber:     citizenship,
		PermanentMunicipality: "Kathmandu",
		RegisteredPrev:        flexBool(false),
		AlreadyTakenTraining:  flexBool(false),
	}
}

func register(t *testing.T, svc *applicant.Service, mobile, citizenship string) applicant.Applicant {
	t.Helper()
	app, err := svc.Register(context.Background(), newForm(mobile, citizenship))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return app
}

func TestService_Register(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()

	app := register(t, svc, "9812345678", "12-01-345")
	if app.ApplicantID != "KMC0001" {
		t.Errorf("ApplicantID = %q, want KMC0001", app.ApplicantID)
	}
	if app.Status != applicant.StatusPending {
		t.Errorf("Status = %q, want pending", app.Status)
	}
	if app.Role != applicant.RoleApplicant {
		t.Errorf("Role = %q, want applicant", app.Role)
	}
	// Newar from Kathmandu: ethnicity 10 + residency 30
	if app.MarksObtained != 40 || app.TotalMarks != 40 {
		t.Errorf("marks = %d/%d, want 40/40", app.MarksObtained, app.TotalMarks)
	}
	if len(app.PasswordHash) == 0 {
		t.Error("no password hash issued")
	}

	// sequential IDs
	app2 := register(t, svc, "9712345678", "12-01-346")
	if app2.ApplicantID != "KMC0002" {
		t.Errorf("ApplicantID = %q, want KMC0002", app2.ApplicantID)
	}

	// welcome SMS recorded in the message log
	logs := db.MessageLogs()
	if len(logs) != 2 {
		t.Fatalf("len(MessageLogs()) = %d, want 2", len(logs))
	}
	if logs[0].Kind != applicant.MessageKindRegistration {
		t.Errorf("log kind = %q, want registration", logs[0].Kind)
	}

	// fetchable by both IDs
	if _, err := svc.GetByID(ctx, app.ID); err != nil {
		t.Errorf("GetByID() error = %v", err)
	}
	if _, err := svc.GetByApplicantID(ctx, "KMC0001"); err != nil {
		t.Errorf("GetByApplicantID() error = %v", err)
	}
}

func TestNewApplicant_Validate(t *testing.T) {
	svc, _ := setup(t)
	validate, translator := core.NewValidator()
	core.InitValidators(validate, translator)

	register(t, svc, "9812345678", "12-01-345")

	tests := []struct {
		name    string
		mutate  func(*applicant.NewApplicant)
		wantErr bool
	}{
		{name: "valid", mutate: func(na *applicant.NewApplicant) {}},
		{name: "too young", mutate: func(na *applicant.NewApplicant) { na.Age = 17 }, wantErr: true},
		{name: "too old", mutate: func(na *applicant.NewApplicant) { na.Age = 59 }, wantErr: true},
		{name: "lower age bound", mutate: func(na *applicant.NewApplicant) { na.Age = 18 }},
		{name: "upper age bound", mutate: func(na *applicant.NewApplicant) { na.Age = 58 }},
		{name: "bad mobile prefix", mutate: func(na *applicant.NewApplicant) { na.MobileNumber = "9512345678" }, wantErr: true},
		{name: "short mobile", mutate: func(na *applicant.NewApplicant) { na.MobileNumber = "981234567" }, wantErr: true},
		{name: "bad email", mutate: func(na *applicant.NewApplicant) { na.Email = "lol" }, wantErr: true},
		{name: "missing municipality", mutate: func(na *applicant.NewApplicant) { na.PermanentMunicipality = "" }, wantErr: true},
		{name: "missing prior flags", mutate: func(na *applicant.NewApplicant) { na.RegisteredPrev = nil }, wantErr: true},
		{name: "bad disability class", mutate: func(na *applicant.NewApplicant) { na.DisabilityClass = "E" }, wantErr: true},
		{name: "mixed citizenship digits", mutate: func(na *applicant.NewApplicant) { na.CitizenshipNumber = "12३४" }, wantErr: true},
		{name: "duplicate mobile", mutate: func(na *applicant.NewApplicant) { na.MobileNumber = "9812345678" }, wantErr: true},
		{name: "duplicate citizenship", mutate: func(na *applicant.NewApplicant) { na.CitizenshipNumber = "12-01-345" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := newForm("9698765432", "99-88-777")
			tt.mutate(&form)
			err := form.Validate(validate, translator, svc)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewApplicant_Validate_transliteratesCitizenship(t *testing.T) {
	svc, _ := setup(t)
	validate, translator := core.NewValidator()
	core.InitValidators(validate, translator)

	form := newForm("9698765432", "१२ ३४५")
	if err := form.Validate(validate, translator, svc); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if form.CitizenshipNumber != "12345" {
		t.Errorf("CitizenshipNumber = %q, want 12345", form.CitizenshipNumber)
	}
}

func TestService_UpdateStatus(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	schedule := applicant.StatusChange{Location: "KMC Hall", Date: "2081-05-12", Time: "10:00"}

	t.Run("schedule required", func(t *testing.T) {
		app := register(t, svc, "9811111111", "c-1")
		_, err := svc.UpdateStatus(ctx, app.ID, applicant.StatusChange{Status: applicant.StatusShortlisted})
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("UpdateStatus() error = %v, want ValidationError", err)
		}
	})

	t.Run("shortlist then select", func(t *testing.T) {
		app := register(t, svc, "9822222222", "c-2")
		oldHash := app.PasswordHash

		sc := schedule
		sc.Status = applicant.StatusShortlisted
		app2, err := svc.UpdateStatus(ctx, app.ID, sc)
		if err != nil {
			t.Fatalf("UpdateStatus(shortlisted) error = %v", err)
		}
		if app2.Status != applicant.StatusShortlisted {
			t.Errorf("Status = %q, want shortlisted", app2.Status)
		}

		sc.Status = applicant.StatusSelected
		app3, err := svc.UpdateStatus(ctx, app.ID, sc)
		if err != nil {
			t.Fatalf("UpdateStatus(selected) error = %v", err)
		}
		if app3.Status != applicant.StatusSelected {
			t.Errorf("Status = %q, want selected", app3.Status)
		}
		// selection reissues credentials
		if bytes.Equal(app3.PasswordHash, oldHash) {
			t.Error("selection did not issue a new password")
		}

		scheds, err := svc.Schedules(ctx, app.ID)
		if err != nil {
			t.Fatalf("Schedules() error = %v", err)
		}
		if len(scheds) != 2 {
			t.Errorf("len(Schedules()) = %d, want 2", len(scheds))
		}
	})

	t.Run("invalid transition", func(t *testing.T) {
		app := register(t, svc, "9833333333", "c-3")
		sc := schedule
		sc.Status = applicant.StatusAssigned
		if _, err := svc.UpdateStatus(ctx, app.ID, sc); err != nil {
			t.Fatalf("UpdateStatus(assigned) error = %v", err)
		}
		// assigned cannot go back to selected
		sc.Status = applicant.StatusSelected
		if _, err := svc.UpdateStatus(ctx, app.ID, sc); err == nil {
			t.Error("UpdateStatus(assigned -> selected) expected error")
		}
	})

	t.Run("drop locks and is terminal", func(t *testing.T) {
		app := register(t, svc, "9844444444", "c-4")
		dropped, err := svc.UpdateStatus(ctx, app.ID, applicant.StatusChange{Status: applicant.StatusDropped})
		if err != nil {
			t.Fatalf("UpdateStatus(dropped) error = %v", err)
		}
		if dropped.Status != applicant.StatusDropped || !dropped.IsLocked {
			t.Errorf("got status=%q locked=%v, want dropped/locked", dropped.Status, dropped.IsLocked)
		}
		sc := schedule
		sc.Status = applicant.StatusShortlisted
		if _, err = svc.UpdateStatus(ctx, app.ID, sc); err == nil {
			t.Error("UpdateStatus(dropped -> shortlisted) expected error")
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		app := register(t, svc, "9855555555", "c-5")
		if _, err := svc.UpdateStatus(ctx, app.ID, applicant.StatusChange{Status: "lol"}); err == nil {
			t.Error("UpdateStatus(lol) expected error")
		}
	})

	t.Run("unknown applicant", func(t *testing.T) {
		if _, err := svc.UpdateStatus(ctx, "nope", applicant.StatusChange{Status: applicant.StatusDropped}); errors.Cause(err) != applicant.ErrNotFound {
			t.Errorf("UpdateStatus() error = %v, want ErrNotFound", err)
		}
	})
}

func TestService_SetInterviewMarks(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	app := register(t, svc, "9812345678", "c-1") // scores 40

	if _, err := svc.SetInterviewMarks(ctx, app.ID, -1); err == nil {
		t.Error("SetInterviewMarks(-1) expected error")
	}
	if _, err := svc.SetInterviewMarks(ctx, app.ID, 31); err == nil {
		t.Error("SetInterviewMarks(31) expected error")
	}

	app2, err := svc.SetInterviewMarks(ctx, app.ID, 25)
	if err != nil {
		t.Fatalf("SetInterviewMarks() error = %v", err)
	}
	if app2.InterviewMarks != 25 {
		t.Errorf("InterviewMarks = %d, want 25", app2.InterviewMarks)
	}
	if app2.TotalMarks != app.MarksObtained+25 {
		t.Errorf("TotalMarks = %d, want %d", app2.TotalMarks, app.MarksObtained+25)
	}
}

func TestService_Update_rescores(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	app := register(t, svc, "9812345678", "c-1") // Newar/Kathmandu: 40

	if _, err := svc.SetInterviewMarks(ctx, app.ID, 10); err != nil {
		t.Fatalf("SetInterviewMarks() error = %v", err)
	}

	eth := "brahmin"
	app2, err := svc.Update(ctx, app.ID, applicant.UpdateApplicant{Ethnicity: &eth})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if app2.MarksObtained != 30 { // residency 30 only
		t.Errorf("MarksObtained = %d, want 30", app2.MarksObtained)
	}
	if app2.TotalMarks != 40 { // 30 + interview 10
		t.Errorf("TotalMarks = %d, want 40", app2.TotalMarks)
	}
}

func TestService_Filter(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	register(t, svc, "9811111111", "c-1")
	b := register(t, svc, "9822222222", "c-2")
	register(t, svc, "9833333333", "c-3")

	if _, err := svc.UpdateStatus(ctx, b.ID, applicant.StatusChange{
		Status: applicant.StatusShortlisted, Location: "KMC Hall", Date: "2081-05-12", Time: "10:00",
	}); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	apps, total, err := svc.Filter(ctx, applicant.QueryFilter{Status: applicant.StatusShortlisted, Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if total != 1 || len(apps) != 1 || apps[0].ID != b.ID {
		t.Errorf("Filter(status=shortlisted) = %d results (total %d)", len(apps), total)
	}

	apps, total, err = svc.Filter(ctx, applicant.QueryFilter{Search: "9833", Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if total != 1 || len(apps) != 1 {
		t.Errorf("Filter(search) = %d results (total %d), want 1", len(apps), total)
	}

	counts, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if counts[applicant.StatusPending] != 2 || counts[applicant.StatusShortlisted] != 1 {
		t.Errorf("Summary() = %v", counts)
	}
}

// setKnownPassword replaces the randomly issued password so tests can log in.
func setKnownPassword(t *testing.T, db *inmemdb.DB, id, pwd string) {
	t.Helper()
	repo := inmemdb.NewApplicantRepository(db)
	app, err := repo.GetApplicantByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetApplicantByID() error = %v", err)
	}
	if err = app.SetPassword(pwd); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	if _, err = repo.UpdateApplicant(context.Background(), app); err != nil {
		t.Fatalf("UpdateApplicant() error = %v", err)
	}
}

func selectApplicant(t *testing.T, svc *applicant.Service, id string) {
	t.Helper()
	if _, err := svc.UpdateStatus(context.Background(), id, applicant.StatusChange{
		Status: applicant.StatusSelected, Location: "KMC Hall", Date: "2081-05-12", Time: "10:00",
	}); err != nil {
		t.Fatalf("UpdateStatus(selected) error = %v", err)
	}
}

func TestService_Authenticate(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()

	app := register(t, svc, "9812345678", "c-1")
	selectApplicant(t, svc, app.ID)
	setKnownPassword(t, db, app.ID, "s3cret!A")

	t.Run("unknown identifier", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "9699999999", "whatever", "1.2.3.4", "go-test")
		if errors.Cause(err) != applicant.ErrNotFound {
			t.Errorf("Authenticate() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("pending applicant cannot log in", func(t *testing.T) {
		pending := register(t, svc, "9822222222", "c-2")
		setKnownPassword(t, db, pending.ID, "s3cret!A")
		_, err := svc.Authenticate(ctx, "9822222222", "s3cret!A", "1.2.3.4", "go-test")
		if errors.Cause(err) != applicant.ErrNotSelected {
			t.Errorf("Authenticate() error = %v, want ErrNotSelected", err)
		}
	})

	t.Run("dropped applicant cannot log in", func(t *testing.T) {
		dropped := register(t, svc, "9833333333", "c-3")
		if _, err := svc.UpdateStatus(ctx, dropped.ID, applicant.StatusChange{Status: applicant.StatusDropped}); err != nil {
			t.Fatalf("UpdateStatus(dropped) error = %v", err)
		}
		_, err := svc.Authenticate(ctx, "9833333333", "s3cret!A", "1.2.3.4", "go-test")
		// dropped accounts are also locked
		if cause := errors.Cause(err); cause != applicant.ErrDropped && cause != applicant.ErrAccountLocked {
			t.Errorf("Authenticate() error = %v, want ErrDropped or ErrAccountLocked", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		got, err := svc.Authenticate(ctx, "9812345678", "s3cret!A", "1.2.3.4", "go-test")
		if err != nil {
			t.Fatalf("Authenticate() error = %v", err)
		}
		if got.LastLogin.IsZero() {
			t.Error("LastLogin not set")
		}
		if got.LoginAttempts != 0 {
			t.Errorf("LoginAttempts = %d, want 0", got.LoginAttempts)
		}
	})

	t.Run("lockout after repeated failures", func(t *testing.T) {
		for i := 1; i <= applicant.MaxLoginAttempts; i++ {
			_, err := svc.Authenticate(ctx, "9812345678", "wrong", "1.2.3.4", "go-test")
			var credErr *applicant.InvalidCredentialsError
			if !errors.As(err, &credErr) {
				t.Fatalf("attempt %d: error = %v, want InvalidCredentialsError", i, err)
			}
			if want := applicant.MaxLoginAttempts - i; credErr.AttemptsRemaining != want {
				t.Errorf("attempt %d: AttemptsRemaining = %d, want %d", i, credErr.AttemptsRemaining, want)
			}
		}
		// locked now, even with the right password
		_, err := svc.Authenticate(ctx, "9812345678", "s3cret!A", "1.2.3.4", "go-test")
		if errors.Cause(err) != applicant.ErrAccountLocked {
			t.Errorf("Authenticate() error = %v, want ErrAccountLocked", err)
		}
	})

	t.Run("attempts recorded in login log", func(t *testing.T) {
		if logs := db.LoginLogs(); len(logs) == 0 {
			t.Error("no login logs recorded")
		}
	})
}

func TestService_ChangePassword(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()

	app := register(t, svc, "9812345678", "c-1")
	selectApplicant(t, svc, app.ID)
	setKnownPassword(t, db, app.ID, "oldpass")

	tests := []struct {
		name                      string
		mobile, old, new, confirm string
		wantErr                   bool
	}{
		{name: "missing fields", mobile: "9812345678", wantErr: true},
		{name: "too short", mobile: "9812345678", old: "oldpass", new: "short", confirm: "short", wantErr: true},
		{name: "same as old", mobile: "9812345678", old: "oldpass", new: "oldpass", confirm: "oldpass", wantErr: true},
		{name: "confirm mismatch", mobile: "9812345678", old: "oldpass", new: "newpass1", confirm: "newpass2", wantErr: true},
		{name: "wrong old password", mobile: "9812345678", old: "nope", new: "newpass1", confirm: "newpass1", wantErr: true},
		{name: "unknown mobile", mobile: "9699999999", old: "oldpass", new: "newpass1", confirm: "newpass1", wantErr: true},
		{name: "ok", mobile: "9812345678", old: "oldpass", new: "newpass1", confirm: "newpass1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ChangePassword(ctx, tt.mobile, tt.old, tt.new, tt.confirm)
			if (err != nil) != tt.wantErr {
				t.Errorf("ChangePassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	// new password is live and the changed flag is set
	got, err := svc.Authenticate(ctx, "9812345678", "newpass1", "1.2.3.4", "go-test")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if !got.PasswordChanged {
		t.Error("PasswordChanged not set")
	}
}

func TestService_Delete(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	a := register(t, svc, "9811111111", "c-1")
	b := register(t, svc, "9822222222", "c-2")

	if err := svc.Delete(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.GetByID(ctx, a.ID); errors.Cause(err) != applicant.ErrNotFound {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestService_BulkNotify(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	a := register(t, svc, "9811111111", "c-1")
	register(t, svc, "9822222222", "c-2")
	selectApplicant(t, svc, a.ID)

	t.Run("status narrowed", func(t *testing.T) {
		sent, err := svc.BulkNotify(ctx, applicant.QueryFilter{Status: applicant.StatusPending}, "interview tomorrow")
		if err != nil {
			t.Fatalf("BulkNotify() error = %v", err)
		}
		if sent != 1 {
			t.Errorf("sent = %d, want 1", sent)
		}
	})

	t.Run("all", func(t *testing.T) {
		sent, err := svc.BulkNotify(ctx, applicant.QueryFilter{}, "venue changed")
		if err != nil {
			t.Fatalf("BulkNotify() error = %v", err)
		}
		if sent != 2 {
			t.Errorf("sent = %d, want 2", sent)
		}
	})

	t.Run("no recipients", func(t *testing.T) {
		sent, err := svc.BulkNotify(ctx, applicant.QueryFilter{Status: applicant.StatusDropped}, "lol")
		if err != nil {
			t.Fatalf("BulkNotify() error = %v", err)
		}
		if sent != 0 {
			t.Errorf("sent = %d, want 0", sent)
		}
	})
}
