package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

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

type testEnv struct {
	conf   *core.Config
	server *Server
	svc    *applicant.Service
	db     *inmemdb.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conf := &core.Config{
		TestMode:         true,
		Env:              "TEST",
		AppName:          "SeepMela",
		SecretKey:        "secret",
		FrontendBaseURL:  "https://kmc.seepmela.com",
		DefaultFromEmail: mail.Address{Name: "SeepMela", Address: "noreply@seepmela.com"},
		Server: core.ServerConfig{
			Addr:               ":0",
			JWTExpirationDelta: 10 * time.Minute,
		},
	}

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

	validate, translator := core.NewValidator()
	core.InitValidators(validate, translator)

	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         testLogger{t},
		AppSvc:         svc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return &testEnv{conf: conf, server: server, svc: svc, db: db}
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (env *testEnv) do(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	env.server.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) getToken(t *testing.T, app applicant.Applicant) string {
	t.Helper()
	token, err := GenerateToken(GetApplicantClaims(env.conf, app))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

// registerApplicant goes through the service so scoring and credential
// issuance are exercised.
func (env *testEnv) registerApplicant(t *testing.T, mobile, citizenship string) applicant.Applicant {
	t.Helper()
	fb := func(b bool) *applicant.FlexBool { v := applicant.FlexBool(b); return &v }
	app, err := env.svc.Register(context.Background(), applicant.NewApplicant{
		FullName:              "Sita Maharjan",
		Age:                   30,
		Ethnicity:             "Newar",
		MobileNumber:          mobile,
		CitizenshipNumber:     citizenship,
		PermanentMunicipality: "Kathmandu",
		RegisteredPrev:        fb(false),
		AlreadyTakenTraining:  fb(false),
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return app
}

// createAdmin inserts an admin account directly.
func (env *testEnv) createAdmin(t *testing.T, mobile, pwd string) applicant.Applicant {
	t.Helper()
	now := time.Now().UTC()
	admin := applicant.Applicant{
		ApplicantID:           "ADM0001",
		FullName:              "Admin User",
		Age:                   35,
		MobileNumber:          mobile,
		CitizenshipNumber:     "admin-" + mobile,
		PermanentMunicipality: "kathmandu",
		Status:                applicant.StatusAccepted,
		Role:                  applicant.RoleAdmin,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := admin.SetPassword(pwd); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	repo := inmemdb.NewApplicantRepository(env.db)
	admin, err := repo.CreateApplicant(context.Background(), admin)
	if err != nil {
		t.Fatalf("CreateApplicant() error = %v", err)
	}
	return admin
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}
