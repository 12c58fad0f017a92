package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/core/admission"
	"github.com/trezcool/campusdesk/core/finance"
	"github.com/trezcool/campusdesk/core/records"
	"github.com/trezcool/campusdesk/core/reference"
	"github.com/trezcool/campusdesk/storage/api"
	inmemdb "github.com/trezcool/campusdesk/storage/database/inmem"
	"github.com/trezcool/campusdesk/testutil"
)

const (
	branchID      = "65a1b2c3d4e5f60718293a4b"
	otherBranchID = "65a1b2c3d4e5f60718293a4c"
)

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

type mailbox struct {
	mu       sync.Mutex
	messages []*core.EmailMessage
}

func (m *mailbox) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, messages...)
}

type testApp struct {
	server *Server
	up     *testutil.Upstream
	conf   *core.Config
	logger *testutil.Logger
	mail   *mailbox
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	app := &testApp{
		up:     testutil.NewUpstream(t),
		logger: &testutil.Logger{},
		mail:   &mailbox{},
		conf: &core.Config{
			AppName:   "Campusdesk",
			TestMode:  true,
			SecretKey: "secret",
			Server:    core.ServerConfig{DisableReqLogs: true},
			Cache:     core.CacheConfig{TTL: time.Minute},
			Admission: core.AdmissionConfig{Location: time.UTC, DraftTTL: time.Hour},
			Finance:   core.FinanceConfig{NotifyEmail: "finance@school.test"},
		},
	}
	app.up.Seed("taxes",
		finance.Tax{ID: "gst", Name: "GST", Rate: decimal.NewFromInt(18), Type: finance.TaxPercentage, ApplicableOn: finance.ContextFee},
		finance.Tax{ID: "levy", Name: "Levy", Rate: decimal.NewFromInt(500), Type: finance.TaxFixed, ApplicableOn: finance.ContextAdmission},
		finance.Tax{ID: "vat", Name: "VAT", Rate: decimal.NewFromInt(16), Type: finance.TaxPercentage, ApplicableOn: finance.ContextExpenses},
	)

	client := api.NewClientWith(app.up.URL, "", nil, app.logger)
	backend := api.NewAdmissionBackend(client)
	db, err := inmemdb.Open()
	require.NoError(t, err)
	snapshots := inmemdb.NewSnapshotRepository(db)

	validate, translator := core.NewValidator()
	admission.InitValidators(validate, translator)

	refs := reference.NewService(api.NewReferenceRemotes(client), snapshots, app.conf, app.logger)
	policies := admission.NewPolicyService(backend, app.conf)
	deps := &Deps{
		Validate:   validate,
		Translator: translator,
		Reference:  refs,
		Records:    records.NewService(api.NewRecordRemotes(client), snapshots, app.logger),
		Policies:   policies,
		Admissions: admission.NewService(
			inmemdb.NewDraftRepository(db),
			policies,
			backend,
			refs,
			admission.NewValidator(validate, translator),
			app.mail,
			app.conf,
			app.logger,
		),
		Guardians: admission.NewGuardianSearcher(backend),
		Formatter: finance.NewFormatter(language.English),
	}
	app.server = NewServer(app.conf, app.logger, deps)
	return app
}

func (app *testApp) token(t *testing.T, subject string, portal core.Portal, branch string) string {
	t.Helper()
	token, err := GenerateToken(app.conf, NewClaims(app.conf, subject, portal, branch, time.Hour))
	require.NoError(t, err)
	return token
}

func (app *testApp) do(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	app.server.ServeHTTP(rec, req)
	return rec
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

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	res := make(map[string]interface{})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
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
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
