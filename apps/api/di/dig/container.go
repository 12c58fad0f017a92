package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"
	"golang.org/x/text/language"

	echoapi "github.com/trezcool/campusdesk/apps/api/echo"
	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/core/admission"
	"github.com/trezcool/campusdesk/core/finance"
	"github.com/trezcool/campusdesk/core/records"
	"github.com/trezcool/campusdesk/core/reference"
	"github.com/trezcool/campusdesk/core/store"
	emailsvc "github.com/trezcool/campusdesk/services/email"
	logsvc "github.com/trezcool/campusdesk/services/logger"
	"github.com/trezcool/campusdesk/storage/api"
	"github.com/trezcool/campusdesk/storage/database"
	inmemdb "github.com/trezcool/campusdesk/storage/database/inmem"
	sqlxrepos "github.com/trezcool/campusdesk/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// DBCloser releases the snapshot database, if any.
type DBCloser func() error

type ServerParams struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Reference  *reference.Service
	Records    *records.Service
	Policies   *admission.PolicyService
	Admissions *admission.Service
	Guardians  *admission.GuardianSearcher
	Formatter  *finance.Formatter
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	admission.InitValidators(validate, translator)
	return validate, translator
}

// newSnapshotStore persists snapshots in postgres, or in memory with any other engine.
func newSnapshotStore(conf *core.Config, mem *inmemdb.DB, loggerParam DBLoggerParam) (store.SnapshotStore, DBCloser) {
	if conf.Database.Engine != "postgres" {
		return inmemdb.NewSnapshotRepository(mem), func() error { return nil }
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	if err = database.Migrate(db, "up"); err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}
	return sqlxrepos.NewSnapshotRepository(db), db.Close
}

func newRecordsService(client *api.Client, snapshots store.SnapshotStore, logger core.Logger) *records.Service {
	return records.NewService(api.NewRecordRemotes(client), snapshots, logger)
}

func newReferenceService(client *api.Client, snapshots store.SnapshotStore, conf *core.Config, logger core.Logger) *reference.Service {
	return reference.NewService(api.NewReferenceRemotes(client), snapshots, conf, logger)
}

func newAdmissionService(
	mem *inmemdb.DB,
	policies *admission.PolicyService,
	backend *api.AdmissionBackend,
	refs *reference.Service,
	validate *validator.Validate,
	translator ut.Translator,
	mailer core.EmailService,
	conf *core.Config,
	logger core.Logger,
) *admission.Service {
	return admission.NewService(
		inmemdb.NewDraftRepository(mem),
		policies,
		backend,
		refs,
		admission.NewValidator(validate, translator),
		mailer,
		conf,
		logger,
	)
}

func newPolicyService(backend *api.AdmissionBackend, conf *core.Config) *admission.PolicyService {
	return admission.NewPolicyService(backend, conf)
}

func newGuardianSearcher(backend *api.AdmissionBackend) *admission.GuardianSearcher {
	return admission.NewGuardianSearcher(backend)
}

func newFormatter() *finance.Formatter {
	return finance.NewFormatter(language.English)
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(p.Conf, p.Logger, &echoapi.Deps{
		Validate:   p.Validate,
		Translator: p.Translator,
		Reference:  p.Reference,
		Records:    p.Records,
		Policies:   p.Policies,
		Admissions: p.Admissions,
		Guardians:  p.Guardians,
		Formatter:  p.Formatter,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newValidator))
	must(c.Provide(inmemdb.Open))
	must(c.Provide(newSnapshotStore))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(api.NewClient))
	must(c.Provide(api.NewAdmissionBackend))
	must(c.Provide(newReferenceService))
	must(c.Provide(newRecordsService))
	must(c.Provide(newPolicyService))
	must(c.Provide(newGuardianSearcher))
	must(c.Provide(newAdmissionService))
	must(c.Provide(newFormatter))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
