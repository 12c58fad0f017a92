package main

import (
	"log"
	"os"

	"golang.org/x/text/language"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/core/finance"
	"github.com/trezcool/campusdesk/core/reference"
	logsvc "github.com/trezcool/campusdesk/services/logger"
	"github.com/trezcool/campusdesk/storage/api"
	"github.com/trezcool/campusdesk/storage/database"
	inmemdb "github.com/trezcool/campusdesk/storage/database/inmem"
	sqlxrepos "github.com/trezcool/campusdesk/storage/database/sqlx"
)

func main() {
	defer os.Exit(0)

	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)

	client := api.NewClient(conf, logger)
	cli := commandLine{
		conf:      conf,
		out:       os.Stdout,
		policies:  api.NewAdmissionBackend(client),
		taxes:     reference.NewService(api.NewReferenceRemotes(client), nil, conf, logger),
		formatter: finance.NewFormatter(language.English),
	}

	// set up DB
	if conf.Database.Engine == "postgres" {
		errAndDie(logger, database.CreateIfNotExist(conf))
		db, err := database.Open(conf)
		errAndDie(logger, err)
		defer db.Close()

		cli.snapshots = sqlxrepos.NewSnapshotRepository(db)
		cli.migrate = func(command string, args ...string) error {
			return database.Migrate(db, command, args...)
		}
	} else {
		mem, err := inmemdb.Open()
		errAndDie(logger, err)
		cli.snapshots = inmemdb.NewSnapshotRepository(mem)
	}

	// start CLI
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("error: "+err.Error(), err)
		}
		os.Exit(1)
	}
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
