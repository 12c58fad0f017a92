package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/robfig/cron/v3"

	dig_container "github.com/trezcool/campusdesk/apps/api/di/dig"
	echoapi "github.com/trezcool/campusdesk/apps/api/echo"
	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/core/admission"
	"github.com/trezcool/campusdesk/core/store"
)

func main() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		dbLoggerParam dig_container.DBLoggerParam,
		closeDB dig_container.DBCloser,
		snapshots store.SnapshotStore,
		admissions *admission.Service,
		server *echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))

		core.ParseEmailTemplates(conf, apiLogger)

		dbLogger := dbLoggerParam.Logger
		defer func() {
			if err := closeDB(); err != nil {
				dbLogger.Fatal("Failed to close", err)
			}
		}()
		defer apiLogger.Info("Application stopped")

		// =========================================================================
		// Start Debug Service
		//
		// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
		// /debug/vars - Added to the default mux by importing the expvar package.

		// Expose important info under /debug/vars.
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Start Sweeper

		sweeper := cron.New()
		if _, err := sweeper.AddFunc(conf.Cache.SweepSpec, func() { sweep(snapshots, admissions, apiLogger) }); err != nil {
			apiLogger.Fatal(fmt.Sprintf("scheduling sweeper %q: %v", conf.Cache.SweepSpec, err), err)
		}
		sweeper.Start()
		defer sweeper.Stop()

		// =========================================================================
		// Start API Service

		go func() {
			server.Start()
		}()

		// =========================================================================
		// Shutdown

		select {
		case err := <-server.Errors():
			apiLogger.Fatal(fmt.Sprintf("server error: %v", err), err)

		case sig := <-server.ShutdownSignal():
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			// asking listener to shut down and shed load
			if err := server.Shutdown(ctx); err != nil {
				apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = server.Close(); err != nil {
					apiLogger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}
		}
	}))
}

// sweep drops the expired snapshots and the abandoned admission drafts.
func sweep(snapshots store.SnapshotStore, admissions *admission.Service, logger core.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := snapshots.Purge(ctx, time.Now())
	if err != nil {
		logger.Error(fmt.Sprintf("purging snapshots: %v", err), err)
	}
	drafts, err := admissions.Sweep(ctx)
	if err != nil {
		logger.Error(fmt.Sprintf("sweeping admission drafts: %v", err), err)
	}
	if n+drafts > 0 {
		logger.Info(fmt.Sprintf("sweeper: %d snapshots, %d drafts removed", n, drafts))
	}
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
