package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"os"

	echoapi "github.com/seepmela/mela/apps/api/echo"
	"github.com/seepmela/mela/core"
	"github.com/seepmela/mela/core/applicant"
	appfs "github.com/seepmela/mela/fs"
	emailsvc "github.com/seepmela/mela/services/email"
	logsvc "github.com/seepmela/mela/services/logger"
	notifsvc "github.com/seepmela/mela/services/notification"
	smssvc "github.com/seepmela/mela/services/sms"
	"github.com/seepmela/mela/storage/database"
	sqlxrepos "github.com/seepmela/mela/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig(core.Getwd())
	if err != nil {
		log.Fatalf("loading config: %+v", err)
	}

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	// set up services
	msgLogRepo := sqlxrepos.NewMessageLogRepository(db)

	var mailSvc core.EmailService
	var smsSvc core.SMSService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, appfs.FS)
		smsSvc = smssvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, appfs.FS, logger)
		smsSvc = smssvc.NewDoITService(conf, msgLogRepo, logger)
	}

	hub := notifsvc.NewHub()

	appSvc := applicant.NewService(
		conf,
		logger,
		sqlxrepos.NewApplicantRepository(db),
		sqlxrepos.NewCounterRepository(db),
		sqlxrepos.NewScheduleRepository(db),
		msgLogRepo,
		sqlxrepos.NewLoginLogRepository(db),
		hub,
		mailSvc,
		smsSvc,
	)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	core.InitValidators(validate, translator)

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			AppSvc:     appSvc,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
