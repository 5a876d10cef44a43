package main

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"runtime"

	"github.com/mdouchement/logger"
	"github.com/mdouchement/securevision/internal/config"
	"github.com/mdouchement/securevision/internal/database"
	"github.com/mdouchement/securevision/internal/fingerprint"
	"github.com/mdouchement/securevision/internal/scheduler"
	"github.com/mdouchement/securevision/internal/service"
	"github.com/mdouchement/securevision/internal/storage"
	"github.com/mdouchement/securevision/internal/webserver"
	"github.com/ncw/swift/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"

	binding string
	port    string
	dotenv  string
)

func main() {
	c := &cobra.Command{
		Use:     "securevision",
		Short:   "Seal images with a capture manifest and verify them later",
		Version: fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:    cobra.ExactArgs(0),
	}
	c.PersistentFlags().StringVar(&dotenv, "env", ".env", "Path of the .env file")
	c.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Version for securevision",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(c.Version)
		},
	})
	c.AddCommand(initCmd)

	serverCmd.Flags().StringVarP(&binding, "binding", "b", "", "Server's binding (default from SECUREVISION_BINDING)")
	serverCmd.Flags().StringVarP(&port, "port", "p", "", "Server's port (default from SECUREVISION_PORT)")
	c.AddCommand(serverCmd)

	c.AddCommand(captureCmd)
	c.AddCommand(newSealCmd())
	c.AddCommand(verifyCmd)
	c.AddCommand(listCmd)
	c.AddCommand(showCmd)
	c.AddCommand(deleteCmd)
	c.AddCommand(auditCmd)

	if err := c.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}

var (
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Init the database and the storage areas",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := load(false)
			if err != nil {
				return err
			}

			if err = database.StormInit(app.config.Database(), app.config.IndexCodec); err != nil {
				return err
			}

			for _, area := range []string{storage.AreaSealed, storage.AreaCaptures} {
				if err = app.storage.Init(area); err != nil {
					return errors.Wrapf(err, "could not init %s area", area)
				}
			}
			return nil
		},
	}

	//

	serverCmd = &cobra.Command{
		Use:   "server",
		Short: "Start server",
		Args:  cobra.ExactArgs(0),
		RunE: func(c *cobra.Command, _ []string) error {
			app, err := load(true)
			if err != nil {
				return err
			}
			defer app.db.Close()

			ctrl := webserver.Controller{
				Version:   c.Parent().Version,
				Logger:    app.logger,
				Database:  app.db,
				Storage:   app.storage,
				Capturer:  service.NewCapturer(app.logger, app.storage),
				Sealer:    app.sealer,
				Verifier:  app.verifier,
				Destroyer: service.NewDestroyer(app.logger, app.db, app.storage),
				Author:    app.config.Author,
				Token:     app.config.Token,
			}

			//

			cron, err := scheduler.Start(app.scheduler())
			if err != nil {
				return err
			}
			defer cron.Stop()

			//

			engine := webserver.EchoEngine(ctrl)
			webserver.PrintRoutes(engine)

			listen := fmt.Sprintf("%s:%s", or(binding, app.config.Binding), or(port, app.config.Port))
			app.logger.Infof("Server listening on %s", listen)
			return errors.Wrap(
				engine.Start(listen),
				"could not run server",
			)
		},
	}
)

// An application gathers the components built from the configuration.
type application struct {
	config   *config.Config
	logger   logger.Logger
	db       database.Client
	storage  storage.Backend
	sealer   *service.Sealer
	verifier *service.Verifier
}

func load(withDatabase bool) (*application, error) {
	cfg, err := config.Load(dotenv)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetFormatter(&logger.LogrusTextFormatter{
		DisableColors:   false,
		ForceColors:     true,
		ForceFormatting: true,
		PrefixRE:        regexp.MustCompile(`^(\[.*?\])\s`),
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	app := &application{
		config: cfg,
		logger: logger.WrapLogrus(log),
	}

	//

	app.storage, err = backend(cfg)
	if err != nil {
		return nil, err
	}

	f, err := fingerprint.New(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	app.sealer = service.NewSealer(app.logger, app.storage, f, cfg.Issuer)
	app.verifier = service.NewVerifier(app.logger, app.storage, cfg.Issuer)

	//

	if withDatabase {
		app.db, err = database.StormOpen(cfg.Database(), cfg.IndexCodec)
		if err != nil {
			return nil, errors.Wrap(err, "could not open database")
		}
	}

	return app, nil
}

func (app *application) scheduler() scheduler.Controller {
	return scheduler.Controller{
		Logger:        app.logger,
		Database:      app.db,
		Storage:       app.storage,
		Verifier:      app.verifier,
		Specification: app.config.AuditSpecification,
	}
}

func backend(cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage {
	case "file_system":
		return storage.NewFileSystem(cfg.Workspace()), nil
	case "swift":
		conn := &swift.Connection{
			AuthUrl:  cfg.Swift.AuthURL,
			UserName: cfg.Swift.Username,
			ApiKey:   cfg.Swift.APIKey,
			Tenant:   cfg.Swift.Tenant,
			Domain:   cfg.Swift.Domain,
			Region:   cfg.Swift.Region,
		}
		return storage.NewSwift(context.Background(), conn, cfg.Swift.Prefix)
	default:
		return nil, errors.Errorf("unsupported storage: %s", cfg.Storage)
	}
}

func or(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
