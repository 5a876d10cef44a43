package scheduler

import (
	"github.com/mdouchement/logger"
	"github.com/mdouchement/securevision/internal/database"
	"github.com/mdouchement/securevision/internal/model"
	"github.com/mdouchement/securevision/internal/service"
	"github.com/mdouchement/securevision/internal/storage"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// A Controller is an Iversion Of Control pattern used to init the scheduler package.
type Controller struct {
	Logger        logger.Logger
	Database      database.Client
	Storage       storage.Backend
	Verifier      *service.Verifier
	Specification string
}

// A Report summarizes an audit.
type Report map[model.Status]int

// Start lauches the scheduler asynchronously.
// The returned cron must be stopped by the caller.
func Start(c Controller) (*cron.Cron, error) {
	cron := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))

	log := c.Logger.WithPrefix("[scheduler]")

	_, err := cron.AddFunc(c.Specification, func() {
		if _, err := Audit(c); err != nil {
			log.Error(err)
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not register audit task")
	}
	log.Infof("Audit task registred (%s)", c.Specification)

	cron.Start()
	log.Info("Scheduler is running")
	return cron, nil
}

// Audit verifies again every sealed item and logs the ones that no longer match their seal.
// Items keep their seal-time status.
func Audit(c Controller) (Report, error) {
	log := c.Logger.WithPrefix("[audit]")

	items, err := c.Database.ListItems()
	if err != nil {
		return nil, errors.Wrap(err, "audit")
	}

	report := Report{}
	for _, item := range items {
		verdict := c.Verifier.Verify(item.URI)
		report[verdict.Status]++

		if verdict.Status != model.StatusValid {
			log.Errorf("%s (%s): %s %v", item.ID, item.URI, verdict.Status, verdict.Errors)
		}
	}

	log.Infof("%d items: %d valid, %d tampered, %d unmatched",
		len(items), report[model.StatusValid], report[model.StatusTampered], report[model.StatusNone])

	log.Info("Storage cleanup")
	if err = c.Storage.Cleanup(); err != nil {
		return report, errors.Wrap(err, "audit")
	}

	return report, nil
}
