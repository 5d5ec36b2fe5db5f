package main

import (
	"fmt"

	"github.com/samtime/samtime-backend/internal/roster/events"
	"github.com/samtime/samtime-backend/internal/roster/repository"
	"github.com/samtime/samtime-backend/internal/roster/service"
	"github.com/samtime/samtime-backend/pkg/config"
	"github.com/samtime/samtime-backend/pkg/database"
	"github.com/samtime/samtime-backend/pkg/logger"
	"github.com/samtime/samtime-backend/pkg/messaging"
	"github.com/spf13/cobra"
)

var legacyDryRun bool

var legacyCmd = &cobra.Command{
	Use:   "migrate-legacy-ids",
	Short: "Rewrite EMPnnn employee ids into EMP-{company}-{nnn}",
	Long: `Rewrite every legacy EMPnnn employee id into the company scoped format.
An id already taken in the company is replaced by the company's next free sequence.
With --dry-run the renames are printed and nothing is written.`,
	RunE: runLegacy,
}

func init() {
	legacyCmd.Flags().BoolVar(&legacyDryRun, "dry-run", false, "print the renames without writing them")
}

func runLegacy(cmd *cobra.Command, _ []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	publisher, rmq := newPublisher(cfg, log)
	if rmq != nil {
		defer rmq.Close()
	}

	svc := service.NewRosterService(
		repository.NewEmployeeRepository(db),
		events.NewRosterEventPublisher(publisher, log),
		cfg.Roster.AllocationRetries,
		log,
	)

	renames, err := svc.MigrateLegacyIDs(cmd.Context(), legacyDryRun)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range renames {
		fmt.Fprintf(out, "company %d: %s -> %s\n", r.CompanyID, r.OldID, r.NewID)
	}
	verb := "renamed"
	if legacyDryRun {
		verb = "would rename"
	}
	fmt.Fprintf(out, "%s %d employee ids\n", verb, len(renames))

	return nil
}

// newPublisher connects to RabbitMQ when enabled. Without a connection
// events are dropped and the returned connection is nil.
func newPublisher(cfg *config.Config, log *logger.Logger) (messaging.EventPublisher, *messaging.RabbitMQ) {
	if !cfg.RabbitMQ.Enabled {
		return messaging.NopPublisher{}, nil
	}

	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Warn().Err(err).Msg("rabbitmq unavailable, events will be dropped")
		return messaging.NopPublisher{}, nil
	}

	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeEvents, config.ServiceName, log)
	if err != nil {
		log.Warn().Err(err).Msg("failed to declare event exchange, events will be dropped")
		rmq.Close()
		return messaging.NopPublisher{}, nil
	}

	return publisher, rmq
}
