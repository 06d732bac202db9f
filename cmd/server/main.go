package main

import (
	"context"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/caseweave/caseweave/internal/server"
	"github.com/caseweave/caseweave/modules"
	casesoutboxdispatcher "github.com/caseweave/caseweave/modules/cases/infrastructure/outbox"
	intakeoutboxdispatcher "github.com/caseweave/caseweave/modules/intake/infrastructure/outbox"
	"github.com/caseweave/caseweave/pkg/application"
	"github.com/caseweave/caseweave/pkg/configuration"
	"github.com/caseweave/caseweave/pkg/eventbus"
	"github.com/caseweave/caseweave/pkg/logging"
	"github.com/caseweave/caseweave/pkg/metrics"
	"github.com/caseweave/caseweave/pkg/outbox"
	eventbusdispatcher "github.com/caseweave/caseweave/pkg/outbox/dispatchers/eventbus"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	var tracingCleanup func()
	if conf.OpenTelemetry.Enabled {
		tracingCleanup = logging.SetupTracing(
			context.Background(),
			conf.OpenTelemetry.ServiceName,
			conf.OpenTelemetry.TempoURL,
		)
		defer tracingCleanup()
		logger.Info("OpenTelemetry tracing enabled, exporting to Tempo at " + conf.OpenTelemetry.TempoURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	bundle := application.LoadBundle()
	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		Bundle:   bundle,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app, modules.BuiltInModules...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}
	if err := app.Migrations().Run(); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	startOutboxBackground(conf, pool, logger, app.EventPublisher())

	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}
	options := &server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Pool:          pool,
	}
	serverInstance, err := server.Default(options)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	log.Printf("Listening on: %s\n", conf.Origin)
	if err := serverInstance.Start(conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

func startOutboxBackground(
	conf *configuration.Configuration,
	pool *pgxpool.Pool,
	logger *logrus.Logger,
	bus eventbus.EventBus,
) {
	outboxLog := logger.WithField("component", "outbox")

	relayTables, relayTablesErr := outbox.ParseIdentifierList(conf.Outbox.RelayTables)
	if relayTablesErr != nil {
		outboxLog.WithError(relayTablesErr).Warn("outbox: invalid OUTBOX_RELAY_TABLES; relay disabled")
		relayTables = nil
	}

	var cleanerTables []pgx.Identifier
	if conf.Outbox.CleanerTables == "" {
		cleanerTables = relayTables
	} else {
		var cleanerTablesErr error
		cleanerTables, cleanerTablesErr = outbox.ParseIdentifierList(conf.Outbox.CleanerTables)
		if cleanerTablesErr != nil {
			outboxLog.WithError(cleanerTablesErr).Warn("outbox: invalid OUTBOX_CLEANER_TABLES; cleaner disabled")
			cleanerTables = nil
		}
	}

	if conf.Outbox.RelayEnabled {
		if len(relayTables) == 0 {
			if relayTablesErr == nil {
				outboxLog.Info("outbox: relay enabled but OUTBOX_RELAY_TABLES is empty")
			}
		} else {
			eb, ok := bus.(eventbus.EventBusWithError)
			if !ok {
				outboxLog.Warn("outbox: eventbus does not support PublishE; relay not started")
			} else {
				dispatcher := eventbusdispatcher.New(eb)
				for _, table := range relayTables {
					var relayDispatcher outbox.Dispatcher = dispatcher
					switch outbox.TableLabel(table) {
					case "public.cases_outbox":
						relayDispatcher = casesoutboxdispatcher.NewDispatcher(eb)
					case "public.intake_outbox":
						relayDispatcher = intakeoutboxdispatcher.NewDispatcher(eb)
					}
					relay, err := outbox.NewRelay(pool, table, relayDispatcher, outbox.RelayOptions{
						PollInterval:    conf.Outbox.RelayPollInterval,
						BatchSize:       conf.Outbox.RelayBatchSize,
						LockTTL:         conf.Outbox.RelayLockTTL,
						MaxAttempts:     conf.Outbox.RelayMaxAttempts,
						SingleActive:    conf.Outbox.RelaySingleActive,
						LastErrorMaxLen: conf.Outbox.LastErrorMaxBytes,
						DispatchTimeout: conf.Outbox.RelayDispatchTimeout,
						Logger:          outboxLog.WithField("table", outbox.TableLabel(table)),
					})
					if err != nil {
						outboxLog.WithError(err).Warn("outbox: failed to create relay")
						continue
					}
					go func(r *outbox.Relay) {
						if err := r.Run(context.Background()); err != nil {
							outboxLog.WithError(err).Error("outbox: relay stopped")
						}
					}(relay)
				}
			}
		}
	}

	if conf.Outbox.CleanerEnabled && len(cleanerTables) > 0 {
		for _, table := range cleanerTables {
			cleaner, err := outbox.NewCleaner(pool, table, outbox.CleanerOptions{
				Enabled:               true,
				Interval:              conf.Outbox.CleanerInterval,
				Retention:             conf.Outbox.CleanerRetention,
				DeadRetention:         conf.Outbox.CleanerDeadRetention,
				DeadAttemptsThreshold: conf.Outbox.RelayMaxAttempts,
				Logger:                outboxLog.WithField("table", outbox.TableLabel(table)),
			})
			if err != nil {
				outboxLog.WithError(err).Warn("outbox: failed to create cleaner")
				continue
			}
			go func(c *outbox.Cleaner) {
				if err := c.Run(context.Background()); err != nil {
					outboxLog.WithError(err).Error("outbox: cleaner stopped")
				}
			}(cleaner)
		}
	} else if conf.Outbox.CleanerEnabled && len(cleanerTables) == 0 {
		outboxLog.Info("outbox: cleaner enabled but no tables configured")
	}
}
