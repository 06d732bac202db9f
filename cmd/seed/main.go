package main

import (
	"context"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"github.com/caseweave/caseweave/modules"
	"github.com/caseweave/caseweave/modules/core/domain/aggregates/user"
	"github.com/caseweave/caseweave/modules/core/domain/value_objects/internet"
	"github.com/caseweave/caseweave/modules/core/seed"
	"github.com/caseweave/caseweave/pkg/application"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/configuration"
	"github.com/caseweave/caseweave/pkg/eventbus"
)

var defaultTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

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

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		Bundle:   application.LoadBundle(),
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app, modules.BuiltInModules...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}
	if err := app.Migrations().Run(); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	email, err := internet.NewEmail("admin@default.localhost")
	if err != nil {
		log.Fatalf("invalid seed email: %v", err)
	}
	adminUser := user.New(
		"Case",
		"Admin",
		email,
		user.UILanguageEN,
		user.WithTenantID(defaultTenantID),
	)

	seeder := application.NewSeeder()
	seeder.Register(
		seed.CreateDefaultTenant,
		seed.UserSeedFunc(adminUser),
	)

	seedCtx := composables.WithTenantID(composables.WithPool(ctx, pool), defaultTenantID)
	tx, err := pool.Begin(seedCtx)
	if err != nil {
		log.Fatalf("failed to begin seed transaction: %v", err)
	}
	seedCtx = composables.WithTx(seedCtx, tx)

	if err := seeder.Seed(seedCtx, app); err != nil {
		_ = tx.Rollback(seedCtx)
		log.Fatalf("failed to seed: %v", err)
	}
	if err := tx.Commit(seedCtx); err != nil {
		log.Fatalf("failed to commit seed transaction: %v", err)
	}
	logger.Info("Seed complete")
}
