package application

import (
	"context"
	"embed"
	"reflect"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nicksnyder/go-i18n/v2/i18n"

	"github.com/caseweave/caseweave/pkg/eventbus"
)

// Application is the dependency registry shared by every module. Modules
// register their services, controllers and migrations against it during
// startup; controllers resolve services back out of it at request time.
type Application interface {
	DB() *pgxpool.Pool
	EventPublisher() eventbus.EventBus
	Middleware() []mux.MiddlewareFunc
	Controllers() []Controller
	Migrations() MigrationManager
	Bundle() *i18n.Bundle
	GetSupportedLanguages() []string

	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	RegisterServices(services ...interface{})
	RegisterLocaleFiles(fs ...*embed.FS)

	Service(service interface{}) interface{}
	Services() map[reflect.Type]interface{}
}

// Controller mounts a group of routes on the router.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}

// Module is a self-contained feature unit.
type Module interface {
	Name() string
	Register(app Application) error
}

// SeedFunc populates initial data for an application.
type SeedFunc func(ctx context.Context, app Application) error

// Seeder runs registered seed functions in order.
type Seeder interface {
	Register(seedFuncs ...SeedFunc)
	Seed(ctx context.Context, app Application) error
}

// MigrationManager applies schema migrations registered by modules.
type MigrationManager interface {
	RegisterSchema(fs *embed.FS)
	Run() error
	Rollback() error
}
