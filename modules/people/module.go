package people

import (
	"embed"

	"github.com/caseweave/caseweave/modules/people/infrastructure/persistence"
	"github.com/caseweave/caseweave/modules/people/presentation/controllers"
	"github.com/caseweave/caseweave/modules/people/services"
	"github.com/caseweave/caseweave/pkg/application"
)

//go:embed presentation/locales/*.json
var LocaleFiles embed.FS

//go:embed infrastructure/persistence/schema/*.sql
var MigrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&MigrationFiles)
	app.RegisterLocaleFiles(&LocaleFiles)

	app.RegisterServices(
		services.NewPersonService(persistence.NewPersonRepository(), app.EventPublisher()),
	)

	app.RegisterControllers(
		controllers.NewPersonAPIController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "people"
}
