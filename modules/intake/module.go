package intake

import (
	"embed"

	"github.com/caseweave/caseweave/modules/intake/infrastructure/persistence"
	"github.com/caseweave/caseweave/modules/intake/presentation/controllers"
	"github.com/caseweave/caseweave/modules/intake/services"
	"github.com/caseweave/caseweave/pkg/application"
	"github.com/caseweave/caseweave/pkg/outbox"
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
		services.NewReportService(persistence.NewReportRepository(), app.EventPublisher(), outbox.NewPublisher()),
	)

	app.RegisterControllers(
		controllers.NewReportAPIController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "intake"
}
