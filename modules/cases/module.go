package cases

import (
	"embed"

	"github.com/caseweave/caseweave/modules/cases/handlers"
	"github.com/caseweave/caseweave/modules/cases/infrastructure/persistence"
	"github.com/caseweave/caseweave/modules/cases/presentation/controllers"
	"github.com/caseweave/caseweave/modules/cases/services"
	loggingservices "github.com/caseweave/caseweave/modules/logging/services"
	peoplepersistence "github.com/caseweave/caseweave/modules/people/infrastructure/persistence"
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

	caseRepo := persistence.NewCaseRepository()
	assocRepo := persistence.NewAssociationRepository()
	mergeRepo := persistence.NewMergeRepository()
	searchRepo := persistence.NewSearchRepository()
	publisher := outbox.NewPublisher()

	// The logging module registers before cases; its audit service records
	// every mutation the services below perform.
	auditor := app.Service(loggingservices.AuditService{}).(*loggingservices.AuditService)

	app.RegisterServices(
		services.NewCaseService(caseRepo, publisher, auditor),
		services.NewAssociationService(assocRepo, caseRepo, publisher, auditor),
		services.NewMergeService(caseRepo, mergeRepo, assocRepo, publisher, auditor),
		services.NewPatternIndexService(caseRepo, assocRepo, peoplepersistence.NewPersonRepository(), searchRepo),
		services.NewPatternQueryService(searchRepo),
	)

	app.RegisterControllers(
		controllers.NewCaseAPIController(app),
		controllers.NewAssociationAPIController(app),
		controllers.NewPatternAPIController(app),
	)

	handlers.RegisterOutboxEventHandlers(app)
	handlers.RegisterIntakeEventHandlers(app)

	return nil
}

func (m *Module) Name() string {
	return "cases"
}
