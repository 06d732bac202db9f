package modules

import (
	"github.com/caseweave/caseweave/modules/cases"
	"github.com/caseweave/caseweave/modules/core"
	"github.com/caseweave/caseweave/modules/intake"
	"github.com/caseweave/caseweave/modules/logging"
	"github.com/caseweave/caseweave/modules/people"
	"github.com/caseweave/caseweave/pkg/application"
)

// BuiltInModules lists every module in registration order. Logging must
// come before cases: the cases module resolves the audit service during
// registration.
var BuiltInModules = []application.Module{
	core.NewModule(),
	logging.NewModule(),
	people.NewModule(),
	intake.NewModule(),
	cases.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
