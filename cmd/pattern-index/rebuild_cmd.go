package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/caseweave/caseweave/modules/cases/infrastructure/persistence"
	"github.com/caseweave/caseweave/modules/cases/services"
	peoplepersistence "github.com/caseweave/caseweave/modules/people/infrastructure/persistence"
	"github.com/caseweave/caseweave/pkg/composables"
)

type rebuildOutput struct {
	Command    string `json:"command"`
	TenantID   string `json:"tenant_id"`
	Reindexed  int    `json:"reindexed"`
	DurationMS int64  `json:"duration_ms"`
}

func newRebuildCmd() *cobra.Command {
	var tenantID string

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild every pattern index document for a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			tid, err := uuid.Parse(tenantID)
			if err != nil {
				return fmt.Errorf("invalid --tenant: %w", err)
			}

			pool, err := connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			ctx := composables.WithPool(cmd.Context(), pool)
			svc := newIndexService()

			start := time.Now()
			total, err := svc.RebuildTenant(ctx, tid)
			if err != nil {
				return err
			}

			return writeJSON(rebuildOutput{
				Command:    "pattern-index rebuild",
				TenantID:   tid.String(),
				Reindexed:  total,
				DurationMS: time.Since(start).Milliseconds(),
			})
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant UUID (required)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func newIndexService() *services.PatternIndexService {
	return services.NewPatternIndexService(
		persistence.NewCaseRepository(),
		persistence.NewAssociationRepository(),
		peoplepersistence.NewPersonRepository(),
		persistence.NewSearchRepository(),
	)
}
