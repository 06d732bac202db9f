package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/caseweave/caseweave/modules/cases/services"
	"github.com/caseweave/caseweave/pkg/composables"
)

type verifyOutput struct {
	Command    string                `json:"command"`
	TenantID   string                `json:"tenant_id"`
	Result     services.VerifyResult `json:"result"`
	Clean      bool                  `json:"clean"`
	DurationMS int64                 `json:"duration_ms"`
}

func newVerifyCmd() *cobra.Command {
	var tenantID string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Report drift between cases and their index documents",
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
			result, err := svc.Verify(ctx, tid)
			if err != nil {
				return err
			}

			return writeJSON(verifyOutput{
				Command:    "pattern-index verify",
				TenantID:   tid.String(),
				Result:     result,
				Clean:      len(result.Missing) == 0 && len(result.Orphaned) == 0,
				DurationMS: time.Since(start).Milliseconds(),
			})
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant UUID (required)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
