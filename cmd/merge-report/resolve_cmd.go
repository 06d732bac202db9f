package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/caseweave/caseweave/modules/cases/infrastructure/persistence"
	"github.com/caseweave/caseweave/modules/cases/services"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/outbox"
)

type resolveOutput struct {
	RequestedCaseID string `json:"requestedCaseId"`
	PrimaryCaseID   string `json:"primaryCaseId"`
	CaseNumber      string `json:"caseNumber"`
	Title           string `json:"title"`
	FollowedChain   bool   `json:"followedMergeChain"`
}

func newResolveCmd() *cobra.Command {
	var (
		tenantID string
		caseID   string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Follow the merge chain from a case to its surviving primary",
		RunE: func(cmd *cobra.Command, args []string) error {
			tid, err := uuid.Parse(tenantID)
			if err != nil {
				return fmt.Errorf("invalid --tenant: %w", err)
			}
			cid, err := uuid.Parse(caseID)
			if err != nil {
				return fmt.Errorf("invalid --case: %w", err)
			}

			pool, err := connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			ctx := composables.WithTenantID(composables.WithPool(cmd.Context(), pool), tid)
			svc := newMergeService()

			primary, err := svc.ResolvePrimary(ctx, cid)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resolveOutput{
				RequestedCaseID: cid.String(),
				PrimaryCaseID:   primary.ID().String(),
				CaseNumber:      primary.CaseNumber(),
				Title:           primary.Title(),
				FollowedChain:   primary.ID() != cid,
			})
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant UUID (required)")
	cmd.Flags().StringVar(&caseID, "case", "", "Case UUID (required)")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("case")
	return cmd
}

func newMergeService() *services.MergeService {
	return services.NewMergeService(
		persistence.NewCaseRepository(),
		persistence.NewMergeRepository(),
		persistence.NewAssociationRepository(),
		outbox.NewPublisher(),
		nil,
	)
}
