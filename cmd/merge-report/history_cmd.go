package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/casefile"
	"github.com/caseweave/caseweave/pkg/composables"
)

type tombstoneLine struct {
	CaseID       string `json:"caseId"`
	CaseNumber   string `json:"caseNumber"`
	Title        string `json:"title"`
	MergedAt     string `json:"mergedAt"`
	MergedBy     string `json:"mergedBy,omitempty"`
	MergedReason string `json:"mergedReason,omitempty"`
}

func newHistoryCmd() *cobra.Command {
	var (
		tenantID string
		caseID   string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the tombstones folded into a case, one JSON line each",
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

			history, err := svc.GetMergeHistory(ctx, cid)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			for _, tombstone := range history {
				if err := enc.Encode(toTombstoneLine(tombstone)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant UUID (required)")
	cmd.Flags().StringVar(&caseID, "case", "", "Case UUID (required)")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("case")
	return cmd
}

func toTombstoneLine(c casefile.Case) tombstoneLine {
	line := tombstoneLine{
		CaseID:       c.ID().String(),
		CaseNumber:   c.CaseNumber(),
		Title:        c.Title(),
		MergedAt:     c.MergedAt().UTC().Format(time.RFC3339),
		MergedReason: c.MergedReason(),
	}
	if c.MergedBy() != uuid.Nil {
		line.MergedBy = c.MergedBy().String()
	}
	return line
}
