package casefile

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MergeResult reports what a merge moved, for audit display.
type MergeResult struct {
	SourceCaseID           uuid.UUID `json:"sourceCaseId"`
	TargetCaseID           uuid.UUID `json:"targetCaseId"`
	PersonAssociations     int64     `json:"personAssociations"`
	CaseAssociations       int64     `json:"caseAssociations"`
	SupersededAssociations int64     `json:"supersededAssociations"`
	ReportLinks            int64     `json:"reportLinks"`
	Subjects               int64     `json:"subjects"`
	Investigations         int64     `json:"investigations"`
	Messages               int64     `json:"messages"`
	Interactions           int64     `json:"interactions"`
	MergedAt               time.Time `json:"mergedAt"`
}

// SubordinateCounts tallies the content rows repointed during a merge.
type SubordinateCounts struct {
	Subjects       int64
	Investigations int64
	Messages       int64
	Interactions   int64
}

// MergeRepository holds the row-moving half of a merge. Every method must
// run inside the merge transaction; LockCasePair is always called first.
type MergeRepository interface {
	// LockCasePair takes transaction-scoped advisory locks on both case
	// ids in a stable order, serializing concurrent merges that touch
	// either case.
	LockCasePair(ctx context.Context, a, b uuid.UUID) error

	// RepointPersonAssociations moves non-removed person-case rows from
	// source to target. Rows whose (person, label) already exist on the
	// target are soft-removed as superseded instead of moved. Returns
	// (moved, superseded).
	RepointPersonAssociations(ctx context.Context, source, target, actor uuid.UUID, at time.Time) (int64, int64, error)

	// RepointCaseAssociations moves case-case edges off the source,
	// superseding edges between the pair and edges that would duplicate
	// existing target edges. Returns (moved, superseded).
	RepointCaseAssociations(ctx context.Context, source, target, actor uuid.UUID, at time.Time) (int64, int64, error)

	// RelabelReportLinks moves the source's report links to the target
	// with label MERGED_FROM, superseding links already present on the
	// target. Returns the number moved.
	RelabelReportLinks(ctx context.Context, source, target, actor uuid.UUID, at time.Time) (int64, error)

	// RepointSubordinates moves case content rows (subjects,
	// investigations, messages, interactions) to the target.
	RepointSubordinates(ctx context.Context, source, target uuid.UUID, at time.Time) (SubordinateCounts, error)
}
