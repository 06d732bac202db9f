package projection_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/caseweave/caseweave/modules/cases/domain/projection"
)

func TestDocumentFlatten(t *testing.T) {
	subjectID := uuid.New()
	witnessID := uuid.New()
	reporterID := uuid.New()
	linkedReporterID := uuid.New()

	doc := projection.Document{
		CaseID: uuid.New(),
		Associations: projection.Associations{
			Persons: []projection.PersonEntry{
				{PersonID: subjectID, Label: "SUBJECT"},
				{PersonID: subjectID, Label: "WITNESS"},
				{PersonID: witnessID, Label: "WITNESS"},
				{PersonID: reporterID, Label: "REPORTER"},
			},
			LinkedReports: []projection.ReportEntry{
				{ReportID: uuid.New(), Label: "ORIGINATING_REPORT", ReporterPersonID: linkedReporterID},
				{ReportID: uuid.New(), Label: "LINKED_REPORT", ReporterPersonID: reporterID},
				{ReportID: uuid.New(), Label: "LINKED_REPORT"},
			},
		},
	}

	doc.Flatten()

	require.ElementsMatch(t, []uuid.UUID{subjectID, witnessID, reporterID}, doc.PersonIDs)
	require.Equal(t, []uuid.UUID{subjectID}, doc.SubjectPersonIDs)
	require.ElementsMatch(t, []uuid.UUID{subjectID, witnessID}, doc.WitnessPersonIDs)

	// A person whose only reporter signal is a linked report still lands in
	// the reporter array, so the reporter-history pre-filter finds the case.
	require.ElementsMatch(t, []uuid.UUID{reporterID, linkedReporterID}, doc.ReporterPersonIDs)
}
