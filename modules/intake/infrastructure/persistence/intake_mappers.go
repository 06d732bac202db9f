package persistence

import (
	"github.com/google/uuid"

	"github.com/caseweave/caseweave/modules/intake/domain/aggregates/report"
	"github.com/caseweave/caseweave/modules/intake/infrastructure/persistence/models"
	"github.com/caseweave/caseweave/pkg/mapping"
)

func ToDomainReport(row *models.Report, ext report.Extension) (report.Report, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return report.Report{}, err
	}
	tenantID, err := uuid.Parse(row.TenantID)
	if err != nil {
		return report.Report{}, err
	}

	assignedTo := uuid.Nil
	if row.AssignedToID.Valid {
		assignedTo, err = uuid.Parse(row.AssignedToID.String)
		if err != nil {
			return report.Report{}, err
		}
	}
	statusChangedBy := uuid.Nil
	if row.StatusChangedBy.Valid {
		statusChangedBy, err = uuid.Parse(row.StatusChangedBy.String)
		if err != nil {
			return report.Report{}, err
		}
	}

	return report.Hydrate(
		id,
		tenantID,
		row.ReportNumber,
		report.Channel(row.Channel),
		row.Narrative,
		row.Category,
		report.Severity(row.Severity),
		report.Status(row.Status),
		report.QAOutcome(row.QAOutcome.String),
		assignedTo,
		row.DetectedLanguage.String,
		row.ConfirmedLanguage.String,
		row.StatusChangedAt.Time,
		statusChangedBy,
		ext,
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

func toDBReport(entity report.Report) *models.Report {
	row := &models.Report{
		ID:                entity.ID().String(),
		TenantID:          entity.TenantID().String(),
		ReportNumber:      entity.ReportNumber(),
		Channel:           string(entity.Channel()),
		Narrative:         entity.Narrative(),
		Category:          entity.Category(),
		Severity:          string(entity.Severity()),
		Status:            string(entity.Status()),
		QAOutcome:         mapping.ValueToSQLNullString(string(entity.QAOutcome())),
		DetectedLanguage:  mapping.ValueToSQLNullString(entity.DetectedLanguage()),
		ConfirmedLanguage: mapping.ValueToSQLNullString(entity.ConfirmedLanguage()),
		StatusChangedAt:   mapping.ValueToSQLNullTime(entity.StatusChangedAt()),
		CreatedAt:         entity.CreatedAt(),
		UpdatedAt:         entity.UpdatedAt(),
	}
	if entity.AssignedToID() != uuid.Nil {
		row.AssignedToID = mapping.ValueToSQLNullString(entity.AssignedToID().String())
	}
	if entity.StatusChangedBy() != uuid.Nil {
		row.StatusChangedBy = mapping.ValueToSQLNullString(entity.StatusChangedBy().String())
	}
	return row
}

func toDomainExtension(
	channel report.Channel,
	hotline *models.ReportHotlineDetails,
	webForm *models.ReportWebFormDetails,
	disclosure *models.ReportDisclosureDetails,
) report.Extension {
	switch channel {
	case report.ChannelHotline:
		if hotline == nil {
			return nil
		}
		return report.HotlineDetails{
			OperatorName:   hotline.OperatorName,
			CallReference:  hotline.CallReference.String,
			CallbackNumber: hotline.CallbackNumber.String,
			ReceivedCallAt: hotline.ReceivedCallAt.Time,
		}
	case report.ChannelWebForm:
		if webForm == nil {
			return nil
		}
		return report.WebFormDetails{
			FormVersion: webForm.FormVersion,
			SubmitterIP: webForm.SubmitterIP.String,
			UserAgent:   webForm.UserAgent.String,
			SubmittedAt: webForm.SubmittedAt.Time,
		}
	case report.ChannelDisclosure:
		if disclosure == nil {
			return nil
		}
		return report.DisclosureDetails{
			DiscloserRole: disclosure.DiscloserRole,
			Relationship:  disclosure.Relationship.String,
			LocationName:  disclosure.LocationName.String,
			DisclosedAt:   disclosure.DisclosedAt.Time,
		}
	}
	return nil
}
