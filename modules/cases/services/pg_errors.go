package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/association"
	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/casefile"
)

type ServiceError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}

// mapCasesError translates domain sentinels and raw pg errors into the
// service taxonomy. Already-wrapped service errors pass through untouched.
func mapCasesError(err error) error {
	if err == nil {
		return nil
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return err
	}

	var classErr *association.ClassificationError
	if errors.As(err, &classErr) {
		return newServiceError(http.StatusBadRequest, "ASSOCIATION_CLASSIFICATION", classErr.Error(), err)
	}
	var kindErr *association.LabelKindError
	if errors.As(err, &kindErr) {
		return newServiceError(http.StatusBadRequest, "ASSOCIATION_LABEL_KIND", kindErr.Error(), err)
	}

	switch {
	case errors.Is(err, casefile.ErrNotFound):
		return newServiceError(http.StatusNotFound, "CASE_NOT_FOUND", "case not found", err)
	case errors.Is(err, association.ErrNotFound):
		return newServiceError(http.StatusNotFound, "ASSOCIATION_NOT_FOUND", "association not found", err)
	case errors.Is(err, association.ErrDuplicate):
		return newServiceError(http.StatusConflict, "ASSOCIATION_DUPLICATE", "association already exists", err)
	case errors.Is(err, association.ErrRemoved):
		return newServiceError(http.StatusConflict, "ASSOCIATION_REMOVED", "association has been removed", err)
	case errors.Is(err, casefile.ErrCaseNumberTaken):
		return newServiceError(http.StatusConflict, "CASE_NUMBER_CONFLICT", "case number already used", err)
	case errors.Is(err, casefile.ErrCaseMerged):
		return newServiceError(http.StatusConflict, "CASE_ALREADY_MERGED", "case has been merged", err)
	case errors.Is(err, casefile.ErrReportAlreadyLinked):
		return newServiceError(http.StatusConflict, "REPORT_ALREADY_LINKED", "report already linked to case", err)
	case errors.Is(err, pgx.ErrNoRows):
		return newServiceError(http.StatusNotFound, "CASE_NOT_FOUND", "not found", err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		return newServiceError(http.StatusConflict, "ASSOCIATION_DUPLICATE", "unique constraint violated", err)
	case "23503": // foreign_key_violation
		return newServiceError(http.StatusUnprocessableEntity, "CASES_REFERENCE_NOT_FOUND", "referenced record not found", err)
	case "23P01": // exclusion_violation
		return newServiceError(http.StatusConflict, "CASES_CONFLICT", "constraint violated", err)
	default:
		return newServiceError(http.StatusInternalServerError, "CASES_INTERNAL", fmt.Sprintf("database error (%s)", pgErr.Code), err)
	}
}
