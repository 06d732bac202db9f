package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/caseweave/caseweave/modules/intake/domain/aggregates/report"
	"github.com/caseweave/caseweave/modules/intake/domain/events"
	"github.com/caseweave/caseweave/pkg/authz"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/constants"
	"github.com/caseweave/caseweave/pkg/outbox"
	"github.com/caseweave/caseweave/pkg/repo"
	"github.com/caseweave/caseweave/pkg/serrors"
)

type mockReportRepo struct {
	called  bool
	reports map[uuid.UUID]report.Report
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{reports: map[uuid.UUID]report.Report{}}
}

func (m *mockReportRepo) GetPaginated(ctx context.Context, params *report.FindParams) ([]report.Report, int64, error) {
	m.called = true
	out := make([]report.Report, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func (m *mockReportRepo) GetByID(ctx context.Context, id uuid.UUID) (report.Report, error) {
	m.called = true
	r, ok := m.reports[id]
	if !ok {
		return report.Report{}, report.ErrNotFound
	}
	return r, nil
}

func (m *mockReportRepo) Create(ctx context.Context, r report.Report) (report.Report, error) {
	m.called = true
	m.reports[r.ID()] = r
	return r, nil
}

func (m *mockReportRepo) Update(ctx context.Context, r report.Report) (report.Report, error) {
	m.called = true
	m.reports[r.ID()] = r
	return r, nil
}

type stubPublisher struct {
	published []interface{}
}

func (s *stubPublisher) Publish(args ...interface{})     { s.published = append(s.published, args...) }
func (s *stubPublisher) Subscribe(handler interface{})   {}
func (s *stubPublisher) Unsubscribe(handler interface{}) {}
func (s *stubPublisher) Clear()                          {}
func (s *stubPublisher) SubscribersCount() int           { return 0 }

type stubOutboxPublisher struct {
	messages []outbox.Message
}

func (s *stubOutboxPublisher) Enqueue(ctx context.Context, tx repo.Tx, table pgx.Identifier, msg outbox.Message) (int64, error) {
	s.messages = append(s.messages, msg)
	return int64(len(s.messages)), nil
}

// noopTx satisfies the transaction lookup inside enqueueReportChanged; the
// stub publisher never touches it.
type noopTx struct{}

func (noopTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not implemented")
}

func (noopTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (noopTx) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func (noopTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }

func (noopTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("not implemented")
}

func outboxCtx(tenantID uuid.UUID) context.Context {
	ctx := composables.WithTenantID(context.Background(), tenantID)
	return context.WithValue(ctx, constants.TxKey, repo.Tx(noopTx{}))
}

func passthroughTx(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { inTx = composables.InTx })
	inTx = func(ctx context.Context, fn func(context.Context) error) error {
		return fn(ctx)
	}
}

func denyIntakeAuthz(t *testing.T, wantAction string) {
	t.Helper()
	t.Cleanup(func() { authorizeIntakeFn = defaultAuthorizeIntake })
	authorizeIntakeFn = func(ctx context.Context, object, action string, opts ...authz.RequestOption) error {
		require.Equal(t, reportsAuthzObject, object)
		require.Equal(t, wantAction, action)
		return errors.New("forbidden")
	}
}

func storedHotlineReport(t *testing.T, repo *mockReportRepo) report.Report {
	t.Helper()
	r := report.New(
		uuid.New(),
		"R-2026-0042",
		report.ChannelHotline,
		"caller reported missing inventory",
		"FRAUD",
		report.SeverityHigh,
		report.HotlineDetails{OperatorName: "Dana Reyes"},
	)
	repo.reports[r.ID()] = r
	repo.called = false
	return r
}

func TestReportService_AuthorizeCreateDenied(t *testing.T) {
	denyIntakeAuthz(t, "create")

	repo := newMockReportRepo()
	svc := NewReportService(repo, &stubPublisher{}, nil)

	_, err := svc.Create(context.Background(), &report.CreateDTO{})
	require.Error(t, err)
	require.False(t, repo.called, "repository should not be called when authorization fails")
}

func TestReportService_UpdateRejectsImmutableFields(t *testing.T) {
	passthroughTx(t)

	repo := newMockReportRepo()
	svc := NewReportService(repo, &stubPublisher{}, nil)
	stored := storedHotlineReport(t, repo)

	narrative := "a different story"
	severity := "LOW"
	dto := &report.UpdateDTO{
		Narrative: &narrative,
		Severity:  &severity,
	}

	_, err := svc.Update(context.Background(), stored.ID(), dto)
	require.Error(t, err)

	var immutableErr *report.ImmutableFieldsError
	require.ErrorAs(t, err, &immutableErr)
	require.ElementsMatch(t, []string{"Narrative", "Severity"}, immutableErr.Fields)

	var fieldErrs serrors.ValidationErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.ElementsMatch(t, []string{"Narrative", "Severity"}, fieldErrs.Fields())

	require.Equal(t, stored.Narrative(), repo.reports[stored.ID()].Narrative(), "stored report must be untouched")
}

func TestReportService_UpdateAllowsUnchangedContentEcho(t *testing.T) {
	passthroughTx(t)

	repo := newMockReportRepo()
	svc := NewReportService(repo, &stubPublisher{}, nil)
	stored := storedHotlineReport(t, repo)

	// Echoing the stored values back is not a change attempt.
	narrative := stored.Narrative()
	dto := &report.UpdateDTO{
		Narrative: &narrative,
		Status:    string(report.StatusInReview),
	}

	updated, err := svc.Update(context.Background(), stored.ID(), dto)
	require.NoError(t, err)
	require.Equal(t, report.StatusInReview, updated.Status())
	require.False(t, updated.StatusChangedAt().IsZero())
}

func TestReportService_UpdateRejectsOutOfOrderStatus(t *testing.T) {
	passthroughTx(t)

	repo := newMockReportRepo()
	svc := NewReportService(repo, &stubPublisher{}, nil)
	stored := storedHotlineReport(t, repo)

	dto := &report.UpdateDTO{Status: string(report.StatusTriaged)}
	updated, err := svc.Update(context.Background(), stored.ID(), dto)
	require.NoError(t, err)
	require.Equal(t, report.StatusTriaged, updated.Status())

	back := &report.UpdateDTO{Status: string(report.StatusInReview)}
	_, err = svc.Update(context.Background(), stored.ID(), back)

	var transitionErr *report.StatusTransitionError
	require.ErrorAs(t, err, &transitionErr)
}

func TestReportService_UpdateTracksQAAndLanguage(t *testing.T) {
	passthroughTx(t)

	repo := newMockReportRepo()
	publisher := &stubPublisher{}
	svc := NewReportService(repo, publisher, nil)
	stored := storedHotlineReport(t, repo)

	qa := "PASSED"
	lang := "ru"
	dto := &report.UpdateDTO{QAOutcome: &qa, ConfirmedLanguage: &lang}

	updated, err := svc.Update(context.Background(), stored.ID(), dto)
	require.NoError(t, err)
	require.Equal(t, report.QAOutcomePassed, updated.QAOutcome())
	require.Equal(t, "ru", svc.LanguageEffective(updated))
	require.NotEmpty(t, publisher.published)
}

func TestReportService_CreateStagesDurableEvent(t *testing.T) {
	passthroughTx(t)

	repo := newMockReportRepo()
	staged := &stubOutboxPublisher{}
	svc := NewReportService(repo, &stubPublisher{}, staged)

	tenantID := uuid.New()
	reporterID := uuid.New()
	subjectID := uuid.New()
	dto := &report.CreateDTO{
		ReportNumber:     "R-2026-0099",
		Channel:          "WEB_FORM",
		Narrative:        "anonymous submission about expense fraud",
		Category:         "FRAUD",
		Severity:         "MEDIUM",
		ReporterPersonID: reporterID.String(),
		SubjectPersonIDs: []string{subjectID.String()},
		WebForm:          &report.WebFormDetailsDTO{FormVersion: "v3"},
	}

	created, err := svc.Create(outboxCtx(tenantID), dto)
	require.NoError(t, err)

	require.Len(t, staged.messages, 1)
	msg := staged.messages[0]
	require.Equal(t, tenantID, msg.TenantID)
	require.Equal(t, events.TopicReportChangedV1, msg.Topic)

	var ev events.ReportChangedV1
	require.NoError(t, json.Unmarshal(msg.Payload, &ev))
	require.Equal(t, created.ID(), ev.ReportID)
	require.Equal(t, events.ChangeCreated, ev.ChangeType)
	require.Equal(t, reporterID, ev.ReporterPersonID)
	require.Equal(t, []uuid.UUID{subjectID}, ev.SubjectPersonIDs)
	require.Equal(t, msg.EventID, ev.EventID)
}

func TestReportService_CreateRejectsMissingChannelExtension(t *testing.T) {
	passthroughTx(t)

	repo := newMockReportRepo()
	svc := NewReportService(repo, &stubPublisher{}, nil)

	dto := &report.CreateDTO{
		ReportNumber: "R-2026-0100",
		Channel:      "WEB_FORM",
		Narrative:    "submission missing its form details",
		Category:     "FRAUD",
		Severity:     "LOW",
	}

	_, err := svc.Create(composables.WithTenantID(context.Background(), uuid.New()), dto)

	var fieldErrs serrors.ValidationErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Contains(t, fieldErrs, "WebForm")
	require.False(t, repo.called, "repository should not be called for an invalid payload")
}

func TestReportService_StatusMoveStagesStatusChanged(t *testing.T) {
	passthroughTx(t)

	repo := newMockReportRepo()
	staged := &stubOutboxPublisher{}
	svc := NewReportService(repo, &stubPublisher{}, staged)
	stored := storedHotlineReport(t, repo)

	dto := &report.UpdateDTO{Status: string(report.StatusInReview)}
	_, err := svc.Update(outboxCtx(stored.TenantID()), stored.ID(), dto)
	require.NoError(t, err)

	require.Len(t, staged.messages, 1)
	var ev events.ReportChangedV1
	require.NoError(t, json.Unmarshal(staged.messages[0].Payload, &ev))
	require.Equal(t, events.ChangeStatusChanged, ev.ChangeType)
	require.Equal(t, string(report.StatusInReview), ev.Status)
}
