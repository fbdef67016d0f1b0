package service

import (
	"context"
	"testing"
	"time"

	"realty_portal_backend/internal/deals/domain"
	"realty_portal_backend/internal/deals/repository"
	"realty_portal_backend/internal/deals/transport"
	"realty_portal_backend/internal/events"
	"realty_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// fakeRepo is an in-memory DealsRepository that mimics the CAS semantics
// of the pgx implementation.
type fakeRepo struct {
	deals map[uuid.UUID]repository.Deal
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{deals: make(map[uuid.UUID]repository.Deal)}
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateDealParams) (repository.Deal, error) {
	now := time.Now()
	deal := repository.Deal{
		ID:            uuid.New(),
		TenantID:      params.TenantID,
		ContactID:     params.ContactID,
		Title:         params.Title,
		BudgetMin:     params.BudgetMin,
		BudgetMax:     params.BudgetMax,
		LocationZone:  params.LocationZone,
		Criteria:      params.Criteria,
		Stage:         domain.StageNew,
		ExpectedValue: params.ExpectedValue,
		Probability:   params.Probability,
		AssignedTo:    params.AssignedTo,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	f.deals[deal.ID] = deal
	return deal, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id, tenantID uuid.UUID) (repository.Deal, error) {
	deal, ok := f.deals[id]
	if !ok || deal.TenantID != tenantID {
		return repository.Deal{}, repository.ErrNotFound
	}
	return deal, nil
}

func (f *fakeRepo) List(_ context.Context, tenantID uuid.UUID) ([]repository.Deal, error) {
	var out []repository.Deal
	for _, deal := range f.deals {
		if deal.TenantID == tenantID {
			out = append(out, deal)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateWithVersion(_ context.Context, params repository.UpdateDealParams) (repository.Deal, error) {
	deal, ok := f.deals[params.ID]
	if !ok || deal.TenantID != params.TenantID {
		return repository.Deal{}, repository.ErrNotFound
	}
	if deal.Version != params.ExpectedVersion {
		return repository.Deal{}, repository.ErrVersionConflict
	}

	deal.Title = params.Title
	deal.BudgetMin = params.BudgetMin
	deal.BudgetMax = params.BudgetMax
	deal.LocationZone = params.LocationZone
	deal.Criteria = params.Criteria
	deal.Stage = params.Stage
	deal.ExpectedValue = params.ExpectedValue
	deal.Probability = params.Probability
	deal.AssignedTo = params.AssignedTo
	deal.ClosedAt = params.ClosedAt
	deal.ClosedReason = params.ClosedReason
	deal.Version++
	deal.UpdatedAt = time.Now()
	f.deals[deal.ID] = deal
	return deal, nil
}

// recordingBus captures published events synchronously.
type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func newTestService(repo repository.DealsRepository, bus events.Bus) *Service {
	svc := New(repo, bus, nil)
	return svc
}

func mustCreateDeal(t *testing.T, svc *Service, tenantID uuid.UUID, req transport.CreateDealRequest) *transport.DealResponse {
	t.Helper()
	deal, err := svc.Create(context.Background(), tenantID, uuid.New(), req)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	return deal
}

func TestCreateStartsInNewStageWithVersionOne(t *testing.T) {
	svc := newTestService(newFakeRepo(), &recordingBus{})
	tenantID := uuid.New()

	deal := mustCreateDeal(t, svc, tenantID, transport.CreateDealRequest{Title: "3-room apartment hunt"})

	if deal.Stage != domain.StageNew {
		t.Fatalf("new deal stage = %q, want %q", deal.Stage, domain.StageNew)
	}
	if deal.Version != 1 {
		t.Fatalf("new deal version = %d, want 1", deal.Version)
	}
	if deal.ClosedAt != nil {
		t.Fatalf("new deal must not carry closedAt")
	}
}

func TestCreateRejectsInvertedBudget(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)
	min, max := 500000.0, 300000.0

	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), transport.CreateDealRequest{
		Title:     "bad budget",
		BudgetMin: &min,
		BudgetMax: &max,
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdvanceStageIncrementsVersion(t *testing.T) {
	bus := &recordingBus{}
	svc := newTestService(newFakeRepo(), bus)
	tenantID := uuid.New()
	deal := mustCreateDeal(t, svc, tenantID, transport.CreateDealRequest{Title: "loft"})

	updated, err := svc.AdvanceStage(context.Background(), tenantID, uuid.New(), deal.ID, transport.AdvanceStageRequest{
		Stage:           domain.StageQualified,
		ExpectedVersion: 1,
	})
	if err != nil {
		t.Fatalf("AdvanceStage returned error: %v", err)
	}

	if updated.Stage != domain.StageQualified {
		t.Fatalf("stage = %q, want %q", updated.Stage, domain.StageQualified)
	}
	if updated.Version != 2 {
		t.Fatalf("version = %d, want 2", updated.Version)
	}

	var found bool
	for _, ev := range bus.published {
		if sc, ok := ev.(events.DealStageChanged); ok {
			found = true
			if sc.OldStage != domain.StageNew || sc.NewStage != domain.StageQualified {
				t.Fatalf("event stages = %q -> %q", sc.OldStage, sc.NewStage)
			}
		}
	}
	if !found {
		t.Fatalf("expected a DealStageChanged event")
	}
}

func TestAdvanceStageStaleVersionConflicts(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)
	tenantID := uuid.New()
	deal := mustCreateDeal(t, svc, tenantID, transport.CreateDealRequest{Title: "duplex"})

	if _, err := svc.AdvanceStage(context.Background(), tenantID, uuid.New(), deal.ID, transport.AdvanceStageRequest{
		Stage:           domain.StageVisit,
		ExpectedVersion: 1,
	}); err != nil {
		t.Fatalf("first transition failed: %v", err)
	}

	// Second writer still holds version 1.
	_, err := svc.AdvanceStage(context.Background(), tenantID, uuid.New(), deal.ID, transport.AdvanceStageRequest{
		Stage:           domain.StageNegotiation,
		ExpectedVersion: 1,
	})
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	stored, getErr := svc.Get(context.Background(), tenantID, deal.ID)
	if getErr != nil {
		t.Fatalf("Get returned error: %v", getErr)
	}
	if stored.Stage != domain.StageVisit || stored.Version != 2 {
		t.Fatalf("stale write must not change the record: stage=%q version=%d", stored.Stage, stored.Version)
	}
}

func TestAdvanceStageRejectsUnknownStage(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)
	tenantID := uuid.New()
	deal := mustCreateDeal(t, svc, tenantID, transport.CreateDealRequest{Title: "penthouse"})

	_, err := svc.AdvanceStage(context.Background(), tenantID, uuid.New(), deal.ID, transport.AdvanceStageRequest{
		Stage:           "ARCHIVED",
		ExpectedVersion: 1,
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClosingToWonSetsClosingFields(t *testing.T) {
	frozen := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	svc := newTestService(newFakeRepo(), &recordingBus{})
	svc.now = func() time.Time { return frozen }

	tenantID := uuid.New()
	deal := mustCreateDeal(t, svc, tenantID, transport.CreateDealRequest{Title: "closing deal"})

	reason := "buyer signed"
	won, err := svc.AdvanceStage(context.Background(), tenantID, uuid.New(), deal.ID, transport.AdvanceStageRequest{
		Stage:           domain.StageWon,
		ExpectedVersion: 1,
		ClosedReason:    &reason,
	})
	if err != nil {
		t.Fatalf("AdvanceStage returned error: %v", err)
	}

	if won.ClosedAt == nil || !won.ClosedAt.Equal(frozen) {
		t.Fatalf("closedAt = %v, want %v", won.ClosedAt, frozen)
	}
	if won.ClosedReason == nil || *won.ClosedReason != reason {
		t.Fatalf("closedReason = %v, want %q", won.ClosedReason, reason)
	}
}

func TestReopeningClearsClosingFields(t *testing.T) {
	svc := newTestService(newFakeRepo(), &recordingBus{})
	tenantID := uuid.New()
	deal := mustCreateDeal(t, svc, tenantID, transport.CreateDealRequest{Title: "lost then revived"})

	reason := "went with a competitor"
	lost, err := svc.AdvanceStage(context.Background(), tenantID, uuid.New(), deal.ID, transport.AdvanceStageRequest{
		Stage:           domain.StageLost,
		ExpectedVersion: 1,
		ClosedReason:    &reason,
	})
	if err != nil {
		t.Fatalf("closing transition failed: %v", err)
	}
	if lost.ClosedAt == nil {
		t.Fatalf("closed deal must carry closedAt")
	}

	reopened, err := svc.AdvanceStage(context.Background(), tenantID, uuid.New(), deal.ID, transport.AdvanceStageRequest{
		Stage:           domain.StageNegotiation,
		ExpectedVersion: lost.Version,
	})
	if err != nil {
		t.Fatalf("reopening transition failed: %v", err)
	}

	if reopened.ClosedAt != nil || reopened.ClosedReason != nil {
		t.Fatalf("reopened deal must clear closing fields, got closedAt=%v reason=%v", reopened.ClosedAt, reopened.ClosedReason)
	}
}

func TestAdvanceStageBundlesFieldUpdates(t *testing.T) {
	svc := newTestService(newFakeRepo(), &recordingBus{})
	tenantID := uuid.New()
	deal := mustCreateDeal(t, svc, tenantID, transport.CreateDealRequest{Title: "old title"})

	title := "renamed during qualification"
	value := 425000.0
	updated, err := svc.AdvanceStage(context.Background(), tenantID, uuid.New(), deal.ID, transport.AdvanceStageRequest{
		Stage:           domain.StageQualified,
		ExpectedVersion: 1,
		Title:           &title,
		ExpectedValue:   &value,
	})
	if err != nil {
		t.Fatalf("AdvanceStage returned error: %v", err)
	}

	if updated.Title != title {
		t.Fatalf("title = %q, want %q", updated.Title, title)
	}
	if updated.ExpectedValue == nil || *updated.ExpectedValue != value {
		t.Fatalf("expectedValue = %v, want %v", updated.ExpectedValue, value)
	}
}

func TestGetIsTenantScoped(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)
	tenantID := uuid.New()
	deal := mustCreateDeal(t, svc, tenantID, transport.CreateDealRequest{Title: "mine"})

	_, err := svc.Get(context.Background(), uuid.New(), deal.ID)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("cross-tenant read must yield not found, got %v", err)
	}
}
