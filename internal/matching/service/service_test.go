package service

import (
	"context"
	"testing"
	"time"

	catalogrepo "realty_portal_backend/internal/catalog/repository"
	dealdomain "realty_portal_backend/internal/deals/domain"
	dealsrepo "realty_portal_backend/internal/deals/repository"
	"realty_portal_backend/internal/events"
	"realty_portal_backend/internal/matching/domain"
	"realty_portal_backend/internal/matching/repository"
	"realty_portal_backend/internal/matching/scoring"
	"realty_portal_backend/internal/matching/transport"
	"realty_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func sptr(v string) *string   { return &v }

type fakeDeals struct {
	deals map[uuid.UUID]dealsrepo.Deal
}

func (f *fakeDeals) Create(context.Context, dealsrepo.CreateDealParams) (dealsrepo.Deal, error) {
	panic("not used")
}

func (f *fakeDeals) GetByID(_ context.Context, id, tenantID uuid.UUID) (dealsrepo.Deal, error) {
	deal, ok := f.deals[id]
	if !ok || deal.TenantID != tenantID {
		return dealsrepo.Deal{}, dealsrepo.ErrNotFound
	}
	return deal, nil
}

func (f *fakeDeals) List(context.Context, uuid.UUID) ([]dealsrepo.Deal, error) { return nil, nil }

func (f *fakeDeals) UpdateWithVersion(context.Context, dealsrepo.UpdateDealParams) (dealsrepo.Deal, error) {
	panic("not used")
}

type fakeCatalog struct {
	properties []catalogrepo.Property
}

func (f *fakeCatalog) Create(context.Context, catalogrepo.UpsertPropertyParams) (catalogrepo.Property, error) {
	panic("not used")
}

func (f *fakeCatalog) Update(context.Context, uuid.UUID, catalogrepo.UpsertPropertyParams) (catalogrepo.Property, error) {
	panic("not used")
}

func (f *fakeCatalog) GetByID(_ context.Context, id, tenantID uuid.UUID) (catalogrepo.Property, error) {
	for _, prop := range f.properties {
		if prop.ID == id && prop.TenantID == tenantID {
			return prop, nil
		}
	}
	return catalogrepo.Property{}, catalogrepo.ErrNotFound
}

func (f *fakeCatalog) List(_ context.Context, tenantID uuid.UUID) ([]catalogrepo.Property, error) {
	var out []catalogrepo.Property
	for _, prop := range f.properties {
		if prop.TenantID == tenantID {
			out = append(out, prop)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetRequiredFields(context.Context, uuid.UUID, string) ([]string, error) {
	return nil, nil
}

func (f *fakeCatalog) InsertQualityScore(context.Context, catalogrepo.QualityScore) (catalogrepo.QualityScore, error) {
	panic("not used")
}

func (f *fakeCatalog) GetLatestQualityScore(context.Context, uuid.UUID, uuid.UUID) (catalogrepo.QualityScore, error) {
	panic("not used")
}

type matchKey struct {
	tenantID, dealID, propertyID uuid.UUID
}

type fakeMatches struct {
	records map[matchKey]repository.Match
}

func newFakeMatches() *fakeMatches {
	return &fakeMatches{records: make(map[matchKey]repository.Match)}
}

func (f *fakeMatches) Upsert(_ context.Context, params repository.UpsertMatchParams) (repository.Match, bool, error) {
	key := matchKey{params.TenantID, params.DealID, params.PropertyID}
	now := time.Now()
	if existing, ok := f.records[key]; ok {
		existing.MatchScore = params.MatchScore
		existing.MatchExplanation = params.MatchExplanation
		if existing.SourceOwnerContactID == nil {
			existing.SourceOwnerContactID = params.SourceOwnerContactID
		}
		existing.UpdatedAt = now
		f.records[key] = existing
		return existing, false, nil
	}
	record := repository.Match{
		ID:                   uuid.New(),
		TenantID:             params.TenantID,
		DealID:               params.DealID,
		PropertyID:           params.PropertyID,
		MatchScore:           params.MatchScore,
		MatchExplanation:     params.MatchExplanation,
		Status:               params.InitialStatus,
		SourceOwnerContactID: params.SourceOwnerContactID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	f.records[key] = record
	return record, true, nil
}

func (f *fakeMatches) GetByDealAndProperty(_ context.Context, tenantID, dealID, propertyID uuid.UUID) (repository.Match, error) {
	record, ok := f.records[matchKey{tenantID, dealID, propertyID}]
	if !ok {
		return repository.Match{}, repository.ErrNotFound
	}
	return record, nil
}

func (f *fakeMatches) ListByDeal(_ context.Context, tenantID, dealID uuid.UUID) ([]repository.Match, error) {
	var out []repository.Match
	for _, record := range f.records {
		if record.TenantID == tenantID && record.DealID == dealID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (f *fakeMatches) UpdateStatus(_ context.Context, tenantID, dealID, propertyID uuid.UUID, status string) (repository.Match, error) {
	key := matchKey{tenantID, dealID, propertyID}
	record, ok := f.records[key]
	if !ok {
		return repository.Match{}, repository.ErrNotFound
	}
	record.Status = status
	record.UpdatedAt = time.Now()
	f.records[key] = record
	return record, nil
}

type staticConfig struct {
	threshold, limit, parallelism int
}

func (c staticConfig) GetMatchThreshold() int   { return c.threshold }
func (c staticConfig) GetMatchLimit() int       { return c.limit }
func (c staticConfig) GetMatchParallelism() int { return c.parallelism }

func seedDeal(tenantID uuid.UUID) dealsrepo.Deal {
	return dealsrepo.Deal{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Title:        "3 rooms in Hamdallaye",
		BudgetMin:    fptr(50000),
		BudgetMax:    fptr(80000),
		LocationZone: sptr("Hamdallaye"),
		Criteria:     dealdomain.Criteria{Rooms: iptr(3)},
		Stage:        dealdomain.StageQualified,
		Version:      2,
	}
}

func seedProperty(tenantID uuid.UUID, price float64, zone string, rooms int) catalogrepo.Property {
	return catalogrepo.Property{
		ID:           uuid.New(),
		TenantID:     tenantID,
		PropertyType: "apartment",
		Title:        "listing",
		Price:        fptr(price),
		LocationZone: sptr(zone),
		Rooms:        iptr(rooms),
	}
}

func newTestService(deals *fakeDeals, catalog *fakeCatalog, matches *fakeMatches, bus events.Bus, cfg staticConfig) *Service {
	return New(deals, catalog, matches, bus, nil, cfg)
}

func TestRankSortsFiltersAndTruncates(t *testing.T) {
	tenantID := uuid.New()
	deal := seedDeal(tenantID)

	perfect := seedProperty(tenantID, 65000, "Hamdallaye", 3)
	decent := seedProperty(tenantID, 95000, "Faladie", 1)
	hopeless := seedProperty(tenantID, 1000000, "Faladie", 9)
	hopeless.Features = []string{}

	svc := newTestService(
		&fakeDeals{deals: map[uuid.UUID]dealsrepo.Deal{deal.ID: deal}},
		&fakeCatalog{properties: []catalogrepo.Property{decent, perfect, hopeless}},
		newFakeMatches(), nil,
		staticConfig{threshold: 40, limit: 10, parallelism: 4},
	)

	got, err := svc.Rank(context.Background(), tenantID, deal.ID, nil, nil)
	if err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].PropertyID != perfect.ID || got[0].MatchScore != 100 {
		t.Fatalf("top result = %v score %d", got[0].PropertyID, got[0].MatchScore)
	}
	if got[1].PropertyID != decent.ID || got[1].MatchScore != 52 {
		t.Fatalf("second result = %v score %d", got[1].PropertyID, got[1].MatchScore)
	}

	// Tighter limit truncates after sorting.
	one, err := svc.Rank(context.Background(), tenantID, deal.ID, nil, iptr(1))
	if err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}
	if len(one) != 1 || one[0].PropertyID != perfect.ID {
		t.Fatalf("limit=1 must keep only the best result")
	}

	// Higher explicit threshold drops the mid score.
	strict, err := svc.Rank(context.Background(), tenantID, deal.ID, iptr(60), nil)
	if err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}
	if len(strict) != 1 {
		t.Fatalf("threshold=60 must drop the mid score, got %d results", len(strict))
	}
}

func TestRankTiesKeepFetchOrder(t *testing.T) {
	tenantID := uuid.New()
	deal := seedDeal(tenantID)
	first := seedProperty(tenantID, 65000, "Hamdallaye", 3)
	second := seedProperty(tenantID, 70000, "Hamdallaye", 3)

	svc := newTestService(
		&fakeDeals{deals: map[uuid.UUID]dealsrepo.Deal{deal.ID: deal}},
		&fakeCatalog{properties: []catalogrepo.Property{first, second}},
		newFakeMatches(), nil,
		staticConfig{threshold: 40, limit: 10, parallelism: 4},
	)

	got, err := svc.Rank(context.Background(), tenantID, deal.ID, nil, nil)
	if err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].PropertyID != first.ID || got[1].PropertyID != second.ID {
		t.Fatalf("equal scores must preserve candidate fetch order")
	}
}

func TestRankMisconfiguredParallelismStillCompletes(t *testing.T) {
	tenantID := uuid.New()
	deal := seedDeal(tenantID)
	prop := seedProperty(tenantID, 65000, "Hamdallaye", 3)

	svc := newTestService(
		&fakeDeals{deals: map[uuid.UUID]dealsrepo.Deal{deal.ID: deal}},
		&fakeCatalog{properties: []catalogrepo.Property{prop}},
		newFakeMatches(), nil,
		staticConfig{threshold: 40, limit: 10, parallelism: 0},
	)

	// A zero limit on the fan-out would block every goroutine; the rank
	// call must clamp it and return.
	type rankResult struct {
		matches []transport.RankedMatchResponse
		err     error
	}
	done := make(chan rankResult, 1)
	go func() {
		matches, err := svc.Rank(context.Background(), tenantID, deal.ID, nil, nil)
		done <- rankResult{matches: matches, err: err}
	}()

	select {
	case got := <-done:
		if got.err != nil {
			t.Fatalf("Rank returned error: %v", got.err)
		}
		if len(got.matches) != 1 || got.matches[0].MatchScore != 100 {
			t.Fatalf("got %v, want one perfect match", got.matches)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Rank did not return with parallelism 0")
	}
}

func TestRankUnknownDealIsNotFound(t *testing.T) {
	svc := newTestService(
		&fakeDeals{deals: map[uuid.UUID]dealsrepo.Deal{}},
		&fakeCatalog{}, newFakeMatches(), nil,
		staticConfig{threshold: 40, limit: 10, parallelism: 4},
	)

	_, err := svc.Rank(context.Background(), uuid.New(), uuid.New(), nil, nil)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddToShortlistIsIdempotentUpsert(t *testing.T) {
	tenantID := uuid.New()
	deal := seedDeal(tenantID)
	prop := seedProperty(tenantID, 65000, "Hamdallaye", 3)
	matches := newFakeMatches()

	svc := newTestService(
		&fakeDeals{deals: map[uuid.UUID]dealsrepo.Deal{deal.ID: deal}},
		&fakeCatalog{properties: []catalogrepo.Property{prop}},
		matches, nil,
		staticConfig{threshold: 40, limit: 10, parallelism: 4},
	)

	ownerA := uuid.New()
	ownerB := uuid.New()

	first, err := svc.AddToShortlist(context.Background(), tenantID, uuid.New(), deal.ID, transport.AddToShortlistRequest{
		PropertyID:           prop.ID,
		MatchScore:           87,
		SourceOwnerContactID: &ownerA,
	})
	if err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if first.Status != domain.StatusShortlisted {
		t.Fatalf("status = %q, want %q", first.Status, domain.StatusShortlisted)
	}
	if first.SourceOwnerContactID == nil || *first.SourceOwnerContactID != ownerA {
		t.Fatalf("source owner = %v, want %v", first.SourceOwnerContactID, ownerA)
	}

	// Move the status, then add again: the repeat overwrites the score
	// but must not reset the status or create a second record.
	if _, err := svc.UpdateStatus(context.Background(), tenantID, uuid.New(), deal.ID, prop.ID, domain.StatusVisitPlanned); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	second, err := svc.AddToShortlist(context.Background(), tenantID, uuid.New(), deal.ID, transport.AddToShortlistRequest{
		PropertyID:           prop.ID,
		MatchScore:           91,
		MatchExplanation:     scoring.Result{Total: 91},
		SourceOwnerContactID: &ownerB,
	})
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	if len(matches.records) != 1 {
		t.Fatalf("got %d stored records, want 1", len(matches.records))
	}
	if second.MatchScore != 91 {
		t.Fatalf("score = %d, want 91", second.MatchScore)
	}
	if second.Status != domain.StatusVisitPlanned {
		t.Fatalf("repeat add must not touch status, got %q", second.Status)
	}
	if second.ID != first.ID {
		t.Fatalf("repeat add must reuse the stored record")
	}
	// The source owner sticks to its first non-null value.
	if second.SourceOwnerContactID == nil || *second.SourceOwnerContactID != ownerA {
		t.Fatalf("repeat add must not overwrite the source owner, got %v", second.SourceOwnerContactID)
	}
}

func TestAddToShortlistBackfillsMissingSourceOwner(t *testing.T) {
	tenantID := uuid.New()
	deal := seedDeal(tenantID)
	prop := seedProperty(tenantID, 65000, "Hamdallaye", 3)
	matches := newFakeMatches()

	svc := newTestService(
		&fakeDeals{deals: map[uuid.UUID]dealsrepo.Deal{deal.ID: deal}},
		&fakeCatalog{properties: []catalogrepo.Property{prop}},
		matches, nil,
		staticConfig{threshold: 40, limit: 10, parallelism: 4},
	)

	// Neither the request nor the listing names an owner.
	first, err := svc.AddToShortlist(context.Background(), tenantID, uuid.New(), deal.ID, transport.AddToShortlistRequest{
		PropertyID: prop.ID,
		MatchScore: 80,
	})
	if err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if first.SourceOwnerContactID != nil {
		t.Fatalf("source owner = %v, want nil", first.SourceOwnerContactID)
	}

	owner := uuid.New()
	second, err := svc.AddToShortlist(context.Background(), tenantID, uuid.New(), deal.ID, transport.AddToShortlistRequest{
		PropertyID:           prop.ID,
		MatchScore:           80,
		SourceOwnerContactID: &owner,
	})
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if second.SourceOwnerContactID == nil || *second.SourceOwnerContactID != owner {
		t.Fatalf("repeat add must fill the missing source owner, got %v", second.SourceOwnerContactID)
	}
}

func TestAddToShortlistValidatesDealAndProperty(t *testing.T) {
	tenantID := uuid.New()
	deal := seedDeal(tenantID)
	prop := seedProperty(tenantID, 65000, "Hamdallaye", 3)

	svc := newTestService(
		&fakeDeals{deals: map[uuid.UUID]dealsrepo.Deal{deal.ID: deal}},
		&fakeCatalog{properties: []catalogrepo.Property{prop}},
		newFakeMatches(), nil,
		staticConfig{threshold: 40, limit: 10, parallelism: 4},
	)

	_, err := svc.AddToShortlist(context.Background(), tenantID, uuid.New(), uuid.New(), transport.AddToShortlistRequest{PropertyID: prop.ID})
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("unknown deal: expected not found, got %v", err)
	}

	_, err = svc.AddToShortlist(context.Background(), tenantID, uuid.New(), deal.ID, transport.AddToShortlistRequest{PropertyID: uuid.New()})
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("unknown property: expected not found, got %v", err)
	}
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	svc := newTestService(&fakeDeals{}, &fakeCatalog{}, newFakeMatches(), nil,
		staticConfig{threshold: 40, limit: 10, parallelism: 4})

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), uuid.New(), uuid.New(), uuid.New(), "PENDING")
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateStatusUnshortlistedPairIsNotFound(t *testing.T) {
	svc := newTestService(&fakeDeals{}, &fakeCatalog{}, newFakeMatches(), nil,
		staticConfig{threshold: 40, limit: 10, parallelism: 4})

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), uuid.New(), uuid.New(), uuid.New(), domain.StatusRejected)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
