package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"realty_portal_backend/internal/catalog/repository"
	"realty_portal_backend/internal/catalog/transport"
	"realty_portal_backend/internal/events"
	"realty_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeRepo struct {
	properties map[uuid.UUID]repository.Property
	templates  map[string][]string
	snapshots  []repository.QualityScore
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		properties: make(map[uuid.UUID]repository.Property),
		templates:  make(map[string][]string),
	}
}

func (f *fakeRepo) Create(_ context.Context, params repository.UpsertPropertyParams) (repository.Property, error) {
	now := time.Now()
	prop := repository.Property{
		ID:           uuid.New(),
		TenantID:     params.TenantID,
		PropertyType: params.PropertyType,
		Title:        params.Title,
		Price:        params.Price,
		LocationZone: params.LocationZone,
		SurfaceArea:  params.SurfaceArea,
		Rooms:        params.Rooms,
		Bedrooms:     params.Bedrooms,
		Features:     params.Features,
		Description:  params.Description,
		Latitude:     params.Latitude,
		Longitude:    params.Longitude,
		Media:        params.Media,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.properties[prop.ID] = prop
	return prop, nil
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, params repository.UpsertPropertyParams) (repository.Property, error) {
	prop, ok := f.properties[id]
	if !ok || prop.TenantID != params.TenantID {
		return repository.Property{}, repository.ErrNotFound
	}
	prop.Title = params.Title
	prop.Price = params.Price
	prop.Media = params.Media
	prop.UpdatedAt = time.Now()
	f.properties[id] = prop
	return prop, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id, tenantID uuid.UUID) (repository.Property, error) {
	prop, ok := f.properties[id]
	if !ok || prop.TenantID != tenantID {
		return repository.Property{}, repository.ErrNotFound
	}
	return prop, nil
}

func (f *fakeRepo) List(_ context.Context, tenantID uuid.UUID) ([]repository.Property, error) {
	var out []repository.Property
	for _, prop := range f.properties {
		if prop.TenantID == tenantID {
			out = append(out, prop)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetRequiredFields(_ context.Context, _ uuid.UUID, propertyType string) ([]string, error) {
	return f.templates[propertyType], nil
}

func (f *fakeRepo) InsertQualityScore(_ context.Context, score repository.QualityScore) (repository.QualityScore, error) {
	score.ID = uuid.New()
	score.CalculatedAt = time.Now()
	f.snapshots = append(f.snapshots, score)
	return score, nil
}

func (f *fakeRepo) GetLatestQualityScore(_ context.Context, propertyID, tenantID uuid.UUID) (repository.QualityScore, error) {
	for i := len(f.snapshots) - 1; i >= 0; i-- {
		s := f.snapshots[i]
		if s.PropertyID == propertyID && s.TenantID == tenantID {
			return s, nil
		}
	}
	return repository.QualityScore{}, repository.ErrNotFound
}

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

type fakeScheduler struct {
	enqueued int
	fail     bool
}

func (s *fakeScheduler) EnqueueQualityRecalculate(context.Context, uuid.UUID, uuid.UUID) error {
	s.enqueued++
	if s.fail {
		return errors.New("redis down")
	}
	return nil
}

func fptr(v float64) *float64 { return &v }

func TestCreatePublishesAndSchedulesRecalc(t *testing.T) {
	bus := &recordingBus{}
	sched := &fakeScheduler{}
	svc := New(newFakeRepo(), bus, sched, nil)

	prop, err := svc.Create(context.Background(), uuid.New(), transport.UpsertPropertyRequest{
		PropertyType: "apartment",
		Title:        "listing",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if sched.enqueued != 1 {
		t.Fatalf("enqueued = %d, want 1", sched.enqueued)
	}

	var found bool
	for _, ev := range bus.published {
		if pc, ok := ev.(events.PropertyChanged); ok {
			found = true
			if pc.PropertyID != prop.ID || !pc.Created {
				t.Fatalf("unexpected event payload: %+v", pc)
			}
		}
	}
	if !found {
		t.Fatalf("expected a PropertyChanged event")
	}
}

func TestEnqueueFailureDoesNotFailMutation(t *testing.T) {
	sched := &fakeScheduler{fail: true}
	svc := New(newFakeRepo(), nil, sched, nil)

	_, err := svc.Create(context.Background(), uuid.New(), transport.UpsertPropertyRequest{
		PropertyType: "house",
		Title:        "villa",
	})
	if err != nil {
		t.Fatalf("enqueue failure must not surface: %v", err)
	}
}

func TestCalculateQualityScorePersistsSnapshot(t *testing.T) {
	repo := newFakeRepo()
	repo.templates["apartment"] = []string{"price", "rooms"}
	bus := &recordingBus{}
	svc := New(repo, bus, nil, nil)
	tenantID := uuid.New()

	created, err := svc.Create(context.Background(), tenantID, transport.UpsertPropertyRequest{
		PropertyType: "apartment",
		Title:        "half filled",
		Price:        fptr(70000),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	score, err := svc.CalculateQualityScore(context.Background(), tenantID, created.ID)
	if err != nil {
		t.Fatalf("CalculateQualityScore returned error: %v", err)
	}

	// price filled of the two required fields: 20. No media, description
	// or coordinates; price itself adds its component weight.
	if score.Breakdown["requiredFields"] != 20 {
		t.Fatalf("requiredFields = %d, want 20", score.Breakdown["requiredFields"])
	}
	if score.Breakdown["price"] != 10 {
		t.Fatalf("price = %d, want 10", score.Breakdown["price"])
	}
	if score.Score != 30 {
		t.Fatalf("score = %d, want 30", score.Score)
	}

	if len(repo.snapshots) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(repo.snapshots))
	}

	var found bool
	for _, ev := range bus.published {
		if qc, ok := ev.(events.QualityScoreCalculated); ok && qc.Score == score.Score {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a QualityScoreCalculated event")
	}
}

func TestLatestSnapshotWinsAfterRecalculation(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, nil, nil)
	tenantID := uuid.New()

	created, err := svc.Create(context.Background(), tenantID, transport.UpsertPropertyRequest{
		PropertyType: "apartment",
		Title:        "evolving listing",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	first, err := svc.CalculateQualityScore(context.Background(), tenantID, created.ID)
	if err != nil {
		t.Fatalf("first calculation failed: %v", err)
	}

	if _, err := svc.Update(context.Background(), tenantID, created.ID, transport.UpsertPropertyRequest{
		PropertyType: "apartment",
		Title:        "evolving listing",
		Price:        fptr(90000),
	}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	second, err := svc.CalculateQualityScore(context.Background(), tenantID, created.ID)
	if err != nil {
		t.Fatalf("second calculation failed: %v", err)
	}
	if second.Score <= first.Score {
		t.Fatalf("adding a price must raise the score: first=%d second=%d", first.Score, second.Score)
	}

	latest, err := svc.GetLatestQualityScore(context.Background(), tenantID, created.ID)
	if err != nil {
		t.Fatalf("GetLatestQualityScore returned error: %v", err)
	}
	if latest.Score != second.Score {
		t.Fatalf("latest = %d, want %d", latest.Score, second.Score)
	}
	if len(repo.snapshots) != 2 {
		t.Fatalf("history must be preserved, got %d snapshots", len(repo.snapshots))
	}
}

func TestQualityScoreUnknownPropertyIsNotFound(t *testing.T) {
	svc := New(newFakeRepo(), nil, nil, nil)

	_, err := svc.CalculateQualityScore(context.Background(), uuid.New(), uuid.New())
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	_, err = svc.GetLatestQualityScore(context.Background(), uuid.New(), uuid.New())
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
