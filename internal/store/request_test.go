package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/sliea/antennadesk/internal/models"
	"github.com/sliea/antennadesk/internal/store"
)

func createRequest(t *testing.T, rs *store.RequestStore, req models.NewRequest) string {
	t.Helper()

	id, err := rs.CreateRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	return id
}

func TestCreateAndGetRequest(t *testing.T) {
	f := setupFixture(t)
	rs := store.NewRequestStore(f.base)
	ctx := context.Background()

	id := createRequest(t, rs, models.NewRequest{
		Type:          models.RequestChangePlan,
		Status:        models.StatusPending,
		ClientID:      f.client,
		EquipmentID:   f.active,
		CurrentPlanID: &f.plan1,
		TargetPlanID:  &f.plan2,
		Notes:         "upgrade please",
	})

	got, err := rs.GetRequest(ctx, id)
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}

	if got.Type != models.RequestChangePlan || got.Status != models.StatusPending {
		t.Errorf("got type=%s status=%s", got.Type, got.Status)
	}
	if got.Client == nil || got.Client.ID != f.client {
		t.Errorf("client not resolved: %+v", got.Client)
	}
	if got.Equipment == nil || got.Equipment.Status != models.EquipmentActive {
		t.Errorf("equipment not resolved: %+v", got.Equipment)
	}
	if got.CurrentPlan == nil || got.CurrentPlan.Name != "Basic" {
		t.Errorf("current plan not resolved: %+v", got.CurrentPlan)
	}
	if got.TargetPlan == nil || got.TargetPlan.Price.String() != "49.5" {
		t.Errorf("target plan not resolved: %+v", got.TargetPlan)
	}
	if got.StartedAt != nil || got.CompletedAt != nil {
		t.Error("new request must not carry lifecycle timestamps")
	}
}

func TestCreateRequest_UnknownReferences(t *testing.T) {
	f := setupFixture(t)
	rs := store.NewRequestStore(f.base)

	_, err := rs.CreateRequest(context.Background(), models.NewRequest{
		Type: models.RequestDeactivate, Status: models.StatusPending,
		ClientID: uuid.NewString(), EquipmentID: f.active,
	})
	if !errors.Is(err, models.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGetRequest_NotFound(t *testing.T) {
	f := setupFixture(t)
	rs := store.NewRequestStore(f.base)

	_, err := rs.GetRequest(context.Background(), uuid.NewString())
	if !errors.Is(err, models.ErrRequestNotFound) {
		t.Errorf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestUpdateStatus_Lifecycle(t *testing.T) {
	f := setupFixture(t)
	rs := store.NewRequestStore(f.base)
	ctx := context.Background()

	id := createRequest(t, rs, models.NewRequest{
		Type: models.RequestDeactivate, Status: models.StatusPending, ClientID: f.client, EquipmentID: f.active,
	})

	err := rs.UpdateStatus(ctx, id, models.StatusUpdate{
		Status: models.StatusInProgress, Expected: models.StatusPending, AssignedStaffID: f.staff,
	})
	if err != nil {
		t.Fatalf("UpdateStatus in_progress: %v", err)
	}

	started, err := rs.GetRequest(ctx, id)
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if started.StartedAt == nil || started.AssignedStaff == nil {
		t.Fatal("assigning staff must stamp started_at")
	}

	// Reassigning keeps the original started_at.
	err = rs.UpdateStatus(ctx, id, models.StatusUpdate{
		Status: models.StatusInProgress, Expected: models.StatusInProgress, AssignedStaffID: f.client,
	})
	if err != nil {
		t.Fatalf("UpdateStatus reassign: %v", err)
	}

	err = rs.UpdateStatus(ctx, id, models.StatusUpdate{
		Status: models.StatusCompleted, Expected: models.StatusInProgress, CompletedByID: f.staff,
	})
	if err != nil {
		t.Fatalf("UpdateStatus completed: %v", err)
	}

	done, err := rs.GetRequest(ctx, id)
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}

	if !done.StartedAt.Equal(*started.StartedAt) {
		t.Errorf("started_at changed from %v to %v", started.StartedAt, done.StartedAt)
	}
	if done.CompletedAt == nil {
		t.Error("completed_at not set")
	}
	if done.CompletedBy == nil || done.CompletedBy.ID != f.staff {
		t.Errorf("completed_by = %+v", done.CompletedBy)
	}
}

func TestUpdateStatus_StaleExpectedStatus(t *testing.T) {
	f := setupFixture(t)
	rs := store.NewRequestStore(f.base)
	ctx := context.Background()

	id := createRequest(t, rs, models.NewRequest{
		Type: models.RequestDeactivate, Status: models.StatusPending, ClientID: f.client, EquipmentID: f.active,
	})

	first := rs.UpdateStatus(ctx, id, models.StatusUpdate{Status: models.StatusCompleted, Expected: models.StatusPending})
	second := rs.UpdateStatus(ctx, id, models.StatusUpdate{Status: models.StatusCompleted, Expected: models.StatusPending})

	if first != nil {
		t.Fatalf("first transition: %v", first)
	}
	if !errors.Is(second, models.ErrStatusConflict) {
		t.Errorf("expected ErrStatusConflict, got %v", second)
	}

	missing := rs.UpdateStatus(ctx, uuid.NewString(), models.StatusUpdate{Status: models.StatusCompleted, Expected: models.StatusPending})
	if !errors.Is(missing, models.ErrRequestNotFound) {
		t.Errorf("expected ErrRequestNotFound, got %v", missing)
	}
}

func TestUpdateRequest(t *testing.T) {
	f := setupFixture(t)
	rs := store.NewRequestStore(f.base)
	ctx := context.Background()

	id := createRequest(t, rs, models.NewRequest{
		Type: models.RequestActivate, Status: models.StatusPending, ClientID: f.client,
		EquipmentID: f.inactive, TargetPlanID: &f.plan1,
	})

	notes := "customer called"
	none := ""

	if err := rs.UpdateRequest(ctx, id, models.UpdateRequestRequest{Notes: &notes, TargetPlanID: &none}); err != nil {
		t.Fatalf("UpdateRequest: %v", err)
	}

	got, err := rs.GetRequest(ctx, id)
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}

	if got.Notes != notes {
		t.Errorf("notes = %q", got.Notes)
	}
	if got.TargetPlan != nil {
		t.Errorf("target plan should be cleared, got %+v", got.TargetPlan)
	}

	bogus := uuid.NewString()
	err = rs.UpdateRequest(ctx, id, models.UpdateRequestRequest{TargetPlanID: &bogus})
	if !errors.Is(err, models.ErrPlanNotFound) {
		t.Errorf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestRequestQueries(t *testing.T) {
	f := setupFixture(t)
	rs := store.NewRequestStore(f.base)
	ctx := context.Background()

	pending := createRequest(t, rs, models.NewRequest{
		Type: models.RequestDeactivate, Status: models.StatusPending, ClientID: f.client, EquipmentID: f.active,
	})
	createRequest(t, rs, models.NewRequest{
		Type: models.RequestActivate, Status: models.StatusInProgress, ClientID: f.client, EquipmentID: f.inactive,
	})
	done := createRequest(t, rs, models.NewRequest{
		Type: models.RequestDeactivate, Status: models.StatusPending, ClientID: f.client, EquipmentID: f.active,
	})

	if err := rs.UpdateStatus(ctx, done, models.StatusUpdate{Status: models.StatusCompleted, Expected: models.StatusPending}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	all, err := rs.RequestsByClient(ctx, f.client)
	if err != nil {
		t.Fatalf("RequestsByClient: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d requests, want 3", len(all))
	}

	open, err := rs.RequestsByClient(ctx, f.client, models.StatusPending, models.StatusInProgress)
	if err != nil {
		t.Fatalf("RequestsByClient open: %v", err)
	}
	if len(open) != 2 {
		t.Errorf("got %d open requests, want 2", len(open))
	}

	page, hasMore, err := rs.ListRequests(ctx, models.RequestFilter{
		ClientID: f.client, Type: models.RequestDeactivate, Limit: 1,
	})
	if err != nil {
		t.Fatalf("ListRequests: %v", err)
	}
	if len(page) != 1 || !hasMore {
		t.Errorf("got %d rows hasMore=%v, want 1 row with more", len(page), hasMore)
	}

	byStatus, _, err := rs.ListRequests(ctx, models.RequestFilter{ClientID: f.client, Status: models.StatusPending})
	if err != nil {
		t.Fatalf("ListRequests by status: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != pending {
		t.Errorf("unexpected pending listing: %+v", byStatus)
	}

	stats, err := rs.RequestStats(ctx)
	if err != nil {
		t.Fatalf("RequestStats: %v", err)
	}
	if len(stats) == 0 {
		t.Fatal("expected at least one stat row")
	}
	if stats[0].Status != models.StatusPending {
		t.Errorf("stats should start with pending, got %s", stats[0].Status)
	}

	if err := rs.DeleteRequest(ctx, pending); err != nil {
		t.Fatalf("DeleteRequest: %v", err)
	}
	if err := rs.DeleteRequest(ctx, pending); !errors.Is(err, models.ErrRequestNotFound) {
		t.Errorf("second delete: expected ErrRequestNotFound, got %v", err)
	}
}
