package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/satheeshds/driverdesk/db"
	"github.com/satheeshds/driverdesk/models"
	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "desk.db")
	conn, err := db.Open(db.Options{Driver: db.DriverSQLite, Path: path})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(conn, db.DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(conn)
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	start, end := 100.0, 250.0
	snap := models.WorkflowSnapshot{
		UserID: "u1",
		State:  "Loaded",
		Billing: &models.Billing{
			InvoiceNo:     "INV-1",
			BillingAmount: decimal.NewFromInt(1000),
			Products:      []models.Product{{ItemID: "A"}, {ItemID: "B"}},
		},
		SelectedProducts: []string{"A"},
		Trip:             models.Trip{StartingKm: &start, EndKm: &end},
		Started:          true,
	}
	if err := s.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	snap.SelectedProducts = []string{"A", "B"}
	if err := s.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot overwrite: %v", err)
	}

	got, err := s.LoadSnapshot(ctx, "u1")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if got.Billing == nil || got.Billing.InvoiceNo != "INV-1" {
		t.Fatalf("billing = %+v", got.Billing)
	}
	if len(got.SelectedProducts) != 2 || !got.Started {
		t.Errorf("snapshot = %+v", got)
	}
	if got.Trip.EndKm == nil || *got.Trip.EndKm != 250 {
		t.Errorf("trip = %+v", got.Trip)
	}

	if err := s.ClearSnapshot(ctx, "u1"); err != nil {
		t.Fatalf("ClearSnapshot: %v", err)
	}
	if _, err := s.LoadSnapshot(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("after clear err = %v", err)
	}
	if err := s.ClearSnapshot(ctx, "u1"); err != nil {
		t.Errorf("second clear: %v", err)
	}
}

func TestAbandonOutbox(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	first, err := s.EnqueueAbandon(ctx, models.AbandonDeliveryRequest{UserID: "u1", InvoiceNo: "INV-1"}, errors.New("timeout"))
	if err != nil {
		t.Fatalf("EnqueueAbandon: %v", err)
	}
	s.now = func() time.Time { return base.Add(time.Minute) }
	if _, err := s.EnqueueAbandon(ctx, models.AbandonDeliveryRequest{UserID: "u2", InvoiceNo: "INV-2"}, nil); err != nil {
		t.Fatalf("EnqueueAbandon: %v", err)
	}

	pending, err := s.PendingAbandons(ctx, 10)
	if err != nil {
		t.Fatalf("PendingAbandons: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != first.ID {
		t.Fatalf("pending = %+v", pending)
	}
	if pending[0].LastError != "timeout" || pending[0].Attempts != 1 {
		t.Errorf("first = %+v", pending[0])
	}

	if err := s.MarkAbandonFailed(ctx, first.ID, errors.New("502")); err != nil {
		t.Fatalf("MarkAbandonFailed: %v", err)
	}
	pending, _ = s.PendingAbandons(ctx, 1)
	if len(pending) != 1 || pending[0].Attempts != 2 || pending[0].LastError != "502" {
		t.Errorf("after failure = %+v", pending)
	}

	if err := s.DeleteAbandon(ctx, first.ID); err != nil {
		t.Fatalf("DeleteAbandon: %v", err)
	}
	if err := s.DeleteAbandon(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	if n, _ := s.CountPendingAbandons(ctx); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}
