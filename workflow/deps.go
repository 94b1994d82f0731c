package workflow

import (
	"context"
	"time"

	"github.com/satheeshds/driverdesk/billing"
	"github.com/satheeshds/driverdesk/events"
	"github.com/satheeshds/driverdesk/models"
	"github.com/satheeshds/driverdesk/store"
	"github.com/satheeshds/driverdesk/triplog"
)

// Upstream is the part of the billing service the workflow drives.
type Upstream interface {
	billing.Source
	StartDelivery(ctx context.Context, req models.StartDeliveryRequest) error
	EndDelivery(ctx context.Context, req models.EndDeliveryRequest, idempotencyKey string) error
	AbandonDelivery(ctx context.Context, req models.AbandonDeliveryRequest) error
}

// SnapshotStore persists the resume snapshot.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap models.WorkflowSnapshot) error
	LoadSnapshot(ctx context.Context, userID string) (*models.WorkflowSnapshot, error)
	ClearSnapshot(ctx context.Context, userID string) error
}

// AbandonQueue keeps abandon signals that could not be sent.
type AbandonQueue interface {
	EnqueueAbandon(ctx context.Context, req models.AbandonDeliveryRequest, cause error) (*store.PendingAbandon, error)
}

// TripRecorder appends completed deliveries to the trip ledger.
type TripRecorder interface {
	Record(ctx context.Context, e triplog.Entry) error
}

// Observer counts workflow commands.
type Observer interface {
	Transition(command string, err error)
}

// Deps wires a machine to the outside world. Upstream is required, every
// other field may be nil.
type Deps struct {
	Upstream  Upstream
	Snapshots SnapshotStore
	Abandons  AbandonQueue
	Trips     TripRecorder
	Events    events.Publisher
	Observer  Observer

	// StartTimeout bounds the background start-delivery call. Default 15s.
	StartTimeout time.Duration
}
