// Package store persists the per-driver resume snapshot and the outbox of
// abandon signals still to be delivered. Queries use $N placeholders so the
// same statements run on SQLite and PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/satheeshds/driverdesk/models"
)

// ErrNotFound is returned when no row matches.
var ErrNotFound = errors.New("not found")

// Store wraps the database behind the snapshot and outbox tables.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New returns a store on an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// SaveSnapshot upserts the driver's resume snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, snap models.WorkflowSnapshot) error {
	if snap.UserID == "" {
		return fmt.Errorf("saving snapshot: user id is required")
	}
	if snap.SavedAt.IsZero() {
		snap.SavedAt = s.now()
	}
	invoiceNo := ""
	if snap.Billing != nil {
		invoiceNo = snap.Billing.InvoiceNo
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO resume_snapshots (user_id, invoice_no, state, payload, saved_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
		   invoice_no = excluded.invoice_no,
		   state = excluded.state,
		   payload = excluded.payload,
		   saved_at = excluded.saved_at`,
		snap.UserID, invoiceNo, snap.State, string(payload), snap.SavedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the driver's snapshot or ErrNotFound.
func (s *Store) LoadSnapshot(ctx context.Context, userID string) (*models.WorkflowSnapshot, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM resume_snapshots WHERE user_id = $1`, userID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	var snap models.WorkflowSnapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}

// ClearSnapshot deletes the driver's snapshot. Clearing a missing snapshot is not an error.
func (s *Store) ClearSnapshot(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM resume_snapshots WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}
	return nil
}

// PendingAbandon is an abandon signal waiting in the outbox.
type PendingAbandon struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	InvoiceNo string    `json:"invoiceNo"`
	Reason    string    `json:"reason"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"lastError"`
	CreatedAt time.Time `json:"createdAt"`
}

// Request builds the upstream body for the signal.
func (p PendingAbandon) Request() models.AbandonDeliveryRequest {
	return models.AbandonDeliveryRequest{UserID: p.UserID, InvoiceNo: p.InvoiceNo, Reason: p.Reason}
}

// EnqueueAbandon stores a failed abandon signal for retry.
func (s *Store) EnqueueAbandon(ctx context.Context, req models.AbandonDeliveryRequest, cause error) (*PendingAbandon, error) {
	p := &PendingAbandon{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		InvoiceNo: req.InvoiceNo,
		Reason:    req.Reason,
		Attempts:  1,
		CreatedAt: s.now(),
	}
	if cause != nil {
		p.LastError = cause.Error()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pending_abandons (id, user_id, invoice_no, reason, attempts, last_error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.UserID, p.InvoiceNo, p.Reason, p.Attempts, p.LastError, p.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("enqueueing abandon: %w", err)
	}
	return p, nil
}

// PendingAbandons returns up to limit queued signals, oldest first.
func (s *Store) PendingAbandons(ctx context.Context, limit int) ([]PendingAbandon, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, invoice_no, reason, attempts, last_error, created_at
		 FROM pending_abandons ORDER BY created_at, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing pending abandons: %w", err)
	}
	defer rows.Close()

	out := []PendingAbandon{}
	for rows.Next() {
		var p PendingAbandon
		var created int64
		if err := rows.Scan(&p.ID, &p.UserID, &p.InvoiceNo, &p.Reason, &p.Attempts, &p.LastError, &created); err != nil {
			return nil, fmt.Errorf("scanning pending abandon: %w", err)
		}
		p.CreatedAt = time.UnixMilli(created)
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteAbandon removes a delivered signal.
func (s *Store) DeleteAbandon(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pending_abandons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting abandon: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAbandonFailed bumps the attempt count and records the last error.
func (s *Store) MarkAbandonFailed(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE pending_abandons SET attempts = attempts + 1, last_error = $1 WHERE id = $2`, msg, id)
	if err != nil {
		return fmt.Errorf("marking abandon failed: %w", err)
	}
	return nil
}

// CountPendingAbandons reports the outbox depth.
func (s *Store) CountPendingAbandons(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_abandons`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting pending abandons: %w", err)
	}
	return n, nil
}
