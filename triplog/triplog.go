// Package triplog keeps an analytical ledger of completed deliveries in
// DuckDB and answers the per-driver tracker summary.
package triplog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"
	"github.com/satheeshds/driverdesk/models"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS trips (
		id VARCHAR PRIMARY KEY,
		user_id VARCHAR NOT NULL,
		driver_name VARCHAR NOT NULL,
		invoice_no VARCHAR NOT NULL,
		delivery_status VARCHAR NOT NULL,
		payment_status VARCHAR NOT NULL,
		delivered_products INTEGER NOT NULL,
		total_products INTEGER NOT NULL,
		starting_km DOUBLE,
		end_km DOUBLE,
		km_travelled DOUBLE,
		fuel_charge DOUBLE NOT NULL DEFAULT 0,
		other_expenses DOUBLE NOT NULL DEFAULT 0,
		completed_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trips_user ON trips(user_id)`,
}

// Entry is one completed delivery.
type Entry struct {
	UserID            string
	DriverName        string
	InvoiceNo         string
	DeliveryStatus    string
	PaymentStatus     string
	DeliveredProducts int
	TotalProducts     int
	Trip              models.Trip
	CompletedAt       time.Time
}

// DriverSummary aggregates a driver's completed deliveries.
type DriverSummary struct {
	UserID             string    `json:"userId"`
	DriverName         string    `json:"driverName"`
	Deliveries         int64     `json:"deliveries"`
	FullyDelivered     int64     `json:"fullyDelivered"`
	PartiallyDelivered int64     `json:"partiallyDelivered"`
	KmTravelled        float64   `json:"kmTravelled"`
	FuelCharge         float64   `json:"fuelCharge"`
	OtherExpenses      float64   `json:"otherExpenses"`
	LastCompletedAt    time.Time `json:"lastCompletedAt"`
}

// Ledger records trips in a DuckDB database.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger at path. An empty path keeps the ledger in memory.
func Open(path string) (*Ledger, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating triplog directory: %w", err)
		}
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("opening triplog: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("triplog schema failed: %w\nstatement: %s", err, stmt)
		}
	}
	if path == "" {
		path = ":memory:"
	}
	slog.Info("trip ledger ready", "path", path)
	return &Ledger{db: db}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record appends a completed delivery.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	if e.CompletedAt.IsZero() {
		e.CompletedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO trips (id, user_id, driver_name, invoice_no, delivery_status, payment_status,
			delivered_products, total_products, starting_km, end_km, km_travelled,
			fuel_charge, other_expenses, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), e.UserID, e.DriverName, e.InvoiceNo, e.DeliveryStatus, e.PaymentStatus,
		e.DeliveredProducts, e.TotalProducts, e.Trip.StartingKm, e.Trip.EndKm, e.Trip.KmTravelled,
		e.Trip.FuelCharge.InexactFloat64(), e.Trip.TotalOtherExpenses().InexactFloat64(), e.CompletedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording trip: %w", err)
	}
	return nil
}

// Summary aggregates trips per driver completed at or after since. A zero
// since covers the whole ledger.
func (l *Ledger) Summary(ctx context.Context, since time.Time) ([]DriverSummary, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT user_id,
			max(driver_name),
			count(*),
			count(*) FILTER (WHERE delivery_status = 'Delivered'),
			count(*) FILTER (WHERE delivery_status = 'Partially Delivered'),
			coalesce(sum(km_travelled), 0),
			coalesce(sum(fuel_charge), 0),
			coalesce(sum(other_expenses), 0),
			max(completed_at)
		 FROM trips
		 WHERE completed_at >= ?
		 GROUP BY user_id
		 ORDER BY user_id`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying trip summary: %w", err)
	}
	defer rows.Close()

	out := []DriverSummary{}
	for rows.Next() {
		var s DriverSummary
		if err := rows.Scan(&s.UserID, &s.DriverName, &s.Deliveries, &s.FullyDelivered, &s.PartiallyDelivered,
			&s.KmTravelled, &s.FuelCharge, &s.OtherExpenses, &s.LastCompletedAt); err != nil {
			return nil, fmt.Errorf("scanning trip summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
