package models

import (
	"encoding/json"
	"fmt"
)

// Coordinates is a position encoded on the wire as [lon, lat].
type Coordinates struct {
	Lon float64
	Lat float64
}

func (c Coordinates) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lon, c.Lat})
}

func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("coordinates: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("coordinates: want [lon, lat], got %d values", len(pair))
	}
	c.Lon, c.Lat = pair[0], pair[1]
	return nil
}

// Valid reports whether the coordinates are within WGS84 bounds.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// DeliveryLocationRecord is the start/end position pair the billing service
// keeps for one delivery run.
type DeliveryLocationRecord struct {
	UserID        string       `json:"userId"`
	DriverName    string       `json:"driverName"`
	InvoiceNo     string       `json:"invoiceNo"`
	StartLocation *Coordinates `json:"startLocation"`
	EndLocation   *Coordinates `json:"endLocation"`
}

// Complete reports whether both positions are recorded.
func (r *DeliveryLocationRecord) Complete() bool {
	return r.StartLocation != nil && r.EndLocation != nil
}
