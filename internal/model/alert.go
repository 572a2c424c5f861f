package model

import "time"

// AlertRecord is the last signal alerted for one symbol.
type AlertRecord struct {
	Date       time.Time `json:"date"`
	Kind       string    `json:"kind"`
	Close      float64   `json:"close"`
	NotifiedAt time.Time `json:"notified_at"`
}

// AlertState persists alert de-duplication across restarts.
type AlertState struct {
	Last      map[string]AlertRecord `json:"last"`
	UpdatedAt time.Time              `json:"updated_at"`
}
