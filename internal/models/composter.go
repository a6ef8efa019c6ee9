// internal/models/composter.go
package models

// Composter is a snapshot of a composting-facility account eligible to receive
// listings. Inactive composters are excluded at the snapshot source and never
// reach the scorer.
type Composter struct {
	ID       int64    `json:"id"`
	Email    string   `json:"email,omitempty"`
	Active   bool     `json:"active"`
	Location Location `json:"location"`
}
