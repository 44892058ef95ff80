package domain

// Campaign is the canonical campaign state read at aggregation time.
// It is owned by the checkout system; the stats pipeline only reads it.
type Campaign struct {
	ID           string
	CreatedBy    string
	Title        string
	Status       string
	TotalNumbers int
}
