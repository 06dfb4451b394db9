package offerings

import "time"

// Offering is a service listed on the site, such as consulting or a
// fixed-scope engagement.
type Offering struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceNote   string    `json:"price_note,omitempty"`
	Active      bool      `json:"active"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
