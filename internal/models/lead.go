package models

import "time"

// Lead statuses
const (
	LeadStatusAvailable = "AVAILABLE"
	LeadStatusSold      = "SOLD"
)

// Lead is a prospective-client record purchasable by one vendor account.
// Status moves AVAILABLE -> SOLD exactly once, on a successful purchase
// commit. Inactive leads are hidden from the catalog regardless of status.
type Lead struct {
	ID             string     `json:"id" db:"id"`
	Status         string     `json:"status" db:"status"`
	Price          int64      `json:"price" db:"price"` // in cents
	WeddingDate    *time.Time `json:"wedding_date" db:"wedding_date"`
	City           string     `json:"city" db:"city"`
	State          string     `json:"state" db:"state"`
	ServicesNeeded []string   `json:"services_needed" db:"services_needed"`
	Description    string     `json:"description" db:"description"`
	Tags           Metadata   `json:"tags,omitempty" db:"tags"`
	Active         bool       `json:"active" db:"active"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// CatalogLead is a catalog row as served to the requesting vendor.
type CatalogLead struct {
	Lead
	IsFavorited bool `json:"is_favorited"`
}

// Purchase is the ownership record written inside a successful purchase
// commit. At most one exists per (lead, account) pair.
type Purchase struct {
	ID          string    `json:"id" db:"id"`
	LeadID      string    `json:"lead_id" db:"lead_id"`
	AccountID   string    `json:"account_id" db:"account_id"`
	Price       int64     `json:"price" db:"price"` // in cents
	PurchasedAt time.Time `json:"purchased_at" db:"purchased_at"`
}

// Favorite relates a vendor account to a lead it has starred. Toggling
// is idempotent and independent of purchase state.
type Favorite struct {
	AccountID string    `json:"account_id" db:"account_id"`
	LeadID    string    `json:"lead_id" db:"lead_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
