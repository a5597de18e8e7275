package models

import "time"

type Vendor struct {
	ID           int        `json:"id" example:"1"`
	Email        string     `json:"email" example:"vendor@example.com"`
	BusinessName string     `json:"business_name" example:"Evergreen Florals"`
	ContactName  string     `json:"contact_name" example:"Jane Doe"`
	AccountID    string     `json:"account_id" example:"1234567890"`
	PhoneNumber  string     `json:"phone_number" example:"+15551234567"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
