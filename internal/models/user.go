package models

import "time"

// User is the identity record backing every authenticated request. The
// password hash never leaves the services package; Balance is mutated only
// through the ledger.
type User struct {
	ID          int       `json:"id" example:"1"`
	Username    string    `json:"username" example:"jdoe"`
	Email       string    `json:"email" example:"user@example.com"`
	IsAdmin     bool      `json:"isAdmin"`
	Balance     float64   `json:"balance"`
	CompanyName string    `json:"companyName,omitempty"`
	Industry    string    `json:"industry,omitempty"`
	CreatedAt   time.Time `json:"registrationDate"`
}
