package models

import "time"

// Account is a customer account; ParentID links it into a corporate hierarchy.
type Account struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Company is an organisation record with its own parent-company chain.
type Company struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	ParentCompanyID *int64    `json:"parent_company_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

