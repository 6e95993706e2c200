// Package company manages the registered filers on whose behalf declarations
// are produced.
package company

import "time"

// Company is a VAT-registered filer.
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	UIC       string    `json:"uic"`
	VATNumber string    `json:"vat_number"`
	Address   string    `json:"address"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateInput carries the fields accepted on registration. VATNumber may be
// left empty; it is derived from the UIC.
type CreateInput struct {
	Name      string
	UIC       string
	VATNumber string
	Address   string
}

// UpdateInput carries the mutable fields.
type UpdateInput struct {
	Name    string
	Address string
	Active  *bool
}
