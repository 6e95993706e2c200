// Package journal records purchase and sales journal entries for monthly VAT
// declaration periods and enforces the document type rules on intake.
package journal

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Journal discriminates the two ledgers.
type Journal string

const (
	JournalPurchase Journal = "purchase"
	JournalSales    Journal = "sales"
)

// StandardVATRate is the default rate used when the VAT amount must be
// derived from the tax base.
var StandardVATRate = decimal.RequireFromString("0.20")

// totalTolerance is the accepted drift between the declared total and
// base + VAT, absorbing counterparty rounding.
var totalTolerance = decimal.RequireFromString("0.01")

// Entry is one journal row. Amounts are exact decimals; Total is the
// document's own total and may drift from TaxBase + VATAmount by at most
// one stotinka.
type Entry struct {
	ID           int64   `json:"id"`
	CompanyID    int64   `json:"company_id"`
	Journal      Journal `json:"journal"`
	Period       string  `json:"period"`
	DocumentType int     `json:"document_type"`

	DocumentNumber string    `json:"document_number"`
	DocumentDate   time.Time `json:"document_date"`

	CounterpartyName string `json:"counterparty_name,omitempty"`
	CounterpartyVAT  string `json:"counterparty_vat,omitempty"`

	// Purchase-specific references demanded by certain document types.
	CustomsDocumentRef string `json:"customs_document_ref,omitempty"`
	IntermediaryVAT    string `json:"intermediary_vat,omitempty"`
	FinalCustomerVAT   string `json:"final_customer_vat,omitempty"`
	ApplicationRef     string `json:"application_reference,omitempty"`

	TaxBase   decimal.Decimal `json:"tax_base"`
	VATAmount decimal.Decimal `json:"vat_amount"`
	// Sales rows may carry zero-rated and exempt bases alongside the
	// standard-rate one; both stay zero on purchase rows.
	TaxBaseZero   decimal.Decimal `json:"tax_base_zero"`
	TaxBaseExempt decimal.Decimal `json:"tax_base_exempt"`
	Total         decimal.Decimal `json:"total"`

	Description string `json:"description,omitempty"`

	// Advisory VIES enrichment captured at intake. VIESValid stays nil when
	// the check was not applicable or the registry was unreachable.
	VIESChecked     bool   `json:"vies_checked"`
	VIESValid       *bool  `json:"vies_valid,omitempty"`
	VIESCompanyName string `json:"vies_company_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// EntryInput is the intake shape. VATAmount and Total are optional; missing
// values are derived during validation.
type EntryInput struct {
	CompanyID    int64
	Journal      Journal
	Period       string
	DocumentType int

	DocumentNumber string
	DocumentDate   time.Time

	CounterpartyName string
	CounterpartyVAT  string

	CustomsDocumentRef string
	IntermediaryVAT    string
	FinalCustomerVAT   string
	ApplicationRef     string

	TaxBase       decimal.Decimal
	VATAmount     *decimal.Decimal
	TaxBaseZero   decimal.Decimal
	TaxBaseExempt decimal.Decimal
	Total         *decimal.Decimal

	Description string

	// ConfirmDuplicate lets a caller knowingly record a document that
	// collides with an existing (number, counterparty) pair in the period.
	ConfirmDuplicate bool
}

// TypeSummary is the per-document-type rollup of one company period.
type TypeSummary struct {
	DocumentType int             `json:"document_type"`
	TypeName     string          `json:"type_name"`
	Count        int             `json:"count"`
	TaxBase      decimal.Decimal `json:"tax_base"`
	VATAmount    decimal.Decimal `json:"vat_amount"`
}

// duplicateKey identifies a document within a company period for duplicate
// detection. The counterparty VAT id is preferred; entries without one fall
// back to the counterparty name.
func (e Entry) duplicateKey() string {
	counterparty := e.CounterpartyVAT
	if counterparty == "" {
		counterparty = e.CounterpartyName
	}
	return string(e.Journal) + "|" + e.Period + "|" + e.DocumentNumber + "|" + counterparty
}

// intakeLockKey scopes the intake advisory lock to one document identity
// within a company.
func (e Entry) intakeLockKey() string {
	return strconv.FormatInt(e.CompanyID, 10) + "|" + e.duplicateKey()
}
