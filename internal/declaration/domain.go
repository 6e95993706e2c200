// Package declaration turns a company's journal period into the monthly VAT
// declaration: aggregation into the numbered field layout, payment/refund
// arithmetic, deadlines and the filing state machine.
package declaration

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the filing lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusPaid      Status = "PAID"
)

// RawTotals are the named aggregation buckets produced by one pass over a
// company period's journals. The fold is pure: the same entry set always
// yields the same totals.
type RawTotals struct {
	// Sales side.
	SalesBaseStandard decimal.Decimal // taxable supplies at the standard rate
	SalesVATStandard  decimal.Decimal
	SalesBaseZero     decimal.Decimal // zero-rated supplies
	SalesBaseExempt   decimal.Decimal
	SalesBaseICD      decimal.Decimal // intra-community deliveries
	SalesBaseExport   decimal.Decimal
	SalesBaseAbroad   decimal.Decimal // triangular and other supplies outside the country
	SalesBaseDistance decimal.Decimal
	SalesVATDistance  decimal.Decimal
	SalesBaseICA      decimal.Decimal // intra-community acquisitions (reverse charge)
	SalesVATICA       decimal.Decimal

	// Purchase side.
	PurchaseVATCredit   decimal.Decimal // deductible, per document type rules
	PurchaseVATExcluded decimal.Decimal // tracked but never deducted
	TriangularBase      decimal.Decimal // triangular purchase adjustments

	PurchaseCount int
	SalesCount    int
}

// FieldSet is the numbered declaration layout. JSON tags carry the field
// codes of the submission format; the Go names say what the slots mean.
type FieldSet struct {
	// Section A: sales.
	TaxableBaseStandard decimal.Decimal `json:"field_09"`
	VATStandard         decimal.Decimal `json:"field_10"`
	TaxableBaseZero     decimal.Decimal `json:"field_11"`
	ExemptBase          decimal.Decimal `json:"field_12"`
	ICDBase             decimal.Decimal `json:"field_13"`
	ExportBase          decimal.Decimal `json:"field_14"`
	AbroadBase          decimal.Decimal `json:"field_15"`
	DistanceBase        decimal.Decimal `json:"field_16"`
	DistanceVAT         decimal.Decimal `json:"field_17"`
	ICABase             decimal.Decimal `json:"field_18"`
	ICAVAT              decimal.Decimal `json:"field_19"`

	// Section B: intermediate totals.
	TotalTaxBase  decimal.Decimal `json:"field_41"`
	TotalVATDue   decimal.Decimal `json:"field_42"`
	SalesVAT      decimal.Decimal `json:"field_50"`
	DeductibleVAT decimal.Decimal `json:"field_60"`

	// Section V: final amounts.
	VATDue        decimal.Decimal `json:"field_70"`
	VATRefundable decimal.Decimal `json:"field_71"`
	RefundAmount  decimal.Decimal `json:"field_80"`
	PayAmount     decimal.Decimal `json:"field_81"`
	RefundDue     decimal.Decimal `json:"field_82"`
}

// IsNull reports a null declaration: no VAT owed, deductible or refundable.
func (f FieldSet) IsNull() bool {
	return f.SalesVAT.IsZero() && f.DeductibleVAT.IsZero() && f.RefundAmount.IsZero()
}

// Declaration is one company period's filing.
type Declaration struct {
	ID        int64    `json:"id"`
	CompanyID int64    `json:"company_id"`
	Period    string   `json:"period"`
	Status    Status   `json:"status"`
	Fields    FieldSet `json:"fields"`

	PaymentDue      decimal.Decimal `json:"payment_due"`
	RefundDue       decimal.Decimal `json:"refund_due"`
	PaymentDeadline time.Time       `json:"payment_deadline"`

	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	SubmissionRef string     `json:"submission_ref,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
