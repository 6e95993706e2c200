package declaration

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vatdesk/vatdesk/internal/shared"
)

// Calculate maps the raw buckets onto the numbered field layout and derives
// the final amounts. Pure arithmetic, no I/O.
func Calculate(totals RawTotals) FieldSet {
	f := FieldSet{
		TaxableBaseStandard: totals.SalesBaseStandard,
		VATStandard:         totals.SalesVATStandard,
		TaxableBaseZero:     totals.SalesBaseZero,
		ExemptBase:          totals.SalesBaseExempt,
		ICDBase:             totals.SalesBaseICD,
		ExportBase:          totals.SalesBaseExport,
		AbroadBase:          totals.SalesBaseAbroad,
		DistanceBase:        totals.SalesBaseDistance,
		DistanceVAT:         totals.SalesVATDistance,
		ICABase:             totals.SalesBaseICA,
		ICAVAT:              totals.SalesVATICA,
	}

	f.TotalTaxBase = decimal.Sum(
		f.TaxableBaseStandard, f.TaxableBaseZero, f.ExemptBase, f.ICDBase,
		f.ExportBase, f.AbroadBase, f.DistanceBase, f.ICABase,
	)
	f.TotalVATDue = decimal.Sum(f.VATStandard, f.DistanceVAT, f.ICAVAT)

	// Output VAT owed: standard-rate plus the EU-reportable amounts that
	// carry output VAT. Deductible VAT: credit-eligible purchase VAT only.
	f.SalesVAT = f.TotalVATDue
	f.DeductibleVAT = totals.PurchaseVATCredit

	diff := f.SalesVAT.Sub(f.DeductibleVAT)
	if diff.IsPositive() {
		f.VATDue = diff
		f.PayAmount = diff
	} else if diff.IsNegative() {
		f.VATRefundable = diff.Neg()
		f.RefundAmount = diff.Neg()
		f.RefundDue = diff.Neg()
	}
	return f
}

// PaymentDue is max(0, field_50 - field_60).
func (f FieldSet) PaymentDue() decimal.Decimal {
	return f.VATDue
}

// RefundDueAmount is the refund owed back, max(0, field_60 - field_50).
func (f FieldSet) RefundDueAmount() decimal.Decimal {
	return f.RefundAmount
}

// PaymentDeadline is the 14th of the month following the period; a deadline
// landing on a weekend rolls forward to Monday. Public holidays are not
// modelled.
func PaymentDeadline(period string) (time.Time, error) {
	start, err := shared.PeriodStart(period)
	if err != nil {
		return time.Time{}, err
	}
	deadline := start.AddDate(0, 1, 13) // the 14th of the next month
	for deadline.Weekday() == time.Saturday || deadline.Weekday() == time.Sunday {
		deadline = deadline.AddDate(0, 0, 1)
	}
	return deadline, nil
}
