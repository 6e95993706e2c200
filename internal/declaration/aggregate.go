package declaration

import (
	"fmt"

	"github.com/vatdesk/vatdesk/internal/doctype"
	"github.com/vatdesk/vatdesk/internal/journal"
	"github.com/vatdesk/vatdesk/internal/shared"
)

// Aggregate folds a period's journal rows into the raw declaration buckets.
//
// Every entry is re-checked against the document type rules on the way in: a
// stored row that no longer passes (unknown type, sign contradiction, missing
// required field) aborts the whole aggregation with ErrAggregationIntegrity.
// Silently skipping a bad row would misstate a legal filing.
func Aggregate(purchases, sales []journal.Entry) (RawTotals, error) {
	var totals RawTotals

	for _, entry := range purchases {
		rule, err := integrityCheck(entry, journal.JournalPurchase)
		if err != nil {
			return RawTotals{}, err
		}
		totals.PurchaseCount++
		if rule.ContributesToCredit {
			totals.PurchaseVATCredit = totals.PurchaseVATCredit.Add(entry.VATAmount)
		} else {
			totals.PurchaseVATExcluded = totals.PurchaseVATExcluded.Add(entry.VATAmount)
		}
		switch entry.DocumentType {
		case doctype.PurchaseTriangularArt15, doctype.PurchaseTriangularArt14:
			totals.TriangularBase = totals.TriangularBase.Add(entry.TaxBase)
		}
	}

	for _, entry := range sales {
		if _, err := integrityCheck(entry, journal.JournalSales); err != nil {
			return RawTotals{}, err
		}
		totals.SalesCount++
		totals.SalesBaseZero = totals.SalesBaseZero.Add(entry.TaxBaseZero)
		totals.SalesBaseExempt = totals.SalesBaseExempt.Add(entry.TaxBaseExempt)
		switch entry.DocumentType {
		case doctype.SalesDomestic:
			totals.SalesBaseStandard = totals.SalesBaseStandard.Add(entry.TaxBase)
			totals.SalesVATStandard = totals.SalesVATStandard.Add(entry.VATAmount)
		case doctype.SalesEU:
			totals.SalesBaseICD = totals.SalesBaseICD.Add(entry.TaxBase)
		case doctype.SalesExport:
			totals.SalesBaseExport = totals.SalesBaseExport.Add(entry.TaxBase)
		case doctype.SalesTriangular:
			totals.SalesBaseAbroad = totals.SalesBaseAbroad.Add(entry.TaxBase)
		case doctype.SalesDistance:
			totals.SalesBaseDistance = totals.SalesBaseDistance.Add(entry.TaxBase)
			totals.SalesVATDistance = totals.SalesVATDistance.Add(entry.VATAmount)
		case doctype.SalesIntraCommunity:
			totals.SalesBaseICA = totals.SalesBaseICA.Add(entry.TaxBase)
			totals.SalesVATICA = totals.SalesVATICA.Add(entry.VATAmount)
		}
	}

	return totals, nil
}

// integrityCheck re-validates a stored entry's declaration-relevant shape.
func integrityCheck(entry journal.Entry, want journal.Journal) (doctype.Rule, error) {
	if entry.Journal != want {
		return doctype.Rule{}, integrityErr(entry, fmt.Sprintf("entry belongs to the %s journal", entry.Journal))
	}
	var (
		rule doctype.Rule
		err  error
	)
	switch want {
	case journal.JournalPurchase:
		rule, err = doctype.PurchaseRule(entry.DocumentType)
	default:
		rule, err = doctype.SalesRule(entry.DocumentType)
	}
	if err != nil {
		return doctype.Rule{}, integrityErr(entry, fmt.Sprintf("unknown document type %d", entry.DocumentType))
	}
	switch rule.ExpectedSign {
	case doctype.SignPositive:
		if entry.TaxBase.IsNegative() || entry.VATAmount.IsNegative() {
			return doctype.Rule{}, integrityErr(entry, "negative amounts on a positive-sign document type")
		}
	case doctype.SignNegative:
		if entry.TaxBase.IsPositive() || entry.VATAmount.IsPositive() {
			return doctype.Rule{}, integrityErr(entry, "positive amounts on a credit document type")
		}
	}
	if err := journal.CheckRequiredFields(entry, rule); err != nil {
		return doctype.Rule{}, integrityErr(entry, err.Error())
	}
	return rule, nil
}

func integrityErr(entry journal.Entry, reason string) error {
	return fmt.Errorf("entry %d (%s %s): %s: %w",
		entry.ID, entry.Journal, entry.DocumentNumber, reason, shared.ErrAggregationIntegrity)
}
