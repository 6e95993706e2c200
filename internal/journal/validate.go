package journal

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vatdesk/vatdesk/internal/doctype"
	"github.com/vatdesk/vatdesk/internal/shared"
)

// Validate checks an intake row against the document type rules and returns
// the normalised entry. Missing VAT amount is derived from the tax base at
// the given rate; missing total is derived as base + VAT. A provided total
// must agree with base + VAT within one stotinka.
func Validate(input EntryInput, rate decimal.Decimal) (Entry, error) {
	if input.CompanyID <= 0 {
		return Entry{}, shared.Validation("company_id", "", "required")
	}
	if err := shared.ValidatePeriod(input.Period); err != nil {
		return Entry{}, err
	}

	rule, err := ruleFor(input.Journal, input.DocumentType)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		CompanyID:          input.CompanyID,
		Journal:            input.Journal,
		Period:             input.Period,
		DocumentType:       input.DocumentType,
		DocumentNumber:     strings.TrimSpace(input.DocumentNumber),
		DocumentDate:       input.DocumentDate,
		CounterpartyName:   strings.TrimSpace(input.CounterpartyName),
		CounterpartyVAT:    normalizeVAT(input.CounterpartyVAT),
		CustomsDocumentRef: strings.TrimSpace(input.CustomsDocumentRef),
		IntermediaryVAT:    normalizeVAT(input.IntermediaryVAT),
		FinalCustomerVAT:   normalizeVAT(input.FinalCustomerVAT),
		ApplicationRef:     strings.TrimSpace(input.ApplicationRef),
		TaxBase:            input.TaxBase,
		TaxBaseZero:        input.TaxBaseZero,
		TaxBaseExempt:      input.TaxBaseExempt,
		Description:        strings.TrimSpace(input.Description),
	}
	if input.Journal == JournalPurchase && (!input.TaxBaseZero.IsZero() || !input.TaxBaseExempt.IsZero()) {
		return Entry{}, shared.Validation("tax_base_zero", "", "zero-rated and exempt bases apply to sales rows only")
	}

	if err := CheckRequiredFields(entry, rule); err != nil {
		return Entry{}, err
	}

	// Derive the missing amounts before the sign check so a derived VAT
	// inherits the base's sign.
	vat := derivedVAT(input, rate)
	entry.VATAmount = vat

	if err := checkSign(entry.TaxBase, vat, rule); err != nil {
		return Entry{}, err
	}

	computed := entry.TaxBase.Add(vat).Add(entry.TaxBaseZero).Add(entry.TaxBaseExempt)
	if input.Total == nil {
		entry.Total = computed
	} else {
		if input.Total.Sub(computed).Abs().GreaterThan(totalTolerance) {
			return Entry{}, shared.Validation("total", input.Total.String(),
				fmt.Sprintf("does not match tax base + VAT (%s)", computed.String()))
		}
		entry.Total = *input.Total
	}

	return entry, nil
}

func ruleFor(journal Journal, documentType int) (doctype.Rule, error) {
	switch journal {
	case JournalPurchase:
		return doctype.PurchaseRule(documentType)
	case JournalSales:
		return doctype.SalesRule(documentType)
	default:
		return doctype.Rule{}, shared.Validation("journal", string(journal), "must be purchase or sales")
	}
}

func derivedVAT(input EntryInput, rate decimal.Decimal) decimal.Decimal {
	if input.VATAmount != nil {
		return *input.VATAmount
	}
	return input.TaxBase.Mul(rate).Round(2)
}

// CheckRequiredFields verifies the presence of every field the document type
// rule demands. Intake runs it on the way in; aggregation and the EU report
// re-run it over stored rows so a since-corrupted entry cannot feed a filing.
func CheckRequiredFields(entry Entry, rule doctype.Rule) error {
	for _, field := range rule.RequiredFields {
		var present bool
		switch field {
		case doctype.FieldDocumentNumber:
			present = entry.DocumentNumber != ""
		case doctype.FieldDocumentDate:
			present = !entry.DocumentDate.IsZero()
		case doctype.FieldSupplierName, doctype.FieldCustomerName:
			present = entry.CounterpartyName != ""
		case doctype.FieldCustomerVAT:
			present = entry.CounterpartyVAT != ""
		case doctype.FieldCustomsDocumentRef:
			present = entry.CustomsDocumentRef != ""
		case doctype.FieldIntermediaryVAT:
			present = entry.IntermediaryVAT != ""
		case doctype.FieldFinalCustomerVAT:
			present = entry.FinalCustomerVAT != ""
		case doctype.FieldApplicationRef:
			present = entry.ApplicationRef != ""
		}
		if !present {
			return shared.Validation(field, "", fmt.Sprintf("required for document type %d (%s)", rule.Code, rule.Name))
		}
	}
	return nil
}

func checkSign(base, vat decimal.Decimal, rule doctype.Rule) error {
	switch rule.ExpectedSign {
	case doctype.SignPositive:
		if base.IsNegative() || vat.IsNegative() {
			return fmt.Errorf("document type %d (%s) requires non-negative amounts: %w",
				rule.Code, rule.Name, shared.ErrSignPolicyViolation)
		}
	case doctype.SignNegative:
		if base.IsPositive() || vat.IsPositive() {
			return fmt.Errorf("document type %d (%s) requires non-positive amounts: %w",
				rule.Code, rule.Name, shared.ErrSignPolicyViolation)
		}
	}
	return nil
}

func normalizeVAT(vat string) string {
	return strings.ToUpper(strings.Join(strings.Fields(vat), ""))
}
