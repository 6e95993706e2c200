// Package doctype is the single source of truth for the VAT treatment of
// journal document types. Validation, aggregation and export all consult this
// table; the per-type rules must never be duplicated inline elsewhere.
package doctype

import (
	"sort"

	"github.com/vatdesk/vatdesk/internal/shared"
)

// Sign is the sign policy a document type imposes on tax base and VAT amount.
type Sign int

const (
	// SignEither places no constraint on the amounts.
	SignEither Sign = iota
	// SignPositive requires tax base and VAT amount >= 0.
	SignPositive
	// SignNegative requires tax base and VAT amount <= 0 (credit documents).
	SignNegative
)

// Purchase journal document type codes. The numbering follows the national
// revenue agency's journal layout and is part of the submission format.
const (
	PurchaseInvoice          = 1  // standard invoice
	PurchaseCustomsDocument  = 2  // customs import document
	PurchaseCreditNote       = 3  // protocol / credit note, negative amounts
	PurchaseArticle15a       = 5  // documents under art. 15a
	PurchaseAggregateInvoice = 7  // aggregate invoice
	PurchaseNoCreditRight    = 9  // document without tax credit right
	PurchaseTriangularArt15  = 11 // triangular operation under art. 15
	PurchaseTriangularArt14  = 12 // triangular operation under art. 14
	PurchaseAcquisitionArt14 = 13 // intra-community acquisition under art. 14
	PurchaseSpecialProcedure = 23 // documents under art. 126a
	PurchaseVATApplication1  = 91 // VAT application under art. 151a par. 1
	PurchaseVATApplication2  = 92 // VAT application under art. 151a par. 2
	PurchaseVATApplication3  = 93 // VAT application under art. 151a par. 3
	PurchaseVATApplication4  = 94 // VAT application under art. 151a par. 4
)

// Sales journal document type codes.
const (
	SalesDomestic       = 1
	SalesEU             = 2 // VIES-reportable intra-community supply
	SalesExport         = 3
	SalesTriangular     = 4
	SalesDistance       = 5
	SalesIntraCommunity = 6 // intra-community acquisition reported on the sales side
)

// Field names referenced by RequiredFields. They match the journal entry
// attribute names reported back in validation errors.
const (
	FieldDocumentNumber     = "document_number"
	FieldDocumentDate       = "document_date"
	FieldSupplierName       = "supplier_name"
	FieldCustomerName       = "customer_name"
	FieldCustomerVAT        = "customer_vat"
	FieldCustomsDocumentRef = "customs_document_ref"
	FieldIntermediaryVAT    = "intermediary_vat"
	FieldFinalCustomerVAT   = "final_customer_vat"
	FieldApplicationRef     = "application_reference"
)

// Rule describes the VAT treatment of one document type.
type Rule struct {
	Code int
	Name string

	// ContributesToCredit is false for documents without tax credit right;
	// their VAT never enters the deductible total.
	ContributesToCredit bool
	ExpectedSign        Sign
	RequiredFields      []string

	// VIESApplicable marks types whose counterparty VAT id should be checked
	// against the EU registry when the counterparty is an EU member.
	VIESApplicable bool
	// ContributesToVIESReport marks types included in the EU transactions report.
	ContributesToVIESReport bool
}

var purchaseRules = map[int]Rule{
	PurchaseInvoice: {
		Code: PurchaseInvoice, Name: "Invoice",
		ContributesToCredit: true, ExpectedSign: SignPositive,
		RequiredFields: []string{FieldDocumentNumber, FieldDocumentDate, FieldSupplierName},
		VIESApplicable: true,
	},
	PurchaseCustomsDocument: {
		Code: PurchaseCustomsDocument, Name: "Customs document",
		ContributesToCredit: true, ExpectedSign: SignPositive,
		RequiredFields: []string{FieldDocumentNumber, FieldDocumentDate, FieldCustomsDocumentRef},
	},
	PurchaseCreditNote: {
		Code: PurchaseCreditNote, Name: "Protocol / credit note",
		ContributesToCredit: true, ExpectedSign: SignNegative,
		RequiredFields: []string{FieldDocumentNumber, FieldDocumentDate, FieldSupplierName},
	},
	PurchaseArticle15a: {
		Code: PurchaseArticle15a, Name: "Article 15a document",
		ContributesToCredit: true, ExpectedSign: SignPositive,
		RequiredFields: []string{FieldDocumentNumber, FieldDocumentDate},
		VIESApplicable: true,
	},
	PurchaseAggregateInvoice: {
		Code: PurchaseAggregateInvoice, Name: "Aggregate invoice",
		ContributesToCredit: true, ExpectedSign: SignPositive,
		RequiredFields: []string{FieldDocumentNumber, FieldDocumentDate},
	},
	PurchaseNoCreditRight: {
		Code: PurchaseNoCreditRight, Name: "Document without credit right",
		ContributesToCredit: false, ExpectedSign: SignPositive,
		RequiredFields: []string{FieldDocumentNumber, FieldDocumentDate},
	},
	PurchaseTriangularArt15: {
		Code: PurchaseTriangularArt15, Name: "Triangular operation art. 15",
		ContributesToCredit: true, ExpectedSign: SignPositive,
		RequiredFields: []string{FieldDocumentNumber, FieldDocumentDate, FieldIntermediaryVAT, FieldFinalCustomerVAT},
		VIESApplicable: true, ContributesToVIESReport: true,
	},
	PurchaseTriangularArt14: {
		Code: PurchaseTriangularArt14, Name: "Triangular operation art. 14",
		ContributesToCredit: true, ExpectedSign: SignPositive,
		RequiredFields: []string{FieldDocumentNumber, FieldDocumentDate, FieldIntermediaryVAT, FieldFinalCustomerVAT},
		VIESApplicable: true, ContributesToVIESReport: true,
	},
	PurchaseAcquisitionArt14: {
		Code: PurchaseAcquisitionArt14, Name: "Intra-community acquisition art. 14",
		ContributesToCredit: true, ExpectedSign: SignPositive,
		RequiredFields: []string{FieldDocumentNumber, FieldDocumentDate, FieldSupplierName},
		VIESApplicable: true, ContributesToVIESReport: true,
	},
	PurchaseSpecialProcedure: {
		Code: PurchaseSpecialProcedure, Name: "Article 126a document",
		ContributesToCredit: true, ExpectedSign: SignPositive,
		RequiredFields: []string{FieldDocumentNumber, FieldDocumentDate},
	},
	PurchaseVATApplication1: vatApplicationRule(PurchaseVATApplication1, "VAT application art. 151a par. 1"),
	PurchaseVATApplication2: vatApplicationRule(PurchaseVATApplication2, "VAT application art. 151a par. 2"),
	PurchaseVATApplication3: vatApplicationRule(PurchaseVATApplication3, "VAT application art. 151a par. 3"),
	PurchaseVATApplication4: vatApplicationRule(PurchaseVATApplication4, "VAT application art. 151a par. 4"),
}

// VAT applications are administrative filings, not supply documents; they
// carry no credit right.
func vatApplicationRule(code int, name string) Rule {
	return Rule{
		Code: code, Name: name,
		ContributesToCredit: false, ExpectedSign: SignPositive,
		RequiredFields: []string{FieldDocumentNumber, FieldDocumentDate, FieldApplicationRef},
	}
}

var salesRules = map[int]Rule{
	SalesDomestic: {
		Code: SalesDomestic, Name: "Domestic supply",
		ExpectedSign:   SignEither,
		RequiredFields: []string{FieldDocumentNumber, FieldDocumentDate, FieldCustomerName},
	},
	SalesEU: {
		Code: SalesEU, Name: "Intra-community supply",
		ExpectedSign:   SignPositive,
		RequiredFields: []string{FieldDocumentNumber, FieldDocumentDate, FieldCustomerVAT},
		VIESApplicable: true, ContributesToVIESReport: true,
	},
	SalesExport: {
		Code: SalesExport, Name: "Export",
		ExpectedSign:   SignPositive,
		RequiredFields: []string{FieldDocumentNumber, FieldDocumentDate, FieldCustomerName},
	},
	SalesTriangular: {
		Code: SalesTriangular, Name: "Triangular supply",
		ExpectedSign:   SignPositive,
		RequiredFields: []string{FieldDocumentNumber, FieldDocumentDate, FieldCustomerVAT},
		VIESApplicable: true, ContributesToVIESReport: true,
	},
	SalesDistance: {
		Code: SalesDistance, Name: "Distance selling",
		ExpectedSign:   SignPositive,
		RequiredFields: []string{FieldDocumentNumber, FieldDocumentDate, FieldCustomerName},
	},
	SalesIntraCommunity: {
		Code: SalesIntraCommunity, Name: "Intra-community acquisition",
		ExpectedSign:   SignPositive,
		RequiredFields: []string{FieldDocumentNumber, FieldDocumentDate, FieldCustomerVAT},
		VIESApplicable: true, ContributesToVIESReport: true,
	},
}

// PurchaseRule returns the rule for a purchase journal document type.
func PurchaseRule(code int) (Rule, error) {
	rule, ok := purchaseRules[code]
	if !ok {
		return Rule{}, shared.ErrUnknownDocumentType
	}
	return rule, nil
}

// SalesRule returns the rule for a sales journal document type.
func SalesRule(code int) (Rule, error) {
	rule, ok := salesRules[code]
	if !ok {
		return Rule{}, shared.ErrUnknownDocumentType
	}
	return rule, nil
}

// PurchaseCodes lists the known purchase document type codes in ascending order.
func PurchaseCodes() []int {
	return sortedCodes(purchaseRules)
}

// SalesCodes lists the known sales document type codes in ascending order.
func SalesCodes() []int {
	return sortedCodes(salesRules)
}

func sortedCodes(rules map[int]Rule) []int {
	codes := make([]int, 0, len(rules))
	for code := range rules {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// Requires reports whether the rule demands the named field.
func (r Rule) Requires(field string) bool {
	for _, f := range r.RequiredFields {
		if f == field {
			return true
		}
	}
	return false
}
