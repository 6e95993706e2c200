// Package export renders declarations and EU transaction reports into their
// submission-ready representations. It formats values already produced by the
// calculator and never recomputes totals, so what is shown is what is filed.
package export

import (
	"encoding/json"
	"encoding/xml"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vatdesk/vatdesk/internal/company"
	"github.com/vatdesk/vatdesk/internal/declaration"
)

// Section labels of the declaration form.
const (
	SectionSales        = "A"
	SectionIntermediate = "B"
	SectionFinal        = "V"
)

// fieldLayout fixes the submission order of the numbered fields. Section A
// before B before V, ascending codes within a section.
var fieldLayout = []struct {
	code    string
	section string
	value   func(declaration.FieldSet) decimal.Decimal
}{
	{"09", SectionSales, func(f declaration.FieldSet) decimal.Decimal { return f.TaxableBaseStandard }},
	{"10", SectionSales, func(f declaration.FieldSet) decimal.Decimal { return f.VATStandard }},
	{"11", SectionSales, func(f declaration.FieldSet) decimal.Decimal { return f.TaxableBaseZero }},
	{"12", SectionSales, func(f declaration.FieldSet) decimal.Decimal { return f.ExemptBase }},
	{"13", SectionSales, func(f declaration.FieldSet) decimal.Decimal { return f.ICDBase }},
	{"14", SectionSales, func(f declaration.FieldSet) decimal.Decimal { return f.ExportBase }},
	{"15", SectionSales, func(f declaration.FieldSet) decimal.Decimal { return f.AbroadBase }},
	{"16", SectionSales, func(f declaration.FieldSet) decimal.Decimal { return f.DistanceBase }},
	{"17", SectionSales, func(f declaration.FieldSet) decimal.Decimal { return f.DistanceVAT }},
	{"18", SectionSales, func(f declaration.FieldSet) decimal.Decimal { return f.ICABase }},
	{"19", SectionSales, func(f declaration.FieldSet) decimal.Decimal { return f.ICAVAT }},
	{"41", SectionIntermediate, func(f declaration.FieldSet) decimal.Decimal { return f.TotalTaxBase }},
	{"42", SectionIntermediate, func(f declaration.FieldSet) decimal.Decimal { return f.TotalVATDue }},
	{"50", SectionIntermediate, func(f declaration.FieldSet) decimal.Decimal { return f.SalesVAT }},
	{"60", SectionIntermediate, func(f declaration.FieldSet) decimal.Decimal { return f.DeductibleVAT }},
	{"70", SectionFinal, func(f declaration.FieldSet) decimal.Decimal { return f.VATDue }},
	{"71", SectionFinal, func(f declaration.FieldSet) decimal.Decimal { return f.VATRefundable }},
	{"80", SectionFinal, func(f declaration.FieldSet) decimal.Decimal { return f.RefundAmount }},
	{"81", SectionFinal, func(f declaration.FieldSet) decimal.Decimal { return f.PayAmount }},
	{"82", SectionFinal, func(f declaration.FieldSet) decimal.Decimal { return f.RefundDue }},
}

// Field is one numbered slot in the rendered form.
type Field struct {
	Code    string `xml:"code,attr" json:"code"`
	Section string `xml:"section,attr" json:"section"`
	Value   string `xml:",chardata" json:"value"`
}

// Document is the submission-ready declaration render.
type Document struct {
	XMLName         xml.Name `xml:"VATDeclaration" json:"-"`
	CompanyName     string   `xml:"Company>Name" json:"company_name"`
	UIC             string   `xml:"Company>UIC" json:"uic"`
	VATNumber       string   `xml:"Company>VATNumber" json:"vat_number"`
	Period          string   `xml:"Period" json:"period"`
	Status          string   `xml:"Status" json:"status"`
	PaymentDue      string   `xml:"PaymentDue" json:"payment_due"`
	RefundDue       string   `xml:"RefundDue" json:"refund_due"`
	PaymentDeadline string   `xml:"PaymentDeadline" json:"payment_deadline"`
	SubmissionRef   string   `xml:"SubmissionRef,omitempty" json:"submission_ref,omitempty"`
	Fields          []Field  `xml:"Fields>Field" json:"fields"`
}

// BuildDocument assembles the render from an already-calculated declaration.
func BuildDocument(c company.Company, d declaration.Declaration) Document {
	doc := Document{
		CompanyName:     c.Name,
		UIC:             c.UIC,
		VATNumber:       c.VATNumber,
		Period:          d.Period,
		Status:          string(d.Status),
		PaymentDue:      money(d.PaymentDue),
		RefundDue:       money(d.RefundDue),
		PaymentDeadline: d.PaymentDeadline.Format("2006-01-02"),
		SubmissionRef:   d.SubmissionRef,
		Fields:          make([]Field, 0, len(fieldLayout)),
	}
	for _, slot := range fieldLayout {
		doc.Fields = append(doc.Fields, Field{
			Code:    slot.code,
			Section: slot.section,
			Value:   money(slot.value(d.Fields)),
		})
	}
	return doc
}

// XML renders the document with the standard header.
func (d Document) XML() ([]byte, error) {
	body, err := xml.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("rendering declaration XML: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// JSON renders the document as indented JSON.
func (d Document) JSON() ([]byte, error) {
	body, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("rendering declaration JSON: %w", err)
	}
	return body, nil
}

// FileName is the deterministic export name for a company period artifact.
func FileName(kind string, companyID int64, period, ext string) string {
	return fmt.Sprintf("%s_%d_%s.%s", kind, companyID, period, ext)
}

// money renders an amount with exactly two decimals.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
