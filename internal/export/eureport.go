package export

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vatdesk/vatdesk/internal/doctype"
	"github.com/vatdesk/vatdesk/internal/journal"
	"github.com/vatdesk/vatdesk/internal/shared"
)

// Totals is a count plus summed tax base.
type Totals struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// CountryBreakdown splits one member state's reportable flows into supplies
// (sales side) and acquisitions (purchase side).
type CountryBreakdown struct {
	Country      string `json:"country"`
	Supplies     Totals `json:"supplies"`
	Acquisitions Totals `json:"acquisitions"`
}

// PartyLine is the per-counterparty rollup.
type PartyLine struct {
	VATNumber string          `json:"vat_number"`
	Name      string          `json:"name,omitempty"`
	Count     int             `json:"count"`
	Amount    decimal.Decimal `json:"amount"`
}

// EUTransactionsReport is the VIES-report companion to the declaration.
type EUTransactionsReport struct {
	CompanyID  int64              `json:"company_id"`
	Period     string             `json:"period"`
	PerCountry []CountryBreakdown `json:"per_country"`
	Sales      []PartyLine        `json:"sales"`
	Purchases  []PartyLine        `json:"purchases"`
}

// BuildEUTransactionsReport aggregates the period's VIES-reportable rows. The
// amounts are the entries' tax bases; only document types flagged for the EU
// report contribute. A reportable entry with an unknown type or a missing
// required field aborts the report: a row without its party identifiers
// cannot be attributed to a member state.
func BuildEUTransactionsReport(companyID int64, period string, purchases, sales []journal.Entry) (EUTransactionsReport, error) {
	report := EUTransactionsReport{CompanyID: companyID, Period: period}
	countries := make(map[string]*CountryBreakdown)
	salesParties := make(map[string]*PartyLine)
	purchaseParties := make(map[string]*PartyLine)

	for _, entry := range sales {
		rule, err := doctype.SalesRule(entry.DocumentType)
		if err != nil {
			return EUTransactionsReport{}, reportErr(entry, fmt.Sprintf("unknown document type %d", entry.DocumentType))
		}
		if !rule.ContributesToVIESReport {
			continue
		}
		if err := journal.CheckRequiredFields(entry, rule); err != nil {
			return EUTransactionsReport{}, reportErr(entry, err.Error())
		}
		addParty(salesParties, entry)
		breakdown := countryFor(countries, reportCountry(entry))
		breakdown.Supplies.Count++
		breakdown.Supplies.Amount = breakdown.Supplies.Amount.Add(entry.TaxBase)
	}

	for _, entry := range purchases {
		rule, err := doctype.PurchaseRule(entry.DocumentType)
		if err != nil {
			return EUTransactionsReport{}, reportErr(entry, fmt.Sprintf("unknown document type %d", entry.DocumentType))
		}
		if !rule.ContributesToVIESReport {
			continue
		}
		if err := journal.CheckRequiredFields(entry, rule); err != nil {
			return EUTransactionsReport{}, reportErr(entry, err.Error())
		}
		addParty(purchaseParties, entry)
		breakdown := countryFor(countries, reportCountry(entry))
		breakdown.Acquisitions.Count++
		breakdown.Acquisitions.Amount = breakdown.Acquisitions.Amount.Add(entry.TaxBase)
	}

	for _, breakdown := range countries {
		report.PerCountry = append(report.PerCountry, *breakdown)
	}
	sort.Slice(report.PerCountry, func(i, j int) bool {
		return report.PerCountry[i].Country < report.PerCountry[j].Country
	})
	report.Sales = sortedParties(salesParties)
	report.Purchases = sortedParties(purchaseParties)
	return report, nil
}

// reportCountry is the member state attributed to a reportable entry: the
// counterparty's VAT prefix, or the final customer's for triangular purchase
// rows keyed on the end of the chain.
func reportCountry(entry journal.Entry) string {
	vat := entry.CounterpartyVAT
	if vat == "" {
		vat = entry.FinalCustomerVAT
	}
	if len(vat) < 2 {
		return "??"
	}
	return vat[:2]
}

func reportKey(entry journal.Entry) string {
	if entry.CounterpartyVAT != "" {
		return entry.CounterpartyVAT
	}
	return entry.FinalCustomerVAT
}

func addParty(parties map[string]*PartyLine, entry journal.Entry) {
	key := reportKey(entry)
	line, ok := parties[key]
	if !ok {
		line = &PartyLine{VATNumber: key, Name: entry.CounterpartyName}
		parties[key] = line
	}
	if line.Name == "" {
		line.Name = entry.CounterpartyName
	}
	line.Count++
	line.Amount = line.Amount.Add(entry.TaxBase)
}

func countryFor(countries map[string]*CountryBreakdown, country string) *CountryBreakdown {
	breakdown, ok := countries[country]
	if !ok {
		breakdown = &CountryBreakdown{Country: country}
		countries[country] = breakdown
	}
	return breakdown
}

func sortedParties(parties map[string]*PartyLine) []PartyLine {
	out := make([]PartyLine, 0, len(parties))
	for _, line := range parties {
		out = append(out, *line)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VATNumber < out[j].VATNumber })
	return out
}

func reportErr(entry journal.Entry, reason string) error {
	return fmt.Errorf("entry %d: %s: %w", entry.ID, reason, shared.ErrAggregationIntegrity)
}
