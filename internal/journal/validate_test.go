package journal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vatdesk/vatdesk/internal/shared"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func validPurchaseInput() EntryInput {
	return EntryInput{
		CompanyID:        1,
		Journal:          JournalPurchase,
		Period:           "202401",
		DocumentType:     1,
		DocumentNumber:   "0000000123",
		DocumentDate:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		CounterpartyName: "Doставчик ЕООД",
		TaxBase:          dec("100.00"),
		VATAmount:        decPtr("20.00"),
		Total:            decPtr("120.00"),
	}
}

func TestValidateHappyPath(t *testing.T) {
	entry, err := Validate(validPurchaseInput(), StandardVATRate)
	require.NoError(t, err)
	require.True(t, entry.Total.Equal(dec("120.00")))
	require.True(t, entry.VATAmount.Equal(dec("20.00")))
}

func TestValidateRejectsBadPeriod(t *testing.T) {
	for _, period := range []string{"", "2024", "202413", "202400", "199912", "20240a"} {
		input := validPurchaseInput()
		input.Period = period
		_, err := Validate(input, StandardVATRate)
		require.True(t, shared.IsValidation(err), "period %q", period)
	}
}

func TestValidateUnknownDocumentType(t *testing.T) {
	input := validPurchaseInput()
	input.DocumentType = 8
	_, err := Validate(input, StandardVATRate)
	require.ErrorIs(t, err, shared.ErrUnknownDocumentType)
}

func TestValidateRequiredFields(t *testing.T) {
	t.Run("missing document number", func(t *testing.T) {
		input := validPurchaseInput()
		input.DocumentNumber = "   "
		_, err := Validate(input, StandardVATRate)
		require.True(t, shared.IsValidation(err))
	})
	t.Run("missing document date", func(t *testing.T) {
		input := validPurchaseInput()
		input.DocumentDate = time.Time{}
		_, err := Validate(input, StandardVATRate)
		require.True(t, shared.IsValidation(err))
	})
	t.Run("customs document needs reference", func(t *testing.T) {
		input := validPurchaseInput()
		input.DocumentType = 2
		_, err := Validate(input, StandardVATRate)
		require.True(t, shared.IsValidation(err))

		input.CustomsDocumentRef = "MRN24BG001234"
		_, err = Validate(input, StandardVATRate)
		require.NoError(t, err)
	})
	t.Run("triangular needs both VAT ids", func(t *testing.T) {
		input := validPurchaseInput()
		input.DocumentType = 11
		input.IntermediaryVAT = "DE811569869"
		_, err := Validate(input, StandardVATRate)
		require.True(t, shared.IsValidation(err))

		input.FinalCustomerVAT = "FR40303265045"
		_, err = Validate(input, StandardVATRate)
		require.NoError(t, err)
	})
	t.Run("vat application needs reference", func(t *testing.T) {
		input := validPurchaseInput()
		input.DocumentType = 92
		_, err := Validate(input, StandardVATRate)
		require.True(t, shared.IsValidation(err))

		input.ApplicationRef = "APP-2024-0001"
		_, err = Validate(input, StandardVATRate)
		require.NoError(t, err)
	})
}

func TestValidateSignPolicy(t *testing.T) {
	t.Run("invoice rejects negative amounts", func(t *testing.T) {
		input := validPurchaseInput()
		input.TaxBase = dec("-100.00")
		input.VATAmount = decPtr("-20.00")
		input.Total = decPtr("-120.00")
		_, err := Validate(input, StandardVATRate)
		require.ErrorIs(t, err, shared.ErrSignPolicyViolation)
	})
	t.Run("credit note requires non-positive amounts", func(t *testing.T) {
		input := validPurchaseInput()
		input.DocumentType = 3
		_, err := Validate(input, StandardVATRate)
		require.ErrorIs(t, err, shared.ErrSignPolicyViolation)

		input.TaxBase = dec("-100.00")
		input.VATAmount = decPtr("-20.00")
		input.Total = decPtr("-120.00")
		entry, err := Validate(input, StandardVATRate)
		require.NoError(t, err)
		require.True(t, entry.Total.Equal(dec("-120.00")))
	})
	t.Run("domestic sales allow negative correction rows", func(t *testing.T) {
		input := validPurchaseInput()
		input.Journal = JournalSales
		input.DocumentType = 1
		input.TaxBase = dec("-50.00")
		input.VATAmount = decPtr("-10.00")
		input.Total = decPtr("-60.00")
		_, err := Validate(input, StandardVATRate)
		require.NoError(t, err)
	})
}

func TestValidateDerivesVAT(t *testing.T) {
	input := validPurchaseInput()
	input.VATAmount = nil
	input.Total = nil
	entry, err := Validate(input, StandardVATRate)
	require.NoError(t, err)
	require.True(t, entry.VATAmount.Equal(dec("20.00")))
	require.True(t, entry.Total.Equal(dec("120.00")))
}

func TestValidateDerivedVATRoundsHalfUp(t *testing.T) {
	input := validPurchaseInput()
	input.TaxBase = dec("10.33")
	input.VATAmount = nil
	input.Total = nil
	entry, err := Validate(input, StandardVATRate)
	require.NoError(t, err)
	// 10.33 * 0.20 = 2.066 -> 2.07
	require.True(t, entry.VATAmount.Equal(dec("2.07")), "got %s", entry.VATAmount)
}

func TestValidateDerivedVATNegativeBase(t *testing.T) {
	input := validPurchaseInput()
	input.DocumentType = 3
	input.TaxBase = dec("-10.33")
	input.VATAmount = nil
	input.Total = nil
	entry, err := Validate(input, StandardVATRate)
	require.NoError(t, err)
	require.True(t, entry.VATAmount.Equal(dec("-2.07")), "got %s", entry.VATAmount)
}

func TestValidateTotalTolerance(t *testing.T) {
	input := validPurchaseInput()
	input.Total = decPtr("120.01")
	entry, err := Validate(input, StandardVATRate)
	require.NoError(t, err)
	require.True(t, entry.Total.Equal(dec("120.01")), "document total is authoritative within tolerance")

	input.Total = decPtr("120.02")
	_, err = Validate(input, StandardVATRate)
	require.True(t, shared.IsValidation(err))
}

func TestValidateNormalizesCounterpartyVAT(t *testing.T) {
	input := validPurchaseInput()
	input.CounterpartyVAT = " de 8115 69869 "
	entry, err := Validate(input, StandardVATRate)
	require.NoError(t, err)
	require.Equal(t, "DE811569869", entry.CounterpartyVAT)
}

func TestValidateCustomRate(t *testing.T) {
	input := validPurchaseInput()
	input.VATAmount = nil
	input.Total = nil
	entry, err := Validate(input, dec("0.09"))
	require.NoError(t, err)
	require.True(t, entry.VATAmount.Equal(dec("9.00")))
}
