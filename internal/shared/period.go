package shared

import (
	"time"
)

// Declaration periods are calendar months encoded as six ASCII digits, YYYYMM.
// The year must be 2000..current year+1 so typos like 202113 or 199901 are
// rejected before they can partition the journals.

// ValidatePeriod checks the YYYYMM format and range against the current clock.
func ValidatePeriod(period string) error {
	return ValidatePeriodAt(period, time.Now())
}

// ValidatePeriodAt checks the YYYYMM format and range against a reference time.
func ValidatePeriodAt(period string, now time.Time) error {
	year, month, err := SplitPeriod(period)
	if err != nil {
		return err
	}
	if year < 2000 || year > now.Year()+1 {
		return Validation("period", period, "year out of range")
	}
	if month < 1 || month > 12 {
		return Validation("period", period, "month must be 01-12")
	}
	return nil
}

// SplitPeriod parses YYYYMM into year and month without range checks
// beyond the digit format.
func SplitPeriod(period string) (year, month int, err error) {
	if len(period) != 6 {
		return 0, 0, Validation("period", period, "must be six digits YYYYMM")
	}
	for _, r := range period {
		if r < '0' || r > '9' {
			return 0, 0, Validation("period", period, "must be six digits YYYYMM")
		}
	}
	year = int(period[0]-'0')*1000 + int(period[1]-'0')*100 + int(period[2]-'0')*10 + int(period[3]-'0')
	month = int(period[4]-'0')*10 + int(period[5]-'0')
	return year, month, nil
}

// PeriodStart returns midnight UTC on the first day of the period's month.
func PeriodStart(period string) (time.Time, error) {
	year, month, err := SplitPeriod(period)
	if err != nil {
		return time.Time{}, err
	}
	if month < 1 || month > 12 {
		return time.Time{}, Validation("period", period, "month must be 01-12")
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}
