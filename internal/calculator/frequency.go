package calculator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// ErrInvalidFrequency is returned for a resampling frequency outside the supported set.
var ErrInvalidFrequency = errors.New("invalid frequency")

// Frequency is a resampling period.
type Frequency int

const (
	None Frequency = iota // daily data, no resampling
	Weekly
	Monthly
	Quarterly
	Yearly
)

func (f Frequency) String() string {
	switch f {
	case None:
		return ""
	case Weekly:
		return "W"
	case Monthly:
		return "M"
	case Quarterly:
		return "Q"
	case Yearly:
		return "A"
	default:
		return fmt.Sprintf("Frequency(%d)", int(f))
	}
}

// ParseFrequency accepts the short aliases W, M, Q, A/Y and their long names,
// case-insensitively. The empty string parses as None.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return None, nil
	case "w", "week", "weekly":
		return Weekly, nil
	case "m", "month", "monthly":
		return Monthly, nil
	case "q", "quarter", "quarterly":
		return Quarterly, nil
	case "a", "y", "year", "yearly", "annual":
		return Yearly, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
}

// periodEnd returns the last calendar day of the period containing d.
// Weeks end on Sunday.
func periodEnd(d civil.Date, f Frequency) civil.Date {
	switch f {
	case Weekly:
		wd := d.In(time.UTC).Weekday()
		return d.AddDays((7 - int(wd)) % 7)
	case Monthly:
		return lastDayOfMonth(d.Year, d.Month)
	case Quarterly:
		q := (int(d.Month)-1)/3 + 1
		return lastDayOfMonth(d.Year, time.Month(q*3))
	case Yearly:
		return civil.Date{Year: d.Year, Month: time.December, Day: 31}
	default:
		return d
	}
}

func lastDayOfMonth(year int, month time.Month) civil.Date {
	return civil.DateOf(time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC))
}
