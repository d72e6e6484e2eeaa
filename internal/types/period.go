package types

import (
	"time"

	"github.com/greenquant-lab/greenquant/pkg/errors"
)

// Period is a named lookback range for history fetches.
type Period string

const (
	Period6Months Period = "6mo"
	Period1Year   Period = "1y"
	Period2Years  Period = "2y"
	Period5Years  Period = "5y"
)

// Periods lists the supported lookback ranges in ascending length.
func Periods() []Period {
	return []Period{Period6Months, Period1Year, Period2Years, Period5Years}
}

// ParsePeriod validates a user-supplied period string.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case Period6Months, Period1Year, Period2Years, Period5Years:
		return Period(s), nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidPeriod, "unsupported period %q, want one of 6mo, 1y, 2y, 5y", s)
	}
}

// Range resolves the period to a concrete [start, end] pair anchored at now.
func (p Period) Range(now time.Time) (time.Time, time.Time) {
	switch p {
	case Period6Months:
		return now.AddDate(0, -6, 0), now
	case Period1Year:
		return now.AddDate(-1, 0, 0), now
	case Period2Years:
		return now.AddDate(-2, 0, 0), now
	case Period5Years:
		return now.AddDate(-5, 0, 0), now
	default:
		return now, now
	}
}

// String implements fmt.Stringer.
func (p Period) String() string {
	return string(p)
}
