package rates

import (
	"errors"
	"strings"
	"time"
)

const (
	latestLiteral = "latest"
	dateLayout    = "2006-01-02"
)

var (
	ErrInvalidDate    = errors.New("invalid rate date")
	ErrDateOutOfRange = errors.New("rate date out of range")

	// EarliestDate is the first day the rates API publishes a table for
	EarliestDate = time.Date(1999, time.January, 4, 0, 0, 0, 0, time.UTC)
)

// RateDate is either the "latest" sentinel or a calendar day held at UTC
// midnight. The zero value is Latest.
type RateDate struct {
	day   time.Time
	isDay bool
}

// Latest selects the most recent published table
var Latest = RateDate{}

// Day takes the calendar day of t as seen in loc (time.Local when nil) and
// pins it to UTC midnight, so the day the caller meant survives the
// conversion to the API's date literal.
func Day(t time.Time, loc *time.Location) RateDate {
	if loc == nil {
		loc = time.Local
	}
	year, month, day := t.In(loc).Date()
	return RateDate{day: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), isDay: true}
}

// ParseRateDate parses "latest" or a YYYY-MM-DD literal
func ParseRateDate(input string) (RateDate, error) {
	input = strings.TrimSpace(input)
	if strings.EqualFold(input, latestLiteral) {
		return Latest, nil
	}
	day, err := time.Parse(dateLayout, input)
	if err != nil {
		return RateDate{}, ErrInvalidDate
	}
	return RateDate{day: day, isDay: true}, nil
}

func (date RateDate) IsLatest() bool {
	return !date.isDay
}

// Time returns the UTC midnight of the day, or the zero time for Latest
func (date RateDate) Time() time.Time {
	return date.day
}

func (date RateDate) String() string {
	if date.IsLatest() {
		return latestLiteral
	}
	return date.day.Format(dateLayout)
}

// Validate checks the day lies between EarliestDate and today in loc
func (date RateDate) Validate(now time.Time, loc *time.Location) error {
	if date.IsLatest() {
		return nil
	}
	if date.day.Before(EarliestDate) || date.day.After(Day(now, loc).day) {
		return ErrDateOutOfRange
	}
	return nil
}

func (date RateDate) MarshalText() ([]byte, error) {
	return []byte(date.String()), nil
}

func (date *RateDate) UnmarshalText(text []byte) error {
	parsed, err := ParseRateDate(string(text))
	if err != nil {
		return err
	}
	*date = parsed
	return nil
}
