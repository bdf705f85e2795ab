package convert

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	DefaultLocale = "en-GB"

	// MaxFractionDigits matches the default precision of a browser number formatter
	MaxFractionDigits = 3
)

// Formatter renders and reads amounts with a locale's grouping and decimal marks.
// The arithmetic never depends on the locale, only the text does.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer

	decimalMark rune
	groupMark   rune
}

// NewFormatter builds a formatter for a BCP 47 tag such as "en-GB" or "de-DE".
// Unparseable tags, and locales that do not print ASCII digits, fall back to DefaultLocale.
func NewFormatter(locale string) *Formatter {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse(DefaultLocale)
	}

	formatter := newFormatter(tag)
	if formatter == nil {
		formatter = newFormatter(language.MustParse(DefaultLocale))
	}
	return formatter
}

func newFormatter(tag language.Tag) *Formatter {
	printer := message.NewPrinter(tag)
	sample := []rune(printer.Sprintf("%v", number.Decimal(1234567.5, number.MinFractionDigits(1), number.MaxFractionDigits(1))))
	if len(sample) < 3 || sample[0] != '1' || sample[len(sample)-1] != '5' {
		return nil
	}

	formatter := &Formatter{
		tag:         tag,
		printer:     printer,
		decimalMark: sample[len(sample)-2],
	}
	if !unicode.IsDigit(sample[1]) {
		formatter.groupMark = sample[1]
	}
	return formatter
}

// Locale returns the tag the formatter resolved to
func (formatter *Formatter) Locale() string {
	return formatter.tag.String()
}

// Format rounds half away from zero to at most MaxFractionDigits and prints
// the value without trailing zeros.
func (formatter *Formatter) Format(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return strconv.FormatFloat(value, 'f', -1, 64)
	}

	rounded := decimal.NewFromFloat(value).Round(MaxFractionDigits)
	digits := fractionDigits(rounded)

	return formatter.printer.Sprintf("%v", number.Decimal(
		rounded.InexactFloat64(),
		number.MinFractionDigits(digits),
		number.MaxFractionDigits(digits),
	))
}

// ParseAmount reads an amount typed in the locale's notation. Group marks are
// only accepted between groups of three digits, so "1,5" under en-GB is
// rejected rather than read as 15. Empty, non-numeric and negative input is rejected.
func (formatter *Formatter) ParseAmount(input string) (float64, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	normalized, ok := formatter.normalize(text)
	if !ok {
		return 0, fmt.Errorf("%w: misplaced group separator in %q", ErrInvalidAmount, input)
	}
	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}
	return value, nil
}

// normalize rewrites text with '.' as the decimal point and no group marks.
// It reports false when a group mark sits anywhere but between the digit
// groups of the integer part.
func (formatter *Formatter) normalize(text string) (string, bool) {
	integer, fraction, hasFraction := strings.Cut(text, string(formatter.decimalMark))
	if strings.ContainsFunc(fraction, formatter.isGroupMark) {
		return "", false
	}

	groups := formatter.splitGroups(integer)
	if len(groups) > 1 {
		for i, group := range groups {
			if !allDigits(group) {
				return "", false
			}
			if i == 0 && (len(group) == 0 || len(group) > 3) {
				return "", false
			}
			if i > 0 && len(group) != 3 {
				return "", false
			}
		}
	}

	normalized := strings.Join(groups, "")
	if hasFraction {
		normalized += "." + fraction
	}
	return normalized, true
}

func (formatter *Formatter) isGroupMark(r rune) bool {
	if formatter.groupMark != 0 && r == formatter.groupMark {
		return true
	}
	return unicode.IsSpace(r) && (formatter.groupMark == 0 || unicode.IsSpace(formatter.groupMark))
}

// splitGroups splits on every group mark, keeping empty groups
func (formatter *Formatter) splitGroups(integer string) []string {
	var groups []string
	begin := 0
	for index, r := range integer {
		if formatter.isGroupMark(r) {
			groups = append(groups, integer[begin:index])
			begin = index + utf8.RuneLen(r)
		}
	}
	return append(groups, integer[begin:])
}

func allDigits(text string) bool {
	for _, r := range text {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func fractionDigits(value decimal.Decimal) int {
	text := value.String()
	if index := strings.IndexByte(text, '.'); index >= 0 {
		return len(text) - index - 1
	}
	return 0
}
