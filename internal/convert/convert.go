package convert

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dalfonso89/currency-converter/internal/models"
)

// Direction says which side of a conversion the amount belongs to
type Direction string

const (
	// Forward treats the amount as source currency and computes the target amount
	Forward Direction = "forward"
	// Reverse treats the amount as target currency and computes the source amount
	Reverse Direction = "reverse"
)

var (
	ErrUnknownCurrency  = errors.New("unknown currency")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidRate      = errors.New("invalid rate")
	ErrInvalidDirection = errors.New("invalid direction")
)

// ParseDirection accepts "forward" (or empty) and "reverse" (or "back")
func ParseDirection(input string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", string(Forward):
		return Forward, nil
	case string(Reverse), "back":
		return Reverse, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, input)
	}
}

// Convert bridges amount through the base currency: divide by the rate of
// the currency the amount is in, multiply by the rate of the one wanted.
func Convert(table models.RateTable, source, target string, amount float64, direction Direction) (float64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}

	sourceRate, err := lookup(table, source)
	if err != nil {
		return 0, err
	}
	targetRate, err := lookup(table, target)
	if err != nil {
		return 0, err
	}

	switch direction {
	case Forward:
		return (amount / sourceRate) * targetRate, nil
	case Reverse:
		return (amount / targetRate) * sourceRate, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}
}

// NormalizeCode upper-cases and trims a currency code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func lookup(table models.RateTable, code string) (float64, error) {
	code = NormalizeCode(code)
	rate, ok := table.Lookup(code)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, code)
	}
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, fmt.Errorf("%w: %s=%v", ErrInvalidRate, code, rate)
	}
	return rate, nil
}
