package models

import (
	"sort"
	"time"
)

// BaseCurrency is the currency every rate table is expressed against
const BaseCurrency = "EUR"

// RateTable maps a currency code to how many units of it equal one EUR.
// Tables are never mutated after they are decoded.
type RateTable map[string]float64

// Lookup returns the rate for code. The base currency is implied at 1.0
// when the API leaves it out.
func (table RateTable) Lookup(code string) (float64, bool) {
	if rate, ok := table[code]; ok {
		return rate, true
	}
	if code == BaseCurrency {
		return 1, true
	}
	return 0, false
}

// Codes returns the sorted currency codes of the table, base currency included
func (table RateTable) Codes() []string {
	codes := make([]string, 0, len(table)+1)
	for code := range table {
		codes = append(codes, code)
	}
	if _, ok := table[BaseCurrency]; !ok && len(table) > 0 {
		codes = append(codes, BaseCurrency)
	}
	sort.Strings(codes)
	return codes
}

type RatesResponse struct {
	Base  string    `json:"base"`
	Date  string    `json:"date"`
	Rates RateTable `json:"rates"`
}

type CurrenciesResponse struct {
	Base       string   `json:"base"`
	Date       string   `json:"date"`
	Currencies []string `json:"currencies"`
}

// ConvertRequest carries the amount as text so it can be parsed with the
// locale's separators, the same way the amount fields are read.
type ConvertRequest struct {
	From      string `json:"from" binding:"required"`
	To        string `json:"to" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	Direction string `json:"direction"`
	Date      string `json:"date"`
	Locale    string `json:"locale"`
}

type ConvertResponse struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Amount    float64 `json:"amount"`
	Direction string  `json:"direction"`
	Date      string  `json:"date"`
	Result    float64 `json:"result"`
	Formatted string  `json:"formatted"`
}

type BatchRow struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type BatchConvertRequest struct {
	Date      string     `json:"date"`
	Direction string     `json:"direction"`
	Locale    string     `json:"locale"`
	Rows      []BatchRow `json:"rows" binding:"required,min=1"`
}

type BatchRowResult struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Amount    float64 `json:"amount"`
	Result    float64 `json:"result"`
	Formatted string  `json:"formatted,omitempty"`
	Error     string  `json:"error,omitempty"`
}

type BatchConvertResponse struct {
	Date      string           `json:"date"`
	Direction string           `json:"direction"`
	Rows      []BatchRowResult `json:"rows"`
}

type DateRequest struct {
	Date string `json:"date"`
}

type RowRequest struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceAmount string `json:"source_amount"`
	TargetAmount string `json:"target_amount"`
}

type RowView struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceAmount string `json:"source_amount"`
	TargetAmount string `json:"target_amount"`
}

type SessionResponse struct {
	Date       string    `json:"date"`
	RatesDate  string    `json:"rates_date,omitempty"`
	Pending    bool      `json:"pending"`
	Ready      bool      `json:"ready"`
	Currencies []string  `json:"currencies"`
	Rows       []RowView `json:"rows"`
}

type HealthCheck struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
