package rates

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDay_KeepsLocalCalendarDay(t *testing.T) {
	tokyo := time.FixedZone("UTC+9", 9*60*60)
	newYork := time.FixedZone("UTC-5", -5*60*60)

	tests := []struct {
		name     string
		instant  time.Time
		loc      *time.Location
		expected string
	}{
		{
			name:     "early morning east of UTC stays on the local day",
			instant:  time.Date(2020, 1, 2, 1, 30, 0, 0, tokyo),
			loc:      tokyo,
			expected: "2020-01-02",
		},
		{
			name:     "late evening west of UTC stays on the local day",
			instant:  time.Date(2020, 1, 2, 22, 0, 0, 0, newYork),
			loc:      newYork,
			expected: "2020-01-02",
		},
		{
			name:     "UTC instant read in a western zone",
			instant:  time.Date(2020, 1, 3, 2, 0, 0, 0, time.UTC),
			loc:      newYork,
			expected: "2020-01-02",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date := Day(tt.instant, tt.loc)
			assert.Equal(t, tt.expected, date.String())
			assert.Equal(t, time.UTC, date.Time().Location())
			assert.Zero(t, date.Time().Hour())
		})
	}
}

func TestParseRateDate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		err      error
	}{
		{"latest", "latest", nil},
		{" LATEST ", "latest", nil},
		{"2020-01-02", "2020-01-02", nil},
		{"", "", ErrInvalidDate},
		{"2020-13-01", "", ErrInvalidDate},
		{"02/01/2020", "", ErrInvalidDate},
		{"yesterday", "", ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			date, err := ParseRateDate(tt.input)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, date.String())
		})
	}
}

func TestRateDate_Validate(t *testing.T) {
	now := time.Date(2021, 3, 26, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		input string
		err   error
	}{
		{"latest", nil},
		{"1999-01-04", nil},
		{"1999-01-03", ErrDateOutOfRange},
		{"0001-01-01", ErrDateOutOfRange},
		{"2021-03-26", nil},
		{"2021-03-27", ErrDateOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			date, err := ParseRateDate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.input == "latest", date.IsLatest())
			assert.Equal(t, tt.input, date.String())
			err = date.Validate(now, time.UTC)
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestRateDate_JSON(t *testing.T) {
	var payload struct {
		Date RateDate `json:"date"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"date":"2020-01-02"}`), &payload))
	assert.Equal(t, "2020-01-02", payload.Date.String())

	encoded, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2020-01-02"}`, string(encoded))

	assert.Error(t, json.Unmarshal([]byte(`{"date":"soon"}`), &payload))
}
