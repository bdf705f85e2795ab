package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dalfonso89/currency-converter/internal/convert"
	"github.com/dalfonso89/currency-converter/internal/logger"
	"github.com/dalfonso89/currency-converter/internal/models"
	"github.com/dalfonso89/currency-converter/internal/rates"
)

const (
	DefaultSource = "EUR"
	DefaultTarget = "USD"
)

var (
	ErrNotReady    = errors.New("rates are not loaded yet")
	ErrRowNotFound = errors.New("conversion row not found")
	ErrLastRow     = errors.New("cannot remove the last conversion row")
)

// Row is one source/target pair with the amounts as displayed
type Row struct {
	Source       string
	Target       string
	SourceAmount string
	TargetAmount string
}

// State is an immutable snapshot of the converter. Every change builds a new
// State; snapshots handed out are never modified afterwards.
type State struct {
	Date      rates.RateDate
	RatesDate string
	Table     models.RateTable
	Pending   bool
	Rows      []Row

	token uint64
}

// Ready reports whether a table is loaded and no fetch is outstanding
func (state State) Ready() bool {
	return state.Table != nil && !state.Pending
}

// Currencies lists the codes of the loaded table
func (state State) Currencies() []string {
	if state.Table == nil {
		return []string{}
	}
	return state.Table.Codes()
}

func (state State) clone() State {
	next := state
	next.Rows = append([]Row(nil), state.Rows...)
	return next
}

// Session is the converter's state machine: it owns the current rate table,
// the selected date and the conversion rows.
type Session struct {
	fetcher   rates.RateFetcher
	formatter *convert.Formatter
	logger    *logger.Logger
	clock     func() time.Time
	location  *time.Location

	mu        sync.RWMutex
	state     *State
	changed   chan struct{}
	lastToken uint64
}

// Option configures a Session
type Option func(*Session)

func WithFormatter(formatter *convert.Formatter) Option {
	return func(s *Session) { s.formatter = formatter }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Session) { s.clock = clock }
}

// WithLocation sets the zone whose calendar day "today" refers to
func WithLocation(location *time.Location) Option {
	return func(s *Session) { s.location = location }
}

// WithRows replaces the initial single EUR→USD row
func WithRows(rows ...Row) Option {
	return func(s *Session) {
		if len(rows) > 0 {
			s.state.Rows = normalizeRows(rows)
		}
	}
}

// New creates a session on the latest date with no table loaded
func New(fetcher rates.RateFetcher, logger *logger.Logger, options ...Option) *Session {
	session := &Session{
		fetcher:   fetcher,
		formatter: convert.NewFormatter(convert.DefaultLocale),
		logger:    logger,
		clock:     time.Now,
		location:  time.Local,
		state: &State{
			Date: rates.Latest,
			Rows: []Row{{Source: DefaultSource, Target: DefaultTarget}},
		},
		changed: make(chan struct{}),
	}
	for _, option := range options {
		option(session)
	}
	return session
}

// State returns the current snapshot
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.state
}

// Formatter returns the formatter used for row amounts
func (s *Session) Formatter() *convert.Formatter {
	return s.formatter
}

// SelectDate switches the session to the date typed by the user and loads
// its table. Input that is not a date yet is ignored without fetching.
func (s *Session) SelectDate(ctx context.Context, input string) error {
	date, err := rates.ParseRateDate(input)
	if err != nil {
		s.logger.WithField("input", input).Debug("Ignoring incomplete rate date")
		return nil
	}
	if err := date.Validate(s.clock(), s.location); err != nil {
		return fmt.Errorf("%w: %s", err, date)
	}
	return s.load(ctx, date)
}

// Refresh re-fetches the table for the currently selected date
func (s *Session) Refresh(ctx context.Context) error {
	return s.load(ctx, s.State().Date)
}

// load fetches the table for date. Each call takes a new token; a completion
// is only published while its token is still the newest, so an older fetch
// finishing late never overwrites a newer table.
func (s *Session) load(ctx context.Context, date rates.RateDate) error {
	var token uint64
	s.update(func(state *State) bool {
		s.lastToken++
		token = s.lastToken
		state.Date = date
		state.Pending = true
		state.token = token
		return true
	})

	response, err := s.fetcher.FetchRates(ctx, date)

	log := s.logger.WithFields(logrus.Fields{"date": date.String(), "token": token})
	published := s.update(func(state *State) bool {
		if state.token != token {
			return false
		}
		state.Pending = false
		if err == nil {
			state.Table = response.Rates
			state.RatesDate = response.Date
		}
		return true
	})

	switch {
	case !published:
		log.Debug("Discarding stale rates")
	case err != nil:
		log.Warnf("Keeping previous rates: %v", err)
	default:
		log.WithField("rates_date", response.Date).Info("Rates loaded")
	}
	return err
}

// WaitReady blocks until rates are loaded and no fetch is pending
func (s *Session) WaitReady(ctx context.Context) (State, error) {
	for {
		s.mu.RLock()
		state, changed := *s.state, s.changed
		s.mu.RUnlock()

		if state.Ready() {
			return state, nil
		}
		select {
		case <-ctx.Done():
			return state, ctx.Err()
		case <-changed:
		}
	}
}

// Convert converts row index against the loaded table. Forward reads the
// source amount and fills the target amount; Reverse does the opposite.
func (s *Session) Convert(index int, direction convert.Direction) (State, error) {
	var result State
	err := s.mutate(func(state *State) error {
		if state.Table == nil {
			return ErrNotReady
		}
		if index < 0 || index >= len(state.Rows) {
			return fmt.Errorf("%w: %d", ErrRowNotFound, index)
		}

		row := state.Rows[index]
		input := row.SourceAmount
		if direction == convert.Reverse {
			input = row.TargetAmount
		}
		amount, err := s.formatter.ParseAmount(input)
		if err != nil {
			return err
		}
		converted, err := convert.Convert(state.Table, row.Source, row.Target, amount, direction)
		if err != nil {
			return err
		}

		if direction == convert.Reverse {
			row.SourceAmount = s.formatter.Format(converted)
		} else {
			row.TargetAmount = s.formatter.Format(converted)
		}
		state.Rows[index] = row
		result = *state
		return nil
	})
	if err != nil {
		return s.State(), err
	}
	return result, nil
}

// AddRow appends a conversion row; empty codes default to EUR→USD
func (s *Session) AddRow(source, target string) State {
	return s.AppendRow(Row{Source: source, Target: target})
}

// AppendRow appends row, amounts included, in a single state change.
// Empty codes default to EUR→USD.
func (s *Session) AppendRow(row Row) State {
	if row.Source == "" {
		row.Source = DefaultSource
	}
	if row.Target == "" {
		row.Target = DefaultTarget
	}
	var result State
	s.update(func(state *State) bool {
		state.Rows = append(state.Rows, normalizeRow(row))
		result = *state
		return true
	})
	return result
}

// UpdateRow replaces row index
func (s *Session) UpdateRow(index int, row Row) (State, error) {
	var result State
	err := s.mutate(func(state *State) error {
		if index < 0 || index >= len(state.Rows) {
			return fmt.Errorf("%w: %d", ErrRowNotFound, index)
		}
		state.Rows[index] = normalizeRow(row)
		result = *state
		return nil
	})
	if err != nil {
		return s.State(), err
	}
	return result, nil
}

// RemoveRow deletes row index; the last remaining row cannot be removed
func (s *Session) RemoveRow(index int) (State, error) {
	var result State
	err := s.mutate(func(state *State) error {
		if index < 0 || index >= len(state.Rows) {
			return fmt.Errorf("%w: %d", ErrRowNotFound, index)
		}
		if len(state.Rows) == 1 {
			return ErrLastRow
		}
		state.Rows = append(state.Rows[:index], state.Rows[index+1:]...)
		result = *state
		return nil
	})
	if err != nil {
		return s.State(), err
	}
	return result, nil
}

// update applies fn to a copy of the state and publishes it when fn returns true
func (s *Session) update(fn func(*State) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	if !fn(&next) {
		return false
	}
	s.state = &next
	close(s.changed)
	s.changed = make(chan struct{})
	return true
}

func (s *Session) mutate(fn func(*State) error) error {
	var err error
	s.update(func(state *State) bool {
		err = fn(state)
		return err == nil
	})
	return err
}

func normalizeRow(row Row) Row {
	row.Source = convert.NormalizeCode(row.Source)
	row.Target = convert.NormalizeCode(row.Target)
	return row
}

func normalizeRows(rows []Row) []Row {
	normalized := make([]Row, len(rows))
	for i, row := range rows {
		normalized[i] = normalizeRow(row)
	}
	return normalized
}
