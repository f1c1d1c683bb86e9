package model

import (
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

// ErrInvalidInstrument is returned when an instrument identity is malformed.
var ErrInvalidInstrument = errors.New("invalid instrument")

// Instrument identifies a ticker over a date range. It is an immutable value:
// two instruments are equal when ticker, start and end are all equal, which
// makes it usable directly as a map or cache key.
type Instrument struct {
	Ticker string
	Start  civil.Date
	End    civil.Date
}

// NewInstrument builds a validated Instrument.
func NewInstrument(ticker string, start, end civil.Date) (Instrument, error) {
	inst := Instrument{Ticker: strings.TrimSpace(ticker), Start: start, End: end}
	if err := inst.Validate(); err != nil {
		return Instrument{}, err
	}
	return inst, nil
}

// Validate rejects an empty ticker, invalid dates and start after end.
func (i Instrument) Validate() error {
	if i.Ticker == "" {
		return fmt.Errorf("%w: empty ticker", ErrInvalidInstrument)
	}
	if !i.Start.IsValid() || !i.End.IsValid() {
		return fmt.Errorf("%w: invalid date in %s", ErrInvalidInstrument, i)
	}
	if i.Start.After(i.End) {
		return fmt.Errorf("%w: start %s after end %s", ErrInvalidInstrument, i.Start, i.End)
	}
	return nil
}

// WithTicker returns a copy of the instrument pointing at another ticker.
func (i Instrument) WithTicker(ticker string) Instrument {
	i.Ticker = ticker
	return i
}

// Key is the canonical string form, unique per identity.
func (i Instrument) Key() string {
	return i.Ticker + "|" + i.Start.String() + "|" + i.End.String()
}

func (i Instrument) String() string {
	return fmt.Sprintf("Instrument(ticker = %s, start = %s, end = %s)", i.Ticker, i.Start, i.End)
}
