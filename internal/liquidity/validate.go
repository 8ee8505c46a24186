package liquidity

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrLengthMismatch is returned when the parallel sequences differ in length
	ErrLengthMismatch = errors.New("dates, prices and volumes must have the same length")
	// ErrMalformedDate is returned for a date that does not match DateLayout
	ErrMalformedDate = errors.New("malformed date")
	// ErrMalformedNumber is returned for a price or volume that is not numeric
	ErrMalformedNumber = errors.New("malformed number")
	// ErrNegativeValue is returned for a negative or non-finite price or volume
	ErrNegativeValue = errors.New("value must be a finite non-negative number")
)

// ValidationError represents validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Index   int         `json:"index"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface
func (ve *ValidationError) Error() string {
	if ve.Index >= 0 {
		return fmt.Sprintf("%s[%d]: %s", ve.Field, ve.Index, ve.Message)
	}
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// Unwrap exposes the sentinel error for errors.Is
func (ve *ValidationError) Unwrap() error {
	return ve.Err
}

func newFieldError(field string, index int, value interface{}, err error, msg string) *ValidationError {
	return &ValidationError{Field: field, Index: index, Message: msg, Value: value, Err: err}
}

// ParseSeries parses the scraped text sequences into a Series.
// Any unparsable element fails the whole call so positions never shift.
func ParseSeries(raw RawSeries) (Series, error) {
	if err := checkLengths(len(raw.Dates), len(raw.Prices), len(raw.Volumes)); err != nil {
		return Series{}, err
	}

	obs := make([]Observation, len(raw.Dates))
	for i := range raw.Dates {
		date, err := ParseDate(raw.Dates[i])
		if err != nil {
			return Series{}, newFieldError("dates", i, raw.Dates[i], ErrMalformedDate, err.Error())
		}

		price, err := ParsePrice(raw.Prices[i])
		if err != nil {
			return Series{}, newFieldError("prices", i, raw.Prices[i], errors.Unwrap(err), err.Error())
		}

		volume, err := ParseVolume(raw.Volumes[i])
		if err != nil {
			return Series{}, newFieldError("volumes", i, raw.Volumes[i], errors.Unwrap(err), err.Error())
		}

		obs[i] = Observation{Date: date, Price: price, Volume: volume}
	}

	return Series{Observations: obs}, nil
}

// NewSeries builds a Series from already-typed parallel sequences
func NewSeries(dates []time.Time, prices []float64, volumes []int64) (Series, error) {
	if err := checkLengths(len(dates), len(prices), len(volumes)); err != nil {
		return Series{}, err
	}

	obs := make([]Observation, len(dates))
	for i := range dates {
		if !isValidPrice(prices[i]) {
			return Series{}, newFieldError("prices", i, prices[i], ErrNegativeValue, ErrNegativeValue.Error())
		}
		if volumes[i] < 0 {
			return Series{}, newFieldError("volumes", i, volumes[i], ErrNegativeValue, ErrNegativeValue.Error())
		}
		obs[i] = Observation{Date: truncateDay(dates[i]), Price: prices[i], Volume: volumes[i]}
	}

	return Series{Observations: obs}, nil
}

// ParseDate parses a chart date such as "Jan 5, 2024" into UTC midnight
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}

// ParsePrice parses a price given as numeric text
func ParsePrice(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.Trim(strings.TrimSpace(s), `"`), 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, ErrMalformedNumber)
	}
	if !isValidPrice(v) {
		return 0, fmt.Errorf("price %q: %w", s, ErrNegativeValue)
	}
	return v, nil
}

// ParseVolume parses a volume given as integer text. Decimal text is truncated toward zero.
func ParseVolume(s string) (int64, error) {
	text := strings.Trim(strings.TrimSpace(s), `"`)
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(text, 64)
		if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("parse volume %q: %w", s, ErrMalformedNumber)
		}
		v = int64(math.Trunc(f))
	}
	if v < 0 {
		return 0, fmt.Errorf("volume %q: %w", s, ErrNegativeValue)
	}
	return v, nil
}

// ValidateParams checks custom scoring constants
func ValidateParams(p Params) error {
	switch {
	case p.WindowDays <= 0:
		return &ValidationError{Field: "WindowDays", Index: -1, Message: "window must be at least one day", Value: p.WindowDays}
	case p.ZThreshold <= 0:
		return &ValidationError{Field: "ZThreshold", Index: -1, Message: "z threshold must be positive", Value: p.ZThreshold}
	case p.StdDevFloor <= 0:
		return &ValidationError{Field: "StdDevFloor", Index: -1, Message: "standard deviation floor must be positive", Value: p.StdDevFloor}
	case p.MinSamples < 2:
		return &ValidationError{Field: "MinSamples", Index: -1, Message: "minimum sample size must be at least 2", Value: p.MinSamples}
	case p.VolumeNormalizer <= 0:
		return &ValidationError{Field: "VolumeNormalizer", Index: -1, Message: "volume normalizer must be positive", Value: p.VolumeNormalizer}
	case p.FrequencyWeight < 0 || p.VolumeWeight < 0 || p.StabilityWeight < 0:
		return &ValidationError{Field: "Weights", Index: -1, Message: "weights must not be negative",
			Value: map[string]float64{"frequency": p.FrequencyWeight, "volume": p.VolumeWeight, "stability": p.StabilityWeight}}
	}
	return nil
}

func checkLengths(dates, prices, volumes int) error {
	if dates != prices || dates != volumes {
		return &ValidationError{
			Field:   "series",
			Index:   -1,
			Message: ErrLengthMismatch.Error(),
			Value:   map[string]int{"dates": dates, "prices": prices, "volumes": volumes},
			Err:     ErrLengthMismatch,
		}
	}
	return nil
}

func isValidPrice(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fmtDays(days int) string {
	return strconv.Itoa(days) + "d"
}
