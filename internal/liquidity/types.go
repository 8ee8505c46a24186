package liquidity

import (
	"time"
)

// Window represents a trailing time window measured in calendar days
type Window int

const (
	// Window7 is the trailing week used for the consumer-side averages
	Window7 Window = 7
	// Window90 is the scoring window
	Window90 Window = 90
)

// String returns the string representation of the window
func (w Window) String() string {
	switch w {
	case Window7:
		return "7d"
	case Window90:
		return "90d"
	default:
		if w > 0 {
			return fmtDays(int(w))
		}
		return "unknown"
	}
}

// Days returns the number of days in the window
func (w Window) Days() int {
	return int(w)
}

// DateLayout is the marketplace chart date format, e.g. "Jan 5, 2024"
const DateLayout = "Jan 2, 2006"

// Observation is a single (date, price, volume) data point for an item
type Observation struct {
	Date   time.Time `json:"date"`   // Calendar day, UTC midnight
	Price  float64   `json:"price"`  // Median sale price for the day
	Volume int64     `json:"volume"` // Units sold on the day
}

// RawSeries holds the three parallel sequences as scraped, before parsing
type RawSeries struct {
	Dates   []string `json:"dates"`
	Prices  []string `json:"prices"`
	Volumes []string `json:"volumes"`
}

// Len returns the length of the date sequence
func (rs RawSeries) Len() int {
	return len(rs.Dates)
}

// Series is an ordered, positionally aligned list of observations
type Series struct {
	Observations []Observation `json:"observations"`
}

// Len returns the number of observations
func (s Series) Len() int {
	return len(s.Observations)
}

// Prices returns the prices in positional order
func (s Series) Prices() []float64 {
	prices := make([]float64, len(s.Observations))
	for i, o := range s.Observations {
		prices[i] = o.Price
	}
	return prices
}

// Volumes returns the volumes in positional order
func (s Series) Volumes() []int64 {
	volumes := make([]int64, len(s.Observations))
	for i, o := range s.Observations {
		volumes[i] = o.Volume
	}
	return volumes
}

// WindowResult is the subset of a series that falls inside a trailing window
type WindowResult struct {
	Observations []Observation
	TotalVolume  int64
}

// Prices returns the windowed prices in their original relative order
func (wr WindowResult) Prices() []float64 {
	return Series{Observations: wr.Observations}.Prices()
}

// Len returns the number of windowed observations
func (wr WindowResult) Len() int {
	return len(wr.Observations)
}

// Result is the score bundle produced for one item
type Result struct {
	Liquidity        float64 `json:"liquidity"`         // Final score in [0, 100], one decimal
	SellingFrequency int     `json:"selling_frequency"` // Observations left after outlier rejection
	AverageVolume    float64 `json:"average_volume"`    // Normalized average volume in [0, 1]
	PriceStability   float64 `json:"price_stability"`   // Price stability score in [0, 1]
	TotalVolume      int64   `json:"total_volume"`      // Volume summed over the window
	WindowSize       int     `json:"window_size"`       // Observations inside the window
	Outliers         int     `json:"outliers"`          // Observations rejected as outliers
}

// IsValid checks that the score is inside its bounds
func (r Result) IsValid() bool {
	return r.Liquidity >= 0 && r.Liquidity <= 100 &&
		r.AverageVolume >= 0 && r.AverageVolume <= 1 &&
		r.PriceStability >= 0 && r.PriceStability <= 1 &&
		r.SellingFrequency <= r.WindowSize
}

// TrailingStats contains the simple trailing averages consumers publish next to the score
type TrailingStats struct {
	AvgPrice     float64 `json:"avg_price"`
	AvgVolume    float64 `json:"avg_volume"`
	VolumePerDay float64 `json:"volume_per_day"`
	DaysCounted  int     `json:"days_counted"`
}

// Params holds the scoring constants
type Params struct {
	WindowDays       int     `json:"window_days"`
	ZThreshold       float64 `json:"z_threshold"`        // |z| above this is an outlier
	StdDevFloor      float64 `json:"std_dev_floor"`      // Substituted when all prices are equal
	MinSamples       int     `json:"min_samples"`        // Below this volume and stability score 0
	VolumeNormalizer float64 `json:"volume_normalizer"`  // Average volume that saturates the volume term
	FrequencyWeight  float64 `json:"frequency_weight"`   // Points per observation
	VolumeWeight     float64 `json:"volume_weight"`      // Points for a saturated volume term
	StabilityWeight  float64 `json:"stability_weight"`   // Points for a perfectly stable price
}

// DefaultParams returns the reference scoring constants
func DefaultParams() Params {
	return Params{
		WindowDays:       Window90.Days(),
		ZThreshold:       DefaultZThreshold,
		StdDevFloor:      DefaultStdDevFloor,
		MinSamples:       DefaultMinSamples,
		VolumeNormalizer: DefaultVolumeNormalizer,
		FrequencyWeight:  66.0 / 89.0,
		VolumeWeight:     26,
		StabilityWeight:  8,
	}
}

// Constants for default values
const (
	DefaultZThreshold       = 3.0
	DefaultStdDevFloor      = 0.01
	DefaultMinSamples       = 20
	DefaultVolumeNormalizer = 20.0

	// MaxScore bounds the final liquidity value
	MaxScore = 100.0
)
