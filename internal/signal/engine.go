// Package signal derives entry, stop-loss and take-profit levels from a
// reference price and its simple moving average.
package signal

import (
	"errors"
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"
)

// DefaultPeriod is the SMA look-back used when none is configured
const DefaultPeriod = 14

// ErrNoPrices is returned when no source produced a price
var ErrNoPrices = errors.New("no price available from any source")

// Bias is the directional read of price against its SMA
type Bias string

const (
	Bullish Bias = "bullish"
	Bearish Bias = "bearish"
	// Fallback is used when history is too short for an SMA; it trades like Bullish
	Fallback Bias = "fallback"
)

// Level multipliers applied to the reference price
const (
	bullishEntry      = 1.005
	bullishStopLoss   = 0.98
	bullishTakeProfit = 1.03

	bearishEntry      = 0.995
	bearishStopLoss   = 1.02
	bearishTakeProfit = 0.97
)

const fallbackRationale = "Using available average price; historical SMA data is insufficient."

// Levels is a trade suggestion at full precision
type Levels struct {
	Bias       Bias
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	Rationale  string
}

// Result is everything computed for one request
type Result struct {
	Price       float64
	SMA         *float64
	DiffPercent *float64
	Levels      Levels
}

// Engine computes signals with a fixed SMA period
type Engine struct {
	period int
}

// NewEngine creates an engine; a non-positive period selects DefaultPeriod
func NewEngine(period int) *Engine {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Engine{period: period}
}

// Period returns the SMA look-back
func (e *Engine) Period() int {
	return e.period
}

// Compute derives the signal from two optional source prices and a price history
func (e *Engine) Compute(primary, secondary *float64, history []float64) (*Result, error) {
	price, err := ReferencePrice(primary, secondary)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Price:       price,
		DiffPercent: DiffPercent(primary, secondary),
	}

	if sma, ok := SMA(history, e.period); ok {
		if sma == 0 {
			sma = price
		}
		res.SMA = &sma
		res.Levels = e.Levels(price, &sma)
	} else {
		res.Levels = e.Levels(price, nil)
	}

	return res, nil
}

// Levels derives the trade levels for a price; a nil sma selects the fallback
func (e *Engine) Levels(price float64, sma *float64) Levels {
	switch {
	case sma == nil:
		return Levels{
			Bias:       Fallback,
			Entry:      price * bullishEntry,
			StopLoss:   price * bullishStopLoss,
			TakeProfit: price * bullishTakeProfit,
			Rationale:  fallbackRationale,
		}
	case price > *sma:
		return Levels{
			Bias:       Bullish,
			Entry:      price * bullishEntry,
			StopLoss:   price * bullishStopLoss,
			TakeProfit: price * bullishTakeProfit,
			Rationale:  fmt.Sprintf("Bullish momentum: average price is above the %d-period SMA.", e.period),
		}
	default:
		return Levels{
			Bias:       Bearish,
			Entry:      price * bearishEntry,
			StopLoss:   price * bearishStopLoss,
			TakeProfit: price * bearishTakeProfit,
			Rationale:  fmt.Sprintf("Bearish momentum: average price is below the %d-period SMA.", e.period),
		}
	}
}

// ReferencePrice averages the present prices
func ReferencePrice(primary, secondary *float64) (float64, error) {
	switch {
	case primary != nil && secondary != nil:
		return (*primary + *secondary) / 2, nil
	case primary != nil:
		return *primary, nil
	case secondary != nil:
		return *secondary, nil
	default:
		return 0, ErrNoPrices
	}
}

// DiffPercent is |primary-secondary| / secondary * 100, nil unless both are present
func DiffPercent(primary, secondary *float64) *float64 {
	if primary == nil || secondary == nil || *secondary == 0 {
		return nil
	}
	diff := math.Abs((*primary-*secondary) / *secondary) * 100
	return &diff
}

// SMA returns the latest value of the trailing simple moving average
func SMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	series := talib.Sma(values, period)
	return series[len(series)-1], true
}

// FormatPrice renders a value with two decimals for presentation. It rounds
// the exact binary value, not its shortest decimal form, so 2.675 gives "2.67".
func FormatPrice(v float64) string {
	return decimal.NewFromFloatWithExponent(v, -2).StringFixed(2)
}
