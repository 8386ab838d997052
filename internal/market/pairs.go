package market

import (
	"errors"
	"sort"
	"strings"
)

// ErrUnsupportedPair is returned when a source has no id for a pair
var ErrUnsupportedPair = errors.New("unsupported trading pair")

// Pair holds the per-source identifiers of a trading pair
type Pair struct {
	Symbol      string
	CoinGeckoID string
	GeminiID    string
	// HasHistory marks pairs wired to the hourly history endpoint
	HasHistory bool
}

var pairs = map[string]Pair{
	"BTCUSDT": {Symbol: "BTCUSDT", CoinGeckoID: "bitcoin", GeminiID: "btcusd", HasHistory: true},
	"TRXUSDT": {Symbol: "TRXUSDT", CoinGeckoID: "tron", GeminiID: "trxusd"},
	"XRPUSDT": {Symbol: "XRPUSDT", CoinGeckoID: "ripple", GeminiID: "xrpusd"},
	"TONUSDT": {Symbol: "TONUSDT", CoinGeckoID: "toncoin", GeminiID: "tonusd"},
	"SUIUSDT": {Symbol: "SUIUSDT", CoinGeckoID: "sui", GeminiID: "suiusd"},
}

// Normalize trims and upper-cases a pair symbol
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Lookup returns the pair for a symbol, normalizing it first
func Lookup(symbol string) (Pair, bool) {
	p, ok := pairs[Normalize(symbol)]
	return p, ok
}

// Symbols returns the supported symbols in sorted order
func Symbols() []string {
	symbols := make([]string, 0, len(pairs))
	for s := range pairs {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
