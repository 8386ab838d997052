package model

// SignalRequest is the body of a trading signal request
type SignalRequest struct {
	Pair string `json:"pair" binding:"required"`
}

// SignalLevels holds the suggested trade levels as 2-decimal strings
type SignalLevels struct {
	Entry      string `json:"entry"`
	StopLoss   string `json:"stopLoss"`
	TakeProfit string `json:"takeProfit"`
	Rationale  string `json:"rationale"`
}

// SignalResponse is returned for a successfully computed signal.
// Source prices are null when the source was unavailable.
type SignalResponse struct {
	Success        bool         `json:"success"`
	Pair           string       `json:"pair"`
	CoinGeckoPrice *float64     `json:"coingeckoPrice"`
	GeminiPrice    *float64     `json:"geminiPrice"`
	AveragePrice   string       `json:"averagePrice"`
	CurrentSMA     string       `json:"currentSMA"`
	DiffPercent    string       `json:"diffPercent"`
	Signal         SignalLevels `json:"signal"`
	UTCTime        string       `json:"utcTime"`
}

// ErrorResponse is the error body of the signal endpoint
type ErrorResponse struct {
	Error string `json:"error"`
}
