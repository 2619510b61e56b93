package domain

// CoinPrice is the USD quote for one coin id.
type CoinPrice struct {
	USD          float64 `json:"usd"`
	USD24hChange float64 `json:"usd_24h_change"`
}

type Prices map[string]CoinPrice
