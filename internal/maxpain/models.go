package maxpain

import (
	"fmt"
	"time"
)

// OptionType identifies the side of an option contract.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

func (o OptionType) Validate() error {
	if o != Call && o != Put {
		return fmt.Errorf("OptionType: Validate: invalid option type: %s", o)
	}
	return nil
}

// ContractMultiplier is the number of shares controlled by one standard
// equity option contract.
const ContractMultiplier = 100

// ExpirationDateLayout is the date format expirations are keyed and
// reported in.
const ExpirationDateLayout = "2006-01-02"

// OptionContract is one row of an options chain snapshot.
type OptionContract struct {
	ContractTicker string
	ContractType   OptionType
	StrikePrice    float64
	ExpirationDate time.Time
	OpenInterest   int64
	Volume         int64
	LastPrice      float64
}

func (c OptionContract) Validate() error {
	if err := c.ContractType.Validate(); err != nil {
		return fmt.Errorf("OptionContract: Validate: %w", err)
	}
	if c.StrikePrice <= 0 {
		return fmt.Errorf("OptionContract: Validate: strike must be positive, got %v", c.StrikePrice)
	}
	if c.ExpirationDate.IsZero() {
		return fmt.Errorf("OptionContract: Validate: missing expiration date")
	}
	if c.OpenInterest < 0 {
		return fmt.Errorf("OptionContract: Validate: negative open interest: %d", c.OpenInterest)
	}
	return nil
}

// PainPoint is the total writer payout if the underlying settles at Strike.
type PainPoint struct {
	Strike    float64 `json:"strike"`
	Pain      float64 `json:"pain"`
	IsMaxPain bool    `json:"is_max_pain"`
}

// MaxPainResult is the outcome of one max pain calculation. The reference
// price fields are nil when no usable current price was supplied, and the
// expiration fields are only set on results tied to a single expiration.
type MaxPainResult struct {
	MaxPainPrice           float64     `json:"max_pain_price"`
	CurrentStockPrice      *float64    `json:"current_stock_price"`
	DistanceFromCurrent    *float64    `json:"distance_from_current"`
	PercentageFromCurrent  *float64    `json:"percentage_from_current"`
	PutCallRatio           float64     `json:"put_call_ratio"`
	TotalPutOI             int64       `json:"total_put_oi"`
	TotalCallOI            int64       `json:"total_call_oi"`
	NearbyStrikes          []PainPoint `json:"nearby_strikes"`
	TotalContractsAnalyzed int         `json:"total_contracts_analyzed"`
	ExpirationDate         string      `json:"expiration_date,omitempty"`
	DaysToExpiration       *int        `json:"days_to_expiration,omitempty"`
	CalculationTime        time.Time   `json:"calculation_time"`
}

// DaysUntil counts whole calendar days from now to the expiration, ignoring
// the time of day on both sides. Expired dates come back negative.
func DaysUntil(now, expiration time.Time) int {
	a := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(expiration.Year(), expiration.Month(), expiration.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
