package data

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Rumble43/Max-Pain-Calculator/internal/maxpain"
	"github.com/Rumble43/Max-Pain-Calculator/internal/pricing"
)

const (
	demoSpotPrice    = 450.0
	demoRiskFreeRate = 0.045
	demoVolatility   = 0.18
)

// DemoProvider implements Provider with a synthetic options chain so the
// pipeline can run without an API key. Open interest is skewed in the money
// and concentrated around a handful of strikes on the front expiration,
// which gives the chain a realistic max pain shape.
type DemoProvider struct {
	spot float64

	mu     sync.Mutex
	rng    *rand.Rand
	chains map[string][]maxpain.OptionContract
}

// NewDemoProvider seeds the generator. A zero seed falls back to the clock;
// fix the seed for reproducible chains.
func NewDemoProvider(seed int64) *DemoProvider {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &DemoProvider{
		spot:   demoSpotPrice,
		rng:    rand.New(rand.NewSource(seed)),
		chains: make(map[string][]maxpain.OptionContract),
	}
}

func (d *DemoProvider) GetCurrentPrice(ctx context.Context, ticker string) (float64, error) {
	return d.spot, nil
}

func (d *DemoProvider) GetOptionChainSnapshot(ctx context.Context, ticker string, expiration time.Time) ([]maxpain.OptionContract, error) {
	chain := d.chain(ticker, time.Now())
	out := make([]maxpain.OptionContract, 0, len(chain))
	for _, c := range chain {
		if c.OpenInterest <= 0 {
			continue
		}
		if !expiration.IsZero() && !sameExpiration(c.ExpirationDate, expiration) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (d *DemoProvider) GetNearestExpirationSnapshot(ctx context.Context, ticker string) (time.Time, []maxpain.OptionContract, error) {
	now := time.Now()
	chain := d.chain(ticker, now)

	expiration, err := maxpain.SelectNearestLiquidExpiration(chain, now, 0)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("GetNearestExpirationSnapshot: %w", err)
	}
	contracts, err := d.GetOptionChainSnapshot(ctx, ticker, expiration)
	if err != nil {
		return time.Time{}, nil, err
	}
	return expiration, contracts, nil
}

// chain generates and caches one chain per ticker per calendar day, so
// repeated runs within a day see consistent data.
func (d *DemoProvider) chain(ticker string, now time.Time) []maxpain.OptionContract {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := ticker + "/" + now.Format(maxpain.ExpirationDateLayout)
	if chain, ok := d.chains[key]; ok {
		return chain
	}
	chain := d.generateChain(ticker, now)
	d.chains[key] = chain
	log.Infof("generated %d synthetic contracts for %s", len(chain), ticker)
	return chain
}

func (d *DemoProvider) generateChain(ticker string, now time.Time) []maxpain.OptionContract {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	expirations := demoExpirations(today)

	interval := strikeInterval(d.spot)
	minStrike := math.Floor(d.spot*0.9/interval) * interval
	maxStrike := math.Floor(d.spot*1.1/interval) * interval

	var chain []maxpain.OptionContract
	for _, expiration := range expirations {
		yearsToExpiry := float64(maxpain.DaysUntil(today, expiration)) / 365.0
		for strike := minStrike; strike <= maxStrike+1e-9; strike += interval {
			chain = append(chain,
				d.contract(ticker, maxpain.Call, strike, expiration, yearsToExpiry),
				d.contract(ticker, maxpain.Put, strike, expiration, yearsToExpiry),
			)
		}
	}

	d.concentrateKeyStrikes(chain, expirations[0], interval)
	return chain
}

func (d *DemoProvider) contract(ticker string, typ maxpain.OptionType, strike float64, expiration time.Time, yearsToExpiry float64) maxpain.OptionContract {
	oi := d.openInterest(typ, strike)

	price := pricing.BlackScholesPrice(typ == maxpain.Call, d.spot, strike, yearsToExpiry, demoRiskFreeRate, demoVolatility)
	if price < 0.01 {
		price = 0.01
	}

	var volume int64
	if oi > 0 {
		volume = int64(d.rng.Intn(int(oi/2) + 1))
	}

	return maxpain.OptionContract{
		ContractTicker: OptionSymbolFromParts(ticker, expiration, typ, strike),
		ContractType:   typ,
		StrikePrice:    strike,
		ExpirationDate: expiration,
		OpenInterest:   oi,
		Volume:         volume,
		LastPrice:      math.Round(price*100) / 100,
	}
}

// openInterest skews contracts in the money: calls pile up below the spot,
// puts above it, with puts running about 20% heavier overall.
func (d *DemoProvider) openInterest(typ maxpain.OptionType, strike float64) int64 {
	base := float64(500 + d.rng.Intn(4501))
	distance := math.Abs(strike-d.spot) / d.spot

	inTheMoney := strike < d.spot
	if typ == maxpain.Put {
		inTheMoney = strike > d.spot
	}
	if inTheMoney {
		base *= 1 + distance
	} else {
		base *= math.Max(0.1, 1-2*distance)
	}
	if typ == maxpain.Put {
		base *= 1.2
	}

	oi := int64(base) + int64(d.rng.Intn(401)) - 200
	if oi < 0 {
		oi = 0
	}
	return oi
}

// concentrateKeyStrikes piles extra open interest onto the at-the-money
// strikes of the front expiration.
func (d *DemoProvider) concentrateKeyStrikes(chain []maxpain.OptionContract, front time.Time, interval float64) {
	keyStrikes := map[float64]struct{}{
		math.Round(d.spot/interval) * interval:     {},
		math.Round((d.spot-5)/interval) * interval: {},
		math.Round((d.spot+5)/interval) * interval: {},
	}
	for i := range chain {
		if !sameExpiration(chain[i].ExpirationDate, front) {
			continue
		}
		if _, ok := keyStrikes[chain[i].StrikePrice]; !ok {
			continue
		}
		factor := 1.5 + d.rng.Float64()
		chain[i].OpenInterest = int64(float64(chain[i].OpenInterest) * factor)
	}
}

// demoExpirations returns the next four weekly (Friday) expirations plus
// three monthlies, starting from today.
func demoExpirations(today time.Time) []time.Time {
	daysToFriday := (int(time.Friday) - int(today.Weekday()) + 7) % 7
	expirations := make([]time.Time, 0, 7)
	for week := 0; week < 4; week++ {
		expirations = append(expirations, today.AddDate(0, 0, daysToFriday+7*week))
	}
	for month := 1; month <= 3; month++ {
		expirations = append(expirations, today.AddDate(0, 0, 30*month))
	}
	return expirations
}

func strikeInterval(price float64) float64 {
	switch {
	case price < 100:
		return 1
	case price < 500:
		return 5
	default:
		return 10
	}
}

func sameExpiration(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
