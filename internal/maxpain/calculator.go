package maxpain

import (
	"fmt"
	"math"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
)

// CalculateMaxPain finds the settlement price that would minimize the total
// cash paid out by option writers across every strike in the chain. Only
// contracts with open interest participate; the input slice is not modified.
// Pass currentPrice <= 0 when no reference price is available, in which case
// the distance fields of the result stay nil.
func CalculateMaxPain(contracts []OptionContract, currentPrice float64) (*MaxPainResult, error) {
	if len(contracts) == 0 {
		return nil, fmt.Errorf("CalculateMaxPain: %w", ErrNoOptionsData)
	}

	liquid := make([]OptionContract, 0, len(contracts))
	for _, c := range contracts {
		if c.OpenInterest > 0 {
			liquid = append(liquid, c)
		}
	}
	if len(liquid) == 0 {
		return nil, fmt.Errorf("CalculateMaxPain: %w", ErrNoOpenInterest)
	}

	var calls, puts []OptionContract
	var totalCallOI, totalPutOI int64
	for _, c := range liquid {
		switch c.ContractType {
		case Call:
			calls = append(calls, c)
			totalCallOI += c.OpenInterest
		case Put:
			puts = append(puts, c)
			totalPutOI += c.OpenInterest
		}
	}

	strikes := distinctStrikes(liquid)

	painPoints := make([]PainPoint, 0, len(strikes))
	for _, strike := range strikes {
		painPoints = append(painPoints, PainPoint{
			Strike: strike,
			Pain:   callPainAt(calls, strike) + putPainAt(puts, strike),
		})
	}

	// strict < keeps the lowest strike on a tie
	minIdx := 0
	for i := 1; i < len(painPoints); i++ {
		if painPoints[i].Pain < painPoints[minIdx].Pain {
			minIdx = i
		}
	}
	maxPainPrice := painPoints[minIdx].Strike

	result := &MaxPainResult{
		MaxPainPrice:           maxPainPrice,
		PutCallRatio:           putCallRatio(totalPutOI, totalCallOI),
		TotalPutOI:             totalPutOI,
		TotalCallOI:            totalCallOI,
		NearbyStrikes:          nearbyStrikes(painPoints, minIdx),
		TotalContractsAnalyzed: len(liquid),
		CalculationTime:        time.Now(),
	}

	if currentPrice > 0 {
		distance := math.Abs(currentPrice - maxPainPrice)
		percentage := (maxPainPrice - currentPrice) / currentPrice * 100
		result.CurrentStockPrice = &currentPrice
		result.DistanceFromCurrent = &distance
		result.PercentageFromCurrent = &percentage
	}

	return result, nil
}

// CalculateMaxPainByExpiration groups the chain by expiration date and runs
// the calculation once per group. A group that fails to calculate is logged
// and skipped; the remaining expirations still produce results.
func CalculateMaxPainByExpiration(contracts []OptionContract, currentPrice float64) (map[string]*MaxPainResult, error) {
	if len(contracts) == 0 {
		return nil, fmt.Errorf("CalculateMaxPainByExpiration: %w", ErrNoOptionsData)
	}

	results := make(map[string]*MaxPainResult)
	for expiration, group := range groupByExpiration(contracts) {
		res, err := CalculateMaxPain(group, currentPrice)
		if err != nil {
			log.Warnf("skipping expiration %s: %v", expiration, err)
			continue
		}
		res.ExpirationDate = expiration
		results[expiration] = res
	}
	return results, nil
}

// SelectNearestLiquidExpiration returns the earliest expiration on or after
// now whose total open interest exceeds minTotalOI.
func SelectNearestLiquidExpiration(contracts []OptionContract, now time.Time, minTotalOI int64) (time.Time, error) {
	if len(contracts) == 0 {
		return time.Time{}, fmt.Errorf("SelectNearestLiquidExpiration: %w", ErrNoOptionsData)
	}

	totals := make(map[string]int64)
	dates := make(map[string]time.Time)
	for _, c := range contracts {
		if DaysUntil(now, c.ExpirationDate) < 0 {
			continue
		}
		key := c.ExpirationDate.Format(ExpirationDateLayout)
		totals[key] += c.OpenInterest
		if _, ok := dates[key]; !ok {
			dates[key] = c.ExpirationDate
		}
	}

	var nearest time.Time
	for key, total := range totals {
		if total <= minTotalOI {
			continue
		}
		if exp := dates[key]; nearest.IsZero() || exp.Before(nearest) {
			nearest = exp
		}
	}
	if nearest.IsZero() {
		return time.Time{}, fmt.Errorf("SelectNearestLiquidExpiration: no expiration with total open interest above %d: %w", minTotalOI, ErrNoSuitableExpiration)
	}
	return nearest, nil
}

// CalculateNearestExpirationMaxPain runs the calculation on the nearest
// liquid expiration only and stamps the result with that expiration.
func CalculateNearestExpirationMaxPain(contracts []OptionContract, currentPrice float64, now time.Time, minTotalOI int64) (*MaxPainResult, error) {
	expiration, err := SelectNearestLiquidExpiration(contracts, now, minTotalOI)
	if err != nil {
		return nil, fmt.Errorf("CalculateNearestExpirationMaxPain: %w", err)
	}

	group := make([]OptionContract, 0, len(contracts))
	for _, c := range contracts {
		if sameDay(c.ExpirationDate, expiration) {
			group = append(group, c)
		}
	}

	result, err := CalculateMaxPain(group, currentPrice)
	if err != nil {
		return nil, fmt.Errorf("CalculateNearestExpirationMaxPain: %w", err)
	}
	AttachExpiration(result, expiration, now)
	return result, nil
}

// AttachExpiration stamps a result with the expiration it was calculated for
// and the days remaining until it.
func AttachExpiration(result *MaxPainResult, expiration, now time.Time) {
	days := DaysUntil(now, expiration)
	result.ExpirationDate = expiration.Format(ExpirationDateLayout)
	result.DaysToExpiration = &days
}

func groupByExpiration(contracts []OptionContract) map[string][]OptionContract {
	groups := make(map[string][]OptionContract)
	for _, c := range contracts {
		key := c.ExpirationDate.Format(ExpirationDateLayout)
		groups[key] = append(groups[key], c)
	}
	return groups
}

func distinctStrikes(contracts []OptionContract) []float64 {
	seen := make(map[float64]struct{}, len(contracts))
	strikes := make([]float64, 0, len(contracts))
	for _, c := range contracts {
		if _, ok := seen[c.StrikePrice]; ok {
			continue
		}
		seen[c.StrikePrice] = struct{}{}
		strikes = append(strikes, c.StrikePrice)
	}
	sort.Float64s(strikes)
	return strikes
}

// callPainAt is the cash owed by call writers at the given settlement:
// every call struck below it finishes in the money by the difference.
func callPainAt(calls []OptionContract, settlement float64) float64 {
	var pain float64
	for _, c := range calls {
		if c.StrikePrice < settlement {
			pain += (settlement - c.StrikePrice) * float64(c.OpenInterest) * ContractMultiplier
		}
	}
	return pain
}

func putPainAt(puts []OptionContract, settlement float64) float64 {
	var pain float64
	for _, p := range puts {
		if p.StrikePrice > settlement {
			pain += (p.StrikePrice - settlement) * float64(p.OpenInterest) * ContractMultiplier
		}
	}
	return pain
}

func putCallRatio(putOI, callOI int64) float64 {
	if callOI == 0 {
		return 0
	}
	return math.Round(float64(putOI)/float64(callOI)*1000) / 1000
}

// nearbyStrikes cuts a window of up to five pain points around the max pain
// strike, two below and two above where available.
func nearbyStrikes(painPoints []PainPoint, minIdx int) []PainPoint {
	lo := minIdx - 2
	if lo < 0 {
		lo = 0
	}
	hi := minIdx + 3
	if hi > len(painPoints) {
		hi = len(painPoints)
	}
	window := make([]PainPoint, hi-lo)
	copy(window, painPoints[lo:hi])
	window[minIdx-lo].IsMaxPain = true
	return window
}
