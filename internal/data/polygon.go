package data

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	log "github.com/sirupsen/logrus"

	"github.com/Rumble43/Max-Pain-Calculator/internal/maxpain"
)

const (
	// chainPageLimit is the per-page maximum the snapshot endpoint accepts.
	chainPageLimit = 250

	// fastScanMaxSnapshots caps how deep the nearest-expiration scan walks
	// into the chain.
	fastScanMaxSnapshots = 500

	// fastScanMinContracts is how many contracts of the target expiration
	// must be in hand before the scan may stop early.
	fastScanMinContracts = 50

	// priceLookbackDays bounds the daily aggregate fallback used when no
	// previous close is published.
	priceLookbackDays = 5
)

// PolygonProvider implements Provider on top of the Polygon REST API.
type PolygonProvider struct {
	client *polygon.Client
}

func NewPolygonProvider(apiKey string) *PolygonProvider {
	return &PolygonProvider{client: polygon.New(apiKey)}
}

// GetCurrentPrice fetches the previous close for the ticker, falling back to
// the most recent daily aggregate when no previous close is published.
func (p *PolygonProvider) GetCurrentPrice(ctx context.Context, ticker string) (float64, error) {
	prev, err := p.client.GetPreviousCloseAgg(ctx, models.GetPreviousCloseAggParams{
		Ticker: ticker,
	}.WithAdjusted(true))
	if err != nil {
		return 0, fmt.Errorf("GetCurrentPrice: previous close for %s: %v: %w", ticker, err, ErrPriceUnavailable)
	}
	if len(prev.Results) > 0 {
		return prev.Results[0].Close, nil
	}

	log.Debugf("no previous close for %s, trying daily aggregates", ticker)

	now := time.Now()
	aggs, err := p.client.GetAggs(ctx, &models.GetAggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(now.AddDate(0, 0, -priceLookbackDays)),
		To:         models.Millis(now),
	})
	if err != nil {
		return 0, fmt.Errorf("GetCurrentPrice: daily aggregates for %s: %v: %w", ticker, err, ErrPriceUnavailable)
	}
	if len(aggs.Results) > 0 {
		return aggs.Results[len(aggs.Results)-1].Close, nil
	}
	return 0, fmt.Errorf("GetCurrentPrice: no price data for %s: %w", ticker, ErrPriceUnavailable)
}

// GetOptionChainSnapshot streams the snapshot chain for the underlying. A
// non-zero expiration narrows the request to that date server side.
func (p *PolygonProvider) GetOptionChainSnapshot(ctx context.Context, ticker string, expiration time.Time) ([]maxpain.OptionContract, error) {
	params := models.ListOptionsChainParams{
		UnderlyingAsset: ticker,
	}.WithLimit(chainPageLimit)
	if !expiration.IsZero() {
		params = params.WithExpirationDate(models.EQ, models.Date(expiration))
	}

	var contracts []maxpain.OptionContract
	iter := p.client.ListOptionsChainSnapshot(ctx, params)
	for iter.Next() {
		c, ok := contractFromSnapshot(iter.Item())
		if !ok || c.OpenInterest <= 0 {
			continue
		}
		contracts = append(contracts, c)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("GetOptionChainSnapshot: chain for %s: %v: %w", ticker, err, ErrDataUnavailable)
	}

	log.Debugf("fetched %d contracts with open interest for %s", len(contracts), ticker)
	return contracts, nil
}

// GetNearestExpirationSnapshot walks the chain in expiration order, locks
// onto the first future expiration it sees, and stops early once enough of
// that group is in hand. It avoids paging through the whole chain on every
// run.
func (p *PolygonProvider) GetNearestExpirationSnapshot(ctx context.Context, ticker string) (time.Time, []maxpain.OptionContract, error) {
	params := models.ListOptionsChainParams{
		UnderlyingAsset: ticker,
	}.WithLimit(chainPageLimit)

	var (
		nearest    time.Time
		nearestKey string
		contracts  []maxpain.OptionContract
		seen       = map[string]struct{}{}
		scanned    int
	)

	now := time.Now()
	iter := p.client.ListOptionsChainSnapshot(ctx, params)
	for iter.Next() {
		scanned++
		if scanned > fastScanMaxSnapshots {
			log.Debugf("chain scan for %s hit the %d snapshot cap", ticker, fastScanMaxSnapshots)
			break
		}

		snap := iter.Item()
		expiration := time.Time(snap.Details.ExpirationDate)
		if maxpain.DaysUntil(now, expiration) < 0 {
			continue
		}
		key := expiration.Format(maxpain.ExpirationDateLayout)
		seen[key] = struct{}{}

		if nearest.IsZero() {
			nearest = expiration
			nearestKey = key
			log.Infof("nearest expiration for %s: %s", ticker, key)
		}

		if key == nearestKey {
			if c, ok := contractFromSnapshot(snap); ok && c.OpenInterest > 0 {
				contracts = append(contracts, c)
			}
		} else if len(seen) > 1 && len(contracts) > fastScanMinContracts {
			log.Debugf("stopping chain scan for %s after %d snapshots", ticker, scanned)
			break
		}
	}
	if err := iter.Err(); err != nil {
		return time.Time{}, nil, fmt.Errorf("GetNearestExpirationSnapshot: chain for %s: %v: %w", ticker, err, ErrDataUnavailable)
	}

	return nearest, contracts, nil
}

func contractFromSnapshot(snap models.OptionContractSnapshot) (maxpain.OptionContract, bool) {
	c := maxpain.OptionContract{
		ContractTicker: snap.Details.Ticker,
		ContractType:   maxpain.OptionType(snap.Details.ContractType),
		StrikePrice:    snap.Details.StrikePrice,
		ExpirationDate: time.Time(snap.Details.ExpirationDate),
		OpenInterest:   int64(snap.OpenInterest),
		Volume:         int64(snap.Day.Volume),
		LastPrice:      snap.Day.Close,
	}
	if err := c.Validate(); err != nil {
		log.Debugf("skipping snapshot %s: %v", snap.Details.Ticker, err)
		return maxpain.OptionContract{}, false
	}
	return c, true
}
