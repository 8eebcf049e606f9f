// Package scheduler drives the calculation pipeline: fetch, calculate,
// persist, report. It runs once on demand or daily at a configured wall
// clock time.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Rumble43/Max-Pain-Calculator/internal/config"
	"github.com/Rumble43/Max-Pain-Calculator/internal/data"
	"github.com/Rumble43/Max-Pain-Calculator/internal/maxpain"
	"github.com/Rumble43/Max-Pain-Calculator/internal/report"
	"github.com/Rumble43/Max-Pain-Calculator/internal/store"
)

const tickInterval = time.Minute

// RunResult bundles everything one pipeline run produced.
type RunResult struct {
	RunID      uuid.UUID
	Ticker     string
	Result     *maxpain.MaxPainResult
	Report     string
	ResultPath string
	ReportPath string
}

type Scheduler struct {
	cfg       *config.Config
	provider  data.Provider
	store     *store.Store
	loc       *time.Location
	runHour   int
	runMinute int
	now       func() time.Time

	mu sync.Mutex
}

func New(cfg *config.Config, provider data.Provider, st *store.Store) (*Scheduler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("New: %w", err)
	}
	at, err := time.Parse("15:04", cfg.RunAt)
	if err != nil {
		return nil, fmt.Errorf("New: invalid run time %q: %w", cfg.RunAt, err)
	}
	return &Scheduler{
		cfg:       cfg,
		provider:  provider,
		store:     st,
		loc:       loc,
		runHour:   at.Hour(),
		runMinute: at.Minute(),
		now:       time.Now,
	}, nil
}

// IsMarketDay reports whether the exchange trades on the given day in the
// configured market timezone. Weekends only; exchange holidays still run.
func (s *Scheduler) IsMarketDay(now time.Time) bool {
	switch now.In(s.loc).Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}

// RunOnce executes the full pipeline for the configured ticker: current
// price, nearest expiration snapshot, max pain, persistence, report. When
// the fast scan's expiration carries too little open interest, the whole
// chain is fetched and the nearest liquid expiration picked instead. It
// returns nil without error on non-market days and when no usable options
// data comes back.
func (s *Scheduler) RunOnce(ctx context.Context) (*RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !s.IsMarketDay(now) {
		log.Infof("%s is not a market day, skipping calculation", now.In(s.loc).Format("2006-01-02"))
		return nil, nil
	}

	runID := uuid.New()
	ticker := s.cfg.Ticker
	logger := log.WithFields(log.Fields{"run_id": runID, "ticker": ticker})

	logger.Infof("starting max pain calculation")

	price, err := s.provider.GetCurrentPrice(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("RunOnce: %w", err)
	}
	logger.Infof("current price: $%.2f", price)

	expiration, contracts, err := s.provider.GetNearestExpirationSnapshot(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("RunOnce: %w", err)
	}

	var result *maxpain.MaxPainResult
	if total := totalOpenInterest(contracts); total > s.cfg.MinExpirationOI {
		result, err = maxpain.CalculateMaxPain(contracts, price)
		if err != nil {
			return nil, fmt.Errorf("RunOnce: %w", err)
		}
		maxpain.AttachExpiration(result, expiration, now)
	} else {
		if len(contracts) == 0 {
			logger.Warnf("fast chain scan found no usable contracts, scanning the full chain")
		} else {
			logger.Warnf("nearest expiration %s has only %d total open interest, scanning the full chain",
				expiration.Format(maxpain.ExpirationDateLayout), total)
		}

		chain, err := s.provider.GetOptionChainSnapshot(ctx, ticker, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("RunOnce: %w", err)
		}
		if len(chain) == 0 {
			logger.Warnf("no options data retrieved, skipping calculation")
			return nil, nil
		}
		result, err = maxpain.CalculateNearestExpirationMaxPain(chain, price, now, s.cfg.MinExpirationOI)
		if err != nil {
			return nil, fmt.Errorf("RunOnce: %w", err)
		}
	}

	return s.finish(logger, runID, ticker, result)
}

// RunForExpiration runs the pipeline against one explicit expiration date
// instead of the nearest one. Market day gating does not apply.
func (s *Scheduler) RunForExpiration(ctx context.Context, expiration time.Time) (*RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.New()
	ticker := s.cfg.Ticker
	logger := log.WithFields(log.Fields{"run_id": runID, "ticker": ticker})

	price, err := s.provider.GetCurrentPrice(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("RunForExpiration: %w", err)
	}

	contracts, err := s.provider.GetOptionChainSnapshot(ctx, ticker, expiration)
	if err != nil {
		return nil, fmt.Errorf("RunForExpiration: %w", err)
	}
	if len(contracts) == 0 {
		logger.Warnf("no contracts for expiration %s", expiration.Format(maxpain.ExpirationDateLayout))
		return nil, nil
	}

	result, err := maxpain.CalculateMaxPain(contracts, price)
	if err != nil {
		return nil, fmt.Errorf("RunForExpiration: %w", err)
	}
	maxpain.AttachExpiration(result, expiration, s.now())

	return s.finish(logger, runID, ticker, result)
}

// RunAllExpirations calculates every expiration in the chain and renders
// the comparison table. Nothing is persisted; the stores key one result per
// ticker per day.
func (s *Scheduler) RunAllExpirations(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticker := s.cfg.Ticker

	price, err := s.provider.GetCurrentPrice(ctx, ticker)
	if err != nil {
		return "", fmt.Errorf("RunAllExpirations: %w", err)
	}
	contracts, err := s.provider.GetOptionChainSnapshot(ctx, ticker, time.Time{})
	if err != nil {
		return "", fmt.Errorf("RunAllExpirations: %w", err)
	}
	results, err := maxpain.CalculateMaxPainByExpiration(contracts, price)
	if err != nil {
		return "", fmt.Errorf("RunAllExpirations: %w", err)
	}
	log.Infof("calculated %d expirations for %s", len(results), ticker)

	return report.GenerateByExpiration(ticker, results), nil
}

// Run blocks, firing RunOnce once per day at the configured wall clock time
// in the market timezone. The loop keeps going when a scheduled run fails.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Infof("scheduler started, daily run at %s %s, next run at %s",
		s.cfg.RunAt, s.cfg.MarketTimezone, s.NextRun(s.now()).Format("2006-01-02 15:04 MST"))

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	var lastRunDay string
	for {
		select {
		case now := <-ticker.C:
			local := now.In(s.loc)
			if !s.runDue(local) {
				continue
			}
			day := local.Format("2006-01-02")
			if day == lastRunDay {
				continue
			}
			lastRunDay = day

			if _, err := s.RunOnce(ctx); err != nil {
				log.Errorf("scheduled run failed: %v", err)
			}

		case <-ctx.Done():
			log.Infof("scheduler stopped")
			return ctx.Err()
		}
	}
}

// runDue reports whether the local wall clock sits in the configured run
// minute.
func (s *Scheduler) runDue(local time.Time) bool {
	return local.Hour() == s.runHour && local.Minute() == s.runMinute
}

// NextRun returns the next scheduled run time strictly after now.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	local := now.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.runHour, s.runMinute, 0, 0, s.loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *Scheduler) finish(logger *log.Entry, runID uuid.UUID, ticker string, result *maxpain.MaxPainResult) (*RunResult, error) {
	resultPath, err := s.store.SaveResult(ticker, result)
	if err != nil {
		return nil, fmt.Errorf("finish: %w", err)
	}
	if err := s.store.AppendSummary(ticker, result); err != nil {
		return nil, fmt.Errorf("finish: %w", err)
	}

	trend, err := s.loadTrend(ticker)
	if err != nil {
		logger.Warnf("trend unavailable: %v", err)
	}

	text := report.Generate(ticker, result, trend)
	reportPath, err := s.store.SaveReport(ticker, result.CalculationTime, text)
	if err != nil {
		return nil, fmt.Errorf("finish: %w", err)
	}

	logger.Infof("max pain at $%.2f, results in %s", result.MaxPainPrice, resultPath)

	return &RunResult{
		RunID:      runID,
		Ticker:     ticker,
		Result:     result,
		Report:     text,
		ResultPath: resultPath,
		ReportPath: reportPath,
	}, nil
}

func (s *Scheduler) loadTrend(ticker string) (*store.TrendSummary, error) {
	rows, err := s.store.LoadHistory(ticker, s.cfg.HistoryDays)
	if err != nil {
		return nil, err
	}
	return store.ComputeTrend(rows, s.cfg.HistoryDays)
}

func totalOpenInterest(contracts []maxpain.OptionContract) int64 {
	var total int64
	for _, c := range contracts {
		total += c.OpenInterest
	}
	return total
}
