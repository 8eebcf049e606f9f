package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/Rumble43/Max-Pain-Calculator/internal/maxpain"
)

// SummaryRow is one line of the per-ticker history CSV.
type SummaryRow struct {
	Date              string   `csv:"date"`
	Ticker            string   `csv:"ticker"`
	CurrentPrice      float64  `csv:"current_price"`
	ExpirationDate    string   `csv:"expiration_date"`
	DaysToExpiration  int      `csv:"days_to_expiration"`
	MaxPainPrice      float64  `csv:"max_pain_price"`
	DistanceDollars   *float64 `csv:"distance_dollars,omitempty"`
	DistancePercent   *float64 `csv:"distance_percent,omitempty"`
	PutCallRatio      float64  `csv:"put_call_ratio"`
	TotalPutOI        int64    `csv:"total_put_oi"`
	TotalCallOI       int64    `csv:"total_call_oi"`
	ContractsAnalyzed int      `csv:"contracts_analyzed"`
}

func NewSummaryRow(ticker string, result *maxpain.MaxPainResult) *SummaryRow {
	row := &SummaryRow{
		Date:              result.CalculationTime.Format(timestampLayout),
		Ticker:            strings.ToUpper(ticker),
		ExpirationDate:    result.ExpirationDate,
		MaxPainPrice:      result.MaxPainPrice,
		DistanceDollars:   result.DistanceFromCurrent,
		DistancePercent:   result.PercentageFromCurrent,
		PutCallRatio:      result.PutCallRatio,
		TotalPutOI:        result.TotalPutOI,
		TotalCallOI:       result.TotalCallOI,
		ContractsAnalyzed: result.TotalContractsAnalyzed,
	}
	if result.CurrentStockPrice != nil {
		row.CurrentPrice = *result.CurrentStockPrice
	}
	if result.DaysToExpiration != nil {
		row.DaysToExpiration = *result.DaysToExpiration
	}
	return row
}

// Time parses the row timestamp.
func (r *SummaryRow) Time() (time.Time, error) {
	return time.Parse(timestampLayout, r.Date)
}

// TrendSummary aggregates history rows into the figures the report prints.
type TrendSummary struct {
	Days                  int
	Samples               int
	AvgMaxPain            float64
	AvgDistancePercent    float64
	StdDevDistancePercent float64
	AvgPutCallRatio       float64
}

// ComputeTrend summarizes history rows. Returns nil when there is nothing
// to summarize. Rows without a distance percentage still count toward the
// other averages.
func ComputeTrend(rows []*SummaryRow, days int) (*TrendSummary, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	maxPains := make([]float64, 0, len(rows))
	ratios := make([]float64, 0, len(rows))
	distances := make([]float64, 0, len(rows))
	for _, row := range rows {
		maxPains = append(maxPains, row.MaxPainPrice)
		ratios = append(ratios, row.PutCallRatio)
		if row.DistancePercent != nil {
			distances = append(distances, *row.DistancePercent)
		}
	}

	avgMaxPain, err := stats.Mean(maxPains)
	if err != nil {
		return nil, fmt.Errorf("ComputeTrend: %w", err)
	}
	avgRatio, err := stats.Mean(ratios)
	if err != nil {
		return nil, fmt.Errorf("ComputeTrend: %w", err)
	}

	trend := &TrendSummary{
		Days:            days,
		Samples:         len(rows),
		AvgMaxPain:      avgMaxPain,
		AvgPutCallRatio: avgRatio,
	}

	if len(distances) > 0 {
		avgDistance, err := stats.Mean(distances)
		if err != nil {
			return nil, fmt.Errorf("ComputeTrend: %w", err)
		}
		stdDev, err := stats.StandardDeviation(distances)
		if err != nil {
			return nil, fmt.Errorf("ComputeTrend: %w", err)
		}
		trend.AvgDistancePercent = avgDistance
		trend.StdDevDistancePercent = stdDev
	}

	return trend, nil
}
