package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rumble43/Max-Pain-Calculator/internal/maxpain"
	"github.com/Rumble43/Max-Pain-Calculator/internal/store"
)

func reportFixture() *maxpain.MaxPainResult {
	price := 452.30
	distance := 2.30
	percent := -0.51
	days := 1
	return &maxpain.MaxPainResult{
		MaxPainPrice:          450,
		CurrentStockPrice:     &price,
		DistanceFromCurrent:   &distance,
		PercentageFromCurrent: &percent,
		PutCallRatio:          1.15,
		TotalPutOI:            130000,
		TotalCallOI:           113000,
		NearbyStrikes: []maxpain.PainPoint{
			{Strike: 445, Pain: 9500000},
			{Strike: 450, Pain: 8100000, IsMaxPain: true},
			{Strike: 455, Pain: 9900000},
		},
		TotalContractsAnalyzed: 142,
		ExpirationDate:         "2025-08-22",
		DaysToExpiration:       &days,
		CalculationTime:        time.Date(2025, 8, 21, 9, 31, 2, 0, time.UTC),
	}
}

func TestGenerate(t *testing.T) {
	out := Generate("spy", reportFixture(), nil)

	assert.Contains(t, out, "MAX PAIN REPORT - SPY")
	assert.Contains(t, out, "Generated: 2025-08-21 09:31:02")
	assert.Contains(t, out, "Current Price: $452.30")
	assert.Contains(t, out, "EXPIRATION: 2025-08-22 (1 days)")
	assert.Contains(t, out, "Max Pain Price: $450.00")
	assert.Contains(t, out, "Distance from Current: $2.30 (-0.51%)")
	assert.Contains(t, out, "Put/Call Ratio: 1.150")
	assert.Contains(t, out, "Total Put OI: 130,000")
	assert.Contains(t, out, "Total Call OI: 113,000")
	assert.Contains(t, out, "Contracts Analyzed: 142")
	assert.Contains(t, out, "Nearby Strike Analysis:")
	assert.Contains(t, out, "8,100,000")
	assert.Contains(t, out, "<- MAX PAIN")
	assert.NotContains(t, out, "Trend")
}

func TestGenerateTrendSection(t *testing.T) {
	trend := &store.TrendSummary{
		Days:                  30,
		Samples:               12,
		AvgMaxPain:            448.75,
		AvgDistancePercent:    0.21,
		StdDevDistancePercent: 0.45,
		AvgPutCallRatio:       1.18,
	}
	out := Generate("SPY", reportFixture(), trend)

	assert.Contains(t, out, "30-Day Trend (12 samples):")
	assert.Contains(t, out, "Avg Max Pain: $448.75")
	assert.Contains(t, out, "Avg Distance: +0.21% (std dev 0.45%)")
	assert.Contains(t, out, "Avg Put/Call Ratio: 1.180")
}

func TestGenerateWithoutReferencePrice(t *testing.T) {
	res := reportFixture()
	res.CurrentStockPrice = nil
	res.DistanceFromCurrent = nil
	res.PercentageFromCurrent = nil
	res.ExpirationDate = ""
	res.DaysToExpiration = nil

	out := Generate("SPY", res, nil)

	assert.NotContains(t, out, "Current Price:")
	assert.NotContains(t, out, "Distance from Current:")
	assert.NotContains(t, out, "EXPIRATION:")
	assert.Contains(t, out, "Max Pain Price: $450.00")
}

func TestGenerateDaysLabel(t *testing.T) {
	res := reportFixture()
	res.DaysToExpiration = nil

	out := Generate("SPY", res, nil)
	assert.Contains(t, out, "EXPIRATION: 2025-08-22 (N/A)")
}

func TestGenerateByExpiration(t *testing.T) {
	near := reportFixture()
	far := reportFixture()
	far.MaxPainPrice = 455
	far.ExpirationDate = "2025-09-19"

	out := GenerateByExpiration("spy", map[string]*maxpain.MaxPainResult{
		"2025-09-19": far,
		"2025-08-22": near,
	})

	assert.Contains(t, out, "MAX PAIN BY EXPIRATION - SPY")
	assert.Contains(t, out, "2025-08-22")
	assert.Contains(t, out, "2025-09-19")
	assert.Contains(t, out, "$455.00")

	require.Less(t, strings.Index(out, "2025-08-22"), strings.Index(out, "2025-09-19"))
}
