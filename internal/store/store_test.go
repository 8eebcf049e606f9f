package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rumble43/Max-Pain-Calculator/internal/maxpain"
)

const summaryHeader = "date,ticker,current_price,expiration_date,days_to_expiration,max_pain_price,distance_dollars,distance_percent,put_call_ratio,total_put_oi,total_call_oi,contracts_analyzed"

func fixtureResult(calcTime time.Time) *maxpain.MaxPainResult {
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
		CalculationTime:        calcTime,
	}
}

func TestStoreSaveResult(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	res := fixtureResult(time.Date(2025, 8, 21, 9, 31, 0, 0, time.UTC))
	path, err := s.SaveResult("spy", res)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "daily", "SPY_2025-08-21_max_pain.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded maxpain.MaxPainResult
	require.NoError(t, json.Unmarshal(raw, &loaded))
	assert.Equal(t, 450.0, loaded.MaxPainPrice)
	require.NotNil(t, loaded.CurrentStockPrice)
	assert.Equal(t, 452.30, *loaded.CurrentStockPrice)
	assert.Equal(t, "2025-08-22", loaded.ExpirationDate)
	require.Len(t, loaded.NearbyStrikes, 3)
	assert.True(t, loaded.NearbyStrikes[1].IsMaxPain)
}

func TestStoreSaveResultOverwritesSameDay(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	calcTime := time.Date(2025, 8, 21, 9, 31, 0, 0, time.UTC)
	_, err = s.SaveResult("SPY", fixtureResult(calcTime))
	require.NoError(t, err)

	revised := fixtureResult(calcTime.Add(2 * time.Hour))
	revised.MaxPainPrice = 455
	path, err := s.SaveResult("SPY", revised)
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(dir, "daily", "*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 1)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var loaded maxpain.MaxPainResult
	require.NoError(t, json.Unmarshal(raw, &loaded))
	assert.Equal(t, 455.0, loaded.MaxPainPrice)
}

func TestStoreSaveReport(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	asOf := time.Date(2025, 8, 21, 9, 31, 0, 0, time.UTC)
	path, err := s.SaveReport("spy", asOf, "MAX PAIN REPORT - SPY\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "daily", "SPY_2025-08-21_report.txt"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "MAX PAIN REPORT - SPY")
}

func TestStoreSummaryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	first := fixtureResult(time.Now().Add(-48 * time.Hour))
	second := fixtureResult(time.Now())
	second.MaxPainPrice = 455

	require.NoError(t, s.AppendSummary("spy", first))
	require.NoError(t, s.AppendSummary("spy", second))

	raw, err := os.ReadFile(filepath.Join(dir, "summaries", "SPY_max_pain_history.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, summaryHeader, strings.TrimSpace(lines[0]))

	rows, err := s.LoadHistory("SPY", 30)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "SPY", rows[0].Ticker)
	assert.Equal(t, 450.0, rows[0].MaxPainPrice)
	assert.Equal(t, 455.0, rows[1].MaxPainPrice)
	assert.Equal(t, 1, rows[0].DaysToExpiration)
	require.NotNil(t, rows[0].DistancePercent)
	assert.InDelta(t, -0.51, *rows[0].DistancePercent, 1e-9)
}

func TestStoreSummaryNoPriceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	noPrice := fixtureResult(time.Now().Add(-24 * time.Hour))
	noPrice.CurrentStockPrice = nil
	noPrice.DistanceFromCurrent = nil
	noPrice.PercentageFromCurrent = nil

	withPrice := fixtureResult(time.Now())
	percent := -4.7619
	withPrice.PercentageFromCurrent = &percent

	require.NoError(t, s.AppendSummary("spy", noPrice))
	require.NoError(t, s.AppendSummary("spy", withPrice))

	raw, err := os.ReadFile(filepath.Join(dir, "summaries", "SPY_max_pain_history.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "450,,,1.15") // distance cells stay empty on disk

	rows, err := s.LoadHistory("SPY", 30)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Nil(t, rows[0].DistanceDollars)
	assert.Nil(t, rows[0].DistancePercent)
	assert.Zero(t, rows[0].CurrentPrice)
	require.NotNil(t, rows[1].DistancePercent)

	// the empty cells must not feed phantom zero distances into the trend
	trend, err := ComputeTrend(rows, 30)
	require.NoError(t, err)
	require.NotNil(t, trend)
	assert.Equal(t, 2, trend.Samples)
	assert.InDelta(t, -4.7619, trend.AvgDistancePercent, 1e-9)
	assert.Zero(t, trend.StdDevDistancePercent)
}

func TestStoreLoadHistoryCutoff(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.AppendSummary("SPY", fixtureResult(time.Now().AddDate(0, 0, -45))))
	require.NoError(t, s.AppendSummary("SPY", fixtureResult(time.Now().AddDate(0, 0, -2))))

	recent, err := s.LoadHistory("SPY", 30)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	all, err := s.LoadHistory("SPY", 90)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStoreLoadHistoryMissingFile(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	rows, err := s.LoadHistory("QQQ", 30)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestComputeTrend(t *testing.T) {
	t.Run("averages and deviation", func(t *testing.T) {
		up, down := 1.0, -3.0
		rows := []*SummaryRow{
			{MaxPainPrice: 440, PutCallRatio: 1.2, DistancePercent: &up},
			{MaxPainPrice: 450, PutCallRatio: 1.0, DistancePercent: &down},
			{MaxPainPrice: 460, PutCallRatio: 0.8},
		}

		trend, err := ComputeTrend(rows, 30)
		require.NoError(t, err)
		require.NotNil(t, trend)
		assert.Equal(t, 30, trend.Days)
		assert.Equal(t, 3, trend.Samples)
		assert.InDelta(t, 450.0, trend.AvgMaxPain, 1e-9)
		assert.InDelta(t, 1.0, trend.AvgPutCallRatio, 1e-9)
		assert.InDelta(t, -1.0, trend.AvgDistancePercent, 1e-9)
		assert.InDelta(t, 2.0, trend.StdDevDistancePercent, 1e-9)
	})

	t.Run("no rows", func(t *testing.T) {
		trend, err := ComputeTrend(nil, 30)
		require.NoError(t, err)
		assert.Nil(t, trend)
	})

	t.Run("no distance data", func(t *testing.T) {
		rows := []*SummaryRow{{MaxPainPrice: 450, PutCallRatio: 1.1}}
		trend, err := ComputeTrend(rows, 7)
		require.NoError(t, err)
		require.NotNil(t, trend)
		assert.Zero(t, trend.AvgDistancePercent)
		assert.Zero(t, trend.StdDevDistancePercent)
	})
}
