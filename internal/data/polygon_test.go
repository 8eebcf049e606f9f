package data

import (
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rumble43/Max-Pain-Calculator/internal/maxpain"
)

func snapshotFixture() models.OptionContractSnapshot {
	return models.OptionContractSnapshot{
		Details: models.OptionDetails{
			ContractType:   "call",
			ExpirationDate: models.Date(time.Date(2025, 8, 22, 0, 0, 0, 0, time.UTC)),
			StrikePrice:    450,
			Ticker:         "O:SPY250822C00450000",
		},
		Day: models.DayOptionContractSnapshot{
			Close:  3.21,
			Volume: 1234,
		},
		OpenInterest: 5678,
	}
}

func TestContractFromSnapshot(t *testing.T) {
	c, ok := contractFromSnapshot(snapshotFixture())
	require.True(t, ok)

	assert.Equal(t, "O:SPY250822C00450000", c.ContractTicker)
	assert.Equal(t, maxpain.Call, c.ContractType)
	assert.Equal(t, 450.0, c.StrikePrice)
	assert.Equal(t, "2025-08-22", c.ExpirationDate.Format(maxpain.ExpirationDateLayout))
	assert.Equal(t, int64(5678), c.OpenInterest)
	assert.Equal(t, int64(1234), c.Volume)
	assert.Equal(t, 3.21, c.LastPrice)
}

func TestContractFromSnapshotRejectsMalformed(t *testing.T) {
	badType := snapshotFixture()
	badType.Details.ContractType = "other"
	_, ok := contractFromSnapshot(badType)
	assert.False(t, ok)

	noStrike := snapshotFixture()
	noStrike.Details.StrikePrice = 0
	_, ok = contractFromSnapshot(noStrike)
	assert.False(t, ok)

	noExpiry := snapshotFixture()
	noExpiry.Details.ExpirationDate = models.Date(time.Time{})
	_, ok = contractFromSnapshot(noExpiry)
	assert.False(t, ok)
}
