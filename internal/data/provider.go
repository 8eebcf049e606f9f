// Package data provides market data provider implementations.
package data

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Rumble43/Max-Pain-Calculator/internal/maxpain"
)

var (
	ErrPriceUnavailable = fmt.Errorf("current price unavailable")
	ErrDataUnavailable  = fmt.Errorf("options data unavailable")
)

// Provider supplies market data
type Provider interface {
	// GetCurrentPrice returns the latest known price for the underlying.
	GetCurrentPrice(ctx context.Context, ticker string) (float64, error)

	// GetOptionChainSnapshot returns the chain for one expiration, or the
	// entire chain when expiration is the zero time. Contracts without open
	// interest are dropped.
	GetOptionChainSnapshot(ctx context.Context, ticker string, expiration time.Time) ([]maxpain.OptionContract, error)

	// GetNearestExpirationSnapshot returns the first future expiration in
	// the chain together with its contracts. A zero time and no contracts
	// mean the chain holds nothing usable.
	GetNearestExpirationSnapshot(ctx context.Context, ticker string) (time.Time, []maxpain.OptionContract, error)
}

// --------------------------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------------------------

// OptionSymbolFromParts: improved OCC-like formatter (best-effort)
func OptionSymbolFromParts(underlying string, expiration time.Time, optionType maxpain.OptionType, strike float64) string {
	// OCC: <root><YYMMDD><C|P><strike*1000 padded to 8 digits>
	expDt := expiration.UTC().Format("060102")
	side := "C"
	if optionType == maxpain.Put {
		side = "P"
	}
	strikeInt := int(math.Round(strike * 1000))
	return fmt.Sprintf("O:%s%s%s%08d", strings.ToUpper(underlying), expDt, side, strikeInt)
}
