// Package report renders calculation results as plain text.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Rumble43/Max-Pain-Calculator/internal/maxpain"
	"github.com/Rumble43/Max-Pain-Calculator/internal/store"
)

const timestampLayout = "2006-01-02 15:04:05"

// Generate renders the daily report for one result. The trend section is
// omitted when trend is nil.
func Generate(ticker string, result *maxpain.MaxPainResult, trend *store.TrendSummary) string {
	display := &strings.Builder{}
	p := message.NewPrinter(language.English)

	fmt.Fprintf(display, "MAX PAIN REPORT - %s\n", strings.ToUpper(ticker))
	fmt.Fprintf(display, "Generated: %s\n", result.CalculationTime.Format(timestampLayout))
	if result.CurrentStockPrice != nil {
		fmt.Fprintf(display, "Current Price: $%s\n", p.Sprintf("%.2f", *result.CurrentStockPrice))
	}
	display.WriteString(strings.Repeat("=", 60) + "\n\n")

	if result.ExpirationDate != "" {
		fmt.Fprintf(display, "EXPIRATION: %s (%s)\n", result.ExpirationDate, daysLabel(result.DaysToExpiration))
	}
	fmt.Fprintf(display, "Max Pain Price: $%s\n", p.Sprintf("%.2f", result.MaxPainPrice))
	if result.DistanceFromCurrent != nil && result.PercentageFromCurrent != nil {
		fmt.Fprintf(display, "Distance from Current: $%s (%+.2f%%)\n",
			p.Sprintf("%.2f", *result.DistanceFromCurrent), *result.PercentageFromCurrent)
	}
	fmt.Fprintf(display, "Put/Call Ratio: %.3f\n", result.PutCallRatio)
	fmt.Fprintf(display, "Total Put OI: %s\n", p.Sprintf("%d", result.TotalPutOI))
	fmt.Fprintf(display, "Total Call OI: %s\n", p.Sprintf("%d", result.TotalCallOI))
	fmt.Fprintf(display, "Contracts Analyzed: %d\n", result.TotalContractsAnalyzed)

	if len(result.NearbyStrikes) > 0 {
		display.WriteString("\nNearby Strike Analysis:\n")
		writeStrikeTable(display, p, result.NearbyStrikes)
	}

	if trend != nil {
		fmt.Fprintf(display, "\n%d-Day Trend (%d samples):\n", trend.Days, trend.Samples)
		fmt.Fprintf(display, "  Avg Max Pain: $%s\n", p.Sprintf("%.2f", trend.AvgMaxPain))
		fmt.Fprintf(display, "  Avg Distance: %+.2f%% (std dev %.2f%%)\n", trend.AvgDistancePercent, trend.StdDevDistancePercent)
		fmt.Fprintf(display, "  Avg Put/Call Ratio: %.3f\n", trend.AvgPutCallRatio)
	}

	return display.String()
}

// GenerateByExpiration renders a one-line-per-expiration table, earliest
// expiration first.
func GenerateByExpiration(ticker string, results map[string]*maxpain.MaxPainResult) string {
	display := &strings.Builder{}
	p := message.NewPrinter(language.English)

	fmt.Fprintf(display, "MAX PAIN BY EXPIRATION - %s\n", strings.ToUpper(ticker))

	expirations := make([]string, 0, len(results))
	for expiration := range results {
		expirations = append(expirations, expiration)
	}
	sort.Strings(expirations)

	table := tablewriter.NewWriter(display)
	table.SetHeader([]string{"EXPIRATION", "MAX PAIN", "P/C RATIO", "PUT OI", "CALL OI", "CONTRACTS"})
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetColumnSeparator("")

	for _, expiration := range expirations {
		res := results[expiration]
		table.Append([]string{
			expiration,
			fmt.Sprintf("$%s", p.Sprintf("%.2f", res.MaxPainPrice)),
			fmt.Sprintf("%.3f", res.PutCallRatio),
			p.Sprintf("%d", res.TotalPutOI),
			p.Sprintf("%d", res.TotalCallOI),
			fmt.Sprintf("%d", res.TotalContractsAnalyzed),
		})
	}
	table.Render()
	return display.String()
}

func writeStrikeTable(display *strings.Builder, p *message.Printer, points []maxpain.PainPoint) {
	table := tablewriter.NewWriter(display)
	table.SetHeader([]string{"STRIKE", "PAIN VALUE", ""})
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetColumnSeparator("")

	for _, pt := range points {
		marker := ""
		if pt.IsMaxPain {
			marker = "<- MAX PAIN"
		}
		table.Append([]string{
			fmt.Sprintf("$%s", p.Sprintf("%.2f", pt.Strike)),
			fmt.Sprintf("$%s", p.Sprintf("%.0f", pt.Pain)),
			marker,
		})
	}
	table.Render()
}

func daysLabel(days *int) string {
	if days == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d days", *days)
}
