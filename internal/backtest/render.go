package backtest

import (
	"fmt"
	"io"
	"strings"
)

// Render writes the per-ticker table and the averaged summary.
func (report RunReport) Render(w io.Writer) {
	line := strings.Repeat("=", 96)
	fmt.Fprintf(w, "%s\n  Backtest %s  (model: %s, profile: %s, range: %s)\n%s\n",
		line, report.ID, report.Model, report.Profile, report.Lookback, line)

	fmt.Fprintf(w, "%-12s | %10s | %10s | %8s | %8s | %8s | %6s | %s\n",
		"ticker", "strategy", "buy&hold", "annual", "sharpe", "max dd", "trades", "result")
	fmt.Fprintln(w, strings.Repeat("-", 96))

	for _, o := range report.Outcomes {
		if o.Err != "" {
			fmt.Fprintf(w, "%-12s | skipped: %s\n", o.Ticker, o.Err)
			continue
		}
		result := "behind"
		if o.Beat() {
			result = "🎉 beats B&H"
		}
		m := o.Metrics
		fmt.Fprintf(w, "%-12s | %9.2f%% | %9.2f%% | %7.2f%% | %8.2f | %7.2f%% | %6d | %s\n",
			o.Ticker, m.TotalReturn*100, m.BuyHoldReturn*100, m.AnnualizedReturn*100,
			m.Sharpe, m.MaxDrawdown*100, m.TradeCount, result)
	}

	if report.Tested == 0 {
		fmt.Fprintln(w, "\nNo ticker produced a usable backtest.")
		return
	}

	fmt.Fprintf(w, "\n[averages over %d tickers]\n", report.Tested)
	fmt.Fprintf(w, "annualized return: %7.2f%%\n", report.AvgAnnualized*100)
	fmt.Fprintf(w, "sharpe:            %7.2f\n", report.AvgSharpe)
	fmt.Fprintf(w, "max drawdown:      %7.2f%%\n", report.AvgDrawdown*100)
	fmt.Fprintf(w, "win rate:          %7.2f%%\n", report.AvgWinRate*100)
	fmt.Fprintf(w, "beats buy&hold:    %d/%d\n", report.Beats, report.Tested)
}
