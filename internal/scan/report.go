package scan

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Render writes the human report: held positions first, then entry and exit
// opportunities discovered in the rest of the universe.
func (r Report) Render(w io.Writer) {
	line := strings.Repeat("=", 56)

	fmt.Fprintf(w, "%s\n      💼 Held positions\n%s\n", line, line)
	heldAny := false
	for _, tr := range r.Tickers {
		if !tr.Held {
			continue
		}
		heldAny = true
		r.renderTicker(w, tr)
	}
	if !heldAny {
		fmt.Fprintln(w, "Hold list is empty.")
	}

	fmt.Fprintf(w, "\n%s\n      🔍 Market opportunities\n%s\n", line, line)
	buys, sells := r.opportunities()
	if len(buys) == 0 && len(sells) == 0 {
		fmt.Fprintln(w, "No new entry or exit signals in the scan list.")
	}
	if len(buys) > 0 {
		fmt.Fprintln(w, "\n  --- 🟢 Potential entries ---")
		for _, tr := range buys {
			r.renderTicker(w, tr)
		}
	}
	if len(sells) > 0 {
		fmt.Fprintln(w, "\n  --- 🔴 Potential exits ---")
		for _, tr := range sells {
			r.renderTicker(w, tr)
		}
	}

	if r.Failures > 0 {
		fmt.Fprintf(w, "\n%d ticker(s) skipped on data errors:\n", r.Failures)
		for _, tr := range r.Tickers {
			if tr.Err != "" {
				fmt.Fprintf(w, "  - %-10s %s\n", tr.Ticker, tr.Err)
			}
		}
	}
	fmt.Fprintf(w, "\nScan finished in %.2fs.\n", r.Elapsed.Seconds())
}

func (r Report) renderTicker(w io.Writer, tr TickerReport) {
	if tr.Err != "" {
		fmt.Fprintf(w, "  - %-10s | no result (%s)\n", tr.Ticker, tr.Err)
		return
	}
	first := tr.Snapshots[0]
	if len(tr.Snapshots) == 1 {
		fmt.Fprintf(w, "  - %-10s | price: %8.2f | state: %-22s | advice: %s\n",
			tr.Ticker, first.Close, first.StateLabel, first.Recommendation.Verbal())
		return
	}
	parts := make([]string, len(tr.Snapshots))
	for i, snap := range tr.Snapshots {
		name := fmt.Sprintf("M%d", i+1)
		if i < len(r.Models) {
			name = r.Models[i]
		}
		parts[i] = fmt.Sprintf("%s: %s", name, snap.Recommendation.Verbal())
	}
	fmt.Fprintf(w, "  - %-10s | price: %8.2f | advice: %s (%s)\n",
		tr.Ticker, first.Close, CombinedVerbal(tr.Combined), strings.Join(parts, ", "))
}

// opportunities splits non-held, successfully scanned tickers with a
// nonzero combined score into entry and exit candidates, strongest first.
func (r Report) opportunities() (buys, sells []TickerReport) {
	for _, tr := range r.Tickers {
		if tr.Held || tr.Err != "" || tr.Combined == 0 {
			continue
		}
		if tr.Combined > 0 {
			buys = append(buys, tr)
		} else {
			sells = append(sells, tr)
		}
	}
	sort.SliceStable(buys, func(i, j int) bool { return buys[i].Combined > buys[j].Combined })
	sort.SliceStable(sells, func(i, j int) bool { return sells[i].Combined < sells[j].Combined })
	return buys, sells
}
