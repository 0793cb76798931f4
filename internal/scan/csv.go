package scan

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// snapshotRow is the flattened CSV form of one ticker/model diagnosis.
type snapshotRow struct {
	Ticker   string  `csv:"ticker"`
	Model    string  `csv:"model"`
	Held     bool    `csv:"held"`
	Date     string  `csv:"date"`
	Close    float64 `csv:"close"`
	State    string  `csv:"state"`
	Signal   string  `csv:"signal"`
	Score    int     `csv:"score"`
	Combined int     `csv:"combined_score"`
	Err      string  `csv:"error"`
}

// WriteCSV exports the scan as one row per ticker/model pair; failed tickers
// get a single row carrying the error.
func (r Report) WriteCSV(path string) error {
	var rows []*snapshotRow
	for _, tr := range r.Tickers {
		if tr.Err != "" {
			rows = append(rows, &snapshotRow{Ticker: tr.Ticker, Held: tr.Held, Err: tr.Err})
			continue
		}
		for i, snap := range tr.Snapshots {
			model := fmt.Sprintf("model_%d", i+1)
			if i < len(r.Models) {
				model = r.Models[i]
			}
			rows = append(rows, &snapshotRow{
				Ticker:   tr.Ticker,
				Model:    model,
				Held:     tr.Held,
				Date:     snap.Date.Format("2006-01-02"),
				Close:    snap.Close,
				State:    snap.State.String(),
				Signal:   snap.Signal.String(),
				Score:    int(snap.Recommendation),
				Combined: tr.Combined,
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create scan csv: %w", err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("write scan csv: %w", err)
	}
	return nil
}
