package backtest

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// tradeRow is the flattened CSV form of one closed trade.
type tradeRow struct {
	Ticker     string  `csv:"ticker"`
	EntryDate  string  `csv:"entry_date"`
	EntryPrice float64 `csv:"entry_price"`
	ExitDate   string  `csv:"exit_date"`
	ExitPrice  float64 `csv:"exit_price"`
	Profit     float64 `csv:"profit"`
}

// WriteTradesCSV exports every closed trade of the run to path, one row per
// trade, grouped by ticker in report order.
func (report RunReport) WriteTradesCSV(path string) error {
	var rows []*tradeRow
	for _, o := range report.Outcomes {
		for _, t := range o.Trades {
			rows = append(rows, &tradeRow{
				Ticker:     o.Ticker,
				EntryDate:  t.EntryDate.Format("2006-01-02"),
				EntryPrice: t.EntryPrice,
				ExitDate:   t.ExitDate.Format("2006-01-02"),
				ExitPrice:  t.ExitPrice,
				Profit:     t.Profit,
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trades csv: %w", err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("write trades csv: %w", err)
	}
	return nil
}
