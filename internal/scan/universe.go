package scan

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultUniverse is the curated scan list: major US ETFs and megacaps plus
// the Taiwan 50 constituents, a mid-cap selection, and the larger TPEx
// names. A curated list sidesteps the index-scraping flakiness a dynamic
// source would bring.
func DefaultUniverse() []string {
	return []string{
		// US ETFs and megacaps
		"VOO", "QQQ", "SPY", "DIA", "IWM",
		"AAPL", "MSFT", "GOOG", "AMZN", "NVDA", "TSLA", "META",
		// Taiwan 50
		"2330.TW", "2454.TW", "2317.TW", "2881.TW", "2308.TW", "2882.TW", "2886.TW", "2303.TW",
		"2891.TW", "1301.TW", "1303.TW", "2002.TW", "1216.TW", "2884.TW", "3711.TW", "2207.TW",
		"2885.TW", "6505.TW", "3034.TW", "3037.TW", "5880.TW", "2395.TW", "2892.TW", "1101.TW",
		"2880.TW", "2883.TW", "2301.TW", "2912.TW", "2357.TW", "2412.TW", "3008.TW", "2382.TW",
		"5871.TW", "2379.TW", "1326.TW", "3045.TW", "1605.TW", "2887.TW", "2327.TW", "2890.TW",
		"4904.TW", "6669.TW", "2345.TW", "1590.TW", "1102.TW", "9910.TW", "2408.TW", "2474.TW",
		// Taiwan ETFs
		"0050.TW", "0056.TW", "00878.TW", "006208.TW",
		// Mid-cap selection
		"2603.TW", "2609.TW", "2615.TW", "2006.TW", "2014.TW", "1722.TW", "1795.TW", "2344.TW",
		"2377.TW", "2409.TW", "3044.TW", "3231.TW", "3533.TW", "3661.TW", "4958.TW",
		"5269.TW", "6176.TW", "6239.TW", "6278.TW", "8069.TWO", "8299.TWO", "9921.TW",
		// TPEx selection
		"6488.TWO", "8044.TWO", "6147.TWO", "5347.TWO", "4979.TWO", "3293.TWO", "6245.TWO", "3105.TWO",
		"5483.TWO", "4129.TWO", "8436.TWO", "6182.TWO", "3264.TWO", "6121.TWO", "5274.TWO",
	}
}

type universeFile struct {
	Tickers []string `yaml:"tickers"`
}

// LoadUniverse reads a YAML ticker list ({tickers: [...]}) for custom scans.
func LoadUniverse(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}
	var uf universeFile
	if err := yaml.Unmarshal(raw, &uf); err != nil {
		return nil, fmt.Errorf("parse universe file %s: %w", path, err)
	}
	if len(uf.Tickers) == 0 {
		return nil, fmt.Errorf("universe file %s lists no tickers", path)
	}
	return uf.Tickers, nil
}

// MergeUniverse unions the scan list with the held symbols, upper-cased,
// de-duplicated, sorted.
func MergeUniverse(tickers []string, held map[string]bool) []string {
	set := map[string]bool{}
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			set[t] = true
		}
	}
	for t := range held {
		set[t] = true
	}
	merged := make([]string, 0, len(set))
	for t := range set {
		merged = append(merged, t)
	}
	sort.Strings(merged)
	return merged
}
