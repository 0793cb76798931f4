package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Model holds the tunable parameters of one barometer model: window lengths
// and thresholds for every indicator the pipeline derives. A Model is
// immutable once registered; callers receive copies.
type Model struct {
	MAShort          int     `yaml:"ma_short" json:"ma_short"`
	MALong           int     `yaml:"ma_long" json:"ma_long"`
	RSIWindow        int     `yaml:"rsi_window" json:"rsi_window"`
	RSIOversold      float64 `yaml:"rsi_oversold" json:"rsi_oversold"`
	RSIBullThreshold float64 `yaml:"rsi_bull_threshold" json:"rsi_bull_threshold"`
	RSIBearThreshold float64 `yaml:"rsi_bear_threshold" json:"rsi_bear_threshold"`
	MACDFast         int     `yaml:"macd_fast" json:"macd_fast"`
	MACDSlow         int     `yaml:"macd_slow" json:"macd_slow"`
	MACDSignal       int     `yaml:"macd_signal" json:"macd_signal"`
	DrawdownWindow   int     `yaml:"drawdown_window" json:"drawdown_window"`
	DrawdownNoRain   float64 `yaml:"drawdown_no_rain" json:"drawdown_no_rain"`
	ADXPeriod        int     `yaml:"adx_period" json:"adx_period"`
	ADXThreshold     float64 `yaml:"adx_threshold" json:"adx_threshold"`

	// Bollinger bands are optional; a zero BBWindow disables them and the
	// overheated/panic refinements that depend on them.
	BBWindow int     `yaml:"bb_window,omitempty" json:"bb_window,omitempty"`
	BBStdDev float64 `yaml:"bb_std_dev,omitempty" json:"bb_std_dev,omitempty"`

	// LegacySignalSpan reproduces an old build that smoothed the MACD signal
	// line with the fast span instead of macd_signal. Off by default; kept so
	// historical runs can be replayed bit-for-bit.
	LegacySignalSpan bool `yaml:"legacy_signal_span,omitempty" json:"legacy_signal_span,omitempty"`
}

// Validate rejects parameter combinations the classifier cannot work with.
func (m Model) Validate() error {
	if m.MAShort <= 0 || m.MALong <= 0 {
		return fmt.Errorf("moving average windows must be positive (ma_short=%d ma_long=%d)", m.MAShort, m.MALong)
	}
	if m.MAShort >= m.MALong {
		return fmt.Errorf("ma_short (%d) must be strictly less than ma_long (%d)", m.MAShort, m.MALong)
	}
	if m.RSIWindow <= 0 {
		return fmt.Errorf("rsi_window must be positive, got %d", m.RSIWindow)
	}
	if m.MACDFast <= 0 || m.MACDSlow <= 0 || m.MACDSignal <= 0 {
		return fmt.Errorf("macd spans must be positive (fast=%d slow=%d signal=%d)", m.MACDFast, m.MACDSlow, m.MACDSignal)
	}
	if m.DrawdownWindow <= 0 {
		return fmt.Errorf("drawdown_window must be positive, got %d", m.DrawdownWindow)
	}
	if m.ADXPeriod <= 0 {
		return fmt.Errorf("adx_period must be positive, got %d", m.ADXPeriod)
	}
	if m.BBWindow < 0 || m.BBWindow == 1 {
		return fmt.Errorf("bb_window must be 0 (disabled) or at least 2, got %d", m.BBWindow)
	}
	return nil
}

// HasBollinger reports whether the optional Bollinger block is configured.
func (m Model) HasBollinger() bool {
	return m.BBWindow > 0
}

// MinBars is the longest lookback any indicator of this model needs before a
// trade decision can be made on a row.
func (m Model) MinBars() int {
	n := m.MALong
	if m.DrawdownWindow > n {
		n = m.DrawdownWindow
	}
	return n
}

// Built-in presets. Parameter sets carried over from the tuned production
// models; the comments name the objective each one was tuned for.
var presets = map[string]Model{
	// Tuned for maximum compounded return, conservative exits.
	"conservative": {
		MAShort: 80, MALong: 240,
		RSIWindow: 30, RSIOversold: 30, RSIBullThreshold: 50, RSIBearThreshold: 40,
		MACDFast: 12, MACDSlow: 30, MACDSignal: 18,
		DrawdownWindow: 300, DrawdownNoRain: -0.10,
		ADXPeriod: 14, ADXThreshold: 25,
		BBWindow: 20, BBStdDev: 2,
	},
	// Tuned for win rate over raw return.
	"highwinrate": {
		MAShort: 60, MALong: 150,
		RSIWindow: 25, RSIOversold: 40, RSIBullThreshold: 60, RSIBearThreshold: 40,
		MACDFast: 18, MACDSlow: 35, MACDSignal: 18,
		DrawdownWindow: 350, DrawdownNoRain: -0.15,
		ADXPeriod: 25, ADXThreshold: 30,
	},
	// Short windows, shallow drawdown trigger; pairs with the aggressive
	// simulator profile.
	"aggressive": {
		MAShort: 50, MALong: 100,
		RSIWindow: 7, RSIOversold: 30, RSIBullThreshold: 60, RSIBearThreshold: 45,
		MACDFast: 12, MACDSlow: 18, MACDSignal: 7,
		DrawdownWindow: 250, DrawdownNoRain: -0.05,
		ADXPeriod: 10, ADXThreshold: 20,
	},
	// Second-pass tuning targeting Sharpe; the only preset with Bollinger.
	"finetuned": {
		MAShort: 30, MALong: 200,
		RSIWindow: 14, RSIOversold: 35, RSIBullThreshold: 55, RSIBearThreshold: 45,
		MACDFast: 12, MACDSlow: 30, MACDSignal: 9,
		DrawdownWindow: 300, DrawdownNoRain: -0.10,
		ADXPeriod: 14, ADXThreshold: 20,
		BBWindow: 25, BBStdDev: 2,
	},
}

// Lookup resolves a preset by name from the closed registry.
func Lookup(name string) (Model, error) {
	m, ok := presets[name]
	if !ok {
		return Model{}, fmt.Errorf("unknown model preset %q (known: %v)", name, Names())
	}
	if err := m.Validate(); err != nil {
		return Model{}, fmt.Errorf("preset %q invalid: %w", name, err)
	}
	return m, nil
}

// Names lists the registered preset names, sorted for stable output.
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFile reads additional presets from a YAML file, mapping preset name to
// model parameters. Every entry is validated before any is returned.
func LoadFile(path string) (map[string]Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets file: %w", err)
	}
	var loaded map[string]Model
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return nil, fmt.Errorf("parse presets file %s: %w", path, err)
	}
	for name, m := range loaded {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("preset %q in %s: %w", name, path, err)
		}
	}
	return loaded, nil
}

// Resolve looks a name up in the built-in registry first, then in the
// optional presets file when one is supplied.
func Resolve(name, file string) (Model, error) {
	if m, err := Lookup(name); err == nil {
		return m, nil
	}
	if file == "" {
		return Model{}, fmt.Errorf("unknown model preset %q (known: %v)", name, Names())
	}
	loaded, err := LoadFile(file)
	if err != nil {
		return Model{}, err
	}
	m, ok := loaded[name]
	if !ok {
		return Model{}, fmt.Errorf("model preset %q not found in %s or built-ins", name, file)
	}
	return m, nil
}
