// Package holdlist persists the flat list of held ticker symbols, one
// upper-cased symbol per line, sorted on write.
package holdlist

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// DefaultPath is the conventional hold list location in the working dir.
const DefaultPath = "hold_list.txt"

// Store reads and writes a hold list file.
type Store struct {
	path string
}

// NewStore returns a store for path, or DefaultPath when path is empty.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Load returns the held symbols as a set. A missing file is an empty list,
// not an error.
func (s *Store) Load() (map[string]bool, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("open hold list: %w", err)
	}
	defer f.Close()

	held := map[string]bool{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if line != "" {
			held[line] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read hold list: %w", err)
	}
	return held, nil
}

// Symbols returns the held symbols sorted ascending.
func (s *Store) Symbols() ([]string, error) {
	held, err := s.Load()
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(held))
	for sym := range held {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols, nil
}

// Add inserts a symbol. Reports whether the list changed.
func (s *Store) Add(symbol string) (bool, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return false, fmt.Errorf("empty symbol")
	}
	held, err := s.Load()
	if err != nil {
		return false, err
	}
	if held[symbol] {
		return false, nil
	}
	held[symbol] = true
	return true, s.write(held)
}

// Remove deletes a symbol. Reports whether the list changed.
func (s *Store) Remove(symbol string) (bool, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	held, err := s.Load()
	if err != nil {
		return false, err
	}
	if !held[symbol] {
		return false, nil
	}
	delete(held, symbol)
	return true, s.write(held)
}

func (s *Store) write(held map[string]bool) error {
	symbols := make([]string, 0, len(held))
	for sym := range held {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	var b strings.Builder
	for _, sym := range symbols {
		b.WriteString(sym)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(s.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write hold list: %w", err)
	}
	return nil
}
