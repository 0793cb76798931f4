// Package logx carries small logging helpers on top of zerolog.
package logx

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Progress renders an in-place progress bar on a TTY and falls back to
// periodic log lines when output is piped.
type Progress struct {
	mu      sync.Mutex
	name    string
	total   int
	current int
	tty     bool
}

// NewProgress starts tracking total units of work under name.
func NewProgress(name string, total int) *Progress {
	return &Progress{
		name:  name,
		total: total,
		tty:   term.IsTerminal(int(os.Stderr.Fd())),
	}
}

// Step records one completed unit labelled by item.
func (p *Progress) Step(item string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current++

	if !p.tty {
		if p.current%10 == 0 || p.current == p.total {
			log.Info().Str("task", p.name).Int("done", p.current).Int("total", p.total).Msg("progress")
		}
		return
	}

	frac := float64(p.current) / float64(p.total)
	filled := int(frac * 20)
	fmt.Fprintf(os.Stderr, "\r%s: [%-20s] %5.1f%% %s",
		p.name, strings.Repeat("=", filled), frac*100, item)
	if p.current == p.total {
		fmt.Fprintln(os.Stderr)
	}
}
