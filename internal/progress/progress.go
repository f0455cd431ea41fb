// Package progress draws a one-line document counter on a terminal while a
// batch runs.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

var frames = []string{"◜", "◠", "◝", "◞", "◡", "◟"}

const defaultDelay = 100 * time.Millisecond

// Indicator animates "<frame> <label> <done>/<total>" until stopped.
// Add may be called from any goroutine.
type Indicator struct {
	writer io.Writer
	label  string
	total  int
	delay  time.Duration

	parent context.Context

	mu     sync.Mutex
	done   int
	active bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns a stopped indicator. total <= 0 hides the total. The
// animation ends when ctx is canceled or Stop is called; a stopped indicator
// can be started again while ctx is live.
func New(ctx context.Context, w io.Writer, label string, total int) *Indicator {
	return &Indicator{
		writer: w,
		label:  label,
		total:  total,
		delay:  defaultDelay,
		parent: ctx,
	}
}

// IsTerminal reports whether w is a terminal. Non-file writers never are.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Start begins the animation. Starting twice is a no-op.
func (p *Indicator) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		return
	}
	ctx, cancel := context.WithCancel(p.parent)
	p.active = true
	p.cancel = cancel
	p.wg.Add(1)
	go p.run(ctx)
}

// Stop ends the animation and clears the line. Safe to call when stopped.
func (p *Indicator) Stop() {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	p.active = false
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()

	if IsTerminal(p.writer) {
		fmt.Fprint(p.writer, "\r\033[2K")
	} else {
		fmt.Fprint(p.writer, "\r")
	}
}

// Add records n more processed documents.
func (p *Indicator) Add(n int) {
	p.mu.Lock()
	p.done += n
	p.mu.Unlock()
}

// Done returns the number of processed documents.
func (p *Indicator) Done() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// IsActive reports whether the animation is running.
func (p *Indicator) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *Indicator) line(frame int) string {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if p.total > 0 {
		return fmt.Sprintf("\r%s %s %d/%d", frames[frame%len(frames)], p.label, done, p.total)
	}
	return fmt.Sprintf("\r%s %s %d", frames[frame%len(frames)], p.label, done)
}

func (p *Indicator) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.delay)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(p.writer, p.line(frame))
		}
	}
}
