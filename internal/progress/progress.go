// Package progress logs progress through long corpus scans.
package progress

import (
	"github.com/charmbracelet/log"
)

// Tracker logs a line at every tenth of the total.
type Tracker struct {
	logger *log.Logger
	label  string
	total  int
	done   int
	next   int
	step   int
}

// New creates a tracker. A nil logger makes every call a no-op.
func New(logger *log.Logger, label string, total int) *Tracker {
	step := total / 10
	if step < 1 {
		step = 1
	}
	return &Tracker{logger: logger, label: label, total: total, step: step, next: step}
}

// Step marks one more item as done.
func (t *Tracker) Step() {
	t.done++
	if t.logger == nil {
		return
	}
	if t.done >= t.next || t.done == t.total {
		t.logger.Info(t.label, "done", t.done, "total", t.total)
		for t.next <= t.done {
			t.next += t.step
		}
	}
}

// Done returns the number of completed items.
func (t *Tracker) Done() int {
	return t.done
}
