// Package report records per-document outcomes of a pipeline run.
package report

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/oklog/ulid/v2"

	"github.com/cognicore/teienrich/pkg/teienrich/store"
)

// Outcome of one item
type Outcome int

const (
	Succeeded Outcome = iota
	Skipped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Item is the result recorded for one document
type Item struct {
	Path    string
	Outcome Outcome
	Reason  string
	Err     error
}

// Report collects the items of one run.
type Report struct {
	RunID      string
	Stage      string
	StartedAt  time.Time
	FinishedAt time.Time
	Items      []Item

	noMatch   mapset.Set[string]
	counters  map[string]int
	violation error
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newRunID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// New starts a report for stage.
func New(stage string) *Report {
	now := time.Now()
	return &Report{
		RunID:     newRunID(now),
		Stage:     stage,
		StartedAt: now,
		noMatch:   mapset.NewThreadUnsafeSet[string](),
		counters:  make(map[string]int),
	}
}

// Succeed records a processed document.
func (r *Report) Succeed(path string) {
	r.Items = append(r.Items, Item{Path: path, Outcome: Succeeded})
}

// Skip records a document left untouched on purpose.
func (r *Report) Skip(path, reason string) {
	r.Items = append(r.Items, Item{Path: path, Outcome: Skipped, Reason: reason})
}

// Fail records a recovered per-document failure.
func (r *Report) Fail(path, reason string, err error) {
	r.Items = append(r.Items, Item{Path: path, Outcome: Failed, Reason: reason, Err: err})
}

// Violation records an invariant violation. Err reports it regardless of
// how many other items succeeded.
func (r *Report) Violation(path string, err error) {
	r.Fail(path, "invariant", err)
	if r.violation == nil {
		r.violation = fmt.Errorf("%s: %w", path, err)
	}
}

// NoMatch adds ids that could not be resolved against the entity lookup.
func (r *Report) NoMatch(ids ...string) {
	for _, id := range ids {
		r.noMatch.Add(id)
	}
}

// Unmatched returns the distinct unresolved ids, sorted.
func (r *Report) Unmatched() []string {
	out := r.noMatch.ToSlice()
	sort.Strings(out)
	return out
}

// Incr adds n to a named counter.
func (r *Report) Incr(name string, n int) {
	r.counters[name] += n
}

// Counter returns a named counter.
func (r *Report) Counter(name string) int {
	return r.counters[name]
}

// Counts returns the number of items per outcome.
func (r *Report) Counts() (succeeded, skipped, failed int) {
	for _, it := range r.Items {
		switch it.Outcome {
		case Succeeded:
			succeeded++
		case Skipped:
			skipped++
		case Failed:
			failed++
		}
	}
	return succeeded, skipped, failed
}

// Failures returns the failed items.
func (r *Report) Failures() []Item {
	var out []Item
	for _, it := range r.Items {
		if it.Outcome == Failed {
			out = append(out, it)
		}
	}
	return out
}

// Finish stamps the end time.
func (r *Report) Finish() {
	r.FinishedAt = time.Now()
}

// Err is non-nil when an invariant was violated or when every attempted
// document failed.
func (r *Report) Err() error {
	if r.violation != nil {
		return r.violation
	}
	succeeded, _, failed := r.Counts()
	if failed > 0 && succeeded == 0 {
		first := r.Failures()[0]
		cause := first.Err
		if cause == nil {
			cause = errors.New(first.Reason)
		}
		return fmt.Errorf("%s: all %d documents failed, first %s: %w", r.Stage, failed, first.Path, cause)
	}
	return nil
}

// Run converts the report to its archived form.
func (r *Report) Run() store.Run {
	succeeded, skipped, failed := r.Counts()
	run := store.Run{
		ID:         r.RunID,
		Stage:      r.Stage,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Succeeded:  succeeded,
		Skipped:    skipped,
		Failed:     failed,
		Unmatched:  r.Unmatched(),
	}
	for _, it := range r.Items {
		item := store.Item{Path: it.Path, Outcome: it.Outcome.String(), Reason: it.Reason}
		if it.Err != nil {
			item.Error = it.Err.Error()
		}
		run.Items = append(run.Items, item)
	}
	return run
}
