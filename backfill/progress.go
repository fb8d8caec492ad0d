package backfill

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker writes an in-place progress line to a terminal.
// When the total is unknown it prints a running count instead of a
// percentage.
type ProgressTracker struct {
	writer         io.Writer
	total          int
	current        int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

var _ Observer = (*ProgressTracker)(nil)

// NewProgressTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
// reportInterval: report progress every N records (<= 0 reports every update)
func NewProgressTracker(writer io.Writer, reportInterval int) *ProgressTracker {
	return &ProgressTracker{
		writer:         writer,
		total:          -1,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress toward total; a negative total is unknown.
func (p *ProgressTracker) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.total = total
	p.current = 0
	p.lastReported = 0
}

// Update sets the current progress to the specified value.
func (p *ProgressTracker) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	// Records inserted after the count was taken can push past the total.
	if p.total >= 0 && current > p.total {
		p.total = current
	}
	p.current = current

	if p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
}

// Finish prints the final progress line followed by a newline.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}

	return time.Since(p.startTime)
}

// RunStarted implements Observer.
func (p *ProgressTracker) RunStarted(_ string, pending int) {
	if pending >= 0 {
		fmt.Fprintf(p.writer, "Starting backfill of %d records\n", pending)
	} else {
		fmt.Fprintln(p.writer, "Starting backfill")
	}
	p.Start(pending)
}

// BatchProcessed implements Observer.
func (p *ProgressTracker) BatchProcessed(e Event) {
	p.Update(e.Processed)
}

// RunFinished implements Observer.
func (p *ProgressTracker) RunFinished(s Summary, err error) {
	p.Finish()
	if err != nil {
		fmt.Fprintf(p.writer, "Error processing batch: %v\n", err)
		return
	}
	if s.Processed == 0 {
		fmt.Fprintln(p.writer, "No records found without embeddings. Done!")
		return
	}
	fmt.Fprintf(p.writer, "Backfill complete. Processed %d records in %v (%.1f records/sec)\n",
		s.Processed, s.Elapsed.Round(time.Millisecond), float64(s.Processed)/s.Elapsed.Seconds())
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	elapsed := time.Since(p.startTime)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.current) / elapsed.Seconds()
	}

	if p.total < 0 {
		fmt.Fprintf(p.writer, "\rProcessed %d records - %.1f records/s", p.current, rate)
		return
	}

	percentage := 100.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}
	fmt.Fprintf(p.writer, "\rProgress: %d/%d (%.1f%%) - %.1f records/s",
		p.current, p.total, percentage, rate)
}
