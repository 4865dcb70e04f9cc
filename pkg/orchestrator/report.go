package orchestrator

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Step status values.
const (
	StatusDone           = "done"
	StatusFailed         = "failed"
	StatusRolledBack     = "rolled_back"
	StatusRollbackFailed = "rollback_failed"
)

// Report records the release steps that ran and what happened to them.
type Report struct {
	mu        sync.Mutex
	entries   []ReportEntry
	startTime time.Time
	endTime   time.Time
}

// ReportEntry represents a single release step.
type ReportEntry struct {
	Step     string
	Detail   string // Tag, release URL or package spec
	Duration time.Duration
	Status   string
	Error    string
}

// NewReport creates a new release report.
func NewReport() *Report {
	return &Report{
		entries:   make([]ReportEntry, 0),
		startTime: time.Now(),
	}
}

// AddDone records a completed step.
func (r *Report) AddDone(step, detail string, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, ReportEntry{
		Step:     step,
		Detail:   detail,
		Duration: duration,
		Status:   StatusDone,
	})
}

// AddFailed records the step that failed.
func (r *Report) AddFailed(step string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, ReportEntry{
		Step:   step,
		Status: StatusFailed,
		Error:  err.Error(),
	})
}

// MarkRolledBack updates a completed step after its rollback ran.
func (r *Report) MarkRolledBack(step string) {
	r.update(step, StatusRolledBack, "")
}

// MarkRollbackFailed updates a completed step whose rollback failed.
func (r *Report) MarkRollbackFailed(step string, err error) {
	r.update(step, StatusRollbackFailed, err.Error())
}

func (r *Report) update(step, status, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].Step == step && r.entries[i].Status != StatusFailed {
			r.entries[i].Status = status
			r.entries[i].Error = errMsg

			return
		}
	}
}

// Finalize marks the report as complete.
func (r *Report) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.endTime = time.Now()
}

// TotalDuration returns total elapsed time.
func (r *Report) TotalDuration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.endTime.IsZero() {
		return time.Since(r.startTime)
	}

	return r.endTime.Sub(r.startTime)
}

// Entries returns a copy of the report entries for display.
func (r *Report) Entries() []ReportEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ReportEntry, len(r.entries))
	copy(out, r.entries)

	return out
}

func (r *Report) count(status string) int {
	count := 0

	for _, e := range r.Entries() {
		if e.Status == status {
			count++
		}
	}

	return count
}

// Succeeded returns count of completed steps that were kept.
func (r *Report) Succeeded() int {
	return r.count(StatusDone)
}

// RolledBack returns count of steps that were undone.
func (r *Report) RolledBack() int {
	return r.count(StatusRolledBack)
}

// RollbackFailed returns count of steps whose rollback failed.
func (r *Report) RollbackFailed() int {
	return r.count(StatusRollbackFailed)
}

// FormatSummaryLine returns a formatted summary.
func (r *Report) FormatSummaryLine() string {
	parts := make([]string, 0, 3)

	if s := r.Succeeded(); s > 0 {
		parts = append(parts, fmt.Sprintf("%d done", s))
	}

	if n := r.RolledBack(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d rolled back", n))
	}

	if n := r.RollbackFailed(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d rollback failed", n))
	}

	if len(parts) == 0 {
		parts = append(parts, "no steps")
	}

	return fmt.Sprintf("%s | Duration: %s", strings.Join(parts, ", "), FormatDuration(r.TotalDuration()))
}

// FormatDuration formats a duration as "Xm Ys" or "Xs".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
