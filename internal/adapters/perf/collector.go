// Package perf keeps a bounded in-memory record of how long chat updates,
// admin requests and storage queries took.
package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 10000

// EntryKind distinguishes what was timed.
type EntryKind uint8

const (
	KindRequest EntryKind = iota // admin HTTP request
	KindQuery                    // storage call
	KindCommand                  // chat command
	KindButton                   // chat button press
)

// String returns the kind's label.
func (k EntryKind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindQuery:
		return "query"
	case KindCommand:
		return "command"
	case KindButton:
		return "button"
	}
	return "unknown"
}

// Entry is a single timing record stored in the ring buffer.
type Entry struct {
	Kind       EntryKind
	Path       string // HTTP path, SQL op, command name or "checkin"
	StatusCode int    // HTTP status (0 for everything else)
	Failed     bool   // chat update ended in an error reply or panic
	DurationMs float64
	Timestamp  time.Time
}

// Collector is a fixed-size ring buffer for timing entries.
// Writes are non-blocking; when full, oldest entries are overwritten.
// Aggregation happens only on read (Snapshot).
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	size    int
	pos     int
	count   int64 // total entries ever written (atomic for stats)
}

// NewCollector creates a collector with the given ring buffer capacity.
// PRE: size > 0
// POST: Returns a ready-to-use collector with pre-allocated storage
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{
		entries: make([]Entry, size),
		size:    size,
	}
}

// Record appends an entry to the ring buffer.
// PRE: e is a valid Entry
// POST: Entry stored; if buffer full, oldest entry overwritten
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.pos] = e
	c.pos = (c.pos + 1) % c.size
	c.mu.Unlock()
	atomic.AddInt64(&c.count, 1)
}

// TotalRecorded returns the total number of entries ever recorded.
// PRE: none
// POST: returns count >= 0
func (c *Collector) TotalRecorded() int64 {
	return atomic.LoadInt64(&c.count)
}

// Snapshot holds aggregated performance data computed on read.
type Snapshot struct {
	TotalRecorded  int64      `json:"total_recorded"`
	RequestP50Ms   float64    `json:"request_p50_ms"`
	RequestP95Ms   float64    `json:"request_p95_ms"`
	RequestP99Ms   float64    `json:"request_p99_ms"`
	UpdateP50Ms    float64    `json:"update_p50_ms"`
	UpdateP95Ms    float64    `json:"update_p95_ms"`
	UpdateP99Ms    float64    `json:"update_p99_ms"`
	FailedUpdates  int        `json:"failed_updates"`
	SlowestPaths   []PathStat `json:"slowest_paths"`
	SlowestUpdates []PathStat `json:"slowest_updates"`
	SlowestQueries []PathStat `json:"slowest_queries"`
}

// PathStat aggregates timing for a single path, command or query op.
type PathStat struct {
	Path    string  `json:"path"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	Count   int     `json:"count"`
	TotalMs float64 `json:"total_ms"`
}

// Snapshot computes aggregated stats from the ring buffer.
// This is expensive (sorts) and should only be called on dashboard load.
// PRE: none
// POST: Returns a Snapshot with percentiles and top-N lists
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, c.size)
	copy(buf, c.entries)
	c.mu.Unlock()

	var requestDurations, updateDurations []float64
	requestStats := make(map[string]*PathStat)
	updateStats := make(map[string]*PathStat)
	queryStats := make(map[string]*PathStat)
	failed := 0

	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		switch e.Kind {
		case KindRequest:
			requestDurations = append(requestDurations, e.DurationMs)
			accumulate(requestStats, e.Path, e.DurationMs)
		case KindCommand, KindButton:
			updateDurations = append(updateDurations, e.DurationMs)
			accumulate(updateStats, e.Kind.String()+" "+e.Path, e.DurationMs)
			if e.Failed {
				failed++
			}
		case KindQuery:
			accumulate(queryStats, e.Path, e.DurationMs)
		}
	}

	snap := Snapshot{
		TotalRecorded:  c.TotalRecorded(),
		FailedUpdates:  failed,
		SlowestPaths:   topByAvg(requestStats, topN),
		SlowestUpdates: topByAvg(updateStats, topN),
		SlowestQueries: topByAvg(queryStats, topN),
	}
	if len(requestDurations) > 0 {
		sort.Float64s(requestDurations)
		snap.RequestP50Ms = percentile(requestDurations, 50)
		snap.RequestP95Ms = percentile(requestDurations, 95)
		snap.RequestP99Ms = percentile(requestDurations, 99)
	}
	if len(updateDurations) > 0 {
		sort.Float64s(updateDurations)
		snap.UpdateP50Ms = percentile(updateDurations, 50)
		snap.UpdateP95Ms = percentile(updateDurations, 95)
		snap.UpdateP99Ms = percentile(updateDurations, 99)
	}
	return snap
}

func accumulate(stats map[string]*PathStat, key string, durationMs float64) {
	s, ok := stats[key]
	if !ok {
		s = &PathStat{Path: key}
		stats[key] = s
	}
	s.Count++
	s.TotalMs += durationMs
	if durationMs > s.MaxMs {
		s.MaxMs = durationMs
	}
}

// percentile returns the p-th percentile from a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper || upper >= len(sorted) {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// topByAvg returns the top N entries sorted by average duration (descending).
func topByAvg(stats map[string]*PathStat, n int) []PathStat {
	list := make([]PathStat, 0, len(stats))
	for _, s := range stats {
		s.AvgMs = s.TotalMs / float64(s.Count)
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].AvgMs > list[j].AvgMs
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}
