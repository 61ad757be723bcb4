// Package stats keeps in-process counters and rolling latency windows for
// the beautify path.
package stats

import "sync/atomic"

// Counters tallies beautify outcomes.
type Counters struct {
	parsed       atomic.Int64
	repaired     atomic.Int64
	notJSON      atomic.Int64
	repairFailed atomic.Int64
	empty        atomic.Int64
}

// CountersSnapshot is a JSON-safe copy of Counters.
type CountersSnapshot struct {
	Parsed       int64 `json:"parsed"`
	Repaired     int64 `json:"repaired"`
	NotJSON      int64 `json:"not_json"`
	RepairFailed int64 `json:"repair_failed"`
	Empty        int64 `json:"empty"`
}

func (c *Counters) IncParsed()       { c.parsed.Add(1) }
func (c *Counters) IncRepaired()     { c.repaired.Add(1) }
func (c *Counters) IncNotJSON()      { c.notJSON.Add(1) }
func (c *Counters) IncRepairFailed() { c.repairFailed.Add(1) }
func (c *Counters) IncEmpty()        { c.empty.Add(1) }

func (c *Counters) Snapshot() CountersSnapshot {
	return CountersSnapshot{
		Parsed:       c.parsed.Load(),
		Repaired:     c.repaired.Load(),
		NotJSON:      c.notJSON.Load(),
		RepairFailed: c.repairFailed.Load(),
		Empty:        c.empty.Load(),
	}
}
