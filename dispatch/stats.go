package dispatch

import "go.uber.org/atomic"

type counters struct {
	calls     atomic.Uint64
	failures  atomic.Uint64
	marshaled atomic.Uint64
	opens     atomic.Uint64
	closes    atomic.Uint64
	warnings  atomic.Uint64
}

// Stats is a snapshot of dispatcher activity.
type Stats struct {
	Calls     uint64
	Failures  uint64
	Marshaled uint64
	Opens     uint64
	Closes    uint64
	// Warnings counts close-all commands whose notifications partly failed.
	Warnings uint64
}

// Stats returns the counters accumulated since the dispatcher was created.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Calls:     d.stats.calls.Load(),
		Failures:  d.stats.failures.Load(),
		Marshaled: d.stats.marshaled.Load(),
		Opens:     d.stats.opens.Load(),
		Closes:    d.stats.closes.Load(),
		Warnings:  d.stats.warnings.Load(),
	}
}
