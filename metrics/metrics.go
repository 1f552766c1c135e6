// Package metrics exposes Prometheus collectors describing a running
// arena's tick health: how long each step takes, how many tanks
// remain, and how often shots/explosions/kills happen. It is ambient
// plumbing, not part of the simulation's semantics — world.World never
// imports it; the caller (cmd entrypoint) wires Collectors around its
// own tick loop.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Grissess/RANKS/tank"
	"github.com/Grissess/RANKS/world"
)

// Collectors groups the arena's Prometheus metrics. Unlike the
// teacher's package-level vars registered in an init() function, this
// is an explicit struct a caller constructs and registers: an arena
// can run more than one simulation in a process (e.g. under test), and
// package-level collectors would collide on the second registration.
type Collectors struct {
	TickDuration prometheus.Histogram
	TanksAlive   prometheus.Gauge
	ShotsFired   prometheus.Counter
	Explosions   prometheus.Counter
	Kills        prometheus.Counter
}

// New constructs a fresh, unregistered set of collectors.
func New() *Collectors {
	return &Collectors{
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ranks_tick_duration_seconds",
			Help:    "Wall-clock time taken by one World.Step call.",
			Buckets: prometheus.DefBuckets,
		}),
		TanksAlive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ranks_tanks_alive",
			Help: "Number of non-Dead tanks after the most recent step.",
		}),
		ShotsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ranks_shots_fired_total",
			Help: "Total number of fire upcalls dispatched.",
		}),
		Explosions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ranks_explosions_total",
			Help: "Total number of explosions drained from the action queue.",
		}),
		Kills: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ranks_kills_total",
			Help: "Total number of tanks newly marked Dead across all steps.",
		}),
	}
}

// MustRegister registers every collector against reg, panicking on a
// duplicate registration — the same fail-fast convention the teacher's
// metrics package uses in its init().
func (c *Collectors) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		c.TickDuration,
		c.TanksAlive,
		c.ShotsFired,
		c.Explosions,
		c.Kills,
	)
}

// Attach wires c's counters into w's event hooks and returns a Step
// function that times w.Step() and samples the tanks-alive gauge
// afterward. The caller's tick loop calls the returned function
// instead of w.Step() directly.
func (c *Collectors) Attach(w *world.World) func() {
	w.Hooks = world.Hooks{
		OnFire:    c.ShotsFired.Inc,
		OnExplode: c.Explosions.Inc,
		OnKill:    c.Kills.Inc,
	}
	return func() {
		start := time.Now()
		w.Step()
		c.TickDuration.Observe(time.Since(start).Seconds())

		alive := 0
		for _, t := range w.Tanks {
			if t.State != tank.StateDead {
				alive++
			}
		}
		c.TanksAlive.Set(float64(alive))
	}
}
