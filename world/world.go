// Package world implements World.step and its collision/sensor
// machinery (spec.md §4.4): tank and bullet advancement, quadtree
// construction, the "other than self" collision sweep, the deferred
// explosion queue, and the scan sensor.
package world

import (
	"github.com/Grissess/RANKS/geometry"
	"github.com/Grissess/RANKS/quadtree"
	"github.com/Grissess/RANKS/tank"
)

// Bullet is a projectile spawned by a Fire upcall. Bullets never run a
// guest program; they simply advance by their velocity each tick.
type Bullet struct {
	Pos, Vel geometry.Pair
	Dead     bool
}

type explosion struct {
	pos geometry.Pair
	rad float32
}

// entityRef is a quadtree point payload: exactly one of Tank or Bullet
// is set, standing in for the original's EntityRef enum over shared
// tank/bullet references.
type entityRef struct {
	tank   *tank.Tank
	bullet *Bullet
}

func (e entityRef) dead() bool {
	if e.tank != nil {
		return e.tank.State == tank.StateDead
	}
	return e.bullet.Dead
}

func (e entityRef) kill() {
	if e.tank != nil {
		e.tank.State = tank.StateDead
	} else {
		e.bullet.Dead = true
	}
}

func (e entityRef) is(other entityRef) bool {
	return e.tank == other.tank && e.bullet == other.bullet
}

// Hooks are optional instrumentation callbacks a caller (typically the
// metrics package) may attach to observe simulation events without
// World importing any metrics library itself. Any nil field is simply
// not called.
type Hooks struct {
	OnFire    func()
	OnExplode func()
	OnKill    func()
}

// World owns the arena's configuration, tank roster, live bullets, and
// the deferred action queue drained at the end of every step.
type World struct {
	cfg     tank.Configuration
	Tanks   []*tank.Tank
	Bullets []*Bullet
	Hooks   Hooks

	queue []explosion
}

// New builds an empty world under cfg. Tanks are added with AddTank.
func New(cfg tank.Configuration) *World {
	return &World{cfg: cfg}
}

func (w *World) fireHook() {
	if w.Hooks.OnFire != nil {
		w.Hooks.OnFire()
	}
}

func (w *World) explodeHook() {
	if w.Hooks.OnExplode != nil {
		w.Hooks.OnExplode()
	}
}

func (w *World) killHook() {
	if w.Hooks.OnKill != nil {
		w.Hooks.OnKill()
	}
}

// AddTank adds t to the roster. Tanks are never removed once added;
// they transition to Dead in place (spec.md §3 "Lifecycles").
func (w *World) AddTank(t *tank.Tank) {
	w.Tanks = append(w.Tanks, t)
}

// Config satisfies tank.World.
func (w *World) Config() tank.Configuration {
	return w.cfg
}

// SpawnBullet satisfies tank.World: the Fire upcall's effect.
func (w *World) SpawnBullet(pos, vel geometry.Pair) {
	w.Bullets = append(w.Bullets, &Bullet{Pos: pos, Vel: vel})
	w.fireHook()
}

// EnqueueExplode satisfies tank.World: Explode and the death_heat
// threshold both funnel through here so the tank list is never mutated
// mid-iteration (spec.md §9 "Deferred actions").
func (w *World) EnqueueExplode(pos geometry.Pair, rad float32) {
	w.queue = append(w.queue, explosion{pos: pos, rad: rad})
	w.explodeHook()
}

// Scan computes, over every tank (including Dead tanks and the caller
// itself), the angle of (t.Pos - origin) and counts those whose angle
// falls in the normalized [lo, hi) range, split into friends (same
// team as the caller) and enemies. The caller's own tank is always a
// candidate, so a lone scanning tank counts itself as a friend
// (spec.md §4.4, testable scenario 5).
func (w *World) Scan(origin geometry.Pair, team uint8, lo, hi float32) (friends, enemies uint32) {
	if lo > hi {
		lo, hi = hi, lo
	}
	for _, t := range w.Tanks {
		a := t.Pos.Sub(origin).Ang()
		if a < lo || a >= hi {
			continue
		}
		if t.Team == team {
			friends++
		} else {
			enemies++
		}
	}
	return friends, enemies
}

// Finished reports whether every tank on the roster is Dead.
func (w *World) Finished() bool {
	for _, t := range w.Tanks {
		if t.State != tank.StateDead {
			return false
		}
	}
	return true
}

// Step advances the world by one tick, in the fixed order spec.md §9
// requires: step all tanks, move bullets, build the spatial index, run
// the collision sweep, drain the deferred action queue, then compact
// dead bullets out of the roster.
func (w *World) Step() {
	for _, t := range w.Tanks {
		if t.State != tank.StateDead {
			t.Step(w)
		}
	}

	for _, b := range w.Bullets {
		b.Pos = b.Pos.Add(b.Vel)
	}

	tree := w.buildIndex()
	w.sweepCollisions(tree)
	w.drainQueue()
	w.compactBullets()
}

func (w *World) buildIndex() *quadtree.Node[entityRef] {
	var pts []geometry.Pair
	for _, t := range w.Tanks {
		pts = append(pts, t.Pos)
	}
	for _, b := range w.Bullets {
		pts = append(pts, b.Pos)
	}
	root := quadtree.FromBound[entityRef](geometry.OverPoints(pts)).Build()
	for _, t := range w.Tanks {
		root.AddPt(t.Pos, entityRef{tank: t})
	}
	for _, b := range w.Bullets {
		root.AddPt(b.Pos, entityRef{bullet: b})
	}
	return root
}

// sweepCollisions marks every entity overlapping a tank's hit radius
// Dead, so long as at least one of those entities (besides the tank
// itself) is alive; a tank that sees nothing alive but itself survives
// the tick untouched.
func (w *World) sweepCollisions(tree *quadtree.Node[entityRef]) {
	hitBox := geometry.Both(2 * w.cfg.HitRad)
	for _, t := range w.Tanks {
		self := entityRef{tank: t}
		box := geometry.Around(t.Pos, hitBox)
		hits := tree.Query(box)

		liveOther := false
		for _, pt := range hits {
			if pt.Value.is(self) {
				continue
			}
			if !pt.Value.dead() {
				liveOther = true
				break
			}
		}
		if !liveOther {
			continue
		}
		for _, pt := range hits {
			if pt.Value.dead() {
				continue
			}
			pt.Value.kill()
			if pt.Value.tank != nil {
				w.killHook()
			}
		}
	}
}

func (w *World) drainQueue() {
	for len(w.queue) > 0 {
		last := w.queue[len(w.queue)-1]
		w.queue = w.queue[:len(w.queue)-1]
		w.doExplode(last.pos, last.rad)
	}
}

// doExplode marks Dead every tank within rad of center, measured by the
// arena's limag proxy rather than Euclidean distance (geometry.Pair.Limag,
// spec.md §9).
func (w *World) doExplode(center geometry.Pair, rad float32) {
	for _, t := range w.Tanks {
		if t.State != tank.StateDead && t.Pos.Sub(center).Limag() <= rad {
			t.State = tank.StateDead
			w.killHook()
		}
	}
}

func (w *World) compactBullets() {
	live := w.Bullets[:0]
	for _, b := range w.Bullets {
		if !b.Dead {
			live = append(live, b)
		}
	}
	w.Bullets = live
}
