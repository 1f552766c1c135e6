// Package snapshot projects a world.World into the stable, plain-data
// per-tick view external transports consume (spec.md §6). The
// projection carries no behavior of its own: it is the serializable
// subset of Tank and Bullet state, mirroring the split the original
// Rust implementation already drew between a live Tank and its
// TankSerInfo wire form.
package snapshot

import (
	"github.com/Grissess/RANKS/tank"
	"github.com/Grissess/RANKS/world"
)

// Vec2 is the wire form of a geometry.Pair; kept distinct from
// geometry.Pair so transport encoders are free to attach their own
// struct tags without reaching into the core geometry package.
type Vec2 struct {
	X, Y float32
}

// TankView is the serializable subset of a Tank's state.
type TankView struct {
	Pos   Vec2
	Angle float32
	Aim   float32
	Temp  int
	Team  uint8
	Dead  bool
}

// BulletView is the serializable subset of a Bullet's state.
type BulletView struct {
	Pos  Vec2
	Vel  Vec2
	Dead bool
}

// Snapshot is one tick's complete public view of the arena.
type Snapshot struct {
	Tick    uint64
	Tanks   []TankView
	Bullets []BulletView
}

// Export builds a Snapshot of w at the given tick number. It never
// mutates w.
func Export(w *world.World, tick uint64) Snapshot {
	snap := Snapshot{
		Tick:    tick,
		Tanks:   make([]TankView, len(w.Tanks)),
		Bullets: make([]BulletView, len(w.Bullets)),
	}
	for i, t := range w.Tanks {
		snap.Tanks[i] = TankView{
			Pos:   Vec2{X: t.Pos.X, Y: t.Pos.Y},
			Angle: t.Angle,
			Aim:   t.Aim,
			Temp:  t.Heat,
			Team:  t.Team,
			Dead:  t.State == tank.StateDead,
		}
	}
	for i, b := range w.Bullets {
		snap.Bullets[i] = BulletView{
			Pos:  Vec2{X: b.Pos.X, Y: b.Pos.Y},
			Vel:  Vec2{X: b.Vel.X, Y: b.Vel.Y},
			Dead: b.Dead,
		}
	}
	return snap
}
