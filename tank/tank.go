// Package tank implements the per-tank control loop (spec.md §4.3):
// idle heat, the cooldown-throttled upcall dispatch loop, and the
// Free/Pending/Dead state machine. It depends only on geometry,
// guestvm, and upcall, never on the world package, so that world may
// freely depend on tank without an import cycle; the owning world
// satisfies the narrow World interface defined here.
package tank

import (
	"github.com/Grissess/RANKS/geometry"
	"github.com/Grissess/RANKS/guestvm"
	"github.com/Grissess/RANKS/upcall"
)

// State is a tank's position in the Free/Pending/Dead state machine.
type State uint8

const (
	StateFree State = iota
	StatePending
	StateDead
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "free"
	case StatePending:
		return "pending"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Configuration holds the world-wide, immutable-after-build tuning
// constants every tank step consults (spec.md §3).
type Configuration struct {
	ShootHeat     int     `mapstructure:"shoot_heat"`
	IdleHeat      int     `mapstructure:"idle_heat"`
	MoveHeat      int     `mapstructure:"move_heat"`
	DeathHeat     int     `mapstructure:"death_heat"`
	InstrsPerStep int     `mapstructure:"instrs_per_step"`
	BulletV       float32 `mapstructure:"bullet_v"`
	BulletS       float32 `mapstructure:"bullet_s"`
	HitRad        float32 `mapstructure:"hit_rad"`
	TankV         float32 `mapstructure:"tank_v"`
	ExplodeRad    float32 `mapstructure:"explode_rad"`
}

// DefaultConfiguration returns the arena's stock tuning (spec.md §3).
func DefaultConfiguration() Configuration {
	return Configuration{
		ShootHeat:     26,
		IdleHeat:      -2,
		MoveHeat:      -2,
		DeathHeat:     300,
		InstrsPerStep: 30,
		BulletV:       5.0,
		BulletS:       30.0,
		HitRad:        10.0,
		TankV:         1.0,
		ExplodeRad:    50.0,
	}
}

// World is the narrow surface a Tank needs from its owning world during
// a step: the shared configuration, bullet spawning, the sensor sweep,
// and queuing a deferred explosion. world.World implements this.
type World interface {
	Config() Configuration
	SpawnBullet(pos, vel geometry.Pair)
	Scan(origin geometry.Pair, team uint8, lo, hi float32) (friends, enemies uint32)
	EnqueueExplode(pos geometry.Pair, rad float32)
}

// Tank is one arena combatant: a sandboxed guest program driving a
// position, aim, and body angle through the upcall protocol.
type Tank struct {
	Pos   geometry.Pair
	Aim   float32
	Angle float32
	Team  uint8
	Heat  int
	State State

	VM *guestvm.VM

	// Cooldown is the instruction-count watermark below which the next
	// world-altering upcall is deferred to Pending (spec.md §4.3b).
	Cooldown int64

	pending *upcall.Upcall
}

// New constructs a Free tank at pos, owning vm.
func New(team uint8, pos geometry.Pair, vm *guestvm.VM) *Tank {
	return &Tank{Pos: pos, Team: team, VM: vm, State: StateFree}
}

func (t *Tank) applyHeat(heat int) {
	t.Heat += heat
	if t.Heat < 0 {
		t.Heat = 0
	}
}

// Step runs one tick of the tank execution loop against w. A Dead tank
// is a no-op; world.Step is responsible for skipping Dead tanks, but
// Step guards against it anyway so it is safe to call unconditionally.
func (t *Tank) Step(w World) {
	if t.State == StateDead {
		return
	}
	cfg := w.Config()

	t.applyHeat(cfg.IdleHeat)
	t.VM.BeginStep()
	t.Cooldown -= int64(cfg.InstrsPerStep)
	if t.Cooldown < 0 {
		t.Cooldown = 0
	}

	for {
		u, exploded := t.nextUpcall(cfg)
		if exploded {
			w.EnqueueExplode(t.Pos, cfg.ExplodeRad)
			t.State = StateDead
			return
		}
		if u == nil {
			break
		}

		if u.Kind.WorldAltering() {
			if t.Cooldown >= int64(cfg.InstrsPerStep) {
				t.pending = u
				t.State = StatePending
				break
			}
			counter := t.VM.Counter()
			if int64(counter) < t.Cooldown {
				counter = int(t.Cooldown)
			}
			t.VM.SetCounter(counter)
			t.Cooldown = int64(counter) + int64(cfg.InstrsPerStep)
		}

		t.dispatch(w, cfg, u)
	}

	if t.Heat >= cfg.DeathHeat {
		w.EnqueueExplode(t.Pos, cfg.ExplodeRad)
	}
}

// nextUpcall obtains the next upcall for the dispatch loop: a deferred
// Pending upcall takes priority and requires no VM re-entry, otherwise
// the VM is resumed up to the per-tick instruction budget.
func (t *Tank) nextUpcall(cfg Configuration) (u *upcall.Upcall, exploded bool) {
	if t.State == StatePending {
		u = t.pending
		t.pending = nil
		t.State = StateFree
		return u, false
	}
	return t.VM.RunUntil(cfg.InstrsPerStep)
}

func (t *Tank) dispatch(w World, cfg Configuration, u *upcall.Upcall) {
	switch u.Kind {
	case upcall.Scan:
		lo, hi := u.ArgLo, u.ArgHi
		if lo > hi {
			lo, hi = hi, lo
		}
		friends, enemies := w.Scan(t.Pos, t.Team, lo, hi)
		u.Result.Packed = upcall.PackScan(friends, enemies)
		u.Result.Fill()
	case upcall.Fire:
		t.applyHeat(cfg.ShootHeat)
		dir := geometry.Polar(t.Aim)
		w.SpawnBullet(t.Pos.Add(dir.Scale(cfg.BulletS)), dir.Scale(cfg.BulletV))
	case upcall.Aim:
		t.Aim = u.ArgLo
	case upcall.Turn:
		t.Angle = u.ArgLo
	case upcall.GPSX:
		u.Result.F32 = t.Pos.X
		u.Result.Fill()
	case upcall.GPSY:
		u.Result.F32 = t.Pos.Y
		u.Result.Fill()
	case upcall.Temp:
		u.Result.I32 = int32(t.Heat)
		u.Result.Fill()
	case upcall.Forward:
		t.Pos = t.Pos.Add(geometry.Polar(t.Angle).Scale(cfg.TankV))
	case upcall.Explode:
		w.EnqueueExplode(t.Pos, cfg.ExplodeRad)
	}
}
