package world

import (
	"math"
	"testing"

	"github.com/Grissess/RANKS/geometry"
	"github.com/Grissess/RANKS/guestvm"
	"github.com/Grissess/RANKS/tank"
	"github.com/Grissess/RANKS/upcall"
	. "github.com/smartystreets/goconvey/convey"
)

func mustVM(ins []guestvm.Instruction) *guestvm.VM {
	vm, err := guestvm.New(ins)
	if err != nil {
		panic(err)
	}
	return vm
}

func yieldForever() *guestvm.VM {
	return mustVM([]guestvm.Instruction{
		guestvm.Yield(),
		guestvm.Jump(0),
	})
}

func explodeOnce() *guestvm.VM {
	return mustVM([]guestvm.Instruction{
		guestvm.CallUpcall(upcall.Explode),
		guestvm.Yield(),
		guestvm.Jump(1),
	})
}

func aimThenFireThenYield() *guestvm.VM {
	return mustVM([]guestvm.Instruction{
		guestvm.PushF32(0),
		guestvm.CallUpcall(upcall.Aim),
		guestvm.CallUpcall(upcall.Fire),
		guestvm.Yield(),
		guestvm.Jump(3),
	})
}

func TestLoneSurvivor(t *testing.T) {
	Convey("A single tank that only yields", t, func() {
		w := New(tank.DefaultConfiguration())
		w.AddTank(tank.New(0, geometry.Zero(), yieldForever()))

		Convey("after 10 ticks it is alive with heat floored at 0", func() {
			for i := 0; i < 10; i++ {
				w.Step()
			}
			So(w.Tanks[0].State, ShouldNotEqual, tank.StateDead)
			So(w.Tanks[0].Heat, ShouldEqual, 0)
			So(w.Bullets, ShouldBeEmpty)
			So(w.Finished(), ShouldBeFalse)
		})
	})
}

func TestSelfExplodeScenario(t *testing.T) {
	Convey("A single tank whose guest immediately explodes", t, func() {
		w := New(tank.DefaultConfiguration())
		w.AddTank(tank.New(0, geometry.Zero(), explodeOnce()))

		Convey("after one tick the tank is dead and the world is finished", func() {
			w.Step()
			So(w.Tanks[0].State, ShouldEqual, tank.StateDead)
			So(w.Finished(), ShouldBeTrue)
		})
	})
}

func TestMutualAnnihilation(t *testing.T) {
	Convey("Two tanks placed one unit apart", t, func() {
		w := New(tank.DefaultConfiguration())
		w.AddTank(tank.New(0, geometry.Pair{X: 0, Y: 0}, yieldForever()))
		w.AddTank(tank.New(1, geometry.Pair{X: 1, Y: 0}, yieldForever()))

		Convey("after one tick, both are dead", func() {
			w.Step()
			So(w.Tanks[0].State, ShouldEqual, tank.StateDead)
			So(w.Tanks[1].State, ShouldEqual, tank.StateDead)
		})
	})
}

func TestBulletTravelAndHit(t *testing.T) {
	Convey("Two tanks, one firing east at the other", t, func() {
		w := New(tank.DefaultConfiguration())
		w.AddTank(tank.New(0, geometry.Pair{X: 0, Y: 0}, aimThenFireThenYield()))
		w.AddTank(tank.New(1, geometry.Pair{X: 100, Y: 0}, yieldForever()))

		Convey("aim is pending on tick 1, fire lands on tick 2", func() {
			w.Step()
			So(w.Bullets, ShouldBeEmpty)
			w.Step()
			So(w.Bullets, ShouldHaveLength, 1)
			// Spawned at bullet_s (30), then advanced by bullet_v (5) in
			// the same step's bullet phase.
			So(w.Bullets[0].Pos.X, ShouldAlmostEqual, 35.0, 0.001)
			So(w.Bullets[0].Vel.X, ShouldAlmostEqual, 5.0, 0.001)

			Convey("after enough further ticks the bullet reaches and kills tank 1", func() {
				for i := 0; i < 20 && w.Tanks[1].State != tank.StateDead; i++ {
					w.Step()
				}
				So(w.Tanks[1].State, ShouldEqual, tank.StateDead)
			})
		})
	})
}

func TestScanCounts(t *testing.T) {
	Convey("Three tanks, teams {0,0,1} at (0,0), (10,0), (0,10)", t, func() {
		w := New(tank.DefaultConfiguration())
		origin := tank.New(0, geometry.Pair{X: 0, Y: 0}, yieldForever())
		friend := tank.New(0, geometry.Pair{X: 10, Y: 0}, yieldForever())
		enemy := tank.New(1, geometry.Pair{X: 0, Y: 10}, yieldForever())
		w.AddTank(origin)
		w.AddTank(friend)
		w.AddTank(enemy)

		Convey("scanning [0, 2pi) from the origin tank counts itself as a friend", func() {
			friends, enemies := w.Scan(origin.Pos, origin.Team, 0, float32(2*math.Pi))
			// Itself plus the team-0 tank at (10, 0).
			So(friends, ShouldEqual, uint32(2))
			So(enemies, ShouldEqual, uint32(1))
		})
	})
}

func TestInvariants(t *testing.T) {
	Convey("Given a busy world", t, func() {
		w := New(tank.DefaultConfiguration())
		w.AddTank(tank.New(0, geometry.Pair{X: 0, Y: 0}, aimThenFireThenYield()))
		w.AddTank(tank.New(1, geometry.Pair{X: 50, Y: 0}, yieldForever()))

		Convey("every bullet is alive at the end of step, and the queue drains", func() {
			for i := 0; i < 5; i++ {
				w.Step()
			}
			for _, b := range w.Bullets {
				So(b.Dead, ShouldBeFalse)
			}
			So(w.queue, ShouldBeEmpty)
		})

		Convey("finished is a stable no-op once every tank is dead", func() {
			w.Tanks[0].State = tank.StateDead
			w.Tanks[1].State = tank.StateDead
			So(w.Finished(), ShouldBeTrue)
			w.Step()
			So(w.Finished(), ShouldBeTrue)
		})
	})
}
