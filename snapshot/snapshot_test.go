package snapshot

import (
	"testing"

	"github.com/Grissess/RANKS/geometry"
	"github.com/Grissess/RANKS/guestvm"
	"github.com/Grissess/RANKS/tank"
	"github.com/Grissess/RANKS/world"
	. "github.com/smartystreets/goconvey/convey"
)

func yieldForever() *guestvm.VM {
	vm, err := guestvm.New([]guestvm.Instruction{
		guestvm.Yield(),
		guestvm.Jump(0),
	})
	if err != nil {
		panic(err)
	}
	return vm
}

func TestExport(t *testing.T) {
	Convey("Given a world with one tank and one bullet", t, func() {
		w := world.New(tank.DefaultConfiguration())
		tk := tank.New(2, geometry.Pair{X: 1, Y: 2}, yieldForever())
		tk.Aim = 0.5
		tk.Angle = 1.5
		tk.Heat = 12
		w.AddTank(tk)
		w.SpawnBullet(geometry.Pair{X: 3, Y: 4}, geometry.Pair{X: 5, Y: 0})

		Convey("Export mirrors every field into the plain-data view", func() {
			snap := Export(w, 7)
			So(snap.Tick, ShouldEqual, uint64(7))
			So(snap.Tanks, ShouldHaveLength, 1)
			So(snap.Tanks[0].Pos, ShouldResemble, Vec2{X: 1, Y: 2})
			So(snap.Tanks[0].Aim, ShouldEqual, float32(0.5))
			So(snap.Tanks[0].Angle, ShouldEqual, float32(1.5))
			So(snap.Tanks[0].Temp, ShouldEqual, 12)
			So(snap.Tanks[0].Team, ShouldEqual, uint8(2))
			So(snap.Tanks[0].Dead, ShouldBeFalse)

			So(snap.Bullets, ShouldHaveLength, 1)
			So(snap.Bullets[0].Pos, ShouldResemble, Vec2{X: 3, Y: 4})
			So(snap.Bullets[0].Vel, ShouldResemble, Vec2{X: 5, Y: 0})
		})

		Convey("A dead tank is reflected as Dead: true", func() {
			tk.State = tank.StateDead
			snap := Export(w, 1)
			So(snap.Tanks[0].Dead, ShouldBeTrue)
		})
	})
}
