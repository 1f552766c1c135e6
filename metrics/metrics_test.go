package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/Grissess/RANKS/geometry"
	"github.com/Grissess/RANKS/guestvm"
	"github.com/Grissess/RANKS/tank"
	"github.com/Grissess/RANKS/upcall"
	"github.com/Grissess/RANKS/world"
	. "github.com/smartystreets/goconvey/convey"
)

func explodeOnce() *guestvm.VM {
	vm, err := guestvm.New([]guestvm.Instruction{
		guestvm.CallUpcall(upcall.Explode),
		guestvm.Yield(),
		guestvm.Jump(1),
	})
	if err != nil {
		panic(err)
	}
	return vm
}

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	c.Write(&m)
	return m.GetCounter().GetValue()
}

func gaugeValue(g prometheus.Gauge) float64 {
	var m dto.Metric
	g.Write(&m)
	return m.GetGauge().GetValue()
}

func TestAttachObservesEvents(t *testing.T) {
	Convey("Given a world with one self-destructing tank, wired to a collector", t, func() {
		reg := prometheus.NewRegistry()
		c := New()
		c.MustRegister(reg)

		w := world.New(tank.DefaultConfiguration())
		w.AddTank(tank.New(0, geometry.Zero(), explodeOnce()))
		step := c.Attach(w)

		Convey("stepping once records an explosion, a kill, and a tick duration sample", func() {
			step()
			So(counterValue(c.Explosions), ShouldEqual, 1.0)
			So(counterValue(c.Kills), ShouldEqual, 1.0)
			So(gaugeValue(c.TanksAlive), ShouldEqual, 0.0)
		})
	})
}
