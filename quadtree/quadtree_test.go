package quadtree

import (
	"testing"

	"github.com/Grissess/RANKS/geometry"
	. "github.com/smartystreets/goconvey/convey"
)

func TestQuadtreeQuery(t *testing.T) {
	Convey("Given a tree built over a 100x100 bound with many points", t, func() {
		root := FromBound[string](geometry.NewAABB(geometry.Pair{}, geometry.Pair{X: 100, Y: 100})).Build()

		pts := map[string]geometry.Pair{
			"a": {X: 1, Y: 1},
			"b": {X: 99, Y: 99},
			"c": {X: 1, Y: 99},
			"d": {X: 99, Y: 1},
			"e": {X: 50, Y: 50},
			"f": {X: 51, Y: 50},
			"g": {X: 50, Y: 51},
		}
		for name, p := range pts {
			So(root.AddPt(p, name), ShouldBeTrue)
		}

		Convey("Every point inserted and every AABB containing it yields it exactly once", func() {
			for name, p := range pts {
				box := geometry.Around(p, geometry.Pair{X: 2, Y: 2})
				results := root.Query(box)
				count := 0
				for _, r := range results {
					if r.Value == name {
						count++
					}
					So(box.Contains(r.Pos), ShouldBeTrue)
				}
				So(count, ShouldEqual, 1)
			}
		})

		Convey("A query box covering everything returns every point", func() {
			results := root.Query(geometry.NewAABB(geometry.Pair{}, geometry.Pair{X: 100, Y: 100}))
			So(len(results), ShouldEqual, len(pts))
		})

		Convey("A disjoint query box returns nothing", func() {
			results := root.Query(geometry.NewAABB(geometry.Pair{X: 1000, Y: 1000}, geometry.Pair{X: 1, Y: 1}))
			So(len(results), ShouldEqual, 0)
		})

		Convey("A point outside the root bound is refused", func() {
			So(root.AddPt(geometry.Pair{X: -1, Y: -1}, "outside"), ShouldBeFalse)
		})
	})

	Convey("Given a leaf filled past capacity", t, func() {
		root := FromBound[int](geometry.NewAABB(geometry.Pair{}, geometry.Pair{X: 10, Y: 10})).Build()
		for i := 0; i < DefaultMaxData+3; i++ {
			So(root.AddPt(geometry.Pair{X: float32(i % 10), Y: float32(i % 10)}, i), ShouldBeTrue)
		}

		Convey("It subdivides and all points remain queryable", func() {
			results := root.Query(geometry.NewAABB(geometry.Pair{}, geometry.Pair{X: 10, Y: 10}))
			So(len(results), ShouldEqual, DefaultMaxData+3)
		})
	})
}
