package config

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDefault(t *testing.T) {
	Convey("Default carries the spec's stock world tuning", t, func() {
		cfg := Default()
		So(cfg.World.ShootHeat, ShouldEqual, 26)
		So(cfg.World.DeathHeat, ShouldEqual, 300)
		So(cfg.TickHz, ShouldEqual, float64(30))
	})
}

func TestLoadOverridesDefaults(t *testing.T) {
	Convey("Given a YAML file overriding only a couple of fields", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "arena.yaml")
		contents := "listen_addr: \":9090\"\nworld:\n  shoot_heat: 40\n"
		So(os.WriteFile(path, []byte(contents), 0o644), ShouldBeNil)

		Convey("Load merges the overrides onto Default", func() {
			cfg, err := Load(path)
			So(err, ShouldBeNil)
			So(cfg.ListenAddr, ShouldEqual, ":9090")
			So(cfg.World.ShootHeat, ShouldEqual, 40)
			// Untouched fields retain their spec-default values.
			So(cfg.World.DeathHeat, ShouldEqual, 300)
			So(cfg.TickHz, ShouldEqual, float64(30))
		})
	})

	Convey("A missing file returns an error", t, func() {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		So(err, ShouldNotBeNil)
	})
}
