// RANKS runs a closed arena of sandboxed tank programs against each
// other: each tick, every tank's guest program is resumed up to its
// instruction budget, upcalls are dispatched against the world, and
// the resulting snapshot is broadcast to any connected spectators.
//
// Loading guest programs from disk, a richer CLI, and a prescribed
// wire format are explicitly out of scope (spec.md §1 Non-goals); this
// entrypoint instead assembles a small demonstration roster directly
// from the guestvm instruction builders.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	channerics "github.com/niceyeti/channerics/channels"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Grissess/RANKS/config"
	"github.com/Grissess/RANKS/geometry"
	"github.com/Grissess/RANKS/guestvm"
	"github.com/Grissess/RANKS/metrics"
	"github.com/Grissess/RANKS/snapshot"
	"github.com/Grissess/RANKS/tank"
	"github.com/Grissess/RANKS/transport"
	"github.com/Grissess/RANKS/upcall"
	"github.com/Grissess/RANKS/world"
)

var (
	configPath *string
	listenAddr *string
)

func init() {
	configPath = flag.String("config", "", "path to an arena config YAML file (optional)")
	listenAddr = flag.String("addr", "", "override the config's listen_addr")
	flag.Parse()
}

func loadConfig() (config.Arena, error) {
	if *configPath == "" {
		return config.Default(), nil
	}
	return config.Load(*configPath)
}

// demoRoster builds a small standing roster: a sentry that turns to a
// fixed heading, steps forward once and then idles, and a sniper that
// scans once, then fires once blind down its aim line — useful for
// exercising the arena end to end without a program loader.
func demoRoster(w *world.World) {
	sentry := mustVM([]guestvm.Instruction{
		guestvm.PushF32(0.05),
		guestvm.CallUpcall(upcall.Turn),
		guestvm.CallUpcall(upcall.Forward),
		guestvm.Yield(),
		guestvm.Jump(3),
	})
	sniper := mustVM([]guestvm.Instruction{
		guestvm.PushF32(0),
		guestvm.PushF32(6.2831855),
		guestvm.CallUpcall(upcall.Scan),
		guestvm.Pop(),
		guestvm.CallUpcall(upcall.Fire),
		guestvm.Yield(),
		guestvm.Jump(5),
	})

	w.AddTank(tank.New(0, geometry.Pair{X: 0, Y: 0}, sentry))
	w.AddTank(tank.New(1, geometry.Pair{X: 100, Y: 0}, sniper))
}

func mustVM(ins []guestvm.Instruction) *guestvm.VM {
	vm, err := guestvm.New(ins)
	if err != nil {
		panic(fmt.Sprintf("main: invalid demo program: %v", err))
	}
	return vm
}

func tickPeriod(hz float64) time.Duration {
	if hz <= 0 {
		hz = 30
	}
	return time.Duration(float64(time.Second) / hz)
}

func runApp() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("main: loading config: %w", err)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	w := world.New(cfg.World)
	demoRoster(w)

	collectors := metrics.New()
	reg := prometheus.NewRegistry()
	collectors.MustRegister(reg)
	step := collectors.Attach(w)

	broadcaster := transport.NewBroadcaster(cfg.ListenAddr)

	errs := make(chan error, 1)
	go func() {
		errs <- broadcaster.ListenAndServe(ctx)
	}()

	var tick uint64
	ticker := channerics.NewTicker(ctx.Done(), tickPeriod(cfg.TickHz))
	for {
		select {
		case <-ctx.Done():
			return <-errs
		case err := <-errs:
			return err
		case <-ticker:
			if w.Finished() {
				continue
			}
			step()
			broadcaster.Publish(snapshot.Export(w, tick))
			tick++
		}
	}
}

func main() {
	if err := runApp(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
