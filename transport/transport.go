// Package transport is the arena's out-of-core spectator surface: a
// websocket fanout server pushing the latest snapshot.Snapshot to any
// number of connected clients, plus a Prometheus /metrics route. It is
// a consumer of snapshot.Export and never imported by the core
// simulation packages (spec.md §1: "the core exposes a serializable
// per-tick snapshot; it does not implement transport").
//
// Adapted from the teacher's server/server.go (ping/pong handling,
// write-deadline discipline) and server/fastview/client.go (the
// errgroup-based pump pairing) — generalized from "one client, one
// page" to an arbitrary number of concurrently registered spectators,
// each fed from its own single-slot channel so a slow client misses a
// tick's snapshot rather than stalling the tick loop's Publish call.
//
// Unlike the teacher, each connection here has exactly one writer: the
// ping ticker and the snapshot publisher are folded into a single
// write loop instead of racing as separate goroutines, so there is
// nothing to serialize and no semaphore-guarded websock wrapper is
// needed the way server/fastview/client.go required one to arbitrate
// its three independent pumps.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/Grissess/RANKS/snapshot"
)

const (
	writeWait      = 1 * time.Second
	pubResolution  = 100 * time.Millisecond
	pingResolution = 200 * time.Millisecond
	pongWait       = pingResolution * 4
)

var upgrader = websocket.Upgrader{}

// ErrPongDeadlineExceeded indicates a spectator stopped answering pings.
var ErrPongDeadlineExceeded = errors.New("transport: client disconnect, pong deadline exceeded")

// Broadcaster serves the arena's latest Snapshot to every connected
// spectator. Publish is called once per tick from the simulation's own
// goroutine; it never blocks on a slow client.
type Broadcaster struct {
	addr   string
	router *mux.Router

	mu      sync.Mutex
	clients map[chan snapshot.Snapshot]struct{}
}

// NewBroadcaster builds a Broadcaster listening on addr, with routes
// for the spectator websocket (/ws) and Prometheus scraping (/metrics).
func NewBroadcaster(addr string) *Broadcaster {
	b := &Broadcaster{
		addr:    addr,
		clients: make(map[chan snapshot.Snapshot]struct{}),
	}
	r := mux.NewRouter()
	r.HandleFunc("/ws", b.serveWebsocket)
	r.Handle("/metrics", promhttp.Handler())
	b.router = r
	return b
}

// ListenAndServe runs the HTTP server until ctx is cancelled.
func (b *Broadcaster) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: b.addr, Handler: b.router}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("transport: serve: %w", err)
	}
	return nil
}

// Publish fans snap out to every registered client. A client whose
// single-slot buffer is still full from the previous tick simply
// misses this one rather than backing up the sender.
func (b *Broadcaster) Publish(snap snapshot.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.clients {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (b *Broadcaster) register() chan snapshot.Snapshot {
	ch := make(chan snapshot.Snapshot, 1)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broadcaster) unregister(ch chan snapshot.Snapshot) {
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
	close(ch)
}

func (b *Broadcaster) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	updates := b.register()
	defer b.unregister(updates)

	sp := &spectator{conn: conn, updates: updates}
	if err := sp.run(r.Context()); err != nil && !isClosure(err) {
		fmt.Println("transport: spectator disconnected:", err)
	}
}

// spectator pumps one peer's connection: a read goroutine that drains
// frames so gorilla/websocket's internal pong handling fires (the
// arena never expects client-sent application data), and a write loop
// that owns the connection's writer, interleaving liveness pings with
// the next published snapshot.Snapshot. A third goroutine closes the
// connection as soon as either pump exits, which is what unblocks the
// read pump's blocking ReadMessage call on a write-side failure (a
// pong deadline, say) without needing the peer to send anything.
type spectator struct {
	conn    *websocket.Conn
	updates <-chan snapshot.Snapshot
}

func (sp *spectator) run(ctx context.Context) error {
	pong := make(chan struct{}, 1)
	sp.conn.SetPongHandler(func(string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return sp.readLoop() })
	group.Go(func() error { return sp.writeLoop(gctx, pong) })
	group.Go(func() error {
		<-gctx.Done()
		sp.conn.Close()
		return nil
	})
	err := group.Wait()

	_ = sp.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = sp.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	sp.conn.Close()
	return err
}

func (sp *spectator) readLoop() error {
	for {
		if _, _, err := sp.conn.ReadMessage(); err != nil {
			return err
		}
	}
}

// writeLoop is the connection's sole writer: a ping tick keeps the
// peer's liveness timer fresh, and each arriving snapshot is forwarded
// no faster than pubResolution, dropping ticks a slow peer can't keep
// up with rather than buffering them.
func (sp *spectator) writeLoop(ctx context.Context, pong <-chan struct{}) error {
	pinger := channerics.NewTicker(ctx.Done(), pingResolution)
	lastPong := time.Now()
	lastPublish := time.Time{}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pong:
			lastPong = time.Now()
		case <-pinger:
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}
			if err := sp.ping(); err != nil {
				return err
			}
		case snap, ok := <-sp.updates:
			if !ok {
				return nil
			}
			if time.Since(lastPublish) < pubResolution {
				continue
			}
			lastPublish = time.Now()
			if err := sp.publish(snap); err != nil {
				return err
			}
		}
	}
}

func (sp *spectator) ping() error {
	err := sp.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
	if err != nil && isError(err) {
		return fmt.Errorf("transport: ping: %w", err)
	}
	return nil
}

func (sp *spectator) publish(snap snapshot.Snapshot) error {
	if err := sp.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("transport: set write deadline: %w", err)
	}
	if err := sp.conn.WriteJSON(snap); err != nil && isError(err) {
		return fmt.Errorf("transport: publish snapshot: %w", err)
	}
	return nil
}

func isError(err error) bool {
	return err != nil && websocket.IsUnexpectedCloseError(
		err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
