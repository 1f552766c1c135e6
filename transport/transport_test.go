package transport

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/Grissess/RANKS/snapshot"
)

func TestBroadcasterPublishesToConnectedSpectators(t *testing.T) {
	Convey("Given a running Broadcaster and a connected websocket spectator", t, func() {
		b := NewBroadcaster(":0")
		srv := httptest.NewServer(b.router)
		defer srv.Close()

		wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		So(err, ShouldBeNil)
		defer conn.Close()

		// Give serveWebsocket's goroutine time to register the client.
		time.Sleep(50 * time.Millisecond)

		Convey("Publish delivers the snapshot as JSON", func() {
			b.Publish(snapshot.Snapshot{Tick: 42})

			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			var got snapshot.Snapshot
			err := conn.ReadJSON(&got)
			So(err, ShouldBeNil)
			So(got.Tick, ShouldEqual, uint64(42))
		})
	})
}

func TestRegisterUnregister(t *testing.T) {
	Convey("Given a fresh Broadcaster", t, func() {
		b := NewBroadcaster(":0")

		Convey("register adds a channel that Publish can reach", func() {
			ch := b.register()
			So(b.clients, ShouldContainKey, ch)

			Convey("unregister removes and closes it", func() {
				b.unregister(ch)
				So(b.clients, ShouldNotContainKey, ch)
				_, ok := <-ch
				So(ok, ShouldBeFalse)
			})
		})
	})
}
