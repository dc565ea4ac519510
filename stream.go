package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const feedWriteWait = time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StateFeed pushes the current state, then a fresh snapshot after every
// command and failsafe change, until either side goes away.
func (api *API) StateFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print("upgrade:", err)
		return
	}
	defer conn.Close()

	// subscribe before the first snapshot so nothing is missed in between
	sub := api.Feed.Subscribe()
	defer api.Feed.Unsubscribe(sub)

	// the feed is one way; reading only notices the client leaving
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := api.writeFeed(conn, api.Device.Snapshot()); err != nil {
		log.Println("write:", err)
		return
	}

	for {
		select {
		case msg, ok := <-sub:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "robot shutting down"),
					time.Now().Add(feedWriteWait))
				return
			}
			if err := api.writeFeed(conn, msg); err != nil {
				log.Println("write:", err)
				return
			}
		case <-gone:
			return
		}
	}
}

func (api *API) writeFeed(conn *websocket.Conn, msg interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
	return conn.WriteJSON(msg)
}
