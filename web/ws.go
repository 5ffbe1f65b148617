// WebSocket Spectators
//
// Copyright (c) 2022, 2023  Philip Kaludercic
//
// This file is part of go-c4t.
//
// go-c4t is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// go-c4t is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with go-c4t. If not, see
// <http://www.gnu.org/licenses/>

package web

import (
	"net/http"
	"time"

	"go-c4t"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Spectators may connect from any dashboard
	CheckOrigin: func(*http.Request) bool { return true },
}

// Stream everything published on CHANNEL to a WebSocket connection,
// starting with the frame INITIAL.
func (s *web) spectate(w http.ResponseWriter, r *http.Request, channel string, initial []byte) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c4t.Debug.Printf("Unable to upgrade connection: %s", err)
		return
	}
	defer conn.Close()
	s.conf.Debug.Printf("New spectator on %s from %s", channel, conn.RemoteAddr())

	sub := s.hub.subscribe(channel)
	defer s.hub.unsubscribe(channel, sub)

	// Spectators are not expected to send anything, but reading is
	// necessary to process control frames and notice when the
	// connection is closed.
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer sub.close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(kind int, data []byte) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(kind, data) == nil
	}
	if initial != nil && !write(websocket.TextMessage, initial) {
		return
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case data := <-sub.send:
			if !write(websocket.TextMessage, data) {
				return
			}
		case <-ping.C:
			if !write(websocket.PingMessage, nil) {
				return
			}
		case <-sub.done:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closed")
			write(websocket.CloseMessage, msg)
			return
		}
	}
}

func (s *web) dashboard(w http.ResponseWriter, r *http.Request) {
	data, err := encode("standings", s.t.Standings())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.spectate(w, r, c4t.Dashboard, data)
}

func (s *web) watch(w http.ResponseWriter, r *http.Request) {
	m, err := s.t.Lookup(r.PathValue("id"))
	if err != nil {
		fail(w, err)
		return
	}
	data, err := encode("match_state", m.View())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	m.Watch()
	defer m.Unwatch()
	s.spectate(w, r, m.Id, data)
}
