// Event Broadcasting
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
	"encoding/json"
	"sync"

	"go-c4t"
)

// Number of frames that may be queued for a single spectator, before
// further frames are dropped
const QUEUE = 64

type frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func encode(kind string, data any) ([]byte, error) {
	return json.Marshal(frame{Type: kind, Data: data})
}

type subscriber struct {
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.done) })
}

// Hub distributes events to everyone subscribed to a channel
type Hub struct {
	lock sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

var _ c4t.Broadcaster = &Hub{}

func MakeHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]struct{})}
}

// Publish never blocks.  Subscribers that cannot keep up lose frames.
func (h *Hub) Publish(channel string, ev c4t.Event) {
	data, err := encode(ev.Kind(), ev)
	if err != nil {
		c4t.Debug.Printf("Failed to encode %s: %s", ev.Kind(), err)
		return
	}

	h.lock.Lock()
	defer h.lock.Unlock()
	for s := range h.subs[channel] {
		select {
		case s.send <- data:
		default:
			c4t.Debug.Printf("Dropped %s frame on %s", ev.Kind(), channel)
		}
	}
}

// Close disconnects everyone subscribed to CHANNEL
func (h *Hub) Close(channel string) {
	h.lock.Lock()
	defer h.lock.Unlock()
	for s := range h.subs[channel] {
		s.close()
	}
	delete(h.subs, channel)
}

func (h *Hub) subscribe(channel string) *subscriber {
	s := &subscriber{
		send: make(chan []byte, QUEUE),
		done: make(chan struct{}),
	}

	h.lock.Lock()
	defer h.lock.Unlock()
	if h.subs[channel] == nil {
		h.subs[channel] = make(map[*subscriber]struct{})
	}
	h.subs[channel][s] = struct{}{}
	return s
}

func (h *Hub) unsubscribe(channel string, s *subscriber) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if subs, ok := h.subs[channel]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(h.subs, channel)
		}
	}
	s.close()
}

// Count returns the number of subscribers of CHANNEL
func (h *Hub) Count(channel string) int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.subs[channel])
}
