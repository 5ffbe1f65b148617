// Agent Protocol
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

package proto

import (
	"net/url"
	"strings"

	"go-c4t"

	"github.com/pkg/errors"
)

// Prefix for endpoints that are served by a built-in agent
const BOT = "bot:"

// Request sent to an agent
type request struct {
	Board   [][]int `json:"board"`
	Player  int     `json:"current_player"`
	Legal   []uint  `json:"valid_moves"`
	Opening bool    `json:"is_new_game"`
}

// Response expected from an agent.  The move is decoded as a number
// so that fractional or out-of-range values can be rejected.
type response struct {
	Move *float64 `json:"move"`
}

func encode(pos *c4t.Position) *request {
	legal := pos.Legal
	if legal == nil {
		legal = []uint{}
	}
	return &request{
		Board:   pos.Board,
		Player:  pos.Player,
		Legal:   legal,
		Opening: pos.Opening,
	}
}

// Extract a move from a response, that must be an integer and one of
// the legal moves.
func (r *response) column(legal []uint) (uint, error) {
	if r.Move == nil {
		return 0, errors.Wrap(c4t.ErrEndpointInvalidResponse, "no move")
	}
	m := *r.Move
	if m != float64(int64(m)) || m < 0 {
		return 0, errors.Wrapf(c4t.ErrEndpointInvalidResponse, "move %v is not a column", m)
	}
	for _, l := range legal {
		if float64(l) == m {
			return l, nil
		}
	}
	return 0, errors.Wrapf(c4t.ErrEndpointInvalidResponse, "move %v is illegal", m)
}

// Endpoint parses the address an agent was registered with.  Bare
// addresses are assumed to use HTTPS.
func Endpoint(addr string) (*url.URL, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.Wrap(c4t.ErrInvalidTeam, "empty endpoint")
	}
	if !strings.Contains(addr, "://") {
		addr = "https://" + addr
	}

	u, err := url.Parse(addr)
	if err != nil {
		return nil, errors.Wrap(c4t.ErrInvalidTeam, err.Error())
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return nil, errors.Wrapf(c4t.ErrInvalidTeam, "unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.Wrap(c4t.ErrInvalidTeam, "missing host")
	}
	return u, nil
}

// Alternate returns a copy of U using the other HTTP scheme
func alternate(u *url.URL) *url.URL {
	v := *u
	if u.Scheme == "https" {
		v.Scheme = "http"
	} else {
		v.Scheme = "https"
	}
	return &v
}
