// Common Interfaces and constants
//
// Copyright (c) 2021, 2022, 2023  Philip Kaludercic
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

package c4t

import (
	"context"
	"fmt"
	"time"
)

type (
	Side   bool
	Status uint8
	Winner uint8
	Reason uint8
)

const (
	// Possible sides of a match
	A, B Side = false, true
)

const (
	SCHEDULED Status = iota
	IN_PROGRESS
	FINISHED
)

const (
	NONE Winner = iota
	WIN_A
	WIN_B
	DRAW
	ERROR
)

const (
	GAME_COMPLETED Reason = iota
	TURN_TIME_EXCEEDED
	MATCH_TIME_EXCEEDED
)

func (s Side) String() string {
	switch s {
	case A:
		return "team_a"
	case B:
		return "team_b"
	}
	panic("Illegal side")
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Index is used to address per-side arrays
func (s Side) Index() int {
	if s == B {
		return 1
	}
	return 0
}

// Won returns the winner representing a win for S
func Won(s Side) Winner {
	if s == B {
		return WIN_B
	}
	return WIN_A
}

func (s Status) String() string {
	switch s {
	case SCHEDULED:
		return "scheduled"
	case IN_PROGRESS:
		return "in_progress"
	case FINISHED:
		return "finished"
	default:
		panic(fmt.Sprintf("Illegal status: %d", s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (w Winner) String() string {
	switch w {
	case NONE:
		return "none"
	case WIN_A:
		return "team_a"
	case WIN_B:
		return "team_b"
	case DRAW:
		return "draw"
	case ERROR:
		return "error"
	default:
		panic(fmt.Sprintf("Illegal winner: %d", w))
	}
}

func (w Winner) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// Side returns the side that won, if any
func (w Winner) Side() (Side, bool) {
	switch w {
	case WIN_A:
		return A, true
	case WIN_B:
		return B, true
	}
	return A, false
}

func (r Reason) String() string {
	switch r {
	case GAME_COMPLETED:
		return "game_completed"
	case TURN_TIME_EXCEEDED:
		return "turn_time_exceeded"
	case MATCH_TIME_EXCEEDED:
		return "match_time_exceeded"
	default:
		panic(fmt.Sprintf("Illegal reason: %d", r))
	}
}

func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

type Team struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
}

func (t *Team) String() string { return t.Name }

// Position is what an agent is shown when asked for a move
type Position struct {
	Board   [][]int // Rows from top to bottom, 0 is empty
	Player  int     // Piece of the side to move (1 or 2)
	Legal   []uint  // Columns that may be played
	Opening bool    // At most one piece has been placed
}

// Agent is anything that can choose a column
//
// The second return value is false if no move was produced.
// Implementations must respect the deadline of CTX.
type Agent interface {
	Request(ctx context.Context, pos *Position) (uint, bool)
}

// Rules is the capability the game runner needs from a board
type Rules interface {
	Reset(first Side)
	Legal(col uint) bool
	Moves() []uint
	Apply(col uint) bool
	Over() bool
	Winner() (Side, bool)
	Opening() bool
	Current() Side
	Snapshot() [][]int
}

// Broadcaster pushes events to whoever is listening on a channel.
//
// Publish must never block on slow or absent listeners.
type Broadcaster interface {
	Publish(channel string, ev Event)
	Close(channel string)
}

// Name of the channel all dashboard listeners subscribe to
const Dashboard = "dashboard"

// Registry stores teams across restarts
type Registry interface {
	Put(ctx context.Context, t *Team) error
	List(ctx context.Context) ([]*Team, error)
	Clear(ctx context.Context) error
}

// Standing is one row of the leaderboard
type Standing struct {
	Team     string        `json:"team"`
	Points   float64       `json:"points"`
	Consumed time.Duration `json:"consumed"`
	Wins     uint          `json:"wins"`
	Losses   uint          `json:"losses"`
	Draws    uint          `json:"draws"`
	Played   uint          `json:"played"`
}
