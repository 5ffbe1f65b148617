// Match Model
//
// Copyright (c) 2023  Philip Kaludercic
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
	"sync"
	"time"
)

// Number of games played in every match
const GAMES = 4

type Game struct {
	Seq     uint   // 1-based position in the match
	First   Side   // side that makes the first move
	Status  Status // progress of the game
	Winner  Winner
	Reason  Reason
	Moves   uint
	Board   *Board
	Counted bool // result has been added to the win/loss statistics
}

// Match is a series of games between two teams.  All fields except
// for the identifying ones may only be accessed while holding the
// lock.
type Match struct {
	sync.Mutex

	Id    string
	Round uint
	A, B  *Team

	Status  Status
	Games   []*Game
	Points  [2]float64
	Winner  Winner
	Decided bool // the winner was known before all games were played
	Clock   *Clock
	Start   time.Time
	End     time.Time

	// What has already been passed on to the standings
	Applied struct {
		Points   [2]float64
		Consumed [2]time.Duration
		Played   bool
	}

	spectators int
}

type Round struct {
	Index   uint
	Matches []*Match
}

func MakeMatch(id string, round uint, a, b *Team, clock *Clock) *Match {
	return &Match{
		Id:    id,
		Round: round,
		A:     a,
		B:     b,
		Clock: clock,
	}
}

// Team returns the team playing on side S
func (m *Match) Team(s Side) *Team {
	if s == B {
		return m.B
	}
	return m.A
}

// Prepare resets the match into a fresh state with GAMES scheduled
// games, alternating the first move.  The standings baseline is not
// touched.  The caller must hold the lock.
func (m *Match) Prepare() {
	m.Status = SCHEDULED
	m.Points = [2]float64{}
	m.Winner = NONE
	m.Decided = false
	m.Start, m.End = time.Time{}, time.Time{}
	m.Clock.Reset()
	m.Games = make([]*Game, GAMES)
	for i := range m.Games {
		first := A
		if i%2 == 1 {
			first = B
		}
		m.Games[i] = &Game{
			Seq:   uint(i + 1),
			First: first,
			Board: MakeBoard(first),
		}
	}
}

// Completed returns the number of finished games.  The caller must
// hold the lock.
func (m *Match) Completed() (n uint) {
	for _, g := range m.Games {
		if g.Status == FINISHED {
			n++
		}
	}
	return
}

// Award the points of a game result.  The caller must hold the lock.
func (m *Match) Award(w Winner) {
	switch w {
	case WIN_A:
		m.Points[0] += 1
	case WIN_B:
		m.Points[1] += 1
	case DRAW:
		m.Points[0] += 0.5
		m.Points[1] += 0.5
	}
}

// Leader returns the side with more points
func (m *Match) Leader() (Side, bool) {
	switch {
	case m.Points[0] > m.Points[1]:
		return A, true
	case m.Points[1] > m.Points[0]:
		return B, true
	}
	return A, false
}

func (m *Match) Watch() {
	m.Lock()
	m.spectators++
	m.Unlock()
}

func (m *Match) Unwatch() {
	m.Lock()
	if m.spectators > 0 {
		m.spectators--
	}
	m.Unlock()
}

type GameView struct {
	Seq    uint    `json:"seq"`
	First  Side    `json:"first"`
	Status Status  `json:"status"`
	Winner Winner  `json:"winner"`
	Reason Reason  `json:"reason"`
	Moves  uint    `json:"moves"`
	Board  [][]int `json:"board"`
}

type MatchView struct {
	Id         string        `json:"id"`
	Round      uint          `json:"round"`
	TeamA      string        `json:"team_a"`
	TeamB      string        `json:"team_b"`
	Status     Status        `json:"status"`
	PointsA    float64       `json:"points_a"`
	PointsB    float64       `json:"points_b"`
	Winner     Winner        `json:"winner"`
	Decided    bool          `json:"decided"`
	RemainingA time.Duration `json:"remaining_a"`
	RemainingB time.Duration `json:"remaining_b"`
	ConsumedA  time.Duration `json:"consumed_a"`
	ConsumedB  time.Duration `json:"consumed_b"`
	Spectators int           `json:"spectators"`
	Start      time.Time     `json:"start,omitempty"`
	End        time.Time     `json:"end,omitempty"`
	Games      []GameView    `json:"games"`
}

// View returns a consistent copy of the match for spectators
func (m *Match) View() *MatchView {
	m.Lock()
	defer m.Unlock()

	v := &MatchView{
		Id:         m.Id,
		Round:      m.Round,
		TeamA:      m.A.Name,
		TeamB:      m.B.Name,
		Status:     m.Status,
		PointsA:    m.Points[0],
		PointsB:    m.Points[1],
		Winner:     m.Winner,
		Decided:    m.Decided,
		RemainingA: m.Clock.Remaining(A),
		RemainingB: m.Clock.Remaining(B),
		ConsumedA:  m.Clock.Consumed(A),
		ConsumedB:  m.Clock.Consumed(B),
		Spectators: m.spectators,
		Start:      m.Start,
		End:        m.End,
	}
	for _, g := range m.Games {
		v.Games = append(v.Games, GameView{
			Seq:    g.Seq,
			First:  g.First,
			Status: g.Status,
			Winner: g.Winner,
			Reason: g.Reason,
			Moves:  g.Moves,
			Board:  g.Board.Snapshot(),
		})
	}
	return v
}
