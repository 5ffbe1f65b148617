// Game Execution
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

package game

import (
	"context"
	"fmt"
	"time"

	"go-c4t"
	"go-c4t/conf"
)

// Standings receive the intermediate and final state of a match
type Standings interface {
	Update(m *c4t.Match)
	Rank() []c4t.Standing
}

// Env is what a match needs from its surroundings
type Env struct {
	Conf  *conf.Conf
	Pub   c4t.Broadcaster
	Table Standings
}

// Publish an event on the channel of match M and on the dashboard
func (e *Env) publish(m *c4t.Match, ev c4t.Event) {
	e.Pub.Publish(m.Id, ev)
	e.Pub.Publish(c4t.Dashboard, ev)
}

// Run F while holding the lock of M.  The lock is released even if F
// panics.
func locked(m *c4t.Match, f func()) {
	m.Lock()
	defer m.Unlock()
	f()
}

type reply struct {
	col uint
	ok  bool
}

// Request a move from AGENT for the position on B, waiting at most
// TURN.  The result is always either a legal move or no move at all.
func Request(ctx context.Context, agent c4t.Agent, b *c4t.Board, turn time.Duration) (uint, bool) {
	ctx, cancel := context.WithTimeout(ctx, turn)
	defer cancel()

	pos := b.Position()
	ch := make(chan reply, 1)
	go func() {
		defer func() {
			if err := recover(); err != nil {
				c4t.Debug.Printf("Agent %v panicked: %v", agent, err)
				ch <- reply{}
			}
		}()
		col, ok := agent.Request(ctx, pos)
		ch <- reply{col: col, ok: ok}
	}()

	select {
	case <-ctx.Done():
		return 0, false
	case r := <-ch:
		if !r.ok || ctx.Err() != nil || !b.Legal(r.col) {
			return 0, false
		}
		return r.col, true
	}
}

// Result of a single game
type Result struct {
	Winner c4t.Winner
	Reason c4t.Reason
	Moves  uint
}

func (r Result) String() string {
	return fmt.Sprintf("%s after %d moves (%s)", r.Winner, r.Moves, r.Reason)
}

// Play the I'th game of match M.  AGENTS are indexed by side.  The
// game ends when the board is decided, filled or when the side to
// move runs out of time or fails to produce a legal move.
func Play(ctx context.Context, m *c4t.Match, i int, agents [2]c4t.Agent, env *Env) (res Result, err error) {
	dbg := env.Conf.Debug.Printf

	var (
		g *c4t.Game
		b *c4t.Board
	)
	locked(m, func() {
		g = m.Games[i]
		b = c4t.MakeBoard(g.First)
		g.Board = b.Copy()
		g.Status = c4t.IN_PROGRESS
	})

	env.publish(m, c4t.GameStarted{Match: m.Id, Game: g.Seq, First: g.First})

	lose := func(s c4t.Side, reason c4t.Reason) {
		res.Winner = c4t.Won(!s)
		res.Reason = reason
		dbg("Match %s, game %d: %s forfeits (%s)", m.Id, g.Seq, m.Team(s), reason)
		env.publish(m, c4t.TimeOut{
			Match:  m.Id,
			Game:   g.Seq,
			Team:   m.Team(s).Name,
			Reason: reason,
		})
	}

	res.Winner = c4t.NONE
	for !b.Over() && b.Count() < c4t.CELLS {
		side := b.Current()

		var exhausted bool
		locked(m, func() { exhausted = m.Clock.Exhausted(side) })
		if exhausted {
			lose(side, c4t.MATCH_TIME_EXCEEDED)
			break
		}

		start := time.Now()
		col, ok := Request(ctx, agents[side.Index()], b, env.Conf.TurnTime)
		elapsed := time.Since(start)

		var remaining time.Duration
		locked(m, func() {
			m.Clock.Charge(side, elapsed)
			remaining = m.Clock.Remaining(side)
		})

		if err = ctx.Err(); err != nil {
			return
		}
		if !ok {
			lose(side, c4t.TURN_TIME_EXCEEDED)
			break
		}

		b.Apply(col)
		res.Moves++
		dbg("Match %s, game %d: %s played %d (%s)", m.Id, g.Seq, m.Team(side), col, b)

		locked(m, func() {
			g.Moves = res.Moves
			g.Board = b.Copy()
		})

		env.publish(m, c4t.MoveMade{
			Match:     m.Id,
			Game:      g.Seq,
			Side:      side,
			Column:    col,
			Board:     b.Snapshot(),
			Remaining: remaining,
		})
	}

	if res.Winner == c4t.NONE {
		res.Reason = c4t.GAME_COMPLETED
		if s, ok := b.Winner(); ok {
			res.Winner = c4t.Won(s)
		} else {
			res.Winner = c4t.DRAW
		}
	}

	locked(m, func() {
		g.Status = c4t.FINISHED
		g.Winner = res.Winner
		g.Reason = res.Reason
		g.Moves = res.Moves
	})

	dbg("Match %s, game %d: %s", m.Id, g.Seq, res)
	return
}
