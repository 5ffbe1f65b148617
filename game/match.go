// Match Execution
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

package game

import (
	"context"
	"time"

	"go-c4t"
	"go-c4t/standings"

	"github.com/pkg/errors"
)

// Check if the leader can no longer be caught up with.  The caller
// must hold the lock.
func decided(m *c4t.Match, played int) (c4t.Side, bool) {
	s, ok := m.Leader()
	if !ok {
		return s, false
	}
	diff := m.Points[s.Index()] - m.Points[(!s).Index()]
	return s, diff > float64(c4t.GAMES-played)
}

// Forfeit all games from I onwards because one or both teams have
// exhausted their time budget.  The caller must hold the lock.
func forfeit(m *c4t.Match, i int) (games []*c4t.Game) {
	var (
		ea = m.Clock.Exhausted(c4t.A)
		eb = m.Clock.Exhausted(c4t.B)
		w  = c4t.DRAW
	)
	switch {
	case ea && !eb:
		w = c4t.WIN_B
	case eb && !ea:
		w = c4t.WIN_A
	}

	for _, g := range m.Games[i:] {
		g.Status = c4t.FINISHED
		g.Winner = w
		g.Reason = c4t.MATCH_TIME_EXCEEDED
		m.Award(w)
		games = append(games, g)
	}
	return
}

// Decide the winner of a match that has been played out.  The caller
// must hold the lock.
func finalize(m *c4t.Match) {
	if s, ok := m.Leader(); ok {
		m.Winner = c4t.Won(s)
		return
	}

	ca, cb := m.Clock.Consumed(c4t.A), m.Clock.Consumed(c4t.B)
	switch {
	case ca < cb:
		m.Winner = c4t.WIN_A
	case cb < ca:
		m.Winner = c4t.WIN_B
	default:
		m.Winner = c4t.DRAW
	}
}

// Pause for D, unless CTX is cancelled first
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// PlayMatch plays all games of match M between AGENTS, indexed by
// side.  The standings are updated after every game and once more
// when the match has finished.  Only a team running out of time can
// cut a match short, in which case it loses all remaining games.
//
// An error is only returned if CTX was cancelled, in which case the
// match is left unfinished.
func PlayMatch(ctx context.Context, m *c4t.Match, agents [2]c4t.Agent, env *Env) error {
	log := env.Conf.Log

	locked(m, func() {
		m.Prepare()
		m.Status = c4t.IN_PROGRESS
		m.Start = time.Now()
	})

	env.publish(m, c4t.MatchStarted{
		Match: m.Id,
		Round: m.Round,
		TeamA: m.A.Name,
		TeamB: m.B.Name,
	})

	for i := 0; i < c4t.GAMES; i++ {
		var (
			early     *c4t.MatchDecided
			lost      []*c4t.Game
			points    [2]float64
			exhausted bool
		)
		locked(m, func() {
			if !m.Clock.Validate() {
				log.Printf("Match %s: corrected invalid clock state", m.Id)
			}
			if s, ok := decided(m, i); ok && i > 0 && !m.Decided {
				m.Decided = true
				m.Winner = c4t.Won(s)
				early = &c4t.MatchDecided{
					Match:   m.Id,
					Winner:  m.Winner,
					PointsA: m.Points[0],
					PointsB: m.Points[1],
				}
			}
			exhausted = m.Clock.Exhausted(c4t.A) || m.Clock.Exhausted(c4t.B)
			if exhausted {
				lost = forfeit(m, i)
			}
			points = m.Points
		})

		if early != nil {
			env.publish(m, *early)
		}
		if exhausted {
			for _, g := range lost {
				env.publish(m, c4t.GameCompleted{
					Match:   m.Id,
					Game:    g.Seq,
					Winner:  g.Winner,
					Reason:  g.Reason,
					PointsA: points[0],
					PointsB: points[1],
				})
			}
			log.Print(errors.Wrapf(c4t.ErrMatchTimeExhausted,
				"match %s: %d games forfeited", m.Id, len(lost)))
			break
		}

		res, err := Play(ctx, m, i, agents, env)
		if err != nil {
			return err
		}

		var seq uint
		locked(m, func() {
			m.Award(res.Winner)
			points = m.Points
			seq = m.Games[i].Seq
		})

		env.Table.Update(m)
		env.publish(m, c4t.GameCompleted{
			Match:   m.Id,
			Game:    seq,
			Winner:  res.Winner,
			Reason:  res.Reason,
			Moves:   res.Moves,
			PointsA: points[0],
			PointsB: points[1],
		})
		env.Pub.Publish(c4t.Dashboard, c4t.StandingsUpdated{
			Standings: env.Table.Rank(),
		})

		if i < c4t.GAMES-1 {
			if err := Pause(ctx, env.Conf.GamePause); err != nil {
				return err
			}
		}
	}

	if err := standings.Reconcile(m); err != nil {
		log.Print(err)
	}

	var done c4t.MatchFinished
	locked(m, func() {
		finalize(m)
		m.Status = c4t.FINISHED
		m.End = time.Now()
		done = c4t.MatchFinished{
			Match:   m.Id,
			Winner:  m.Winner,
			PointsA: m.Points[0],
			PointsB: m.Points[1],
		}
	})

	env.Table.Update(m)
	env.publish(m, done)
	env.Pub.Publish(c4t.Dashboard, c4t.StandingsUpdated{
		Standings: env.Table.Rank(),
	})
	log.Printf("Match %s: %s %.1f - %.1f %s (%s)",
		m.Id, m.A, done.PointsA, done.PointsB, m.B, done.Winner)
	return nil
}
