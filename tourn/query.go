// Tournament Queries
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

package tourn

import (
	"go-c4t"

	"github.com/pkg/errors"
)

type StatusView struct {
	State   State  `json:"status"`
	Teams   int    `json:"teams"`
	Rounds  int    `json:"rounds"`
	Played  uint   `json:"played"`
	Running []uint `json:"running"`
}

type MatchSummary struct {
	Id      string     `json:"id"`
	TeamA   string     `json:"team_a"`
	TeamB   string     `json:"team_b"`
	Status  c4t.Status `json:"status"`
	Winner  c4t.Winner `json:"winner"`
	PointsA float64    `json:"points_a"`
	PointsB float64    `json:"points_b"`
}

type RoundView struct {
	Index   uint           `json:"index"`
	Status  c4t.Status     `json:"status"`
	Matches []MatchSummary `json:"matches"`
}

func (t *Tournament) Status() StatusView {
	t.lock.RLock()
	defer t.lock.RUnlock()

	v := StatusView{
		State:   t.state,
		Teams:   len(t.teams),
		Rounds:  len(t.rounds),
		Played:  t.played,
		Running: []uint{},
	}
	for n := range t.rounds {
		if t.busy[uint(n)] {
			v.Running = append(v.Running, uint(n))
		}
	}
	return v
}

// Standings returns the current leaderboard
func (t *Tournament) Standings() []c4t.Standing {
	return t.table.Rank()
}

func (t *Tournament) Teams() []*c4t.Team {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return append([]*c4t.Team(nil), t.teams...)
}

// Schedule returns an overview of all rounds and their matches
func (t *Tournament) Schedule() []RoundView {
	t.lock.RLock()
	defer t.lock.RUnlock()

	rounds := make([]RoundView, 0, len(t.rounds))
	for _, r := range t.rounds {
		v := RoundView{Index: r.Index, Status: c4t.SCHEDULED}
		switch {
		case t.busy[r.Index]:
			v.Status = c4t.IN_PROGRESS
		case r.Index < t.played:
			v.Status = c4t.FINISHED
		}
		for _, m := range r.Matches {
			m.Lock()
			v.Matches = append(v.Matches, MatchSummary{
				Id:      m.Id,
				TeamA:   m.A.Name,
				TeamB:   m.B.Name,
				Status:  m.Status,
				Winner:  m.Winner,
				PointsA: m.Points[0],
				PointsB: m.Points[1],
			})
			m.Unlock()
		}
		rounds = append(rounds, v)
	}
	return rounds
}

// Lookup returns the match with the identifier ID
func (t *Tournament) Lookup(id string) (*c4t.Match, error) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	m, ok := t.matches[id]
	if !ok {
		return nil, errors.Wrap(c4t.ErrMatchNotFound, id)
	}
	return m, nil
}

// Match returns a snapshot of the match with the identifier ID
func (t *Tournament) Match(id string) (*c4t.MatchView, error) {
	m, err := t.Lookup(id)
	if err != nil {
		return nil, err
	}
	return m.View(), nil
}

// Rounds returns the schedule, for use by tests and reports
func (t *Tournament) Rounds() []*c4t.Round {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return append([]*c4t.Round(nil), t.rounds...)
}

// Wait blocks until all rounds have been played
func (t *Tournament) Wait() {
	t.wait.Wait()
}
