// Tournament Standings
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

package standings

import (
	"sort"
	"sync"
	"time"

	"go-c4t"

	"github.com/pkg/errors"
)

// Table accumulates the results of all matches.  Matches are applied
// incrementally, by only adding the difference between the current
// state of a match and what was previously applied.  Applying a match
// that has not changed is therefore a no-op.
//
// When a match and the table have to be locked at the same time, the
// match is always locked first.
type Table struct {
	lock sync.RWMutex
	rows map[string]*c4t.Standing
}

func MakeTable() *Table {
	return &Table{rows: make(map[string]*c4t.Standing)}
}

// Add ensures that TEAM has an entry, even before it has played
func (t *Table) Add(team *c4t.Team) {
	t.lock.Lock()
	t.row(team.Name)
	t.lock.Unlock()
}

// Clear removes all entries
func (t *Table) Clear() {
	t.lock.Lock()
	t.rows = make(map[string]*c4t.Standing)
	t.lock.Unlock()
}

// The caller must hold the write lock
func (t *Table) row(name string) *c4t.Standing {
	r, ok := t.rows[name]
	if !ok {
		r = &c4t.Standing{Team: name}
		t.rows[name] = r
	}
	return r
}

// Count the result of G into the statistics
func (t *Table) count(m *c4t.Match, g *c4t.Game, d int) {
	a, b := t.row(m.A.Name), t.row(m.B.Name)
	tally := func(n *uint) {
		if d > 0 {
			*n++
		} else if *n > 0 {
			*n--
		}
	}

	switch g.Winner {
	case c4t.WIN_A:
		tally(&a.Wins)
		tally(&b.Losses)
	case c4t.WIN_B:
		tally(&b.Wins)
		tally(&a.Losses)
	case c4t.DRAW:
		tally(&a.Draws)
		tally(&b.Draws)
	}
}

func floor(r *c4t.Standing) {
	if r.Consumed < 0 {
		r.Consumed = 0
	}
}

// Update applies everything that changed in M since the last update.
// The caller must not hold the lock of M.
func (t *Table) Update(m *c4t.Match) {
	m.Lock()
	defer m.Unlock()
	t.lock.Lock()
	defer t.lock.Unlock()

	for _, s := range []c4t.Side{c4t.A, c4t.B} {
		i := s.Index()
		r := t.row(m.Team(s).Name)

		r.Points += m.Points[i] - m.Applied.Points[i]
		m.Applied.Points[i] = m.Points[i]

		consumed := m.Clock.Consumed(s)
		r.Consumed += consumed - m.Applied.Consumed[i]
		floor(r)
		m.Applied.Consumed[i] = consumed
	}

	for _, g := range m.Games {
		if g.Status == c4t.FINISHED && !g.Counted {
			t.count(m, g, +1)
			g.Counted = true
		}
	}

	if m.Status == c4t.FINISHED && !m.Applied.Played {
		t.row(m.A.Name).Played++
		t.row(m.B.Name).Played++
		m.Applied.Played = true
	}
}

// Revert removes everything that was applied from M, as if the match
// had never been played.  The caller must not hold the lock of M.
func (t *Table) Revert(m *c4t.Match) {
	m.Lock()
	defer m.Unlock()
	t.lock.Lock()
	defer t.lock.Unlock()

	for _, s := range []c4t.Side{c4t.A, c4t.B} {
		i := s.Index()
		r := t.row(m.Team(s).Name)
		r.Points -= m.Applied.Points[i]
		r.Consumed -= m.Applied.Consumed[i]
		floor(r)
	}

	for _, g := range m.Games {
		if g.Counted {
			t.count(m, g, -1)
			g.Counted = false
		}
	}

	if m.Applied.Played {
		for _, n := range []string{m.A.Name, m.B.Name} {
			if r := t.row(n); r.Played > 0 {
				r.Played--
			}
		}
	}

	m.Applied.Points = [2]float64{}
	m.Applied.Consumed = [2]time.Duration{}
	m.Applied.Played = false
}

// Reconcile ensures that the points of M add up to the number of
// completed games.  A shortfall is awarded to the winner of the match
// or split if there is none, a surplus is taken from the loser or
// from both sides equally.  If anything had to be corrected, an error
// describing the difference is returned.  The caller must not hold the
// lock of M.
func Reconcile(m *c4t.Match) error {
	m.Lock()
	defer m.Unlock()

	var (
		done = float64(m.Completed())
		sum  = m.Points[0] + m.Points[1]
		diff = done - sum
	)
	if diff == 0 {
		return nil
	}

	w, decided := m.Winner.Side()
	switch {
	case diff > 0 && decided:
		m.Points[w.Index()] += diff
	case diff > 0:
		m.Points[0] += diff / 2
		m.Points[1] += diff / 2
	case decided:
		l := (!w).Index()
		take := min(-diff, m.Points[l])
		m.Points[l] -= take
		m.Points[w.Index()] -= -diff - take
	default:
		m.Points[0] += diff / 2
		m.Points[1] += diff / 2
	}
	for i := range m.Points {
		if m.Points[i] < 0 {
			m.Points[i] = 0
		}
	}

	return errors.Wrapf(c4t.ErrStandingsInconsistency,
		"match %s: %.1f points for %.0f games, corrected to %.1f:%.1f",
		m.Id, sum, done, m.Points[0], m.Points[1])
}

// Rank returns a copy of all standings, ordered by points, then by
// less consumed time and finally by name.
func (t *Table) Rank() []c4t.Standing {
	t.lock.RLock()
	defer t.lock.RUnlock()

	rank := make([]c4t.Standing, 0, len(t.rows))
	for _, r := range t.rows {
		rank = append(rank, *r)
	}
	sort.Slice(rank, func(i, j int) bool {
		switch {
		case rank[i].Points != rank[j].Points:
			return rank[i].Points > rank[j].Points
		case rank[i].Consumed != rank[j].Consumed:
			return rank[i].Consumed < rank[j].Consumed
		}
		return rank[i].Team < rank[j].Team
	})
	return rank
}

// Get returns the current standing of the team NAME
func (t *Table) Get(name string) (c4t.Standing, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	r, ok := t.rows[name]
	if !ok {
		return c4t.Standing{}, false
	}
	return *r, true
}
