// Tournament Administration
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
	"context"

	"go-c4t"

	"github.com/pkg/errors"
)

// Revert the results of round N and reset its matches.  Returns
// whether the round had already been played.
func (t *Tournament) resetRound(n uint) (*c4t.Round, bool, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if n >= uint(len(t.rounds)) {
		return nil, false, errors.Wrapf(c4t.ErrRoundNotFound, "round %d", n)
	}
	if t.busy[n] {
		return nil, false, errors.Wrapf(c4t.ErrRoundRunning, "round %d", n)
	}

	round := t.rounds[n]
	for _, m := range round.Matches {
		t.table.Revert(m)
		m.Lock()
		m.Prepare()
		m.Unlock()
		t.pub.Close(m.Id)
	}
	played := n < t.played
	if played {
		t.busy[n] = true
	}
	return round, played, nil
}

// RestartRound discards all results of round N and plays it again,
// if it had already been played.  Spectators of the matches in the
// round are disconnected.  All other rounds are left as they are.
func (t *Tournament) RestartRound(n uint) error {
	round, played, err := t.resetRound(n)
	if err != nil {
		return err
	}
	t.conf.Log.Printf("Restarting round %d", n)
	t.pub.Publish(c4t.Dashboard, c4t.StandingsUpdated{Standings: t.table.Rank()})
	if !played {
		return nil
	}

	t.lock.RLock()
	ctx := t.ctx
	limit := Concurrency(len(t.teams), len(round.Matches), t.conf.MaxConcurrent)
	t.lock.RUnlock()

	t.wait.Add(1)
	go func() {
		defer t.wait.Done()
		t.playRound(ctx, round, limit)

		t.lock.Lock()
		delete(t.busy, n)
		t.lock.Unlock()
	}()
	return nil
}

// Reset stops a running tournament and forgets all teams, matches and
// standings.
func (t *Tournament) Reset(ctx context.Context) error {
	t.lock.Lock()
	t.cancel()
	t.lock.Unlock()

	// wait outside of the lock, as the matches still need it to
	// wind down
	t.wait.Wait()

	t.lock.Lock()
	defer t.lock.Unlock()
	for id := range t.matches {
		t.pub.Close(id)
	}
	t.teams = nil
	t.rounds = nil
	t.matches = make(map[string]*c4t.Match)
	t.busy = make(map[uint]bool)
	t.played = 0
	t.state = WAITING
	t.table.Clear()
	t.ctx, t.cancel = context.WithCancel(t.conf.Ctx)

	if err := t.reg.Clear(ctx); err != nil {
		return errors.Wrap(err, "clearing registry")
	}
	t.pub.Publish(c4t.Dashboard, c4t.TournamentReset{})
	t.conf.Log.Println("Tournament reset")
	return nil
}
