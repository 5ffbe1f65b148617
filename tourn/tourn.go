// Tournament Coordination
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
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"go-c4t"
	"go-c4t/conf"
	"go-c4t/game"
	"go-c4t/proto"
	"go-c4t/sched"
	"go-c4t/standings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

type State uint8

const (
	WAITING State = iota
	RUNNING
	FINISHED
)

func (s State) String() string {
	switch s {
	case WAITING:
		return "waiting"
	case RUNNING:
		return "in_progress"
	case FINISHED:
		return "finished"
	default:
		panic(fmt.Sprintf("Illegal state: %d", s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Tournament owns the teams, the schedule and the standings
type Tournament struct {
	conf   *conf.Conf
	reg    c4t.Registry
	pub    c4t.Broadcaster
	table  *standings.Table
	client *http.Client
	env    *game.Env

	lock    sync.RWMutex // protects everything below
	state   State
	teams   []*c4t.Team
	rounds  []*c4t.Round
	matches map[string]*c4t.Match
	busy    map[uint]bool // rounds that are currently being played
	played  uint          // rounds that have been started
	ctx     context.Context
	cancel  context.CancelFunc

	wait sync.WaitGroup // background goroutines
}

func MakeTournament(config *conf.Conf, reg c4t.Registry, pub c4t.Broadcaster) *Tournament {
	if pub == nil {
		pub = c4t.Discard{}
	}
	t := &Tournament{
		conf:    config,
		reg:     reg,
		pub:     pub,
		table:   standings.MakeTable(),
		client:  &http.Client{},
		matches: make(map[string]*c4t.Match),
		busy:    make(map[uint]bool),
	}
	t.env = &game.Env{Conf: config, Pub: pub, Table: t.table}
	t.ctx, t.cancel = context.WithCancel(config.Ctx)
	return t
}

// Load all previously registered teams from the registry
func (t *Tournament) Load(ctx context.Context) error {
	teams, err := t.reg.List(ctx)
	if err != nil {
		return errors.Wrap(err, "loading teams")
	}

	t.lock.Lock()
	defer t.lock.Unlock()
	for _, team := range teams {
		if t.team(team.Name) == nil {
			t.teams = append(t.teams, team)
			t.table.Add(team)
		}
	}
	t.conf.Debug.Printf("Loaded %d teams", len(teams))
	return nil
}

// The caller must hold the lock
func (t *Tournament) team(name string) *c4t.Team {
	for _, team := range t.teams {
		if team.Name == name {
			return team
		}
	}
	return nil
}

// Register a new team, after verifying that the endpoint can answer
// a move request.
func (t *Tournament) Register(ctx context.Context, name, endpoint string) (*c4t.Team, error) {
	team := &c4t.Team{
		Name:     strings.TrimSpace(name),
		Endpoint: strings.TrimSpace(endpoint),
	}
	if team.Name == "" {
		return nil, errors.Wrap(c4t.ErrInvalidTeam, "empty name")
	}

	check := func() error {
		if t.state == RUNNING {
			return c4t.ErrTournamentRunning
		}
		if t.team(team.Name) != nil {
			return errors.Wrap(c4t.ErrDuplicateTeam, team.Name)
		}
		return nil
	}

	t.lock.RLock()
	err := check()
	t.lock.RUnlock()
	if err != nil {
		return nil, err
	}

	err = proto.Verify(ctx, team, t.client, t.conf.AgentTimeout, t.conf.BotDepth)
	if err != nil {
		return nil, err
	}

	t.lock.Lock()
	defer t.lock.Unlock()
	if err := check(); err != nil {
		return nil, err
	}
	if err := t.reg.Put(ctx, team); err != nil {
		return nil, errors.Wrap(err, "storing team")
	}
	t.teams = append(t.teams, team)
	t.table.Add(team)

	t.conf.Log.Printf("Registered %s at %s", team.Name, team.Endpoint)
	return team, nil
}

// Start generates a schedule and plays all rounds in the background
func (t *Tournament) Start() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.state == RUNNING {
		return c4t.ErrTournamentRunning
	}
	// a restarted round may still be replaying after the last round
	// has finished
	if len(t.busy) > 0 {
		return errors.Wrapf(c4t.ErrRoundRunning, "%d rounds still replaying", len(t.busy))
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	pairings, err := sched.RoundRobin(t.teams, rng)
	if err != nil {
		return err
	}

	for id := range t.matches {
		t.pub.Close(id)
	}
	t.matches = make(map[string]*c4t.Match)
	t.rounds = make([]*c4t.Round, 0, len(pairings))
	for i, pairs := range pairings {
		round := &c4t.Round{Index: uint(i)}
		for _, p := range pairs {
			m := c4t.MakeMatch(uuid.NewString(), uint(i), p.A, p.B,
				c4t.MakeClock(t.conf.Budget, t.conf.TurnTime))
			m.Prepare()
			round.Matches = append(round.Matches, m)
			t.matches[m.Id] = m
		}
		t.rounds = append(t.rounds, round)
	}

	t.table.Clear()
	for _, team := range t.teams {
		t.table.Add(team)
	}
	t.played = 0
	t.state = RUNNING

	t.conf.Log.Printf("Starting tournament with %d teams in %d rounds",
		len(t.teams), len(t.rounds))

	ctx := t.ctx
	t.wait.Add(1)
	go func() {
		defer t.wait.Done()
		for n := uint(0); t.startRound(ctx, n); n++ {
			if err := game.Pause(ctx, t.conf.RoundPause); err != nil {
				return
			}
		}
	}()
	return nil
}

// Concurrency returns how many matches of a round with MATCHES matches
// may run at the same time, when TEAMS teams participate.
func Concurrency(teams, matches int, ceiling uint) int64 {
	var n int64
	if teams >= 8 {
		n = int64(teams / 2)
		if ceiling > 0 && n > int64(ceiling) {
			n = int64(ceiling)
		}
	} else {
		n = int64(matches / 2)
		if n < 2 {
			n = 2
		}
	}
	return n
}

// Play round N and report if the next round should be played.  If
// all rounds have been played, the tournament is finished.
func (t *Tournament) startRound(ctx context.Context, n uint) bool {
	t.lock.Lock()
	if ctx.Err() != nil {
		t.lock.Unlock()
		return false
	}
	if n >= uint(len(t.rounds)) {
		t.state = FINISHED
		t.lock.Unlock()

		t.pub.Publish(c4t.Dashboard, c4t.TournamentFinished{
			Standings: t.table.Rank(),
		})
		t.conf.Log.Println("Tournament finished")
		return false
	}
	round := t.rounds[n]
	t.busy[n] = true
	if n >= t.played {
		t.played = n + 1
	}
	limit := Concurrency(len(t.teams), len(round.Matches), t.conf.MaxConcurrent)
	t.lock.Unlock()

	t.playRound(ctx, round, limit)

	t.lock.Lock()
	delete(t.busy, n)
	t.lock.Unlock()

	return ctx.Err() == nil
}

// Play all matches of ROUND, with at most LIMIT running at a time
func (t *Tournament) playRound(ctx context.Context, round *c4t.Round, limit int64) {
	ids := make([]string, 0, len(round.Matches))
	for _, m := range round.Matches {
		ids = append(ids, m.Id)
	}
	t.pub.Publish(c4t.Dashboard, c4t.RoundStarted{Round: round.Index, Matches: ids})
	t.conf.Log.Printf("Starting round %d (%d matches, %d at a time)",
		round.Index, len(round.Matches), limit)

	var (
		sem  = semaphore.NewWeighted(limit)
		wait sync.WaitGroup
	)
	for _, m := range round.Matches {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wait.Add(1)
		go func(m *c4t.Match) {
			defer wait.Done()
			defer sem.Release(1)
			t.play(ctx, m)
		}(m)
	}
	wait.Wait()

	if ctx.Err() == nil {
		t.pub.Publish(c4t.Dashboard, c4t.RoundFinished{Round: round.Index})
		t.conf.Debug.Printf("Finished round %d", round.Index)
	}
}

// Play a single match, marking it as failed if anything goes wrong
func (t *Tournament) play(ctx context.Context, m *c4t.Match) {
	defer func() {
		if err := recover(); err != nil {
			t.fail(m, fmt.Errorf("panic: %v", err))
		}
	}()

	var agents [2]c4t.Agent
	for _, s := range []c4t.Side{c4t.A, c4t.B} {
		a, err := proto.Dial(m.Team(s), t.client, t.conf.BotDepth)
		if err != nil {
			t.fail(m, err)
			return
		}
		agents[s.Index()] = a
	}

	err := game.PlayMatch(ctx, m, agents, t.env)
	if err != nil && ctx.Err() == nil {
		t.fail(m, err)
	}
}

// Mark M as finished without a regular result
func (t *Tournament) fail(m *c4t.Match, err error) {
	t.conf.Log.Printf("Match %s failed: %s", m.Id, err)

	m.Lock()
	m.Status = c4t.FINISHED
	m.Winner = c4t.ERROR
	m.End = time.Now()
	m.Unlock()

	t.table.Update(m)
	ev := c4t.MatchFailed{Match: m.Id, Error: err.Error()}
	t.pub.Publish(m.Id, ev)
	t.pub.Publish(c4t.Dashboard, ev)
}

// Shutdown stops the tournament and waits for all matches to return
func (t *Tournament) Shutdown() {
	t.lock.Lock()
	t.cancel()
	t.lock.Unlock()
	t.wait.Wait()
}
