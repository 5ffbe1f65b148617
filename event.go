// Tournament Events
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

import "time"

// Event is one of the messages published to spectators.  The set of
// events is closed, every event is defined in this file.
type Event interface {
	Kind() string
	event()
}

type RoundStarted struct {
	Round   uint     `json:"round"`
	Matches []string `json:"matches"`
}

type RoundFinished struct {
	Round uint `json:"round"`
}

type MatchStarted struct {
	Match string `json:"match"`
	Round uint   `json:"round"`
	TeamA string `json:"team_a"`
	TeamB string `json:"team_b"`
}

type GameStarted struct {
	Match string `json:"match"`
	Game  uint   `json:"game"`
	First Side   `json:"first"`
}

type MoveMade struct {
	Match     string        `json:"match"`
	Game      uint          `json:"game"`
	Side      Side          `json:"side"`
	Column    uint          `json:"column"`
	Board     [][]int       `json:"board"`
	Remaining time.Duration `json:"remaining"`
}

type GameCompleted struct {
	Match   string  `json:"match"`
	Game    uint    `json:"game"`
	Winner  Winner  `json:"winner"`
	Reason  Reason  `json:"reason"`
	Moves   uint    `json:"moves"`
	PointsA float64 `json:"points_a"`
	PointsB float64 `json:"points_b"`
}

type MatchDecided struct {
	Match   string  `json:"match"`
	Winner  Winner  `json:"winner"`
	PointsA float64 `json:"points_a"`
	PointsB float64 `json:"points_b"`
}

type MatchFinished struct {
	Match   string  `json:"match"`
	Winner  Winner  `json:"winner"`
	PointsA float64 `json:"points_a"`
	PointsB float64 `json:"points_b"`
}

type MatchFailed struct {
	Match string `json:"match"`
	Error string `json:"error"`
}

type TimeOut struct {
	Match  string `json:"match"`
	Game   uint   `json:"game"`
	Team   string `json:"team"`
	Reason Reason `json:"reason"`
}

type StandingsUpdated struct {
	Standings []Standing `json:"standings"`
}

type TournamentFinished struct {
	Standings []Standing `json:"standings"`
}

type TournamentReset struct{}

func (RoundStarted) Kind() string       { return "round_started" }
func (RoundFinished) Kind() string      { return "round_finished" }
func (MatchStarted) Kind() string       { return "match_started" }
func (GameStarted) Kind() string        { return "game_started" }
func (MoveMade) Kind() string           { return "move_made" }
func (GameCompleted) Kind() string      { return "game_completed" }
func (MatchDecided) Kind() string       { return "match_decided" }
func (MatchFinished) Kind() string      { return "match_finished" }
func (MatchFailed) Kind() string        { return "match_failed" }
func (TimeOut) Kind() string            { return "time_out" }
func (StandingsUpdated) Kind() string   { return "standings_updated" }
func (TournamentFinished) Kind() string { return "tournament_finished" }
func (TournamentReset) Kind() string    { return "tournament_reset" }

func (RoundStarted) event()       {}
func (RoundFinished) event()      {}
func (MatchStarted) event()       {}
func (GameStarted) event()        {}
func (MoveMade) event()           {}
func (GameCompleted) event()      {}
func (MatchDecided) event()       {}
func (MatchFinished) event()      {}
func (MatchFailed) event()        {}
func (TimeOut) event()            {}
func (StandingsUpdated) event()   {}
func (TournamentFinished) event() {}
func (TournamentReset) event()    {}

// Discard is a broadcaster without listeners
type Discard struct{}

func (Discard) Publish(string, Event) {}
func (Discard) Close(string)          {}
