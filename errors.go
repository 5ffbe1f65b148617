// Error taxonomy
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

import "github.com/pkg/errors"

var (
	// Schedule generation
	ErrInsufficientTeams = errors.New("at least two teams are required")

	// Agent communication
	ErrEndpointUnreachable     = errors.New("endpoint unreachable")
	ErrEndpointInvalidResponse = errors.New("endpoint sent an invalid response")
	ErrTurnTimeout             = errors.New("turn time exceeded")
	ErrMatchTimeExhausted      = errors.New("match time exhausted")

	// Tournament state
	ErrMatchNotFound          = errors.New("match not found")
	ErrRoundNotFound          = errors.New("round not found")
	ErrRoundRunning           = errors.New("round is currently being played")
	ErrStandingsInconsistency = errors.New("inconsistent match points")

	// Registration
	ErrInvalidTeam       = errors.New("invalid team")
	ErrDuplicateTeam     = errors.New("team name already registered")
	ErrTournamentRunning = errors.New("tournament is already running")
)
