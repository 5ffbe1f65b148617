// Round Robin Scheduling
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

package sched

import (
	"math/rand"

	"go-c4t"

	"github.com/pkg/errors"
)

// Pairing of two teams, the first playing as side A
type Pairing struct {
	A, B *c4t.Team
}

// RoundRobin generates a schedule where every team meets every other
// team exactly once and plays at most once per round.  If RNG is not
// nil, the seating is shuffled before the rounds are generated.
//
// The schedule is generated using the circle method: The first seat
// is fixed, and all other seats are rotated by one after each round.
// For an odd number of teams, an empty seat is added and whoever is
// seated opposite of it sits out that round.
func RoundRobin(teams []*c4t.Team, rng *rand.Rand) ([][]Pairing, error) {
	if len(teams) < 2 {
		return nil, errors.Wrapf(c4t.ErrInsufficientTeams, "got %d", len(teams))
	}

	seats := make([]*c4t.Team, len(teams), len(teams)+1)
	copy(seats, teams)
	if rng != nil {
		rng.Shuffle(len(seats), func(i, j int) {
			seats[i], seats[j] = seats[j], seats[i]
		})
	}
	if len(seats)%2 == 1 {
		seats = append(seats, nil) // bye
	}

	n := len(seats)
	rounds := make([][]Pairing, 0, n-1)
	for r := 0; r < n-1; r++ {
		round := make([]Pairing, 0, n/2)
		for i := 0; i < n/2; i++ {
			a, b := seats[i], seats[n-1-i]
			if a == nil || b == nil {
				continue
			}
			// Alternate who is listed first, so that the fixed
			// seat does not always play as A
			if (r+i)%2 == 1 {
				a, b = b, a
			}
			round = append(round, Pairing{A: a, B: b})
		}
		rounds = append(rounds, round)

		// rotate all but the first seat clockwise
		last := seats[n-1]
		copy(seats[2:], seats[1:n-1])
		seats[1] = last
	}

	c4t.Debug.Printf("Scheduled %d rounds for %d teams", len(rounds), len(teams))
	return rounds, nil
}
