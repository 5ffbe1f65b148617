// Result Reports
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
	"fmt"
	"io"

	"go-c4t"
)

// PrintResults writes a troff document with the standings and a log
// of all matches
func (t *Tournament) PrintResults(W io.Writer) {
	fmt.Fprintln(W, `.NH 1`)
	fmt.Fprintln(W, "Connect Four Tournament")

	rounds := t.Schedule()
	if len(rounds) == 0 {
		fmt.Fprintln(W, `.LP`)
		fmt.Fprintln(W, `No matches took place.`)
		return
	}
	fmt.Fprintln(W, `.LP`)
	fmt.Fprintf(W, "%d teams played %d rounds of %d games per match.\n",
		len(t.Teams()), len(rounds), c4t.GAMES)

	fmt.Fprintln(W, `.NH 2`)
	fmt.Fprintln(W, "Standings")

	fmt.Fprintln(W, `.TS`)
	fmt.Fprintln(W, `tab(/) box center;`)
	fmt.Fprintln(W, `n | c | c c c | c c`)
	fmt.Fprintln(W, `-------`)
	fmt.Fprintln(W, `n | l | n n n | n n`)
	fmt.Fprintln(W, `.`)
	fmt.Fprintln(W, `Nr./Team/Win/Loss/Draw/Points/Time`)
	for i, s := range t.Standings() {
		fmt.Fprintf(W, "%d/%s/%d/%d/%d/%.1f/%.2fs\n", i+1, s.Team,
			s.Wins, s.Losses, s.Draws, s.Points, s.Consumed.Seconds())
	}
	fmt.Fprintln(W, `.TE`)

	fmt.Fprintln(W, `.NH 2`)
	fmt.Fprintln(W, "Match Log")

	fmt.Fprintln(W, `.TS H`)
	fmt.Fprintln(W, `tab(/) box center;`)
	fmt.Fprintln(W, `n | l l | n n | l`)
	fmt.Fprintln(W, `------`)
	fmt.Fprintln(W, `n | l l | n n | l`)
	fmt.Fprintln(W, `.`)
	fmt.Fprintln(W, `.TH`)
	fmt.Fprintln(W, `Round/Team A/Team B/A/B/Winner`)
	for _, r := range rounds {
		for _, m := range r.Matches {
			winner := m.Winner.String()
			switch m.Winner {
			case c4t.WIN_A:
				winner = m.TeamA
			case c4t.WIN_B:
				winner = m.TeamB
			}
			fmt.Fprintf(W, "%d/%s/%s/%.1f/%.1f/%s\n", r.Index+1,
				m.TeamA, m.TeamB, m.PointsA, m.PointsB, winner)
		}
	}
	fmt.Fprintln(W, `.TE`)
}
