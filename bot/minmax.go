// MinMax Model
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

package bot

import (
	"context"
	"fmt"
	"math"

	"go-c4t"
)

// Model proposes a column for a board
type Model interface {
	Predict(ctx context.Context, b *c4t.Board) (uint, error)
}

type minmax struct {
	depth uint // ply cutoff
}

// Weights for open windows of four cells, indexed by the number of
// own pieces in the window.
var weights = [...]int64{0, 1, 4, 32}

// Column preference, central columns take part in more windows
var center = [c4t.COLUMNS]int64{0, 1, 2, 3, 2, 1, 0}

const won = math.MaxInt32

// Estimate the value of B from the perspective of piece P
func evaluate(b *c4t.Board, p int) (ev int64) {
	cells := b.Snapshot()
	for _, d := range [][2]int{{0, 1}, {1, 0}, {1, 1}, {-1, 1}} {
		for row := 0; row < c4t.ROWS; row++ {
			for col := 0; col < c4t.COLUMNS; col++ {
				var own, other int
				for k := 0; k < 4; k++ {
					r, c := row+k*d[0], col+k*d[1]
					if r < 0 || r >= c4t.ROWS || c >= c4t.COLUMNS {
						own, other = -1, -1
						break
					}
					switch cells[r][c] {
					case 0:
					case p:
						own++
					default:
						other++
					}
				}
				switch {
				case own < 0:
				case other == 0 && own < 4:
					ev += weights[own]
				case own == 0 && other < 4:
					ev -= weights[other]
				}
			}
		}
	}
	for _, row := range cells {
		for col, c := range row {
			switch c {
			case 0:
			case p:
				ev += center[col]
			default:
				ev -= center[col]
			}
		}
	}
	return
}

func search(ctx context.Context, Σ *c4t.Board, Δ uint) (uint, int64, error) {
	π := Σ.Player()
	var it func(*c4t.Board, uint, int64, int64) (uint, int64, error)

	// NOTE: The search is a plain alpha-beta pruned MinMax.
	// Winning sooner is preferred by scaling the terminal value
	// with the remaining depth.
	it = func(σ *c4t.Board, δ uint, α, β int64) (uint, int64, error) {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}

		var (
			Φ int64 // best evaluation
			μ uint  // best move
			maxi = σ.Player() == π
		)
		if maxi {
			Φ = math.MinInt64
		} else {
			Φ = math.MaxInt64
		}

		// Try the central columns first, to prune more
		for _, m := range []uint{3, 2, 4, 1, 5, 0, 6} {
			if !σ.Legal(m) {
				continue
			}

			n := σ.Copy()
			n.Apply(m)

			var φ int64
			if w, ok := n.Winner(); ok {
				φ = won + int64(δ)
				if n.Piece(w) != uint8(π) {
					φ = -φ
				}
			} else if n.Over() {
				φ = 0
			} else if δ == 0 {
				φ = evaluate(n, π)
			} else {
				var err error
				_, φ, err = it(n, δ-1, α, β)
				if err != nil {
					return 0, 0, err
				}
			}

			if maxi {
				if φ > Φ {
					Φ, μ = φ, m
				}
				if Φ > α {
					α = Φ
				}
			} else {
				if φ < Φ {
					Φ, μ = φ, m
				}
				if Φ < β {
					β = Φ
				}
			}
			if α >= β {
				break
			}
		}

		return μ, Φ, nil
	}
	return it(Σ, Δ, math.MinInt64, math.MaxInt64)
}

func (m *minmax) Predict(ctx context.Context, b *c4t.Board) (uint, error) {
	if b.Over() {
		return 0, fmt.Errorf("no move on a finished board %s", b)
	}
	move, ev, err := search(ctx, b, m.depth)
	if err != nil {
		return 0, err
	}
	c4t.Debug.Printf("MinMax-%d proposes %d on %s (%d)", m.depth, move, b, ev)
	return move, nil
}

func (m *minmax) String() string { return fmt.Sprintf("MinMax-%d", m.depth) }

func MakeMinMax(depth uint) Model {
	return &minmax{depth: depth}
}
