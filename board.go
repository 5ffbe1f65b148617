// Connect Four Board Implementation
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

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
)

const (
	ROWS    = 6
	COLUMNS = 7
	CELLS   = ROWS * COLUMNS
)

// Board represents a Connect Four game.  Pieces are stored as 1 for
// the side that moved first and 2 for the other side.
type Board struct {
	cells  [ROWS][COLUMNS]uint8 // row 0 is the top of the board
	first  Side                 // side that places piece 1
	player uint8                // piece that is to be placed next
	winner uint8                // piece that connected four, if any
	count  uint                 // number of pieces on the board
}

var _ Rules = &Board{}

// Create an empty board where FIRST makes the first move
func MakeBoard(first Side) *Board {
	b := &Board{}
	b.Reset(first)
	return b
}

func (b *Board) Reset(first Side) {
	*b = Board{first: first, player: 1}
}

// Parse a board from its string representation (see String)
func Parse(layout string, first Side) (*Board, error) {
	rows := strings.Split(strings.TrimSpace(layout), "/")
	if len(rows) != ROWS {
		return nil, errors.New("invalid number of rows")
	}

	b := MakeBoard(first)
	var n [3]uint
	for i, row := range rows {
		if len(row) != COLUMNS {
			return nil, errors.New("invalid number of columns")
		}
		for j, c := range row {
			switch c {
			case '.':
				continue
			case 'x':
				b.cells[i][j] = 1
			case 'o':
				b.cells[i][j] = 2
			default:
				return nil, errors.New("invalid cell")
			}
			n[b.cells[i][j]]++
		}
	}
	switch {
	case n[1] == n[2]:
		b.player = 1
	case n[1] == n[2]+1:
		b.player = 2
	default:
		return nil, errors.New("invalid piece count")
	}
	b.count = n[1] + n[2]
	for _, p := range []uint8{1, 2} {
		if b.connected(p) {
			b.winner = p
		}
	}
	return b, nil
}

// String converts a board into a row-wise representation, starting
// from the top.  Empty cells are represented by a dot, the first
// player by x and the second player by o.
func (b *Board) String() string {
	var buf bytes.Buffer
	for i := range b.cells {
		if i > 0 {
			buf.WriteByte('/')
		}
		for _, c := range b.cells[i] {
			buf.WriteByte(".xo"[c])
		}
	}
	return buf.String()
}

// Copy returns an independent copy of the board
func (b *Board) Copy() *Board {
	c := *b
	return &c
}

// Piece returns the piece that SIDE places
func (b *Board) Piece(s Side) uint8 {
	if s == b.first {
		return 1
	}
	return 2
}

// Player returns the piece that is to be placed next
func (b *Board) Player() int {
	return int(b.player)
}

// Current returns the side that is to move
func (b *Board) Current() Side {
	if b.player == 1 {
		return b.first
	}
	return !b.first
}

func (b *Board) Count() uint {
	return b.count
}

// Check if a piece may be dropped into column COL
func (b *Board) Legal(col uint) bool {
	return !b.Over() && col < COLUMNS && b.cells[0][col] == 0
}

// Moves returns all legal columns in ascending order
func (b *Board) Moves() (moves []uint) {
	for col := uint(0); col < COLUMNS; col++ {
		if b.Legal(col) {
			moves = append(moves, col)
		}
	}
	return
}

// Random returns a random legal move, or false if there is none
func (b *Board) Random() (uint, bool) {
	moves := b.Moves()
	if len(moves) == 0 {
		return 0, false
	}
	return moves[rand.Intn(len(moves))], true
}

// Apply drops a piece for the current player into COL.  If the move
// is not legal, the board remains unmodified.
func (b *Board) Apply(col uint) bool {
	if !b.Legal(col) {
		return false
	}

	for row := ROWS - 1; row >= 0; row-- {
		if b.cells[row][col] == 0 {
			b.cells[row][col] = b.player
			break
		}
	}
	b.count++

	if b.connected(b.player) {
		b.winner = b.player
	} else {
		b.player = 3 - b.player
	}
	return true
}

// Check if piece P has four in a row anywhere on the board
func (b *Board) connected(p uint8) bool {
	for _, d := range [][2]int{{0, 1}, {1, 0}, {1, 1}, {-1, 1}} {
		for row := 0; row < ROWS; row++ {
			for col := 0; col < COLUMNS; col++ {
				n := 0
				for k := 0; k < 4; k++ {
					r, c := row+k*d[0], col+k*d[1]
					if r < 0 || r >= ROWS || c >= COLUMNS || b.cells[r][c] != p {
						break
					}
					n++
				}
				if n == 4 {
					return true
				}
			}
		}
	}
	return false
}

// Over is true if a side has won or the board is full
func (b *Board) Over() bool {
	return b.winner != 0 || b.count >= CELLS
}

// Winner returns the side that connected four pieces
func (b *Board) Winner() (Side, bool) {
	switch b.winner {
	case 1:
		return b.first, true
	case 2:
		return !b.first, true
	}
	return A, false
}

// Opening is true as long as at most one piece has been placed
func (b *Board) Opening() bool {
	return b.count <= 1
}

// Snapshot returns a copy of the cells as nested slices
func (b *Board) Snapshot() [][]int {
	s := make([][]int, ROWS)
	for i := range b.cells {
		s[i] = make([]int, COLUMNS)
		for j, c := range b.cells[i] {
			s[i][j] = int(c)
		}
	}
	return s
}

// Position returns what the side to move is shown
func (b *Board) Position() *Position {
	return &Position{
		Board:   b.Snapshot(),
		Player:  int(b.player),
		Legal:   b.Moves(),
		Opening: b.Opening(),
	}
}

// Restore a board from a position, as sent to an agent
func FromPosition(pos *Position) (*Board, error) {
	if len(pos.Board) != ROWS {
		return nil, errors.New("invalid number of rows")
	}
	var buf strings.Builder
	for i, row := range pos.Board {
		if len(row) != COLUMNS {
			return nil, errors.New("invalid number of columns")
		}
		if i > 0 {
			buf.WriteByte('/')
		}
		for _, c := range row {
			if c < 0 || c > 2 {
				return nil, errors.New("invalid cell")
			}
			buf.WriteByte(".xo"[c])
		}
	}
	return Parse(buf.String(), A)
}
