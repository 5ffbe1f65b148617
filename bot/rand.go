// Random Agent
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
	"errors"
	"math/rand"
	"sync"

	"go-c4t"
)

type random struct {
	lock sync.Mutex
	rng  *rand.Rand
}

var errNoMoves = errors.New("no legal moves")

// Pick a uniformly random element from LEGAL
func (r *random) pick(legal []uint) (uint, bool) {
	if len(legal) == 0 {
		return 0, false
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	return legal[r.rng.Intn(len(legal))], true
}

func (r *random) Predict(_ context.Context, b *c4t.Board) (uint, error) {
	m, ok := r.pick(b.Moves())
	if !ok {
		return 0, errNoMoves
	}
	return m, nil
}

func (*random) String() string { return "random" }

func makeRandom(seed int64) *random {
	if seed == 0 {
		seed = rand.Int63()
	}
	return &random{rng: rand.New(rand.NewSource(seed))}
}

// MakeRandom returns an agent that only makes random moves
func MakeRandom() *Fallback {
	return MakeFallback(RANDOM, nil)
}
