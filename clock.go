// Match Clock
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

// Clock keeps track of how much time each side of a match has left.
//
// A clock has no lock of its own, it is owned by a Match and may only
// be used while holding the lock of that match.
type Clock struct {
	budget    time.Duration // initial budget per side
	limit     time.Duration // maximal charge per move
	remaining [2]time.Duration
	consumed  [2]time.Duration
}

func MakeClock(budget, limit time.Duration) *Clock {
	c := &Clock{budget: budget, limit: limit}
	c.Reset()
	return c
}

// Reset both sides to a full budget
func (c *Clock) Reset() {
	for i := range c.remaining {
		c.remaining[i] = c.budget
		c.consumed[i] = 0
	}
}

// Charge deducts ELAPSED from the budget of S and returns the amount
// that was actually charged after clamping.
func (c *Clock) Charge(s Side, elapsed time.Duration) time.Duration {
	if elapsed < 0 {
		elapsed = 0
	}
	if c.limit > 0 && elapsed > c.limit {
		elapsed = c.limit
	}

	i := s.Index()
	c.remaining[i] -= elapsed
	if c.remaining[i] < 0 {
		c.remaining[i] = 0
	}
	c.consumed[i] += elapsed
	return elapsed
}

func (c *Clock) Exhausted(s Side) bool {
	return c.remaining[s.Index()] <= 0
}

func (c *Clock) Remaining(s Side) time.Duration {
	return c.remaining[s.Index()]
}

func (c *Clock) Consumed(s Side) time.Duration {
	return c.consumed[s.Index()]
}

func (c *Clock) Budget() time.Duration {
	return c.budget
}

// Validate clamps the clock back into a consistent state.  The
// return value indicates if anything had to be corrected.
func (c *Clock) Validate() (ok bool) {
	ok = true
	for i := range c.remaining {
		if c.remaining[i] < 0 {
			c.remaining[i] = 0
			ok = false
		} else if c.remaining[i] > c.budget {
			c.remaining[i] = c.budget
			ok = false
		}
		if c.consumed[i] < 0 {
			c.consumed[i] = 0
			ok = false
		}
	}
	return
}
