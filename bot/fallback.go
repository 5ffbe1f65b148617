// Fallback Agent
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

package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go-c4t"
)

// Fallback is an agent that consults a model, and plays a random
// legal move if the model fails or proposes an illegal move.
type Fallback struct {
	name  string
	model Model
	rand  *random
}

var _ c4t.Agent = &Fallback{}

func (f *Fallback) Request(ctx context.Context, pos *c4t.Position) (uint, bool) {
	if len(pos.Legal) == 0 {
		return 0, false
	}
	if f.model == nil {
		return f.rand.pick(pos.Legal)
	}

	b, err := c4t.FromPosition(pos)
	if err != nil {
		c4t.Debug.Printf("%s: %s", f, err)
		return f.rand.pick(pos.Legal)
	}

	m, err := f.predict(ctx, b)
	if err != nil {
		c4t.Debug.Printf("%s: model failed: %s", f, err)
		return f.rand.pick(pos.Legal)
	}
	for _, l := range pos.Legal {
		if l == m {
			return m, true
		}
	}
	c4t.Debug.Printf("%s: model proposed illegal move %d", f, m)
	return f.rand.pick(pos.Legal)
}

// Models are third party code, a panic is treated like an error
func (f *Fallback) predict(ctx context.Context, b *c4t.Board) (m uint, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return f.model.Predict(ctx, b)
}

func (f *Fallback) String() string { return f.name }

func MakeFallback(name string, model Model) *Fallback {
	return &Fallback{
		name:  name,
		model: model,
		rand:  makeRandom(0),
	}
}

// Kinds of built-in agents that can be requested by name
const (
	RANDOM = "random"
	MINMAX = "minmax"
)

// Parse a built-in agent description such as "random", "minmax" or
// "minmax-6".  DEPTH is used if no depth is given explicitly.
func Parse(kind string, depth uint) (*Fallback, error) {
	name, arg, _ := strings.Cut(strings.ToLower(kind), "-")
	switch name {
	case RANDOM:
		if arg != "" {
			break
		}
		return MakeFallback(kind, nil), nil
	case MINMAX:
		if arg != "" {
			d, err := strconv.ParseUint(arg, 10, 8)
			if err != nil {
				return nil, fmt.Errorf("invalid depth %q", arg)
			}
			depth = uint(d)
		}
		return MakeFallback(kind, MakeMinMax(depth)), nil
	}
	return nil, fmt.Errorf("unknown agent %q", kind)
}
