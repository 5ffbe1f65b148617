// In-Memory Registry
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

package db

import (
	"context"
	"sync"

	"go-c4t"
)

// Memory is a team registry that is lost when the process exits
type Memory struct {
	lock  sync.Mutex
	teams []*c4t.Team
}

var _ c4t.Registry = &Memory{}

func MakeMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Put(_ context.Context, t *c4t.Team) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	c := *t
	for i, u := range m.teams {
		if u.Name == t.Name {
			m.teams[i] = &c
			return nil
		}
	}
	m.teams = append(m.teams, &c)
	return nil
}

func (m *Memory) List(context.Context) ([]*c4t.Team, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	teams := make([]*c4t.Team, 0, len(m.teams))
	for _, t := range m.teams {
		c := *t
		teams = append(teams, &c)
	}
	return teams, nil
}

func (m *Memory) Clear(context.Context) error {
	m.lock.Lock()
	m.teams = nil
	m.lock.Unlock()
	return nil
}
