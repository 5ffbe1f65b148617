// Tournament Management
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
	"go-c4t/conf"
)

type manager struct{ t *Tournament }

func (m *manager) Start() {
	if err := m.t.Load(m.t.conf.Ctx); err != nil {
		m.t.conf.Log.Print(err)
	}
}

func (m *manager) Shutdown() { m.t.Shutdown() }

func (*manager) String() string { return "Tournament" }

// Manage registers the tournament with the server lifecycle, so that
// teams are restored on startup and matches are stopped on shutdown.
func Manage(config *conf.Conf, t *Tournament) {
	config.Register(&manager{t})
}
