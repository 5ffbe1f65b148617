// Web Interface
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

package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go-c4t/conf"
	"go-c4t/tourn"

	"github.com/pkg/errors"
)

type web struct {
	conf *conf.Conf
	t    *tourn.Tournament
	hub  *Hub
	srv  *http.Server
}

func (s *web) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", s.register)
	mux.HandleFunc("POST /api/start", s.start)
	mux.HandleFunc("GET /api/status", s.status)
	mux.HandleFunc("GET /api/leaderboard", s.leaderboard)
	mux.HandleFunc("GET /api/schedule", s.schedule)
	mux.HandleFunc("GET /api/match/{id}", s.match)
	mux.HandleFunc("GET /api/teams", s.teams)
	mux.HandleFunc("POST /api/round/{n}/restart", s.admin(s.restart))
	mux.HandleFunc("POST /api/reset", s.admin(s.reset))
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /")
	})

	// Install the WebSocket handlers
	if s.conf.WebSocket {
		s.conf.Log.Print("Accepting spectators on /ws/")
		mux.HandleFunc("GET /ws/dashboard", s.dashboard)
		mux.HandleFunc("GET /ws/match/{id}", s.watch)
	}
	return mux
}

func (s *web) Start() {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.conf.WebPort),
		Handler:           s.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.conf.Log.Printf("Listening via HTTP on %s", s.srv.Addr)

	s.stopped(s.srv.ListenAndServe())
}

// Report why the server stopped, unless it was shut down
func (s *web) stopped(err error) {
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.conf.Log.Print(errors.Wrap(err, "web server"))
	}
}

func (s *web) Shutdown() {
	if s.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.conf.Log.Print(err)
	}
}

func (*web) String() string { return "Web Server" }

// Prepare registers the web server, if enabled
func Prepare(config *conf.Conf, t *tourn.Tournament, hub *Hub) {
	if !config.WebInterface {
		return
	}

	config.Register(&web{conf: config, t: t, hub: hub})
}
