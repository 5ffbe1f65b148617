// HTTP Routes
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
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go-c4t"

	"github.com/pkg/errors"
)

// Largest request body that is accepted
const MAX_BODY = 1 << 16

func reply(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		c4t.Debug.Print(err)
	}
}

// Translate an error into an HTTP status code
func fail(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, c4t.ErrInvalidTeam),
		errors.Is(err, c4t.ErrInsufficientTeams):
		code = http.StatusBadRequest
	case errors.Is(err, c4t.ErrDuplicateTeam),
		errors.Is(err, c4t.ErrTournamentRunning),
		errors.Is(err, c4t.ErrRoundRunning):
		code = http.StatusConflict
	case errors.Is(err, c4t.ErrEndpointUnreachable),
		errors.Is(err, c4t.ErrEndpointInvalidResponse):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, c4t.ErrMatchNotFound),
		errors.Is(err, c4t.ErrRoundNotFound):
		code = http.StatusNotFound
	}
	reply(w, code, map[string]string{"error": err.Error()})
}

// Wrap H to require the administrative token
func (s *web) admin(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.conf.Token == "" {
			reply(w, http.StatusForbidden, map[string]string{
				"error": "administration is disabled",
			})
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.conf.Token)) != 1 {
			w.Header().Set("WWW-Authenticate", "Bearer")
			reply(w, http.StatusUnauthorized, map[string]string{
				"error": "invalid token",
			})
			return
		}
		h(w, r)
	}
}

func (s *web) register(w http.ResponseWriter, r *http.Request) {
	var req c4t.Team
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MAX_BODY))
	if err := dec.Decode(&req); err != nil {
		fail(w, errors.Wrap(c4t.ErrInvalidTeam, err.Error()))
		return
	}

	team, err := s.t.Register(r.Context(), req.Name, req.Endpoint)
	if err != nil {
		fail(w, err)
		return
	}
	reply(w, http.StatusCreated, team)
}

func (s *web) start(w http.ResponseWriter, r *http.Request) {
	if err := s.t.Start(); err != nil {
		fail(w, err)
		return
	}
	reply(w, http.StatusAccepted, s.t.Status())
}

func (s *web) status(w http.ResponseWriter, r *http.Request) {
	reply(w, http.StatusOK, s.t.Status())
}

func (s *web) leaderboard(w http.ResponseWriter, r *http.Request) {
	reply(w, http.StatusOK, s.t.Standings())
}

func (s *web) schedule(w http.ResponseWriter, r *http.Request) {
	reply(w, http.StatusOK, s.t.Schedule())
}

func (s *web) teams(w http.ResponseWriter, r *http.Request) {
	reply(w, http.StatusOK, s.t.Teams())
}

func (s *web) match(w http.ResponseWriter, r *http.Request) {
	m, err := s.t.Match(r.PathValue("id"))
	if err != nil {
		fail(w, err)
		return
	}
	reply(w, http.StatusOK, m)
}

func (s *web) restart(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.ParseUint(r.PathValue("n"), 10, 32)
	if err != nil {
		fail(w, errors.Wrap(c4t.ErrRoundNotFound, err.Error()))
		return
	}
	if err := s.t.RestartRound(uint(n)); err != nil {
		fail(w, err)
		return
	}
	reply(w, http.StatusAccepted, s.t.Status())
}

func (s *web) reset(w http.ResponseWriter, r *http.Request) {
	if err := s.t.Reset(r.Context()); err != nil {
		fail(w, err)
		return
	}
	reply(w, http.StatusOK, s.t.Status())
}
