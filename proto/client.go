// Remote Agent Client
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

package proto

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go-c4t"
	"go-c4t/bot"

	"github.com/pkg/errors"
)

// Largest response body that is read from an agent
const maxResponse = 1 << 16

// Remote wraps an HTTP endpoint into an agent
type Remote struct {
	team *c4t.Team
	http *http.Client

	lock sync.Mutex // protects url
	url  *url.URL
}

var _ c4t.Agent = &Remote{}

func MakeRemote(team *c4t.Team, client *http.Client) (*Remote, error) {
	u, err := Endpoint(team.Endpoint)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Remote{team: team, url: u, http: client}, nil
}

// Request a move, ignoring the reason if none was produced
func (r *Remote) Request(ctx context.Context, pos *c4t.Position) (uint, bool) {
	col, err := r.Move(ctx, pos)
	if err != nil {
		c4t.Debug.Printf("%s: %s", r, err)
		return 0, false
	}
	return col, true
}

// Move sends POS to the endpoint and returns the legal move that the
// agent chose.  If the endpoint cannot be reached, the request is
// retried once using the alternate scheme.  If that succeeds, the
// alternate scheme is used for all further requests.
func (r *Remote) Move(ctx context.Context, pos *c4t.Position) (uint, error) {
	body, err := json.Marshal(encode(pos))
	if err != nil {
		return 0, err
	}

	r.lock.Lock()
	u := r.url
	r.lock.Unlock()

	resp, err := r.post(ctx, u, body)
	if err != nil && ctx.Err() == nil {
		alt := alternate(u)
		c4t.Debug.Printf("%s: retrying with %s (%s)", r, alt.Scheme, err)
		resp, err = r.post(ctx, alt, body)
		if err == nil {
			r.lock.Lock()
			r.url = alt
			r.lock.Unlock()
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return 0, errors.Wrap(c4t.ErrTurnTimeout, ctx.Err().Error())
		}
		return 0, errors.Wrap(c4t.ErrEndpointUnreachable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponse))
		return 0, errors.Wrapf(c4t.ErrEndpointInvalidResponse, "status %s", resp.Status)
	}

	var res response
	err = json.NewDecoder(io.LimitReader(resp.Body, maxResponse)).Decode(&res)
	if err != nil {
		return 0, errors.Wrap(c4t.ErrEndpointInvalidResponse, err.Error())
	}
	return res.column(pos.Legal)
}

func (r *Remote) post(ctx context.Context, u *url.URL, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return r.http.Do(req)
}

func (r *Remote) String() string {
	return fmt.Sprintf("%s (%s)", r.team.Name, r.team.Endpoint)
}

// Dial returns the agent that plays for TEAM.  Endpoints with the
// "bot:" prefix are played by a built-in agent searching to DEPTH.
func Dial(team *c4t.Team, client *http.Client, depth uint) (c4t.Agent, error) {
	if kind, ok := strings.CutPrefix(team.Endpoint, BOT); ok {
		a, err := bot.Parse(kind, depth)
		if err != nil {
			return nil, errors.Wrap(c4t.ErrInvalidTeam, err.Error())
		}
		return a, nil
	}
	r, err := MakeRemote(team, client)
	if err != nil {
		return nil, err
	}
	return r, nil
}
