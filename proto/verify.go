// Endpoint Verification
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
	"context"
	"net/http"
	"time"

	"go-c4t"

	"github.com/pkg/errors"
)

// Verify checks that TEAM can answer a move request.  The agent is
// shown an empty board and has to reply with a legal column within
// TIMEOUT.
func Verify(ctx context.Context, team *c4t.Team, client *http.Client, timeout time.Duration, depth uint) error {
	agent, err := Dial(team, client, depth)
	if err != nil {
		return err
	}
	r, ok := agent.(*Remote)
	if !ok {
		// built-in agents are always able to move
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pos := c4t.MakeBoard(c4t.A).Position()
	col, err := r.Move(ctx, pos)
	if err != nil {
		if errors.Is(err, c4t.ErrTurnTimeout) {
			return errors.Wrapf(c4t.ErrEndpointUnreachable,
				"%s did not answer within %s", team.Name, timeout)
		}
		return errors.Wrapf(err, "verifying %s", team.Name)
	}
	c4t.Debug.Printf("%s answered verification with %d", team.Name, col)
	return nil
}
