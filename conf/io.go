// Configuration Loading
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

package conf

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

// Durations are stored as milliseconds
func ms(d time.Duration) uint   { return uint(d / time.Millisecond) }
func dur(ms uint) time.Duration { return time.Duration(ms) * time.Millisecond }

func (c *Conf) data() (data conf) {
	c.export(&data)
	return
}

func (c *Conf) export(data *conf) {
	data.Debug = c.Debug.Writer() != io.Discard
	data.Database.File = c.Database
	data.Web.Enabled = c.WebInterface
	data.Web.Port = uint(c.WebPort)
	data.Web.WebSocket = c.WebSocket
	data.Web.Token = c.Token
	data.Game.Turn = ms(c.TurnTime)
	data.Game.Budget = ms(c.Budget)
	data.Game.PauseGame = ms(c.GamePause)
	data.Game.PauseRound = ms(c.RoundPause)
	data.Game.MaxConcurrent = c.MaxConcurrent
	data.Agent.Timeout = ms(c.AgentTimeout)
	data.Agent.Depth = c.BotDepth
	data.Isolation.Images = c.Images
	data.Isolation.Port = uint(c.ImagePort)
}

func (c *Conf) apply(data *conf) {
	if data.Debug {
		c.Debug.SetOutput(os.Stderr)
	}
	c.Database = data.Database.File
	c.WebInterface = data.Web.Enabled
	c.WebPort = uint16(data.Web.Port)
	c.WebSocket = data.Web.WebSocket
	c.Token = data.Web.Token
	c.TurnTime = dur(data.Game.Turn)
	c.Budget = dur(data.Game.Budget)
	c.GamePause = dur(data.Game.PauseGame)
	c.RoundPause = dur(data.Game.PauseRound)
	c.MaxConcurrent = data.Game.MaxConcurrent
	c.AgentTimeout = dur(data.Agent.Timeout)
	c.BotDepth = data.Agent.Depth
	c.Images = data.Isolation.Images
	c.ImagePort = uint16(data.Isolation.Port)
}

// Parse a configuration from R, starting from the defaults.  Values
// from the environment take precedence over the file.
func load(r io.Reader) (*Conf, error) {
	c := Default()

	data := c.data()
	if r != nil {
		_, err := toml.NewDecoder(r).Decode(&data)
		if err != nil {
			return nil, errors.Wrap(err, "parse configuration")
		}
	}
	err := env.Parse(&data)
	if err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}

	c.apply(&data)
	return c, nil
}

// Open a configuration file and return it
func Open(name string) (*Conf, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return load(file)
}

// Load the configuration from the environment alone
func Environ() (*Conf, error) {
	return load(nil)
}

// Return a fresh copy of the default configuration
func Default() *Conf {
	c := defaultConfig
	c.man = nil
	c.run = false
	c.Ctx, c.Kill = context.WithCancel(context.Background())
	return &c
}

// Serialise the configuration into a writer
func (c *Conf) Dump(wr io.Writer) error {
	return toml.NewEncoder(wr).Encode(c.data())
}
