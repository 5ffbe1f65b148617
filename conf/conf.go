// Configuration
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
	"log"
	"runtime"
	"time"

	"go-c4t"
)

// File representation
type conf struct {
	Debug    bool `toml:"debug" env:"C4T_DEBUG"`
	Database struct {
		File string `toml:"file" env:"C4T_DATABASE"`
	} `toml:"database"`
	Web struct {
		Enabled   bool   `toml:"enabled" env:"C4T_WEB"`
		Port      uint   `toml:"port" env:"C4T_PORT"`
		WebSocket bool   `toml:"websocket" env:"C4T_WEBSOCKET"`
		Token     string `toml:"token,omitempty" env:"C4T_TOKEN"`
	} `toml:"web"`
	Game struct {
		Turn          uint `toml:"turn" env:"C4T_TURN"`
		Budget        uint `toml:"budget" env:"C4T_BUDGET"`
		PauseGame     uint `toml:"pause_game" env:"C4T_PAUSE_GAME"`
		PauseRound    uint `toml:"pause_round" env:"C4T_PAUSE_ROUND"`
		MaxConcurrent uint `toml:"max_concurrent" env:"C4T_MAX_CONCURRENT"`
	} `toml:"game"`
	Agent struct {
		Timeout uint `toml:"timeout" env:"C4T_AGENT_TIMEOUT"`
		Depth   uint `toml:"depth" env:"C4T_BOT_DEPTH"`
	} `toml:"agent"`
	Isolation struct {
		Images []string `toml:"images" env:"C4T_IMAGES" envSeparator:","`
		Port   uint     `toml:"port" env:"C4T_IMAGE_PORT"`
	} `toml:"isolation"`
}

// Public configuration
type Conf struct {
	Log   *log.Logger
	Debug *log.Logger
	Ctx   context.Context
	Kill  context.CancelFunc

	// Database Configuration
	Database string // File to store the team registry

	// Website configuration
	WebInterface bool   // Has the web interface been enabled?
	WebPort      uint16 // Port that the web server listens on
	WebSocket    bool   // Are spectators allowed to connect
	Token        string // Bearer token for administrative requests

	// Game Configuration
	TurnTime      time.Duration // Time an agent has to respond
	Budget        time.Duration // Time each team has for a whole match
	GamePause     time.Duration // Pause between games of a match
	RoundPause    time.Duration // Pause between rounds
	MaxConcurrent uint          // Ceiling for concurrently running matches

	// Agent Configuration
	AgentTimeout time.Duration // Timeout for validating endpoints
	BotDepth     uint          // Search depth of built-in agents

	// Isolation Configuration
	Images    []string // Docker images of house agents
	ImagePort uint16   // Port the agents listen on inside the container

	// Internal state
	man []Manager // List of system managers
	run bool      // Running flag
}

// Configuration object used by default
var defaultConfig = Conf{
	Log:   log.Default(),
	Debug: c4t.Debug,

	// Database configuration
	Database: "c4t.db",

	// Website configuration
	WebInterface: true,
	WebPort:      8080,
	WebSocket:    true,

	// Game Configuration
	TurnTime:      10 * time.Second,
	Budget:        240 * time.Second,
	GamePause:     time.Second,
	RoundPause:    5 * time.Second,
	MaxConcurrent: uint(runtime.NumCPU()*2 + 2),

	// Agent Configuration
	AgentTimeout: 10 * time.Second,
	BotDepth:     4,

	// Isolation Configuration
	ImagePort: 8000,
}
