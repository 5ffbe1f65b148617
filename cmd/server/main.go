// Tournament Server
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

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go-c4t/conf"
	"go-c4t/db"
	"go-c4t/isol"
	"go-c4t/tourn"
	"go-c4t/web"
)

// Default file name for the configuration file
const defconf = "server.toml"

func main() {
	var (
		confFile = flag.String("conf", defconf, "Name of configuration file")
		dumpConf = flag.Bool("dump-config", false, "Dump default configuration")
		debug    = flag.Bool("debug", false, "Enable debug logging")
	)

	flag.Parse()
	if flag.NArg() != 0 {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Too many arguments passed to %s.\nUsage:\n",
			os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load the configuration from disk (if available)
	config, err := conf.Open(*confFile)
	if err != nil {
		if !os.IsNotExist(err) || *confFile != defconf {
			log.Fatal(err)
		}
		config, err = conf.Environ()
		if err != nil {
			log.Fatal(err)
		}
	}
	if *debug {
		config.Debug.SetOutput(os.Stderr)
		config.Debug.SetFlags(log.Ltime | log.Lshortfile | log.Lmicroseconds)
	}
	config.Debug.Println("Debug logging has been enabled")

	// Dump the configuration onto the disk if requested
	if *dumpConf {
		err = config.Dump(os.Stdout)
		if err != nil {
			log.Fatalln("Failed to dump configuration:", err)
		}
		os.Exit(0)
	}

	// Enable the team registry
	reg := db.Register(config)

	// Prepare the tournament
	hub := web.MakeHub()
	t := tourn.MakeTournament(config, reg, hub)
	tourn.Manage(config, t)

	// Enable the web interface
	web.Prepare(config, t, hub)

	// Start house agents in containers
	isol.Prepare(config, t)

	// Launch the server
	config.Start()
}
