// Practice Tournament
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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go-c4t/bot"
	"go-c4t/conf"
	"go-c4t/db"
	"go-c4t/proto"
	"go-c4t/tourn"
)

func main() {
	var (
		teams = flag.Uint("teams", 6, "Number of built-in agents that participate")
		depth = flag.Uint("depth", 4, "Search depth of the minmax agents")
		turn  = flag.Duration("turn", time.Second, "Time per move")
		out   = flag.String("o", "", "File to write the troff report to")
	)
	flag.Parse()
	if flag.NArg() != 0 {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Too many arguments passed to %s.\nUsage:\n",
			os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *depth == 0 {
		log.Fatal("The search depth must be positive")
	}

	config, err := conf.Environ()
	if err != nil {
		log.Fatal(err)
	}
	config.TurnTime = *turn
	config.GamePause = 0
	config.RoundPause = 0
	config.BotDepth = *depth

	t := tourn.MakeTournament(config, db.MakeMemory(), nil)
	ctx := context.Background()
	for i := uint(0); i < *teams; i++ {
		kind := bot.RANDOM
		if i%2 == 0 {
			kind = fmt.Sprintf("%s-%d", bot.MINMAX, 1+i%(*depth))
		}
		_, err := t.Register(ctx, fmt.Sprintf("%s-%d", kind, i), proto.BOT+kind)
		if err != nil {
			log.Fatal(err)
		}
	}

	if err := t.Start(); err != nil {
		log.Fatal(err)
	}
	t.Wait()

	w := os.Stdout
	if *out != "" {
		w, err = os.Create(*out)
		if err != nil {
			log.Fatal(err)
		}
		defer w.Close()
	}
	t.PrintResults(w)
}
