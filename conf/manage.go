// Manager Lifecycle
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
	"fmt"
	"os"
	"os/signal"
)

// A Manager is a long running component of the server
type Manager interface {
	fmt.Stringer
	Start()
	Shutdown()
}

func (c *Conf) Register(m Manager) {
	if c.run {
		panic(fmt.Sprintf("Late register: %#v", m))
	}

	c.man = append(c.man, m)
}

// Start all managers and block until the server is interrupted or
// the configuration context has been cancelled.
func (c *Conf) Start() {
	// Start the service
	for _, m := range c.man {
		c.Debug.Printf("Starting %s", m)
		go m.Start()
	}
	c.run = true

	// Catch an interrupt request...
	intr := make(chan os.Signal, 1)
	signal.Notify(intr, os.Interrupt)
	select {
	case <-intr:
		c.Log.Println("Caught interrupt")
	case <-c.Ctx.Done():
		c.Log.Println("Requested shutdown")
	}
	c.Kill()

	done := make(chan struct{})
	go func() {
		// ...and request all managers to shut down.
		c.Debug.Println("Waiting for managers to shutdown...")
		for i := len(c.man) - 1; i >= 0; i-- {
			m := c.man[i]
			c.Debug.Printf("Shutting %s down", m)
			m.Shutdown()
		}
		close(done)
	}()

	select {
	case <-intr:
		c.Log.Println("Forced shutdown")
	case <-done:
		c.Log.Println("Shutting down regularly")
	}
}
