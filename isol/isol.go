// Docker-hosted House Agents
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

package isol

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go-c4t"
	"go-c4t/conf"
	"go-c4t/proto"

	"github.com/cenkalti/backoff/v5"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Time a container has to answer its first move request
const STARTUP = time.Minute

// House is an agent running in a local container
type House struct {
	Team  *c4t.Team
	image string
	id    string
	cont  *client.Client
}

func (h *House) String() string {
	return fmt.Sprintf("%s (%s)", h.Team.Name, h.image)
}

// Name under which the agent of IMAGE participates
func name(image string) string {
	base := image[strings.LastIndex(image, "/")+1:]
	if i := strings.IndexByte(base, ':'); i >= 0 {
		base = base[:i]
	}
	return "house-" + base
}

// Launch a container from IMAGE and wait until the agent inside is
// able to answer move requests.
func Launch(ctx context.Context, cont *client.Client, config *conf.Conf, image string) (*House, error) {
	port := nat.Port(fmt.Sprintf("%d/tcp", config.ImagePort))
	h := &House{image: image, cont: cont}

	// The documentation for the library is sparse, but it is also
	// just a wrapper around a HTTP API.  To understand what this
	// configuration does, it is necessary to read
	// https://docs.docker.com/engine/api/v1.41/#operation/ContainerCreate
	resp, err := cont.ContainerCreate(ctx, &container.Config{
		Image:        image,
		ExposedPorts: nat.PortSet{port: struct{}{}},
	}, &container.HostConfig{
		Resources: container.Resources{
			CPUCount: 1,
			Memory:   1024 * 1024 * 1024,
		},
		PortBindings: nat.PortMap{
			// An empty host port lets docker pick a free one
			port: []nat.PortBinding{{HostIP: "127.0.0.1"}},
		},
		ReadonlyRootfs: true,
		AutoRemove:     true,
	}, nil, nil, fmt.Sprintf("%s-%d", name(image), time.Now().UnixNano()))
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to create container %s", image)
	}
	h.id = resp.ID

	if err := cont.ContainerStart(ctx, h.id, types.ContainerStartOptions{}); err != nil {
		return nil, errors.Wrapf(err, "Failed to start container %s", image)
	}

	info, err := cont.ContainerInspect(ctx, h.id)
	if err != nil {
		h.Shutdown()
		return nil, errors.Wrapf(err, "Failed to inspect container %s", image)
	}
	var bindings []nat.PortBinding
	if info.NetworkSettings != nil {
		bindings = info.NetworkSettings.Ports[port]
	}
	if len(bindings) == 0 {
		h.Shutdown()
		return nil, errors.Errorf("Container %s exposes no port %s", image, port)
	}

	h.Team = &c4t.Team{
		Name:     name(image),
		Endpoint: fmt.Sprintf("http://127.0.0.1:%s", bindings[0].HostPort),
	}

	// The container may take a while before it starts answering
	cli := &http.Client{}
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		err := proto.Verify(ctx, h.Team, cli, config.AgentTimeout, config.BotDepth)
		if errors.Is(err, c4t.ErrEndpointInvalidResponse) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(STARTUP))
	if err != nil {
		h.Shutdown()
		return nil, errors.Wrapf(err, "Container %s did not become ready", image)
	}

	config.Debug.Printf("Started %s on %s", h, h.Team.Endpoint)
	return h, nil
}

func (h *House) Shutdown() error {
	ctx := context.Background()
	err := h.cont.ContainerKill(ctx, h.id, "SIGKILL")
	if err != nil {
		return errors.Wrapf(err, "Failed to kill container %s", h.image)
	}
	return nil
}

// Registrar is what house agents are registered with
type Registrar interface {
	Register(ctx context.Context, name, endpoint string) (*c4t.Team, error)
}

type manager struct {
	conf   *conf.Conf
	reg    Registrar
	lock   sync.Mutex
	houses []*House
}

// Start all configured images in parallel and register them as teams
func (m *manager) Start() {
	cont, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		m.conf.Log.Print(err)
		return
	}

	var (
		ctx         = m.conf.Ctx
		group, gctx = errgroup.WithContext(ctx)
	)
	for _, image := range m.conf.Images {
		image := image
		group.Go(func() error {
			h, err := Launch(gctx, cont, m.conf, image)
			if err != nil {
				return err
			}
			m.lock.Lock()
			m.houses = append(m.houses, h)
			m.lock.Unlock()

			_, err = m.reg.Register(ctx, h.Team.Name, h.Team.Endpoint)
			return err
		})
	}
	if err := group.Wait(); err != nil {
		m.conf.Log.Printf("Failed to start house agents: %s", err)
	}
}

func (m *manager) Shutdown() {
	m.lock.Lock()
	defer m.lock.Unlock()
	for _, h := range m.houses {
		if err := h.Shutdown(); err != nil {
			m.conf.Log.Print(err)
		}
	}
	m.houses = nil
}

func (*manager) String() string { return "House Agents" }

// Prepare registers a manager for the configured house agents
func Prepare(config *conf.Conf, reg Registrar) {
	if len(config.Images) == 0 {
		return
	}
	config.Register(&manager{conf: config, reg: reg})
}
