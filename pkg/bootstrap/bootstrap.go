// Copyright 2026 Intel Corporation. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bootstrap implements the rendezvous of the PEs of a job.
//
// PE 0 serves a small gRPC service on the address carried by the unique id
// of the job. Every PE joins it with a description of itself and gets back
// the descriptions of all PEs once the whole job has joined. The same service
// provides host barriers and an orderly shutdown.
package bootstrap

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/pkg/errors"

	logger "github.com/intel/symmetric-memory/pkg/log"
	"github.com/intel/symmetric-memory/pkg/transport"
	"github.com/intel/symmetric-memory/pkg/uid"
)

// ErrRendezvous is returned when the rendezvous of the PEs fails.
var ErrRendezvous = errors.New("rendezvous failed")

var log = logger.NewLogger("bootstrap")

// Bootstrap is the rendezvous state of a PE.
type Bootstrap struct {
	id      uid.ID
	rank    int
	nranks  int
	timeout time.Duration
	server  *Server
	client  *Client
}

// Listen creates the rendezvous listener for the given address.
func Listen(address string) (net.Listener, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, errors.Wrapf(ErrRendezvous, "failed to listen on %s: %v", address, err)
	}
	return ln, nil
}

// New sets up the rendezvous for a PE. PE 0 starts serving on ln, or on
// the address of the id if ln is nil.
func New(id uid.ID, rank, nranks int, ln net.Listener) (*Bootstrap, error) {
	if err := id.Validate(); err != nil {
		return nil, errors.Wrapf(ErrRendezvous, "invalid unique id: %v", err)
	}

	b := &Bootstrap{
		id:      id,
		rank:    rank,
		nranks:  nranks,
		timeout: Timeout(),
	}
	session := id.Session().String()

	if rank == 0 {
		if ln == nil {
			var err error
			if ln, err = Listen(id.Address()); err != nil {
				return nil, err
			}
		}
		b.server = NewServer(session, nranks)
		if err := b.server.Start(ln); err != nil {
			ln.Close()
			return nil, errors.Wrapf(ErrRendezvous, "failed to start server: %v", err)
		}
	} else if ln != nil {
		ln.Close()
	}

	client, err := Dial(id.Address(), session, rank, nranks)
	if err != nil {
		b.stopServer()
		return nil, err
	}
	b.client = client

	return b, nil
}

// Exchange joins the rendezvous and returns the peers of all PEs.
func (b *Bootstrap) Exchange(ctx context.Context, self transport.Peer) ([]transport.Peer, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	log.Debug("PE %d/%d joining session %s at %s...", b.rank, b.nranks, b.id.Short(), b.id.Address())

	peers, err := b.client.Join(ctx, self)
	if err != nil {
		return nil, err
	}

	log.Info("PE %d/%d joined session %s", b.rank, b.nranks, b.id.Short())

	return peers, nil
}

// Barrier blocks until every PE entered the barrier.
func (b *Bootstrap) Barrier(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.client.Barrier(ctx)
}

// Close leaves the rendezvous. PE 0 waits for the others to leave before
// stopping the server.
func (b *Bootstrap) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	err := b.client.Leave(ctx)
	if err != nil {
		log.Warn("PE %d failed to leave rendezvous: %v", b.rank, err)
	}

	if b.server != nil && err == nil {
		if werr := b.server.WaitLeft(ctx); werr != nil {
			log.Warn("not all PEs left the rendezvous: %v", werr)
		}
	}

	if cerr := b.client.Close(); cerr != nil && err == nil {
		err = errors.Wrap(cerr, "failed to close rendezvous connection")
	}
	b.stopServer()

	return err
}

// Abort tears down the rendezvous without waiting for other PEs.
func (b *Bootstrap) Abort() {
	if b.client != nil {
		b.client.Close()
	}
	b.stopServer()
}

func (b *Bootstrap) stopServer() {
	if b.server != nil {
		b.server.Stop()
	}
}

func bootstrapError(format string, args ...interface{}) error {
	return fmt.Errorf("bootstrap: "+format, args...)
}
