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

package bootstrap

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/intel/symmetric-memory/pkg/instrumentation"
	"github.com/intel/symmetric-memory/pkg/transport"
)

// Client is a connection of a PE to the rendezvous server.
type Client struct {
	conn    *grpc.ClientConn
	client  *rendezvousClient
	session string
	rank    int
	nranks  int
	epoch   uint64
}

// Dial creates a client for the rendezvous server at the given address.
// The connection is established lazily, calls wait for the server to come up.
func Dial(address, session string, rank, nranks int) (*Client, error) {
	dialOpts := instrumentation.InjectGrpcClientTrace(
		grpc.WithInsecure(),
		grpc.WithDefaultCallOptions(
			grpc.CallContentSubtype(codecName),
			grpc.WaitForReady(true),
		),
	)

	conn, err := grpc.Dial(address, dialOpts...)
	if err != nil {
		return nil, errors.Wrapf(ErrRendezvous, "failed to dial %s: %v", address, err)
	}

	return &Client{
		conn:    conn,
		client:  &rendezvousClient{cc: conn},
		session: session,
		rank:    rank,
		nranks:  nranks,
	}, nil
}

// Join announces the local PE and returns the peers of all PEs.
func (c *Client) Join(ctx context.Context, self transport.Peer) ([]transport.Peer, error) {
	self.Rank = c.rank
	reply, err := c.client.Join(ctx, &JoinRequest{
		Session: c.session,
		NRanks:  c.nranks,
		Peer:    self,
	})
	if err != nil {
		return nil, rendezvousError("join", err)
	}
	if len(reply.Peers) != c.nranks {
		return nil, errors.Wrapf(ErrRendezvous, "join returned %d peers, expected %d",
			len(reply.Peers), c.nranks)
	}
	return reply.Peers, nil
}

// Barrier blocks until every PE entered the barrier.
func (c *Client) Barrier(ctx context.Context) error {
	c.epoch++
	_, err := c.client.Barrier(ctx, &BarrierRequest{
		Session: c.session,
		Rank:    c.rank,
		Epoch:   c.epoch,
	})
	if err != nil {
		return rendezvousError("barrier", err)
	}
	return nil
}

// Leave announces that the local PE is done with the rendezvous.
func (c *Client) Leave(ctx context.Context) error {
	_, err := c.client.Leave(ctx, &LeaveRequest{Session: c.session, Rank: c.rank})
	if err != nil {
		return rendezvousError("leave", err)
	}
	return nil
}

// Close closes the connection to the server.
func (c *Client) Close() error {
	return c.conn.Close()
}

func rendezvousError(op string, err error) error {
	st := status.Convert(err)
	return errors.Wrapf(ErrRendezvous, "%s failed (%s): %s", op, st.Code(), st.Message())
}
