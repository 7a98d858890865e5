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
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/intel/symmetric-memory/pkg/instrumentation"
	"github.com/intel/symmetric-memory/pkg/transport"
)

// Server is the rendezvous server, run by PE 0 of a job.
type Server struct {
	sync.Mutex
	session  string
	nranks   int
	heapSize uint64
	peers    []transport.Peer
	joined   []bool
	njoined  int
	ready    chan struct{}
	failed   chan struct{}
	err      error
	barriers map[uint64]*barrier
	left     []bool
	nleft    int
	allLeft  chan struct{}
	server   *grpc.Server
	listener net.Listener
	stopOnce sync.Once
}

// barrier tracks the PEs that entered a host barrier of some epoch.
type barrier struct {
	entered []bool
	count   int
	done    chan struct{}
}

// NewServer creates a rendezvous server for the given session and job size.
func NewServer(session string, nranks int) *Server {
	return &Server{
		session:  session,
		nranks:   nranks,
		peers:    make([]transport.Peer, nranks),
		joined:   make([]bool, nranks),
		ready:    make(chan struct{}),
		failed:   make(chan struct{}),
		barriers: make(map[uint64]*barrier),
		left:     make([]bool, nranks),
		allLeft:  make(chan struct{}),
	}
}

// Start starts serving the rendezvous service on the given listener.
func (s *Server) Start(ln net.Listener) error {
	s.Lock()
	defer s.Unlock()

	if s.server != nil {
		return status.Error(codes.FailedPrecondition, "rendezvous server already started")
	}

	s.listener = ln
	s.server = grpc.NewServer(instrumentation.InjectGrpcServerTrace()...)
	RegisterRendezvousServer(s.server, s)

	log.Info("serving rendezvous for session %s (%d PEs) on %s", s.session, s.nranks, ln.Addr())

	go func(srv *grpc.Server) {
		if err := srv.Serve(ln); err != nil {
			log.Error("rendezvous server failed: %v", err)
		}
	}(s.server)

	return nil
}

// Address returns the address the server is serving on.
func (s *Server) Address() string {
	s.Lock()
	defer s.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop stops the server, gracefully if every PE has already left.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.Lock()
		srv := s.server
		s.Unlock()

		if srv == nil {
			return
		}

		select {
		case <-s.allLeft:
			srv.GracefulStop()
		default:
			srv.Stop()
		}
		log.Info("rendezvous server stopped")
	})
}

// WaitLeft waits until every PE has left the rendezvous, or ctx is done.
func (s *Server) WaitLeft(ctx context.Context) error {
	select {
	case <-s.allLeft:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Join registers a PE. It returns the full peer table once every PE joined.
func (s *Server) Join(ctx context.Context, req *JoinRequest) (*JoinReply, error) {
	if err := s.join(req); err != nil {
		return nil, err
	}

	select {
	case <-s.ready:
	case <-s.failed:
	case <-ctx.Done():
		return nil, contextError(ctx.Err())
	}

	s.Lock()
	defer s.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	return &JoinReply{Peers: append([]transport.Peer(nil), s.peers...)}, nil
}

func (s *Server) join(req *JoinRequest) error {
	s.Lock()
	defer s.Unlock()

	if req.Session != s.session {
		return status.Errorf(codes.PermissionDenied, "unknown session %q", req.Session)
	}
	if s.err != nil {
		return s.err
	}

	rank := req.Peer.Rank
	switch {
	case req.NRanks != s.nranks:
		return s.fail(codes.InvalidArgument, "PE %d joined with %d PEs, expected %d",
			rank, req.NRanks, s.nranks)
	case rank < 0 || rank >= s.nranks:
		return s.fail(codes.InvalidArgument, "PE %d out of range for %d PEs", rank, s.nranks)
	case s.joined[rank]:
		return s.fail(codes.AlreadyExists, "PE %d joined twice", rank)
	case s.njoined > 0 && req.Peer.HeapSize != s.heapSize:
		return s.fail(codes.InvalidArgument, "PE %d joined with heap size %d, expected %d",
			rank, req.Peer.HeapSize, s.heapSize)
	}

	if s.njoined == 0 {
		s.heapSize = req.Peer.HeapSize
	}
	s.peers[rank] = req.Peer
	s.joined[rank] = true
	s.njoined++

	log.Debug("%s joined (%d/%d)", req.Peer, s.njoined, s.nranks)

	if s.njoined == s.nranks {
		log.Info("all %d PEs joined session %s", s.nranks, s.session)
		close(s.ready)
	}

	return nil
}

// fail fails the rendezvous for every PE. The caller must hold the lock.
func (s *Server) fail(code codes.Code, format string, args ...interface{}) error {
	s.err = status.Errorf(code, format, args...)
	log.Error("rendezvous failed: %v", s.err)
	close(s.failed)
	return s.err
}

// Barrier blocks until every PE entered the barrier of the same epoch.
func (s *Server) Barrier(ctx context.Context, req *BarrierRequest) (*BarrierReply, error) {
	b, err := s.enter(req)
	if err != nil {
		return nil, err
	}

	select {
	case <-b.done:
	case <-s.failed:
		s.Lock()
		err := s.err
		s.Unlock()
		return nil, err
	case <-ctx.Done():
		return nil, contextError(ctx.Err())
	}

	return &BarrierReply{Epoch: req.Epoch}, nil
}

func (s *Server) enter(req *BarrierRequest) (*barrier, error) {
	s.Lock()
	defer s.Unlock()

	if req.Session != s.session {
		return nil, status.Errorf(codes.PermissionDenied, "unknown session %q", req.Session)
	}
	if s.err != nil {
		return nil, s.err
	}
	if req.Rank < 0 || req.Rank >= s.nranks || !s.joined[req.Rank] {
		return nil, status.Errorf(codes.FailedPrecondition, "PE %d hasn't joined", req.Rank)
	}

	b, ok := s.barriers[req.Epoch]
	if !ok {
		b = &barrier{entered: make([]bool, s.nranks), done: make(chan struct{})}
		s.barriers[req.Epoch] = b
	}
	if b.entered[req.Rank] {
		return nil, status.Errorf(codes.AlreadyExists, "PE %d entered barrier %d twice",
			req.Rank, req.Epoch)
	}

	b.entered[req.Rank] = true
	b.count++
	if b.count == s.nranks {
		close(b.done)
		delete(s.barriers, req.Epoch)
		log.Debug("barrier %d complete", req.Epoch)
	}

	return b, nil
}

// Leave marks a PE as done with the rendezvous.
func (s *Server) Leave(ctx context.Context, req *LeaveRequest) (*LeaveReply, error) {
	s.Lock()
	defer s.Unlock()

	if req.Session != s.session {
		return nil, status.Errorf(codes.PermissionDenied, "unknown session %q", req.Session)
	}
	if req.Rank < 0 || req.Rank >= s.nranks {
		return nil, status.Errorf(codes.InvalidArgument, "PE %d out of range", req.Rank)
	}

	if !s.left[req.Rank] {
		s.left[req.Rank] = true
		s.nleft++
		log.Debug("PE %d left (%d/%d)", req.Rank, s.nleft, s.nranks)
		if s.nleft == s.nranks {
			close(s.allLeft)
		}
	}

	return &LeaveReply{Remaining: s.nranks - s.nleft}, nil
}

// contextError converts a context error to a gRPC status error.
func contextError(err error) error {
	if err == context.DeadlineExceeded {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Canceled, err.Error())
}
