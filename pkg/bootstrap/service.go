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

	"google.golang.org/grpc"

	"github.com/intel/symmetric-memory/pkg/transport"
)

const (
	// ServiceName is the full name of the rendezvous gRPC service.
	ServiceName = "shmem.bootstrap.v1.Rendezvous"

	methodJoin    = "/" + ServiceName + "/Join"
	methodBarrier = "/" + ServiceName + "/Barrier"
	methodLeave   = "/" + ServiceName + "/Leave"
)

// JoinRequest announces a PE to the rendezvous.
type JoinRequest struct {
	Session string         `json:"session"`
	NRanks  int            `json:"nranks"`
	Peer    transport.Peer `json:"peer"`
}

// JoinReply carries the peers of every PE once all of them joined.
type JoinReply struct {
	Peers []transport.Peer `json:"peers"`
}

// BarrierRequest enters a PE into a host barrier.
type BarrierRequest struct {
	Session string `json:"session"`
	Rank    int    `json:"rank"`
	Epoch   uint64 `json:"epoch"`
}

// BarrierReply is sent once every PE entered the barrier.
type BarrierReply struct {
	Epoch uint64 `json:"epoch"`
}

// LeaveRequest announces that a PE is done with the rendezvous.
type LeaveRequest struct {
	Session string `json:"session"`
	Rank    int    `json:"rank"`
}

// LeaveReply tells how many PEs are still to leave.
type LeaveReply struct {
	Remaining int `json:"remaining"`
}

// RendezvousServer is the server API of the rendezvous service.
type RendezvousServer interface {
	Join(context.Context, *JoinRequest) (*JoinReply, error)
	Barrier(context.Context, *BarrierRequest) (*BarrierReply, error)
	Leave(context.Context, *LeaveRequest) (*LeaveReply, error)
}

// RegisterRendezvousServer registers the rendezvous service with a gRPC server.
func RegisterRendezvousServer(s *grpc.Server, srv RendezvousServer) {
	s.RegisterService(&rendezvousServiceDesc, srv)
}

var rendezvousServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RendezvousServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Join",
			Handler: unaryHandler(methodJoin, func() interface{} { return &JoinRequest{} },
				func(srv RendezvousServer, ctx context.Context, req interface{}) (interface{}, error) {
					return srv.Join(ctx, req.(*JoinRequest))
				}),
		},
		{
			MethodName: "Barrier",
			Handler: unaryHandler(methodBarrier, func() interface{} { return &BarrierRequest{} },
				func(srv RendezvousServer, ctx context.Context, req interface{}) (interface{}, error) {
					return srv.Barrier(ctx, req.(*BarrierRequest))
				}),
		},
		{
			MethodName: "Leave",
			Handler: unaryHandler(methodLeave, func() interface{} { return &LeaveRequest{} },
				func(srv RendezvousServer, ctx context.Context, req interface{}) (interface{}, error) {
					return srv.Leave(ctx, req.(*LeaveRequest))
				}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pkg/bootstrap/service.go",
}

type methodFn func(RendezvousServer, context.Context, interface{}) (interface{}, error)

type handlerFn = func(srv interface{}, ctx context.Context, dec func(interface{}) error,
	interceptor grpc.UnaryServerInterceptor) (interface{}, error)

// unaryHandler creates the gRPC method handler for a rendezvous method.
func unaryHandler(method string, newReq func() interface{}, fn methodFn) handlerFn {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error,
		interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		req := newReq()
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return fn(srv.(RendezvousServer), ctx, req)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return fn(srv.(RendezvousServer), ctx, req)
		}
		return interceptor(ctx, req, info, handler)
	}
}

// rendezvousClient is the client API of the rendezvous service.
type rendezvousClient struct {
	cc *grpc.ClientConn
}

func (c *rendezvousClient) Join(ctx context.Context, in *JoinRequest, opts ...grpc.CallOption) (*JoinReply, error) {
	out := &JoinReply{}
	if err := c.cc.Invoke(ctx, methodJoin, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *rendezvousClient) Barrier(ctx context.Context, in *BarrierRequest, opts ...grpc.CallOption) (*BarrierReply, error) {
	out := &BarrierReply{}
	if err := c.cc.Invoke(ctx, methodBarrier, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *rendezvousClient) Leave(ctx context.Context, in *LeaveRequest, opts ...grpc.CallOption) (*LeaveReply, error) {
	out := &LeaveReply{}
	if err := c.cc.Invoke(ctx, methodLeave, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
