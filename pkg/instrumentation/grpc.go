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

package instrumentation

import (
	"go.opencensus.io/plugin/ocgrpc"
	"go.opencensus.io/stats/view"
	"google.golang.org/grpc"
)

// rendezvousViews are the views recorded for bootstrap RPCs: how many
// joins, barriers and leaves completed and how long they took.
var rendezvousViews = []*view.View{
	ocgrpc.ClientCompletedRPCsView,
	ocgrpc.ClientRoundtripLatencyView,
	ocgrpc.ServerCompletedRPCsView,
	ocgrpc.ServerLatencyView,
}

// InjectGrpcClientTrace adds the opencensus stats handler to dial options.
func InjectGrpcClientTrace(opts ...grpc.DialOption) []grpc.DialOption {
	return append(opts, grpc.WithStatsHandler(&ocgrpc.ClientHandler{}))
}

// InjectGrpcServerTrace adds the opencensus stats handler to server options.
func InjectGrpcServerTrace(opts ...grpc.ServerOption) []grpc.ServerOption {
	return append(opts, grpc.StatsHandler(&ocgrpc.ServerHandler{}))
}

func registerGrpcViews() error {
	if err := view.Register(rendezvousViews...); err != nil {
		return instrumentationError("failed to register rendezvous views: %v", err)
	}
	return nil
}

func unregisterGrpcViews() {
	view.Unregister(rendezvousViews...)
}
