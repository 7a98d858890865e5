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

package log

import (
	"fmt"
	"strings"

	"google.golang.org/grpc/grpclog"
)

// SetGrpcLogger redirects grpc log messages to source, or to the default
// logger if source is empty, optionally rate limited. grpc chatter at
// info severity ends up as debug messages.
func SetGrpcLogger(source string, rate *Rate) {
	var l Logger = defaultLogger()
	if source != "" {
		l = log.get(source)
	}
	if rate != nil {
		l = RateLimit(l, *rate)
	}
	grpclog.SetLoggerV2(grpcAdapter{l})
}

type grpcAdapter struct {
	l Logger
}

var _ grpclog.LoggerV2 = grpcAdapter{}

func (g grpcAdapter) Info(args ...interface{})    { g.l.Debug(literal(args)) }
func (g grpcAdapter) Infoln(args ...interface{})  { g.l.Debug(literal(args)) }
func (g grpcAdapter) Warning(args ...interface{}) { g.l.Warn(literal(args)) }
func (g grpcAdapter) Error(args ...interface{})   { g.l.Error(literal(args)) }
func (g grpcAdapter) Errorln(args ...interface{}) { g.l.Error(literal(args)) }
func (g grpcAdapter) Fatal(args ...interface{})   { g.l.Fatal(literal(args)) }
func (g grpcAdapter) Fatalln(args ...interface{}) { g.l.Fatal(literal(args)) }

func (g grpcAdapter) Warningln(args ...interface{}) { g.l.Warn(literal(args)) }

func (g grpcAdapter) Infof(format string, args ...interface{})    { g.l.Debug(format, args...) }
func (g grpcAdapter) Warningf(format string, args ...interface{}) { g.l.Warn(format, args...) }
func (g grpcAdapter) Errorf(format string, args ...interface{})   { g.l.Error(format, args...) }
func (g grpcAdapter) Fatalf(format string, args ...interface{})   { g.l.Fatal(format, args...) }

// literal turns a message into a format printing it as is. Rate limits
// then apply per message rather than to all unformatted messages at once.
func literal(args []interface{}) string {
	return strings.ReplaceAll(fmt.Sprint(args...), "%", "%%")
}

// V reports verbosity 0 always, anything above only while debugging.
func (g grpcAdapter) V(level int) bool {
	return level <= 0 || g.l.DebugEnabled()
}
