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

// Package http runs the HTTP endpoint of a PE. Handlers can be removed
// again, and PEs sharing a host shift the configured port by their rank.
package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	logger "github.com/intel/symmetric-memory/pkg/log"
)

var log = logger.NewLogger("http")

// ServeMux is an HTTP request multiplexer with removable handlers.
type ServeMux struct {
	sync.RWMutex
	handlers map[string]http.Handler
	mux      *http.ServeMux
}

// NewServeMux creates a new HTTP request multiplexer.
func NewServeMux() *ServeMux {
	return &ServeMux{
		handlers: map[string]http.Handler{},
		mux:      http.NewServeMux(),
	}
}

// Handle registers handler for pattern. Duplicate patterns are rejected.
func (m *ServeMux) Handle(pattern string, handler http.Handler) {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.handlers[pattern]; ok {
		log.Error("HTTP handler for %q already registered", pattern)
		return
	}
	m.handlers[pattern] = handler
	m.mux.Handle(pattern, handler)
	log.Debug("handling %q", pattern)
}

// HandleFunc registers fn for pattern.
func (m *ServeMux) HandleFunc(pattern string, fn func(http.ResponseWriter, *http.Request)) {
	m.Handle(pattern, http.HandlerFunc(fn))
}

// Unregister removes and returns the handler for pattern.
func (m *ServeMux) Unregister(pattern string) (http.Handler, bool) {
	m.Lock()
	defer m.Unlock()

	h, ok := m.handlers[pattern]
	if !ok {
		return nil, false
	}
	delete(m.handlers, pattern)

	// http.ServeMux cannot forget a pattern, rebuild it
	m.mux = http.NewServeMux()
	for p, handler := range m.handlers {
		m.mux.Handle(p, handler)
	}
	log.Debug("stopped handling %q", pattern)

	return h, true
}

func (m *ServeMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.RLock()
	mux := m.mux
	m.RUnlock()
	mux.ServeHTTP(w, r)
}

// Server serves a ServeMux on an address that can change at runtime.
type Server struct {
	sync.RWMutex
	srv *http.Server
	mux *ServeMux
}

// NewServer creates a stopped server.
func NewServer() *Server {
	return &Server{mux: NewServeMux()}
}

// GetMux returns the mux served.
func (s *Server) GetMux() *ServeMux {
	return s.mux
}

// GetAddress returns the bound address, or "" if the server is stopped.
func (s *Server) GetAddress() string {
	s.RLock()
	defer s.RUnlock()
	if s.srv == nil {
		return ""
	}
	return s.srv.Addr
}

// PEAddress shifts the port of addr by pe. Port 0 and empty addresses are
// returned as such.
func PEAddress(addr string, pe int) (string, error) {
	if addr == "" || pe == 0 {
		return addr, nil
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", httpError("invalid address %q: %v", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 {
		return "", httpError("invalid port in address %q", addr)
	}
	if port == 0 {
		return addr, nil
	}
	if port += pe; port > 65535 {
		return "", httpError("port of %q shifted by PE %d is out of range", addr, pe)
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// Start binds addr and starts serving. An empty addr leaves the server off.
func (s *Server) Start(addr string) error {
	if addr == "" {
		log.Info("HTTP endpoint disabled")
		return nil
	}

	s.Lock()
	defer s.Unlock()

	if s.srv != nil {
		return httpError("already serving on %s", s.srv.Addr)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return httpError("failed to listen on %q: %v", addr, err)
	}
	srv := &http.Server{Addr: ln.Addr().String(), Handler: s.mux}
	s.srv = srv

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error("serving on %s failed: %v", srv.Addr, err)
		}
	}()
	log.Info("serving HTTP on %s", srv.Addr)

	return nil
}

// Stop closes the server and all its connections.
func (s *Server) Stop() {
	s.Lock()
	defer s.Unlock()
	if s.srv == nil {
		return
	}
	log.Info("closing HTTP endpoint %s", s.srv.Addr)
	s.srv.Close()
	s.srv = nil
}

// Shutdown stops the server once active requests are done or ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Lock()
	srv := s.srv
	s.srv = nil
	s.Unlock()

	if srv == nil {
		return nil
	}
	log.Info("shutting down HTTP endpoint %s", srv.Addr)
	return srv.Shutdown(ctx)
}

// Reconfigure moves the server to addr unless it already serves there.
func (s *Server) Reconfigure(addr string) error {
	if addr != "" && s.GetAddress() == addr {
		return nil
	}
	return s.Restart(addr)
}

// Restart stops the server and starts it on addr.
func (s *Server) Restart(addr string) error {
	s.Stop()
	return s.Start(addr)
}

func httpError(format string, args ...interface{}) error {
	return fmt.Errorf("http: "+format, args...)
}
