// Copyright 2026 Blink Labs Software
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


// Package status serves the wallet's operational endpoints: prometheus
// metrics plus gRPC health and reflection over h2c.
package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"connectrpc.com/grpcreflect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// ServiceName is reported by the health checker for the governance service
const ServiceName = "guild.governance"

var ErrAlreadyStarted = errors.New("status server already started")

type Status struct {
	config   StatusConfig
	checker  *grpchealth.StaticChecker
	server   *http.Server
	listener net.Listener
	mu       sync.Mutex
	done     chan struct{}
}

type StatusConfig struct {
	Logger          *slog.Logger
	Gatherer        prometheus.Gatherer
	Host            string
	Port            uint
	TlsCertFilePath string
	TlsKeyFilePath  string
}

func NewStatus(cfg StatusConfig) *Status {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	cfg.Logger = cfg.Logger.With("component", "status")
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	checker := grpchealth.NewStaticChecker(ServiceName)
	// Not serving until the node finished starting
	checker.SetStatus(ServiceName, grpchealth.StatusNotServing)
	checker.SetStatus("", grpchealth.StatusNotServing)
	return &Status{
		config:  cfg,
		checker: checker,
	}
}

// SetServing flips the reported health of the wallet
func (s *Status) SetServing(serving bool) {
	status := grpchealth.StatusNotServing
	if serving {
		status = grpchealth.StatusServing
	}
	s.checker.SetStatus(ServiceName, status)
	s.checker.SetStatus("", status)
}

func (s *Status) handler() http.Handler {
	mux := http.NewServeMux()
	compress1KB := connect.WithCompressMinBytes(1024)
	mux.Handle(
		"/metrics",
		promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}),
	)
	mux.Handle(grpchealth.NewHandler(s.checker, compress1KB))
	reflector := grpcreflect.NewStaticReflector(grpchealth.HealthV1ServiceName)
	mux.Handle(grpcreflect.NewHandlerV1(reflector, compress1KB))
	mux.Handle(grpcreflect.NewHandlerV1Alpha(reflector, compress1KB))
	return mux
}

// Start binds the listener and serves in the background
func (s *Status) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return ErrAlreadyStarted
	}
	addr := net.JoinHostPort(s.config.Host, fmt.Sprintf("%d", s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("status listener: %w", err)
	}
	useTls := s.config.TlsCertFilePath != "" && s.config.TlsKeyFilePath != ""
	handler := s.handler()
	if !useTls {
		// h2c serves HTTP/2 without TLS
		handler = h2c.NewHandler(handler, &http2.Server{})
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.done = make(chan struct{})
	s.config.Logger.Info(
		"starting status listener on "+listener.Addr().String(),
		"tls", useTls,
	)
	server := s.server
	done := s.done
	go func() {
		defer close(done)
		var err error
		if useTls {
			err = server.ServeTLS(
				listener,
				s.config.TlsCertFilePath,
				s.config.TlsKeyFilePath,
			)
		} else {
			err = server.Serve(listener)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.config.Logger.Error(
				"status listener failed",
				"error", err,
			)
		}
	}()
	return nil
}

// Addr returns the bound listener address, or nil before Start
func (s *Status) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Status) Stop(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	done := s.done
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if server == nil {
		return nil
	}
	s.SetServing(false)
	err := server.Shutdown(ctx)
	select {
	case <-done:
	case <-ctx.Done():
	}
	return err
}
