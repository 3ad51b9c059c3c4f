// Package server listens for client connections and runs one session
// per connection. Sessions are isolated: they share nothing but the
// ledger behind the allocator and order services.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"trattoria/internal/config"
	"trattoria/internal/logger"
	"trattoria/internal/orders"
	"trattoria/internal/reservations"
)

// Server accepts client connections and spawns a session goroutine for
// each one.
type Server struct {
	cfg       config.Server
	allocator *reservations.Allocator
	orders    *orders.Service
	log       *logrus.Entry

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

// New builds a server; Run starts it.
func New(cfg config.Server, allocator *reservations.Allocator, orderSvc *orders.Service) *Server {
	return &Server{
		cfg:       cfg,
		allocator: allocator,
		orders:    orderSvc,
		log:       logger.New("server"),
	}
}

// Run binds the listener and accepts connections until ctx is cancelled.
// A bind failure is returned immediately and is fatal to the caller; an
// accept failure on a live listener is logged and survived. Run waits
// for in-flight sessions before returning.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.ListenAddr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.log.WithField("addr", ln.Addr().String()).Info("listening")

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.log.WithError(err).Warn("accept_failed")
			continue
		}

		sess := &session{
			conn:         conn,
			allocator:    s.allocator,
			orders:       s.orders,
			readTimeout:  s.cfg.ReadTimeout.Std(),
			writeTimeout: s.cfg.WriteTimeout.Std(),
			log: s.log.WithFields(logrus.Fields{
				"conn_id": uuid.NewString(),
				"remote":  conn.RemoteAddr().String(),
			}),
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			sess.run(ctx)
		}()
	}

	s.wg.Wait()
	s.log.Info("server_stopped")
	return nil
}

// Addr returns the bound listener address, for tests that listen on an
// ephemeral port.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}
